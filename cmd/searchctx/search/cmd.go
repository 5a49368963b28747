// Package searchcmd implements the `searchctx search` command.
package searchcmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/searchctx/cmd/searchctx/shared"
	"github.com/go-ports/searchctx/internal/selection"
	"github.com/go-ports/searchctx/internal/service"
)

// Command implements `searchctx search`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the search command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "search <query>",
		Short: "Print the query that would be searched with the selected context",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	svc, err := service.New(c.ctx.Home)
	if err != nil {
		return err
	}
	defer svc.Close()

	q := strings.Join(args, " ")
	sel := svc.Selection(nil)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "source: %s\n", selection.SourceSearch)
	fmt.Fprintf(out, "query: %s\n", sel.EffectiveQuery(q))
	return nil
}
