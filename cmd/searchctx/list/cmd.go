// Package listcmd implements the `searchctx list` command.
package listcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/searchctx/cmd/searchctx/shared"
	"github.com/go-ports/searchctx/internal/service"
)

// Command implements `searchctx list`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	query string
	limit int
}

// New creates the list command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "list",
		Short: "List the search contexts you can see",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.query, "query", "", "Only contexts whose spec or description contains this text")
	f.IntVar(&c.limit, "limit", 0, "Maximum number of contexts (0 = all)")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	svc, err := service.New(c.ctx.Home)
	if err != nil {
		return err
	}
	defer svc.Close()

	contexts, err := svc.ListContexts(cmd.Context(), c.query, c.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	selected := svc.Selection(nil).Selected()
	if len(contexts) == 0 {
		fmt.Fprintln(out, "No search contexts found.")
		return nil
	}
	for _, sc := range contexts {
		marker := "  "
		if sc.Spec() == selected {
			marker = "* "
		}
		fmt.Fprint(out, marker)
		shared.PrintContext(out, sc)
	}
	return nil
}
