// Package pickcmd implements the `searchctx pick` command.
package pickcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/searchctx/cmd/searchctx/shared"
	"github.com/go-ports/searchctx/internal/service"
	"github.com/go-ports/searchctx/internal/tui"
)

// Command implements `searchctx pick`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	query  string
	submit bool
	limit  int
}

// New creates the pick command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "pick",
		Short: "Interactive search bar with the search context dropdown",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.query, "query", "", "Initial search query")
	f.BoolVar(&c.submit, "submit", false, "Search immediately when a context is picked")
	f.IntVar(&c.limit, "limit", 50, "Maximum number of contexts in the dropdown")

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

	res, err := tui.Run(cmd.Context(), svc, tui.Options{
		Query:          c.query,
		SubmitOnSelect: c.submit,
		Limit:          c.limit,
	}, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if res.Query == "" {
		return nil
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "source: %s\n", res.Source)
	fmt.Fprintf(out, "query: %s\n", res.Query)
	return nil
}
