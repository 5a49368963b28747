// Package checkcmd implements the `searchctx check` command.
package checkcmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/searchctx/cmd/searchctx/shared"
	"github.com/go-ports/searchctx/internal/query"
	"github.com/go-ports/searchctx/internal/service"
)

// Command implements `searchctx check`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the check command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "check <query>",
		Short: "Report whether a query overrides the selected context",
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

	fmt.Fprintf(out, "selected: %s\n", sel.Selected())
	fmt.Fprintf(out, "overridden: %v\n", sel.IsOverridden(q))
	for _, f := range query.Filters(q) {
		if f.Field == query.FieldContext && !f.Negated {
			fmt.Fprintf(out, "filter: %s:%s\n", f.Field, f.Value)
		}
	}
	if reason := sel.DisabledReason(q); reason != "" {
		fmt.Fprintf(out, "selector: disabled (%s)\n", reason)
	} else {
		fmt.Fprintln(out, "selector: enabled")
	}
	fmt.Fprintf(out, "effective: %s\n", sel.EffectiveQuery(q))
	return nil
}
