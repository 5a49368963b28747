// Package selectcmd implements the `searchctx select` and `searchctx selected`
// commands.
package selectcmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/searchctx/cmd/searchctx/shared"
	"github.com/go-ports/searchctx/internal/query"
	"github.com/go-ports/searchctx/internal/selection"
	"github.com/go-ports/searchctx/internal/service"
)

// Command implements `searchctx select`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	submit string
}

// New creates the select command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "select <spec>",
		Short: "Select the search context used for searches",
		Long: "Select the search context used for searches.\n\n" +
			"With --submit the query is searched in the picked context right away\n" +
			"and the remembered selection is left unchanged.",
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}
	c.cmd.Flags().StringVar(&c.submit, "submit", "", "Search this query in the picked context instead of remembering it")
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

	sc, err := svc.GetContext(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var submitFn selection.SubmitFunc
	if cmd.Flags().Changed("submit") {
		submitFn = func(p selection.SubmitParams) {
			fmt.Fprintf(out, "source: %s\n", p.Source)
			fmt.Fprintf(out, "query: %s\n", scoped(p.SelectedContextSpec, c.submit))
		}
	}

	sel := svc.Selection(submitFn)
	if err := sel.Select(sc.Spec()); err != nil {
		return err
	}
	if !sel.SubmitsOnSelect() {
		fmt.Fprintf(out, "Selected %s\n", selection.LabelFor(sc.Spec()))
	}
	return nil
}

// scoped restricts q to spec unless q already names its own context.
func scoped(spec, q string) string {
	if query.HasContextToken(q) {
		return q
	}
	s := query.FieldContext + ":" + spec
	if q = strings.TrimSpace(q); q != "" {
		s += " " + q
	}
	return s
}

// ---------------------------------------------------------------------------
// selected
// ---------------------------------------------------------------------------

// Selected implements `searchctx selected`.
type Selected struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// NewSelected creates the selected command.
func NewSelected(ctx *shared.Context) *Selected {
	s := &Selected{ctx: ctx}
	s.cmd = &cobra.Command{
		Use:   "selected",
		Short: "Show the selected search context",
		Args:  cobra.NoArgs,
		RunE:  s.run,
	}
	return s
}

// Cmd returns the cobra command.
func (s *Selected) Cmd() *cobra.Command { return s.cmd }

func (s *Selected) run(cmd *cobra.Command, _ []string) error {
	svc, err := service.New(s.ctx.Home)
	if err != nil {
		return err
	}
	defer svc.Close()

	label := selection.LabelFor(svc.Selection(nil).Selected())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s:%s\n", query.FieldContext, label)
	if label.Sigil != "" {
		fmt.Fprintf(out, "namespace sigil: %s\n", label.Sigil)
	}
	fmt.Fprintf(out, "name: %s\n", label.Name)
	return nil
}
