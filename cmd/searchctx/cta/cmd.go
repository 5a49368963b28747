// Package ctacmd implements the `searchctx cta` command group.
package ctacmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/searchctx/cmd/searchctx/shared"
	"github.com/go-ports/searchctx/internal/service"
)

// Command implements `searchctx cta`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the cta command group. Without a subcommand it reports status.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "cta",
		Short: "Show or dismiss the search contexts call-to-action",
		RunE:  c.runStatus,
	}
	c.cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show whether the call-to-action is visible",
			RunE:  c.runStatus,
		},
		&cobra.Command{
			Use:   "dismiss",
			Short: "Dismiss the call-to-action for good",
			RunE:  c.runDismiss,
		},
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runStatus(cmd *cobra.Command, _ []string) error {
	svc, err := service.New(c.ctx.Home)
	if err != nil {
		return err
	}
	defer svc.Close()

	prompt, visible, err := svc.ShowCTA()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !visible {
		fmt.Fprintln(out, "Call-to-action hidden.")
		return nil
	}
	fmt.Fprintln(out, prompt.Title)
	fmt.Fprintln(out, prompt.Body)
	fmt.Fprintf(out, "[%s]\n", prompt.Button)
	return nil
}

func (c *Command) runDismiss(cmd *cobra.Command, _ []string) error {
	svc, err := service.New(c.ctx.Home)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.CTA().Dismiss(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Call-to-action dismissed.")
	return nil
}
