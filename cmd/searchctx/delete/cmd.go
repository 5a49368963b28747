// Package deletecmd implements the `searchctx delete` command.
package deletecmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/searchctx/cmd/searchctx/shared"
	"github.com/go-ports/searchctx/internal/service"
)

// Command implements `searchctx delete`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the delete command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "delete <spec>",
		Short: "Delete a search context you manage",
		Args:  cobra.ExactArgs(1),
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

	sc, err := svc.DeleteContext(cmd.Context(), args[0])
	if errors.Is(err, service.ErrNotFound) {
		fmt.Fprintf(cmd.OutOrStdout(), "No search context found for %s\n", args[0])
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted search context %s\n", sc.Spec())
	return nil
}
