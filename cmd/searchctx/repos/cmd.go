// Package reposcmd implements the `searchctx repos` command group.
package reposcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/searchctx/cmd/searchctx/shared"
	"github.com/go-ports/searchctx/internal/service"
)

// Command implements `searchctx repos`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the repos command group. Without a subcommand it lists.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "repos",
		Short: "Manage repositories and code hosts you added",
		RunE:  c.runList,
	}
	c.cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List repositories you added",
			RunE:  c.runList,
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a repository",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runAdd,
		},
		&cobra.Command{
			Use:   "connect <kind>",
			Short: "Connect a code host (github, gitlab, ...)",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runConnect,
		},
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runList(cmd *cobra.Command, _ []string) error {
	svc, err := service.New(c.ctx.Home)
	if err != nil {
		return err
	}
	defer svc.Close()

	names, err := svc.ListUserRepositories()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "No repositories added.")
		return nil
	}
	for _, n := range names {
		fmt.Fprintln(out, n)
	}
	return nil
}

func (c *Command) runAdd(cmd *cobra.Command, args []string) error {
	svc, err := service.New(c.ctx.Home)
	if err != nil {
		return err
	}
	defer svc.Close()

	added, err := svc.AddUserRepository(args[0])
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", args[0])
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s already added\n", args[0])
	}
	return nil
}

func (c *Command) runConnect(cmd *cobra.Command, args []string) error {
	svc, err := service.New(c.ctx.Home)
	if err != nil {
		return err
	}
	defer svc.Close()

	added, err := svc.ConnectCodeHost(args[0])
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(cmd.OutOrStdout(), "Connected %s\n", args[0])
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s already connected\n", args[0])
	}
	return nil
}
