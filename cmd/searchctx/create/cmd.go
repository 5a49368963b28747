// Package createcmd implements the `searchctx create` command.
package createcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/searchctx/cmd/searchctx/shared"
	"github.com/go-ports/searchctx/internal/edit"
	"github.com/go-ports/searchctx/internal/models"
	"github.com/go-ports/searchctx/internal/service"
)

// Command implements `searchctx create`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	name        string
	namespace   string
	description string
	private     bool
	repos       []string
}

// New creates the create command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "create",
		Short: "Create a search context",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.name, "name", "", "Context name (required)")
	f.StringVar(&c.namespace, "namespace", "", "User or organization; empty for an instance-level context")
	f.StringVar(&c.description, "description", "", "What the context is for")
	f.BoolVar(&c.private, "private", false, "Only visible to the namespace")
	f.StringArrayVar(&c.repos, "repo", nil, `Repository as "name" or "name@rev1,rev2" (repeatable)`)

	_ = c.cmd.MarkFlagRequired("name")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	repos := make([]models.RepositoryRevisions, 0, len(c.repos))
	for _, r := range c.repos {
		rr, err := service.ParseRepository(r)
		if err != nil {
			return err
		}
		repos = append(repos, rr)
	}

	svc, err := service.New(c.ctx.Home)
	if err != nil {
		return err
	}
	defer svc.Close()

	sc, err := edit.Create(cmd.Context(), svc, models.CreateInput{
		EditInput: models.EditInput{
			Name:        c.name,
			Description: c.description,
			Public:      !c.private,
		},
		Namespace: c.namespace,
	}, repos, svc.Platform())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s (id: %s)\n", sc.Spec(), sc.ID)
	return nil
}
