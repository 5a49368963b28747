// Package editcmd implements the `searchctx edit` command.
package editcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/searchctx/cmd/searchctx/shared"
	"github.com/go-ports/searchctx/internal/edit"
	"github.com/go-ports/searchctx/internal/models"
	"github.com/go-ports/searchctx/internal/service"
)

// Command implements `searchctx edit`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	name        string
	description string
	public      bool
	private     bool
	repos       []string
}

// New creates the edit command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "edit <spec>",
		Short: "Edit a search context you manage",
		Long: "Edit a search context you manage.\n\n" +
			"Flags that are not given keep their current values. --repo replaces\n" +
			"the whole repository list.",
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.name, "name", "", "New name")
	f.StringVar(&c.description, "description", "", "New description")
	f.BoolVar(&c.public, "public", false, "Make the context visible to everyone")
	f.BoolVar(&c.private, "private", false, "Make the context visible to its namespace only")
	f.StringArrayVar(&c.repos, "repo", nil, `Repository as "name" or "name@rev1,rev2" (repeatable)`)
	c.cmd.MarkFlagsMutuallyExclusive("public", "private")

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

	w := svc.EditWorkflow()
	defer w.Leave()

	session := w.Open(args[0])
	st := session.Load(cmd.Context())
	if st.Phase != edit.Loaded {
		return fmt.Errorf("Error while loading the search context: %w", st.Err) //nolint:revive,stylecheck // user-facing message
	}
	current := st.Context

	flags := cmd.Flags()
	edits := models.EditInput{
		Name:        current.Name,
		Description: current.Description,
		Public:      current.Public,
	}
	if flags.Changed("name") {
		edits.Name = c.name
	}
	if flags.Changed("description") {
		edits.Description = c.description
	}
	switch {
	case flags.Changed("public"):
		edits.Public = c.public
	case flags.Changed("private"):
		edits.Public = !c.private
	}

	repos := current.Repositories
	if flags.Changed("repo") {
		repos = make([]models.RepositoryRevisions, 0, len(c.repos))
		for _, r := range c.repos {
			rr, err := service.ParseRepository(r)
			if err != nil {
				return err
			}
			repos = append(repos, rr)
		}
	}

	updated, err := session.Submit(cmd.Context(), current.ID, edits, repos)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated: %s\n", updated.Spec())
	return nil
}
