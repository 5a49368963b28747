// Package mcp provides the stdio MCP server exposing search context tools for
// coding agents.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/searchctx/internal/buildinfo"
	"github.com/go-ports/searchctx/internal/edit"
	"github.com/go-ports/searchctx/internal/models"
	"github.com/go-ports/searchctx/internal/selection"
	"github.com/go-ports/searchctx/internal/service"
)

const listDescription = `List the search contexts visible to the current user. A search context is a named set of repositories and revisions; adding ` + "`context:<spec>`" + ` to a query restricts the search to it. Built-in contexts (global, @<user>) come first.`

const selectDescription = `Show or change the selected search context. Without a spec it reports the current selection. With a query it also reports whether the query overrides the selection with its own context: filter, and the query that would actually be searched.` //nolint:lll

const updateDescription = `Edit a search context the user can manage. Omitted fields keep their current values; repositories, when given, replace the whole list. Each repository is "name" or "name@rev1,rev2".` //nolint:lll

// NewServer creates and registers all search context tools on a new MCP server.
// It is separate from Serve so that tests and other callers can obtain a
// fully configured server without committing to the stdio transport.
func NewServer(svc *service.Service) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("searchctx", buildinfo.Version)
	registerTools(s, svc)
	return s
}

// Serve starts the stdio MCP server rooted at home, blocking until stdin closes.
func Serve(_ context.Context, home string) error {
	svc, err := service.New(home)
	if err != nil {
		return fmt.Errorf("mcp: init service: %w", err)
	}
	defer svc.Close()

	return mcpserver.ServeStdio(NewServer(svc))
}

// registerTools wires all MCP tools into the server.
func registerTools(s *mcpserver.MCPServer, svc *service.Service) {
	s.AddTool(mcp.NewTool("search_context_list",
		mcp.WithDescription(listDescription),
		mcp.WithString("query",
			mcp.Description("Only contexts whose spec or description contains this text."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max contexts (default 20)"),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleList(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("search_context_get",
		mcp.WithDescription("Get one search context with its repositories."),
		mcp.WithString("spec",
			mcp.Description(`Context spec, e.g. "global", "@alice" or "@acme/web".`),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGet(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("search_context_select",
		mcp.WithDescription(selectDescription),
		mcp.WithString("spec",
			mcp.Description("Context to select. Omit to keep the current selection."),
		),
		mcp.WithString("query",
			mcp.Description("Search query to evaluate against the selection."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSelect(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("search_context_create",
		mcp.WithDescription("Create a search context in the user's namespace, one of their organizations, or (site admins only) at instance level."),
		mcp.WithString("name",
			mcp.Description("Context name."),
			mcp.Required(),
		),
		mcp.WithString("namespace",
			mcp.Description("User or organization name. Omit for an instance-level context."),
		),
		mcp.WithString("description",
			mcp.Description("What the context is for."),
		),
		mcp.WithBoolean("public",
			mcp.Description("Visible to everyone (default true)."),
		),
		mcp.WithArray("repositories",
			mcp.Description(`Repositories as "name" or "name@rev1,rev2".`),
			mcp.WithStringItems(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCreate(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("search_context_update",
		mcp.WithDescription(updateDescription),
		mcp.WithString("spec",
			mcp.Description("Context to edit."),
			mcp.Required(),
		),
		mcp.WithString("name", mcp.Description("New name.")),
		mcp.WithString("description", mcp.Description("New description.")),
		mcp.WithBoolean("public", mcp.Description("New visibility.")),
		mcp.WithArray("repositories",
			mcp.Description(`Replacement repository list.`),
			mcp.WithStringItems(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleUpdate(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("search_context_cta",
		mcp.WithDescription("Report whether the search contexts call-to-action is shown to the user, or dismiss it for good."),
		mcp.WithBoolean("dismiss",
			mcp.Description("Dismiss the call-to-action."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCTA(ctx, svc, req)
	})
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func handleList(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}

	all, err := svc.ListContexts(ctx, req.GetString("query", ""), 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	total := len(all)
	if len(all) > limit {
		all = all[:limit]
	}

	contexts := make([]map[string]any, 0, len(all))
	for _, sc := range all {
		contexts = append(contexts, map[string]any{
			"spec":        sc.Spec(),
			"description": truncate(sc.Description, 80),
			"public":      sc.Public,
			"auto":        sc.AutoDefined,
			"can_manage":  sc.ViewerCanManage,
		})
	}

	return jsonResult(map[string]any{
		"total":    total,
		"showing":  len(contexts),
		"selected": svc.Selection(nil).Selected(),
		"contexts": contexts,
	})
}

func handleGet(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sc, err := svc.GetContext(ctx, req.GetString("spec", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(contextDetail(sc))
}

func handleSelect(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sel := svc.Selection(nil)

	if spec := req.GetString("spec", ""); spec != "" {
		sc, err := svc.GetContext(ctx, spec)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := sel.Select(sc.Spec()); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	q := req.GetString("query", "")
	label := selection.LabelFor(sel.Selected())
	return jsonResult(map[string]any{
		"selected":        label.String(),
		"sigil":           label.Sigil,
		"name":            label.Name,
		"overridden":      sel.IsOverridden(q),
		"disabled_reason": sel.DisabledReason(q),
		"effective_query": sel.EffectiveQuery(q),
	})
}

func handleCreate(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repos, err := parseRepos(req.GetStringSlice("repositories", make([]string, 0)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sc, err := edit.Create(ctx, svc, models.CreateInput{
		EditInput: models.EditInput{
			Name:        req.GetString("name", ""),
			Description: req.GetString("description", ""),
			Public:      req.GetBool("public", true),
		},
		Namespace: req.GetString("namespace", ""),
	}, repos, svc.Platform())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := contextDetail(sc)
	out["action"] = "created"
	return jsonResult(out)
}

func handleUpdate(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w := svc.EditWorkflow()
	defer w.Leave()

	session := w.Open(req.GetString("spec", ""))
	st := session.Load(ctx)
	if st.Phase != edit.Loaded {
		return mcp.NewToolResultError(st.Err.Error()), nil
	}
	current := st.Context

	edits := models.EditInput{
		Name:        req.GetString("name", current.Name),
		Description: req.GetString("description", current.Description),
		Public:      req.GetBool("public", current.Public),
	}
	repos := current.Repositories
	if _, ok := req.GetArguments()["repositories"]; ok {
		var err error
		if repos, err = parseRepos(req.GetStringSlice("repositories", nil)); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	updated, err := session.Submit(ctx, current.ID, edits, repos)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := contextDetail(updated)
	out["action"] = "updated"
	return jsonResult(out)
}

func handleCTA(_ context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if req.GetBool("dismiss", false) {
		if err := svc.CTA().Dismiss(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	prompt, visible, err := svc.ShowCTA()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := map[string]any{"visible": visible}
	if visible {
		out["title"] = prompt.Title
		out["body"] = prompt.Body
		out["button"] = prompt.Button
	}
	return jsonResult(out)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func contextDetail(sc *models.SearchContext) map[string]any {
	repos := make([]map[string]any, 0, len(sc.Repositories))
	for _, r := range sc.Repositories {
		revs := r.Revisions
		if revs == nil {
			revs = make([]string, 0)
		}
		repos = append(repos, map[string]any{
			"repository": r.Repository,
			"revisions":  revs,
		})
	}
	return map[string]any{
		"id":           sc.ID,
		"spec":         sc.Spec(),
		"name":         sc.Name,
		"namespace":    sc.Namespace,
		"description":  sc.Description,
		"public":       sc.Public,
		"auto":         sc.AutoDefined,
		"can_manage":   sc.ViewerCanManage,
		"repositories": repos,
		"updated":      formatDate(sc.UpdatedAt),
	}
}

func parseRepos(args []string) ([]models.RepositoryRevisions, error) {
	out := make([]models.RepositoryRevisions, 0, len(args))
	var errs []error
	for _, a := range args {
		rr, err := service.ParseRepository(a)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, rr)
	}
	return out, errors.Join(errs...)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return s
}

// formatDate renders t as "Jan 02", or "" for the zero time.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 02")
}
