// Package service implements the Service orchestrator that wires together
// configuration, the database, permissions and the search context
// controllers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-ports/searchctx/internal/config"
	"github.com/go-ports/searchctx/internal/cta"
	"github.com/go-ports/searchctx/internal/db"
	"github.com/go-ports/searchctx/internal/dropdown"
	"github.com/go-ports/searchctx/internal/edit"
	"github.com/go-ports/searchctx/internal/models"
	"github.com/go-ports/searchctx/internal/selection"
	"github.com/go-ports/searchctx/internal/settings"
	"github.com/go-ports/searchctx/internal/telemetry"
)

var (
	// ErrNotFound is returned when a spec or ID names no visible context.
	ErrNotFound = errors.New("search context not found")
	// ErrForbidden is returned when the viewer may not change a context.
	ErrForbidden = errors.New("permission denied")
	// ErrAutoDefined is returned when changing a built-in context.
	ErrAutoDefined = errors.New("auto-defined search contexts cannot be changed")
	// ErrReservedName is returned when an instance-level context would shadow a built-in.
	ErrReservedName = errors.New("search context name is reserved")
)

// Service orchestrates all search context operations.
type Service struct {
	Home   string
	Config *config.Config

	database *db.DB
	sink     telemetry.Sink
}

// New initialises a Service rooted at home.
// If home is empty it is resolved via config.GetHome.
func New(home string) (*Service, error) {
	if home == "" {
		home = config.GetHome()
	}

	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, fmt.Errorf("service.New: create home dir: %w", err)
	}

	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("service.New: load config: %w", err)
	}

	database, err := db.Open(filepath.Join(home, "contexts.db"))
	if err != nil {
		return nil, fmt.Errorf("service.New: open db: %w", err)
	}

	return &Service{
		Home:     home,
		Config:   cfg,
		database: database,
		sink: telemetry.Multi(
			telemetry.LogSink{Logger: slog.Default()},
			db.EventRecorder{DB: database},
		),
	}, nil
}

// Close releases all resources held by the service.
func (s *Service) Close() error {
	return s.database.Close()
}

// Viewer returns the configured user, or nil when anonymous.
func (s *Service) Viewer() *models.User { return s.Config.User() }

// Platform returns the handle forwarded to backend calls.
func (s *Service) Platform() models.Platform {
	return models.Platform{Viewer: s.Viewer()}
}

// Settings returns the persistent temporary-settings store.
func (s *Service) Settings() settings.Store { return db.Settings{DB: s.database} }

// Telemetry returns the event sink.
func (s *Service) Telemetry() telemetry.Sink { return s.sink }

// ---------------------------------------------------------------------------
// Permissions
// ---------------------------------------------------------------------------

// canManage reports whether viewer may edit or delete sc. Site admins manage
// everything; otherwise instance-level contexts need a site admin and
// namespaced ones need the owner or an organization member.
func canManage(viewer *models.User, sc *models.SearchContext) bool {
	if viewer == nil || sc.AutoDefined {
		return false
	}
	if viewer.SiteAdmin {
		return true
	}
	return sc.Namespace != "" && viewer.MemberOf(sc.Namespace)
}

func canRead(viewer *models.User, sc *models.SearchContext) bool {
	return sc.Public || sc.AutoDefined || canManage(viewer, sc)
}

func decorate(viewer *models.User, sc *models.SearchContext) *models.SearchContext {
	sc.ViewerCanManage = canManage(viewer, sc)
	return sc
}

// ---------------------------------------------------------------------------
// Auto-defined contexts
// ---------------------------------------------------------------------------

// AutoDefined returns the built-in contexts: global, plus the viewer's own
// repositories when signed in.
func (s *Service) AutoDefined(viewer *models.User) ([]*models.SearchContext, error) {
	out := []*models.SearchContext{{
		ID:          "auto:" + models.GlobalSpec,
		Name:        models.GlobalSpec,
		Description: "All repositories",
		Public:      true,
		AutoDefined: true,
	}}
	if viewer == nil {
		return out, nil
	}

	names, err := s.database.ListUserRepositories()
	if err != nil {
		return nil, fmt.Errorf("auto-defined contexts: %w", err)
	}
	repos := make([]models.RepositoryRevisions, 0, len(names))
	for _, n := range names {
		repos = append(repos, models.RepositoryRevisions{Repository: n, Revisions: []string{}})
	}
	return append(out, &models.SearchContext{
		ID:           "auto:" + models.NamespaceSigil + viewer.Username,
		Namespace:    viewer.Username,
		Description:  "Your repositories",
		AutoDefined:  true,
		Repositories: repos,
	}), nil
}

// ---------------------------------------------------------------------------
// Read
// ---------------------------------------------------------------------------

// ListContexts returns the contexts visible to the viewer whose spec or
// description contains filter, built-in contexts first.
// limit <= 0 means no limit.
func (s *Service) ListContexts(ctx context.Context, filter string, limit int) ([]*models.SearchContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	viewer := s.Viewer()

	autos, err := s.AutoDefined(viewer)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(filter))
	out := make([]*models.SearchContext, 0, len(autos))
	for _, sc := range autos {
		if needle == "" ||
			strings.Contains(strings.ToLower(sc.Spec()), needle) ||
			strings.Contains(strings.ToLower(sc.Description), needle) {
			out = append(out, decorate(viewer, sc))
		}
	}

	stored, err := s.database.ListContexts(filter, 0)
	if err != nil {
		return nil, fmt.Errorf("list search contexts: %w", err)
	}
	for _, sc := range stored {
		if canRead(viewer, sc) {
			out = append(out, decorate(viewer, sc))
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetContext resolves spec to a context visible to the viewer.
func (s *Service) GetContext(ctx context.Context, spec string) (*models.SearchContext, error) {
	return s.FetchContextBySpec(ctx, spec, s.Platform())
}

// FetchContextBySpec implements edit.Backend. Missing and private contexts
// both yield ErrNotFound.
func (s *Service) FetchContextBySpec(ctx context.Context, spec string, platform models.Platform) (*models.SearchContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spec = strings.TrimSpace(spec)
	viewer := platform.Viewer

	p := models.ParseSpec(spec)
	if spec == models.GlobalSpec || (p.Namespace != "" && p.Name == "") {
		autos, err := s.AutoDefined(viewer)
		if err != nil {
			return nil, err
		}
		for _, sc := range autos {
			if strings.EqualFold(sc.Spec(), spec) {
				return decorate(viewer, sc), nil
			}
		}
		return nil, fmt.Errorf("%q: %w", spec, ErrNotFound)
	}

	sc, found, err := s.database.GetContext(p.Namespace, p.Name)
	if err != nil {
		return nil, err
	}
	if !found || !canRead(viewer, sc) {
		return nil, fmt.Errorf("%q: %w", spec, ErrNotFound)
	}
	return decorate(viewer, sc), nil
}

// ---------------------------------------------------------------------------
// Write
// ---------------------------------------------------------------------------

// CreateContext implements edit.Creator.
func (s *Service) CreateContext(
	ctx context.Context,
	input models.CreateInput,
	repos []models.RepositoryRevisions,
	platform models.Platform,
) (*models.SearchContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !models.ValidName(input.Name) {
		return nil, edit.ErrMissingName
	}
	input.Namespace = strings.TrimPrefix(strings.TrimSpace(input.Namespace), models.NamespaceSigil)
	if input.Namespace == "" && input.Name == models.GlobalSpec {
		return nil, ErrReservedName
	}

	now := time.Now().UTC().Truncate(time.Second)
	sc := &models.SearchContext{
		ID:           models.NewID(),
		Name:         input.Name,
		Namespace:    input.Namespace,
		Description:  input.Description,
		Public:       input.Public,
		Repositories: repos,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !canManage(platform.Viewer, sc) {
		return nil, ErrForbidden
	}
	if err := s.database.InsertContext(sc); err != nil {
		return nil, err
	}
	return decorate(platform.Viewer, sc), nil
}

// UpdateContext implements edit.Backend.
func (s *Service) UpdateContext(ctx context.Context, args models.UpdateArgs, platform models.Platform) (*models.SearchContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(args.ID, "auto:") {
		return nil, ErrAutoDefined
	}
	current, found, err := s.database.GetContextByID(args.ID)
	if err != nil {
		return nil, err
	}
	if !found || !canRead(platform.Viewer, current) {
		return nil, fmt.Errorf("id %q: %w", args.ID, ErrNotFound)
	}
	if !canManage(platform.Viewer, current) {
		return nil, ErrForbidden
	}
	if !models.ValidName(args.Edits.Name) {
		return nil, edit.ErrMissingName
	}
	if current.Namespace == "" && args.Edits.Name == models.GlobalSpec {
		return nil, ErrReservedName
	}

	ok, err := s.database.UpdateContext(args.ID, args.Edits, args.Repositories)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("id %q: %w", args.ID, ErrNotFound)
	}

	updated, _, err := s.database.GetContextByID(args.ID)
	if err != nil {
		return nil, err
	}
	return decorate(platform.Viewer, updated), nil
}

// DeleteContext removes the context named by spec.
func (s *Service) DeleteContext(ctx context.Context, spec string) (*models.SearchContext, error) {
	sc, err := s.GetContext(ctx, spec)
	if err != nil {
		return nil, err
	}
	if sc.AutoDefined {
		return nil, ErrAutoDefined
	}
	if !sc.ViewerCanManage {
		return nil, ErrForbidden
	}
	if _, err := s.database.DeleteContext(sc.ID); err != nil {
		return nil, err
	}
	return sc, nil
}

// ---------------------------------------------------------------------------
// Controllers
// ---------------------------------------------------------------------------

// Selection returns a selection controller backed by the settings store.
// A non-nil submit makes picking a context start a search.
func (s *Service) Selection(submit selection.SubmitFunc) *selection.Controller {
	opts := []selection.Option{selection.WithDefault(s.Config.Search.DefaultContext)}
	if submit != nil {
		opts = append(opts, selection.WithSubmit(submit))
	}
	return selection.New(s.Settings(), opts...)
}

// Dropdown returns a dropdown controller for the current viewer.
func (s *Service) Dropdown(onEscape func()) *dropdown.Controller {
	var opts []dropdown.Option
	if onEscape != nil {
		opts = append(opts, dropdown.WithOnEscape(onEscape))
	}
	return dropdown.New(s.sink, s.Viewer() != nil, opts...)
}

// EditWorkflow returns an edit workflow acting as the current viewer.
func (s *Service) EditWorkflow() *edit.Workflow {
	return edit.New(s, s.Platform())
}

// CTA returns the dismissal policy.
func (s *Service) CTA() *cta.Policy {
	return cta.NewPolicy(s.Settings(), s.sink)
}

// CTAFacts gathers the inputs of the CTA rule.
func (s *Service) CTAFacts() (cta.Facts, error) {
	repos, err := s.database.CountUserRepositories()
	if err != nil {
		return cta.Facts{}, fmt.Errorf("cta facts: %w", err)
	}
	hosts, err := s.database.CountExternalServices()
	if err != nil {
		return cta.Facts{}, fmt.Errorf("cta facts: %w", err)
	}
	return cta.Facts{
		Dotcom:                       s.Config.Instance.Dotcom,
		Viewer:                       s.Viewer(),
		HasUserAddedRepositories:     repos > 0,
		Dismissed:                    s.CTA().Dismissed(),
		HasUserAddedExternalServices: hosts > 0,
		ExternalServicesUserModeAll:  s.Config.Instance.ExternalServicesUserModeAll,
	}, nil
}

// ShowCTA returns the prompt to display and whether it is visible. A
// visible prompt is recorded as shown.
func (s *Service) ShowCTA() (cta.Prompt, bool, error) {
	f, err := s.CTAFacts()
	if err != nil {
		return cta.Prompt{}, false, err
	}
	if !cta.Visible(f) {
		return cta.Prompt{}, false, nil
	}
	s.sink.Log(telemetry.EventCTAShown)
	return cta.PromptFor(f), true, nil
}

// ---------------------------------------------------------------------------
// Viewer repositories and events
// ---------------------------------------------------------------------------

// AddUserRepository records a repository the viewer added.
func (s *Service) AddUserRepository(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, errors.New("repository name is required")
	}
	return s.database.AddUserRepository(name)
}

// ListUserRepositories returns the repositories the viewer added.
func (s *Service) ListUserRepositories() ([]string, error) {
	return s.database.ListUserRepositories()
}

// ConnectCodeHost records a code host connection of the given kind.
func (s *Service) ConnectCodeHost(kind string) (bool, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		return false, errors.New("code host kind is required")
	}
	return s.database.AddExternalService(kind)
}

// Events returns the most recent telemetry events, oldest first.
func (s *Service) Events(limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.database.ListEvents(limit)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// ParseRepository parses "name" or "name@rev1,rev2" into a repository entry.
func ParseRepository(arg string) (models.RepositoryRevisions, error) {
	name, revs, hasRevs := strings.Cut(strings.TrimSpace(arg), "@")
	if name == "" {
		return models.RepositoryRevisions{}, fmt.Errorf("invalid repository %q", arg)
	}
	rr := models.RepositoryRevisions{Repository: name, Revisions: []string{}}
	if hasRevs {
		for _, r := range strings.Split(revs, ",") {
			if r = strings.TrimSpace(r); r != "" {
				rr.Revisions = append(rr.Revisions, r)
			}
		}
	}
	return rr, nil
}
