// Package edit implements the load → authorize → edit/submit workflow for a
// single search context.
//
// A Workflow hosts at most one Session at a time. Opening a new session or
// leaving the current one abandons whatever the previous session had in
// flight: every session carries a generation number, and results whose
// generation no longer matches are dropped.
package edit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-ports/searchctx/internal/models"
)

var (
	// ErrPermissionDenied is returned when the viewer cannot manage the context.
	ErrPermissionDenied = errors.New("You do not have sufficient permissions to edit this context.") //nolint:revive,stylecheck // user-facing message
	// ErrMissingID is returned by Submit when no context ID is given.
	ErrMissingID = errors.New("cannot update search context with undefined ID")
	// ErrNotLoaded is returned by Submit before the context has loaded.
	ErrNotLoaded = errors.New("search context is not loaded")
	// ErrSessionClosed is returned when the session was left while a task ran.
	ErrSessionClosed = errors.New("edit session closed")
	// ErrMissingName is returned by Create when the name is empty or invalid.
	ErrMissingName = errors.New("search context name is required")
)

// Backend is the data source the workflow loads from and saves to.
type Backend interface {
	FetchContextBySpec(ctx context.Context, spec string, platform models.Platform) (*models.SearchContext, error)
	UpdateContext(ctx context.Context, args models.UpdateArgs, platform models.Platform) (*models.SearchContext, error)
}

// Creator is implemented by backends that can create contexts.
type Creator interface {
	CreateContext(ctx context.Context, input models.CreateInput, repos []models.RepositoryRevisions, platform models.Platform) (*models.SearchContext, error)
}

// Phase is where a session is in its lifecycle.
type Phase int

// Session phases.
const (
	Idle Phase = iota
	Loading
	Loaded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// State is what a hosting view renders.
type State struct {
	Phase   Phase
	Context *models.SearchContext // set when Loaded
	Err     error                 // set when Failed
}

// Workflow hosts the current edit session.
type Workflow struct {
	backend  Backend
	platform models.Platform

	mu    sync.Mutex
	gen   uint64
	state State
	end   context.CancelFunc
}

// New returns an idle Workflow. platform is forwarded to every backend call.
func New(backend Backend, platform models.Platform) *Workflow {
	return &Workflow{backend: backend, platform: platform}
}

// State returns the current session state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Open starts a session for spec in the Loading phase, abandoning any
// previous session.
func (w *Workflow) Open(spec string) *Session {
	life, end := context.WithCancel(context.Background())

	w.mu.Lock()
	defer w.mu.Unlock()
	w.abandonLocked()
	w.gen++
	w.end = end
	w.state = State{Phase: Loading}
	return &Session{w: w, gen: w.gen, spec: spec, life: life}
}

// Leave destroys the current session. Tasks still in flight are cancelled
// and their results ignored.
func (w *Workflow) Leave() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.abandonLocked()
	w.gen++
	w.state = State{}
}

func (w *Workflow) abandonLocked() {
	if w.end != nil {
		w.end()
		w.end = nil
	}
}

// current reports whether gen is still the live session.
func (w *Workflow) current(gen uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gen == gen
}

// Session is one navigation to an edit target.
type Session struct {
	w    *Workflow
	gen  uint64
	spec string
	life context.Context
}

// Spec returns the spec the session was opened for.
func (s *Session) Spec() string { return s.spec }

// bind derives a task context that is also cancelled when the session ends.
func (s *Session) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Load fetches the context and checks the viewer may manage it, then
// settles the session into Loaded or Failed. The returned State is the
// workflow's state after the attempt; if the session was left meanwhile
// the result is discarded.
func (s *Session) Load(ctx context.Context) State {
	if !s.w.current(s.gen) {
		return s.w.State()
	}
	ctx, done := s.bind(ctx)
	defer done()

	sc, err := s.w.backend.FetchContextBySpec(ctx, s.spec, s.w.platform)
	switch {
	case err != nil:
		sc, err = nil, fmt.Errorf("fetch search context %q: %w", s.spec, err)
	case sc == nil:
		err = fmt.Errorf("fetch search context %q: not found", s.spec)
	case !sc.ViewerCanManage:
		sc, err = nil, ErrPermissionDenied
	}

	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if s.w.gen == s.gen && s.w.state.Phase == Loading {
		if err != nil {
			s.w.state = State{Phase: Failed, Err: err}
		} else {
			s.w.state = State{Phase: Loaded, Context: sc}
		}
	}
	return s.w.state
}

// Submit saves edits to the loaded context. An empty id fails with
// ErrMissingID before anything is sent. On success the session's context is
// replaced with the updated one.
func (s *Session) Submit(
	ctx context.Context,
	id string,
	edits models.EditInput,
	repos []models.RepositoryRevisions,
) (*models.SearchContext, error) {
	if id == "" {
		return nil, ErrMissingID
	}

	s.w.mu.Lock()
	switch {
	case s.w.gen != s.gen:
		s.w.mu.Unlock()
		return nil, ErrSessionClosed
	case s.w.state.Phase != Loaded:
		s.w.mu.Unlock()
		return nil, ErrNotLoaded
	}
	s.w.mu.Unlock()

	ctx, done := s.bind(ctx)
	defer done()

	updated, err := s.w.backend.UpdateContext(ctx, models.UpdateArgs{
		ID:           id,
		Edits:        edits,
		Repositories: repos,
	}, s.w.platform)

	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if s.w.gen != s.gen {
		return nil, ErrSessionClosed
	}
	if err != nil {
		return nil, fmt.Errorf("update search context: %w", err)
	}
	s.w.state.Context = updated
	return updated, nil
}

// Create validates input and creates a new context through c.
func Create(
	ctx context.Context,
	c Creator,
	input models.CreateInput,
	repos []models.RepositoryRevisions,
	platform models.Platform,
) (*models.SearchContext, error) {
	if !models.ValidName(input.Name) {
		return nil, ErrMissingName
	}
	sc, err := c.CreateContext(ctx, input, repos, platform)
	if err != nil {
		return nil, fmt.Errorf("create search context: %w", err)
	}
	return sc, nil
}
