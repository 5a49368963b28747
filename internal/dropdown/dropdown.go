// Package dropdown implements the open/closed lifecycle of the search
// context dropdown and the telemetry emitted on each transition.
package dropdown

import (
	"sync"

	"github.com/go-ports/searchctx/internal/telemetry"
)

// State is the dropdown's visibility.
type State int

// Dropdown states.
const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Step is the outcome of one toggle. Toggled is emitted before the state
// changes; Entered, when non-empty, right after.
type Step struct {
	Next    State
	Toggled string
	Entered string
}

// Transition computes the toggle out of from. Opening emits the dropdown
// view for authenticated viewers and the CTA view for anonymous ones, never
// both.
func Transition(from State, authenticated bool) Step {
	step := Step{Next: Open, Toggled: telemetry.EventDropdownToggled}
	if from == Open {
		step.Next = Closed
		return step
	}
	if authenticated {
		step.Entered = telemetry.EventDropdownViewed
	} else {
		step.Entered = telemetry.EventCTAShown
	}
	return step
}

// Controller owns the dropdown state.
type Controller struct {
	mu            sync.Mutex
	state         State
	authenticated bool
	sink          telemetry.Sink
	onEscape      func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithOnEscape registers a callback run before an escape-key close.
func WithOnEscape(fn func()) Option {
	return func(c *Controller) { c.onEscape = fn }
}

// New returns a closed dropdown. authenticated selects which event opening
// emits.
func New(sink telemetry.Sink, authenticated bool, opts ...Option) *Controller {
	c := &Controller{
		state:         Closed,
		authenticated: authenticated,
		sink:          telemetry.Safe(sink),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsOpen reports whether the dropdown is open.
func (c *Controller) IsOpen() bool { return c.State() == Open }

// SetAuthenticated updates whether a viewer is signed in.
func (c *Controller) SetAuthenticated(authenticated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authenticated = authenticated
}

// Toggle flips the dropdown and returns the new state.
func (c *Controller) Toggle() State {
	c.mu.Lock()
	step := Transition(c.state, c.authenticated)
	c.mu.Unlock()

	c.sink.Log(step.Toggled)

	c.mu.Lock()
	c.state = step.Next
	c.mu.Unlock()

	if step.Entered != "" {
		c.sink.Log(step.Entered)
	}
	return step.Next
}

// Close closes an open dropdown. An escape-key close runs the on-escape
// callback first. Closing a closed dropdown does nothing.
func (c *Controller) Close(escape bool) State {
	if !c.IsOpen() {
		return Closed
	}
	if escape && c.onEscape != nil {
		c.onEscape()
	}
	return c.Toggle()
}
