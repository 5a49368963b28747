// Package selection decides where a picked search context goes: straight
// into a new search, or into the persisted selection slot used by the next
// search. It also enforces the rule that a `context:` filter typed into the
// query overrides the persisted selection.
package selection

import (
	"fmt"
	"strings"

	"github.com/go-ports/searchctx/internal/models"
	"github.com/go-ports/searchctx/internal/query"
	"github.com/go-ports/searchctx/internal/settings"
)

// OverriddenReason explains why the selector is disabled.
const OverriddenReason = "Overridden by query"

// Submission sources.
const (
	// SourceFilter marks searches submitted by picking a context.
	SourceFilter = "filter"
	// SourceSearch marks searches submitted from the search field.
	SourceSearch = "search"
)

// SubmitParams is passed to a SubmitFunc.
type SubmitParams struct {
	Source              string
	SelectedContextSpec string
}

// SubmitFunc starts a new search immediately.
type SubmitFunc func(SubmitParams)

// Option configures a Controller.
type Option func(*Controller)

// WithSubmit makes Select submit a search instead of remembering the spec.
func WithSubmit(fn SubmitFunc) Option {
	return func(c *Controller) { c.submit = fn }
}

// WithDefault sets the spec reported by Selected when nothing is stored.
func WithDefault(spec string) Option {
	return func(c *Controller) {
		if spec != "" {
			c.def = spec
		}
	}
}

// Controller owns the selected search context.
type Controller struct {
	store  settings.Store
	submit SubmitFunc
	def    string
}

// New returns a Controller persisting selections in store.
func New(store settings.Store, opts ...Option) *Controller {
	c := &Controller{store: store, def: models.GlobalSpec}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SubmitsOnSelect reports whether Select starts a search.
func (c *Controller) SubmitsOnSelect() bool { return c.submit != nil }

// Select applies a picked spec. With a submit function the search is
// submitted and the persisted selection is left alone; otherwise the spec
// is persisted.
func (c *Controller) Select(spec string) error {
	if c.submit != nil {
		c.submit(SubmitParams{Source: SourceFilter, SelectedContextSpec: spec})
		return nil
	}
	if err := c.store.Set(settings.KeySelectedContextSpec, spec); err != nil {
		return fmt.Errorf("persist selected context: %w", err)
	}
	return nil
}

// Selected returns the persisted spec, or the default when none is stored.
func (c *Controller) Selected() string {
	return settings.String(c.store, settings.KeySelectedContextSpec, c.def)
}

// IsOverridden reports whether q carries its own context filter.
func (*Controller) IsOverridden(q string) bool {
	return query.HasContextToken(q)
}

// DisabledReason is the tooltip shown on a disabled selector, or "" when
// the selector is enabled.
func (c *Controller) DisabledReason(q string) string {
	if c.IsOverridden(q) {
		return OverriddenReason
	}
	return ""
}

// EffectiveQuery returns the query that is actually searched: q itself when
// it selects a context, otherwise q scoped to the persisted selection.
func (c *Controller) EffectiveQuery(q string) string {
	if c.IsOverridden(q) {
		return q
	}
	scoped := query.FieldContext + ":" + c.Selected()
	if q = strings.TrimSpace(q); q == "" {
		return scoped
	}
	return scoped + " " + q
}

// Label is a spec split for display. The sigil is rendered as its own
// token; joining Sigil and Name yields the original spec.
type Label struct {
	Sigil string
	Name  string
}

// String joins the label back into the spec.
func (l Label) String() string { return l.Sigil + l.Name }

// LabelFor splits spec for display.
func LabelFor(spec string) Label {
	if rest, ok := strings.CutPrefix(spec, models.NamespaceSigil); ok {
		return Label{Sigil: models.NamespaceSigil, Name: rest}
	}
	return Label{Name: spec}
}
