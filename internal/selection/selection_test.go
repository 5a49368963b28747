package selection_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/searchctx/internal/selection"
	"github.com/go-ports/searchctx/internal/settings"
)

type failingStore struct{ settings.Memory }

func (*failingStore) Set(string, string) error { return errors.New("read-only") }

func TestSelect_WithSubmit_NeverPersists(t *testing.T) {
	c := qt.New(t)

	store := settings.NewMemory()
	var got []selection.SubmitParams
	ctl := selection.New(store, selection.WithSubmit(func(p selection.SubmitParams) {
		got = append(got, p)
	}))

	for _, spec := range []string{"global", "@alice", "@acme/backend"} {
		c.Assert(ctl.Select(spec), qt.IsNil)
	}

	c.Assert(ctl.SubmitsOnSelect(), qt.IsTrue)
	c.Assert(store.Writes(), qt.Equals, 0)
	c.Assert(got, qt.DeepEquals, []selection.SubmitParams{
		{Source: "filter", SelectedContextSpec: "global"},
		{Source: "filter", SelectedContextSpec: "@alice"},
		{Source: "filter", SelectedContextSpec: "@acme/backend"},
	})
	c.Assert(ctl.Selected(), qt.Equals, "global")
}

func TestSelect_WithoutSubmit_AlwaysPersists(t *testing.T) {
	c := qt.New(t)

	store := settings.NewMemory()
	ctl := selection.New(store)

	c.Assert(ctl.SubmitsOnSelect(), qt.IsFalse)
	c.Assert(ctl.Select("@alice"), qt.IsNil)
	c.Assert(ctl.Selected(), qt.Equals, "@alice")
	c.Assert(ctl.Select("@acme/backend"), qt.IsNil)
	c.Assert(ctl.Selected(), qt.Equals, "@acme/backend")
	c.Assert(store.Writes(), qt.Equals, 2)
}

func TestSelect_FailurePath(t *testing.T) {
	c := qt.New(t)

	ctl := selection.New(&failingStore{})
	err := ctl.Select("@alice")
	c.Assert(err, qt.ErrorMatches, "persist selected context: read-only")
}

func TestSelected_Default(t *testing.T) {
	c := qt.New(t)

	c.Assert(selection.New(settings.NewMemory()).Selected(), qt.Equals, "global")
	c.Assert(selection.New(settings.NewMemory(), selection.WithDefault("@me")).Selected(), qt.Equals, "@me")
	c.Assert(selection.New(settings.NewMemory(), selection.WithDefault("")).Selected(), qt.Equals, "global")
}

func TestOverride_HappyPath(t *testing.T) {
	c := qt.New(t)

	store := settings.NewMemory()
	ctl := selection.New(store)
	c.Assert(ctl.Select("@alice"), qt.IsNil)

	cases := []struct {
		name       string
		q          string
		overridden bool
		reason     string
		effective  string
	}{
		{"plain query uses persisted", "func main", false, "", "context:@alice func main"},
		{"empty query uses persisted", "  ", false, "", "context:@alice"},
		{"token in query wins", "context:global foo", true, "Overridden by query", "context:global foo"},
		{"negated token does not override", "-context:global foo", false, "", "context:@alice -context:global foo"},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Assert(ctl.IsOverridden(tc.q), qt.Equals, tc.overridden)
			c.Assert(ctl.DisabledReason(tc.q), qt.Equals, tc.reason)
			c.Assert(ctl.EffectiveQuery(tc.q), qt.Equals, tc.effective)
		})
	}

	// Overriding disables the selector but never clears the persisted spec.
	c.Assert(ctl.Selected(), qt.Equals, "@alice")
}

func TestLabelFor(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		spec string
		want selection.Label
	}{
		{"@alice", selection.Label{Sigil: "@", Name: "alice"}},
		{"@acme/backend", selection.Label{Sigil: "@", Name: "acme/backend"}},
		{"global", selection.Label{Name: "global"}},
		{"", selection.Label{}},
	}

	for _, tc := range cases {
		c.Run(tc.spec, func(c *qt.C) {
			got := selection.LabelFor(tc.spec)
			c.Assert(got, qt.Equals, tc.want)
			c.Assert(got.String(), qt.Equals, tc.spec)
		})
	}
}
