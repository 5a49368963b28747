package dropdown_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/searchctx/internal/dropdown"
	"github.com/go-ports/searchctx/internal/telemetry"
)

func TestTransition(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name          string
		from          dropdown.State
		authenticated bool
		want          dropdown.Step
	}{
		{"open authenticated", dropdown.Closed, true, dropdown.Step{
			Next: dropdown.Open, Toggled: telemetry.EventDropdownToggled, Entered: telemetry.EventDropdownViewed,
		}},
		{"open anonymous", dropdown.Closed, false, dropdown.Step{
			Next: dropdown.Open, Toggled: telemetry.EventDropdownToggled, Entered: telemetry.EventCTAShown,
		}},
		{"close authenticated", dropdown.Open, true, dropdown.Step{
			Next: dropdown.Closed, Toggled: telemetry.EventDropdownToggled,
		}},
		{"close anonymous", dropdown.Open, false, dropdown.Step{
			Next: dropdown.Closed, Toggled: telemetry.EventDropdownToggled,
		}},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Assert(dropdown.Transition(tc.from, tc.authenticated), qt.Equals, tc.want)
		})
	}
}

func TestToggle_Parity(t *testing.T) {
	c := qt.New(t)

	for n := range 9 {
		for _, auth := range []bool{true, false} {
			var rec telemetry.Recorder
			d := dropdown.New(&rec, auth)
			for range n {
				d.Toggle()
			}
			want := dropdown.Closed
			if n%2 == 1 {
				want = dropdown.Open
			}
			c.Assert(d.State(), qt.Equals, want, qt.Commentf("n=%d auth=%v", n, auth))
			c.Assert(rec.Count(telemetry.EventDropdownToggled), qt.Equals, n)
		}
	}
}

func TestToggle_OpenEvents(t *testing.T) {
	c := qt.New(t)

	c.Run("authenticated open emits one viewed and no CTA", func(c *qt.C) {
		var rec telemetry.Recorder
		d := dropdown.New(&rec, true)
		c.Assert(d.Toggle(), qt.Equals, dropdown.Open)
		c.Assert(rec.Events(), qt.DeepEquals, []string{
			telemetry.EventDropdownToggled,
			telemetry.EventDropdownViewed,
		})
	})

	c.Run("anonymous open emits one CTA shown and no viewed", func(c *qt.C) {
		var rec telemetry.Recorder
		d := dropdown.New(&rec, false)
		d.Toggle()
		c.Assert(rec.Count(telemetry.EventCTAShown), qt.Equals, 1)
		c.Assert(rec.Count(telemetry.EventDropdownViewed), qt.Equals, 0)
	})

	c.Run("every open emits again", func(c *qt.C) {
		var rec telemetry.Recorder
		d := dropdown.New(&rec, true)
		for range 6 {
			d.Toggle()
		}
		c.Assert(rec.Count(telemetry.EventDropdownViewed), qt.Equals, 3)
	})

	c.Run("authentication change applies to the next open", func(c *qt.C) {
		var rec telemetry.Recorder
		d := dropdown.New(&rec, false)
		d.SetAuthenticated(true)
		d.Toggle()
		c.Assert(rec.Count(telemetry.EventDropdownViewed), qt.Equals, 1)
		c.Assert(rec.Count(telemetry.EventCTAShown), qt.Equals, 0)
	})
}

func TestToggle_EmitsBeforeTransition(t *testing.T) {
	c := qt.New(t)

	var d *dropdown.Controller
	var seen []dropdown.State
	sink := telemetry.SinkFunc(func(event string) {
		if event == telemetry.EventDropdownToggled {
			seen = append(seen, d.State())
		}
	})
	d = dropdown.New(sink, true)

	d.Toggle()
	d.Toggle()
	c.Assert(seen, qt.DeepEquals, []dropdown.State{dropdown.Closed, dropdown.Open})
}

func TestToggle_PanickingSinkKeepsState(t *testing.T) {
	c := qt.New(t)

	d := dropdown.New(telemetry.SinkFunc(func(string) { panic("telemetry down") }), false)
	c.Assert(d.Toggle(), qt.Equals, dropdown.Open)
	c.Assert(d.Toggle(), qt.Equals, dropdown.Closed)
}

func TestClose(t *testing.T) {
	c := qt.New(t)

	c.Run("escape runs callback before closing", func(c *qt.C) {
		var rec telemetry.Recorder
		var d *dropdown.Controller
		var stateAtEscape dropdown.State
		d = dropdown.New(&rec, true, dropdown.WithOnEscape(func() { stateAtEscape = d.State() }))
		d.Toggle()

		c.Assert(d.Close(true), qt.Equals, dropdown.Closed)
		c.Assert(stateAtEscape, qt.Equals, dropdown.Open)
		c.Assert(rec.Count(telemetry.EventDropdownToggled), qt.Equals, 2)
	})

	c.Run("non-escape close skips callback", func(c *qt.C) {
		called := false
		d := dropdown.New(nil, true, dropdown.WithOnEscape(func() { called = true }))
		d.Toggle()
		c.Assert(d.Close(false), qt.Equals, dropdown.Closed)
		c.Assert(called, qt.IsFalse)
	})

	c.Run("closing a closed dropdown is a no-op", func(c *qt.C) {
		var rec telemetry.Recorder
		called := false
		d := dropdown.New(&rec, true, dropdown.WithOnEscape(func() { called = true }))
		c.Assert(d.Close(true), qt.Equals, dropdown.Closed)
		c.Assert(called, qt.IsFalse)
		c.Assert(rec.Events(), qt.HasLen, 0)
	})

	c.Run("escape without callback", func(c *qt.C) {
		d := dropdown.New(nil, false)
		d.Toggle()
		c.Assert(d.Close(true), qt.Equals, dropdown.Closed)
	})
}

func TestState_String(t *testing.T) {
	c := qt.New(t)
	c.Assert(dropdown.Open.String(), qt.Equals, "open")
	c.Assert(dropdown.Closed.String(), qt.Equals, "closed")
}
