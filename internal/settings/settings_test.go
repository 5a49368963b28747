package settings_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/searchctx/internal/settings"
)

type brokenStore struct{}

func (brokenStore) Get(string) (string, bool, error) { return "", false, errors.New("disk on fire") }
func (brokenStore) Set(string, string) error         { return errors.New("disk on fire") }

func TestBool_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("missing key returns default", func(c *qt.C) {
		s := settings.NewMemory()
		c.Assert(settings.Bool(s, "k", false), qt.IsFalse)
		c.Assert(settings.Bool(s, "k", true), qt.IsTrue)
	})

	c.Run("stored value round-trips", func(c *qt.C) {
		s := settings.NewMemory()
		c.Assert(settings.SetBool(s, "k", true), qt.IsNil)
		c.Assert(settings.Bool(s, "k", false), qt.IsTrue)
	})

	c.Run("unparsable value returns default", func(c *qt.C) {
		s := settings.NewMemory()
		c.Assert(s.Set("k", "maybe"), qt.IsNil)
		c.Assert(settings.Bool(s, "k", true), qt.IsTrue)
	})
}

func TestString_HappyPath(t *testing.T) {
	c := qt.New(t)

	s := settings.NewMemory()
	c.Assert(settings.String(s, "k", "global"), qt.Equals, "global")
	c.Assert(s.Set("k", ""), qt.IsNil)
	c.Assert(settings.String(s, "k", "global"), qt.Equals, "global")
	c.Assert(s.Set("k", "@alice"), qt.IsNil)
	c.Assert(settings.String(s, "k", "global"), qt.Equals, "@alice")
	c.Assert(s.Writes(), qt.Equals, 2)
}

func TestHelpers_FailurePath(t *testing.T) {
	c := qt.New(t)

	c.Assert(settings.Bool(brokenStore{}, "k", true), qt.IsTrue)
	c.Assert(settings.String(brokenStore{}, "k", "global"), qt.Equals, "global")
	c.Assert(settings.SetBool(brokenStore{}, "k", true), qt.ErrorMatches, "disk on fire")
}
