package models_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/searchctx/internal/models"
)

func TestSpec_HappyPath(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name string
		sc   models.SearchContext
		want string
	}{
		{"instance level", models.SearchContext{Name: "monorepo"}, "monorepo"},
		{"global", models.SearchContext{Name: "global", AutoDefined: true}, "global"},
		{"user namespace", models.SearchContext{Name: "web", Namespace: "alice"}, "@alice/web"},
		{"auto-defined personal", models.SearchContext{Name: "alice", Namespace: "alice", AutoDefined: true}, "@alice"},
		{"namespace without name", models.SearchContext{Namespace: "acme"}, "@acme"},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			c.Assert(tt.sc.Spec(), qt.Equals, tt.want)
		})
	}
}

func TestParseSpec_HappyPath(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		spec string
		want models.ParsedSpec
	}{
		{"global", models.ParsedSpec{Name: "global"}},
		{"@alice", models.ParsedSpec{Namespace: "alice"}},
		{"@alice/web", models.ParsedSpec{Namespace: "alice", Name: "web"}},
		{"@acme/team/backend", models.ParsedSpec{Namespace: "acme", Name: "team/backend"}},
		{"", models.ParsedSpec{}},
	}

	for _, tt := range tests {
		c.Run(tt.spec, func(c *qt.C) {
			c.Assert(models.ParseSpec(tt.spec), qt.DeepEquals, tt.want)
		})
	}
}

func TestUser_Membership(t *testing.T) {
	c := qt.New(t)

	var anon *models.User
	c.Assert(anon.IsOrgMember(), qt.IsFalse)
	c.Assert(anon.MemberOf("alice"), qt.IsFalse)

	u := &models.User{Username: "alice", Organizations: []string{"Acme"}}
	c.Assert(u.IsOrgMember(), qt.IsTrue)
	c.Assert(u.MemberOf("alice"), qt.IsTrue)
	c.Assert(u.MemberOf("acme"), qt.IsTrue)
	c.Assert(u.MemberOf("bob"), qt.IsFalse)
	c.Assert(u.MemberOf(""), qt.IsFalse)

	solo := &models.User{Username: "bob"}
	c.Assert(solo.IsOrgMember(), qt.IsFalse)
}

func TestValidName(t *testing.T) {
	c := qt.New(t)
	c.Assert(models.ValidName("web-frontend"), qt.IsTrue)
	c.Assert(models.ValidName("team/backend_v2.1"), qt.IsTrue)
	c.Assert(models.ValidName(""), qt.IsFalse)
	c.Assert(models.ValidName("has space"), qt.IsFalse)
	c.Assert(models.ValidName("@alice"), qt.IsFalse)
}

func TestNewID_Unique(t *testing.T) {
	c := qt.New(t)
	a, b := models.NewID(), models.NewID()
	c.Assert(a, qt.Not(qt.Equals), b)
	c.Assert(a, qt.HasLen, 36)
}
