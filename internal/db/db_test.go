package db_test

import (
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/searchctx/internal/db"
	"github.com/go-ports/searchctx/internal/models"
	"github.com/go-ports/searchctx/internal/settings"
	"github.com/go-ports/searchctx/internal/telemetry"
)

// openTestDB opens a fresh SQLite database in a temp directory and registers
// t.Cleanup to close it.
func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("openTestDB: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// newContext returns a minimal context in namespace ns.
func newContext(id, ns, name string) *models.SearchContext {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.SearchContext{
		ID:          id,
		Name:        name,
		Namespace:   ns,
		Description: "about " + name,
		Public:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ---------------------------------------------------------------------------
// Open
// ---------------------------------------------------------------------------

func TestOpen_HappyPath(t *testing.T) {
	c := qt.New(t)
	d := openTestDB(t)
	c.Assert(d, qt.IsNotNil)
	c.Assert(filepath.Base(d.Path()), qt.Equals, "test.db")
}

func TestOpen_Reopen(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "reopen.db")

	d, err := db.Open(path)
	c.Assert(err, qt.IsNil)
	c.Assert(d.InsertContext(newContext("id-1", "alice", "web")), qt.IsNil)
	c.Assert(d.Close(), qt.IsNil)

	d, err = db.Open(path)
	c.Assert(err, qt.IsNil)
	defer d.Close()
	n, err := d.CountContexts()
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 1)
}

// ---------------------------------------------------------------------------
// InsertContext / GetContext
// ---------------------------------------------------------------------------

func TestInsertAndGetContext(t *testing.T) {
	c := qt.New(t)

	c.Run("inserted context is retrievable by spec parts and by ID", func(c *qt.C) {
		d := openTestDB(t)
		sc := newContext("id-abc", "alice", "web")
		sc.Public = false
		sc.Repositories = []models.RepositoryRevisions{
			{Repository: "github.com/a/b", Revisions: []string{"main", "v1"}},
			{Repository: "github.com/a/c"},
		}
		c.Assert(d.InsertContext(sc), qt.IsNil)

		got, found, err := d.GetContext("alice", "web")
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue)
		c.Assert(got.ID, qt.Equals, "id-abc")
		c.Assert(got.Public, qt.IsFalse)
		c.Assert(got.Description, qt.Equals, "about web")
		c.Assert(got.CreatedAt.Equal(sc.CreatedAt), qt.IsTrue)
		c.Assert(got.Repositories, qt.DeepEquals, []models.RepositoryRevisions{
			{Repository: "github.com/a/b", Revisions: []string{"main", "v1"}},
			{Repository: "github.com/a/c", Revisions: []string{}},
		})

		byID, found, err := d.GetContextByID("id-abc")
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue)
		c.Assert(byID.Name, qt.Equals, "web")
	})

	c.Run("instance-level context has empty namespace", func(c *qt.C) {
		d := openTestDB(t)
		c.Assert(d.InsertContext(newContext("id-1", "", "monorepo")), qt.IsNil)

		got, found, err := d.GetContext("", "monorepo")
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue)
		c.Assert(got.Spec(), qt.Equals, "monorepo")
	})

	c.Run("missing context is not found", func(c *qt.C) {
		d := openTestDB(t)
		got, found, err := d.GetContext("alice", "nope")
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsFalse)
		c.Assert(got, qt.IsNil)
	})

	c.Run("duplicate namespace and name is rejected", func(c *qt.C) {
		d := openTestDB(t)
		c.Assert(d.InsertContext(newContext("id-1", "alice", "web")), qt.IsNil)
		err := d.InsertContext(newContext("id-2", "alice", "web"))
		c.Assert(err, qt.ErrorIs, db.ErrDuplicate)

		// Same name in another namespace is fine.
		c.Assert(d.InsertContext(newContext("id-3", "acme", "web")), qt.IsNil)
	})
}

// ---------------------------------------------------------------------------
// UpdateContext
// ---------------------------------------------------------------------------

func TestUpdateContext(t *testing.T) {
	c := qt.New(t)

	c.Run("fields and repositories are replaced", func(c *qt.C) {
		d := openTestDB(t)
		sc := newContext("id-1", "alice", "web")
		sc.Repositories = []models.RepositoryRevisions{{Repository: "r/old", Revisions: []string{"main"}}}
		c.Assert(d.InsertContext(sc), qt.IsNil)

		ok, err := d.UpdateContext("id-1",
			models.EditInput{Name: "frontend", Description: "new", Public: false},
			[]models.RepositoryRevisions{{Repository: "r/new", Revisions: []string{"dev"}}},
		)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsTrue)

		got, found, err := d.GetContextByID("id-1")
		c.Assert(err, qt.IsNil)
		c.Assert(found, qt.IsTrue)
		c.Assert(got.Name, qt.Equals, "frontend")
		c.Assert(got.Description, qt.Equals, "new")
		c.Assert(got.Public, qt.IsFalse)
		c.Assert(got.Repositories, qt.DeepEquals, []models.RepositoryRevisions{
			{Repository: "r/new", Revisions: []string{"dev"}},
		})
	})

	c.Run("unknown ID reports false", func(c *qt.C) {
		d := openTestDB(t)
		ok, err := d.UpdateContext("missing", models.EditInput{Name: "x"}, nil)
		c.Assert(err, qt.IsNil)
		c.Assert(ok, qt.IsFalse)
	})

	c.Run("rename onto an existing name is rejected", func(c *qt.C) {
		d := openTestDB(t)
		c.Assert(d.InsertContext(newContext("id-1", "alice", "web")), qt.IsNil)
		c.Assert(d.InsertContext(newContext("id-2", "alice", "api")), qt.IsNil)

		_, err := d.UpdateContext("id-2", models.EditInput{Name: "web"}, nil)
		c.Assert(err, qt.ErrorIs, db.ErrDuplicate)
	})
}

// ---------------------------------------------------------------------------
// DeleteContext
// ---------------------------------------------------------------------------

func TestDeleteContext(t *testing.T) {
	c := qt.New(t)
	d := openTestDB(t)

	sc := newContext("id-1", "alice", "web")
	sc.Repositories = []models.RepositoryRevisions{{Repository: "r/a"}}
	c.Assert(d.InsertContext(sc), qt.IsNil)

	ok, err := d.DeleteContext("id-1")
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	_, found, err := d.GetContextByID("id-1")
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.IsFalse)

	ok, err = d.DeleteContext("id-1")
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	// The name is free again and the old repositories are gone.
	c.Assert(d.InsertContext(newContext("id-2", "alice", "web")), qt.IsNil)
	got, _, err := d.GetContextByID("id-2")
	c.Assert(err, qt.IsNil)
	c.Assert(got.Repositories, qt.HasLen, 0)
}

// ---------------------------------------------------------------------------
// ListContexts
// ---------------------------------------------------------------------------

func TestListContexts(t *testing.T) {
	c := qt.New(t)
	d := openTestDB(t)

	for _, sc := range []*models.SearchContext{
		newContext("1", "alice", "web"),
		newContext("2", "acme", "ops"),
		newContext("3", "", "monorepo"),
		newContext("4", "alice", "100%_done"),
	} {
		c.Assert(d.InsertContext(sc), qt.IsNil)
	}

	specs := func(scs []*models.SearchContext) []string {
		out := make([]string, 0, len(scs))
		for _, sc := range scs {
			out = append(out, sc.Spec())
		}
		return out
	}

	tests := []struct {
		name   string
		filter string
		limit  int
		want   []string
	}{
		{"all ordered by namespace then name", "", 0, []string{"monorepo", "@acme/ops", "@alice/100%_done", "@alice/web"}},
		{"limit", "", 2, []string{"monorepo", "@acme/ops"}},
		{"by name", "WEB", 0, []string{"@alice/web"}},
		{"by namespace", "acme", 0, []string{"@acme/ops"}},
		{"by description", "about mono", 0, []string{"monorepo"}},
		{"percent is literal", "%", 0, []string{"@alice/100%_done"}},
		{"underscore is literal", "_", 0, []string{"@alice/100%_done"}},
		{"no match", "zzz", 0, []string{}},
	}

	for _, tc := range tests {
		c.Run(tc.name, func(c *qt.C) {
			got, err := d.ListContexts(tc.filter, tc.limit)
			c.Assert(err, qt.IsNil)
			c.Assert(specs(got), qt.DeepEquals, tc.want)
		})
	}
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

func TestSettings(t *testing.T) {
	c := qt.New(t)
	d := openTestDB(t)

	_, ok, err := d.GetSetting("missing")
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	c.Assert(d.SetSetting("k", "v1"), qt.IsNil)
	c.Assert(d.SetSetting("k", "v2"), qt.IsNil)
	v, ok, err := d.GetSetting("k")
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, "v2")

	var store settings.Store = db.Settings{DB: d}
	c.Assert(settings.Bool(store, settings.KeyCTADismissed, false), qt.IsFalse)
	c.Assert(settings.SetBool(store, settings.KeyCTADismissed, true), qt.IsNil)
	c.Assert(settings.Bool(store, settings.KeyCTADismissed, false), qt.IsTrue)
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

func TestEvents(t *testing.T) {
	c := qt.New(t)
	d := openTestDB(t)

	var sink telemetry.Sink = db.EventRecorder{DB: d}
	sink.Log("a")
	sink.Log("b")
	sink.Log("c")

	all, err := d.ListEvents(10)
	c.Assert(err, qt.IsNil)
	c.Assert(all, qt.HasLen, 3)
	c.Assert(all[0].Name, qt.Equals, "a")
	c.Assert(all[2].Name, qt.Equals, "c")
	c.Assert(all[0].CreatedAt.IsZero(), qt.IsFalse)

	last, err := d.ListEvents(2)
	c.Assert(err, qt.IsNil)
	c.Assert(last, qt.HasLen, 2)
	c.Assert(last[0].Name, qt.Equals, "b")
	c.Assert(last[1].Name, qt.Equals, "c")
}

// ---------------------------------------------------------------------------
// User repositories and code hosts
// ---------------------------------------------------------------------------

func TestUserRepositories(t *testing.T) {
	c := qt.New(t)
	d := openTestDB(t)

	n, err := d.CountUserRepositories()
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 0)

	added, err := d.AddUserRepository("github.com/b/b")
	c.Assert(err, qt.IsNil)
	c.Assert(added, qt.IsTrue)
	added, err = d.AddUserRepository("github.com/a/a")
	c.Assert(err, qt.IsNil)
	c.Assert(added, qt.IsTrue)
	added, err = d.AddUserRepository("github.com/a/a")
	c.Assert(err, qt.IsNil)
	c.Assert(added, qt.IsFalse)

	repos, err := d.ListUserRepositories()
	c.Assert(err, qt.IsNil)
	c.Assert(repos, qt.DeepEquals, []string{"github.com/a/a", "github.com/b/b"})

	hosts, err := d.CountExternalServices()
	c.Assert(err, qt.IsNil)
	c.Assert(hosts, qt.Equals, 0)
	added, err = d.AddExternalService("github")
	c.Assert(err, qt.IsNil)
	c.Assert(added, qt.IsTrue)
	hosts, err = d.CountExternalServices()
	c.Assert(err, qt.IsNil)
	c.Assert(hosts, qt.Equals, 1)
}
