// Package models defines the core data types for search contexts.
package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NamespaceSigil prefixes specs that live in a user or organization namespace.
const NamespaceSigil = "@"

// GlobalSpec is the auto-defined context that searches every repository.
const GlobalSpec = "global"

// RepositoryRevisions is one repository in a context and the revisions to
// search in it. No revisions means the default branch.
type RepositoryRevisions struct {
	Repository string   `json:"repository"`
	Revisions  []string `json:"revisions"`
}

// SearchContext is a named, saved search scope.
type SearchContext struct {
	ID              string
	Name            string
	Namespace       string // user or org name; empty for instance-level contexts
	Description     string
	Public          bool
	AutoDefined     bool
	ViewerCanManage bool
	Repositories    []RepositoryRevisions
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Spec renders the identifier users type after `context:`.
func (c *SearchContext) Spec() string {
	switch {
	case c.Namespace == "":
		return c.Name
	case c.AutoDefined || c.Name == "":
		return NamespaceSigil + c.Namespace
	default:
		return NamespaceSigil + c.Namespace + "/" + c.Name
	}
}

// EditInput holds the user-editable fields of a context.
type EditInput struct {
	Name        string
	Description string
	Public      bool
}

// CreateInput is EditInput plus the namespace the context is created in.
type CreateInput struct {
	EditInput
	Namespace string
}

// UpdateArgs is the payload forwarded to the update operation.
type UpdateArgs struct {
	ID           string
	Edits        EditInput
	Repositories []RepositoryRevisions
}

// User is an authenticated viewer. A nil *User is an anonymous visitor.
type User struct {
	ID            string
	Username      string
	Organizations []string
	SiteAdmin     bool
	Tags          []string
}

// IsOrgMember reports whether u belongs to at least one organization.
// Anonymous visitors are never org members.
func (u *User) IsOrgMember() bool {
	return u != nil && len(u.Organizations) > 0
}

// MemberOf reports whether u is the namespace owner or a member of it.
func (u *User) MemberOf(namespace string) bool {
	if u == nil || namespace == "" {
		return false
	}
	if strings.EqualFold(u.Username, namespace) {
		return true
	}
	for _, org := range u.Organizations {
		if strings.EqualFold(org, namespace) {
			return true
		}
	}
	return false
}

// Platform is the handle passed unchanged from hosting views to the backend.
type Platform struct {
	Viewer *User
}

// ParsedSpec is a spec split into namespace and name.
type ParsedSpec struct {
	Namespace string
	Name      string
}

// ParseSpec splits spec into namespace and name.
// "@alice/web" → {alice, web}; "@alice" → {alice, ""}; "global" → {"", global}.
func ParseSpec(spec string) ParsedSpec {
	rest, ok := strings.CutPrefix(spec, NamespaceSigil)
	if !ok {
		return ParsedSpec{Name: spec}
	}
	ns, name, _ := strings.Cut(rest, "/")
	return ParsedSpec{Namespace: ns, Name: name}
}

var validName = regexp.MustCompile(`^[a-zA-Z0-9_.\-/]+$`)

// ValidName reports whether name is usable as a context name.
func ValidName(name string) bool {
	return validName.MatchString(name) && !strings.HasPrefix(name, NamespaceSigil)
}

// NewID returns a fresh context identifier.
func NewID() string {
	return uuid.NewString()
}

// Event is a recorded telemetry event.
type Event struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}
