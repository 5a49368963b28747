// Package cta decides when the search context call-to-action is shown and
// remembers when a user dismissed it.
package cta

import (
	"fmt"

	"github.com/go-ports/searchctx/internal/models"
	"github.com/go-ports/searchctx/internal/settings"
	"github.com/go-ports/searchctx/internal/telemetry"
)

// Facts are the inputs of the visibility rule.
type Facts struct {
	Dotcom                   bool
	Viewer                   *models.User
	HasUserAddedRepositories bool
	Dismissed                bool

	// Used only to pick the prompt wording.
	HasUserAddedExternalServices bool
	ExternalServicesUserModeAll  bool
}

// Visible reports whether the CTA is shown. All of the following must hold:
// public multi-tenant instance, viewer not in any organization (anonymous
// counts), no user-added repositories, not dismissed.
func Visible(f Facts) bool {
	return f.Dotcom &&
		!f.Viewer.IsOrgMember() &&
		!f.HasUserAddedRepositories &&
		!f.Dismissed
}

// Action is what the prompt asks the user to do.
type Action int

// Prompt actions.
const (
	ActionSignUp Action = iota
	ActionConnectCodeHost
	ActionAddRepositories
)

// Prompt is the CTA copy.
type Prompt struct {
	Action Action
	Title  string
	Body   string
	Button string
}

// PromptFor picks the prompt copy for f.
func PromptFor(f Facts) Prompt {
	const title = "Search your code with contexts"
	switch {
	case f.Viewer == nil:
		return Prompt{
			Action: ActionSignUp,
			Title:  title,
			Body:   "Sign up to add your public and private repositories and unlock search contexts.",
			Button: "Sign up",
		}
	case f.HasUserAddedExternalServices:
		return Prompt{
			Action: ActionAddRepositories,
			Title:  title,
			Body:   "Add repositories from your connected code hosts to unlock search contexts.",
			Button: "Add repositories",
		}
	case f.ExternalServicesUserModeAll:
		return Prompt{
			Action: ActionConnectCodeHost,
			Title:  title,
			Body:   "Connect a code host to add your public and private repositories and unlock search contexts.",
			Button: "Connect code host",
		}
	default:
		return Prompt{
			Action: ActionConnectCodeHost,
			Title:  title,
			Body:   "Connect with a code host to add your public repositories and unlock search contexts.",
			Button: "Connect code host",
		}
	}
}

// Policy reads and writes the persisted dismissal flag.
type Policy struct {
	store settings.Store
	sink  telemetry.Sink
}

// NewPolicy returns a Policy backed by store. sink may be nil.
func NewPolicy(store settings.Store, sink telemetry.Sink) *Policy {
	return &Policy{store: store, sink: telemetry.Safe(sink)}
}

// Dismissed reports whether the user dismissed the CTA.
func (p *Policy) Dismissed() bool {
	return settings.Bool(p.store, settings.KeyCTADismissed, false)
}

// Dismiss hides the CTA for good. Calling it again is harmless.
func (p *Policy) Dismiss() error {
	if err := settings.SetBool(p.store, settings.KeyCTADismissed, true); err != nil {
		return fmt.Errorf("dismiss cta: %w", err)
	}
	p.sink.Log(telemetry.EventCTADismissed)
	return nil
}

// Visible fills in the dismissal flag and evaluates the rule. It reads the
// store on every call.
func (p *Policy) Visible(f Facts) bool {
	f.Dismissed = p.Dismissed()
	return Visible(f)
}
