// Package tui implements the interactive search bar with its search context
// dropdown.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-ports/searchctx/internal/cta"
	"github.com/go-ports/searchctx/internal/dropdown"
	"github.com/go-ports/searchctx/internal/models"
	"github.com/go-ports/searchctx/internal/selection"
)

var (
	sigilStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	nameStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	keywordStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	disabledStyle = lipgloss.NewStyle().Faint(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Backend is what the picker needs from the application.
// *service.Service satisfies it.
type Backend interface {
	Viewer() *models.User
	ListContexts(ctx context.Context, filter string, limit int) ([]*models.SearchContext, error)
	Selection(submit selection.SubmitFunc) *selection.Controller
	Dropdown(onEscape func()) *dropdown.Controller
	ShowCTA() (cta.Prompt, bool, error)
	CTA() *cta.Policy
}

// Result is the search the user submitted. Zero when they quit.
type Result struct {
	Query       string
	Source      string
	ContextSpec string
}

// Options configures the picker.
type Options struct {
	Query string // initial search field contents
	// SubmitOnSelect makes picking a context run the search immediately
	// instead of only remembering the selection.
	SubmitOnSelect bool
	Limit          int
}

type contextsMsg struct {
	gen      uint64
	contexts []*models.SearchContext
	err      error
}

type ctaMsg struct {
	prompt  cta.Prompt
	visible bool
	err     error
}

// Model is the bubbletea model. It is used by pointer so the dropdown's
// escape callback can refocus the search field.
type Model struct {
	backend Backend
	opts    Options
	keys    keyMap

	input    textinput.Model
	sel      *selection.Controller
	drop     *dropdown.Controller
	loggedIn bool

	gen      uint64
	loading  bool
	contexts []*models.SearchContext
	cursor   int

	prompt     cta.Prompt
	ctaVisible bool

	status string
	err    error
	result Result
	done   bool
}

// New returns a picker backed by b.
func New(b Backend, opts Options) *Model {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	in := textinput.New()
	in.Placeholder = "Search code..."
	in.Prompt = "> "
	in.SetValue(opts.Query)
	in.Focus()

	m := &Model{
		backend:  b,
		opts:     opts,
		keys:     defaultKeys,
		input:    in,
		loggedIn: b.Viewer() != nil,
	}
	var submit selection.SubmitFunc
	if opts.SubmitOnSelect {
		submit = m.submitFromFilter
	}
	m.sel = b.Selection(submit)
	m.drop = b.Dropdown(m.focusInput)
	return m
}

// Result returns the submitted search, if any.
func (m *Model) Result() Result { return m.result }

// Dropdown exposes the dropdown controller.
func (m *Model) Dropdown() *dropdown.Controller { return m.drop }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadCTA())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case contextsMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		m.contexts, m.err = msg.contexts, msg.err
		m.cursor = m.indexOf(m.sel.Selected())
		return m, nil

	case ctaMsg:
		m.prompt, m.ctaVisible, m.err = msg.prompt, msg.visible, msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		m.done = true
		return m, tea.Quit

	case key.Matches(msg, k.Toggle):
		return m, m.toggle()
	}

	if m.drop.IsOpen() {
		switch {
		case key.Matches(msg, k.Escape):
			m.drop.Close(true)
		case key.Matches(msg, k.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, k.Down):
			if m.cursor < len(m.contexts)-1 {
				m.cursor++
			}
		case key.Matches(msg, k.Enter):
			return m, m.pick()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, k.Escape):
		m.done = true
		return m, tea.Quit
	case key.Matches(msg, k.Enter):
		m.result = Result{
			Query:       m.sel.EffectiveQuery(m.input.Value()),
			Source:      selection.SourceSearch,
			ContextSpec: m.sel.Selected(),
		}
		m.done = true
		return m, tea.Quit
	case key.Matches(msg, k.Dismiss):
		if m.ctaVisible {
			if err := m.backend.CTA().Dismiss(); err != nil {
				m.err = err
			} else {
				m.ctaVisible = false
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.status = m.sel.DisabledReason(m.input.Value())
	return m, cmd
}

// toggle opens or closes the dropdown. A query with its own context filter
// disables the selector.
func (m *Model) toggle() tea.Cmd {
	if reason := m.sel.DisabledReason(m.input.Value()); reason != "" && !m.drop.IsOpen() {
		m.status = reason
		return nil
	}
	if m.drop.Toggle() == dropdown.Closed {
		m.input.Focus()
		return nil
	}
	m.input.Blur()
	if !m.loggedIn {
		return nil
	}
	return m.loadContexts()
}

// pick applies the highlighted context.
func (m *Model) pick() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.contexts) {
		return nil
	}
	spec := m.contexts[m.cursor].Spec()
	if err := m.sel.Select(spec); err != nil {
		m.err = err
		return nil
	}
	if m.done {
		return tea.Quit
	}
	m.drop.Close(false)
	m.input.Focus()
	return nil
}

func (m *Model) submitFromFilter(p selection.SubmitParams) {
	q := m.input.Value()
	if !m.sel.IsOverridden(q) {
		scoped := "context:" + p.SelectedContextSpec
		if q = strings.TrimSpace(q); q != "" {
			scoped += " " + q
		}
		q = scoped
	}
	m.result = Result{Query: q, Source: p.Source, ContextSpec: p.SelectedContextSpec}
	m.done = true
}

func (m *Model) focusInput() {
	m.input.Focus()
	m.status = ""
}

func (m *Model) loadContexts() tea.Cmd {
	m.gen++
	m.loading = true
	gen, b, limit := m.gen, m.backend, m.opts.Limit
	return func() tea.Msg {
		scs, err := b.ListContexts(context.Background(), "", limit)
		return contextsMsg{gen: gen, contexts: scs, err: err}
	}
}

func (m *Model) loadCTA() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		p, ok, err := b.ShowCTA()
		return ctaMsg{prompt: p, visible: ok, err: err}
	}
}

func (m *Model) indexOf(spec string) int {
	for i, sc := range m.contexts {
		if sc.Spec() == spec {
			return i
		}
	}
	return 0
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// View implements tea.Model.
func (m *Model) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder

	b.WriteString(m.selectorView())
	b.WriteString(" ")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.drop.IsOpen() {
		b.WriteString(m.dropdownView())
	}
	if m.ctaVisible && !m.drop.IsOpen() {
		fmt.Fprintf(&b, "%s %s  %s\n",
			nameStyle.Render(m.prompt.Title),
			infoStyle.Render(m.prompt.Body),
			infoStyle.Render("["+m.prompt.Button+"]"))
	}
	if m.status != "" {
		b.WriteString(infoStyle.Render(m.status) + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: "+m.err.Error()) + "\n")
	}

	help := make([]string, 0, 4)
	for _, kb := range m.keys.help(m.drop.IsOpen()) {
		h := kb.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString(infoStyle.Render(strings.Join(help, " • ")))
	return b.String()
}

// selectorView renders "context:" followed by the selected spec, with the
// namespace sigil as its own token.
func (m *Model) selectorView() string {
	label := selection.LabelFor(m.sel.Selected())
	token := keywordStyle.Render("context:") + sigilStyle.Render(label.Sigil) + nameStyle.Render(label.Name)
	if m.sel.IsOverridden(m.input.Value()) {
		return disabledStyle.Render("context:" + label.String())
	}
	return token
}

func (m *Model) dropdownView() string {
	if !m.loggedIn {
		return infoStyle.Render("Sign up to create search contexts for your projects.") + "\n"
	}
	if m.loading {
		return infoStyle.Render("Loading contexts...") + "\n"
	}
	if len(m.contexts) == 0 {
		return infoStyle.Render("No contexts.") + "\n"
	}

	var b strings.Builder
	for i, sc := range m.contexts {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		label := selection.LabelFor(sc.Spec())
		fmt.Fprintf(&b, "%s%s%s  %s\n", marker,
			sigilStyle.Render(label.Sigil), nameStyle.Render(label.Name),
			infoStyle.Render(sc.Description))
	}
	return b.String()
}

// Run shows the picker on in/out until the user submits or quits.
func Run(ctx context.Context, b Backend, opts Options, in io.Reader, out io.Writer) (Result, error) {
	m := New(b, opts)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	if _, err := p.Run(); err != nil {
		return Result{}, fmt.Errorf("picker: %w", err)
	}
	return m.Result(), nil
}
