// Package cli contains the bubbletea models for gg's interactive surfaces.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/frankwiles/gg/internal/browse"
	"github.com/frankwiles/gg/internal/model"
	"github.com/frankwiles/gg/internal/ranking"
	"github.com/frankwiles/gg/internal/store"
)

var (
	searchTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	descriptionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	degradedViewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// SearchOutcome is the (target, view) pair produced by a successful
// selection.
type SearchOutcome struct {
	Candidate model.Candidate
	View      browse.ViewKind
}

// SearchModel is the interactive search session: every keystroke re-ranks
// the cached candidate set, arrow keys move the selection, and a view key
// resolves the selected candidate. All of it runs inline on the event
// loop; no network calls happen here.
type SearchModel struct {
	input      textinput.Model
	store      store.Store
	candidates []model.Candidate
	events     []model.UsageEvent
	matches    []ranking.Match
	cursor     int
	height     int
	loadErr    error
	recordErr  error
	outcome    *SearchOutcome
	cancelled  bool
	quitting   bool
	now        func() time.Time
}

// NewSearch builds the session from the current cache contents. A read
// error degrades to an empty list instead of failing; the session renders
// the error and the user can still cancel out.
func NewSearch(st store.Store) SearchModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "type to filter"
	ti.Focus()

	m := SearchModel{
		input:  ti,
		store:  st,
		height: 24,
		now:    time.Now,
	}

	candidates, err := st.Candidates()
	if err != nil {
		m.loadErr = err
	} else {
		m.candidates = candidates
	}

	events, err := st.Usage()
	if err != nil {
		if m.loadErr == nil {
			m.loadErr = err
		}
	} else {
		m.events = events
	}

	m.matches = ranking.Rank("", m.candidates, m.events, m.now())

	return m
}

func (m SearchModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			m.quitting = true

			return m, tea.Quit

		case "enter":
			return m.resolve(browse.ViewOverview)

		// Direct-view keys bypass the overview. ctrl+i and ctrl+m are
		// indistinguishable from tab and enter in a terminal, hence
		// ctrl+u and ctrl+l for issues and milestones.
		case "ctrl+u":
			return m.resolve(browse.ViewIssues)
		case "ctrl+p":
			return m.resolve(browse.ViewPulls)
		case "ctrl+a":
			return m.resolve(browse.ViewActions)
		case "ctrl+l":
			return m.resolve(browse.ViewMilestones)
		case "ctrl+s":
			return m.resolve(browse.ViewSettings)

		case "up":
			if m.cursor > 0 {
				m.cursor--
			}

			return m, nil

		case "down":
			if m.cursor < len(m.matches)-1 {
				m.cursor++
			}

			return m, nil
		}
	}

	prev := m.input.Value()

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	if m.input.Value() != prev {
		m.refilter()
	}

	return m, cmd
}

// refilter re-ranks the full candidate set for the current query. The
// selection resets to the top when the previous choice drops out of the
// ranked set.
func (m *SearchModel) refilter() {
	m.matches = ranking.Rank(m.input.Value(), m.candidates, m.events, m.now())

	if m.cursor >= len(m.matches) {
		m.cursor = 0
	}
}

// resolve records a usage event for the selected candidate and terminates
// the session with the (target, view) pair. Recording happens before the
// outcome is handed back so the event is never lost to a fast exit.
func (m SearchModel) resolve(view browse.ViewKind) (tea.Model, tea.Cmd) {
	if m.cursor >= len(m.matches) {
		return m, nil
	}

	selected := m.matches[m.cursor].Candidate

	if err := m.store.RecordUsage(selected.FullName, selected.Kind, view.String()); err != nil {
		m.recordErr = err
	}

	m.outcome = &SearchOutcome{Candidate: selected, View: view}
	m.quitting = true

	return m, tea.Quit
}

func (m SearchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(searchTitleStyle.Render("gg") + "  " + m.input.View() + "\n\n")

	if m.loadErr != nil {
		b.WriteString(degradedViewStyle.Render(fmt.Sprintf("cache unavailable: %v", m.loadErr)) + "\n")
	}

	visible := m.height - 6
	if visible < 1 {
		visible = 1
	}

	top := 0
	if m.cursor >= visible {
		top = m.cursor - visible + 1
	}

	for i := top; i < len(m.matches) && i < top+visible; i++ {
		line := m.matches[i].Candidate.FullName

		if desc := m.matches[i].Candidate.Description; desc != "" {
			line += descriptionStyle.Render("  " + desc)
		}

		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render("> "+m.matches[i].Candidate.FullName) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n" + helpStyle.Render(fmt.Sprintf(
		"%d/%d  enter: open  ^u: issues  ^p: pulls  ^a: actions  ^l: milestones  ^s: settings  esc: quit",
		len(m.matches), len(m.candidates))))

	return b.String()
}

// Outcome returns the resolved (target, view) pair, or nil when the
// session was cancelled.
func (m SearchModel) Outcome() *SearchOutcome {
	return m.outcome
}

// Cancelled reports whether the session ended without a selection.
func (m SearchModel) Cancelled() bool {
	return m.cancelled
}

// RecordErr returns any error from writing the usage event; the selection
// still resolves, but callers should surface it.
func (m SearchModel) RecordErr() error {
	return m.recordErr
}
