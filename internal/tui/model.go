// Package tui is an interactive single buffer editor with typeahead mentions.
//
// Detection the controller defers is run by a flushMsg command, so it happens on the
// program's next update after the key that changed the buffer.
package tui

import (
	"strings"

	"github.com/bastiangx/mentionserve/internal/logger"
	"github.com/bastiangx/mentionserve/internal/render"
	"github.com/bastiangx/mentionserve/pkg/buffer"
	"github.com/bastiangx/mentionserve/pkg/config"
	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/bastiangx/mentionserve/pkg/typeahead"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const prompt = "> "

// flushMsg runs the detection deferred by the previous update.
type flushMsg struct{}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#3290cc", Dark: "#56949f"})
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"})
)

// Model is the bubbletea model. Use a pointer: the controller's callbacks write to it.
type Model struct {
	ctrl     *typeahead.Controller
	turn     *typeahead.NextTurn
	doc      *buffer.Document
	dropdown render.Dropdown
	help     help.Model
	status   string
	width    int
	log      *log.Logger
}

// New builds a model over reg with an empty, focused document.
func New(reg *trigger.Registry, cfg *config.Config) *Model {
	m := &Model{
		turn:     &typeahead.NextTurn{},
		doc:      buffer.New("").Focus(true),
		dropdown: render.NewDropdown(cfg.Typeahead.MaxVisible, cfg.CLI.ShowOffsets),
		help:     help.New(),
		log:      logger.New("tui"),
	}
	m.ctrl = typeahead.New(reg, typeahead.Options{
		Scheduler:     m.turn,
		OnCommit:      m.applyMutation,
		Diagnostics:   m.diagnostic,
		StopAtMention: cfg.Typeahead.StopAtMention,
		CacheSize:     cfg.Typeahead.CacheSize,
		Logger:        m.log,
	})
	return m
}

// Run starts the program on the alternate screen and blocks until it quits.
func Run(reg *trigger.Registry, cfg *config.Config) error {
	p := tea.NewProgram(New(reg, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Document() *buffer.Document {
	return m.doc
}

func (m *Model) State() *typeahead.State {
	return m.ctrl.State()
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case flushMsg:
		m.turn.Flush()
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		m.status = ""
		m.handleKey(msg)
	}

	if m.turn.Pending() {
		return m, func() tea.Msg { return flushMsg{} }
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, keys.Up, keys.Down, keys.Dismiss, keys.Tab):
		m.ctrl.HandleKey(typeahead.ParseKey(msg.String()))
	case key.Matches(msg, keys.Confirm):
		if !m.ctrl.HandleKey(typeahead.KeyEnter) {
			m.insert("\n")
		}
	case key.Matches(msg, keys.Left):
		m.setDoc(m.doc.MoveCaret(-1))
	case key.Matches(msg, keys.Right):
		m.setDoc(m.doc.MoveCaret(1))
	case key.Matches(msg, keys.Delete):
		m.setDoc(m.doc.DeleteBackward())
	case key.Matches(msg, keys.Offsets):
		m.dropdown.ShowOffsets = !m.dropdown.ShowOffsets
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case msg.Type == tea.KeySpace:
		m.insert(" ")
	case msg.Type == tea.KeyRunes:
		m.insert(string(msg.Runes))
	}
}

func (m *Model) insert(text string) {
	doc, err := m.doc.Insert(text)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.setDoc(doc)
}

func (m *Model) setDoc(doc *buffer.Document) {
	m.doc = doc
	m.ctrl.HandleBufferChange(doc)
}

func (m *Model) applyMutation(mu typeahead.Mutation) error {
	doc, err := m.doc.ReplaceRange(mu.Start, mu.End, mu.Text, mu.Tag)
	if err != nil {
		return err
	}
	m.setDoc(doc)
	return nil
}

func (m *Model) diagnostic(err error) {
	m.log.Debug("typeahead", "err", err)
	m.status = err.Error()
}

func (m *Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("mentionserve"))
	sb.WriteString("\n\n")

	text := m.dropdown.Styles.Text(m.doc, true)
	// continuation lines line up under the prompt
	text = strings.ReplaceAll(text, "\n", "\n"+strings.Repeat(" ", len(prompt)))
	sb.WriteString(prompt + text + "\n")

	if st := m.ctrl.State(); st != nil {
		// the panel hangs below the last line; Place gives the range's column
		rect := m.dropdown.Place(st, render.Geometry{Text: m.doc.Text(), OriginX: len(prompt)})
		sb.WriteString(lipgloss.NewStyle().MarginLeft(rect.Left).Render(m.dropdown.View(st)))
		sb.WriteString("\n")
	}
	if m.status != "" {
		sb.WriteString(statusStyle.Render(m.status))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(keys))
	return sb.String()
}
