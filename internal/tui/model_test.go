package tui

import (
	"testing"

	"github.com/bastiangx/mentionserve/pkg/config"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T) *Model {
	t.Helper()
	cfg := config.DefaultConfig()
	reg, err := config.BuildRegistry(cfg, nil)
	require.NoError(t, err)
	return New(reg, cfg)
}

// send delivers msg and, like the program loop, runs any flush it schedules.
func send(t *testing.T, m *Model, msg tea.Msg) {
	t.Helper()
	_, cmd := m.Update(msg)
	if cmd == nil {
		return
	}
	next := cmd()
	if _, ok := next.(flushMsg); ok {
		m.Update(next)
	}
}

func typeText(t *testing.T, m *Model, s string) {
	t.Helper()
	for _, r := range s {
		if r == ' ' {
			send(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestDetectionWaitsForFlush(t *testing.T) {
	m := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("@")})
	require.NotNil(t, cmd)
	assert.Nil(t, m.State(), "nothing detected during the key update")

	msg := cmd()
	require.IsType(t, flushMsg{}, msg)
	m.Update(msg)
	require.NotNil(t, m.State())
	assert.Equal(t, "@", m.State().Range.Text)
}

func TestTypeNavigateCommit(t *testing.T) {
	m := newModel(t)
	typeText(t, m, "hi @al")

	st := m.State()
	require.NotNil(t, st)
	assert.Equal(t, 3, st.Range.Start)
	assert.Len(t, st.Suggestions, 3)

	send(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 2, m.State().SelectedIndex, "up from the first row wraps")

	view := m.View()
	assert.Contains(t, view, "@alina")

	send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "hi @alina", m.Document().Text())
	assert.Nil(t, m.State())
	require.Len(t, m.Document().Annotations(), 1)

	send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "hi @alina\n", m.Document().Text(), "enter without a dropdown is a newline")
}

func TestEscapeAndBackspace(t *testing.T) {
	m := newModel(t)
	typeText(t, m, "#gop")
	require.NotNil(t, m.State())

	send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.State())

	send(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "#go", m.Document().Text())
	require.NotNil(t, m.State())
	assert.Len(t, m.State().Suggestions, 2)
}

func TestImmutableInsertShowsStatus(t *testing.T) {
	m := newModel(t)
	typeText(t, m, "<>fa")
	send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "<>family", m.Document().Text())

	m.setDoc(m.Document().SetCaret(4))
	send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, "<>family", m.Document().Text())
	assert.NotEmpty(t, m.status)
	assert.Contains(t, m.View(), m.status)
}

func TestQuitAndToggles(t *testing.T) {
	m := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	send(t, m, tea.KeyMsg{Type: tea.KeyF1})
	assert.True(t, m.help.ShowAll)
	send(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.True(t, m.dropdown.ShowOffsets)
}
