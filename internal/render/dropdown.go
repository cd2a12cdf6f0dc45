package render

import (
	"fmt"
	"strings"

	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/bastiangx/mentionserve/pkg/typeahead"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"
)

const (
	photoMarker = "◉ "
	noPhoto     = "  "
	maxItemCols = 32
)

type Styles struct {
	Panel     lipgloss.Style
	Item      lipgloss.Style
	Selected  lipgloss.Style
	Empty     lipgloss.Style
	Footer    lipgloss.Style
	Mention   lipgloss.Style
	Immutable lipgloss.Style
	Caret     lipgloss.Style
}

func DefaultStyles() Styles {
	accent := lipgloss.AdaptiveColor{Light: "#3290cc", Dark: "#56949f"}
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#cccccc", Dark: "#6e6a86"}),
		Item:     lipgloss.NewStyle().Foreground(accent).Padding(0, 1),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(accent).Padding(0, 1),
		Empty:    lipgloss.NewStyle().Italic(true).Faint(true).Padding(0, 1),
		Footer:   lipgloss.NewStyle().Faint(true).Padding(0, 1),
		Mention:  lipgloss.NewStyle().Foreground(accent).Bold(true),
		Immutable: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#907aa9", Dark: "#c4a7e7"}).Bold(true),
		Caret: lipgloss.NewStyle().Reverse(true),
	}
}

// Dropdown renders the suggestion panel for a typeahead state.
type Dropdown struct {
	Styles     Styles
	MaxVisible int
	// ShowOffsets adds the range offsets and selected index under the list.
	ShowOffsets bool
}

func NewDropdown(maxVisible int, showOffsets bool) Dropdown {
	return Dropdown{Styles: DefaultStyles(), MaxVisible: maxVisible, ShowOffsets: showOffsets}
}

// Window returns the [start, end) slice of suggestions to draw so that the
// highlighted one is visible.
func (d Dropdown) Window(st *typeahead.State) (int, int) {
	n := len(st.Suggestions)
	if d.MaxVisible <= 0 || n <= d.MaxVisible {
		return 0, n
	}
	sel := typeahead.Normalize(st.SelectedIndex, n)
	start := lo.Clamp(sel-d.MaxVisible/2, 0, n-d.MaxVisible)
	return start, start + d.MaxVisible
}

// Place puts the panel's top left corner under the first rune of the range.
func (d Dropdown) Place(st *typeahead.State, geo Geometry) Rect {
	anchor := geo.Rect(st.Range.Start)
	return Rect{Left: anchor.Left, Top: anchor.Bottom(), Width: d.width(st) + 4, Height: len(d.lines(st)) + 2}
}

// View renders the panel, or "" when no typeahead is active.
// An empty suggestion list renders a "no matches" row.
func (d Dropdown) View(st *typeahead.State) string {
	if st == nil {
		return ""
	}
	return d.Styles.Panel.Render(strings.Join(d.lines(st), "\n"))
}

func (d Dropdown) lines(st *typeahead.State) []string {
	if len(st.Suggestions) == 0 {
		lines := []string{d.Styles.Empty.Render(fmt.Sprintf("no matches for %q", st.Range.Text))}
		return append(lines, d.footer(st)...)
	}

	width := d.width(st)
	sel := typeahead.Normalize(st.SelectedIndex, len(st.Suggestions))
	start, end := d.Window(st)

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		c := st.Suggestions[i]
		marker := noPhoto
		if c.Photo != "" {
			marker = photoMarker
		}
		text := runewidth.Truncate(st.Range.Prefix+c.Value, maxItemCols, "…")
		text = marker + text + strings.Repeat(" ", max(width-runewidth.StringWidth(text), 0))

		style := d.Styles.Item
		if i == sel {
			style = d.Styles.Selected
		}
		lines = append(lines, style.Render(text))
	}
	return append(lines, d.footer(st)...)
}

func (d Dropdown) footer(st *typeahead.State) []string {
	if !d.ShowOffsets {
		return nil
	}
	r := st.Range
	return []string{d.Styles.Footer.Render(fmt.Sprintf("%s [%d,%d) idx=%d/%d", r.Text, r.Start, r.End, st.SelectedIndex, len(st.Suggestions)))}
}

// width is the widest visible item, in cells, without the photo marker.
func (d Dropdown) width(st *typeahead.State) int {
	start, end := d.Window(st)
	widths := lo.Map(st.Suggestions[start:end], func(c trigger.Candidate, _ int) int {
		return runewidth.StringWidth(runewidth.Truncate(st.Range.Prefix+c.Value, maxItemCols, "…"))
	})
	return lo.Max(widths)
}
