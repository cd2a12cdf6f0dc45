package typeahead

import (
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/mentionserve/pkg/buffer"
	"github.com/bastiangx/mentionserve/pkg/trigger"
)

// Buffer is the read side of the host's text buffer.
type Buffer interface {
	Selection() buffer.Selection
	// RunAt returns the run (line) containing offset.
	RunAt(offset int) (buffer.Run, bool)
	// MentionAt reports whether a committed mention covers the rune at offset.
	MentionAt(offset int) bool
}

// Range is the typed token currently read as a mention query.
// Text includes the prefix; Start and End are rune offsets into the buffer.
type Range struct {
	Prefix string
	Text   string
	Start  int
	End    int
}

// Query is Text without the trigger prefix.
func (r Range) Query() string {
	return strings.TrimPrefix(r.Text, r.Prefix)
}

// Detector finds the trigger token the caret is sitting in.
type Detector struct {
	Registry *trigger.Registry
	// StopAtMention ignores tokens starting inside a committed mention, so typing after
	// "@alice" does not reopen the dropdown on that mention's own prefix.
	StopAtMention bool
}

// Detect reads the selection and caret run from buf.
func (d Detector) Detect(buf Buffer) (Range, bool) {
	if buf == nil {
		return Range{}, false
	}
	sel := buf.Selection()
	run, ok := buf.RunAt(sel.Caret)
	if !ok {
		return Range{}, false
	}
	return d.DetectIn(sel, run, buf.MentionAt)
}

// DetectIn scans run backwards from the caret for the nearest trigger prefix.
// The rightmost occurrence among all prefixes wins; at equal positions the longer
// prefix wins. mentionAt may be nil when the host has no annotations.
func (d Detector) DetectIn(sel buffer.Selection, run buffer.Run, mentionAt func(int) bool) (Range, bool) {
	if d.Registry == nil || !sel.HasFocus || !sel.Collapsed() {
		return Range{}, false
	}
	caret := sel.Caret
	if caret < run.Start || caret > run.End() {
		return Range{}, false
	}
	if mentionAt == nil {
		mentionAt = func(int) bool { return false }
	}
	if caret > 0 && mentionAt(caret-1) {
		return Range{}, false
	}

	runes := []rune(run.Text)
	before := string(runes[:caret-run.Start])

	best, bestPrefix := -1, ""
	// prefixes come longest first, so a strict comparison keeps the longer one on ties
	for _, prefix := range d.Registry.Prefixes() {
		if i := strings.LastIndex(before, prefix); i > best {
			best, bestPrefix = i, prefix
		}
	}
	if best < 0 {
		return Range{}, false
	}

	start := run.Start + utf8.RuneCountInString(before[:best])
	if d.StopAtMention && mentionAt(start) {
		return Range{}, false
	}

	return Range{
		Prefix: bestPrefix,
		Text:   before[best:],
		Start:  start,
		End:    caret,
	}, true
}
