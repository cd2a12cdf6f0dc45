/*
Package buffer is an in-memory annotated text document.

A Document is an immutable snapshot: every edit returns a new Document and leaves the
receiver untouched, so a host can hand the same snapshot to the typeahead controller and
keep editing. Offsets are rune offsets into the whole text. Runs are the lines of the text.

Mentions committed by the controller live in a sorted, non-overlapping annotation table
next to the runes. How an annotation reacts to edits depends on its tag's mutability:

  - segmented: typing inside it grows the annotation; backspace removes it as a unit
  - immutable: typing inside it is rejected; backspace removes it as a unit

Caret movement treats every annotation as a single unit.
*/
package buffer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/mentionserve/pkg/trigger"
)

var (
	ErrOutOfRange = errors.New("buffer: offset out of range")
	ErrImmutable  = errors.New("buffer: edit inside immutable annotation")
	ErrOverlap    = errors.New("buffer: overlapping annotations")
)

// Selection is the caret (Anchor == Caret) or a selected span.
type Selection struct {
	Anchor   int
	Caret    int
	HasFocus bool
}

func (s Selection) Collapsed() bool {
	return s.Anchor == s.Caret
}

// Start is the lower of Anchor and Caret.
func (s Selection) Start() int {
	return min(s.Anchor, s.Caret)
}

// End is the higher of Anchor and Caret.
func (s Selection) End() int {
	return max(s.Anchor, s.Caret)
}

// Run is one line of the document.
type Run struct {
	Start int
	Text  string
}

// End is the offset just past the last rune of the run, before its newline.
func (r Run) End() int {
	return r.Start + utf8.RuneCountInString(r.Text)
}

// Annotation tags the runes [Start, End).
type Annotation struct {
	Start int
	End   int
	Tag   trigger.Tag
}

func (a Annotation) covers(offset int) bool {
	return a.Start <= offset && offset < a.End
}

type Document struct {
	text        []rune
	sel         Selection
	annotations []Annotation
}

// New returns a focused document with the caret at the end of text.
func New(text string) *Document {
	runes := []rune(text)
	return &Document{
		text: runes,
		sel:  Selection{Anchor: len(runes), Caret: len(runes), HasFocus: true},
	}
}

// FromState rebuilds a document from a host's snapshot.
func FromState(text string, sel Selection, annotations []Annotation) (*Document, error) {
	d := &Document{text: []rune(text)}
	n := len(d.text)
	if sel.Anchor < 0 || sel.Anchor > n || sel.Caret < 0 || sel.Caret > n {
		return nil, fmt.Errorf("selection %d..%d in %d runes: %w", sel.Anchor, sel.Caret, n, ErrOutOfRange)
	}
	d.sel = sel

	anns := append([]Annotation(nil), annotations...)
	sort.Slice(anns, func(i, j int) bool { return anns[i].Start < anns[j].Start })
	for i, a := range anns {
		if a.Start < 0 || a.End > n || a.Start >= a.End {
			return nil, fmt.Errorf("annotation %d..%d in %d runes: %w", a.Start, a.End, n, ErrOutOfRange)
		}
		if i > 0 && anns[i-1].End > a.Start {
			return nil, fmt.Errorf("annotations at %d and %d: %w", anns[i-1].Start, a.Start, ErrOverlap)
		}
	}
	d.annotations = anns
	return d, nil
}

func (d *Document) Text() string {
	return string(d.text)
}

// Len is the number of runes in the document.
func (d *Document) Len() int {
	return len(d.text)
}

// Slice returns the runes [start, end) as a string, clamped to the document.
func (d *Document) Slice(start, end int) string {
	start = clamp(start, 0, len(d.text))
	end = clamp(end, start, len(d.text))
	return string(d.text[start:end])
}

func (d *Document) Selection() Selection {
	return d.sel
}

// WithSelection returns a copy with sel clamped to the document.
func (d *Document) WithSelection(sel Selection) *Document {
	c := d.clone()
	sel.Anchor = clamp(sel.Anchor, 0, len(d.text))
	sel.Caret = clamp(sel.Caret, 0, len(d.text))
	c.sel = sel
	return c
}

// SetCaret collapses the selection at offset.
func (d *Document) SetCaret(offset int) *Document {
	return d.WithSelection(Selection{Anchor: offset, Caret: offset, HasFocus: d.sel.HasFocus})
}

// Focus sets whether the document has an active caret.
func (d *Document) Focus(focused bool) *Document {
	c := d.clone()
	c.sel.HasFocus = focused
	return c
}

// RunAt returns the line containing offset. An offset at the end of a line belongs to it.
func (d *Document) RunAt(offset int) (Run, bool) {
	if offset < 0 || offset > len(d.text) {
		return Run{}, false
	}
	start := 0
	for i, r := range d.text {
		if r != '\n' {
			continue
		}
		if offset <= i {
			return Run{Start: start, Text: string(d.text[start:i])}, true
		}
		start = i + 1
	}
	return Run{Start: start, Text: string(d.text[start:])}, true
}

// AnnotationAt returns the annotation covering the rune at offset.
func (d *Document) AnnotationAt(offset int) (Annotation, bool) {
	i := sort.Search(len(d.annotations), func(i int) bool { return d.annotations[i].End > offset })
	if i < len(d.annotations) && d.annotations[i].covers(offset) {
		return d.annotations[i], true
	}
	return Annotation{}, false
}

// MentionAt reports whether a committed mention covers the rune at offset.
func (d *Document) MentionAt(offset int) bool {
	_, ok := d.AnnotationAt(offset)
	return ok
}

// Annotations lists every annotation in document order.
func (d *Document) Annotations() []Annotation {
	return append([]Annotation(nil), d.annotations...)
}

// AnnotationsWith lists the annotations of one mutability class.
func (d *Document) AnnotationsWith(m trigger.Mutability) []Annotation {
	var out []Annotation
	for _, a := range d.annotations {
		if a.Tag.Mutability == m {
			out = append(out, a)
		}
	}
	return out
}

// ReplaceRange replaces the runes [start, end) with text and tags the inserted runes
// with tag unless it is zero. Annotations touching the replaced span are dropped.
// The caret lands after the inserted text.
func (d *Document) ReplaceRange(start, end int, text string, tag trigger.Tag) (*Document, error) {
	if start < 0 || end < start || end > len(d.text) {
		return nil, fmt.Errorf("replace %d..%d in %d runes: %w", start, end, len(d.text), ErrOutOfRange)
	}
	ins := []rune(text)
	c := d.splice(start, end, ins)
	if !tag.IsZero() && len(ins) > 0 {
		c.addAnnotation(Annotation{Start: start, End: start + len(ins), Tag: tag})
	}
	caret := start + len(ins)
	c.sel = Selection{Anchor: caret, Caret: caret, HasFocus: d.sel.HasFocus}
	return c, nil
}

// Insert types text at the caret, replacing any selected span first.
func (d *Document) Insert(text string) (*Document, error) {
	base := d
	if !d.sel.Collapsed() {
		base = d.deleteSpan(d.sel.Start(), d.sel.End())
	}
	at := base.sel.Caret
	ins := []rune(text)
	if len(ins) == 0 {
		return base, nil
	}

	for i, a := range base.annotations {
		if a.Start < at && at < a.End {
			if a.Tag.Mutability == trigger.Immutable {
				return nil, fmt.Errorf("insert at %d: %w", at, ErrImmutable)
			}
			c := base.clone()
			c.text = spliceRunes(base.text, at, at, ins)
			c.annotations[i].End += len(ins)
			for j := i + 1; j < len(c.annotations); j++ {
				c.annotations[j].Start += len(ins)
				c.annotations[j].End += len(ins)
			}
			c.sel = Selection{Anchor: at + len(ins), Caret: at + len(ins), HasFocus: base.sel.HasFocus}
			return c, nil
		}
	}

	c := base.splice(at, at, ins)
	c.sel = Selection{Anchor: at + len(ins), Caret: at + len(ins), HasFocus: base.sel.HasFocus}
	return c, nil
}

// DeleteBackward is backspace: it removes the selection, the whole annotation before the
// caret, or the single rune before the caret.
func (d *Document) DeleteBackward() *Document {
	if !d.sel.Collapsed() {
		return d.deleteSpan(d.sel.Start(), d.sel.End())
	}
	at := d.sel.Caret
	if at == 0 {
		return d
	}
	if a, ok := d.AnnotationAt(at - 1); ok {
		return d.deleteSpan(a.Start, a.End)
	}
	return d.deleteSpan(at-1, at)
}

// MoveCaret moves a collapsed caret by delta runes, stepping over annotations as units.
func (d *Document) MoveCaret(delta int) *Document {
	at := d.sel.Caret
	step := 1
	if delta < 0 {
		step = -1
		delta = -delta
	}
	for ; delta > 0; delta-- {
		next := clamp(at+step, 0, len(d.text))
		for _, a := range d.annotations {
			if a.Start < next && next < a.End {
				if step > 0 {
					next = a.End
				} else {
					next = a.Start
				}
				break
			}
		}
		at = next
	}
	return d.SetCaret(at)
}

// deleteSpan removes [start, end) widened to cover every annotation it touches.
func (d *Document) deleteSpan(start, end int) *Document {
	for _, a := range d.annotations {
		if a.Start < end && a.End > start {
			start = min(start, a.Start)
			end = max(end, a.End)
		}
	}
	c := d.splice(start, end, nil)
	c.sel = Selection{Anchor: start, Caret: start, HasFocus: d.sel.HasFocus}
	return c
}

// splice replaces [start, end) with ins, dropping annotations that overlap the span
// or strictly contain the insertion point, and shifting the ones after it.
func (d *Document) splice(start, end int, ins []rune) *Document {
	c := &Document{
		text: spliceRunes(d.text, start, end, ins),
		sel:  d.sel,
	}
	delta := len(ins) - (end - start)
	for _, a := range d.annotations {
		switch {
		case a.End <= start:
			c.annotations = append(c.annotations, a)
		case a.Start >= end:
			a.Start += delta
			a.End += delta
			c.annotations = append(c.annotations, a)
		}
	}
	return c
}

func (d *Document) addAnnotation(a Annotation) {
	i := sort.Search(len(d.annotations), func(i int) bool { return d.annotations[i].Start >= a.Start })
	d.annotations = append(d.annotations, Annotation{})
	copy(d.annotations[i+1:], d.annotations[i:])
	d.annotations[i] = a
}

func (d *Document) clone() *Document {
	return &Document{
		text:        d.text,
		sel:         d.sel,
		annotations: append([]Annotation(nil), d.annotations...),
	}
}

// String renders the text with the caret marked as '|', for debugging.
func (d *Document) String() string {
	var sb strings.Builder
	sb.WriteString(string(d.text[:d.sel.Caret]))
	sb.WriteByte('|')
	sb.WriteString(string(d.text[d.sel.Caret:]))
	return sb.String()
}

func spliceRunes(src []rune, start, end int, ins []rune) []rune {
	out := make([]rune, 0, len(src)-(end-start)+len(ins))
	out = append(out, src[:start]...)
	out = append(out, ins...)
	return append(out, src[end:]...)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
