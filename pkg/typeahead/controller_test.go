package typeahead

import (
	"errors"
	"testing"

	"github.com/bastiangx/mentionserve/internal/logger"
	"github.com/bastiangx/mentionserve/pkg/buffer"
	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// editor is a minimal host: it owns the document, applies commits and records what
// the controller told it.
type editor struct {
	t      *testing.T
	doc    *buffer.Document
	ctrl   *Controller
	turn   *NextTurn
	states []*State
	errs   []error
	ticket Ticket
}

func newEditor(t *testing.T, opts Options) *editor {
	e := &editor{t: t, turn: &NextTurn{}, doc: buffer.New("")}
	opts.Scheduler = e.turn
	opts.Logger = logger.Discard()
	opts.OnStateChange = func(s *State) { e.states = append(e.states, s) }
	opts.Diagnostics = func(err error) { e.errs = append(e.errs, err) }
	opts.OnQueryChange = func(tk Ticket) { e.ticket = tk }
	if opts.OnCommit == nil {
		opts.OnCommit = e.apply
	}
	e.ctrl = New(testRegistry(t), opts)
	return e
}

func (e *editor) apply(m Mutation) error {
	doc, err := e.doc.ReplaceRange(m.Start, m.End, m.Text, m.Tag)
	if err != nil {
		return err
	}
	e.doc = doc
	e.ctrl.HandleBufferChange(doc)
	return nil
}

// setText replaces the document and runs the deferred detection, like a host loop turn.
func (e *editor) setText(text string) {
	e.setDoc(buffer.New(text))
}

func (e *editor) setDoc(doc *buffer.Document) {
	e.doc = doc
	e.ctrl.HandleBufferChange(doc)
	e.turn.Flush()
}

func (e *editor) press(keys ...Key) {
	for _, k := range keys {
		require.True(e.t, e.ctrl.HandleKey(k), "key %s not consumed", k)
	}
	e.turn.Flush()
}

func TestControllerActivates(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("hello @al")

	st := e.ctrl.State()
	require.NotNil(t, st)
	assert.Equal(t, Range{Prefix: "@", Text: "@al", Start: 6, End: 9}, st.Range)
	assert.Equal(t, 0, st.SelectedIndex)
	assert.Equal(t, []string{"alice", "albert"}, names(st.Suggestions))
	assert.Equal(t, "@", e.ticket.Prefix)
	assert.Equal(t, "al", e.ticket.Query)
}

func TestDetectionIsDeferred(t *testing.T) {
	e := newEditor(t, Options{})
	e.ctrl.HandleBufferChange(buffer.New("hello @al"))

	assert.False(t, e.ctrl.Active(), "detection must not run inside HandleBufferChange")
	assert.True(t, e.turn.Pending())

	e.turn.Flush()
	assert.True(t, e.ctrl.Active())
}

func TestLastDetectionWins(t *testing.T) {
	var queue []func()
	reg := testRegistry(t)
	var states []*State
	ctrl := New(reg, Options{
		Scheduler:     SchedulerFunc(func(task func()) { queue = append(queue, task) }),
		OnStateChange: func(s *State) { states = append(states, s) },
		Logger:        logger.Discard(),
	})

	ctrl.HandleBufferChange(buffer.New("@a"))
	ctrl.HandleBufferChange(buffer.New("@al"))
	ctrl.HandleBufferChange(buffer.New("@ali"))
	require.Len(t, queue, 3)
	for _, task := range queue {
		task()
	}

	require.Len(t, states, 1, "superseded detections must not notify")
	assert.Equal(t, "@ali", states[0].Range.Text)
}

func TestNavigationWraps(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("hi @")
	require.Len(t, e.ctrl.State().Suggestions, 3)

	var seen []int
	for i := 0; i < 3; i++ {
		e.press(KeyUp)
		seen = append(seen, e.ctrl.State().SelectedIndex)
	}
	assert.Equal(t, []int{2, 1, 0}, seen)

	e.press(KeyDown, KeyDown, KeyDown, KeyDown)
	assert.Equal(t, 1, e.ctrl.State().SelectedIndex)
}

func TestNavigationWithoutMatches(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("@zzz")
	before := len(e.states)

	e.press(KeyDown, KeyUp)
	assert.Equal(t, 0, e.ctrl.State().SelectedIndex)
	assert.Len(t, e.states, before, "no change, no notification")
}

func TestRedetectKeepsIndexForSameRange(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("hello @al")
	e.press(KeyDown)
	require.Equal(t, 1, e.ctrl.State().SelectedIndex)

	e.setDoc(e.doc)
	assert.Equal(t, 1, e.ctrl.State().SelectedIndex)

	e.setText("hello @a")
	assert.Equal(t, 0, e.ctrl.State().SelectedIndex, "new range resets the index")
}

func TestCommitPicksSelectedCandidate(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("hello @al")
	e.press(KeyDown)

	sel, ok := e.ctrl.State().Selected()
	require.True(t, ok)
	assert.Equal(t, "albert", sel.Value)

	e.press(KeyEnter)
	assert.Equal(t, "hello @albert", e.doc.Text())
	assert.False(t, e.ctrl.Active())
	assert.Nil(t, e.states[len(e.states)-1])

	anns := e.doc.Annotations()
	require.Len(t, anns, 1)
	assert.Equal(t, 6, anns[0].Start)
	assert.Equal(t, 13, anns[0].End)
	assert.Equal(t, "person", anns[0].Tag.Kind)
	assert.Equal(t, trigger.Segmented, anns[0].Tag.Mutability)
	assert.Empty(t, e.errs)
}

func TestCommitKeepsRawTextWithoutMatches(t *testing.T) {
	var got Mutation
	e := newEditor(t, Options{})
	e.ctrl.opts.OnCommit = func(m Mutation) error {
		got = m
		return e.apply(m)
	}
	e.setText("@zzz")
	e.press(KeyTab)

	assert.Equal(t, "@zzz", got.Text)
	assert.Nil(t, got.Candidate)
	assert.Equal(t, "@zzz", e.doc.Text())
	assert.Len(t, e.doc.Annotations(), 1, "raw text is still annotated")
}

func TestCommitUsesCurrentCaret(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("hello @al")

	// the user keeps typing; detection has not caught up yet
	e.doc = buffer.New("hello @alb")
	e.ctrl.HandleBufferChange(e.doc)
	require.True(t, e.ctrl.HandleKey(KeyEnter))

	assert.Equal(t, "hello @alice", e.doc.Text())
}

func TestCommitAfterCaretLeftRange(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("hello @al")

	e.doc = e.doc.SetCaret(2)
	e.ctrl.HandleBufferChange(e.doc)
	require.True(t, e.ctrl.HandleKey(KeyEnter))

	require.Len(t, e.errs, 1)
	assert.ErrorIs(t, e.errs[0], ErrStaleRange)
	assert.False(t, e.ctrl.Active())
	assert.Equal(t, "hello @al", e.doc.Text())
}

func TestCommitWithoutHandler(t *testing.T) {
	e := newEditor(t, Options{})
	e.ctrl.opts.OnCommit = nil
	e.setText("hello @al")

	assert.True(t, e.ctrl.HandleKey(KeyEnter), "confirm is consumed so no newline is typed")
	require.Len(t, e.errs, 1)
	assert.ErrorIs(t, e.errs[0], ErrMissingHandler)
	assert.True(t, e.ctrl.Active())
}

func TestCommitHandlerError(t *testing.T) {
	boom := errors.New("read-only buffer")
	e := newEditor(t, Options{OnCommit: func(Mutation) error { return boom }})
	e.setText("hello @al")

	assert.True(t, e.ctrl.HandleKey(KeyEnter))
	require.Len(t, e.errs, 1)
	assert.ErrorIs(t, e.errs[0], boom)
	assert.True(t, e.ctrl.Active())
}

func TestEscape(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("hello @al")

	assert.True(t, e.ctrl.HandleKey(KeyEscape))
	assert.False(t, e.ctrl.Active())
	assert.Nil(t, e.ctrl.State())
}

func TestInactiveKeysPropagate(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("hello world")

	for _, k := range []Key{KeyUp, KeyDown, KeyEscape, KeyEnter, KeyTab, KeyOther} {
		assert.False(t, e.ctrl.HandleKey(k), "key %s", k)
	}
	assert.Empty(t, e.errs)
	assert.Empty(t, e.states)
}

func TestOtherKeysPassThroughWhileActive(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("hello @al")
	assert.False(t, e.ctrl.HandleKey(KeyOther))
	assert.True(t, e.ctrl.Active())
}

func TestUpdateCandidates(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("hello @al")
	ticket := e.ticket

	ok := e.ctrl.UpdateCandidates(ticket, []trigger.Candidate{{Value: "alfred"}, {Value: "zed"}})
	require.True(t, ok)
	assert.Equal(t, []string{"alfred"}, names(e.ctrl.State().Suggestions))

	e.press(KeyEnter)
	assert.Equal(t, "hello @alfred", e.doc.Text())
}

func TestLateCandidatesDiscarded(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("hello @al")
	stale := e.ticket
	e.press(KeyEnter)
	require.False(t, e.ctrl.Active())

	assert.False(t, e.ctrl.UpdateCandidates(stale, []trigger.Candidate{{Value: "alfred"}}))

	// a newer activation does not accept the old ticket either
	e.setText("@b")
	assert.False(t, e.ctrl.UpdateCandidates(stale, []trigger.Candidate{{Value: "bert"}}))
	assert.Equal(t, []string{"bob"}, names(e.ctrl.State().Suggestions))
}

func TestStateIsACopy(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("hello @al")

	st := e.ctrl.State()
	st.SelectedIndex = 7
	st.Suggestions[0].Value = "mallory"

	fresh := e.ctrl.State()
	assert.Equal(t, 0, fresh.SelectedIndex)
	assert.Equal(t, "alice", fresh.Suggestions[0].Value)
}

func TestImmutableTriggerTag(t *testing.T) {
	e := newEditor(t, Options{})
	e.setText("my <>fr")
	e.press(KeyEnter)

	assert.Equal(t, "my <>friend", e.doc.Text())
	anns := e.doc.AnnotationsWith(trigger.Immutable)
	require.Len(t, anns, 1)
	assert.Equal(t, "relation", anns[0].Tag.Kind)
}

func names(cs []trigger.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Value
	}
	return out
}
