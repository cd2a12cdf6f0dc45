/*
Package typeahead is the trigger-detection and selection state machine.

A Controller is either inactive (no dropdown) or active on a detected Range with a
highlighted index. Hosts drive it with two entry points:

	ctrl.HandleBufferChange(doc) // after every text or caret change
	consumed := ctrl.HandleKey(typeahead.KeyDown)

and observe it through Options.OnStateChange. Detection never runs inside
HandleBufferChange: it is deferred through the Scheduler to the host's next loop turn,
and a newer buffer change supersedes a detection that has not run yet.

On Enter or Tab while active the controller picks the highlighted suggestion
(or keeps the raw typed text when nothing matches) and hands a Mutation to
Options.OnCommit. The mutation replaces [range start, current caret), so text typed
between detection and confirm is replaced too.
*/
package typeahead

import (
	"errors"
	"fmt"

	"github.com/bastiangx/mentionserve/internal/logger"
	"github.com/bastiangx/mentionserve/pkg/suggest"
	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/charmbracelet/log"
)

var (
	// ErrMissingHandler is reported when a confirm key arrives while active
	// and no CommitHandler is registered. The key is still consumed.
	ErrMissingHandler = errors.New("typeahead: confirm pressed but no commit handler registered")
	// ErrStaleRange is reported when the caret left the detected range before commit.
	ErrStaleRange = errors.New("typeahead: caret moved outside the typeahead range")
)

const defaultCacheSize = 64

// Mutation is the buffer edit a commit asks the host to apply.
type Mutation struct {
	Start int
	End   int
	Text  string
	Tag   trigger.Tag
	// Candidate is the picked suggestion, nil when the typed text was kept as is.
	Candidate *trigger.Candidate
}

// CommitHandler applies a Mutation to the host buffer.
type CommitHandler func(m Mutation) error

// Ticket identifies one activation, for asynchronous candidate refreshes.
type Ticket struct {
	Session uint64
	Prefix  string
	Query   string
}

// State is what a renderer needs to draw the dropdown.
type State struct {
	Range         Range
	SelectedIndex int
	// Suggestions is the filtered candidate list for Range's query.
	Suggestions []trigger.Candidate
}

// Selected returns the highlighted suggestion.
func (s *State) Selected() (trigger.Candidate, bool) {
	if s == nil || len(s.Suggestions) == 0 {
		return trigger.Candidate{}, false
	}
	return s.Suggestions[Normalize(s.SelectedIndex, len(s.Suggestions))], true
}

func (s *State) clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Suggestions = append([]trigger.Candidate(nil), s.Suggestions...)
	return &c
}

type Options struct {
	// Scheduler runs deferred detection. Nil means a NextTurn the host flushes via Scheduler().
	Scheduler Scheduler
	// OnStateChange receives a copy of the state after every change; nil means inactive.
	OnStateChange func(*State)
	OnCommit      CommitHandler
	// OnQueryChange is called with a Ticket each time a new range activates, so a host can
	// fetch fresh candidates and hand them back through UpdateCandidates.
	OnQueryChange func(Ticket)
	// Diagnostics receives non-fatal errors. Defaults to logging them.
	Diagnostics func(error)
	// StopAtMention is passed to the Detector.
	StopAtMention bool
	// CacheSize bounds the per-trigger query cache.
	CacheSize int
	Logger    *log.Logger
}

type Controller struct {
	registry *trigger.Registry
	detector Detector
	sched    Scheduler
	opts     Options
	log      *log.Logger

	matchers map[string]suggest.Matcher
	// override replaces the trigger's own candidates for the current session
	override suggest.Matcher

	buf        Buffer
	state      *State
	generation uint64
	session    uint64
}

func New(registry *trigger.Registry, opts Options) *Controller {
	if opts.Scheduler == nil {
		opts.Scheduler = &NextTurn{}
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	l := opts.Logger
	if l == nil {
		l = logger.New("typeahead")
	}

	c := &Controller{
		registry: registry,
		detector: Detector{Registry: registry, StopAtMention: opts.StopAtMention},
		sched:    opts.Scheduler,
		opts:     opts,
		log:      l,
		matchers: make(map[string]suggest.Matcher, registry.Len()),
	}
	for _, spec := range registry.Specs() {
		c.matchers[spec.Prefix] = suggest.NewCache(suggest.NewIndex(spec.Candidates), opts.CacheSize)
	}
	return c
}

// Scheduler returns the scheduler detection is deferred to.
func (c *Controller) Scheduler() Scheduler {
	return c.sched
}

// State returns a copy of the current state, nil when inactive.
func (c *Controller) State() *State {
	return c.state.clone()
}

func (c *Controller) Active() bool {
	return c.state != nil
}

// HandleBufferChange records buf as the live buffer and schedules re-detection.
func (c *Controller) HandleBufferChange(buf Buffer) {
	c.buf = buf
	c.generation++
	gen := c.generation
	c.sched.Defer(func() {
		if gen != c.generation {
			c.log.Debug("detection superseded", "generation", gen, "latest", c.generation)
			return
		}
		c.redetect()
	})
}

// HandleKey feeds one key event and reports whether the controller consumed it.
// Inactive controllers consume nothing, so the host's default handling applies.
func (c *Controller) HandleKey(k Key) bool {
	if c.state == nil {
		return false
	}
	switch k {
	case KeyDown:
		c.move(1)
	case KeyUp:
		c.move(-1)
	case KeyEscape:
		c.deactivate()
	case KeyEnter, KeyTab:
		c.commit()
	default:
		return false
	}
	return true
}

// UpdateCandidates installs a refreshed candidate list for the activation t was issued for.
// Lists for a finished or superseded activation are discarded and false is returned.
func (c *Controller) UpdateCandidates(t Ticket, candidates []trigger.Candidate) bool {
	if c.state == nil || t.Session != c.session {
		c.log.Debug("discarding late candidates", "prefix", t.Prefix, "query", t.Query, "session", t.Session)
		return false
	}
	c.override = suggest.NewIndex(candidates)
	c.state.Suggestions = c.override.Match(c.state.Range.Query())
	if n := len(c.state.Suggestions); n > 0 {
		c.state.SelectedIndex = Normalize(c.state.SelectedIndex, n)
	}
	c.notify()
	return true
}

func (c *Controller) redetect() {
	r, ok := c.detector.Detect(c.buf)
	if !ok {
		c.deactivate()
		return
	}
	if c.state != nil && c.state.Range == r {
		return
	}

	c.session++
	c.override = nil
	c.state = &State{
		Range:       r,
		Suggestions: c.match(r),
	}
	c.log.Debug("typeahead active", "prefix", r.Prefix, "text", r.Text, "start", r.Start, "end", r.End)
	c.notify()

	if c.opts.OnQueryChange != nil {
		c.opts.OnQueryChange(Ticket{Session: c.session, Prefix: r.Prefix, Query: r.Query()})
	}
}

func (c *Controller) move(delta int) {
	n := len(c.state.Suggestions)
	if n == 0 {
		return
	}
	c.state.SelectedIndex = Normalize(c.state.SelectedIndex+delta, n)
	c.notify()
}

func (c *Controller) commit() {
	st := c.state
	if c.opts.OnCommit == nil {
		c.report(ErrMissingHandler)
		return
	}
	spec, ok := c.registry.Lookup(st.Range.Prefix)
	if !ok {
		c.report(fmt.Errorf("typeahead: prefix %q is not registered", st.Range.Prefix))
		c.deactivate()
		return
	}

	caret := st.Range.End
	if c.buf != nil {
		sel := c.buf.Selection()
		caret = sel.Caret
		run, ok := c.buf.RunAt(caret)
		if !ok || caret < st.Range.Start || st.Range.Start < run.Start {
			c.report(fmt.Errorf("commit at caret %d, range starts at %d: %w", caret, st.Range.Start, ErrStaleRange))
			c.deactivate()
			return
		}
	}

	m := Mutation{
		Start: st.Range.Start,
		End:   caret,
		Text:  st.Range.Text,
		Tag:   spec.Tag,
	}
	if filtered := c.match(st.Range); len(filtered) > 0 {
		picked := filtered[Normalize(st.SelectedIndex, len(filtered))]
		m.Candidate = &picked
		m.Text = spec.Prefix + picked.Value
	}

	if err := c.opts.OnCommit(m); err != nil {
		c.report(fmt.Errorf("commit %q at %d..%d: %w", m.Text, m.Start, m.End, err))
		return
	}
	c.log.Debug("committed mention", "text", m.Text, "start", m.Start, "end", m.End, "kind", m.Tag.Kind)
	c.deactivate()
}

func (c *Controller) match(r Range) []trigger.Candidate {
	m := c.override
	if m == nil {
		m = c.matchers[r.Prefix]
	}
	if m == nil {
		return []trigger.Candidate{}
	}
	return m.Match(r.Query())
}

func (c *Controller) deactivate() {
	if c.state == nil {
		return
	}
	c.state = nil
	c.override = nil
	c.session++
	c.notify()
}

func (c *Controller) notify() {
	if c.opts.OnStateChange != nil {
		c.opts.OnStateChange(c.state.clone())
	}
}

func (c *Controller) report(err error) {
	if c.opts.Diagnostics != nil {
		c.opts.Diagnostics(err)
		return
	}
	c.log.Error(err)
}
