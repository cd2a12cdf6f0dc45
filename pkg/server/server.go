package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bastiangx/mentionserve/internal/logger"
	"github.com/bastiangx/mentionserve/pkg/buffer"
	"github.com/bastiangx/mentionserve/pkg/candidates"
	"github.com/bastiangx/mentionserve/pkg/config"
	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/bastiangx/mentionserve/pkg/typeahead"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
)

// Server bridges one host editor to one typeahead controller.
type Server struct {
	ctrl    *typeahead.Controller
	turn    *typeahead.NextTurn
	reg     *trigger.Registry
	tags    map[string]trigger.Tag
	cfg     *config.Config
	loader  *candidates.Loader
	version string

	in       io.Reader
	dec      *msgpack.Decoder
	enc      *msgpack.Encoder
	writeErr error
	reqID    string

	log          *log.Logger
	requestCount int
}

// NewServer wires a controller for reg to the given streams. loader may be nil, which
// disables background refreshes.
func NewServer(cfg *config.Config, reg *trigger.Registry, loader *candidates.Loader, in io.Reader, out io.Writer) *Server {
	s := &Server{
		turn:   &typeahead.NextTurn{},
		reg:    reg,
		tags:   make(map[string]trigger.Tag, reg.Len()),
		cfg:    cfg,
		loader: loader,
		in:     in,
		dec:    msgpack.NewDecoder(bufio.NewReader(in)),
		enc:    msgpack.NewEncoder(out),
		log:    logger.New("server"),
	}
	for _, spec := range reg.Specs() {
		s.tags[spec.Tag.Key] = spec.Tag
	}
	if loader != nil && cfg.Server.MaxRetries > 0 {
		loader.SetRetry(cfg.Server.MaxRetries, time.Duration(cfg.Server.RetryDelayMs)*time.Millisecond)
	}

	s.ctrl = typeahead.New(reg, typeahead.Options{
		Scheduler:     s.turn,
		OnStateChange: s.sendState,
		OnCommit:      s.sendCommit,
		OnQueryChange: s.refresh,
		Diagnostics:   s.sendDiagnostic,
		StopAtMention: cfg.Typeahead.StopAtMention,
		CacheSize:     cfg.Typeahead.CacheSize,
		Logger:        logger.New("typeahead"),
	})
	return s
}

// SetVersion sets the version announced in the ready message.
func (s *Server) SetVersion(v string) {
	s.version = v
}

// Start serves until the input ends or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting Server.")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	msgs := make(chan Request)
	g.Go(func() error {
		return s.read(ctx, msgs)
	})
	if s.loader != nil && s.cfg.Server.RefreshOnQuery {
		g.Go(func() error {
			return s.loader.Run(ctx)
		})
	}
	g.Go(func() error {
		if c, ok := s.in.(io.Closer); ok {
			// unblocks read when the loop stops first; runs after cancel
			defer c.Close()
		}
		defer cancel()
		return s.loop(ctx, msgs)
	})
	return g.Wait()
}

func (s *Server) read(ctx context.Context, msgs chan<- Request) error {
	defer close(msgs)
	for {
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("decoding request: %w", err)
		}
		select {
		case msgs <- req:
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Server) loop(ctx context.Context, msgs <-chan Request) error {
	var results <-chan candidates.Result
	if s.loader != nil && s.cfg.Server.RefreshOnQuery {
		results = s.loader.Results()
	}

	s.send(ReadyResponse{Type: TypeReady, Version: s.version, Triggers: s.triggerInfo()})
	for {
		select {
		case <-ctx.Done():
			return nil
		case req, ok := <-msgs:
			if !ok {
				s.log.Debug("input closed, stopping")
				return nil
			}
			s.handleRequest(req)
		case res := <-results:
			s.applyRefresh(res)
		}
		// next loop turn: run detection deferred by the message just handled
		s.turn.Flush()
		if s.writeErr != nil {
			return s.writeErr
		}
	}
}

func (s *Server) handleRequest(req Request) {
	s.requestCount++
	s.reqID = req.ID
	switch req.Type {
	case TypeBuffer:
		s.handleBuffer(req)
	case TypeKey:
		consumed := s.ctrl.HandleKey(typeahead.ParseKey(req.Key))
		s.send(KeyResponse{Type: TypeKey, ID: req.ID, Key: req.Key, Consumed: consumed})
	case TypeState:
		s.sendState(s.ctrl.State())
	default:
		s.sendError(fmt.Sprintf("unknown message type %q", req.Type))
	}
}

func (s *Server) handleBuffer(req Request) {
	anns := make([]buffer.Annotation, len(req.Mentions))
	for i, m := range req.Mentions {
		tag, ok := s.tags[m.Key]
		if !ok {
			tag = trigger.Tag{Key: m.Key, Kind: "mention"}
		}
		anns[i] = buffer.Annotation{Start: m.Start, End: m.End, Tag: tag}
	}
	sel := buffer.Selection{Anchor: req.Anchor, Caret: req.Caret, HasFocus: req.Focus}
	doc, err := buffer.FromState(req.Text, sel, anns)
	if err != nil {
		s.log.Warn("rejecting buffer", "id", req.ID, "err", err)
		s.sendError(err.Error())
		return
	}
	s.ctrl.HandleBufferChange(doc)
}

// refresh asks the loader for a fresh copy of the trigger's file, if it has one.
func (s *Server) refresh(t typeahead.Ticket) {
	if s.loader == nil || !s.cfg.Server.RefreshOnQuery {
		return
	}
	tc, ok := s.cfg.Trigger(t.Prefix)
	if !ok || tc.File == "" {
		return
	}
	s.loader.Request(candidates.Request{Session: t.Session, Prefix: t.Prefix, Query: t.Query, File: tc.File})
}

func (s *Server) applyRefresh(res candidates.Result) {
	if res.Err != nil {
		s.log.Warn("candidate refresh failed", "prefix", res.Prefix, "err", res.Err)
		return
	}
	list := res.Candidates
	if tc, ok := s.cfg.Trigger(res.Prefix); ok {
		list = candidates.Merge(list, tc.Inline())
	}
	t := typeahead.Ticket{Session: res.Session, Prefix: res.Prefix, Query: res.Query}
	if !s.ctrl.UpdateCandidates(t, list) {
		s.log.Debug("refresh arrived after its typeahead closed", "prefix", res.Prefix, "query", res.Query)
	}
}

func (s *Server) sendState(st *typeahead.State) {
	if st == nil {
		s.send(StateResponse{Type: TypeState, Suggestions: []Suggestion{}})
		return
	}
	suggestions := make([]Suggestion, len(st.Suggestions))
	for i, c := range st.Suggestions {
		suggestions[i] = Suggestion{Value: c.Value, Photo: c.Photo}
	}
	s.send(StateResponse{
		Type:        TypeState,
		Active:      true,
		Prefix:      st.Range.Prefix,
		Text:        st.Range.Text,
		Start:       st.Range.Start,
		End:         st.Range.End,
		Index:       st.SelectedIndex,
		Suggestions: suggestions,
	})
}

func (s *Server) sendCommit(m typeahead.Mutation) error {
	resp := CommitResponse{
		Type:       TypeCommit,
		Start:      m.Start,
		End:        m.End,
		Text:       m.Text,
		Kind:       m.Tag.Kind,
		Key:        m.Tag.Key,
		Mutability: m.Tag.Mutability.String(),
	}
	if m.Candidate != nil {
		resp.Value = m.Candidate.Value
		resp.Photo = m.Candidate.Photo
	}
	s.send(resp)
	return s.writeErr
}

func (s *Server) sendDiagnostic(err error) {
	s.log.Warn("typeahead", "err", err)
	s.sendError(err.Error())
}

func (s *Server) sendError(message string) {
	s.send(ErrorResponse{Type: TypeError, ID: s.reqID, Error: message})
}

// send encodes one response. The first write failure is kept and ends the loop.
func (s *Server) send(v any) {
	if s.writeErr != nil {
		return
	}
	if err := s.enc.Encode(v); err != nil {
		s.log.Errorf("Encoding response: %v", err)
		s.writeErr = fmt.Errorf("writing response: %w", err)
	}
}

func (s *Server) triggerInfo() []TriggerInfo {
	specs := s.reg.Specs()
	out := make([]TriggerInfo, len(specs))
	for i, spec := range specs {
		out[i] = TriggerInfo{
			Prefix:     spec.Prefix,
			Kind:       spec.Kind,
			Key:        spec.Tag.Key,
			Mutability: spec.Mutability.String(),
		}
	}
	return out
}
