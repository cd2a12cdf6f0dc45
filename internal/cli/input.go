// Package cli is a line based typeahead session for debugging the controller by hand.
//
// Every input line is either text typed at the caret or a :command standing in for a key.
// After each line the document is redrawn with the dropdown under the active range.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bastiangx/mentionserve/internal/logger"
	"github.com/bastiangx/mentionserve/internal/render"
	"github.com/bastiangx/mentionserve/pkg/buffer"
	"github.com/bastiangx/mentionserve/pkg/config"
	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/bastiangx/mentionserve/pkg/typeahead"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const prompt = "> "

const helpText = `type text to insert it at the caret, or one of:
  :up :down     move the highlight
  :enter :tab   confirm (a newline / nothing when no dropdown is open)
  :esc          close the dropdown
  :bs           backspace
  :left :right  move the caret
  :mentions     list committed mentions
  :reset        clear the document
  :help         show this text
a line starting with "::" inserts the text after the first colon`

// InputHandler drives one controller from line input and redraws after every line.
type InputHandler struct {
	ctrl     *typeahead.Controller
	turn     *typeahead.NextTurn
	doc      *buffer.Document
	dropdown render.Dropdown
	in       io.Reader
	out      io.Writer
	log      *log.Logger

	requestCount int
}

// NewInputHandler wires a controller over reg that commits into its own document.
func NewInputHandler(reg *trigger.Registry, cfg *config.Config, in io.Reader, out io.Writer) *InputHandler {
	h := &InputHandler{
		turn:     &typeahead.NextTurn{},
		doc:      buffer.New("").Focus(true),
		dropdown: render.NewDropdown(cfg.Typeahead.MaxVisible, cfg.CLI.ShowOffsets),
		in:       in,
		out:      out,
		log:      logger.New("cli"),
	}
	h.ctrl = typeahead.New(reg, typeahead.Options{
		Scheduler:     h.turn,
		OnCommit:      h.applyMutation,
		Diagnostics:   func(err error) { h.log.Warn("typeahead", "err", err) },
		StopAtMention: cfg.Typeahead.StopAtMention,
		CacheSize:     cfg.Typeahead.CacheSize,
		Logger:        h.log,
	})
	return h
}

// Document returns the current document.
func (h *InputHandler) Document() *buffer.Document {
	return h.doc
}

// Controller returns the controller driven by this handler.
func (h *InputHandler) Controller() *typeahead.Controller {
	return h.ctrl
}

// Start reads lines until the input ends. io.EOF is not an error.
func (h *InputHandler) Start() error {
	fmt.Fprintln(h.out, "MentionServe CLI [BETA]")
	fmt.Fprintln(h.out, "type text to insert it, :help lists the commands (Ctrl+C to exit)")

	reader := bufio.NewReader(h.in)
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			h.handleInput(line)
			h.draw()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// handleInput applies one line and runs the detection it deferred.
func (h *InputHandler) handleInput(line string) {
	h.requestCount++
	h.log.Debug("input", "n", h.requestCount, "line", line)

	if strings.HasPrefix(line, "::") {
		h.insert(line[1:])
	} else if strings.HasPrefix(line, ":") {
		h.command(line[1:])
	} else {
		h.insert(line)
	}
	h.turn.Flush()
}

func (h *InputHandler) command(name string) {
	switch name {
	case "up", "down", "esc", "escape", "tab":
		h.ctrl.HandleKey(typeahead.ParseKey(name))
	case "enter":
		if !h.ctrl.HandleKey(typeahead.KeyEnter) {
			h.insert("\n")
		}
	case "bs":
		h.setDoc(h.doc.DeleteBackward())
	case "left":
		h.setDoc(h.doc.MoveCaret(-1))
	case "right":
		h.setDoc(h.doc.MoveCaret(1))
	case "reset":
		h.setDoc(buffer.New("").Focus(true))
	case "mentions":
		h.listMentions()
	case "help":
		fmt.Fprintln(h.out, helpText)
	default:
		h.log.Errorf("Unknown command: :%s", name)
	}
}

func (h *InputHandler) insert(text string) {
	doc, err := h.doc.Insert(text)
	if err != nil {
		h.log.Warnf("Cannot insert %q: %v", text, err)
		return
	}
	h.setDoc(doc)
}

func (h *InputHandler) setDoc(doc *buffer.Document) {
	h.doc = doc
	h.ctrl.HandleBufferChange(doc)
}

// applyMutation is the commit handler: the chosen text replaces the range and is annotated.
func (h *InputHandler) applyMutation(m typeahead.Mutation) error {
	doc, err := h.doc.ReplaceRange(m.Start, m.End, m.Text, m.Tag)
	if err != nil {
		return err
	}
	h.log.Debug("committed", "text", m.Text, "kind", m.Tag.Kind, "start", m.Start, "end", m.End)
	h.setDoc(doc)
	return nil
}

func (h *InputHandler) listMentions() {
	anns := h.doc.Annotations()
	if len(anns) == 0 {
		fmt.Fprintln(h.out, "no mentions")
		return
	}
	for i, a := range anns {
		fmt.Fprintf(h.out, "%2d. %-24s %-10s %-10s [%d,%d)\n",
			i+1, h.doc.Slice(a.Start, a.End), a.Tag.Kind, a.Tag.Mutability, a.Start, a.End)
	}
}

func (h *InputHandler) draw() {
	fmt.Fprintln(h.out, prompt+h.dropdown.Styles.Text(h.doc, true))

	st := h.ctrl.State()
	if st == nil {
		return
	}
	geo := render.Geometry{Text: h.doc.Text(), OriginX: len(prompt)}
	rect := h.dropdown.Place(st, geo)
	fmt.Fprintln(h.out, lipgloss.NewStyle().MarginLeft(rect.Left).Render(h.dropdown.View(st)))
}
