package render

import (
	"strings"

	"github.com/bastiangx/mentionserve/pkg/buffer"
	"github.com/bastiangx/mentionserve/pkg/trigger"
)

// Text renders a document with committed mentions styled by mutability and, when
// showCaret is set, the caret drawn as a reversed cell.
func (s Styles) Text(doc *buffer.Document, showCaret bool) string {
	runes := []rune(doc.Text())
	anns := doc.Annotations()
	caret := -1
	if showCaret && doc.Selection().HasFocus {
		caret = doc.Selection().Caret
	}

	var sb strings.Builder
	pos := 0
	for _, a := range anns {
		s.plain(&sb, runes, pos, a.Start, caret)
		style := s.Mention
		if a.Tag.Mutability == trigger.Immutable {
			style = s.Immutable
		}
		if caret >= a.Start && caret < a.End {
			// a caret on a mention covers the whole unit
			style = style.Inherit(s.Caret)
		}
		sb.WriteString(style.Render(string(runes[a.Start:a.End])))
		pos = a.End
	}
	s.plain(&sb, runes, pos, len(runes), caret)
	if caret == len(runes) {
		sb.WriteString(s.Caret.Render(" "))
	}
	return sb.String()
}

func (s Styles) plain(sb *strings.Builder, runes []rune, from, to, caret int) {
	if caret < from || caret >= to {
		sb.WriteString(string(runes[from:to]))
		return
	}
	sb.WriteString(string(runes[from:caret]))
	if runes[caret] == '\n' {
		sb.WriteString(s.Caret.Render(" "))
		sb.WriteString("\n")
	} else {
		sb.WriteString(s.Caret.Render(string(runes[caret])))
	}
	sb.WriteString(string(runes[caret+1 : to]))
}
