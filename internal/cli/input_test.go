package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bastiangx/mentionserve/pkg/config"
	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, input string) (*InputHandler, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	reg, err := config.BuildRegistry(cfg, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	return NewInputHandler(reg, cfg, strings.NewReader(input), &out), &out
}

func TestCommitFromLines(t *testing.T) {
	h, out := newHandler(t, "hello @al\n:down\n:enter\n:: done\n")
	require.NoError(t, h.Start())

	doc := h.Document()
	assert.Equal(t, "hello @albert: done", doc.Text())
	anns := doc.Annotations()
	require.Len(t, anns, 1)
	assert.Equal(t, 6, anns[0].Start)
	assert.Equal(t, 13, anns[0].End)
	assert.Equal(t, "person", anns[0].Tag.Kind)
	assert.False(t, h.Controller().Active())

	assert.Contains(t, out.String(), "@alice")
	assert.Contains(t, out.String(), "@alina")
}

func TestEnterWithoutDropdownInsertsNewline(t *testing.T) {
	h, _ := newHandler(t, "one\n:enter\ntwo\n")
	require.NoError(t, h.Start())
	assert.Equal(t, "one\ntwo", h.Document().Text())
}

func TestEscapeThenBackspace(t *testing.T) {
	h, _ := newHandler(t, "#go\n:esc\n:bs\n")
	require.NoError(t, h.Start())

	assert.Equal(t, "#g", h.Document().Text())
	st := h.Controller().State()
	require.NotNil(t, st, "editing reopens the dropdown")
	assert.Equal(t, "#g", st.Range.Text)
}

func TestImmutableMentionRejectsInsert(t *testing.T) {
	h, out := newHandler(t, "<>fr\n:tab\n:left\n:mentions\n")
	require.NoError(t, h.Start())

	assert.Equal(t, "<>friend", h.Document().Text())
	assert.Equal(t, 0, h.Document().Selection().Caret, "left steps over the whole mention")
	anns := h.Document().Annotations()
	require.Len(t, anns, 1)
	assert.Equal(t, trigger.Immutable, anns[0].Tag.Mutability)
	assert.Contains(t, out.String(), "relation")

	h.setDoc(h.Document().SetCaret(3))
	h.insert("x")
	assert.Equal(t, "<>friend", h.Document().Text())

	h.command("right")
	assert.Equal(t, 8, h.Document().Selection().Caret)
	h.insert("x")
	assert.Equal(t, "<>friendx", h.Document().Text())
}

func TestUnknownCommandKeepsDocument(t *testing.T) {
	h, _ := newHandler(t, "abc\n:nope\n")
	require.NoError(t, h.Start())
	assert.Equal(t, "abc", h.Document().Text())
}
