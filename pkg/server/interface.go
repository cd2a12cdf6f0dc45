/*
Package server implements msgpack IPC between a host editor and the typeahead controller.

The host owns the text buffer. It streams its buffer and key events to the server over
stdin and receives dropdown state and commit instructions over stdout. Every message is
one msgpack map; the "type" field tells them apart.

# IPC

After startup the server announces itself and its triggers:

	{"type": "ready", "triggers": [{"prefix": "@", "kind": "person", "key": "3f0c..."}]}

The host sends its buffer after every edit or caret move. Offsets are rune offsets;
mentions are the annotation ranges the host applied after earlier commits:

	{"type": "buffer", "id": "b1", "text": "hello @al", "anchor": 9, "caret": 9, "focus": true,
	 "mentions": [{"s": 0, "e": 4, "k": "3f0c..."}]}

Detection runs after the message has been handled, and any dropdown change is reported:

	{"type": "state", "active": true, "prefix": "@", "text": "@al", "start": 6, "end": 9,
	 "index": 0, "suggestions": [{"v": "alice"}, {"v": "albert"}]}

Keys the host may want handled are forwarded by name (up, down, escape, enter, tab).
The reply says whether the host must skip its own handling of the key:

	{"type": "key", "id": "k1", "key": "down"}
	{"type": "key", "id": "k1", "key": "down", "consumed": true}

On enter or tab the server asks the host to replace a span and annotate it:

	{"type": "commit", "start": 6, "end": 9, "text": "@albert", "value": "albert",
	 "kind": "person", "key": "3f0c...", "mutability": "segmented"}

The host applies it and sends the resulting buffer as usual. Non-fatal problems
(bad offsets, confirm without a usable range) arrive as

	{"type": "error", "id": "b1", "error": "..."}

When refresh_on_query is set, triggers backed by a candidate file are re-read in the
background on every new typeahead; a fresh list that arrives while the same typeahead
is still open updates the dropdown, later ones are dropped.
*/
package server

const (
	TypeReady  = "ready"
	TypeBuffer = "buffer"
	TypeKey    = "key"
	TypeState  = "state"
	TypeCommit = "commit"
	TypeError  = "error"
)

// Request is any host message. Fields not used by Type are left empty.
type Request struct {
	Type     string    `msgpack:"type"`
	ID       string    `msgpack:"id,omitempty"`
	Text     string    `msgpack:"text,omitempty"`
	Anchor   int       `msgpack:"anchor"`
	Caret    int       `msgpack:"caret"`
	Focus    bool      `msgpack:"focus"`
	Mentions []Mention `msgpack:"mentions,omitempty"`
	Key      string    `msgpack:"key,omitempty"`
}

// Mention is an annotation range the host holds, keyed by the trigger's tag key.
type Mention struct {
	Start int    `msgpack:"s"`
	End   int    `msgpack:"e"`
	Key   string `msgpack:"k"`
}

// TriggerInfo describes one registered trigger in the ready message.
type TriggerInfo struct {
	Prefix     string `msgpack:"prefix"`
	Kind       string `msgpack:"kind"`
	Key        string `msgpack:"key"`
	Mutability string `msgpack:"mutability"`
}

type ReadyResponse struct {
	Type     string        `msgpack:"type"`
	Version  string        `msgpack:"version,omitempty"`
	Triggers []TriggerInfo `msgpack:"triggers"`
}

// Suggestion is one dropdown row.
type Suggestion struct {
	Value string `msgpack:"v"`
	Photo string `msgpack:"p,omitempty"`
}

// StateResponse mirrors the controller state; Active false means the dropdown is closed.
type StateResponse struct {
	Type        string       `msgpack:"type"`
	Active      bool         `msgpack:"active"`
	Prefix      string       `msgpack:"prefix,omitempty"`
	Text        string       `msgpack:"text,omitempty"`
	Start       int          `msgpack:"start"`
	End         int          `msgpack:"end"`
	Index       int          `msgpack:"index"`
	Suggestions []Suggestion `msgpack:"suggestions"`
}

type KeyResponse struct {
	Type     string `msgpack:"type"`
	ID       string `msgpack:"id,omitempty"`
	Key      string `msgpack:"key"`
	Consumed bool   `msgpack:"consumed"`
}

// CommitResponse asks the host to replace [Start, End) with Text and annotate it.
type CommitResponse struct {
	Type       string `msgpack:"type"`
	Start      int    `msgpack:"start"`
	End        int    `msgpack:"end"`
	Text       string `msgpack:"text"`
	Value      string `msgpack:"value,omitempty"`
	Photo      string `msgpack:"photo,omitempty"`
	Kind       string `msgpack:"kind"`
	Key        string `msgpack:"key"`
	Mutability string `msgpack:"mutability"`
}

type ErrorResponse struct {
	Type  string `msgpack:"type"`
	ID    string `msgpack:"id,omitempty"`
	Error string `msgpack:"error"`
}
