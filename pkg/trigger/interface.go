/*
Package trigger holds the static trigger table: which prefixes open a typeahead,
which candidates each prefix offers, and which annotation a committed mention gets.

A Registry is built once from a set of Specs and is read-only afterwards.
Prefixes are matched longest first, so with both "<" and "<>" registered the text
"<>bob" classifies as "<>" with query "bob".

	reg, err := trigger.NewRegistry(
		trigger.Spec{Prefix: "@", Kind: "person", Candidates: people},
		trigger.Spec{Prefix: "#", Kind: "hashtag", Candidates: tags},
	)
	m, ok := reg.Classify("@ali") // m.Prefix == "@", m.Query == "ali"

Registration fails fast on empty prefixes, prefixes containing whitespace and
identical prefixes, since two equal-length prefixes matching at the same
position could never be told apart at runtime.
*/
package trigger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyPrefix     = errors.New("trigger: empty prefix")
	ErrInvalidPrefix   = errors.New("trigger: prefix contains whitespace")
	ErrDuplicatePrefix = errors.New("trigger: duplicate prefix")
)

// Mutability controls how a committed mention behaves under later edits.
type Mutability uint8

const (
	// Segmented mentions move and delete as one unit but accept edits inside them.
	Segmented Mutability = iota
	// Immutable mentions reject edits inside them and delete as one unit.
	Immutable
)

func (m Mutability) String() string {
	switch m {
	case Segmented:
		return "segmented"
	case Immutable:
		return "immutable"
	default:
		return fmt.Sprintf("mutability(%d)", uint8(m))
	}
}

// ParseMutability reads a config value. Empty means Segmented.
func ParseMutability(s string) (Mutability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "segmented":
		return Segmented, nil
	case "immutable":
		return Immutable, nil
	default:
		return Segmented, fmt.Errorf("trigger: unknown mutability %q", s)
	}
}

// Candidate is one selectable suggestion.
type Candidate struct {
	Value string
	// Photo is an optional display reference (URL, path or glyph). The core never reads it.
	Photo string
}

// Tag identifies the annotation placed on a committed mention.
// Every registered Spec gets its own Tag, shared by all mentions it commits.
type Tag struct {
	Key        string
	Kind       string
	Mutability Mutability
}

// IsZero reports whether t is the empty tag, which annotates nothing.
func (t Tag) IsZero() bool {
	return t.Key == ""
}

// Spec is one registered trigger.
type Spec struct {
	Prefix     string
	Kind       string
	Mutability Mutability
	Candidates []Candidate
	// Tag is minted by NewRegistry; any value set by the caller is replaced.
	Tag Tag
}

// Match is the result of classifying a token.
type Match struct {
	Prefix string
	Query  string
}
