// Package suggest narrows a trigger's candidate list down to the ones matching the typed query.
//
// Matching is a case-insensitive prefix test and never reorders: the result is always a
// subsequence of the input list. Filter is the plain reference implementation; Index answers
// the same question from a patricia trie and Cache memoizes Index results per query.
package suggest

import "github.com/bastiangx/mentionserve/pkg/trigger"

// Matcher answers prefix queries over one candidate list.
type Matcher interface {
	// Match returns the candidates whose value starts with query, case-insensitively,
	// in their original order
	Match(query string) []trigger.Candidate

	// Len is the size of the underlying candidate list
	Len() int
}

// List is a Matcher that runs Filter on every query.
type List []trigger.Candidate

func (l List) Match(query string) []trigger.Candidate {
	return Filter(query, l)
}

func (l List) Len() int {
	return len(l)
}
