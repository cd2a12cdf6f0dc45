package suggest

import (
	"strings"
	"testing"

	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(cs []trigger.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Value
	}
	return out
}

func people() []trigger.Candidate {
	return []trigger.Candidate{
		{Value: "alice", Photo: "a.png"},
		{Value: "Bob"},
		{Value: "albert"},
		{Value: "ALINA"},
		{Value: "bobby"},
		{Value: "alice"},
		{Value: ""},
		{Value: "élodie"},
	}
}

func TestFilter(t *testing.T) {
	testCases := []struct {
		query    string
		expected []string
	}{
		{"al", []string{"alice", "albert", "ALINA", "alice"}},
		{"AL", []string{"alice", "albert", "ALINA", "alice"}},
		{"ali", []string{"alice", "ALINA", "alice"}},
		{"bob", []string{"Bob", "bobby"}},
		{"bobby", []string{"bobby"}},
		{"zzz", []string{}},
		{"É", []string{"élodie"}},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.expected, values(Filter(tc.query, people())))
		})
	}
}

func TestFilterEmptyQueryReturnsEverything(t *testing.T) {
	in := people()
	out := Filter("", in)
	assert.Equal(t, in, out)

	out[0].Value = "changed"
	assert.Equal(t, "alice", in[0].Value, "result must not alias the input")
}

func TestFilterIsOrderedSubsequence(t *testing.T) {
	in := people()
	for _, q := range []string{"", "a", "al", "B", "bo", "x", "alice"} {
		out := Filter(q, in)

		// every kept item matches, and the kept items appear in input order
		j := 0
		for _, c := range out {
			assert.True(t, strings.HasPrefix(strings.ToLower(c.Value), strings.ToLower(q)))
			for j < len(in) && in[j] != c {
				j++
			}
			require.Less(t, j, len(in), "query %q: %q out of order", q, c.Value)
			j++
		}
	}
}

func TestIndexMatchesFilter(t *testing.T) {
	in := people()
	idx := NewIndex(in)
	assert.Equal(t, len(in), idx.Len())

	for _, q := range []string{"", "a", "al", "ALI", "b", "bob", "bobby", "bobbyx", "z", "é", "alice"} {
		assert.Equal(t, Filter(q, in), idx.Match(q), "query %q", q)
	}
}

func TestCache(t *testing.T) {
	cache := NewCache(NewIndex(people()), 2)

	first := cache.Match("al")
	again := cache.Match("al")
	assert.Equal(t, first, again)
	assert.Equal(t, 1, cache.Stats()["cacheHits"])

	cache.Match("b")
	cache.Match("z") // evicts "al", the least recently used
	stats := cache.Stats()
	assert.Equal(t, 2, stats["cachedQueries"])

	cache.Match("al")
	assert.Equal(t, 1, cache.Stats()["cacheHits"], "evicted query is recomputed")

	got := cache.Match("b")
	got[0].Value = "mutated"
	assert.Equal(t, "Bob", cache.Match("b")[0].Value)
}

func TestListMatcher(t *testing.T) {
	var m Matcher = List(people())
	assert.Equal(t, []string{"Bob", "bobby"}, values(m.Match("bo")))
	assert.Equal(t, 8, m.Len())
}
