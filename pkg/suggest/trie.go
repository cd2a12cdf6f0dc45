package suggest

import (
	"sort"
	"strings"

	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Index is a patricia trie over lowercased candidate values.
// Each trie item holds the positions of every candidate sharing that value,
// so duplicates survive and original order can be restored after a visit.
type Index struct {
	trie       *patricia.Trie
	candidates []trigger.Candidate
}

func NewIndex(candidates []trigger.Candidate) *Index {
	idx := &Index{
		trie:       patricia.NewTrie(),
		candidates: append([]trigger.Candidate(nil), candidates...),
	}

	for i, c := range idx.candidates {
		// the empty value only ever matches the empty query, which never reaches the trie
		if c.Value == "" {
			continue
		}
		key := patricia.Prefix(strings.ToLower(c.Value))
		if item := idx.trie.Get(key); item != nil {
			idx.trie.Set(key, append(item.([]int), i))
			continue
		}
		idx.trie.Insert(key, []int{i})
	}
	return idx
}

// Match implements Matcher.
func (idx *Index) Match(query string) []trigger.Candidate {
	if query == "" {
		return append([]trigger.Candidate{}, idx.candidates...)
	}

	var positions []int
	err := idx.trie.VisitSubtree(patricia.Prefix(strings.ToLower(query)), func(p patricia.Prefix, item patricia.Item) error {
		switch v := item.(type) {
		case []int:
			positions = append(positions, v...)
		default:
			log.Errorf("Unknown item type: %T for value %s", item, p)
		}
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
		return []trigger.Candidate{}
	}

	sort.Ints(positions)
	result := make([]trigger.Candidate, 0, len(positions))
	for _, pos := range positions {
		result = append(result, idx.candidates[pos])
	}
	return result
}

func (idx *Index) Len() int {
	return len(idx.candidates)
}
