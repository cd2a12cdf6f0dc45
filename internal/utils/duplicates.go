package utils

import (
	"strings"
)

// Deduper drops repeated values case-insensitively, keeping the first spelling seen.
// Not safe for concurrent use; create one per list.
type Deduper struct {
	seen    map[string]bool
	dropped int
}

func NewDeduper(sizeHint int) *Deduper {
	return &Deduper{seen: make(map[string]bool, sizeHint)}
}

// ShouldInclude checks if a value should be included (not a duplicate)
// Returns true the first time a value is seen, false afterwards
func (d *Deduper) ShouldInclude(value string) bool {
	key := strings.ToLower(value)
	if d.seen[key] {
		d.dropped++
		return false
	}
	d.seen[key] = true
	return true
}

// Dropped is the number of duplicates rejected so far.
func (d *Deduper) Dropped() int {
	return d.dropped
}
