package trigger

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Registry is the immutable set of registered triggers.
type Registry struct {
	specs    []*Spec // longest prefix first, registration order among equal lengths
	byPrefix map[string]*Spec
}

// NewRegistry validates specs and mints one annotation Tag per spec.
func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{
		specs:    make([]*Spec, 0, len(specs)),
		byPrefix: make(map[string]*Spec, len(specs)),
	}

	for i := range specs {
		spec := specs[i]
		if spec.Prefix == "" {
			return nil, fmt.Errorf("spec %d: %w", i, ErrEmptyPrefix)
		}
		if strings.ContainsFunc(spec.Prefix, unicode.IsSpace) {
			return nil, fmt.Errorf("spec %d (%q): %w", i, spec.Prefix, ErrInvalidPrefix)
		}
		if _, exists := r.byPrefix[spec.Prefix]; exists {
			return nil, fmt.Errorf("spec %d (%q): %w", i, spec.Prefix, ErrDuplicatePrefix)
		}
		if spec.Kind == "" {
			spec.Kind = "mention"
		}
		spec.Candidates = append([]Candidate(nil), spec.Candidates...)
		spec.Tag = Tag{
			Key:        uuid.NewString(),
			Kind:       spec.Kind,
			Mutability: spec.Mutability,
		}

		r.specs = append(r.specs, &spec)
		r.byPrefix[spec.Prefix] = &spec
		log.Debugf("registered trigger %q kind=%s candidates=%d", spec.Prefix, spec.Kind, len(spec.Candidates))
	}

	sort.SliceStable(r.specs, func(i, j int) bool {
		return utf8.RuneCountInString(r.specs[i].Prefix) > utf8.RuneCountInString(r.specs[j].Prefix)
	})
	return r, nil
}

// Classify returns the longest registered prefix that text starts with.
func (r *Registry) Classify(text string) (Match, bool) {
	for _, spec := range r.specs {
		if strings.HasPrefix(text, spec.Prefix) {
			return Match{
				Prefix: spec.Prefix,
				Query:  text[len(spec.Prefix):],
			}, true
		}
	}
	return Match{}, false
}

// Lookup returns the spec registered for prefix.
func (r *Registry) Lookup(prefix string) (*Spec, bool) {
	spec, ok := r.byPrefix[prefix]
	return spec, ok
}

// Prefixes lists registered prefixes, longest first.
func (r *Registry) Prefixes() []string {
	return lo.Map(r.specs, func(s *Spec, _ int) string { return s.Prefix })
}

// Specs returns the registered specs, longest prefix first.
func (r *Registry) Specs() []*Spec {
	return append([]*Spec(nil), r.specs...)
}

// Len is the number of registered triggers.
func (r *Registry) Len() int {
	return len(r.specs)
}
