package suggest

import (
	"github.com/bastiangx/mentionserve/internal/utils"
	"github.com/bastiangx/mentionserve/pkg/trigger"
	"github.com/samber/lo"
)

// Filter keeps the candidates whose value starts with query, ignoring case.
// The empty query keeps everything. The returned slice never aliases candidates.
func Filter(query string, candidates []trigger.Candidate) []trigger.Candidate {
	if query == "" {
		return append([]trigger.Candidate{}, candidates...)
	}
	return lo.Filter(candidates, func(c trigger.Candidate, _ int) bool {
		return utils.HasPrefixIgnoreCase(c.Value, query)
	})
}
