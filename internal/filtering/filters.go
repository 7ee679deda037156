package filtering

import (
	"sort"
	"strings"

	"github.com/talenthub/ai-gateway/internal/aiservice"
)

type sanitizeFilter struct{}

// NewSanitize creates a filter that removes items the service should never
// return: blank job ids and scores outside [0, 1]. The scorer contract says
// these never appear, but a bad item written to the match table would surface
// directly in company-facing lists.
func NewSanitize() Filter {
	return &sanitizeFilter{}
}

func (f *sanitizeFilter) Name() string { return "sanitize" }

func (f *sanitizeFilter) Apply(items []aiservice.MatchItem) ([]aiservice.MatchItem, Step, error) {
	initial := len(items)
	kept := make([]aiservice.MatchItem, 0, initial)

	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			continue
		}
		if item.Score < 0 || item.Score > 1 {
			continue
		}
		kept = append(kept, item)
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

type dedupeFilter struct{}

// NewDedupe creates a filter that keeps only the highest-scoring item per job
// id. Match records are keyed by (graduate, job), so duplicates would
// otherwise overwrite each other in list order.
func NewDedupe() Filter {
	return &dedupeFilter{}
}

func (f *dedupeFilter) Name() string { return "dedupe" }

func (f *dedupeFilter) Apply(items []aiservice.MatchItem) ([]aiservice.MatchItem, Step, error) {
	initial := len(items)

	best := make(map[string]aiservice.MatchItem, initial)
	order := make([]string, 0, initial)

	for _, item := range items {
		existing, seen := best[item.ID]
		if !seen {
			order = append(order, item.ID)
			best[item.ID] = item
			continue
		}
		if item.Score > existing.Score {
			best[item.ID] = item
		}
	}

	kept := make([]aiservice.MatchItem, 0, len(order))
	for _, id := range order {
		kept = append(kept, best[id])
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

type topFilter struct {
	limit int
}

// NewTop creates a filter that keeps the limit highest-scoring items. A
// non-positive limit keeps everything.
func NewTop(limit int) Filter {
	return &topFilter{limit: limit}
}

func (f *topFilter) Name() string { return "top" }

func (f *topFilter) Apply(items []aiservice.MatchItem) ([]aiservice.MatchItem, Step, error) {
	initial := len(items)
	if f.limit <= 0 || initial <= f.limit {
		return items, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	sorted := make([]aiservice.MatchItem, initial)
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	kept := sorted[:f.limit]
	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}
