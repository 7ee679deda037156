// Package filtering post-processes match results returned by the AI service
// before they are persisted. Filters run sequentially; each reports how many
// items it dropped so a run's shrinkage is visible in the logs.
package filtering

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/talenthub/ai-gateway/internal/aiservice"
)

// Filter is a single cleanup step applied to a match result list.
type Filter interface {
	Name() string
	Apply(items []aiservice.MatchItem) ([]aiservice.MatchItem, Step, error)
}

// Step describes the result of executing one filter.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Run executes the supplied filters sequentially and returns the surviving
// items.
func Run(logger *zap.Logger, filters []Filter, items []aiservice.MatchItem) ([]aiservice.MatchItem, error) {
	for _, filter := range filters {
		next, info, err := filter.Apply(items)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filter.Name(), err)
		}

		if logger != nil && info.Dropped > 0 {
			logger.Debug("filter step",
				zap.String("name", filter.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		items = next
	}

	return items, nil
}
