// Package reconcile aggregates per-item upsert outcomes for batch
// operations. Items run sequentially and independently: an item failure is
// logged and counted, the batch continues, and earlier items stay written.
// Only context cancellation stops a batch early.
package reconcile

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/investsync/internal/logging"
)

type Outcome int

const (
	Created Outcome = iota + 1
	Updated
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// FromUpsert maps an upsert result to an outcome.
func FromUpsert(created bool) Outcome {
	if created {
		return Created
	}
	return Updated
}

// FromInsert maps an insert-if-absent result to an outcome.
func FromInsert(inserted bool) Outcome {
	if inserted {
		return Created
	}
	return Skipped
}

type Stats struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (s *Stats) Record(o Outcome) {
	switch o {
	case Created:
		s.Created++
	case Updated:
		s.Updated++
	case Skipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Add folds other into s.
func (s *Stats) Add(other Stats) {
	s.Total += other.Total
	s.Created += other.Created
	s.Updated += other.Updated
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// ItemFunc reconciles one item.
type ItemFunc[T any] func(ctx context.Context, item T) (Outcome, error)

// Run applies fn to every item. Total counts items actually attempted, so a
// cancelled batch reports how far it got alongside the context error.
func Run[T any](ctx context.Context, log logging.Logger, kind string, items []T, fn ItemFunc[T]) (Stats, error) {
	var stats Stats

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Total++
		outcome, err := fn(ctx, item)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				stats.Total--
				return stats, err
			}
			log.Warn(ctx, "batch item failed", "kind", kind, "index", i, "error", err)
			stats.Record(Failed)
			continue
		}
		stats.Record(outcome)
	}

	return stats, nil
}
