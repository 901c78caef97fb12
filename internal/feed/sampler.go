package feed

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/artdiscover/artdiscover-server/internal/domain"
)

const (
	// DefaultBatchSize is the number of artworks per batch.
	DefaultBatchSize = 4
	// DefaultAttemptFactor bounds a batch to factor x target lookups.
	DefaultAttemptFactor = 10
)

// Lookup resolves a single object id.
type Lookup interface {
	GetObject(ctx context.Context, objectID int) (*domain.Artwork, error)
}

// Decorator adds derived data to an accepted artwork.
type Decorator interface {
	Decorate(ctx context.Context, art *domain.Artwork)
}

// IntSource picks an index in [0, n).
type IntSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// SamplerOptions configures a Sampler. Zero values take defaults.
type SamplerOptions struct {
	AttemptFactor int
	Rand          IntSource
	// Permanent reports lookup errors that will never succeed for that id,
	// such as a missing object. Nil treats every error as transient.
	Permanent func(error) bool
	Decorator Decorator
	Logger    *slog.Logger
}

// Sampler draws candidates from an eligible id list and validates them.
type Sampler struct {
	lookup        Lookup
	attemptFactor int
	rand          IntSource
	permanent     func(error) bool
	decorator     Decorator
	logger        *slog.Logger
}

// NewSampler creates a sampler over lookup.
func NewSampler(lookup Lookup, opts SamplerOptions) *Sampler {
	if opts.AttemptFactor < 1 {
		opts.AttemptFactor = DefaultAttemptFactor
	}
	if opts.Rand == nil {
		opts.Rand = globalRand{}
	}
	if opts.Permanent == nil {
		opts.Permanent = func(error) bool { return false }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Sampler{
		lookup:        lookup,
		attemptFactor: opts.AttemptFactor,
		rand:          opts.Rand,
		permanent:     opts.Permanent,
		decorator:     opts.Decorator,
		logger:        opts.Logger,
	}
}

// FetchBatch samples eligible with replacement until target artworks are
// accepted or the fetch has to stop.
//
// An empty eligible list is exhausted immediately, without a lookup. The
// batch is also exhausted once every distinct eligible id has been rejected
// for good. Lookup failures are rejections, never batch errors. At most
// AttemptFactor x target lookups are made.
func (s *Sampler) FetchBatch(ctx context.Context, eligible []int, target int) Batch {
	batch := Batch{ID: uuid.NewString()}
	if target < 1 {
		target = DefaultBatchSize
	}
	if len(eligible) == 0 {
		batch.Outcome = OutcomeExhausted
		return batch
	}

	budget := s.attemptFactor * target
	// Exhaustion by rejection is only reachable when the distinct ids fit in
	// the budget, so counting stops past it.
	distinct := countDistinct(eligible, budget+1)
	rejected := make(map[int]struct{})
	accepted := make([]domain.Artwork, 0, target)

	for batch.Attempts < budget {
		if ctx.Err() != nil {
			batch.Outcome = OutcomeCanceled
			batch.Items = accepted
			return batch
		}

		id := eligible[s.rand.IntN(len(eligible))]
		batch.Attempts++

		art, err := s.lookup.GetObject(ctx, id)
		switch {
		case err != nil:
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				batch.Outcome = OutcomeCanceled
				batch.Items = accepted
				return batch
			}
			batch.Rejected++
			s.logger.Debug("candidate lookup failed", "object_id", id, "error", err)
			if s.permanent(err) {
				rejected[id] = struct{}{}
			}
		case !art.Eligible():
			batch.Rejected++
			rejected[id] = struct{}{}
			s.logger.Debug("candidate not displayable", "object_id", id)
		default:
			if s.decorator != nil {
				s.decorator.Decorate(ctx, art)
			}
			accepted = append(accepted, *art)
		}

		if len(accepted) == target {
			batch.Outcome = OutcomeComplete
			batch.Items = accepted
			return batch
		}
		if distinct <= budget && len(rejected) == distinct {
			batch.Outcome = OutcomeExhausted
			batch.Items = accepted
			return batch
		}
	}

	batch.Outcome = OutcomeTruncated
	batch.Items = accepted
	return batch
}

// countDistinct counts distinct ids, stopping once limit is reached.
func countDistinct(ids []int, limit int) int {
	seen := make(map[int]struct{}, min(len(ids), limit))
	for _, id := range ids {
		seen[id] = struct{}{}
		if len(seen) >= limit {
			break
		}
	}
	return len(seen)
}
