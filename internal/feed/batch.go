package feed

import "github.com/artdiscover/artdiscover-server/internal/domain"

// Outcome says why a batch fetch stopped.
type Outcome string

const (
	// OutcomeComplete means the target number of artworks was accepted.
	OutcomeComplete Outcome = "complete"
	// OutcomeExhausted means nothing displayable is left in the eligible set.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeTruncated means the attempt budget ran out first.
	OutcomeTruncated Outcome = "truncated"
	// OutcomeCanceled means the fetch context ended.
	OutcomeCanceled Outcome = "canceled"
)

// Batch is the unit of feed growth.
type Batch struct {
	ID       string           `json:"id"`
	Epoch    uint64           `json:"epoch"`
	Items    []domain.Artwork `json:"items"`
	Outcome  Outcome          `json:"outcome"`
	Attempts int              `json:"attempts"`
	Rejected int              `json:"rejected"`
}
