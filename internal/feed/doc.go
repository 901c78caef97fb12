// Package feed implements the infinite-scroll artwork feed.
//
// A Controller owns one feed. The pieces it composes are usable on their own:
//
//   - EligibleIDs narrows the universe to the selected departments.
//   - Sampler draws random candidates and keeps only displayable artworks,
//     within an explicit attempt budget.
//   - Accumulator holds the ordered feed and drops batches from stale epochs.
//   - Sentinel decides from a scroll signal when the next batch is due and
//     guarantees a single outstanding fetch.
package feed
