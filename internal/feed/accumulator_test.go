package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artdiscover/artdiscover-server/internal/domain"
)

func batchOf(epoch uint64, outcome Outcome, ids ...int) Batch {
	items := make([]domain.Artwork, len(ids))
	for i, id := range ids {
		items[i] = *displayable(id)
	}
	return Batch{Epoch: epoch, Items: items, Outcome: outcome}
}

func itemIDs(items []domain.Artwork) []int {
	ids := make([]int, len(items))
	for i, art := range items {
		ids[i] = art.ObjectID
	}
	return ids
}

func TestAccumulator_AppendInOrder(t *testing.T) {
	a := NewAccumulator()
	epoch := a.Epoch()

	require.True(t, a.AppendBatch(batchOf(epoch, OutcomeComplete, 1, 2, 3, 4)))
	require.True(t, a.AppendBatch(batchOf(epoch, OutcomeComplete, 5, 6, 7, 8)))

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, itemIDs(a.Items()))
	assert.Equal(t, []int{5, 6, 7, 8}, itemIDs(a.LastBatch()))

	st := a.State()
	assert.Equal(t, 8, st.Len)
	assert.Equal(t, 2, st.Batches)
	assert.Equal(t, 4, st.LastBatchStart)
	assert.Equal(t, 4, st.LastBatchLen)
}

func TestAccumulator_DropsStaleEpoch(t *testing.T) {
	a := NewAccumulator()
	old := a.Epoch()
	require.True(t, a.AppendBatch(batchOf(old, OutcomeComplete, 1, 2)))

	fresh := a.Reset()
	assert.Greater(t, fresh, old)
	assert.Empty(t, a.Items())

	assert.False(t, a.AppendBatch(batchOf(old, OutcomeComplete, 9, 9, 9, 9)))
	assert.Empty(t, a.Items())

	assert.True(t, a.AppendBatch(batchOf(fresh, OutcomeComplete, 3)))
	assert.Equal(t, []int{3}, itemIDs(a.Items()))
}

func TestAccumulator_CanceledBatchIsNeverApplied(t *testing.T) {
	a := NewAccumulator()

	assert.False(t, a.AppendBatch(batchOf(a.Epoch(), OutcomeCanceled, 1, 2)))
	assert.Empty(t, a.Items())
}

func TestAccumulator_EmptyBatchKeepsLastBatch(t *testing.T) {
	a := NewAccumulator()
	epoch := a.Epoch()
	require.True(t, a.AppendBatch(batchOf(epoch, OutcomeComplete, 1, 2, 3, 4)))
	require.True(t, a.AppendBatch(batchOf(epoch, OutcomeTruncated)))

	st := a.State()
	assert.Equal(t, 0, st.LastBatchStart)
	assert.Equal(t, 4, st.LastBatchLen)
	assert.Equal(t, 1, st.Batches)
	assert.False(t, st.Exhausted)
	assert.Equal(t, OutcomeTruncated, st.LastOutcome, "the empty batch's outcome is still recorded")
}

func TestAccumulator_Exhausted(t *testing.T) {
	a := NewAccumulator()
	require.True(t, a.AppendBatch(batchOf(a.Epoch(), OutcomeExhausted, 1)))

	assert.True(t, a.Exhausted())
	assert.Equal(t, []int{1}, itemIDs(a.Items()), "items of an exhausted batch are kept")

	assert.Equal(t, OutcomeExhausted, a.State().LastOutcome)

	a.Reset()
	assert.False(t, a.Exhausted())
	assert.Empty(t, a.State().LastOutcome)
}

func TestAccumulator_LoadingFlags(t *testing.T) {
	a := NewAccumulator()
	epoch := a.Epoch()

	assert.False(t, a.IsLoadingInitial())
	assert.False(t, a.IsLoadingMore())

	require.True(t, a.BeginLoad(epoch))
	assert.True(t, a.IsLoadingInitial())
	assert.False(t, a.IsLoadingMore())

	a.AppendBatch(batchOf(epoch, OutcomeComplete, 1, 2, 3, 4))
	a.EndLoad(epoch)
	assert.False(t, a.IsLoadingInitial())

	require.True(t, a.BeginLoad(epoch))
	assert.False(t, a.IsLoadingInitial())
	assert.True(t, a.IsLoadingMore())
	a.EndLoad(epoch)
	assert.False(t, a.IsLoadingMore())
}

func TestAccumulator_StaleLoadDoesNotCount(t *testing.T) {
	a := NewAccumulator()
	old := a.Epoch()
	require.True(t, a.BeginLoad(old))

	fresh := a.Reset()
	assert.False(t, a.IsLoadingInitial(), "reset forgets loads of the old epoch")

	assert.False(t, a.BeginLoad(old))
	require.True(t, a.BeginLoad(fresh))
	a.EndLoad(old)
	assert.True(t, a.IsLoadingInitial(), "ending a stale load leaves the new one running")
}

func TestAccumulator_ItemsAreCopies(t *testing.T) {
	a := NewAccumulator()
	require.True(t, a.AppendBatch(batchOf(a.Epoch(), OutcomeComplete, 1)))

	items := a.Items()
	items[0].Title = "changed"

	assert.Equal(t, "Object 1", a.Items()[0].Title)
}
