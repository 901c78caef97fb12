package manifest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artdiscover/artdiscover-server/internal/domain"
	"github.com/artdiscover/artdiscover-server/internal/universe"
)

// evenChecker reports images for even ids and fails for ids in fail.
type evenChecker struct {
	fail  map[int]bool
	calls atomic.Int64

	mu   sync.Mutex
	seen []int
}

func (c *evenChecker) HasPrimaryImage(ctx context.Context, objectID int) (bool, error) {
	c.calls.Add(1)
	c.mu.Lock()
	c.seen = append(c.seen, objectID)
	c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if c.fail[objectID] {
		return false, errors.New("upstream error")
	}
	return objectID%2 == 0, nil
}

func records(n int) []domain.UniverseRecord {
	out := make([]domain.UniverseRecord, n)
	for i := range out {
		out[i] = domain.UniverseRecord{ObjectID: i + 1, DepartmentID: 6}
	}
	return out
}

func TestFilter_KeepsImagesInOrder(t *testing.T) {
	checker := &evenChecker{fail: map[int]bool{4: true}}

	kept, err := Filter(context.Background(), records(10), checker, Options{Workers: 3, ChunkSize: 4})
	require.NoError(t, err)

	ids := make([]int, len(kept))
	for i, r := range kept {
		ids[i] = r.ObjectID
	}
	assert.Equal(t, []int{2, 6, 8, 10}, ids, "failed lookups are dropped")
	assert.EqualValues(t, 10, checker.calls.Load())
}

func TestFilter_CheckpointAndResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	input := records(10)

	var progress [][3]int
	checker := &evenChecker{}
	kept, err := Filter(context.Background(), input, checker, Options{
		ChunkSize:  4,
		Checkpoint: path,
		Progress:   func(done, total, kept int) { progress = append(progress, [3]int{done, total, kept}) },
	})
	require.NoError(t, err)
	assert.Len(t, kept, 5)
	assert.Equal(t, [][3]int{{4, 10, 2}, {8, 10, 4}, {10, 10, 5}}, progress)

	cp, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cp.Total)
	assert.Equal(t, 10, cp.Next)

	// Pretend the run stopped after the first chunk.
	cp.Next = 4
	cp.Kept = cp.Kept[:2]
	require.NoError(t, SaveCheckpoint(path, cp))

	resumed := &evenChecker{}
	kept, err = Filter(context.Background(), input, resumed, Options{ChunkSize: 4, Checkpoint: path})
	require.NoError(t, err)
	assert.Len(t, kept, 5)
	assert.EqualValues(t, 6, resumed.calls.Load(), "only the unfinished chunks are checked")
	assert.NotContains(t, resumed.seen, 1)
}

func TestFilter_CheckpointForDifferentInputIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	require.NoError(t, SaveCheckpoint(path, Checkpoint{Total: 99, Next: 50}))

	checker := &evenChecker{}
	kept, err := Filter(context.Background(), records(6), checker, Options{Checkpoint: path})
	require.NoError(t, err)
	assert.Len(t, kept, 3)
	assert.EqualValues(t, 6, checker.calls.Load())
}

func TestFilter_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Filter(ctx, records(5), &evenChecker{}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteRecords_RoundTripsThroughParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wanted.json")
	in := []domain.UniverseRecord{{ObjectID: 10, DepartmentID: 11}, {ObjectID: 12, DepartmentID: 19}}

	require.NoError(t, WriteRecords(path, in))

	data, err := universe.FileSource(path).Fetch(context.Background())
	require.NoError(t, err)
	out, err := universe.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSummarize(t *testing.T) {
	st := Summarize([]domain.UniverseRecord{
		{ObjectID: 1, DepartmentID: 6},
		{ObjectID: 1, DepartmentID: 6},
		{ObjectID: 2, DepartmentID: 19},
		{ObjectID: 3, DepartmentID: 42},
	})

	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 3, st.Distinct)
	require.Len(t, st.Departments, 7)
	assert.Equal(t, DepartmentCount{ID: 6, Name: "Asian Art", Count: 2}, st.Departments[0])
	assert.Equal(t, DepartmentCount{ID: 19, Name: "Photographs", Count: 1}, st.Departments[5])
	assert.Equal(t, DepartmentCount{ID: 42, Name: "Unknown", Count: 1}, st.Departments[6])
}
