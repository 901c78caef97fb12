package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artdiscover/artdiscover-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func fav(id int, title, artist string) domain.FavoriteEntry {
	return domain.FavoriteEntry{
		ObjectID:          id,
		Title:             title,
		ArtistDisplayName: artist,
		PrimaryImageSmall: "https://images.example.org/small.jpg",
		ObjectURL:         "https://www.metmuseum.org/art/collection/search/1",
	}
}

func seed(t *testing.T, index *SearchIndex) {
	t.Helper()
	ctx := context.Background()
	for _, e := range []domain.FavoriteEntry{
		fav(436535, "Wheat Field with Cypresses", "Vincent van Gogh"),
		fav(437980, "Cypresses", "Vincent van Gogh"),
		fav(45734, "Quail and Millet", "Kiyohara Yukinobu"),
		fav(544740, "Statuette of Nefertem", ""),
	} {
		require.NoError(t, index.IndexFavorite(ctx, e))
	}
}

func hitIDs(r *SearchResult) []int {
	ids := make([]int, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.Entry.ObjectID
	}
	return ids
}

func TestNewSearchIndex(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_IndexFavorite_Replaces(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.IndexFavorite(ctx, fav(1, "Old Title", "")))
	require.NoError(t, index.IndexFavorite(ctx, fav(1, "New Title", "")))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearchIndex_DeleteFavorite(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	require.NoError(t, index.DeleteFavorite(ctx, 436535))
	require.NoError(t, index.DeleteFavorite(ctx, 999), "missing ids are fine")

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSearchIndex_Search(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	tests := []struct {
		name  string
		query string
		want  []int
	}{
		{"title word", "quail", []int{45734}},
		{"stemmed title", "cypress", []int{436535, 437980}},
		{"artist", "gogh", []int{436535, 437980}},
		{"prefix", "nefer", []int{544740}},
		{"typo", "wheet", []int{436535}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultSearchParams()
			params.Query = tt.query

			result, err := index.Search(context.Background(), params)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, hitIDs(result))
		})
	}
}

func TestSearchIndex_Search_ReturnsStoredEntry(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	params := DefaultSearchParams()
	params.Query = "quail"
	result, err := index.Search(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)

	got := result.Hits[0]
	assert.Equal(t, fav(45734, "Quail and Millet", "Kiyohara Yukinobu"), got.Entry)
	assert.Greater(t, got.Score, 0.0)
	assert.Contains(t, got.Highlights, "title")
}

func TestSearchIndex_Search_EmptyQueryMatchesAll(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	result, err := index.Search(context.Background(), SearchParams{})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), result.Total)
}

func TestSearchIndex_Search_Pagination(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	result, err := index.Search(context.Background(), SearchParams{Limit: 2, Offset: 3, SortBy: SortTitle})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), result.Total)
	assert.Len(t, result.Hits, 1)
}

func TestSearchIndex_Rebuild(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	ctx := context.Background()

	require.NoError(t, index.Rebuild(ctx, []domain.FavoriteEntry{fav(7, "Self-Portrait with a Straw Hat", "Vincent van Gogh")}))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	require.NoError(t, index.Rebuild(ctx, nil))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Rebuild_LargeBatch(t *testing.T) {
	index := setupTestIndex(t)

	entries := make([]domain.FavoriteEntry, 1200)
	for i := range entries {
		entries[i] = fav(i+1, "Study", "")
	}
	require.NoError(t, index.Rebuild(context.Background(), entries))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1200), count)
}

func TestSearchIndex_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexFavorite(ctx, fav(1, "Cypresses", "")))
	require.NoError(t, index.Close())

	reopened, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearchIndex_MappingVersionChangeRecreates(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexFavorite(ctx, fav(1, "Cypresses", "")))
	require.NoError(t, index.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "favorites.version"), []byte("0"), 0o644))

	reopened, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_CanceledContext(t *testing.T) {
	index := setupTestIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, index.IndexFavorite(ctx, fav(1, "x", "")), context.Canceled)
	assert.ErrorIs(t, index.DeleteFavorite(ctx, 1), context.Canceled)
}

func TestSearchParams_Defaults(t *testing.T) {
	params := DefaultSearchParams()
	assert.Equal(t, 50, params.Limit)
	assert.Equal(t, SortRelevance, params.SortBy)
	assert.True(t, params.Highlight)
}
