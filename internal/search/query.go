package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/artdiscover/artdiscover-server/internal/domain"
)

// Sort orders.
const (
	SortRelevance = "relevance"
	SortRecent    = "recent"
	SortTitle     = "title"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query     string // Matched against title and artist
	Limit     int
	Offset    int
	SortBy    string // "relevance", "recent", "title"
	Highlight bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     50,
		SortBy:    SortRelevance,
		Highlight: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is one matching favorite.
type SearchHit struct {
	Entry      domain.FavoriteEntry `json:"entry"`
	Score      float64              `json:"score"`
	Highlights map[string]string    `json:"highlights,omitempty"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(searchRequest, params)

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
		searchRequest.Highlight.AddField("artist")
	}
	searchRequest.Fields = []string{"object_id", "title", "artist", "image", "url"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		var doc FavoriteDocument
		if id, ok := hit.Fields["object_id"].(float64); ok {
			doc.ObjectID = int(id)
		}
		doc.Title, _ = hit.Fields["title"].(string)
		doc.Artist, _ = hit.Fields["artist"].(string)
		doc.Image, _ = hit.Fields["image"].(string)
		doc.URL, _ = hit.Fields["url"].(string)

		searchHit := SearchHit{Entry: doc.Entry(), Score: hit.Score}
		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
// Title matches rank above artist matches; fuzzy and prefix clauses keep
// typos and partial input working.
func buildSearchQuery(params SearchParams) query.Query {
	q := strings.TrimSpace(params.Query)
	if q == "" {
		return bleve.NewMatchAllQuery()
	}

	titleMatch := bleve.NewMatchQuery(q)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	artistMatch := bleve.NewMatchQuery(q)
	artistMatch.SetField("artist")
	artistMatch.SetBoost(2.0)

	fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(q))
	fuzzyQuery.SetFuzziness(1)
	fuzzyQuery.SetField("title")
	fuzzyQuery.SetBoost(0.8)

	textQueries := []query.Query{titleMatch, artistMatch, fuzzyQuery}

	// Prefix query for autocomplete (minimum 2 chars)
	if len(q) >= 2 {
		for _, field := range []string{"title", "artist"} {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(q))
			prefixQuery.SetField(field)
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}
	}

	return bleve.NewDisjunctionQuery(textQueries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case SortRecent:
		req.SortBy([]string{"-indexed_at", "-_score"})
	case SortTitle:
		req.SortBy([]string{"title", "-_score"})
	default:
		req.SortBy([]string{"-_score"})
	}
}
