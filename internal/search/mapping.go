package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for favorite documents.
//
// Titles use English stemming. Artist names use the simple analyzer so
// "Gogh" does not stem. Image and URL are stored for rendering only.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	artistFieldMapping := bleve.NewTextFieldMapping()
	artistFieldMapping.Analyzer = simple.Name
	artistFieldMapping.Store = true
	artistFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("artist", artistFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	for _, field := range []string{"image", "url"} {
		stored := bleve.NewTextFieldMapping()
		stored.Analyzer = keyword.Name
		stored.Store = true
		stored.Index = false
		docMapping.AddFieldMappingsAt(field, stored)
	}

	objectIDFieldMapping := bleve.NewNumericFieldMapping()
	objectIDFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("object_id", objectIDFieldMapping)

	indexedAtFieldMapping := bleve.NewNumericFieldMapping()
	indexedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("indexed_at", indexedAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
