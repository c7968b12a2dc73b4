package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping maps journal documents. Free text uses English stemming;
// identifiers and filters use the keyword analyzer so they match exactly.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Stored with term vectors so hits can be highlighted.
	text := func() *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = en.AnalyzerName
		fm.Store = true
		fm.IncludeTermVectors = true
		return fm
	}
	exact := func(store bool) *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = store
		return fm
	}

	docMapping.AddFieldMappingsAt("title", text())
	docMapping.AddFieldMappingsAt("author", text())
	docMapping.AddFieldMappingsAt("review", text())
	docMapping.AddFieldMappingsAt("notes", text())

	docMapping.AddFieldMappingsAt("type", exact(false))
	docMapping.AddFieldMappingsAt("reader_id", exact(false))
	docMapping.AddFieldMappingsAt("book_id", exact(true))
	docMapping.AddFieldMappingsAt("status", exact(true))
	docMapping.AddFieldMappingsAt("genres", exact(true))

	updatedAt := bleve.NewNumericFieldMapping()
	updatedAt.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAt)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
