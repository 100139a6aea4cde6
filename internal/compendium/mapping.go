package compendium

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/char/html"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
)

// htmlTextAnalyzer is the English analyzer with markup stripped first, so
// help-section tags never become search terms.
const htmlTextAnalyzer = "en_html"

// buildIndexMapping creates the Bleve index mapping for compendium documents.
//
// Names are stored for display in hits and carry term vectors for
// highlighting. Category, id and folder are keyword fields used as filters.
func buildIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	err := indexMapping.AddCustomAnalyzer(htmlTextAnalyzer, map[string]any{
		"type":         custom.Name,
		"char_filters": []string{html.Name},
		"tokenizer":    unicode.Name,
		"token_filters": []string{
			en.PossessiveName,
			lowercase.Name,
			en.StopName,
			porter.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("register analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Body text is searchable but not stored.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = htmlTextAnalyzer
	textFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("text", textFieldMapping)

	for _, field := range []string{"id", "category", "folder_id"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	builtInFieldMapping := bleve.NewBooleanFieldMapping()
	builtInFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("built_in", builtInFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping, nil
}
