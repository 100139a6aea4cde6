package compendium

import "github.com/cryptforge/forge-studio/internal/domain"

// document is one asset as the search index sees it. Ids are only unique
// within a category, so the index key is "<category>/<id>".
type document struct {
	ID       string
	Category domain.Category
	Name     string
	Text     string
	FolderID string
	BuiltIn  bool
}

func docID(c domain.Category, id string) string {
	return string(c) + "/" + id
}

func newDocument(a domain.Asset) *document {
	m := a.Meta()
	return &document{
		ID:       m.ID,
		Category: a.Category(),
		Name:     m.Name,
		Text:     a.SearchText(),
		FolderID: m.FolderID,
		BuiltIn:  m.BuiltIn,
	}
}

func (d *document) key() string {
	return docID(d.Category, d.ID)
}

// toMap converts the document to the field names used by the mapping.
func (d *document) toMap() map[string]any {
	m := map[string]any{
		"id":       d.ID,
		"category": string(d.Category),
		"name":     d.Name,
		"built_in": d.BuiltIn,
	}
	if d.Text != "" {
		m["text"] = d.Text
	}
	if d.FolderID != "" {
		m["folder_id"] = d.FolderID
	}
	return m
}
