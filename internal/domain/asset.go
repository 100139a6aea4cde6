// Package domain contains the studio's asset data model.
package domain

import "time"

// AssetMeta is embedded by every asset variant.
type AssetMeta struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id" validate:"required,max=128,excludesall=:"`
	Name      string    `json:"name" validate:"required,max=120"`
	FolderID  string    `json:"folder_id,omitempty"`
	BuiltIn   bool      `json:"built_in"`
}

// Meta returns the shared metadata. Promoted to every variant.
func (m *AssetMeta) Meta() *AssetMeta {
	return m
}

// Touch sets UpdatedAt, and CreatedAt when it has never been set.
func (m *AssetMeta) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Asset is the capability every variant provides.
type Asset interface {
	Meta() *AssetMeta
	Category() Category
	// SearchText is the free text indexed by the compendium.
	SearchText() string
	// References lists foreign keys into other categories.
	References() []Reference
	// ApplyDefaults fills in the values a freshly created record starts with.
	ApplyDefaults()
}

// Record constrains a generic parameter to a pointer to an asset variant.
type Record[T any] interface {
	*T
	Asset
}

// HTMLContent is implemented by assets carrying user-authored HTML.
type HTMLContent interface {
	SanitizeHTML(clean func(string) string)
}

// Reference is a foreign key from one asset to another. References are not
// enforced; a dangling id is valid and renders as empty.
type Reference struct {
	Field    string   `json:"field"`
	Category Category `json:"category"`
	ID       string   `json:"id"`
}

func refs(pairs ...Reference) []Reference {
	out := make([]Reference, 0, len(pairs))
	for _, r := range pairs {
		if r.ID != "" {
			out = append(out, r)
		}
	}
	return out
}
