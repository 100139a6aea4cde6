package domain

import "time"

// Folder groups assets of a single category. Folders are flat; a folder's
// category never changes after creation.
type Folder struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id" validate:"required,max=128,excludesall=:"`
	Name      string    `json:"name" validate:"required,max=80"`
	Category  Category  `json:"category"`
}

type folderFilterKind uint8

const (
	filterAll folderFilterKind = iota
	filterUncategorized
	filterInFolder
)

// FolderFilter selects assets by folder. The zero value matches everything.
// All and Uncategorized are distinct: All applies no filter, Uncategorized
// keeps only assets without a folder.
type FolderFilter struct {
	folderID string
	kind     folderFilterKind
}

// AllFolders matches every asset.
func AllFolders() FolderFilter {
	return FolderFilter{kind: filterAll}
}

// Uncategorized matches assets with no folder.
func Uncategorized() FolderFilter {
	return FolderFilter{kind: filterUncategorized}
}

// InFolder matches assets in the given folder. An empty id is Uncategorized.
func InFolder(id string) FolderFilter {
	if id == "" {
		return Uncategorized()
	}
	return FolderFilter{kind: filterInFolder, folderID: id}
}

// ParseFolderFilter maps an optional query value onto a filter: an absent
// value is All, a present empty value is Uncategorized.
func ParseFolderFilter(value string, present bool) FolderFilter {
	if !present {
		return AllFolders()
	}
	return InFolder(value)
}

// IsAll reports whether the filter applies no folder restriction.
func (f FolderFilter) IsAll() bool {
	return f.kind == filterAll
}

// IsUncategorized reports whether the filter keeps only unfiled assets.
func (f FolderFilter) IsUncategorized() bool {
	return f.kind == filterUncategorized
}

// FolderID returns the folder id for an InFolder filter.
func (f FolderFilter) FolderID() (string, bool) {
	return f.folderID, f.kind == filterInFolder
}

// Matches reports whether an asset with the given folder id passes the filter.
func (f FolderFilter) Matches(folderID string) bool {
	switch f.kind {
	case filterUncategorized:
		return folderID == ""
	case filterInFolder:
		return folderID == f.folderID
	default:
		return true
	}
}

// String renders the filter for logs.
func (f FolderFilter) String() string {
	switch f.kind {
	case filterUncategorized:
		return "uncategorized"
	case filterInFolder:
		return "folder:" + f.folderID
	default:
		return "all"
	}
}
