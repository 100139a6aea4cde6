// Package id generates prefixed record identifiers of the form
// "<prefix>-<nanoid>".
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/cryptforge/forge-studio/internal/domain"
)

// FolderPrefix is the prefix of every folder id.
const FolderPrefix = "fld"

// Generate returns prefix + "-" + a 21 character nanoid.
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + n, nil
}

// ForCategory returns a fresh id carrying the category's id prefix,
// e.g. "spell-V1StGXR8_Z5jdHi6B-myT".
func ForCategory(c domain.Category) (string, error) {
	return Generate(c.IDPrefix())
}

// Folder returns a fresh folder id.
func Folder() (string, error) {
	return Generate(FolderPrefix)
}

// HasPrefix reports whether recID was minted with prefix.
func HasPrefix(recID, prefix string) bool {
	return strings.HasPrefix(recID, prefix+"-")
}
