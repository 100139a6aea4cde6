package store

import (
	"github.com/cryptforge/forge-studio/internal/domain"
	domainerrors "github.com/cryptforge/forge-studio/internal/errors"
)

// ErrNotFound is returned when a record does not exist. It matches
// errors.ErrNotFound from the domain errors package.
var ErrNotFound = domainerrors.ErrNotFound

func assetNotFound(c domain.Category, id string) error {
	return domainerrors.NotFoundf("%s %q not found", c, id)
}

func folderNotFound(id string) error {
	return domainerrors.NotFoundf("folder %q not found", id)
}

func protected(c domain.Category, id, action string) error {
	return domainerrors.Protectedf("cannot %s built-in %s %q", action, c, id)
}
