package api

import (
	"encoding/json"
	"strings"

	"github.com/cryptforge/forge-studio/internal/domain"
	domainerrors "github.com/cryptforge/forge-studio/internal/errors"
)

// operationID builds a camelCase operation id such as listSpecialTiles.
func operationID(verb string, c domain.Category) string {
	var b strings.Builder
	b.WriteString(verb)
	for part := range strings.SplitSeq(string(c), "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// parseCategory validates a category path or query value.
func parseCategory(raw string) (domain.Category, error) {
	c, err := domain.ParseCategory(raw)
	if err != nil {
		return "", domainerrors.Validationf("unknown category %q", raw)
	}
	return c, nil
}

// parseCategoryList parses a comma-separated category filter. An empty
// value means every category.
func parseCategoryList(raw string) ([]domain.Category, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []domain.Category
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := parseCategory(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// requireConfirm fails destructive requests that were not confirmed.
func requireConfirm(confirmed bool, action string) error {
	if !confirmed {
		return domainerrors.Confirmation(action + " requires confirm=true")
	}
	return nil
}

// decodeJSON unmarshals a request body into dest. An empty body leaves
// dest untouched.
func decodeJSON(body []byte, dest any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return domainerrors.Validationf("invalid JSON body: %v", err)
	}
	return nil
}
