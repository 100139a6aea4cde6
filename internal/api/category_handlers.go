package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// CategoryResponse describes one asset category.
type CategoryResponse struct {
	ID       string `json:"id" doc:"Category identifier used in URLs"`
	Label    string `json:"label" doc:"Display label"`
	IDPrefix string `json:"id_prefix" doc:"Prefix of generated record ids"`
	Count    int    `json:"count" doc:"Stored records, built-ins included"`
}

// ListCategoriesOutput wraps the category list for Huma.
type ListCategoriesOutput struct {
	Body []CategoryResponse
}

func (s *Server) registerCategoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Description: "Returns every asset category with its record count",
		Tags:        []string{"Assets"},
	}, s.handleListCategories)
}

func (s *Server) handleListCategories(ctx context.Context, _ *struct{}) (*ListCategoriesOutput, error) {
	colls := s.store.Collections()
	out := make([]CategoryResponse, 0, len(colls))
	for _, coll := range colls {
		count, err := coll.Count(ctx)
		if err != nil {
			return nil, err
		}
		c := coll.Category()
		out = append(out, CategoryResponse{
			ID:       string(c),
			Label:    c.Label(),
			IDPrefix: c.IDPrefix(),
			Count:    count,
		})
	}
	return &ListCategoriesOutput{Body: out}, nil
}
