package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cryptforge/forge-studio/internal/compendium"
	"github.com/cryptforge/forge-studio/internal/domain"
)

// === DTOs ===

// OverviewOutput wraps the per-category summary.
type OverviewOutput struct {
	Body *compendium.Overview
}

// BrowseInput selects one category's records.
type BrowseInput struct {
	Category       string `path:"category" doc:"Asset category"`
	Query          string `query:"q" doc:"Optional free-text filter"`
	Folder         string `query:"folder" doc:"Folder id; present but empty selects records without a folder"`
	IncludeBuiltIn bool   `query:"include_builtin" default:"true" doc:"Include built-in records"`
	filter         domain.FolderFilter
}

// Resolve distinguishes an absent folder parameter from an empty one.
func (in *BrowseInput) Resolve(ctx huma.Context) []error {
	u := ctx.URL()
	in.filter = domain.ParseFolderFilter(in.Folder, u.Query().Has("folder"))
	return nil
}

// BrowseOutput wraps records in display order.
type BrowseOutput struct {
	Body []domain.Asset
}

// CompendiumSearchInput contains search parameters.
type CompendiumSearchInput struct {
	Query    string `query:"q" doc:"Search text"`
	Category string `query:"category" doc:"Comma-separated categories; empty searches all"`
}

// CompendiumSearchOutput wraps search hits.
type CompendiumSearchOutput struct {
	Body []compendium.Hit
}

// ReferencesInput addresses one record.
type ReferencesInput struct {
	Category string `path:"category" doc:"Asset category"`
	ID       string `path:"id" doc:"Record id"`
}

// ReferencesOutput wraps resolved references.
type ReferencesOutput struct {
	Body []compendium.ResolvedReference
}

// HelpMarkdownOutput is the raw help export.
type HelpMarkdownOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func (s *Server) registerCompendiumRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCompendiumOverview",
		Method:      http.MethodGet,
		Path:        "/api/v1/compendium",
		Summary:     "Compendium overview",
		Description: "Returns record counts per category and folder",
		Tags:        []string{"Compendium"},
	}, s.handleCompendiumOverview)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchCompendium",
		Method:      http.MethodGet,
		Path:        "/api/v1/compendium/search",
		Summary:     "Search compendium",
		Description: "Full-text search over names, descriptions and help text",
		Tags:        []string{"Compendium"},
	}, s.handleCompendiumSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportHelpMarkdown",
		Method:      http.MethodGet,
		Path:        "/api/v1/compendium/help.md",
		Summary:     "Export help as Markdown",
		Tags:        []string{"Compendium"},
	}, s.handleExportHelp)

	huma.Register(s.api, huma.Operation{
		OperationID: "browseCompendium",
		Method:      http.MethodGet,
		Path:        "/api/v1/compendium/{category}",
		Summary:     "Browse a category",
		Description: "Lists records in display order: built-ins first, then by name",
		Tags:        []string{"Compendium"},
	}, s.handleCompendiumBrowse)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCompendiumReferences",
		Method:      http.MethodGet,
		Path:        "/api/v1/compendium/{category}/{id}/references",
		Summary:     "Resolve references",
		Description: "Resolves a record's foreign keys; dangling targets are null",
		Tags:        []string{"Compendium"},
	}, s.handleCompendiumReferences)
}

func (s *Server) handleCompendiumOverview(ctx context.Context, _ *struct{}) (*OverviewOutput, error) {
	overview, err := s.services.Compendium.Overview(ctx)
	if err != nil {
		return nil, err
	}
	return &OverviewOutput{Body: overview}, nil
}

func (s *Server) handleCompendiumSearch(ctx context.Context, input *CompendiumSearchInput) (*CompendiumSearchOutput, error) {
	categories, err := parseCategoryList(input.Category)
	if err != nil {
		return nil, err
	}
	hits, err := s.services.Compendium.Search(ctx, input.Query, categories)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []compendium.Hit{}
	}
	return &CompendiumSearchOutput{Body: hits}, nil
}

func (s *Server) handleExportHelp(ctx context.Context, _ *struct{}) (*HelpMarkdownOutput, error) {
	md, err := s.services.Compendium.ExportHelpMarkdown(ctx)
	if err != nil {
		return nil, err
	}
	return &HelpMarkdownOutput{
		ContentType: "text/markdown; charset=utf-8",
		Body:        []byte(md),
	}, nil
}

func (s *Server) handleCompendiumBrowse(ctx context.Context, input *BrowseInput) (*BrowseOutput, error) {
	c, err := parseCategory(input.Category)
	if err != nil {
		return nil, err
	}
	assets, err := s.services.Compendium.Browse(ctx, compendium.Query{
		Category:       c,
		Text:           input.Query,
		Folder:         input.filter,
		IncludeBuiltIn: input.IncludeBuiltIn,
	})
	if err != nil {
		return nil, err
	}
	return &BrowseOutput{Body: assets}, nil
}

func (s *Server) handleCompendiumReferences(ctx context.Context, input *ReferencesInput) (*ReferencesOutput, error) {
	c, err := parseCategory(input.Category)
	if err != nil {
		return nil, err
	}
	refs, err := s.services.Compendium.References(ctx, c, input.ID)
	if err != nil {
		return nil, err
	}
	return &ReferencesOutput{Body: refs}, nil
}
