package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cryptforge/forge-studio/internal/domain"
	"github.com/cryptforge/forge-studio/internal/editor"
	domainerrors "github.com/cryptforge/forge-studio/internal/errors"
	"github.com/cryptforge/forge-studio/internal/store"
)

// === DTOs ===

// ListAssetsInput filters a category listing.
type ListAssetsInput struct {
	Folder         string `query:"folder" doc:"Folder id; present but empty selects records without a folder"`
	IncludeBuiltIn bool   `query:"include_builtin" default:"true" doc:"Include built-in records"`
	filter         domain.FolderFilter
}

// Resolve distinguishes an absent folder parameter from an empty one.
func (in *ListAssetsInput) Resolve(ctx huma.Context) []error {
	u := ctx.URL()
	in.filter = domain.ParseFolderFilter(in.Folder, u.Query().Has("folder"))
	return nil
}

// AssetIDInput addresses one record.
type AssetIDInput struct {
	ID string `path:"id" doc:"Record id"`
}

// CreateAssetInput carries optional initial field values. The body is
// decoded over the category defaults, so any subset of fields is accepted.
type CreateAssetInput struct {
	Body *json.RawMessage
}

// PutAssetInput carries a full record.
type PutAssetInput struct {
	ID   string           `path:"id" doc:"Record id"`
	Body *json.RawMessage `required:"true"`
}

// DeleteAssetInput requires explicit confirmation.
type DeleteAssetInput struct {
	ID      string `path:"id" doc:"Record id"`
	Confirm bool   `query:"confirm" doc:"Must be true"`
}

// AssetOutput wraps one record.
type AssetOutput[P any] struct {
	Body P
}

// AssetListOutput wraps a record list.
type AssetListOutput[P any] struct {
	Body []P
}

// === Registration ===

func (s *Server) registerAssetRoutes() {
	registerAssetRoutesFor(s, s.store.Spells)
	registerAssetRoutesFor(s, s.store.Collectibles)
	registerAssetRoutesFor(s, s.store.Characters)
	registerAssetRoutesFor(s, s.store.Enemies)
	registerAssetRoutesFor(s, s.store.SpecialTiles)
	registerAssetRoutesFor(s, s.store.StatusEffects)
	registerAssetRoutesFor(s, s.store.Sounds)
	registerAssetRoutesFor(s, s.store.Help)
}

// assetHandlers serves one category's records. Writes go through an
// editor form so create, update and duplicate share the save path.
type assetHandlers[T any, P domain.Record[T]] struct {
	coll *store.Collection[T, P]
}

func registerAssetRoutesFor[T any, P domain.Record[T]](s *Server, coll *store.Collection[T, P]) {
	h := &assetHandlers[T, P]{coll: coll}
	c := coll.Category()
	base := "/api/v1/" + string(c)
	tags := []string{c.Label()}

	huma.Register(s.api, huma.Operation{
		OperationID: operationID("list", c),
		Method:      http.MethodGet,
		Path:        base,
		Summary:     "List " + c.Label(),
		Description: "Lists records, optionally filtered by folder",
		Tags:        tags,
	}, h.list)

	huma.Register(s.api, huma.Operation{
		OperationID: operationID("get", c),
		Method:      http.MethodGet,
		Path:        base + "/{id}",
		Summary:     "Get " + c.Label() + " record",
		Tags:        tags,
	}, h.get)

	huma.Register(s.api, huma.Operation{
		OperationID:   operationID("create", c),
		Method:        http.MethodPost,
		Path:          base,
		Summary:       "Create " + c.Label() + " record",
		Description:   "Creates a record from defaults; body fields override them",
		Tags:          tags,
		RequestBody:   recordRequestBody(c, false),
		DefaultStatus: http.StatusCreated,
	}, h.create)

	huma.Register(s.api, huma.Operation{
		OperationID: operationID("save", c),
		Method:      http.MethodPut,
		Path:        base + "/{id}",
		Summary:     "Save " + c.Label() + " record",
		Description: "Replaces the whole record, creating it when absent",
		Tags:        tags,
		RequestBody: recordRequestBody(c, true),
	}, h.put)

	huma.Register(s.api, huma.Operation{
		OperationID:   operationID("duplicate", c),
		Method:        http.MethodPost,
		Path:          base + "/{id}/duplicate",
		Summary:       "Duplicate " + c.Label() + " record",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
	}, h.duplicate)

	huma.Register(s.api, huma.Operation{
		OperationID:   operationID("delete", c),
		Method:        http.MethodDelete,
		Path:          base + "/{id}",
		Summary:       "Delete " + c.Label() + " record",
		Description:   "Deletes a custom record; requires confirm=true",
		Tags:          tags,
		DefaultStatus: http.StatusNoContent,
	}, h.delete)
}

// recordRequestBody documents a record body as a free-form JSON object.
// Field rules are enforced by the store validator on save.
func recordRequestBody(c domain.Category, required bool) *huma.RequestBody {
	return &huma.RequestBody{
		Description: c.Label() + " record fields",
		Required:    required,
		Content: map[string]*huma.MediaType{
			"application/json": {
				Schema: &huma.Schema{Type: huma.TypeObject, AdditionalProperties: true},
			},
		},
	}
}

func bodyBytes(raw *json.RawMessage) []byte {
	if raw == nil {
		return nil
	}
	return *raw
}

// === Handlers ===

func (h *assetHandlers[T, P]) list(ctx context.Context, input *ListAssetsInput) (*AssetListOutput[P], error) {
	recs, err := h.coll.List(ctx, input.filter, input.IncludeBuiltIn)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []P{}
	}
	return &AssetListOutput[P]{Body: recs}, nil
}

func (h *assetHandlers[T, P]) get(ctx context.Context, input *AssetIDInput) (*AssetOutput[P], error) {
	rec, err := h.coll.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &AssetOutput[P]{Body: rec}, nil
}

func (h *assetHandlers[T, P]) create(ctx context.Context, input *CreateAssetInput) (*AssetOutput[P], error) {
	rec, err := editor.New[T, P]()
	if err != nil {
		return nil, err
	}
	recID := rec.Meta().ID
	if err := decodeJSON(bodyBytes(input.Body), rec); err != nil {
		return nil, err
	}
	rec.Meta().ID = recID
	rec.Meta().BuiltIn = false

	form, err := editor.OpenNew(h.coll, rec)
	if err != nil {
		return nil, err
	}
	return h.save(ctx, form)
}

func (h *assetHandlers[T, P]) put(ctx context.Context, input *PutAssetInput) (*AssetOutput[P], error) {
	rec := P(new(T))
	rec.ApplyDefaults()
	if err := decodeJSON(bodyBytes(input.Body), rec); err != nil {
		return nil, err
	}
	if bodyID := rec.Meta().ID; bodyID != "" && bodyID != input.ID {
		return nil, domainerrors.ValidationWithDetails(
			"record id does not match the URL",
			map[string]string{"id": "must equal the path id"})
	}
	rec.Meta().ID = input.ID

	existing, err := h.coll.Get(ctx, input.ID)
	switch {
	case errors.Is(err, domainerrors.ErrNotFound):
		form, err := editor.OpenNew(h.coll, rec)
		if err != nil {
			return nil, err
		}
		return h.save(ctx, form)
	case err != nil:
		return nil, err
	}

	form, err := editor.Open(h.coll, existing)
	if err != nil {
		return nil, err
	}
	if err := form.Replace(rec); err != nil {
		return nil, err
	}
	return h.save(ctx, form)
}

func (h *assetHandlers[T, P]) duplicate(ctx context.Context, input *AssetIDInput) (*AssetOutput[P], error) {
	src, err := h.coll.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	dup, err := editor.Duplicate(src)
	if err != nil {
		return nil, err
	}
	form, err := editor.OpenNew(h.coll, dup)
	if err != nil {
		return nil, err
	}
	return h.save(ctx, form)
}

func (h *assetHandlers[T, P]) delete(ctx context.Context, input *DeleteAssetInput) (*struct{}, error) {
	if err := requireConfirm(input.Confirm, "delete"); err != nil {
		return nil, err
	}
	if err := h.coll.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (h *assetHandlers[T, P]) save(ctx context.Context, form *editor.Form[T, P]) (*AssetOutput[P], error) {
	if err := form.Save(ctx); err != nil {
		return nil, err
	}
	saved, err := form.Original()
	if err != nil {
		return nil, err
	}
	return &AssetOutput[P]{Body: saved}, nil
}
