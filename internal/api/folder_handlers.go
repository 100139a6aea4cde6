package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cryptforge/forge-studio/internal/domain"
)

// === DTOs ===

// ListFoldersInput selects a category's folders.
type ListFoldersInput struct {
	Category string `query:"category" required:"true" doc:"Asset category"`
}

// ListFoldersOutput wraps the folder list.
type ListFoldersOutput struct {
	Body []*domain.Folder
}

// CreateFolderRequest is the request body for creating a folder.
type CreateFolderRequest struct {
	Name     string `json:"name" minLength:"1" maxLength:"80" doc:"Folder name"`
	Category string `json:"category" doc:"Asset category the folder groups"`
}

// CreateFolderInput wraps the create request.
type CreateFolderInput struct {
	Body CreateFolderRequest
}

// RenameFolderRequest is the request body for renaming a folder.
type RenameFolderRequest struct {
	Name string `json:"name" minLength:"1" maxLength:"80" doc:"New folder name"`
}

// RenameFolderInput wraps the rename request.
type RenameFolderInput struct {
	ID   string `path:"id" doc:"Folder id"`
	Body RenameFolderRequest
}

// DeleteFolderInput requires explicit confirmation.
type DeleteFolderInput struct {
	ID      string `path:"id" doc:"Folder id"`
	Confirm bool   `query:"confirm" doc:"Must be true"`
}

// FolderOutput wraps one folder.
type FolderOutput struct {
	Body *domain.Folder
}

// DeleteFolderResponse reports how many records lost their folder.
type DeleteFolderResponse struct {
	ID         string `json:"id" doc:"Deleted folder id"`
	Reassigned int    `json:"reassigned" doc:"Records moved to uncategorized"`
}

// DeleteFolderOutput wraps the delete response.
type DeleteFolderOutput struct {
	Body DeleteFolderResponse
}

func (s *Server) registerFolderRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFolders",
		Method:      http.MethodGet,
		Path:        "/api/v1/folders",
		Summary:     "List folders",
		Description: "Lists the folders of one category",
		Tags:        []string{"Folders"},
	}, s.handleListFolders)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createFolder",
		Method:        http.MethodPost,
		Path:          "/api/v1/folders",
		Summary:       "Create folder",
		Tags:          []string{"Folders"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "renameFolder",
		Method:      http.MethodPatch,
		Path:        "/api/v1/folders/{id}",
		Summary:     "Rename folder",
		Tags:        []string{"Folders"},
	}, s.handleRenameFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteFolder",
		Method:      http.MethodDelete,
		Path:        "/api/v1/folders/{id}",
		Summary:     "Delete folder",
		Description: "Deletes a folder and moves its records to uncategorized; requires confirm=true",
		Tags:        []string{"Folders"},
	}, s.handleDeleteFolder)
}

func (s *Server) handleListFolders(ctx context.Context, input *ListFoldersInput) (*ListFoldersOutput, error) {
	c, err := parseCategory(input.Category)
	if err != nil {
		return nil, err
	}
	folders, err := s.store.ListFolders(ctx, c)
	if err != nil {
		return nil, err
	}
	if folders == nil {
		folders = []*domain.Folder{}
	}
	return &ListFoldersOutput{Body: folders}, nil
}

func (s *Server) handleCreateFolder(ctx context.Context, input *CreateFolderInput) (*FolderOutput, error) {
	c, err := parseCategory(input.Body.Category)
	if err != nil {
		return nil, err
	}
	folder, err := s.store.CreateFolder(ctx, input.Body.Name, c)
	if err != nil {
		return nil, err
	}
	return &FolderOutput{Body: folder}, nil
}

// handleRenameFolder answers 404 for a missing folder. The store itself
// treats that rename as a no-op.
func (s *Server) handleRenameFolder(ctx context.Context, input *RenameFolderInput) (*FolderOutput, error) {
	if _, err := s.store.GetFolder(ctx, input.ID); err != nil {
		return nil, err
	}
	if err := s.store.RenameFolder(ctx, input.ID, input.Body.Name); err != nil {
		return nil, err
	}
	folder, err := s.store.GetFolder(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &FolderOutput{Body: folder}, nil
}

func (s *Server) handleDeleteFolder(ctx context.Context, input *DeleteFolderInput) (*DeleteFolderOutput, error) {
	if err := requireConfirm(input.Confirm, "delete"); err != nil {
		return nil, err
	}
	reassigned, err := s.store.DeleteFolder(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &DeleteFolderOutput{Body: DeleteFolderResponse{ID: input.ID, Reassigned: reassigned}}, nil
}
