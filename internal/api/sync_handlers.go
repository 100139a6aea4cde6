package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cryptforge/forge-studio/internal/cloudsync"
	domainerrors "github.com/cryptforge/forge-studio/internal/errors"
)

// === DTOs ===

// SyncResultResponse is a sync run prepared for display.
type SyncResultResponse struct {
	StartedAt  time.Time                  `json:"started_at" doc:"When the run started"`
	FinishedAt time.Time                  `json:"finished_at" doc:"When the run finished"`
	Operation  cloudsync.Operation        `json:"operation" doc:"push or pull"`
	RunID      string                     `json:"run_id,omitempty" doc:"Run id for log correlation"`
	Errors     []string                   `json:"errors" doc:"Per-category errors, truncated for display"`
	Categories []cloudsync.CategoryResult `json:"categories,omitempty" doc:"Per-category outcome"`
	ErrorCount int                        `json:"error_count" doc:"Total number of errors before truncation"`
	Success    bool                       `json:"success" doc:"Whether every category succeeded"`
	Rejected   bool                       `json:"rejected,omitempty" doc:"Whether the run was refused because another was in flight"`
}

// SyncResultOutput wraps a run result.
type SyncResultOutput struct {
	Body SyncResultResponse
}

// PullRequest must confirm that local custom content will be replaced.
type PullRequest struct {
	Confirm bool `json:"confirm" doc:"Must be true; pull replaces local custom records"`
}

// PullInput wraps the pull request.
type PullInput struct {
	Body PullRequest
}

// SyncStatusResponse is the engine state with the persisted last sync time.
type SyncStatusResponse struct {
	LastSyncAt *time.Time          `json:"last_sync_at,omitempty" doc:"When the last successful run finished"`
	LastResult *SyncResultResponse `json:"last_result,omitempty" doc:"Most recent run in this process"`
	Status     cloudsync.Status    `json:"status" doc:"idle, syncing, success, or error"`
	Operation  cloudsync.Operation `json:"operation,omitempty" doc:"Operation of the active or last run"`
	RunID      string              `json:"run_id,omitempty" doc:"Id of the active or last run"`
}

// SyncStatusOutput wraps the status response.
type SyncStatusOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         SyncStatusResponse
}

func (s *Server) registerSyncRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "pushSync",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/push",
		Summary:     "Push to cloud",
		Description: "Writes every category's custom records and folders to the remote",
		Tags:        []string{"Sync"},
		Middlewares: huma.Middlewares{s.rateLimited},
	}, s.handlePush)

	huma.Register(s.api, huma.Operation{
		OperationID: "pullSync",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/pull",
		Summary:     "Pull from cloud",
		Description: "Replaces local custom records and folders with the remote copy; requires confirm",
		Tags:        []string{"Sync"},
		Middlewares: huma.Middlewares{s.rateLimited},
	}, s.handlePull)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSyncStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/status",
		Summary:     "Get sync status",
		Tags:        []string{"Sync"},
	}, s.handleSyncStatus)
}

func (s *Server) handlePush(ctx context.Context, _ *struct{}) (*SyncResultOutput, error) {
	engine, err := s.syncEngine()
	if err != nil {
		return nil, err
	}
	return syncOutput(engine.PushAll(ctx))
}

func (s *Server) handlePull(ctx context.Context, input *PullInput) (*SyncResultOutput, error) {
	if !input.Body.Confirm {
		return nil, domainerrors.Confirmation("pull replaces local custom records and requires confirm: true")
	}
	engine, err := s.syncEngine()
	if err != nil {
		return nil, err
	}
	return syncOutput(engine.Pull(ctx))
}

func (s *Server) handleSyncStatus(ctx context.Context, _ *struct{}) (*SyncStatusOutput, error) {
	engine, err := s.syncEngine()
	if err != nil {
		return nil, err
	}

	state := engine.State()
	resp := SyncStatusResponse{
		Status:    state.Status,
		Operation: state.Operation,
		RunID:     state.RunID,
	}
	if state.LastResult != nil {
		view := newSyncResultResponse(*state.LastResult)
		resp.LastResult = &view
	}

	at, ok, err := engine.LastSyncTime(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		resp.LastSyncAt = &at
	}
	return &SyncStatusOutput{CacheControl: CacheNoStore, Body: resp}, nil
}

func (s *Server) syncEngine() (*cloudsync.Engine, error) {
	if s.services.Sync == nil {
		return nil, huma.Error503ServiceUnavailable("cloud sync is not configured")
	}
	return s.services.Sync, nil
}

// syncOutput turns a rejected run into a 409 carrying the result.
func syncOutput(res cloudsync.Result) (*SyncResultOutput, error) {
	view := newSyncResultResponse(res)
	if res.Rejected {
		return nil, domainerrors.ErrSyncInProgress.WithDetails(view)
	}
	return &SyncResultOutput{Body: view}, nil
}

func newSyncResultResponse(res cloudsync.Result) SyncResultResponse {
	return SyncResultResponse{
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Operation:  res.Operation,
		RunID:      res.RunID,
		Errors:     visibleErrors(res.Errors),
		ErrorCount: len(res.Errors),
		Categories: res.Categories,
		Success:    res.Success,
		Rejected:   res.Rejected,
	}
}

// visibleErrors keeps the first MaxVisibleSyncErrors entries and summarizes
// the rest in a final "+N more" line.
func visibleErrors(errs []string) []string {
	if len(errs) <= MaxVisibleSyncErrors {
		if errs == nil {
			return []string{}
		}
		return errs
	}
	out := make([]string, 0, MaxVisibleSyncErrors+1)
	out = append(out, errs[:MaxVisibleSyncErrors]...)
	return append(out, fmt.Sprintf("+%d more", len(errs)-MaxVisibleSyncErrors))
}
