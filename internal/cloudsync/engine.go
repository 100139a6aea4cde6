// Package cloudsync pushes the local asset store to a remote object store
// and pulls it back, one category at a time.
package cloudsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cryptforge/forge-studio/internal/cloudsync/remote"
	"github.com/cryptforge/forge-studio/internal/domain"
	"github.com/cryptforge/forge-studio/internal/logger"
	"github.com/cryptforge/forge-studio/internal/store"
)

// Status is the engine's sync state.
type Status string

// Sync states. Success and Error are terminal for a run; a new run may
// start from any state except Syncing.
const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Operation names a sync direction.
type Operation string

// Sync operations.
const (
	OpPush Operation = "push"
	OpPull Operation = "pull"
)

// ErrInProgress is the rejection reason for overlapping runs.
const ErrInProgress = "sync already in progress"

// Remote is the object store the engine syncs with.
type Remote interface {
	Put(ctx context.Context, key string, data []byte) error
	// Get returns remote.ErrNotFound for a missing object.
	Get(ctx context.Context, key string) ([]byte, error)
}

// SyncError is one category's failure within a run.
type SyncError struct {
	Err      error
	Category domain.Category
	Op       Operation
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Category, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// CategoryResult reports one category of a run.
type CategoryResult struct {
	Category domain.Category `json:"category"`
	Assets   int             `json:"assets"`
	Folders  int             `json:"folders"`
	Skipped  []string        `json:"skipped,omitempty"`
	Failed   bool            `json:"failed,omitempty"`
}

// Result is the outcome of a push or pull. Errors are collected per
// category; a run never aborts on a single category's failure.
type Result struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Operation  Operation        `json:"operation"`
	RunID      string           `json:"run_id,omitempty"`
	Errors     []string         `json:"errors"`
	Categories []CategoryResult `json:"categories,omitempty"`
	Success    bool             `json:"success"`
	Rejected   bool             `json:"rejected,omitempty"`
}

// Engine runs push and pull against a Remote. At most one run is in
// flight; an overlapping request is rejected, not queued.
type Engine struct {
	store   *store.Store
	remote  Remote
	logger  *slog.Logger
	now     func() time.Time
	account string
	prefix  string

	mu        sync.Mutex
	running   bool
	status    Status
	operation Operation
	runID     string
	last      *Result

	subMu   sync.Mutex
	subs    map[uint64]func(Status)
	nextSub uint64
}

// Options configures an Engine.
type Options struct {
	Logger *slog.Logger
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
	// AccountID scopes every remote key.
	AccountID string
	// KeyPrefix is prepended to every remote key.
	KeyPrefix string
}

// NewEngine creates an idle engine.
func NewEngine(s *store.Store, r Remote, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		store:   s,
		remote:  r,
		logger:  opts.Logger,
		now:     opts.Clock,
		account: opts.AccountID,
		prefix:  opts.KeyPrefix,
		status:  StatusIdle,
		subs:    make(map[uint64]func(Status)),
	}
}

// AssetsKey is the remote key of a category's records.
func (e *Engine) AssetsKey(c domain.Category) string {
	return path.Join(e.prefix, e.account, string(c)+".json")
}

// FoldersKey is the remote key of a category's folders.
func (e *Engine) FoldersKey(c domain.Category) string {
	return path.Join(e.prefix, e.account, string(c)+".folders.json")
}

// Status returns the current state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// State is a point-in-time view of the engine.
type State struct {
	LastResult *Result   `json:"last_result,omitempty"`
	Status     Status    `json:"status"`
	Operation  Operation `json:"operation,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
}

// State returns the current status with the active or most recent run.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Status:     e.status,
		Operation:  e.operation,
		RunID:      e.runID,
		LastResult: e.last,
	}
}

// LastSyncTime returns when the last run finished. The boolean is false
// if no run has finished yet.
func (e *Engine) LastSyncTime(ctx context.Context) (time.Time, bool, error) {
	return e.store.LastSync(ctx)
}

// PushAll writes every category's custom records and folders to the remote.
func (e *Engine) PushAll(ctx context.Context) Result {
	return e.run(ctx, OpPush, e.pushCategory)
}

// Pull replaces every category's custom records and folders with the
// remote copy. Built-in records are kept.
func (e *Engine) Pull(ctx context.Context) Result {
	return e.run(ctx, OpPull, e.pullCategory)
}

type categoryFunc func(ctx context.Context, log *slog.Logger, coll store.AnyCollection) (CategoryResult, error)

func (e *Engine) run(ctx context.Context, op Operation, fn categoryFunc) Result {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		e.logger.Warn("sync rejected", slog.String("operation", string(op)))
		return Result{
			Operation: op,
			Success:   false,
			Rejected:  true,
			Errors:    []string{ErrInProgress},
		}
	}
	runID := uuid.NewString()
	e.running = true
	e.status = StatusSyncing
	e.operation = op
	e.runID = runID
	e.mu.Unlock()

	log := e.logger.With(slog.String("run_id", runID), slog.String("operation", string(op)))
	log.Info("sync started")
	e.broadcast(StatusSyncing)

	res := Result{
		Operation: op,
		RunID:     runID,
		StartedAt: e.now(),
		Errors:    []string{},
	}
	// Runs are not cancellable; every category is processed even if the
	// caller goes away.
	runCtx := context.WithoutCancel(ctx)
	for _, coll := range e.store.Collections() {
		cr, err := fn(runCtx, log, coll)
		if err != nil {
			syncErr := &SyncError{Category: coll.Category(), Op: op, Err: err}
			log.Warn("category failed",
				slog.String("category", string(coll.Category())),
				slog.String("error", err.Error()))
			res.Errors = append(res.Errors, syncErr.Error())
			cr.Category = coll.Category()
			cr.Failed = true
		}
		res.Categories = append(res.Categories, cr)
	}
	res.FinishedAt = e.now()
	res.Success = len(res.Errors) == 0

	final := StatusSuccess
	if !res.Success {
		final = StatusError
	}

	e.mu.Lock()
	e.status = final
	e.last = &res
	e.mu.Unlock()

	log.Info("sync finished",
		slog.String("status", string(final)),
		slog.Int("errors", len(res.Errors)),
		slog.Duration("duration", res.FinishedAt.Sub(res.StartedAt)))
	e.broadcast(final)

	if err := e.store.SetLastSync(runCtx, res.FinishedAt); err != nil {
		log.Error("failed to record last sync time", slog.String("error", err.Error()))
	}

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()

	return res
}

func (e *Engine) pushCategory(ctx context.Context, _ *slog.Logger, coll store.AnyCollection) (CategoryResult, error) {
	c := coll.Category()
	cr := CategoryResult{Category: c}

	snap, err := coll.Snapshot(ctx)
	if err != nil {
		return cr, fmt.Errorf("snapshot: %w", err)
	}

	// Built-ins ship with every install; only custom records travel.
	custom := make([]domain.Asset, 0, len(snap.Assets))
	for _, a := range snap.Assets {
		if !a.Meta().BuiltIn {
			custom = append(custom, a)
		}
	}

	assets, err := json.Marshal(custom)
	if err != nil {
		return cr, fmt.Errorf("encode records: %w", err)
	}
	folders, err := json.Marshal(nonNil(snap.Folders))
	if err != nil {
		return cr, fmt.Errorf("encode folders: %w", err)
	}

	if err := e.remote.Put(ctx, e.AssetsKey(c), assets); err != nil {
		return cr, err
	}
	if err := e.remote.Put(ctx, e.FoldersKey(c), folders); err != nil {
		return cr, err
	}

	cr.Assets = len(custom)
	cr.Folders = len(snap.Folders)
	return cr, nil
}

func (e *Engine) pullCategory(ctx context.Context, log *slog.Logger, coll store.AnyCollection) (CategoryResult, error) {
	c := coll.Category()
	cr := CategoryResult{Category: c}

	// Fetch and decode both objects before touching local data so a failed
	// download leaves the category as it was.
	rawAssets, err := e.fetch(ctx, e.AssetsKey(c))
	if err != nil {
		return cr, err
	}
	rawFolders, err := e.fetch(ctx, e.FoldersKey(c))
	if err != nil {
		return cr, err
	}

	var assets []domain.Asset
	if rawAssets != nil {
		if assets, err = coll.Decode(rawAssets); err != nil {
			return cr, err
		}
	}
	var folders []*domain.Folder
	if rawFolders != nil {
		if err := json.Unmarshal(rawFolders, &folders); err != nil {
			return cr, fmt.Errorf("decode folders: %w", err)
		}
	}

	res, err := coll.Replace(ctx, assets, folders)
	if err != nil {
		return cr, err
	}
	if len(res.Skipped) > 0 {
		log.Warn("remote records skipped",
			slog.String("category", string(c)),
			slog.Any("reasons", res.Skipped))
	}

	cr.Assets = res.Written
	cr.Folders = res.Folders
	cr.Skipped = res.Skipped
	return cr, nil
}

// fetch returns nil data for a missing object.
func (e *Engine) fetch(ctx context.Context, key string) ([]byte, error) {
	data, err := e.remote.Get(ctx, key)
	if errors.Is(err, remote.ErrNotFound) {
		return nil, nil
	}
	return data, err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
