package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/cryptforge/forge-studio/internal/cloudsync"
	"github.com/cryptforge/forge-studio/internal/cloudsync/remote"
	"github.com/cryptforge/forge-studio/internal/compendium"
	"github.com/cryptforge/forge-studio/internal/domain"
	"github.com/cryptforge/forge-studio/internal/sanitize"
	"github.com/cryptforge/forge-studio/internal/sse"
	"github.com/cryptforge/forge-studio/internal/store"
)

// testServer bundles the API with the collaborators tests poke directly.
type testServer struct {
	*Server
	api    humatest.TestAPI
	store  *store.Store
	remote *remote.Memory
	engine *cloudsync.Engine
}

type testOptions struct {
	remote            cloudsync.Remote
	syncRatePerMinute int
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWith(t, testOptions{})
}

func setupTestServerWith(t *testing.T, opts testOptions) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sseManager := sse.NewManager(logger)
	st, err := store.New(t.TempDir(), logger, sseManager)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	st.SetSanitizer(sanitize.NewHTMLSanitizer().Func())

	index, err := compendium.NewIndex(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetIndexer(index)

	mem := remote.NewMemory()
	var r cloudsync.Remote = mem
	if opts.remote != nil {
		r = opts.remote
	}
	engine := cloudsync.NewEngine(st, r, cloudsync.Options{Logger: logger, AccountID: "acct"})

	srv := NewServer(st, &Services{
		Compendium: compendium.NewService(st, index, logger),
		Index:      index,
		Sync:       engine,
	}, sseManager, Options{SyncRatePerMinute: opts.syncRatePerMinute, Version: "test"}, logger)
	t.Cleanup(srv.Close)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.API()),
		store:  st,
		remote: mem,
		engine: engine,
	}
}

// testEnvelope is the decoded response wrapper.
type testEnvelope struct {
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	V       int             `json:"v"`
	Success bool            `json:"success"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	require.Equal(t, 1, env.V)
	return env
}

// decodeData unmarshals the envelope's data into dest.
func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	env := decodeEnvelope(t, resp)
	require.True(t, env.Success, resp.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func seedBuiltInSpell(t *testing.T, st *store.Store, id, name string) {
	t.Helper()
	sp := &domain.Spell{AssetMeta: domain.AssetMeta{ID: id, Name: name}}
	sp.ApplyDefaults()
	_, err := st.Spells.SeedBuiltIns(context.Background(), []domain.Asset{sp})
	require.NoError(t, err)
}

func saveSpell(t *testing.T, st *store.Store, id, name, folderID string) *domain.Spell {
	t.Helper()
	sp := &domain.Spell{AssetMeta: domain.AssetMeta{ID: id, Name: name, FolderID: folderID}}
	sp.ApplyDefaults()
	require.NoError(t, st.Spells.Save(context.Background(), sp))
	return sp
}
