package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptforge/forge-studio/internal/domain"
	"github.com/cryptforge/forge-studio/internal/logger"
)

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestManager_TopicFiltering(t *testing.T) {
	m := startManager(t)

	syncOnly, err := m.Connect("sync")
	require.NoError(t, err)
	everything, err := m.Connect()
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())

	m.Emit(NewAssetDeletedEvent(domain.CategorySpells, "spell-1"))
	m.Emit(NewSyncStatusEvent(SyncStatusEventData{Status: "syncing"}))

	assert.Equal(t, EventAssetDeleted, receive(t, everything).Type)
	assert.Equal(t, EventSyncStatus, receive(t, everything).Type)
	assert.Equal(t, EventSyncStatus, receive(t, syncOnly).Type)

	select {
	case e := <-syncOnly.EventChan:
		t.Fatalf("unexpected event %s", e.Type)
	default:
	}
}

func TestManager_DisconnectAndShutdown(t *testing.T) {
	m := startManager(t)

	c, err := m.Connect()
	require.NoError(t, err)
	m.Disconnect(c.ID)
	m.Disconnect(c.ID)
	assert.Equal(t, 0, m.ClientCount())

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))

	// Emitting after shutdown is a silent no-op.
	m.Emit(NewHeartbeatEvent())
}

func TestManager_EmitRejectsForeignTypes(t *testing.T) {
	m := startManager(t)
	c, err := m.Connect()
	require.NoError(t, err)

	m.Emit("not an event")
	m.Emit(NewFolderCreatedEvent(&domain.Folder{ID: "fld-1", Name: "Fire", Category: domain.CategorySpells}))

	assert.Equal(t, EventFolderCreated, receive(t, c).Type)
}

func TestEventType_Topic(t *testing.T) {
	assert.Equal(t, "asset", EventCategoryReplaced.Topic())
	assert.Equal(t, "sync", EventSyncStatus.Topic())
	assert.Equal(t, "heartbeat", EventHeartbeat.Topic())
}

func TestHandler_StreamsEvents(t *testing.T) {
	m := startManager(t)
	srv := httptest.NewServer(NewHandler(m, logger.Discard()))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?topics=folder", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	readUntil := func(prefix string) string {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), prefix) {
				return lines.Text()
			}
		}
		t.Fatalf("stream ended before %q", prefix)
		return ""
	}

	assert.Equal(t, "event: connected", readUntil("event: "))

	m.Emit(NewSyncStatusEvent(SyncStatusEventData{Status: "syncing"}))
	m.Emit(NewFolderRenamedEvent(&domain.Folder{ID: "fld-1", Name: "Ice"}))

	assert.Equal(t, "event: folder.renamed", readUntil("event: "))
	assert.Contains(t, readUntil("data: "), `"name":"Ice"`)
}

func TestHandler_RejectsNonGet(t *testing.T) {
	h := NewHandler(NewManager(logger.Discard()), logger.Discard())
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
