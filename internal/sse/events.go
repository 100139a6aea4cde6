// Package sse streams studio changes (asset edits, folder changes, sync
// progress) to connected editor clients as Server-Sent Events.
package sse

import (
	"strings"
	"time"

	"github.com/cryptforge/forge-studio/internal/domain"
)

// EventType represents the type of SSE Event. The part before the dot is the
// topic clients can subscribe to.
type EventType string

const (
	// EventAssetSaved represents an asset create or update.
	EventAssetSaved EventType = "asset.saved"
	// EventAssetDeleted represents an asset deletion.
	EventAssetDeleted EventType = "asset.deleted"
	// EventCategoryReplaced represents a bulk replacement (pull, built-in reseed).
	EventCategoryReplaced EventType = "asset.category_replaced"

	// EventFolderCreated represents a folder creation.
	EventFolderCreated EventType = "folder.created"
	// EventFolderRenamed represents a folder rename.
	EventFolderRenamed EventType = "folder.renamed"
	// EventFolderDeleted represents a folder deletion.
	EventFolderDeleted EventType = "folder.deleted"

	// EventSyncStatus represents a sync state transition.
	EventSyncStatus EventType = "sync.status"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Topic returns the subscription topic of the event type.
func (t EventType) Topic() string {
	topic, _, _ := strings.Cut(string(t), ".")
	return topic
}

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// AssetEventData is the payload for asset.saved.
type AssetEventData struct {
	Asset    domain.Asset    `json:"asset"`
	Category domain.Category `json:"category"`
}

// AssetDeletedEventData is the payload for asset.deleted.
type AssetDeletedEventData struct {
	Category domain.Category `json:"category"`
	ID       string          `json:"id"`
}

// CategoryReplacedEventData is the payload for asset.category_replaced.
type CategoryReplacedEventData struct {
	Category domain.Category `json:"category"`
	Reason   string          `json:"reason"`
	Count    int             `json:"count"`
}

// FolderEventData is the payload for folder.created and folder.renamed.
type FolderEventData struct {
	Folder *domain.Folder `json:"folder"`
}

// FolderDeletedEventData is the payload for folder.deleted.
type FolderDeletedEventData struct {
	FolderID   string          `json:"folder_id"`
	Category   domain.Category `json:"category"`
	Reassigned int             `json:"reassigned"`
}

// SyncStatusEventData is the payload for sync.status.
type SyncStatusEventData struct {
	Status    string   `json:"status"`
	Operation string   `json:"operation,omitempty"`
	RunID     string   `json:"run_id,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// HeartbeatEventData is the payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

func newEvent(t EventType, data any) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// NewAssetSavedEvent creates an asset.saved event.
func NewAssetSavedEvent(a domain.Asset) Event {
	return newEvent(EventAssetSaved, AssetEventData{Asset: a, Category: a.Category()})
}

// NewAssetDeletedEvent creates an asset.deleted event.
func NewAssetDeletedEvent(c domain.Category, id string) Event {
	return newEvent(EventAssetDeleted, AssetDeletedEventData{Category: c, ID: id})
}

// NewCategoryReplacedEvent creates an asset.category_replaced event.
func NewCategoryReplacedEvent(c domain.Category, reason string, count int) Event {
	return newEvent(EventCategoryReplaced, CategoryReplacedEventData{Category: c, Reason: reason, Count: count})
}

// NewFolderCreatedEvent creates a folder.created event.
func NewFolderCreatedEvent(f *domain.Folder) Event {
	return newEvent(EventFolderCreated, FolderEventData{Folder: f})
}

// NewFolderRenamedEvent creates a folder.renamed event.
func NewFolderRenamedEvent(f *domain.Folder) Event {
	return newEvent(EventFolderRenamed, FolderEventData{Folder: f})
}

// NewFolderDeletedEvent creates a folder.deleted event.
func NewFolderDeletedEvent(f *domain.Folder, reassigned int) Event {
	return newEvent(EventFolderDeleted, FolderDeletedEventData{
		FolderID:   f.ID,
		Category:   f.Category,
		Reassigned: reassigned,
	})
}

// NewSyncStatusEvent creates a sync.status event.
func NewSyncStatusEvent(data SyncStatusEventData) Event {
	return newEvent(EventSyncStatus, data)
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{Type: EventHeartbeat, Data: HeartbeatEventData{ServerTime: now}, Timestamp: now}
}
