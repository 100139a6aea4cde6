package cloudsync

import (
	"github.com/cryptforge/forge-studio/internal/sse"
	"github.com/cryptforge/forge-studio/internal/store"
)

// BridgeToSSE forwards every status transition to emitter as a sync.status
// event. The returned function detaches the bridge.
func BridgeToSSE(e *Engine, emitter store.EventEmitter) (detach func()) {
	return e.Subscribe(func(s Status) {
		state := e.State()
		data := sse.SyncStatusEventData{
			Status:    string(s),
			Operation: string(state.Operation),
			RunID:     state.RunID,
		}
		if s != StatusSyncing && state.LastResult != nil {
			data.Errors = state.LastResult.Errors
		}
		emitter.Emit(sse.NewSyncStatusEvent(data))
	})
}
