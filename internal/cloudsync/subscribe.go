package cloudsync

import (
	"log/slog"
	"slices"
)

// Subscribe registers fn for every status transition and returns a function
// that removes it. Callbacks run synchronously on the syncing goroutine, in
// registration order. Subscribing or unsubscribing from inside a callback
// is allowed; a callback removed mid fan-out is not called again.
func (e *Engine) Subscribe(fn func(Status)) (unsubscribe func()) {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

func (e *Engine) broadcast(s Status) {
	e.subMu.Lock()
	ids := make([]uint64, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	e.subMu.Unlock()
	slices.Sort(ids)

	for _, id := range ids {
		e.subMu.Lock()
		fn, ok := e.subs[id]
		e.subMu.Unlock()
		if !ok {
			continue
		}
		e.notify(fn, s)
	}
}

func (e *Engine) notify(fn func(Status), s Status) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("sync status subscriber panicked",
				slog.String("status", string(s)),
				slog.Any("panic", r))
		}
	}()
	fn(s)
}
