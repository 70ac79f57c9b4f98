// Package sse streams document store subscriptions to browsers as
// server-sent events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"go.uber.org/zap"
)

// KeepAlive is how often an idle stream sends a comment line so proxies do
// not close it.
var KeepAlive = 25 * time.Second

// Render turns a snapshot into the JSON payload of one event.
type Render func(docstore.Snapshot) any

// Stream writes every snapshot of sub as a "snapshot" event until the client
// goes away or the subscription ends. A failed listing is sent as an "error"
// event and the stream stays open. sub is canceled on return.
func Stream(w http.ResponseWriter, r *http.Request, sub *docstore.Subscription, render Render, log *zap.Logger) {
	defer sub.Cancel()

	rc := http.NewResponseController(w)
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.Warn("sse: response does not support flushing", zap.Error(err))
		return
	}

	ticker := time.NewTicker(KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case snap, ok := <-sub.C:
			if !ok {
				return
			}
			event, payload := "snapshot", any(nil)
			if snap.Err != nil {
				log.Warn("sse: snapshot failed",
					zap.String("collection", string(snap.Collection)),
					zap.Error(snap.Err))
				event, payload = "error", map[string]string{"error": "Unable to load updates."}
			} else {
				payload = render(snap)
			}
			if err := writeEvent(w, event, payload); err != nil {
				log.Debug("sse: client write failed", zap.Error(err))
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
