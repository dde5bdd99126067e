package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/skillsenselab/speakerline/logger"
)

// connectedEvent is sent once when a subscriber attaches.
type connectedEvent struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
	StreamID string `json:"stream_id"`
}

// ServeSSE streams a session's sentence events to one HTTP client.
// It blocks until the client disconnects or the hub shuts down.
func ServeSSE(hub *Hub, log *logger.Logger, w http.ResponseWriter, r *http.Request, streamID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// SSE connections are long-lived; the server's write timeout must
	// not kill them.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Warn("could not disable write deadline", logger.ErrorFields("sse", err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := NewClient(uuid.NewString(), streamID, log)
	hub.Register(client)
	defer hub.Unregister(client)

	hello, _ := json.Marshal(connectedEvent{
		Type:     "connected",
		ClientID: client.ID(),
		StreamID: streamID,
	})
	_, _ = fmt.Fprintf(w, "data: %s\n\n", hello)
	flusher.Flush()

	log.Debug("SSE client connected", logger.Fields(
		"client_id", client.ID(),
		logger.FieldStream, streamID,
	))

	// Keep-alive interval stays under typical proxy timeouts.
	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case data, ok := <-client.Events():
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()

		case <-keepAlive.C:
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}
