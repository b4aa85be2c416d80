package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// defaultPollInterval is how often the event streams re-read their row.
const defaultPollInterval = 2 * time.Second

// sseFrame is one iteration's outcome for a polling event stream.
type sseFrame struct {
	Event string
	Data  any
	Emit  bool
	Done  bool
}

// streamSSE runs a polling Server-Sent-Events loop. poll is called once per
// interval; when Emit is set the frame's event is written, and when Done is
// set a final "done" event closes the stream. A poll error emits "error" and
// closes. The loop stops when the client disconnects.
//
// The stream only observes entity state; closing it never cancels the
// underlying pipeline.
func streamSSE(w http.ResponseWriter, r *http.Request, interval time.Duration, logger *slog.Logger, poll func() (sseFrame, error)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		frame, err := poll()
		if err != nil {
			writeSSEEvent(w, "error", map[string]string{"error": GetSafeErrorMessage(err)})
			flusher.Flush()
			return
		}
		if frame.Emit {
			writeSSEEvent(w, frame.Event, frame.Data)
			flusher.Flush()
		}
		if frame.Done {
			writeSSEEvent(w, "done", frame.Data)
			flusher.Flush()
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to encode SSE payload", "event", event, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
