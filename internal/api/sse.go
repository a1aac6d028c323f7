package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/crm/internal/enrich"
)

// sseWriter writes server-sent events. Headers go out with the first event,
// so a request that fails before producing anything can still answer with a
// plain JSON error.
type sseWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
	gone    bool
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	return &sseWriter{w: w, rc: http.NewResponseController(w)}
}

func (s *sseWriter) send(v any) {
	if s.gone {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("api: encode event", zap.Error(err))
		return
	}
	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		s.gone = true
		return
	}
	if err := s.rc.Flush(); err != nil {
		s.gone = true
	}
}

// stream runs fn with an event channel and relays what it sends. The channel
// is drained until fn returns even after the client goes away, so fn never
// blocks on a send. An error from fn becomes an error event, or a JSON error
// response when nothing was streamed yet.
func stream(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, events chan<- enrich.Event) error) {
	events := make(chan enrich.Event, 64)
	errc := make(chan error, 1)
	go func() {
		defer close(events)
		errc <- fn(r.Context(), events)
	}()

	sw := newSSEWriter(w)
	for ev := range events {
		sw.send(ev)
	}
	err := <-errc
	if err == nil {
		return
	}
	if !sw.started {
		writeError(w, r, err)
		return
	}
	zap.L().Warn("api: stream failed", zap.String("path", r.URL.Path), zap.Error(err))
	sw.send(enrich.Event{Type: enrich.EventError, Message: err.Error()})
}

// wantsStream reports whether the client asked for server-sent events.
func wantsStream(r *http.Request, flag bool) bool {
	return flag || r.Header.Get("Accept") == "text/event-stream"
}
