package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ganot/forgeline/internal/events"
	"github.com/go-chi/chi/v5"
)

// handleRunEvents streams the state transitions of one run as server-sent
// events and ends after the terminal event. A run that already finished
// yields its final state immediately.
func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	flusher, ok := w.(http.Flusher)
	if !ok || s.bus == nil {
		s.writeError(w, r, badRequest("id", "event streaming is not available"))
		return
	}

	// Subscribe before looking up the recorded run so no transition slips
	// between the two.
	ch, cancel := s.bus.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	seq := 0
	send := func(e events.Event) bool {
		data, err := json.Marshal(e)
		if err != nil {
			return false
		}
		seq++
		if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, e.State, data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	finished := func() bool {
		rec, err := s.api.GetRun(r.Context(), id)
		if err != nil {
			return false
		}
		send(events.FromRun(*rec))
		return true
	}

	if finished() {
		return
	}

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case e, open := <-ch:
			if !open {
				return
			}
			if !send(e) || e.Terminal() {
				return
			}
		case <-ticker.C:
			// The terminal event may have been published before we subscribed.
			if finished() {
				return
			}
		}
	}
}
