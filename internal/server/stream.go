package server

import (
	"fmt"
	"net/http"
	"time"
)

// StreamHandler serves the camera view as MJPEG.
type StreamHandler struct {
	game     Game
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler polling for frames at the given interval.
func NewStreamHandler(g Game, interval time.Duration) *StreamHandler {
	return &StreamHandler{game: g, interval: interval}
}

// ServeHTTP streams MJPEG frames to connected clients. Frames are only encoded while at
// least one client is watching.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	release := h.game.WatchFrames()
	defer release()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var seen uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame, seq := h.game.Frame()
		if seq == seen || len(frame) == 0 {
			continue
		}
		seen = seq

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(frame))
		if _, err := w.Write(frame); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
