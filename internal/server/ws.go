package server

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Command is a control message a board client may send over the socket.
type Command struct {
	Type string `json:"type"`
}

// Commands understood by SnapshotHandler.
const (
	CommandReset  = "reset"
	CommandPause  = "pause"
	CommandResume = "resume"
)

// SnapshotHandler pushes game snapshots to board clients via WebSocket.
type SnapshotHandler struct {
	game     Game
	interval time.Duration
}

// NewSnapshotHandler creates a new SnapshotHandler pushing at the given interval.
func NewSnapshotHandler(g Game, interval time.Duration) *SnapshotHandler {
	return &SnapshotHandler{game: g, interval: interval}
}

// ServeHTTP handles WebSocket upgrade requests. Each connection gets the current snapshot
// immediately and then every new one.
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go h.readCommands(conn, done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last time.Time
	send := func() bool {
		snap := h.game.Snapshot()
		if !last.IsZero() && snap.Time.Equal(last) {
			return true
		}
		last = snap.Time

		msg, err := json.Marshal(snap)
		if err != nil {
			log.Error().Err(err).Msg("failed to encode snapshot")
			return false
		}
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		return conn.WriteMessage(websocket.TextMessage, msg) == nil
	}

	if !send() {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}

// readCommands applies client commands until the connection closes.
func (h *SnapshotHandler) readCommands(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			log.Debug().Err(err).Msg("ignoring malformed command")
			continue
		}
		switch cmd.Type {
		case CommandReset:
			h.game.Reset()
		case CommandPause:
			h.game.SetPaused(true)
		case CommandResume:
			h.game.SetPaused(false)
		default:
			log.Debug().Str("type", cmd.Type).Msg("ignoring unknown command")
		}
	}
}
