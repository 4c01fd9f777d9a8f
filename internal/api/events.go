package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/curriculum-engine/internal/editor"
	"github.com/terra-clan/curriculum-engine/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const eventWriteTimeout = 10 * time.Second

// EventMessage is one frame of the editor event stream
type EventMessage struct {
	Type  string                `json:"type"`
	Event *editor.Event         `json:"event,omitempty"`
	Stats *models.ScheduleStats `json:"stats,omitempty"`
}

// handleEditorEventsWS streams store changes of one editor to a websocket.
// The stream ends when the client disconnects or the editor is closed.
func (s *Server) handleEditorEventsWS(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.editorFromRequest(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := ed.Subscribe()
	defer unsubscribe()

	slog.Info("editor events websocket connected", "editor_id", ed.ID())

	stats := ed.Stats()
	if err := s.sendEventMessage(conn, EventMessage{Type: "connected", Stats: &stats}); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reads only detect the close; clients send nothing meaningful.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("editor events websocket disconnected", "editor_id", ed.ID())
			return
		case event, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "editor closed"),
					time.Now().Add(eventWriteTimeout))
				slog.Info("editor closed, ending event stream", "editor_id", ed.ID())
				return
			}
			if err := s.sendEventMessage(conn, EventMessage{Type: "event", Event: &event}); err != nil {
				return
			}
		}
	}
}

func (s *Server) sendEventMessage(conn *websocket.Conn, msg EventMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal event message", "error", err)
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send event message", "error", err)
		return err
	}
	return nil
}
