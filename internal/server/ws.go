package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/f3rmion/dlgview/internal/metrics"
	"github.com/f3rmion/dlgview/internal/session"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inboundMessage is a client command. Type is "choose", "select" or "reset".
type inboundMessage struct {
	Type   string `json:"type"`
	Node   *int32 `json:"node,omitempty"`
	Option int    `json:"option"`
}

// outboundMessage carries either a session snapshot or an error.
type outboundMessage struct {
	Type  string            `json:"type"`
	State *session.Snapshot `json:"state,omitempty"`
	Error string            `json:"error,omitempty"`
}

// GET /v1/sessions/{id}/ws: push the wheel after every command.
func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "session", s.ID, "error", err)
		return
	}
	defer conn.Close()

	metrics.WebsocketClients.Inc()
	defer metrics.WebsocketClients.Dec()
	slog.Debug("websocket connected", "session", s.ID)

	if err := pushState(conn, s); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read failed", "session", s.ID, "error", err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := send(conn, outboundMessage{Type: "error", Error: fmt.Sprintf("invalid JSON: %s", err)}); err != nil {
				return
			}
			continue
		}

		if err := handleMessage(s, msg); err != nil {
			if err := send(conn, outboundMessage{Type: "error", Error: err.Error()}); err != nil {
				return
			}
			continue
		}
		if err := pushState(conn, s); err != nil {
			return
		}
	}
}

func handleMessage(s *session.Session, msg inboundMessage) error {
	switch msg.Type {
	case "choose":
		return applyChoice(s, msg.Node, msg.Option)
	case "select":
		if msg.Node == nil {
			return fmt.Errorf("select needs a node")
		}
		return s.Select(*msg.Node)
	case "reset":
		s.Reset()
		return nil
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func pushState(conn *websocket.Conn, s *session.Session) error {
	snap, err := s.Snapshot()
	if err != nil {
		return send(conn, outboundMessage{Type: "error", Error: err.Error()})
	}
	return send(conn, outboundMessage{Type: "options", State: &snap})
}

func send(conn *websocket.Conn, msg outboundMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(msg)
}
