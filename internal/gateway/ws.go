package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/minhdn/towerdesk/internal/tenant"
)

// wsFrame is one inbound WebSocket message.
type wsFrame struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// wsChatResponse is the frame sent back for a chat turn.
type wsChatResponse struct {
	Type string `json:"type"`
	chatResponse
}

type wsError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// handleWebSocket runs a chat conversation over one WebSocket connection.
// The building binding is fixed at upgrade time from the request context;
// frames on the connection cannot switch buildings.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	building, _ := tenant.From(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(64 * 1024)
	s.log.Debug().
		Str("remote", r.RemoteAddr).
		Bool("authenticated", building != "").
		Msg("websocket connected")

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket closed")
			} else {
				s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket read error")
			}
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			conn.WriteJSON(wsError{Type: "error", Error: "invalid frame"})
			continue
		}

		switch frame.Type {
		case "chat":
			s.handleWSChat(conn, frame, building)
		case "ping":
			conn.WriteJSON(wsFrame{Type: "pong"})
		default:
			conn.WriteJSON(wsError{Type: "error", Error: "unknown frame type: " + frame.Type})
		}
	}
}

func (s *Server) handleWSChat(conn *websocket.Conn, frame wsFrame, building string) {
	if frame.Message == "" {
		conn.WriteJSON(wsError{Type: "error", Error: "message is required"})
		return
	}

	sess := s.sessions.Resolve(frame.SessionID, building)

	// The HTTP request context ends with the upgrade; turns run on their
	// own context carrying the connection's binding.
	ctx := tenant.Bind(context.Background(), building)
	result := s.runner.Run(ctx, sess, frame.Message)
	conn.WriteJSON(wsChatResponse{Type: "response", chatResponse: turnToResponse(result)})
}
