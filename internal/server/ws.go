package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/anhp95/lang/internal/orchestrator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEvent is the outgoing websocket message format. Type is one of
// stage, reply or error.
type wsEvent struct {
	Type           string             `json:"type"`
	ConversationID string             `json:"conversation_id"`
	Stage          orchestrator.Stage `json:"stage,omitempty"`
	Turn           *orchestrator.Turn `json:"turn,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// handleChatWS runs chat turns over a websocket, emitting a stage event
// per state transition before the final reply.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWS(conn, wsEvent{Type: "error", Error: "invalid message format"})
			continue
		}
		if req.Message == "" && req.UploadedCSV == "" {
			s.sendWS(conn, wsEvent{Type: "error", ConversationID: req.ConversationID, Error: "message is required"})
			continue
		}
		if req.ConversationID == "" {
			req.ConversationID = uuid.New().String()
		}

		// Stage events and the final reply share this goroutine, so the
		// writes never interleave.
		turn, err := s.orch.HandleTurnStream(r.Context(), req.ConversationID, req.Message, req.UploadedCSV,
			func(stage orchestrator.Stage) {
				s.sendWS(conn, wsEvent{Type: "stage", ConversationID: req.ConversationID, Stage: stage})
			})
		if err != nil {
			s.sendWS(conn, wsEvent{Type: "error", ConversationID: req.ConversationID, Error: err.Error()})
			continue
		}
		s.sendWS(conn, wsEvent{Type: "reply", ConversationID: req.ConversationID, Turn: turn})
	}
}

func (s *Server) sendWS(conn *websocket.Conn, ev wsEvent) {
	if err := conn.WriteJSON(ev); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}
