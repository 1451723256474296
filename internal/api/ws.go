// Package api provides the websocket transport adapter for AgriChat.
//
// The adapter maps JSON events on a bidirectional websocket to conversation
// engine operations. Event names are the wire contract shared with the chat
// frontend: inbound user_message, reset_conversation, get_history; outbound
// ai_response and chat_history.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/cropgen/agrichat/internal/models"
	"github.com/google/uuid"
)

// Wire event names.
const (
	eventUserMessage = "user_message"
	eventReset       = "reset_conversation"
	eventGetHistory  = "get_history"
	eventAIResponse  = "ai_response"
	eventChatHistory = "chat_history"
)

// wsEvent is the JSON envelope exchanged over the websocket.
type wsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// chatHistoryPayload carries the response to a get_history request.
type chatHistoryPayload struct {
	Conversations []models.ChatMessage `json:"conversations"`
}

// websocketHandler upgrades the connection and runs its message loop. Each
// connection is handled by a single goroutine, which serializes all state
// machine access for its connection identifier.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept websocket", "error", err, "ip", r.RemoteAddr)
		return
	}

	connectionID := uuid.NewString()
	slog.Info("Websocket connection opened", "connectionID", connectionID, "ip", r.RemoteAddr)
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "connectionID", connectionID)
		}
	}()

	ctx := r.Context()

	welcome := s.engine.Connect(ctx, connectionID)
	defer s.engine.Disconnect(connectionID)

	if err := s.writeEvent(ctx, ws, eventAIResponse, welcome); err != nil {
		slog.Warn("Failed to send welcome message", "error", err, "connectionID", connectionID)
		return
	}

	s.readLoop(ctx, ws, connectionID)
	slog.Info("Websocket connection closed", "connectionID", connectionID)
}

func (s *Server) readLoop(ctx context.Context, ws *websocket.Conn, connectionID string) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("Websocket closed by client", "connectionID", connectionID)
			} else {
				slog.Warn("Websocket read error", "error", err, "connectionID", connectionID)
			}
			return
		}

		var ev wsEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Warn("Websocket received malformed event", "error", err, "connectionID", connectionID)
			continue
		}

		switch ev.Event {
		case eventUserMessage:
			var text string
			if len(ev.Payload) > 0 {
				if err := json.Unmarshal(ev.Payload, &text); err != nil {
					slog.Warn("Websocket user_message payload is not a string", "error", err, "connectionID", connectionID)
					continue
				}
			}
			for _, reply := range s.engine.HandleMessage(ctx, connectionID, text) {
				if err := s.writeEvent(ctx, ws, eventAIResponse, reply); err != nil {
					slog.Warn("Failed to send ai_response", "error", err, "connectionID", connectionID)
					return
				}
			}
		case eventReset:
			if reply := s.engine.Reset(ctx, connectionID); reply != "" {
				if err := s.writeEvent(ctx, ws, eventAIResponse, reply); err != nil {
					slog.Warn("Failed to send reset confirmation", "error", err, "connectionID", connectionID)
					return
				}
			}
		case eventGetHistory:
			history := s.engine.History(ctx, connectionID)
			if err := s.writeEvent(ctx, ws, eventChatHistory, chatHistoryPayload{Conversations: history}); err != nil {
				slog.Warn("Failed to send chat_history", "error", err, "connectionID", connectionID)
				return
			}
		default:
			slog.Debug("Websocket ignoring unknown event", "event", ev.Event, "connectionID", connectionID)
		}
	}
}

// writeEvent marshals and sends one outbound event.
func (s *Server) writeEvent(ctx context.Context, ws *websocket.Conn, event string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(wsEvent{Event: event, Payload: raw})
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
