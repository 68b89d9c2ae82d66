package http

import (
	"encoding/json"
	"log"
	"net/http"

	"promptquiz-service/internal/app"
	"promptquiz-service/internal/domain"
	"promptquiz-service/internal/engine"
	"github.com/gorilla/websocket"
)

// WSHandler exposes the quiz session over a websocket: the client opens
// /ws?prompt=..., receives state snapshots after every transition, and
// sends select/restart intents. It holds no quiz state of its own.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one quiz session for the
// connection's lifetime.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("prompt")
	if prompt == "" {
		http.Error(w, "missing prompt", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// The provider call is the only async boundary: the client sits in
	// the loading phase until it resolves or fails.
	_ = conn.WriteJSON(outboundMessage[any]{Type: "loading"})

	session, err := h.service.StartSession(r.Context(), prompt)
	if err != nil {
		log.Printf("start session failed: %v", err)
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer session.Close()

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				if !forwardSnapshot(send, closeSignals, snap) {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid select payload"}}
				continue
			}
			session.SelectOption(payload.Option)
		case "restart":
			session.Restart()
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// forwardSnapshot ships a state message, plus the completed report as its
// own message when the session just finished. Returns false if the
// connection is shutting down.
func forwardSnapshot(send chan<- outboundMessage[any], closeSignals <-chan struct{}, snap engine.Snapshot) bool {
	messages := []outboundMessage[any]{{Type: "state", Payload: snap}}
	if snap.Phase == domain.PhaseFinished && snap.Report != nil {
		messages = append(messages, outboundMessage[any]{Type: "report", Payload: *snap.Report})
	}
	for _, msg := range messages {
		select {
		case send <- msg:
		case <-closeSignals:
			return false
		}
	}
	return true
}
