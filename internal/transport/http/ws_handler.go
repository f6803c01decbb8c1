package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"clafootix/internal/app"
	"github.com/google/logger"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.RoundService
	auth     *Authenticator
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.RoundService, auth *Authenticator) *WSHandler {
	return &WSHandler{
		service: service,
		auth:    auth,
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

type startPayload struct {
	QuestionID string `json:"questionId"`
}

type validatePayload struct {
	ItemID string `json:"itemId"`
}

type togglePayload struct {
	EntityID string `json:"entityId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the round use cases.
// Session state is pushed as "state" messages whenever it changes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := h.auth.UserID(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warningf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	updates, cancel := h.service.Subscribe(ctx, userID)
	defer func() {
		cancel()
		h.service.Leave(ctx, userID)
	}()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warningf("ws write error for %s: %v", userID, err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(msgType string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: msgType, Payload: payload}:
		case <-writerDone:
		}
	}
	sendErr := func(err error) {
		reply("error", errorPayload{Message: err.Error()})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					sendErr(errors.New("invalid start payload"))
					continue
				}
			}
			if _, err := h.service.Start(ctx, userID, payload.QuestionID); err != nil {
				sendErr(err)
			}
		case "toggle":
			var payload togglePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.EntityID == "" {
				sendErr(errors.New("invalid toggle payload"))
				continue
			}
			if _, err := h.service.Toggle(ctx, userID, payload.EntityID); err != nil {
				sendErr(err)
			}
		case "validate":
			var payload validatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.ItemID == "" {
				sendErr(errors.New("invalid validate payload"))
				continue
			}
			if _, err := h.service.Validate(ctx, userID, payload.ItemID); err != nil {
				sendErr(err)
			}
		case "retryReward":
			if _, err := h.service.RetryReward(ctx, userID); err != nil {
				sendErr(err)
			}
		case "abandon":
			if _, err := h.service.Abandon(ctx, userID); err != nil {
				sendErr(err)
			}
		case "rounds":
			rounds, err := h.service.ListRounds(ctx)
			if err != nil {
				sendErr(err)
				continue
			}
			reply("rounds", rounds)
		default:
			sendErr(errors.New("unsupported message type"))
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
