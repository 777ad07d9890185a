package handlers

import (
	"net/http"

	"github.com/dom/account-market/internal/api/middleware"
	"github.com/dom/account-market/internal/websocket"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type FeedHandler struct {
	hub *websocket.Hub
	log *zap.Logger
}

func NewFeedHandler(hub *websocket.Hub, log *zap.Logger) *FeedHandler {
	return &FeedHandler{hub: hub, log: log}
}

// Handle upgrades the request and subscribes it to listing events. Access
// control happens in the guard ahead of this handler.
func (h *FeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID := "anonymous"
	if session, ok := middleware.GetSession(r.Context()); ok {
		userID = session.UserID.String()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := websocket.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
