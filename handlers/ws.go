package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/taskflowapp/taskflow/services"
)

// WSHandler upgrades authenticated connections onto the change-feed hub.
type WSHandler struct {
	hub *services.Hub
}

func NewWSHandler(hub *services.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user not found")
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins in development
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	// A user may hold several connections at once (tabs, devices); each gets
	// its own hub registration.
	client := &services.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: userID,
	}

	h.hub.Register(client)
	log.Printf("WebSocket client registered: %s", userID)

	go client.WritePump()
	go client.ReadPump()
}
