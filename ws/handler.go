package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/akinalp/blogme/models"
)

// TokenValidator is the slice of the auth service the handshake needs.
// Declared here so ws does not import services.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The host listens on loopback by default; pages come from it.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades page connections.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
}

// NewHandler creates the websocket handler.
func NewHandler(hub *Hub, tokenValidator TokenValidator) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
	}
}

// HandleConnection serves GET /ws?page=PAGE_ID[&token=JWT].
//
// Browsers cannot set headers on a websocket handshake, so the token comes
// in the query. Guests connect without one and are tracked as "anon".
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	pageID := r.URL.Query().Get("page")
	if pageID == "" {
		http.Error(w, "missing page", http.StatusBadRequest)
		return
	}

	viewerID := models.AnonViewerID
	if token := r.URL.Query().Get("token"); token != "" {
		claims, err := h.tokenValidator.ValidateAccessToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		viewerID = claims.Username
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for page %s: %v", pageID, err)
		return
	}

	client := &Client{
		hub:      h.hub,
		conn:     conn,
		pageID:   pageID,
		viewerID: viewerID,
		send:     make(chan []byte, sendBufferSize),
	}

	h.hub.register <- client

	go client.WritePump()
	client.ReadPump()
}
