package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"xmr-arcade-backend/internal/models"
	"xmr-arcade-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	PlayerID string
	Conn     *websocket.Conn
}

type Message struct {
	Type     string      `json:"type"`
	PlayerID string      `json:"player_id,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

// WebSocketHub fans round and balance updates out to connected clients.
// Round updates go to everyone, balance updates only to the player they
// belong to. It satisfies services.Broadcaster.
type WebSocketHub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

func NewWebSocketHub() *WebSocketHub {
	hub := &WebSocketHub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
	}

	go hub.run()

	return hub
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client] = true

		case client := <-hub.unregister:
			delete(hub.clients, client)

		case msg := <-hub.broadcast:
			for client := range hub.clients {
				if msg.PlayerID != "" && client.PlayerID != msg.PlayerID {
					continue
				}
				if err := client.Conn.WriteJSON(msg); err != nil {
					client.Conn.Close()
					delete(hub.clients, client)
				}
			}
		}
	}
}

// BroadcastRound implements services.Broadcaster. The round secret never
// crosses the wire before the round settles.
func (hub *WebSocketHub) BroadcastRound(r *models.Round) {
	data := gin.H{
		"id":          r.ID,
		"lane":        r.Lane,
		"state":       r.State,
		"spot_count":  r.SpotCount,
		"spot_cost":   r.SpotCost,
		"prize":       r.Prize,
		"secret_hash": r.SecretHash(),
	}
	if r.State.Phase == models.PhaseSettled {
		data["secret"] = r.Secret
		data["spot_secret"] = r.SpotSecret
	}

	select {
	case hub.broadcast <- &Message{Type: "ROUND_UPDATE", Data: data}:
	default:
		log.Printf("websocket broadcast queue full, dropping round update for %s", r.ID)
	}
}

// BroadcastBalance implements services.Broadcaster.
func (hub *WebSocketHub) BroadcastBalance(playerID string, balance int64) {
	select {
	case hub.broadcast <- &Message{
		Type:     "BALANCE_UPDATE",
		PlayerID: playerID,
		Data:     gin.H{"balance": balance},
	}:
	default:
		log.Printf("websocket broadcast queue full, dropping balance update for %s", playerID)
	}
}

type WebSocketHandler struct {
	hub    *WebSocketHub
	ledger *services.Ledger
}

func NewWebSocketHandler(hub *WebSocketHub, ledger *services.Ledger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		ledger: ledger,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	playerID := c.GetString("player_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		PlayerID: playerID,
		Conn:     conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	h.sendBalance(client)

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case "PING":
		h.sendPong(client)
	case "GET_BALANCE":
		h.sendBalance(client)
	}
}

func (h *WebSocketHandler) sendBalance(client *Client) {
	balance, err := h.ledger.Balance(client.PlayerID)
	if err != nil {
		log.Printf("Failed to get balance for WS: %v", err)
		return
	}

	client.Conn.WriteJSON(&Message{
		Type: "BALANCE_UPDATE",
		Data: gin.H{"balance": balance},
	})
}

func (h *WebSocketHandler) sendPong(client *Client) {
	client.Conn.WriteJSON(&Message{
		Type: "PONG",
		Data: gin.H{"timestamp": time.Now().Unix()},
	})
}
