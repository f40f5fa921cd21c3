package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

type Client struct {
	ID   uuid.UUID
	Conn *websocket.Conn
}

// PaymentEventMessage is pushed to every connected admin dashboard when a
// payment changes state.
type PaymentEventMessage struct {
	PaymentID uuid.UUID `json:"payment_id"`
	OrderID   uuid.UUID `json:"order_id"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

// Hub fans payment lifecycle events out to connected admin clients. It
// implements services.EventSink.
type Hub struct {
	clients    map[uuid.UUID]*websocket.Conn
	clientsMu  sync.RWMutex
	register   chan *Client
	unregister chan *Client
	broadcast  chan PaymentEventMessage
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan PaymentEventMessage, 64),
	}
}

func (h *Hub) Register(client *Client)   { h.register <- client }
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

// PaymentEvent queues an event for broadcast. It never blocks the payment
// flow: if the queue is full the event is dropped.
func (h *Hub) PaymentEvent(paymentID uuid.UUID, orderID uuid.UUID, status string) {
	msg := PaymentEventMessage{PaymentID: paymentID, OrderID: orderID, Status: status, At: time.Now()}
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("Payment event queue full, dropping event for payment %s", paymentID)
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			log.Printf("Admin feed client registered: %s", client.ID)
			h.clientsMu.Lock()
			h.clients[client.ID] = client.Conn
			h.clientsMu.Unlock()
		case client := <-h.unregister:
			log.Printf("Admin feed client unregistered: %s", client.ID)
			h.clientsMu.Lock()
			if conn, ok := h.clients[client.ID]; ok && conn == client.Conn {
				delete(h.clients, client.ID)
			}
			h.clientsMu.Unlock()
		case msg := <-h.broadcast:
			h.clientsMu.Lock()
			for id, conn := range h.clients {
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("Error pushing payment event to client %s: %v", id, err)
					conn.Close()
					delete(h.clients, id)
				}
			}
			h.clientsMu.Unlock()
		}
	}
}
