package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/responsible-gambling/pkg/contracts/events"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 32 // mensagens pendentes por cliente antes de desconectar
)

// client tem uma fila própria; só writePump escreve na conexão
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// writePump drena a fila até ela ser fechada pelo hub
func (c *client) writePump() {
	for b := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}

// Hub gerencia conexões WebSocket e assinaturas por usuário.
// Broadcast nunca faz I/O: enfileira e segue; cliente com fila cheia é desconectado.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger
	mu       sync.RWMutex
	// userID -> set of clients
	subs map[string]map[*client]struct{}
}

// NewHub cria o hub com a política de origem informada
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		subs:     make(map[string]map[*client]struct{}),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão.
// Um cliente pode assinar vários usuários.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	go c.writePump()
	defer h.remove(c)

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.UserID == "" {
				h.reply(c, map[string]string{"type": "error", "error": "userId required"})
				continue
			}
			h.subscribe(msg.UserID, c)
			h.reply(c, map[string]string{"type": "subscribed", "userId": msg.UserID})
		case "unsubscribe":
			h.unsubscribe(msg.UserID, c)
		case "ping":
			h.reply(c, map[string]string{"type": "pong"})
		}
	}
}

// remove tira o cliente de todas as assinaturas e fecha a fila.
// Com o lock exclusivo nenhum Broadcast está enviando para c.send.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	for id, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, id)
		}
	}
	close(c.send)
	h.mu.Unlock()
	_ = c.conn.Close()
}

func (h *Hub) reply(c *client, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.enqueue(c, b)
}

// enqueue exige h.mu travado (leitura basta)
func (h *Hub) enqueue(c *client, b []byte) {
	select {
	case c.send <- b:
	default:
		h.log.Warn("ws client too slow, disconnecting")
		_ = c.conn.Close()
	}
}

func (h *Hub) subscribe(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[userID]; !ok {
		h.subs[userID] = make(map[*client]struct{})
	}
	h.subs[userID][c] = struct{}{}
}

func (h *Hub) unsubscribe(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, userID)
		}
	}
}

// Subscribers retorna quantas conexões assinam o usuário
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Broadcast enfileira a atualização para os clientes inscritos no usuário
func (h *Hub) Broadcast(update events.SessionUpdate) {
	b, err := json.Marshal(update)
	if err != nil {
		h.log.Warn("ws marshal failed", zap.String("userId", update.UserID), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[update.UserID] {
		h.enqueue(c, b)
	}
}
