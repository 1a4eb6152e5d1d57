package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"boothpos/internal/event"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// ブース×画面 の購読グループ
type room struct {
	boothID int64
	screen  event.Screen
}

type client struct {
	conn *websocket.Conn
	room room
	send chan []byte
}

type broadcastMessage struct {
	room room
	data []byte
}

// 画面ごとの購読者へイベントを流す。event.Sink を満たす。
type Hub struct {
	clients    map[room]map[*client]struct{}
	broadcast  chan broadcastMessage
	register   chan *client
	unregister chan *client
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// allowedOrigins が空なら Origin を問わない
func NewHub(logger *zap.Logger, allowedOrigins []string) *Hub {
	allowed := map[string]struct{}{}
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &Hub{
		clients:    make(map[room]map[*client]struct{}),
		broadcast:  make(chan broadcastMessage, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
		logger: logger,
	}
}

// register/unregister/broadcast を1本で捌く
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.room] == nil {
				h.clients[c.room] = make(map[*client]struct{})
			}
			h.clients[c.room][c] = struct{}{}
			h.mu.Unlock()

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*client
			for c := range h.clients[msg.room] {
				select {
				case c.send <- msg.data:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			//詰まっている端末は切る。再接続時にスナップショットを取り直す
			for _, c := range slow {
				h.logger.Warn("ws client too slow, disconnecting",
					zap.Int64("booth_id", c.room.boothID),
					zap.String("screen", string(c.room.screen)),
				)
				h.remove(c)
			}

		case <-ctx.Done():
			h.mu.Lock()
			for r, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, r)
			}
			h.mu.Unlock()
			return nil
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[c.room]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
			if len(set) == 0 {
				delete(h.clients, c.room)
			}
		}
	}
}

func (h *Hub) Name() string { return "websocket" }

// event.Sink
func (h *Hub) Send(ctx context.Context, evt event.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	for _, s := range evt.Screens() {
		msg := broadcastMessage{room: room{boothID: evt.BoothID, screen: s}, data: data}
		select {
		case h.broadcast <- msg:
		case <-ctx.Done():
			return ctx.Err()
		case <-h.done:
			return nil
		}
	}
	return nil
}

// 購読者数
func (h *Hub) Subscribers(boothID int64, screen event.Screen) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[room{boothID: boothID, screen: screen}])
}

// HTTP → WebSocket に切り替えて購読を始める
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, boothID int64, screen event.Screen) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		conn: conn,
		room: room{boothID: boothID, screen: screen},
		send: make(chan []byte, sendBuffer),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return nil
	}

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// 受信は ping/pong と切断検知だけ
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("ws read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
