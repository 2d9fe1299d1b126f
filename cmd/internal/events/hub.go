package events

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"estatehub/cmd/internal/utils/apierror"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// ErrHubClosed is returned by Publish once Run has returned.
var ErrHubClosed = errors.New("events: hub closed")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type client struct {
	id        string
	auctionID int
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
}

// Hub fans events out to the websocket clients watching each auction.
type Hub struct {
	auctions   map[int]map[*client]struct{}
	broadcast  chan Event
	register   chan *client
	unregister chan *client
	done       chan struct{}
	mu         sync.RWMutex
	onCount    func(delta int)
}

func NewHub() *Hub {
	return &Hub{
		auctions:   make(map[int]map[*client]struct{}),
		broadcast:  make(chan Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		onCount:    func(int) {},
	}
}

// OnClientCount registers a callback receiving +1/-1 as clients come and go.
func (h *Hub) OnClientCount(fn func(delta int)) {
	h.onCount = fn
}

// Publish queues ev for local delivery. It never blocks on slow clients.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}

	select {
	case h.broadcast <- ev:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run serves registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, clients := range h.auctions {
				for c := range clients {
					close(c.send)
				}
				delete(h.auctions, id)
			}
			h.mu.Unlock()
			return nil

		case c := <-h.register:
			h.mu.Lock()
			if h.auctions[c.auctionID] == nil {
				h.auctions[c.auctionID] = make(map[*client]struct{})
			}
			h.auctions[c.auctionID][c] = struct{}{}
			h.mu.Unlock()
			h.onCount(1)

		case c := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.auctions[c.auctionID]; ok {
				if _, ok := clients[c]; ok {
					delete(clients, c)
					close(c.send)
					h.onCount(-1)
				}
				if len(clients) == 0 {
					delete(h.auctions, c.auctionID)
				}
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			data, err := Encode(ev)
			if err != nil {
				log.Errorf("failed to encode %s event: %v", ev.Type, err)
				continue
			}
			h.mu.RLock()
			for c := range h.auctions[ev.AuctionID] {
				select {
				case c.send <- data:
				default:
					log.Warnf("dropping %s event for slow client %s", ev.Type, c.id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) ClientCount(auctionID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.auctions[auctionID])
}

// HandleWS upgrades GET /ws/auctions/:id and streams that auction's events.
func (h *Hub) HandleWS(c echo.Context) error {
	auctionID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apierr := apierror.NewInvalidParamTypeError("id", "int")
		return c.JSON(apierr.Code(), apierr)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return nil
	}

	cl := &client{
		id:        uuid.NewString(),
		auctionID: auctionID,
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
	}
	select {
	case h.register <- cl:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	go cl.writePump()
	go cl.readPump()
	return nil
}

// readPump only drains control frames; the feed is one-way.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("websocket client %s closed unexpectedly: %v", c.id, err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
