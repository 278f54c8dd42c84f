package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lumina-dashboard/internal/logging"
	"github.com/lumina-dashboard/internal/metrics"
	"github.com/lumina-dashboard/internal/models"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamBuffer     = 16
)

// StreamHub pushes market ticks to websocket clients. Each client first
// receives the current snapshot, then every tick after it.
type StreamHub struct {
	upgrader websocket.Upgrader
	metrics  *metrics.Registry
	logger   *logging.Logger

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	lastSeq uint64
	closed  bool
}

type streamClient struct {
	conn *websocket.Conn
	send chan models.MarketTick
	once sync.Once
	done chan struct{}
}

func (c *streamClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// NewStreamHub creates an empty hub
func NewStreamHub(reg *metrics.Registry, logger *logging.Logger) *StreamHub {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &StreamHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		metrics: reg,
		logger:  logger.WithField("component", "stream"),
		clients: make(map[*streamClient]struct{}),
	}
}

// OnTick queues the tick for every client. A client whose buffer is full is
// disconnected rather than allowed to stall the simulator.
func (h *StreamHub) OnTick(_ context.Context, tick models.MarketTick) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastSeq = tick.Sequence
	for c := range h.clients {
		select {
		case c.send <- tick:
		default:
			h.logger.WithField("sequence", tick.Sequence).Warn("stream client too slow, disconnecting")
			h.removeLocked(c)
			c.close()
		}
	}
}

// Len returns the number of connected clients
func (h *StreamHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client. Later upgrades are refused.
func (h *StreamHub) Close() {
	h.mu.Lock()
	clients := make([]*streamClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		h.removeLocked(c)
	}
	h.closed = true
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// Serve upgrades the request and streams until the client goes away.
// snapshot supplies the assets and gas price sent as the first message.
func (h *StreamHub) Serve(w http.ResponseWriter, r *http.Request, snapshot func() ([]models.Asset, int)) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written an HTTP error
		h.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}

	c := &streamClient{
		conn: conn,
		send: make(chan models.MarketTick, streamBuffer),
		done: make(chan struct{}),
	}

	if !h.register(c, snapshot) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(streamWriteWait))
		conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)

	h.unregister(c)
	c.close()
}

// register queues the snapshot and adds the client under one lock so no
// tick can overtake the snapshot.
func (h *StreamHub) register(c *streamClient, snapshot func() ([]models.Asset, int)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	assets, gas := snapshot()
	c.send <- models.MarketTick{
		Sequence: h.lastSeq,
		At:       time.Now(),
		Assets:   assets,
		GasPrice: gas,
	}
	h.clients[c] = struct{}{}
	if h.metrics != nil {
		h.metrics.StreamClients.Set(float64(len(h.clients)))
	}
	return true
}

func (h *StreamHub) unregister(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *StreamHub) removeLocked(c *streamClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if h.metrics != nil {
		h.metrics.StreamClients.Set(float64(len(h.clients)))
	}
}

// readPump drains client frames so control messages are processed. It
// returns when the connection fails or closes.
func (h *StreamHub) readPump(c *streamClient) {
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).Debug("stream client read failed")
			}
			return
		}
	}
}

func (h *StreamHub) writePump(c *streamClient) {
	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case tick := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := c.conn.WriteJSON(tick); err != nil {
				h.logger.WithError(err).Debug("stream client write failed")
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
