package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"psykos/internal/game"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = time.Minute
	pingPeriod      = pongWait * 9 / 10
	maxMessageBytes = 64 * 1024
	sendBuffer      = 256
	actionTimeout   = 2 * time.Minute
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter
	once    sync.Once

	mu       sync.Mutex
	code     string
	playerID string
}

func (c *client) binding() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code, c.playerID
}

// close stops writePump. send itself is never closed, so late frames are
// simply dropped.
func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// wsHub groups connections by room and remembers which connection is
// current for each player.
type wsHub struct {
	mu      sync.Mutex
	rooms   map[string]map[*client]struct{}
	players map[string]*client
	log     zerolog.Logger
}

func newWSHub(logger zerolog.Logger) *wsHub {
	return &wsHub{
		rooms:   make(map[string]map[*client]struct{}),
		players: make(map[string]*client),
		log:     logger,
	}
}

func playerKey(code, playerID string) string {
	return code + "/" + playerID
}

// Bind moves c into code's room as playerID's current connection.
func (h *wsHub) Bind(c *client, code, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.mu.Lock()
	oldCode, oldPlayer := c.code, c.playerID
	c.code, c.playerID = code, playerID
	c.mu.Unlock()

	if oldCode != "" {
		h.leaveLocked(c, oldCode, oldPlayer)
	}
	group := h.rooms[code]
	if group == nil {
		group = make(map[*client]struct{})
		h.rooms[code] = group
	}
	group[c] = struct{}{}
	h.players[playerKey(code, playerID)] = c
}

// UnbindPlayer detaches playerID's current connection in code, if any.
func (h *wsHub) UnbindPlayer(code, playerID string) {
	h.mu.Lock()
	c := h.players[playerKey(code, playerID)]
	h.mu.Unlock()
	if c != nil {
		h.Unbind(c)
	}
}

// Unbind detaches c and reports whether it was its player's current
// connection.
func (h *wsHub) Unbind(c *client) (code, playerID string, current bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.mu.Lock()
	code, playerID = c.code, c.playerID
	c.code, c.playerID = "", ""
	c.mu.Unlock()

	if code == "" {
		return "", "", false
	}
	current = h.leaveLocked(c, code, playerID)
	return code, playerID, current
}

func (h *wsHub) leaveLocked(c *client, code, playerID string) bool {
	if group := h.rooms[code]; group != nil {
		delete(group, c)
		if len(group) == 0 {
			delete(h.rooms, code)
		}
	}
	key := playerKey(code, playerID)
	if h.players[key] == c {
		delete(h.players, key)
		return true
	}
	return false
}

func (h *wsHub) Publish(code, event string, payload any) {
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.Lock()
	targets := make([]*client, 0, len(h.rooms[code]))
	for c := range h.rooms[code] {
		targets = append(targets, c)
	}
	h.mu.Unlock()
	for _, c := range targets {
		h.enqueue(c, data)
	}
}

func (h *wsHub) SendTo(code, playerID, event string, payload any) {
	h.mu.Lock()
	c := h.players[playerKey(code, playerID)]
	h.mu.Unlock()
	if c == nil {
		return
	}
	h.Send(c, event, payload)
}

func (h *wsHub) Send(c *client, event string, payload any) {
	if data, ok := h.encode(event, payload); ok {
		h.enqueue(c, data)
	}
}

// Relay forwards a frame to everyone else in the sender's room.
func (h *wsHub) Relay(from *client, event string, payload any) {
	code, _ := from.binding()
	if code == "" {
		return
	}
	data, ok := h.encode(event, payload)
	if !ok {
		return
	}
	h.mu.Lock()
	targets := make([]*client, 0, len(h.rooms[code]))
	for c := range h.rooms[code] {
		if c != from {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()
	for _, c := range targets {
		h.enqueue(c, data)
	}
}

func (h *wsHub) encode(event string, payload any) ([]byte, bool) {
	data, err := json.Marshal(outbound{Event: event, Data: payload})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("encode ws event")
		return nil, false
	}
	return data, true
}

// enqueue drops the frame when the client is closed or its buffer is full.
func (h *wsHub) enqueue(c *client, data []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		h.log.Warn().Str("conn", c.id).Msg("ws send buffer full, dropping frame")
	}
}

func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("ws upgrade")
		return
	}
	cl := &client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(s.cfg.WSMessagesPerSecond), s.cfg.WSMessageBurst),
	}
	s.log.Info().Str("conn", cl.id).Str("remote", c.ClientIP()).Msg("ws connected")
	go s.writePump(cl)
	go s.readPump(cl)
}

func (s *Server) readPump(c *client) {
	defer s.disconnect(c)

	c.conn.SetReadLimit(maxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Str("conn", c.id).Msg("ws read")
			}
			return
		}
		if !c.limiter.Allow() {
			s.log.Debug().Str("conn", c.id).Msg("ws rate limited")
			continue
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		err = s.dispatch(ctx, c, env)
		cancel()
		s.report(c, env.Event, err)
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// disconnect removes the player only if this was their current connection.
func (s *Server) disconnect(c *client) {
	code, playerID, current := s.ws.Unbind(c)
	c.close()
	s.log.Info().Str("conn", c.id).Str("code", code).Str("player", playerID).Msg("ws disconnected")
	if !current || playerID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	session, err := s.registry.Lookup(ctx, code)
	if err == nil {
		err = session.Disconnect(ctx, playerID)
	}
	if err != nil && !game.IsSilent(err) {
		s.log.Error().Err(err).Str("code", code).Str("player", playerID).Msg("disconnect cleanup")
	}
}
