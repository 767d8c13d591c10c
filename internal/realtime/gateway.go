package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/journeyos/backend/pkg/auth"
	"github.com/journeyos/backend/pkg/config"
	"github.com/journeyos/backend/pkg/db/models"
	"github.com/journeyos/backend/pkg/logger"
	"github.com/journeyos/backend/pkg/metrics"
)

// Inbound frame events clients may send.
const eventNotificationRead = "notification:read"

// ReadMarker is the slice of the notification service inbound read frames need.
type ReadMarker interface {
	MarkRead(ctx context.Context, notificationID, requestingUserID uuid.UUID) (*models.Notification, error)
}

// Frame is the envelope exchanged over the websocket in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type readFrameData struct {
	ID uuid.UUID `json:"id"`
}

type wsClaimsContextKey struct{}

// connection is one websocket subscriber on a user channel. Outbound frames
// go through a buffered channel drained by a single writer goroutine, which
// keeps per-connection ordering without blocking emitters.
type connection struct {
	userID uuid.UUID
	send   chan outboundFrame
	once   sync.Once
}

func (c *connection) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Gateway authenticates websocket clients, joins them to their per-user
// channel, tracks presence, and pushes notification frames.
type Gateway struct {
	verifier auth.TokenVerifier
	presence *PresenceRegistry
	marker   ReadMarker
	cfg      config.RealtimeConfig
	logg     *logger.Logger
	rtm      *metrics.RealtimeMetrics

	mu          sync.Mutex
	subscribers map[uuid.UUID]map[*connection]struct{}
	connCount   int
}

// NewGateway wires the realtime gateway. Metrics may be nil.
func NewGateway(verifier auth.TokenVerifier, presence *PresenceRegistry, marker ReadMarker, cfg config.RealtimeConfig, logg *logger.Logger, rtm *metrics.RealtimeMetrics) (*Gateway, error) {
	if verifier == nil {
		return nil, errors.New("token verifier required")
	}
	if presence == nil {
		return nil, errors.New("presence registry required")
	}
	if marker == nil {
		return nil, errors.New("read marker required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 16
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Gateway{
		verifier:    verifier,
		presence:    presence,
		marker:      marker,
		cfg:         cfg,
		logg:        logg,
		rtm:         rtm,
		subscribers: make(map[uuid.UUID]map[*connection]struct{}),
	}, nil
}

// Handler authenticates the HTTP request before upgrading. A connection that
// fails auth is rejected outright with no channel join or presence change.
func (g *Gateway) Handler() http.Handler {
	wsHandler := websocket.Handler(g.serveConn)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := accessTokenFromRequest(r)
		if token == "" {
			http.Error(w, "missing auth token", http.StatusUnauthorized)
			return
		}

		claims, err := g.verifier.Verify(r.Context(), token)
		if err != nil || claims == nil || claims.UserID == uuid.Nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), wsClaimsContextKey{}, claims)
		wsHandler.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessTokenFromRequest reads the token from the Authorization header or the
// token query param, stripping an optional Bearer prefix.
func accessTokenFromRequest(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		raw = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if after, ok := strings.CutPrefix(raw, "Bearer "); ok {
		raw = strings.TrimSpace(after)
	}
	return raw
}

func (g *Gateway) serveConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	request := conn.Request()
	if request == nil {
		return
	}
	claims, ok := request.Context().Value(wsClaimsContextKey{}).(*auth.AccessTokenClaims)
	if !ok || claims == nil {
		return
	}
	userID := claims.UserID

	client := &connection{
		userID: userID,
		send:   make(chan outboundFrame, g.cfg.SendBuffer),
	}
	g.register(client)
	defer g.unregister(client)

	ctx := g.logg.WithUserID(request.Context(), userID.String())
	g.logg.Debug(ctx, "websocket client joined")

	go g.writeLoop(conn, client)
	g.readLoop(ctx, conn, userID)
}

func (g *Gateway) register(client *connection) {
	g.mu.Lock()
	conns, ok := g.subscribers[client.userID]
	if !ok {
		conns = make(map[*connection]struct{})
		g.subscribers[client.userID] = conns
	}
	conns[client] = struct{}{}
	g.connCount++
	g.mu.Unlock()

	g.presence.Increment(client.userID)
	g.observeGauges()
}

func (g *Gateway) unregister(client *connection) {
	g.mu.Lock()
	if conns, ok := g.subscribers[client.userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(g.subscribers, client.userID)
		}
		g.connCount--
	}
	// Closed under the lock so concurrent emits never hit a closed channel.
	client.close()
	g.mu.Unlock()
	g.presence.Decrement(client.userID)
	g.observeGauges()
}

func (g *Gateway) observeGauges() {
	if g.rtm == nil {
		return
	}
	g.mu.Lock()
	conns := g.connCount
	g.mu.Unlock()
	g.rtm.SetConnections(conns)
	g.rtm.SetOnlineUsers(g.presence.OnlineCount())
}

// writeLoop is the single writer for one connection, preserving frame order.
func (g *Gateway) writeLoop(conn *websocket.Conn, client *connection) {
	for frame := range client.send {
		_ = conn.SetWriteDeadline(time.Now().Add(g.cfg.WriteTimeout))
		if err := websocket.JSON.Send(conn, frame); err != nil {
			_ = conn.Close()
			return
		}
	}
	_ = conn.Close()
}

func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, userID uuid.UUID) {
	for {
		var frame Frame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			if !errors.Is(err, io.EOF) {
				g.logg.Debug(ctx, "websocket read ended")
			}
			return
		}

		switch frame.Event {
		case eventNotificationRead:
			g.handleReadFrame(ctx, frame, userID)
		default:
			g.logg.Debug(ctx, "ignoring unknown websocket event")
		}
	}
}

// handleReadFrame marks a notification read on behalf of the connected user.
// Failures are logged and the connection stays open.
func (g *Gateway) handleReadFrame(ctx context.Context, frame Frame, userID uuid.UUID) {
	var data readFrameData
	if err := json.Unmarshal(frame.Data, &data); err != nil || data.ID == uuid.Nil {
		g.logg.Warn(ctx, "malformed notification:read frame")
		return
	}
	if _, err := g.marker.MarkRead(ctx, data.ID, userID); err != nil {
		g.logg.Warn(g.logg.WithField(ctx, "notification_id", data.ID.String()), "mark read over websocket failed")
	}
}

// IsOnline reports whether the user currently has an open connection.
func (g *Gateway) IsOnline(userID uuid.UUID) bool {
	return g.presence.IsOnline(userID)
}

// EmitToUser fans a frame out to every open connection of the user. No
// subscribers is a silent no-op. Slow connections drop the frame rather than
// block the caller.
func (g *Gateway) EmitToUser(userID uuid.UUID, event string, payload any) error {
	g.mu.Lock()
	conns := g.subscribers[userID]
	if len(conns) == 0 {
		g.mu.Unlock()
		return nil
	}

	frame := outboundFrame{Event: event, Data: payload}
	dropped := 0
	for client := range conns {
		select {
		case client.send <- frame:
		default:
			dropped++
		}
	}
	g.mu.Unlock()
	if dropped > 0 {
		if g.rtm != nil {
			g.rtm.IncDropped(event)
		}
		return errors.New("send buffer full for one or more connections")
	}
	if g.rtm != nil {
		g.rtm.IncPushed(event)
	}
	return nil
}
