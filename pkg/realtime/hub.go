package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/auth"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/presence"
	"github.com/pkg/errors"
)

// EventJoin is sent by a client to bind its connection to a user id
const EventJoin = "join"

const maxMessageSize = 4096

// Frame is the JSON envelope of every message on the socket
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type joinRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type incomingFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Presence is the part of the presence registry the hub writes to
type Presence interface {
	Register(userID string, conn presence.Connection)
	Unregister(conn presence.Connection)
}

// Hub upgrades requests to websockets and keeps the presence registry in sync with them
type Hub struct {
	Presence     Presence
	Logger       logger.Interface
	WriteTimeout time.Duration
	PongWait     time.Duration
	// Verifier checks the token a join may carry, RequireToken refuses joins without one
	Verifier     *auth.Verifier
	RequireToken bool

	upgrader    websocket.Upgrader
	lock        sync.Mutex
	connections map[string]*Connection
}

// NewHub creates a hub that accepts browser connections from origin, "*" or "" accept any origin
func NewHub(registry Presence, origin string, logger logger.Interface) *Hub {
	hub := &Hub{
		Presence:     registry,
		Logger:       logger,
		WriteTimeout: 10 * time.Second,
		PongWait:     60 * time.Second,
		connections:  make(map[string]*Connection),
	}

	hub.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			requestOrigin := r.Header.Get("Origin")
			if origin == "" || origin == "*" || requestOrigin == "" {
				return true
			}
			return strings.EqualFold(strings.TrimSuffix(requestOrigin, "/"), strings.TrimSuffix(origin, "/"))
		},
	}

	return hub
}

// ServeHTTP runs one socket until the client goes away
func (h *Hub) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	socket, err := h.upgrader.Upgrade(writer, request, nil)
	if err != nil {
		// the upgrader already answered the request
		h.Logger.Debug(fmt.Sprintf("Websocket upgrade failed: %v", err))
		return
	}

	conn := &Connection{id: uuid.New().String(), socket: socket, writeTimeout: h.WriteTimeout}
	h.track(conn)

	done := make(chan struct{})
	var pinger sync.WaitGroup
	pinger.Add(1)
	go func() {
		defer pinger.Done()
		h.ping(conn, done)
	}()

	defer func() {
		close(done)
		pinger.Wait()
		h.untrack(conn)
		_ = socket.Close()
		h.Presence.Unregister(conn)
	}()

	h.read(conn)
}

// Close closes every open socket, the read loops then unregister them
func (h *Hub) Close() {
	h.lock.Lock()
	defer h.lock.Unlock()

	for _, conn := range h.connections {
		_ = conn.socket.Close()
	}
}

func (h *Hub) read(conn *Connection) {
	conn.socket.SetReadLimit(maxMessageSize)
	_ = conn.socket.SetReadDeadline(time.Now().Add(h.PongWait))
	conn.socket.SetPongHandler(func(string) error {
		return conn.socket.SetReadDeadline(time.Now().Add(h.PongWait))
	})

	for {
		frame := incomingFrame{}
		err := conn.socket.ReadJSON(&frame)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Logger.Debug(fmt.Sprintf("Websocket %s closed: %v", conn.id, err))
			}
			return
		}

		_ = conn.socket.SetReadDeadline(time.Now().Add(h.PongWait))

		switch frame.Event {
		case EventJoin:
			userID, err := h.joinUser(frame.Data)
			if err != nil {
				h.Logger.Debug(fmt.Sprintf("Ignored join on websocket %s: %v", conn.id, err))
				continue
			}
			h.Presence.Register(userID, conn)
		default:
			h.Logger.Debug(fmt.Sprintf("Ignored unknown event %q on websocket %s", frame.Event, conn.id))
		}
	}
}

// joinUser reads the data of a join frame: either the bare user id or {"userId", "token"}.
// A present token must verify and belong to the user.
func (h *Hub) joinUser(data json.RawMessage) (string, error) {
	join := joinRequest{}
	err := json.Unmarshal(data, &join.UserID)
	if err != nil {
		err = json.Unmarshal(data, &join)
		if err != nil {
			return "", errors.Wrap(communication.ErrValidation, "malformed join")
		}
	}

	userID := strings.TrimSpace(join.UserID)
	if join.Token == "" {
		if h.RequireToken {
			return "", communication.ErrUnauthenticated
		}
		if userID == "" {
			return "", errors.Wrap(communication.ErrValidation, "join without user id")
		}
		return userID, nil
	}

	if h.Verifier == nil {
		return "", errors.Wrap(communication.ErrInvalidToken, "no verifier configured")
	}

	identity, err := h.Verifier.Verify(join.Token)
	if err != nil {
		return "", err
	}

	if userID != "" && userID != identity.SubjectID {
		return "", errors.Wrap(communication.ErrForbidden, "token belongs to another user")
	}

	return identity.SubjectID, nil
}

func (h *Hub) ping(conn *Connection, done <-chan struct{}) {
	ticker := time.NewTicker(h.PongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			err := conn.control(websocket.PingMessage)
			if err != nil {
				_ = conn.socket.Close()
				return
			}
		}
	}
}

func (h *Hub) track(conn *Connection) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.connections[conn.id] = conn
}

func (h *Hub) untrack(conn *Connection) {
	h.lock.Lock()
	defer h.lock.Unlock()

	delete(h.connections, conn.id)
}

// Connection is one websocket, writes are serialized
type Connection struct {
	id           string
	socket       *websocket.Conn
	writeTimeout time.Duration
	lock         sync.Mutex
}

// ID returns the unique id of the connection
func (c *Connection) ID() string {
	return c.id
}

// Send writes one frame, bounded by the write timeout and the deadline of ctx
func (c *Connection) Send(ctx context.Context, event string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	err := c.socket.SetWriteDeadline(c.deadline(ctx))
	if err != nil {
		return err
	}

	return c.socket.WriteJSON(Frame{Event: event, Data: payload})
}

func (c *Connection) control(messageType int) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.socket.WriteControl(messageType, nil, time.Now().Add(c.writeTimeout))
}

func (c *Connection) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(c.writeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}

	return deadline
}
