package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1024
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RequestPayload struct {
	SessionID string           `json:"session_id,omitempty"`
	Mode      string           `json:"mode,omitempty"`
	Cell      *entity.Position `json:"cell,omitempty"`
}

type ResponsePayload struct {
	Session *entity.Session `json:"session,omitempty"`
	Move    *entity.Move    `json:"move,omitempty"`
	Label   string          `json:"label,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// connection serialises writes to one client and owns its pending AI replies.
type connection struct {
	conn *websocket.Conn

	mu      sync.Mutex
	closed  bool
	pending map[string][]*time.Timer
}

func newConnection(conn *websocket.Conn) *connection {
	conn.SetReadLimit(maxMessageSize)

	return &connection{
		conn:    conn,
		pending: make(map[string][]*time.Timer),
	}
}

func (that *connection) send(action string, payload ResponsePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return websocket.ErrCloseSent
	}

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteJSON(Message{Action: action, Payload: body}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *connection) sendError(action, errorMsg string) error {
	if err := that.send(action, ResponsePayload{Error: errorMsg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}

// schedule - runs fn after delay unless the connection is closed or the session's replies are cancelled first.
func (that *connection) schedule(sessionID string, delay time.Duration, fn func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		that.forget(sessionID, timer)
		fn()
	})

	that.pending[sessionID] = append(that.pending[sessionID], timer)
}

// cancelPending - stops the replies scheduled for one session. Other sessions on the connection keep theirs.
func (that *connection) cancelPending(sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, timer := range that.pending[sessionID] {
		timer.Stop()
	}
	delete(that.pending, sessionID)
}

func (that *connection) pendingCount(sessionID string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.pending[sessionID])
}

func (that *connection) forget(sessionID string, fired *time.Timer) {
	that.mu.Lock()
	defer that.mu.Unlock()

	timers := that.pending[sessionID]
	for i, timer := range timers {
		if timer == fired {
			timers = append(timers[:i], timers[i+1:]...)
			break
		}
	}

	if len(timers) == 0 {
		delete(that.pending, sessionID)
		return
	}
	that.pending[sessionID] = timers
}

func (that *connection) close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true
	for sessionID, timers := range that.pending {
		for _, timer := range timers {
			timer.Stop()
		}
		delete(that.pending, sessionID)
	}

	return that.conn.Close()
}
