package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-engine/internal/config"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
)

const readTimeout = 5 * time.Second

func newServer(t *testing.T, bot config.Bot) string {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	manager := usecase.NewGameManager(logger, repository.NewMemoryGameRepository(), service.NewBotService(logger))

	srv := httptest.NewServer(New(logger, manager, bot).Handler())
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func connect(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func dial(t *testing.T, bot config.Bot) *websocket.Conn {
	t.Helper()

	return connect(t, newServer(t, bot))
}

// expectSilence - asserts nothing arrives within wait. The connection cannot be read afterwards.
func expectSilence(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))

	_, raw, err := conn.ReadMessage()
	require.Error(t, err, "unexpected message: %s", raw)

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func call(t *testing.T, conn *websocket.Conn, action string, payload RequestPayload) (string, ResponsePayload) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: body}))

	return read(t, conn)
}

func read(t *testing.T, conn *websocket.Conn) (string, ResponsePayload) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	var message Message
	require.NoError(t, conn.ReadJSON(&message))

	var payload ResponsePayload
	require.NoError(t, json.Unmarshal(message.Payload, &payload))

	return message.Action, payload
}

func TestServer_HumanVsHuman(t *testing.T) {
	// Given: a connected client with a human-vs-human session
	conn := dial(t, config.Bot{ReplyDelay: time.Millisecond})

	action, resp := call(t, conn, actionSessionNew, RequestPayload{Mode: string(entity.ModeHumanVsHuman)})
	require.Equal(t, actionSessionNew, action)
	require.NotNil(t, resp.Session)
	id := resp.Session.ID

	// When: X and O alternate until O completes the middle column
	moves := []entity.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 2, Col: 2}, {Row: 1, Col: 1}, {Row: 1, Col: 0}, {Row: 2, Col: 1}}
	for _, move := range moves[:5] {
		action, resp = call(t, conn, actionCellChoose, RequestPayload{SessionID: id, Cell: &move})
		require.Equal(t, actionCellChoose, action)
		require.Empty(t, resp.Error)
	}
	last := moves[5]
	_, resp = call(t, conn, actionCellChoose, RequestPayload{SessionID: id, Cell: &last})

	// Then: O has won and no AI reply is pushed
	assert.Equal(t, entity.StatusWonByO, resp.Session.Status)

	action, resp = call(t, conn, actionSessionGet, RequestPayload{SessionID: id})
	assert.Equal(t, actionSessionGet, action)
	assert.Equal(t, 6, resp.Session.MoveCount)
}

func TestServer_AutoReply(t *testing.T) {
	// Given: an AI session with a short reply delay
	conn := dial(t, config.Bot{ReplyDelay: 10 * time.Millisecond})

	_, resp := call(t, conn, actionSessionNew, RequestPayload{Mode: string(entity.ModeHumanVsAI)})
	id := resp.Session.ID

	// When: X takes the center
	center := entity.Position{Row: 1, Col: 1}
	action, resp := call(t, conn, actionCellChoose, RequestPayload{SessionID: id, Cell: &center})
	require.Equal(t, actionCellChoose, action)
	assert.Equal(t, entity.PlayerO, resp.Session.Turn)

	// Then: the server pushes the AI reply on a corner
	action, resp = read(t, conn)
	require.Equal(t, actionAIMove, action)
	require.NotNil(t, resp.Move)
	assert.Contains(t, []entity.Position{{Row: 0, Col: 0}, {Row: 0, Col: 2}, {Row: 2, Col: 0}, {Row: 2, Col: 2}}, resp.Move.Position)
	assert.Equal(t, entity.PlayerX, resp.Session.Turn)
}

func TestServer_ManualAIMove(t *testing.T) {
	// Given: auto reply is disabled
	conn := dial(t, config.Bot{DisableAutoReply: true})

	_, resp := call(t, conn, actionSessionNew, RequestPayload{Mode: string(entity.ModeHumanVsAI)})
	id := resp.Session.ID

	corner := entity.Position{Row: 0, Col: 0}
	_, _ = call(t, conn, actionCellChoose, RequestPayload{SessionID: id, Cell: &corner})

	// When: a human move is attempted while O is to move
	again := entity.Position{Row: 2, Col: 2}
	action, resp := call(t, conn, actionCellChoose, RequestPayload{SessionID: id, Cell: &again})

	// Then: it is rejected
	assert.Equal(t, actionCellChoose, action)
	assert.NotEmpty(t, resp.Error)

	// When: the client asks for the AI move
	action, resp = call(t, conn, actionAIMove, RequestPayload{SessionID: id})

	// Then: O takes the center
	require.Equal(t, actionAIMove, action)
	require.NotNil(t, resp.Move)
	assert.Equal(t, entity.Position{Row: 1, Col: 1}, resp.Move.Position)
}

func TestServer_ResetAndToggle(t *testing.T) {
	conn := dial(t, config.Bot{DisableAutoReply: true})

	_, resp := call(t, conn, actionSessionNew, RequestPayload{})
	id := resp.Session.ID

	cell := entity.Position{Row: 0, Col: 0}
	_, _ = call(t, conn, actionCellChoose, RequestPayload{SessionID: id, Cell: &cell})

	action, resp := call(t, conn, actionSessionReset, RequestPayload{SessionID: id})
	require.Equal(t, actionSessionReset, action)
	assert.Equal(t, entity.Board{}, resp.Session.Board)
	assert.Equal(t, entity.ModeHumanVsHuman, resp.Session.Mode)

	action, resp = call(t, conn, actionModeToggle, RequestPayload{SessionID: id})
	require.Equal(t, actionModeToggle, action)
	assert.Equal(t, entity.ModeHumanVsAI, resp.Session.Mode)
	assert.Equal(t, entity.ModeHumanVsAI.Label(), resp.Label)
}

func TestServer_Errors(t *testing.T) {
	conn := dial(t, config.Bot{DisableAutoReply: true})

	t.Run("Unknown action", func(t *testing.T) {
		action, resp := call(t, conn, "game:join", RequestPayload{})

		assert.Equal(t, "game:join", action)
		assert.Equal(t, "unknown action", resp.Error)
	})

	t.Run("Missing session", func(t *testing.T) {
		_, resp := call(t, conn, actionSessionGet, RequestPayload{SessionID: "missing"})

		assert.NotEmpty(t, resp.Error)
	})

	t.Run("Missing cell", func(t *testing.T) {
		_, resp := call(t, conn, actionCellChoose, RequestPayload{SessionID: "missing"})

		assert.Equal(t, "cell is required", resp.Error)
	})

	t.Run("Invalid message", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

		_, resp := read(t, conn)

		assert.Equal(t, "invalid message", resp.Error)
	})
}

func TestServer_StaleReplies(t *testing.T) {
	const delay = 100 * time.Millisecond
	center := entity.Position{Row: 1, Col: 1}

	t.Run("Reset during the delay drops the reply", func(t *testing.T) {
		// Given: an AI session waiting on a scheduled reply
		url := newServer(t, config.Bot{ReplyDelay: delay})
		conn := connect(t, url)

		_, resp := call(t, conn, actionSessionNew, RequestPayload{Mode: string(entity.ModeHumanVsAI)})
		id := resp.Session.ID
		_, _ = call(t, conn, actionCellChoose, RequestPayload{SessionID: id, Cell: &center})

		// When: the session is reset before the reply fires
		action, resp := call(t, conn, actionSessionReset, RequestPayload{SessionID: id})
		require.Equal(t, actionSessionReset, action)

		// Then: no ai:move is pushed and the board stays empty
		expectSilence(t, conn, 3*delay)

		_, resp = call(t, connect(t, url), actionSessionGet, RequestPayload{SessionID: id})
		assert.Equal(t, entity.Board{}, resp.Session.Board)
		assert.Equal(t, entity.PlayerX, resp.Session.Turn)
	})

	t.Run("Mode toggle during the delay drops the reply", func(t *testing.T) {
		// Given: an AI session waiting on a scheduled reply
		url := newServer(t, config.Bot{ReplyDelay: delay})
		conn := connect(t, url)

		_, resp := call(t, conn, actionSessionNew, RequestPayload{Mode: string(entity.ModeHumanVsAI)})
		id := resp.Session.ID
		_, _ = call(t, conn, actionCellChoose, RequestPayload{SessionID: id, Cell: &center})

		// When: the mode is switched before the reply fires
		action, _ := call(t, conn, actionModeToggle, RequestPayload{SessionID: id})
		require.Equal(t, actionModeToggle, action)

		// Then: no ai:move is pushed and the new human game is untouched
		expectSilence(t, conn, 3*delay)

		_, resp = call(t, connect(t, url), actionSessionGet, RequestPayload{SessionID: id})
		assert.Equal(t, entity.ModeHumanVsHuman, resp.Session.Mode)
		assert.Equal(t, entity.Board{}, resp.Session.Board)
	})

	t.Run("Failed reset keeps the reply of another session", func(t *testing.T) {
		// Given: an AI session waiting on a scheduled reply
		conn := dial(t, config.Bot{ReplyDelay: delay})

		_, resp := call(t, conn, actionSessionNew, RequestPayload{Mode: string(entity.ModeHumanVsAI)})
		id := resp.Session.ID
		_, _ = call(t, conn, actionCellChoose, RequestPayload{SessionID: id, Cell: &center})

		// When: a reset for an unknown session fails
		action, resp := call(t, conn, actionSessionReset, RequestPayload{SessionID: "does-not-exist"})
		require.Equal(t, actionSessionReset, action)
		require.NotEmpty(t, resp.Error)

		// Then: the AI still answers and the turn returns to X
		action, resp = read(t, conn)
		require.Equal(t, actionAIMove, action)
		require.NotNil(t, resp.Move)
		assert.Equal(t, id, resp.Session.ID)
		assert.Equal(t, entity.PlayerX, resp.Session.Turn)
	})

	t.Run("Resetting one session keeps the reply of another", func(t *testing.T) {
		// Given: two sessions on one socket, the first waiting on a reply
		conn := dial(t, config.Bot{ReplyDelay: delay})

		_, resp := call(t, conn, actionSessionNew, RequestPayload{Mode: string(entity.ModeHumanVsAI)})
		first := resp.Session.ID
		_, resp = call(t, conn, actionSessionNew, RequestPayload{Mode: string(entity.ModeHumanVsAI)})
		second := resp.Session.ID

		_, _ = call(t, conn, actionCellChoose, RequestPayload{SessionID: first, Cell: &center})

		// When: the second session is reset
		action, _ := call(t, conn, actionSessionReset, RequestPayload{SessionID: second})
		require.Equal(t, actionSessionReset, action)

		// Then: the first session still gets its AI move
		action, resp = read(t, conn)
		require.Equal(t, actionAIMove, action)
		assert.Equal(t, first, resp.Session.ID)
		assert.Equal(t, 2, resp.Session.MoveCount)
	})
}
