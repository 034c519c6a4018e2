package web

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvichess/lvichess/internal/chess"
)

type wsUpdate struct {
	GameID string          `json:"gameId"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
}

func dialGame(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/game/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUpdate returns the next update of the given type, skipping others.
func readUpdate(t *testing.T, conn *websocket.Conn, kind string) wsUpdate {
	t.Helper()

	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var update wsUpdate
		require.NoError(t, conn.ReadJSON(&update))
		if update.Type == kind {
			return update
		}
	}
}

func TestGetSummaryHandler(t *testing.T) {
	service, router := newTestService(t)

	postJSON(t, router, "/api/game/move", map[string]interface{}{"from": square(1, 4), "to": square(3, 4)})
	postJSON(t, router, "/api/game/move", map[string]interface{}{"from": square(6, 3), "to": square(4, 3)})
	postJSON(t, router, "/api/game/move", map[string]interface{}{"from": square(3, 4), "to": square(4, 3)})

	req := httptest.NewRequest("GET", "/api/game/summary", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var summary GameSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))

	assert.Equal(t, service.GameID(), summary.GameID)
	assert.Equal(t, chess.StatusActive, summary.Status)
	assert.Equal(t, chess.Black, summary.Turn)
	assert.Nil(t, summary.Winner)
	assert.Equal(t, 31, summary.PieceCount)
	assert.Equal(t, chess.MaterialCount{White: 39, Black: 38}, summary.MaterialCount)
	assert.Equal(t, 1, summary.MaterialDiff)
	assert.Equal(t, 0, summary.SpectatorCount)
}

func TestGetDiagramHandler(t *testing.T) {
	_, router := newTestService(t)

	req := httptest.NewRequest("GET", "/api/game/diagram", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.GreaterOrEqual(t, strings.Count(w.Body.String(), "\n"), chess.BoardSize)
}

func TestBoardSnapshotHandlers(t *testing.T) {
	_, router := newTestService(t)

	req := httptest.NewRequest("GET", "/api/game/board.svg", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "<svg"))

	req = httptest.NewRequest("GET", "/api/game/board.png", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 16*chess.BoardSize, img.Bounds().Dx())
}

func TestHealthHandler(t *testing.T) {
	service, router := newTestService(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, service.GameID(), body["gameId"])
	assert.Equal(t, "active", body["gameStatus"])
}

func TestWebSocketStreamsUpdates(t *testing.T) {
	service, router := newTestService(t)
	server := httptest.NewServer(router)
	defer server.Close()

	conn := dialGame(t, server, "")

	initial := readUpdate(t, conn, UpdateState)
	assert.Equal(t, service.GameID(), initial.GameID)
	var state chess.State
	require.NoError(t, json.Unmarshal(initial.Data, &state))
	assert.Len(t, state.Pieces, 32)

	assert.Equal(t, 1, service.hub.ClientCount(service.GameID()))

	postJSON(t, router, "/api/game/select", square(1, 6))
	selection := readUpdate(t, conn, UpdateSelection)
	var out chess.Outcome
	require.NoError(t, json.Unmarshal(selection.Data, &out))
	assert.Equal(t, chess.SelectionPiece, out.Selection.State)

	postJSON(t, router, "/api/game/select", square(2, 6))
	move := readUpdate(t, conn, UpdateMove)
	require.NoError(t, json.Unmarshal(move.Data, &out))
	require.True(t, out.Committed())
	assert.Equal(t, chess.NewSquare(2, 6), out.Move.To)
	assert.Equal(t, chess.Black, out.Turn)
}

func TestWebSocketAnswersPing(t *testing.T) {
	_, router := newTestService(t)
	server := httptest.NewServer(router)
	defer server.Close()

	conn := dialGame(t, server, "")
	readUpdate(t, conn, UpdateState)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	readUpdate(t, conn, "pong")
}

func TestWebSocketRejectsUnknownGame(t *testing.T) {
	_, router := newTestService(t)

	req := httptest.NewRequest("GET", "/api/game/ws?gameId=other", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestKingCaptureEndsGameAndRunsHook(t *testing.T) {
	board, err := chess.ParsePlacement("4k3/8/8/8/8/8/8/4R1K1")
	require.NoError(t, err)

	winners := make(chan chess.Color, 2)
	service, router := newTestService(t,
		WithEngine(chess.NewEngineFromBoard(board, chess.White)),
		WithGameOverHook(func(winner chess.Color) { winners <- winner }),
	)
	server := httptest.NewServer(router)
	defer server.Close()

	conn := dialGame(t, server, "?gameId="+service.GameID())
	readUpdate(t, conn, UpdateState)

	w := postJSON(t, router, "/api/game/move", map[string]interface{}{"from": square(0, 4), "to": square(7, 4)})
	out := decodeOutcome(t, w)
	require.True(t, out.Committed())
	assert.True(t, out.Move.GameOver)
	assert.Equal(t, chess.StatusWhiteWon, out.Status)

	end := readUpdate(t, conn, UpdateGameEnd)
	var payload GameEnd
	require.NoError(t, json.Unmarshal(end.Data, &payload))
	assert.Equal(t, chess.White, payload.Winner)
	assert.Equal(t, "White won! Thanks for playing!", payload.Message)

	select {
	case winner := <-winners:
		assert.Equal(t, chess.White, winner)
	case <-time.After(5 * time.Second):
		t.Fatal("game over hook was not called")
	}

	// Input after the end is ignored and does not run the hook again
	out = decodeOutcome(t, postJSON(t, router, "/api/game/select", square(7, 4)))
	assert.True(t, out.Ignored)
	assert.Len(t, winners, 0)
}

func TestGameEndWaitsForRoomInFullQueue(t *testing.T) {
	hub := NewHub()
	for i := 0; i < cap(hub.broadcast); i++ {
		hub.BroadcastGameUpdate(GameUpdate{GameID: "g", Type: UpdateState})
	}

	// Other updates are dropped while the queue is full
	hub.BroadcastGameUpdate(GameUpdate{GameID: "g", Type: UpdateSelection})
	require.Len(t, hub.broadcast, cap(hub.broadcast))

	sent := make(chan struct{})
	go func() {
		hub.BroadcastGameUpdate(GameUpdate{GameID: "g", Type: UpdateGameEnd})
		close(sent)
	}()

	select {
	case <-sent:
		t.Fatal("game end returned while the queue was full")
	case <-time.After(50 * time.Millisecond):
	}

	for i := 0; i < cap(hub.broadcast); i++ {
		update := <-hub.broadcast
		assert.Equal(t, UpdateState, update.Type)
	}
	select {
	case <-sent:
	case <-time.After(5 * time.Second):
		t.Fatal("game end was never queued")
	}
	assert.Equal(t, UpdateGameEnd, (<-hub.broadcast).Type)
}

func TestGameEndDoesNotBlockAfterHubStops(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	for i := 0; i < cap(hub.broadcast); i++ {
		hub.BroadcastGameUpdate(GameUpdate{GameID: "g", Type: UpdateState})
	}

	sent := make(chan struct{})
	go func() {
		hub.BroadcastGameUpdate(GameUpdate{GameID: "g", Type: UpdateGameEnd})
		close(sent)
	}()

	select {
	case <-sent:
	case <-time.After(5 * time.Second):
		t.Fatal("game end blocked on a stopped hub")
	}
}

func TestConcurrentMovesStreamInCommitOrder(t *testing.T) {
	_, router := newTestService(t)
	server := httptest.NewServer(router)
	defer server.Close()

	conn := dialGame(t, server, "")
	readUpdate(t, conn, UpdateState)

	// Knights hopping out and back; whichever side is not to move is rejected
	moves := []map[string]interface{}{
		{"from": square(0, 6), "to": square(2, 5)},
		{"from": square(2, 5), "to": square(0, 6)},
		{"from": square(7, 6), "to": square(5, 5)},
		{"from": square(5, 5), "to": square(7, 6)},
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		requests int
		commits  int
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				w := postJSON(t, router, "/api/game/move", moves[(g+i)%len(moves)])
				if !assert.Equal(t, http.StatusOK, w.Code) {
					return
				}
				var out chess.Outcome
				if !assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &out)) {
					return
				}

				mu.Lock()
				requests++
				if out.Committed() {
					commits++
				}
				mu.Unlock()
			}
		}(g)
	}
	wg.Wait()
	require.Positive(t, commits)

	updates := make([]wsUpdate, 0, requests+commits)
	for len(updates) < requests+commits {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var update wsUpdate
		require.NoError(t, conn.ReadJSON(&update))
		updates = append(updates, update)
	}

	for i, update := range updates {
		if update.Type != UpdateMove {
			continue
		}
		var out chess.Outcome
		require.NoError(t, json.Unmarshal(update.Data, &out))
		require.True(t, out.Committed())

		require.Less(t, i+1, len(updates), "move without a following state")
		next := updates[i+1]
		require.Equal(t, UpdateState, next.Type, "update %d after a move", i+1)

		var state chess.State
		require.NoError(t, json.Unmarshal(next.Data, &state))
		assert.Equal(t, out.Move.Piece.Color.Opposite(), state.Turn)
		assert.Contains(t, state.Pieces, out.Move.Piece)
	}
}
