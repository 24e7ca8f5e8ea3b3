package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/handlers"
	"github.com/vancomm/minesweeper-engine/internal/highscore"
	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/repository"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type memScores struct {
	mu     sync.Mutex
	scores map[string]int
}

func (m *memScores) Get(ctx context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seconds, ok := m.scores[key]
	if !ok {
		return highscore.NoScore, highscore.ErrNotFound
	}
	return seconds, nil
}

func (m *memScores) Set(ctx context.Context, key string, seconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[key] = seconds
	return nil
}

type memPlayers struct {
	mu      sync.Mutex
	players map[string]*repository.Player
}

func (m *memPlayers) CreatePlayer(ctx context.Context, params repository.CreatePlayerParams) (*repository.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[params.Username]; ok {
		return nil, repository.ErrUsernameTaken
	}
	player := &repository.Player{
		PlayerId:     int64(len(m.players) + 1),
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
	}
	m.players[params.Username] = player
	return player, nil
}

func (m *memPlayers) FetchPlayer(ctx context.Context, username string) (*repository.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.players[username]
	if !ok {
		return nil, repository.ErrPlayerNotFound
	}
	return player, nil
}

// The test board is 3x3 with mines in two corners:
//
//	* . .
//	. . .
//	. . *
const testLayout = "*../.../..*"

type testServer struct {
	*httptest.Server
	client *http.Client
	scores *memScores
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("COOKIES_SECURE", "0")

	_, layout, err := mines.ParseLayout(testLayout)
	require.NoError(t, err)

	cookies, err := config.NewCookies(config.NewHMACJWT([]byte("secret"), time.Hour))
	require.NoError(t, err)
	ws, err := config.NewWebSocket()
	require.NoError(t, err)

	scores := &memScores{scores: make(map[string]int)}
	app := &App{logger: discard}
	srv := httptest.NewServer(app.Handler(Deps{
		Sessions: session.NewRegistry(discard, session.WithGameOptions(mines.WithGenerator(layout))),
		Scores:   scores,
		Players:  &memPlayers{players: make(map[string]*repository.Player)},
		Cookies:  cookies,
		WS:       ws,
	}))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testServer{
		Server: srv,
		client: &http.Client{Jar: jar},
		scores: scores,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body url.Values) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(body.Encode())
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func (s *testServer) newGame(t *testing.T) handlers.GameDTO {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/game?height=3&width=3&mine_count=2", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var game handlers.GameDTO
	require.NoError(t, json.Unmarshal(body, &game))
	return game
}

func (s *testServer) move(t *testing.T, id, action string, row, col int) handlers.GameDTO {
	t.Helper()
	path := "/game/" + id + "/" + action + "?row=" + strconv.Itoa(row) + "&col=" + strconv.Itoa(col)
	resp, body := s.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var game handlers.GameDTO
	require.NoError(t, json.Unmarshal(body, &game))
	return game
}

// safeCells ends with the two empty cells so that only the last reveal wins.
var safeCells = []mines.Point{{0, 1}, {1, 0}, {1, 1}, {1, 2}, {2, 1}, {0, 2}, {2, 0}}

func TestPlayToWin(t *testing.T) {
	s := newTestServer(t)

	game := s.newGame(t)
	assert.Equal(t, mines.NotStarted, game.Snapshot.Status)
	assert.Equal(t, 2, game.Snapshot.MinesRemaining)
	assert.Nil(t, game.StartedAt)
	id := game.ID.String()

	game = s.move(t, id, "reveal", 0, 1)
	assert.Equal(t, mines.InProgress, game.Snapshot.Status)
	assert.Equal(t, 1, game.Snapshot.At(0, 1).NeighborMineCount)
	assert.NotNil(t, game.StartedAt)

	game = s.move(t, id, "flag", 0, 0)
	assert.True(t, game.Snapshot.At(0, 0).Flagged)
	assert.Equal(t, 1, game.Snapshot.MinesRemaining)

	resp, body := s.do(t, http.MethodGet, "/game/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var fetched handlers.GameDTO
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, game.Snapshot, fetched.Snapshot)

	for _, p := range safeCells {
		game = s.move(t, id, "reveal", p.Row, p.Col)
	}
	assert.Equal(t, mines.Won, game.Snapshot.Status)
	assert.True(t, game.NewBest)
	assert.NotNil(t, game.EndedAt)

	resp, body = s.do(t, http.MethodGet, "/highscores?seed=3:3:2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var best handlers.BestTimeDTO
	require.NoError(t, json.Unmarshal(body, &best))
	assert.Equal(t, "3:3:2", best.Key)
	assert.GreaterOrEqual(t, best.Seconds, 0)

	game = s.move(t, id, "reveal", 0, 0)
	assert.False(t, game.NewBest, "finished games are not scored twice")

	resp, body = s.do(t, http.MethodPost, "/game/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &game))
	assert.Equal(t, mines.NotStarted, game.Snapshot.Status)

	resp, _ = s.do(t, http.MethodDelete, "/game/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = s.do(t, http.MethodGet, "/game/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLoseGame(t *testing.T) {
	s := newTestServer(t)
	id := s.newGame(t).ID.String()

	s.move(t, id, "reveal", 1, 1)
	game := s.move(t, id, "reveal", 2, 2)
	assert.Equal(t, mines.Lost, game.Snapshot.Status)
	assert.True(t, game.Snapshot.At(2, 2).Exploded)
	assert.True(t, game.Snapshot.At(0, 0).Mine)
	assert.Empty(t, s.scores.scores)
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t)
	id := s.newGame(t).ID.String()

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"no params", http.MethodPost, "/game", http.StatusBadRequest},
		{"too many mines", http.MethodPost, "/game?height=2&width=2&mine_count=4", http.StatusBadRequest},
		{"zero height", http.MethodPost, "/game?height=0&width=2&mine_count=0", http.StatusBadRequest},
		{"huge board", http.MethodPost, "/game?height=100000&width=100000&mine_count=1", http.StatusBadRequest},
		{"overflowing board", http.MethodPost, "/game?height=1125899906842624&width=1&mine_count=0", http.StatusBadRequest},
		{"unknown preset", http.MethodPost, "/game?preset=nightmare", http.StatusBadRequest},
		{"preset", http.MethodPost, "/game?preset=beginner", http.StatusCreated},
		{"unknown game", http.MethodGet, "/game/00000000-0000-0000-0000-000000000000", http.StatusNotFound},
		{"malformed id", http.MethodGet, "/game/42", http.StatusNotFound},
		{"missing col", http.MethodPost, "/game/" + id + "/reveal?row=1", http.StatusBadRequest},
		{"out of bounds", http.MethodPost, "/game/" + id + "/reveal?row=3&col=0", http.StatusBadRequest},
		{"negative", http.MethodPost, "/game/" + id + "/flag?row=-1&col=0", http.StatusBadRequest},
		{"bad seed", http.MethodGet, "/highscores?seed=9x9", http.StatusBadRequest},
		{"no lister", http.MethodGet, "/highscores/all", http.StatusNotImplemented},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp, body := s.do(t, test.method, test.path, nil)
			assert.Equal(t, test.status, resp.StatusCode, string(body))
		})
	}
}

func TestHighscoreMissing(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, http.MethodGet, "/highscores?seed=9:9:10&username=alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var best handlers.BestTimeDTO
	require.NoError(t, json.Unmarshal(body, &best))
	assert.Equal(t, "alice@9:9:10", best.Key)
	assert.Equal(t, highscore.NoScore, best.Seconds)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	creds := url.Values{"username": {"alice"}, "password": {"hunter2"}}

	resp, body := s.do(t, http.MethodPost, "/register", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = s.do(t, http.MethodPost, "/register", creds)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = s.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status handlers.Status
	require.NoError(t, json.Unmarshal(body, &status))
	assert.True(t, status.LoggedIn)
	assert.Equal(t, "alice", status.Player.Username)

	game := s.newGame(t)
	assert.Equal(t, "alice", game.Owner)
	for _, p := range safeCells {
		s.move(t, game.ID.String(), "reveal", p.Row, p.Col)
	}
	assert.Contains(t, s.scores.scores, "3:3:2")
	assert.Contains(t, s.scores.scores, "alice@3:3:2")

	resp, _ = s.do(t, http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, body = s.do(t, http.MethodGet, "/status", nil)
	require.NoError(t, json.Unmarshal(body, &status))
	assert.False(t, status.LoggedIn)

	resp, _ = s.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = s.do(t, http.MethodPost, "/login", url.Values{"username": {"bob"}, "password": {"hunter2"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = s.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/login", creds)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = s.do(t, http.MethodGet, "/status", nil)
	require.NoError(t, json.Unmarshal(body, &status))
	assert.True(t, status.LoggedIn)
}

func TestWebSocket(t *testing.T) {
	s := newTestServer(t)
	id := s.newGame(t).ID.String()

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/game/" + id + "/connect"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	send := func(msg string) map[string]json.RawMessage {
		t.Helper()
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
		var reply map[string]json.RawMessage
		require.NoError(t, conn.ReadJSON(&reply))
		return reply
	}
	snapshot := func(reply map[string]json.RawMessage) mines.Snapshot {
		t.Helper()
		require.Contains(t, reply, "snapshot")
		var snap mines.Snapshot
		require.NoError(t, json.Unmarshal(reply["snapshot"], &snap))
		return snap
	}

	assert.Equal(t, mines.NotStarted, snapshot(send("g")).Status)

	snap := snapshot(send("r 0 1\nf 0 0"))
	assert.Equal(t, mines.InProgress, snap.Status)
	assert.True(t, snap.At(0, 1).Revealed)
	assert.True(t, snap.At(0, 0).Flagged)

	assert.Contains(t, send("x"), "error")
	assert.Contains(t, send("r 9 9"), "error")
	assert.Contains(t, send("r one two"), "error")

	snap = snapshot(send("n"))
	assert.Equal(t, mines.NotStarted, snap.Status)
	assert.Equal(t, 2, snap.MinesRemaining)

	require.NoError(t, conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	))
}
