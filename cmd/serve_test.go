//go:build !integration

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makaveli-BG/dkp-discord-bot/internal/config"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/schema"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/sheet"
	"github.com/Makaveli-BG/dkp-discord-bot/internal/store"
)

const testSheetCSV = `ID,NAME,DISCORD,DKP SCORE,KILL POINTS
1001,Alice,alice#1,"1,500",2.1M
1002,Bob,,900,800K
1003,Cara,cara#3,2000,1.5M
`

func newTestEnv(t *testing.T, csv string) *queryEnv {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sheet.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	src, err := sheet.New(path, sheet.Options{})
	require.NoError(t, err)

	cfg = &config.Config{
		Leaderboard: config.LeaderboardConfig{TopN: 10},
	}

	return &queryEnv{
		source: src,
		cache:  sheet.NewCache(src, time.Minute),
		rules:  schema.DefaultRules(),
	}
}

func TestRouter_Healthz(t *testing.T) {
	r := newRouter(newTestEnv(t, testSheetCSV))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_Leaderboard(t *testing.T) {
	r := newRouter(newTestEnv(t, testSheetCSV))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/leaderboard/score", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var board struct {
		Metric string `json:"metric"`
		Top    []struct {
			Rank     int    `json:"rank"`
			PlayerID string `json:"player_id"`
			Display  string `json:"display"`
		} `json:"top"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &board))

	assert.Equal(t, "score", board.Metric)
	assert.Equal(t, 3, board.Total)
	require.Len(t, board.Top, 3)
	assert.Equal(t, "1003", board.Top[0].PlayerID)
	assert.Equal(t, "1001", board.Top[1].PlayerID)
	assert.Equal(t, "1,500", board.Top[1].Display)
	assert.Equal(t, "1002", board.Top[2].PlayerID)
}

func TestRouter_Leaderboard_RequesterResolved(t *testing.T) {
	r := newRouter(newTestEnv(t, testSheetCSV))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/leaderboard/score?requester=alice%231", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var board struct {
		Requester *struct {
			Rank     int    `json:"rank"`
			PlayerID string `json:"player_id"`
		} `json:"requester"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &board))
	require.NotNil(t, board.Requester)
	assert.Equal(t, 2, board.Requester.Rank)
	assert.Equal(t, "1001", board.Requester.PlayerID)
}

func TestRouter_Leaderboard_UnknownMetric(t *testing.T) {
	r := newRouter(newTestEnv(t, testSheetCSV))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/leaderboard/bogus", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_Player(t *testing.T) {
	r := newRouter(newTestEnv(t, testSheetCSV))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/players/1001", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var rec struct {
		PlayerID string `json:"player_id"`
		Name     string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "1001", rec.PlayerID)
	assert.Equal(t, "Alice", rec.Name)
}

func TestRouter_Player_NotFound(t *testing.T) {
	r := newRouter(newTestEnv(t, testSheetCSV))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/players/9999", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_Compare(t *testing.T) {
	r := newRouter(newTestEnv(t, testSheetCSV))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/compare?a=1001&b=1002", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		PlayerA string `json:"player_a"`
		PlayerB string `json:"player_b"`
		AWins   int    `json:"a_wins"`
		BWins   int    `json:"b_wins"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "1001", res.PlayerA)
	assert.Equal(t, "1002", res.PlayerB)
	assert.Equal(t, 2, res.AWins)
	assert.Equal(t, 0, res.BWins)
}

func TestRouter_Compare_MissingParams(t *testing.T) {
	r := newRouter(newTestEnv(t, testSheetCSV))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/compare?a=1001", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "required")
}

func TestRouter_Schema(t *testing.T) {
	r := newRouter(newTestEnv(t, testSheetCSV))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/schema", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Snapshot string `json:"snapshot"`
		Columns  []struct {
			Header string `json:"header"`
			Role   string `json:"role"`
		} `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Snapshot)
	assert.Len(t, body.Columns, 5)
}

func TestRouter_Schema_UnprocessableSheet(t *testing.T) {
	r := newRouter(newTestEnv(t, "FOO,BAR\n1,2\n"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/schema", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "identity")
}

// captureStore keeps recorded entries in memory for assertions.
type captureStore struct {
	logs []store.QueryLog
}

func (s *captureStore) Migrate(context.Context) error { return nil }
func (s *captureStore) RecordQuery(_ context.Context, q store.QueryLog) error {
	s.logs = append(s.logs, q)
	return nil
}
func (s *captureStore) RecentQueries(context.Context, int) ([]store.QueryLog, error) {
	return s.logs, nil
}
func (s *captureStore) Close() error { return nil }

// slowSource delays every fetch, standing in for a slow remote sheet.
type slowSource struct {
	inner sheet.Source
	delay time.Duration
}

func (s slowSource) Fetch(ctx context.Context) (*sheet.Snapshot, error) {
	time.Sleep(s.delay)
	return s.inner.Fetch(ctx)
}

func TestRouter_AuditDurationCoversFetch(t *testing.T) {
	env := newTestEnv(t, testSheetCSV)

	const delay = 20 * time.Millisecond
	env.source = slowSource{inner: env.source, delay: delay}
	env.cache = sheet.NewCache(env.source, time.Minute)

	cs := &captureStore{}
	env.audit = cs

	r := newRouter(env)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/players/1001", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, cs.logs, 1)
	assert.Equal(t, "stats", cs.logs[0].Command)
	assert.Equal(t, "1001", cs.logs[0].PlayerID)
	assert.GreaterOrEqual(t, cs.logs[0].Duration, delay)
}

func TestRouter_Runs_Disabled(t *testing.T) {
	r := newRouter(newTestEnv(t, testSheetCSV))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "disabled")
}
