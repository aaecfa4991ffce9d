package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"devlife/internal/catalog"
	"devlife/internal/storage"
	"devlife/internal/world"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	app    *App
	client *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)

	app, err := NewApp(Config{Catalog: cat, Store: storage.New(t.TempDir()), Hub: hub, Seed: 7})
	require.NoError(t, err)

	srv := httptest.NewServer(LogRequest(app.Routes()))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, app: app, client: newClient(t)}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// as returns a view of the server that sends requests from another browser.
func (s *testServer) as(t *testing.T) *testServer {
	return &testServer{Server: s.Server, app: s.app, client: newClient(t)}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") && len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

const newGameBody = `{"name":"Sam","attributes":{"technical":3,"business":2,"social":2,"creativity":3}}`

func TestActionBeforeCharacterIsConflict(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodPost, "/api/skills/learn", `{"skill":"JavaScript"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "no_character", body["error"])
}

func TestNewGameValidation(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/game/new", `{"name":"","attributes":{"technical":3,"business":2,"social":2,"creativity":3}}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_character", body["error"])

	status, _ = s.do(t, http.MethodPost, "/api/game/new", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodPost, "/api/game/new", newGameBody)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, strings.HasPrefix(body["slot"].(string), "game-"))
	character := body["character"].(map[string]any)
	assert.Equal(t, "Sam", character["name"])
}

func TestEndToEndOverHTTP(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodPost, "/api/game/new", newGameBody)
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(t, http.MethodPost, "/api/skills/learn", `{"skill":"JavaScript"}`)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 9, body["skillPointsLeft"])

	status, body = s.do(t, http.MethodPost, "/api/jobs/apply", `{"jobId":"junior-frontend-1"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "education_too_low", body["error"])

	status, body = s.do(t, http.MethodPost, "/api/jobs/apply", `{"jobId":"astronaut"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["error"])

	status, _ = s.do(t, http.MethodPost, "/api/skills/learn", `{"skill":"JavaScript","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodPost, "/api/business/debug", `{"bugs":1}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalid_stage_transition", body["error"])

	status, body = s.do(t, http.MethodPost, "/api/day/advance", "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["day"])

	status, body = s.do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, status)
	state := body["state"].(map[string]any)
	character := state["character"].(map[string]any)
	assert.EqualValues(t, 1450, character["money"])
	assert.EqualValues(t, 13, character["reputation"])
}

func TestProjections(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodPost, "/api/game/new", newGameBody)
	require.Equal(t, http.StatusCreated, status)

	resp, err := s.client.Get(s.URL + "/api/skills")
	require.NoError(t, err)
	var skills []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&skills))
	resp.Body.Close()
	assert.Len(t, skills, 33)

	resp, err = s.client.Get(s.URL + "/api/jobs?view=eligible")
	require.NoError(t, err)
	var jobs []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobs))
	resp.Body.Close()
	assert.Empty(t, jobs)

	status, _ = s.do(t, http.MethodGet, "/api/jobs?view=secret", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := s.do(t, http.MethodGet, "/api/business", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "statistics")
}

func TestStatusPage(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.client.Get(s.URL + "/")
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(page), "No character yet")

	status, _ := s.do(t, http.MethodPost, "/api/game/new", `{"name":"Sam [x](javascript:alert(1))","attributes":{"technical":3,"business":2,"social":2,"creativity":3}}`)
	require.Equal(t, http.StatusCreated, status)

	resp, err = s.client.Get(s.URL + "/")
	require.NoError(t, err)
	page, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(page), "day 1")
	assert.Contains(t, string(page), "<table>")
	assert.NotContains(t, string(page), "javascript:alert")
}

func TestSavesAPI(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodPost, "/api/game/new", newGameBody)
	require.Equal(t, http.StatusCreated, status)
	slot := body["slot"].(string)

	resp, err := s.client.Get(s.URL + "/api/saves")
	require.NoError(t, err)
	var saves []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&saves))
	resp.Body.Close()
	require.Len(t, saves, 1)
	assert.Equal(t, slot, saves[0]["slot"])
	assert.Equal(t, true, saves[0]["active"])

	status, _ = s.do(t, http.MethodPost, "/api/saves/load", `{"slot":"../x"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodPost, "/api/saves/load", `{"slot":"`+slot+`"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["fallbacks"])

	status, _ = s.do(t, http.MethodDelete, "/api/saves?slot="+slot, "")
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPost, "/api/life/eat", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "no_character", body["error"])
}

func TestNotificationsReachTheSessionSocket(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodPost, "/api/game/new", newGameBody)
	require.Equal(t, http.StatusCreated, status)

	header := http.Header{}
	for _, c := range s.client.Jar.Cookies(mustParse(t, s.URL)) {
		header.Add("Cookie", c.Name+"="+c.Value)
	}
	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	status, _ = s.do(t, http.MethodPost, "/api/life/sleep", "")
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "slept", msg.Type)
	assert.Equal(t, "engine", msg.Sender)
}

func TestCookiesSharingASaveDoNotOverwriteEachOther(t *testing.T) {
	alice := newTestServer(t)
	status, body := alice.do(t, http.MethodPost, "/api/game/new", newGameBody)
	require.Equal(t, http.StatusCreated, status)
	slot := body["slot"].(string)

	bob := alice.as(t)
	status, _ = bob.do(t, http.MethodPost, "/api/saves/load", `{"slot":"`+slot+`"}`)
	require.Equal(t, http.StatusOK, status)

	status, _ = alice.do(t, http.MethodPost, "/api/skills/learn", `{"skill":"JavaScript"}`)
	require.Equal(t, http.StatusOK, status)
	status, _ = bob.do(t, http.MethodPost, "/api/life/sleep", "")
	require.Equal(t, http.StatusOK, status)

	fresh := world.NewSession(world.Options{Catalog: alice.app.cfg.Catalog, Store: alice.app.cfg.Store})
	_, err := fresh.Load(slot)
	require.NoError(t, err)
	g := fresh.State()
	assert.Equal(t, []string{"HTML", "CSS", "JavaScript"}, g.Skills.Learned)
	assert.Equal(t, 9, g.Character.SkillPoints)
	assert.Equal(t, 100, g.Character.Energy)

	status, body = bob.do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, status)
	state := body["state"].(map[string]any)
	assert.EqualValues(t, 9, state["character"].(map[string]any)["skillPoints"])

	status, _ = alice.do(t, http.MethodDelete, "/api/saves?slot="+slot, "")
	require.Equal(t, http.StatusOK, status)
	status, body = bob.do(t, http.MethodPost, "/api/life/eat", "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "no_character", body["error"])

	status, _ = bob.do(t, http.MethodPost, "/api/game/reset", "")
	assert.Equal(t, http.StatusConflict, status)
}

func TestEvictionCommitsAndReopensSaves(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	var clock atomic.Int64
	clock.Store(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).UnixNano())
	now := func() time.Time { return time.Unix(0, clock.Load()) }

	app, err := NewApp(Config{Catalog: cat, Store: storage.New(t.TempDir()), Seed: 7, Now: now})
	require.NoError(t, err)
	srv := httptest.NewServer(app.Routes())
	t.Cleanup(srv.Close)
	s := &testServer{Server: srv, app: app, client: newClient(t)}

	status, body := s.do(t, http.MethodPost, "/api/game/new", newGameBody)
	require.Equal(t, http.StatusCreated, status)
	slot := body["slot"].(string)
	status, _ = s.do(t, http.MethodPost, "/api/skills/learn", `{"skill":"JavaScript"}`)
	require.Equal(t, http.StatusOK, status)

	clock.Add(int64(2 * time.Hour))
	app.evictSessions()
	app.slotsMu.Lock()
	assert.Empty(t, app.slots)
	app.slotsMu.Unlock()

	status, body = s.do(t, http.MethodPost, "/api/saves/load", `{"slot":"`+slot+`"}`)
	require.Equal(t, http.StatusOK, status)
	state := body["state"].(map[string]any)
	assert.EqualValues(t, 9, state["character"].(map[string]any)["skillPoints"])
}
