package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"
	"github.com/kapu/superhero-cards-go/internal/render"
	"github.com/kapu/superhero-cards-go/internal/service/session"
	"github.com/kapu/superhero-cards-go/internal/service/superhero"
	"go.uber.org/zap"
)

const (
	heroA = `{"name":"A","powerstats":{"intelligence":"10","strength":"20"},"image":{"url":"u1"}}`
	heroB = `{"name":"B","powerstats":{"strength":"5"},"image":{"url":"u2"}}`
)

type cardView struct {
	Name         string
	Src          string
	Intelligence string
	Strength     string
}

func newFakeAPI(t *testing.T, routes map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(api.Close)
	return api, &hits
}

func newTestServer(t *testing.T, api *httptest.Server, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	if len(cfg.BootstrapIDs) == 0 {
		cfg.BootstrapIDs = []int{200, 465}
	}
	client := superhero.NewClient(api.Client(), api.URL+"/token", nil, zap.NewNop())
	srv := New(cfg, client, render.NewRenderer(""), zap.NewNop())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func readCards(t *testing.T, html string) []cardView {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}

	cards := make([]cardView, 0)
	doc.Find("div.heroes div.card").Each(func(_ int, card *goquery.Selection) {
		cards = append(cards, cardView{
			Name:         strings.TrimSpace(card.Find("h1").Text()),
			Src:          card.Find("img").AttrOr("src", ""),
			Intelligence: card.Find("span.bar-intelligence").AttrOr("style", ""),
			Strength:     card.Find("span.bar-strength").AttrOr("style", ""),
		})
	})
	return cards
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestSnapshotRendersBootstrapHeroes(t *testing.T) {
	api, _ := newFakeAPI(t, map[string]string{
		"/token/200": heroA,
		"/token/465": heroB,
	})
	_, ts := newTestServer(t, api, Config{Session: session.Options{MaxConcurrentFetches: 1}})

	status, body := getBody(t, ts.URL+"/snapshot")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	got := readCards(t, body)
	want := []cardView{
		{Name: "A", Src: "u1", Intelligence: "width: 10%", Strength: "width: 20%"},
		{Name: "B", Src: "u2", Intelligence: "width: 0%", Strength: "width: 5%"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d cards, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("card %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if strings.Contains(body, "<script") {
		t.Fatalf("snapshot page must not include the live script")
	}
}

func TestSnapshotSkipsIncompleteHero(t *testing.T) {
	api, _ := newFakeAPI(t, map[string]string{
		"/token/200": `{"name":"A","powerstats":{"intelligence":"10","strength":"20"}}`,
		"/token/465": heroB,
	})
	_, ts := newTestServer(t, api, Config{})

	_, body := getBody(t, ts.URL+"/snapshot")
	got := readCards(t, body)
	if len(got) != 1 || got[0].Name != "B" {
		t.Fatalf("expected only hero B, got %+v", got)
	}
}

func TestSnapshotWithAllFetchesFailing(t *testing.T) {
	api, hits := newFakeAPI(t, map[string]string{})
	_, ts := newTestServer(t, api, Config{})

	status, body := getBody(t, ts.URL+"/snapshot")
	if status != http.StatusOK {
		t.Fatalf("fetch failures must not surface as HTTP errors, got %d", status)
	}
	if cards := readCards(t, body); len(cards) != 0 {
		t.Fatalf("expected no cards, got %+v", cards)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected exactly two upstream requests, got %d", hits.Load())
	}
}

func TestSnapshotEachRequestMountsFreshSession(t *testing.T) {
	api, hits := newFakeAPI(t, map[string]string{
		"/token/200": heroA,
		"/token/465": heroB,
	})
	_, ts := newTestServer(t, api, Config{})

	for i := 0; i < 2; i++ {
		_, body := getBody(t, ts.URL+"/snapshot")
		if cards := readCards(t, body); len(cards) != 2 {
			t.Fatalf("request %d: expected 2 cards, got %+v", i, cards)
		}
	}
	if hits.Load() != 4 {
		t.Fatalf("expected two fetches per mount, got %d", hits.Load())
	}
}

func TestIndexServesLiveShell(t *testing.T) {
	api, hits := newFakeAPI(t, map[string]string{})
	_, ts := newTestServer(t, api, Config{LiveUpdates: true})

	status, body := getBody(t, ts.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(body, `data-live-url="/ws"`) {
		t.Fatalf("expected live script in shell page")
	}
	if cards := readCards(t, body); len(cards) != 0 {
		t.Fatalf("expected empty initial render, got %+v", cards)
	}
	if hits.Load() != 0 {
		t.Fatalf("shell page must not fetch heroes, got %d requests", hits.Load())
	}
}

func TestIndexFallsBackToSnapshotWithoutLiveUpdates(t *testing.T) {
	api, _ := newFakeAPI(t, map[string]string{
		"/token/200": heroA,
		"/token/465": heroB,
	})
	_, ts := newTestServer(t, api, Config{LiveUpdates: false})

	_, body := getBody(t, ts.URL+"/")
	if cards := readCards(t, body); len(cards) != 2 {
		t.Fatalf("expected server-rendered cards, got %+v", cards)
	}
}

func TestHealthAndStatic(t *testing.T) {
	api, _ := newFakeAPI(t, map[string]string{})
	_, ts := newTestServer(t, api, Config{})

	status, body := getBody(t, ts.URL+"/healthz")
	if status != http.StatusOK || body != "ok" {
		t.Fatalf("unexpected health response: %d %q", status, body)
	}

	status, body = getBody(t, ts.URL+"/static/style.css")
	if status != http.StatusOK || !strings.Contains(body, ".card") {
		t.Fatalf("unexpected stylesheet response: %d", status)
	}

	status, _ = getBody(t, ts.URL+"/missing")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", status)
	}
}

func dialLive(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestLiveFeedPushesCardsUntilSettled(t *testing.T) {
	api, _ := newFakeAPI(t, map[string]string{
		"/token/200": heroA,
		"/token/465": heroB,
	})
	_, ts := newTestServer(t, api, Config{LiveUpdates: true})

	conn := dialLive(t, ts)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var (
		frames    []LiveMessage
		lastCards LiveMessage
	)
	for {
		var msg LiveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read live frame: %v", err)
		}
		frames = append(frames, msg)
		if msg.Type == MessageTypeCards {
			lastCards = msg
		}
		if msg.Type == MessageTypeSettled {
			break
		}
	}

	if frames[0].Type != MessageTypeCards {
		t.Fatalf("expected an initial cards frame, got %+v", frames[0])
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].Type == MessageTypeCards && frames[i].Count < frames[i-1].Count {
			t.Fatalf("collection must only grow, frames: %+v", frames)
		}
	}

	settledFrame := frames[len(frames)-1]
	if settledFrame.Count != 2 || lastCards.Count != 2 {
		t.Fatalf("expected 2 heroes when settled, got settled=%d cards=%d", settledFrame.Count, lastCards.Count)
	}

	cards := readCards(t, lastCards.HTML)
	names := []string{cards[0].Name, cards[1].Name}
	sort.Strings(names)
	if names[0] != "A" || names[1] != "B" {
		t.Fatalf("expected heroes A and B, got %v", names)
	}
}

func TestShutdownClosesLiveConnections(t *testing.T) {
	release := make(chan struct{})
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		http.NotFound(w, r)
	}))
	defer api.Close()
	defer close(release)

	srv, ts := newTestServer(t, api, Config{LiveUpdates: true})
	conn := dialLive(t, ts)

	var first LiveMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&first); err != nil || first.Type != MessageTypeCards {
		t.Fatalf("expected initial cards frame, got %+v err=%v", first, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}

	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going-away close frame, got %v", err)
	}
}
