package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/recycle-sort/internal/catalog"
	"github.com/robalobadob/recycle-sort/internal/game"
	"github.com/robalobadob/recycle-sort/internal/round"
	"github.com/robalobadob/recycle-sort/internal/store"
)

var testNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *catalog.Catalog) {
	return newTestServerWithAttempts(t, 0)
}

// newTestServerWithAttempts wires Options the way cmd/server does from
// ROUND_SIZE=10 and MAX_ATTEMPTS=maxAttempts.
func newTestServerWithAttempts(t *testing.T, maxAttempts int) (*Server, *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.Load(context.Background(), catalog.EmbeddedSource{})
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	srv := New(cat, store.NewMemoryStore(), Options{
		ClientOrigin: "http://localhost:5173",
		RoundSize:    10,
		MaxAttempts:  maxAttempts,
		RoundTTL:     time.Hour,
		Secret:       "test-secret",
		DailySalt:    "test-salt",
		Sampler:      round.NewSampler(rand.New(rand.NewPCG(42, 1))),
		Now:          func() time.Time { return testNow },
	})
	return srv, cat
}

func do(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type wireDrop struct {
	Events []wireEvent `json:"events"`
	Hide   []string    `json:"hide"`
	State  game.State  `json:"state"`
}

func startRound(t *testing.T, srv *Server, body any) newRoundRes {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/round/new", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("new round: %d %s", rec.Code, rec.Body.String())
	}
	return decode[newRoundRes](t, rec)
}

func drop(t *testing.T, srv *Server, rd newRoundRes, item, bin string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, srv, http.MethodPost, "/round/drop", rd.Token, dropReq{RoundID: rd.RoundID, Item: item, Bin: bin})
}

func TestHealthAndCatalog(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/catalog", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog: %d", rec.Code)
	}
	bins := decode[[]binRes](t, rec)
	if len(bins) != 4 {
		t.Fatalf("expected 4 bins, got %d", len(bins))
	}
	for _, b := range bins {
		if len(b.Items) != 9 {
			t.Errorf("bin %s has %d items", b.Bin, len(b.Items))
		}
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if e := decode[apiError](t, rec); e.Error != "not_found" {
		t.Fatalf("unexpected body %+v", e)
	}
}

func TestNewRound(t *testing.T) {
	srv, cat := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/round/new", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("new round: %d %s", rec.Code, rec.Body.String())
	}
	res := decode[newRoundRes](t, rec)
	if res.RoundID == "" || res.Token == "" || res.Mode != modeRandom || res.MaxAttempts != 10 {
		t.Fatalf("unexpected response %+v", res)
	}
	if len(res.Items) != 10 {
		t.Fatalf("expected 10 items, got %d", len(res.Items))
	}
	seen := map[string]bool{}
	for _, it := range res.Items {
		if seen[it.Name] {
			t.Fatalf("duplicate item %q", it.Name)
		}
		seen[it.Name] = true
		if p, err := cat.PathOf(it.Name); err != nil || p != it.Path {
			t.Fatalf("item %q has path %q, catalog says %q (%v)", it.Name, it.Path, p, err)
		}
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == roundCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != res.Token || !cookie.HttpOnly {
		t.Fatalf("round cookie not set correctly: %+v", cookie)
	}
}

func TestNewRoundErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	cases := []struct {
		name string
		body string
		code int
		err  string
	}{
		{"too many items", `{"size":40}`, http.StatusUnprocessableEntity, "insufficient_items"},
		{"negative size", `{"size":-1}`, http.StatusBadRequest, "bad_size"},
		{"bad mode", `{"mode":"hard"}`, http.StatusBadRequest, "bad_mode"},
		{"bad json", `{"mode":`, http.StatusBadRequest, "bad_json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/round/new", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d %s", tc.code, rec.Code, rec.Body.String())
			}
			if e := decode[apiError](t, rec); e.Error != tc.err {
				t.Fatalf("expected %s, got %+v", tc.err, e)
			}
		})
	}
}

func TestPlayFullRound(t *testing.T) {
	srv, cat := newTestServer(t)
	rd := startRound(t, srv, newRoundReq{Size: 4})
	if rd.MaxAttempts != 4 {
		t.Fatalf("MaxAttempts = %d, want 4", rd.MaxAttempts)
	}

	for i, it := range rd.Items {
		owner, err := cat.Owner(it.Name)
		if err != nil {
			t.Fatal(err)
		}
		rec := drop(t, srv, rd, strings.ToUpper(it.Name), string(owner))
		if rec.Code != http.StatusOK {
			t.Fatalf("drop %d: %d %s", i+1, rec.Code, rec.Body.String())
		}
		res := decode[wireDrop](t, rec)
		if res.Events[0].Type != "score_updated" {
			t.Fatalf("drop %d: first event %s", i+1, res.Events[0].Type)
		}
		var su game.ScoreUpdated
		_ = json.Unmarshal(res.Events[0].Data, &su)
		if su != (game.ScoreUpdated{Score: i + 1, Attempts: i + 1, Message: "Correct"}) {
			t.Fatalf("drop %d: %+v", i+1, su)
		}
		if !reflect.DeepEqual(res.Hide, []string{it.Name}) {
			t.Fatalf("drop %d: hide = %v", i+1, res.Hide)
		}

		last := i == len(rd.Items)-1
		if last {
			if len(res.Events) != 2 || res.Events[1].Type != "game_ended" {
				t.Fatalf("last drop events: %+v", res.Events)
			}
			var ge game.GameEnded
			_ = json.Unmarshal(res.Events[1].Data, &ge)
			if ge.FinalScore != 4 {
				t.Fatalf("FinalScore = %d", ge.FinalScore)
			}
			if res.State.Status != game.Ended {
				t.Fatalf("state = %+v", res.State)
			}
		} else if len(res.Events) != 1 {
			t.Fatalf("drop %d: unexpected events %+v", i+1, res.Events)
		}
	}

	// Further drops are accepted but change nothing.
	rec := drop(t, srv, rd, rd.Items[0].Name, "blue")
	if rec.Code != http.StatusOK {
		t.Fatalf("drop after end: %d", rec.Code)
	}
	res := decode[wireDrop](t, rec)
	if len(res.Events) != 0 || res.State.Attempts != 4 || res.State.Score != 4 {
		t.Fatalf("drop after end changed something: %+v", res)
	}
}

func TestRoundAlwaysEnds(t *testing.T) {
	cases := []struct {
		name         string
		maxAttempts  int
		size         int
		wrongFirst   bool
		wantLimit    int
		wantAttempts int
		wantScore    int
	}{
		{"limit from round size", 0, 4, false, 4, 4, 4},
		{"limit above size, all correct", 10, 4, false, 10, 4, 4},
		{"limit above size, one miss", 10, 4, true, 10, 5, 4},
		{"limit below size", 3, 4, false, 3, 3, 3},
		{"limit equals size", 4, 4, true, 4, 4, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, cat := newTestServerWithAttempts(t, tc.maxAttempts)
			rd := startRound(t, srv, newRoundReq{Size: tc.size})
			if rd.MaxAttempts != tc.wantLimit {
				t.Fatalf("MaxAttempts = %d, want %d", rd.MaxAttempts, tc.wantLimit)
			}

			ends := 0
			var last game.State
			play := func(item, bin string) {
				rec := drop(t, srv, rd, item, bin)
				if rec.Code != http.StatusOK {
					t.Fatalf("drop %s→%s: %d %s", item, bin, rec.Code, rec.Body.String())
				}
				res := decode[wireDrop](t, rec)
				for _, e := range res.Events {
					if e.Type == "game_ended" {
						ends++
					}
				}
				last = res.State
			}

			if tc.wrongFirst {
				owner, _ := cat.Owner(rd.Items[0].Name)
				wrong := catalog.Blue
				if owner == catalog.Blue {
					wrong = catalog.Green
				}
				play(rd.Items[0].Name, string(wrong))
			}
			for _, it := range rd.Items {
				if last.Status == game.Ended {
					break
				}
				owner, _ := cat.Owner(it.Name)
				play(it.Name, string(owner))
			}

			if last.Status != game.Ended || last.Attempts != tc.wantAttempts || last.Score != tc.wantScore {
				t.Fatalf("final state %+v, want ended with %d attempts and score %d", last, tc.wantAttempts, tc.wantScore)
			}
			if ends != 1 {
				t.Fatalf("game_ended sent %d times", ends)
			}

			// Every later drop, including re-dropping a sorted item, is a no-op.
			for _, it := range rd.Items {
				owner, _ := cat.Owner(it.Name)
				play(it.Name, string(owner))
			}
			if ends != 1 || last.Attempts != tc.wantAttempts {
				t.Fatalf("state moved after the end: %+v, %d game_ended", last, ends)
			}
		})
	}
}

func TestWrongDrop(t *testing.T) {
	srv, cat := newTestServer(t)
	rd := startRound(t, srv, nil)
	name := rd.Items[0].Name
	owner, _ := cat.Owner(name)
	wrong := catalog.Blue
	if owner == catalog.Blue {
		wrong = catalog.Green
	}

	rec := drop(t, srv, rd, name, string(wrong))
	if rec.Code != http.StatusOK {
		t.Fatalf("drop: %d %s", rec.Code, rec.Body.String())
	}
	res := decode[wireDrop](t, rec)
	var su game.ScoreUpdated
	_ = json.Unmarshal(res.Events[0].Data, &su)
	want := game.ScoreUpdated{Score: 0, Attempts: 1, Message: "Bad answer, item belongs to " + string(owner)}
	if su != want {
		t.Fatalf("got %+v, want %+v", su, want)
	}
	if len(res.Hide) != 0 {
		t.Fatalf("wrong drop hid %v", res.Hide)
	}
}

func TestDropRejections(t *testing.T) {
	srv, cat := newTestServer(t)
	rd := startRound(t, srv, nil)

	inRound := map[string]bool{}
	for _, it := range rd.Items {
		inRound[it.Name] = true
	}
	var outside string
	for _, b := range cat.Bins() {
		for _, n := range b.ItemNames() {
			if !inRound[n] && outside == "" {
				outside = n
			}
		}
	}
	first := rd.Items[0].Name
	owner, _ := cat.Owner(first)
	if rec := drop(t, srv, rd, first, string(owner)); rec.Code != http.StatusOK {
		t.Fatalf("setup drop: %d", rec.Code)
	}

	cases := []struct {
		name, item, bin string
		code            int
		err             string
	}{
		{"unknown item", "botle", "blue", http.StatusBadRequest, "unknown_item"},
		{"unknown bin", first, "purple", http.StatusBadRequest, "unknown_bin"},
		{"not in round", outside, "blue", http.StatusConflict, "not_in_round"},
		{"already sorted", first, string(owner), http.StatusConflict, "already_sorted"},
		{"missing item", "", "blue", http.StatusBadRequest, "invalid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := drop(t, srv, rd, tc.item, tc.bin)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d %s", tc.code, rec.Code, rec.Body.String())
			}
			e := decode[apiError](t, rec)
			if e.Error != tc.err {
				t.Fatalf("expected %s, got %+v", tc.err, e)
			}
			if tc.err == "unknown_item" && e.Suggestion != "bottle" {
				t.Fatalf("expected suggestion bottle, got %q", e.Suggestion)
			}
		})
	}

	rec := do(t, srv, http.MethodGet, "/round/"+rd.RoundID, rd.Token, nil)
	st := decode[roundRes](t, rec).State
	if st.Attempts != 1 || st.Score != 1 {
		t.Fatalf("rejected drops changed state: %+v", st)
	}
}

func TestRoundTokenRequired(t *testing.T) {
	srv, _ := newTestServer(t)
	a := startRound(t, srv, nil)
	b := startRound(t, srv, nil)

	body := dropReq{RoundID: a.RoundID, Item: a.Items[0].Name, Bin: "blue"}
	if rec := do(t, srv, http.MethodPost, "/round/drop", "", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/round/drop", b.Token, body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("other round's token: expected 401, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodPost, "/round/drop", "garbage", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", rec.Code)
	}

	// The cookie works as well as the header.
	req := httptest.NewRequest(http.MethodGet, "/round/"+a.RoundID, nil)
	req.AddCookie(&http.Cookie{Name: roundCookieName, Value: a.Token})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cookie auth: %d %s", rec.Code, rec.Body.String())
	}
	res := decode[roundRes](t, rec)
	if len(res.Items) != 10 || res.State.Status != game.InProgress {
		t.Fatalf("unexpected round %+v", res)
	}
}

func TestExpiredToken(t *testing.T) {
	srv, _ := newTestServer(t)
	rd := startRound(t, srv, nil)
	srv.opts.Now = func() time.Time { return testNow.Add(2 * time.Hour) }
	if rec := do(t, srv, http.MethodGet, "/round/"+rd.RoundID, rd.Token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestUnknownRound(t *testing.T) {
	srv, _ := newTestServer(t)
	tok, _, err := srv.signRoundToken("missing")
	if err != nil {
		t.Fatal(err)
	}
	if rec := do(t, srv, http.MethodGet, "/round/missing", tok, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDailyRoundIsShared(t *testing.T) {
	srv, _ := newTestServer(t)
	a := startRound(t, srv, newRoundReq{Mode: modeDaily})
	b := startRound(t, srv, newRoundReq{Mode: modeDaily})
	if a.Date != "2026-10-16" {
		t.Fatalf("Date = %q", a.Date)
	}
	if a.RoundID == b.RoundID {
		t.Fatal("each player gets their own round")
	}
	if !reflect.DeepEqual(a.Items, b.Items) {
		t.Fatalf("daily rounds differ: %v vs %v", a.Items, b.Items)
	}
}

func TestConcurrentDropsAreSerialized(t *testing.T) {
	srv, cat := newTestServer(t)
	rd := startRound(t, srv, nil)

	done := make(chan struct{})
	for _, it := range rd.Items {
		owner, _ := cat.Owner(it.Name)
		go func(name, bin string) {
			defer func() { done <- struct{}{} }()
			_ = drop(t, srv, rd, name, bin)
		}(it.Name, string(owner))
	}
	for range rd.Items {
		<-done
	}
	rec := do(t, srv, http.MethodGet, "/round/"+rd.RoundID, rd.Token, nil)
	st := decode[roundRes](t, rec).State
	if st.Attempts != 10 || st.Score != 10 || st.Status != game.Ended {
		t.Fatalf("unexpected state after concurrent drops: %+v", st)
	}
}

func TestStartShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx, "127.0.0.1:0") }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
