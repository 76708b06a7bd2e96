package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/satindergrewal/affix/internal/audio"
	"github.com/satindergrewal/affix/internal/playlist"
	"github.com/satindergrewal/affix/internal/preset"
)

type fakePlayer struct {
	mu       sync.Mutex
	params   preset.Params
	sets     int
	skips    int
	excluded bool
}

func (p *fakePlayer) Status() (audio.TrackInfo, time.Duration, time.Duration) {
	return audio.TrackInfo{ID: "id-1", Path: "/music/a.flac", Name: "a"}, 3 * time.Second, 10 * time.Second
}

func (p *fakePlayer) Excluded() bool { return p.excluded }

func (p *fakePlayer) Skip() {
	p.mu.Lock()
	p.skips++
	p.mu.Unlock()
}

func (p *fakePlayer) Params() preset.Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params.Clone()
}

func (p *fakePlayer) SetParams(params preset.Params) {
	p.mu.Lock()
	p.params = params.Clone()
	p.sets++
	p.mu.Unlock()
}

func (p *fakePlayer) counts() (sets, skips int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sets, p.skips
}

type fakeSaver struct {
	mu    sync.Mutex
	saved []preset.Params
	err   error
}

func (s *fakeSaver) SaveParams(p preset.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, p)
	return nil
}

func (s *fakeSaver) all() []preset.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]preset.Params(nil), s.saved...)
}

func newTestServer(t *testing.T, player *fakePlayer, saver *fakeSaver) *httptest.Server {
	t.Helper()
	s := New(Deps{
		Player:    player,
		Store:     saver,
		Listeners: func() (int, int) { return 2, 1 },
		Playlist:  func() playlist.Status { return playlist.Status{Tracks: 4, Pass: 1} },
		Log:       zaptest.NewLogger(t),
	})
	mux := http.NewServeMux()
	s.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestGetPreset(t *testing.T) {
	srv := newTestServer(t, &fakePlayer{params: preset.Default()}, &fakeSaver{})
	resp, err := http.Get(srv.URL + "/api/preset")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	got := decode[map[string]any](t, resp)
	if got["post_ms"] != float64(2000) || got["pre_ms"] != float64(0) {
		t.Errorf("preset = %v", got)
	}
	if skip, ok := got["skip_subpaths"].([]any); !ok || len(skip) != 0 {
		t.Errorf("skip_subpaths = %#v, want empty array", got["skip_subpaths"])
	}
}

func TestPostPresetApplies(t *testing.T) {
	player := &fakePlayer{params: preset.Default()}
	saver := &fakeSaver{}
	srv := newTestServer(t, player, saver)

	resp := postJSON(t, srv.URL+"/api/preset", `{"pre_ms": 250, "skip_subpaths": "live;;bonus"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	res := decode[EditResult](t, resp)
	if !res.OK || !res.Changed || len(res.Rejected) != 0 {
		t.Errorf("result = %+v", res)
	}
	want := preset.Params{PostSilenceMS: 2000, PreSilenceMS: 250, SkipSubpaths: []string{"live", "bonus"}}
	if !player.Params().Equal(want) {
		t.Errorf("player params = %+v, want %+v", player.Params(), want)
	}
	if saved := saver.all(); len(saved) != 1 || !saved[0].Equal(want) {
		t.Errorf("saved = %+v", saved)
	}
}

func TestPostPresetRevertsOutOfRange(t *testing.T) {
	player := &fakePlayer{params: preset.Params{PostSilenceMS: 1000, PreSilenceMS: 10}}
	saver := &fakeSaver{}
	srv := newTestServer(t, player, saver)

	resp := postJSON(t, srv.URL+"/api/preset", `{"pre_ms": -1, "post_ms": 4294967296}`)
	res := decode[EditResult](t, resp)
	if res.Changed {
		t.Error("Changed = true for an edit where every value was reverted")
	}
	if len(res.Rejected) != 2 {
		t.Fatalf("rejected = %+v, want 2 records", res.Rejected)
	}
	if res.Rejected[0].Field != preset.FieldPreSilence || res.Rejected[0].Restored != 10 {
		t.Errorf("rejected[0] = %+v", res.Rejected[0])
	}
	if res.Rejected[1].Field != preset.FieldPostSilence || res.Rejected[1].Restored != 1000 {
		t.Errorf("rejected[1] = %+v", res.Rejected[1])
	}
	if sets, _ := player.counts(); len(saver.all()) != 0 || sets != 0 {
		t.Errorf("unchanged edit persisted: saved=%d sets=%d", len(saver.all()), sets)
	}
}

func TestPostPresetPartialRevert(t *testing.T) {
	player := &fakePlayer{params: preset.Default()}
	srv := newTestServer(t, player, &fakeSaver{})

	res := decode[EditResult](t, postJSON(t, srv.URL+"/api/preset", `{"pre_ms": -5, "post_ms": 500}`))
	if !res.Changed || len(res.Rejected) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if res.Params.PostMS != 500 || res.Params.PreMS != 0 {
		t.Errorf("params = %+v", res.Params)
	}
}

func TestPostPresetBadBody(t *testing.T) {
	srv := newTestServer(t, &fakePlayer{}, &fakeSaver{})
	tests := []string{`{`, `{"pre_ms": "abc"}`, `{"post_ms": 1e30}`}
	for _, body := range tests {
		if resp := postJSON(t, srv.URL+"/api/preset", body); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestPostPresetSaveFailure(t *testing.T) {
	player := &fakePlayer{params: preset.Default()}
	srv := newTestServer(t, player, &fakeSaver{err: errors.New("disk full")})

	resp := postJSON(t, srv.URL+"/api/preset", `{"post_ms": 1}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if sets, _ := player.counts(); sets != 0 {
		t.Error("params applied although saving failed")
	}
}

func TestPresetMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakePlayer{}, &fakeSaver{})
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/preset", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestSkip(t *testing.T) {
	player := &fakePlayer{}
	srv := newTestServer(t, player, &fakeSaver{})

	resp, err := http.Get(srv.URL + "/api/skip")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", resp.StatusCode)
	}

	if resp := postJSON(t, srv.URL+"/api/skip", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("POST status = %d", resp.StatusCode)
	}
	if _, skips := player.counts(); skips != 1 {
		t.Errorf("skips = %d, want 1", skips)
	}
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t, &fakePlayer{params: preset.Default(), excluded: true}, &fakeSaver{})
	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	got := decode[map[string]any](t, resp)
	checks := map[string]any{
		"track_id":         "id-1",
		"track_path":       "/music/a.flac",
		"position":         float64(3),
		"duration":         float64(10),
		"excluded":         true,
		"http_listeners":   float64(2),
		"webrtc_listeners": float64(1),
	}
	for k, want := range checks {
		if got[k] != want {
			t.Errorf("%s = %v, want %v", k, got[k], want)
		}
	}
	if pl, ok := got["playlist"].(map[string]any); !ok || pl["tracks"] != float64(4) {
		t.Errorf("playlist = %v", got["playlist"])
	}
}
