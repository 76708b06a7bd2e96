package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satindergrewal/affix/internal/audio"
	"github.com/satindergrewal/affix/internal/playlist"
	"github.com/satindergrewal/affix/internal/preset"
)

// Player is the playback side of the API.
type Player interface {
	Status() (track audio.TrackInfo, position, duration time.Duration)
	Excluded() bool
	Skip()
	Params() preset.Params
	SetParams(p preset.Params)
}

// Saver persists silence parameters.
type Saver interface {
	SaveParams(p preset.Params) error
}

// Deps wires the API to the rest of the server. Listeners and Playlist are
// optional.
type Deps struct {
	Player    Player
	Store     Saver
	Listeners func() (httpListeners, webrtcPeers int)
	Playlist  func() playlist.Status
	Log       *zap.Logger
}

// Server serves the JSON control API.
type Server struct {
	deps Deps
	log  *zap.Logger

	editMu sync.Mutex // serializes read-modify-write of the preset
}

// New creates the API server.
func New(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{deps: d, log: log}
}

// Register mounts the API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/skip", s.handleSkip)
	mux.HandleFunc("/api/preset", s.handlePreset)
}

// ParamsJSON is the wire shape of silence parameters.
type ParamsJSON struct {
	PostMS       uint32   `json:"post_ms"`
	PreMS        uint32   `json:"pre_ms"`
	SkipSubpaths []string `json:"skip_subpaths"`
}

func toJSON(p preset.Params) ParamsJSON {
	skip := p.SkipSubpaths
	if skip == nil {
		skip = []string{}
	}
	return ParamsJSON{PostMS: p.PostSilenceMS, PreMS: p.PreSilenceMS, SkipSubpaths: skip}
}

// EditRequest is the POST /api/preset body. Absent fields are left alone;
// skip_subpaths is the raw ';'-separated text.
type EditRequest struct {
	PostMS       *int64  `json:"post_ms"`
	PreMS        *int64  `json:"pre_ms"`
	SkipSubpaths *string `json:"skip_subpaths"`
}

// EditResult reports what an edit did.
type EditResult struct {
	OK       bool              `json:"ok"`
	Changed  bool              `json:"changed"`
	Rejected []preset.Rejected `json:"rejected"`
	Params   ParamsJSON        `json:"params"`
}

// ApplyEdit applies e to the current parameters. Out-of-range durations are
// reverted and reported. The result is saved and handed to the player only
// when it differs from what is current.
func (s *Server) ApplyEdit(e preset.Edit) (EditResult, error) {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	current := s.deps.Player.Params()
	next, rejected := current.Apply(e)
	if rejected == nil {
		rejected = []preset.Rejected{}
	}
	for _, r := range rejected {
		s.log.Warn("preset value reverted",
			zap.String("field", r.Field),
			zap.Int64("value", r.Value),
			zap.Uint32("restored", r.Restored))
	}

	res := EditResult{OK: true, Rejected: rejected, Params: toJSON(current)}
	if next.Equal(current) {
		return res, nil
	}
	if s.deps.Store != nil {
		if err := s.deps.Store.SaveParams(next); err != nil {
			return EditResult{}, err
		}
	}
	s.deps.Player.SetParams(next)
	res.Changed = true
	res.Params = toJSON(next)
	return res, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	track, pos, dur := s.deps.Player.Status()
	status := map[string]any{
		"track_id":   track.ID,
		"track_name": track.Name,
		"track_path": track.Path,
		"position":   pos.Seconds(),
		"duration":   dur.Seconds(),
		"excluded":   s.deps.Player.Excluded(),
		"params":     toJSON(s.deps.Player.Params()),
	}
	if s.deps.Listeners != nil {
		httpN, webrtcN := s.deps.Listeners()
		status["http_listeners"] = httpN
		status["webrtc_listeners"] = webrtcN
	}
	if s.deps.Playlist != nil {
		status["playlist"] = s.deps.Playlist()
	}
	writeJSON(w, status)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.deps.Player.Skip()
	writeJSON(w, map[string]any{"ok": true})
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, toJSON(s.deps.Player.Params()))
	case http.MethodPost:
		var req EditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		res, err := s.ApplyEdit(preset.Edit{
			PreSilenceMS:  req.PreMS,
			PostSilenceMS: req.PostMS,
			SkipSubpaths:  req.SkipSubpaths,
		})
		if err != nil {
			s.log.Error("save preset", zap.Error(err))
			http.Error(w, "could not save preset", http.StatusInternalServerError)
			return
		}
		writeJSON(w, res)
	default:
		http.Error(w, "GET or POST required", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_ = json.NewEncoder(w).Encode(v)
}
