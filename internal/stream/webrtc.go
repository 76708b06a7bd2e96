package stream

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"go.uber.org/zap"
	"gopkg.in/hraban/opus.v2"

	"github.com/satindergrewal/affix/internal/audio"
)

const opusBitrate = 128000

// WebRTCHandler serves WebRTC SDP negotiation for low-latency Opus streaming.
type WebRTCHandler struct {
	broadcaster *Broadcaster
	streamID    string
	log         *zap.Logger

	mu    sync.Mutex
	peers map[*webrtc.PeerConnection]chan struct{} // closed on disconnect
}

// NewWebRTCHandler creates a WebRTC stream handler.
func NewWebRTCHandler(b *Broadcaster, streamID string, log *zap.Logger) *WebRTCHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebRTCHandler{
		broadcaster: b,
		streamID:    streamID,
		log:         log,
		peers:       make(map[*webrtc.PeerConnection]chan struct{}),
	}
}

// PeerCount returns the number of active WebRTC peers.
func (h *WebRTCHandler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *WebRTCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, track, status, err := h.answer(offer)
	if err != nil {
		h.log.Warn("webrtc negotiation failed", zap.Error(err))
		http.Error(w, err.Error(), status)
		return
	}

	stop := make(chan struct{})
	h.mu.Lock()
	h.peers[pc] = stop
	h.mu.Unlock()
	h.log.Info("webrtc peer connected", zap.Int("peers", h.PeerCount()))

	go h.streamToPeer(track, stop)

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		switch s {
		case webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateClosed,
			webrtc.PeerConnectionStateDisconnected:
			if h.removePeer(pc) {
				pc.Close()
				h.log.Info("webrtc peer disconnected", zap.Int("peers", h.PeerCount()))
			}
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_ = json.NewEncoder(w).Encode(pc.LocalDescription())
}

// answer builds a peer connection with one Opus track and completes ICE
// gathering. The returned status is meaningful only with a non-nil error.
func (h *WebRTCHandler) answer(offer webrtc.SessionDescription) (*webrtc.PeerConnection, *webrtc.TrackLocalStaticSample, int, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, nil, http.StatusInternalServerError, err
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: audio.SampleRate, Channels: audio.Channels},
		"audio",
		h.streamID,
	)
	if err != nil {
		pc.Close()
		return nil, nil, http.StatusInternalServerError, err
	}
	if _, err := pc.AddTrack(track); err != nil {
		pc.Close()
		return nil, nil, http.StatusInternalServerError, err
	}
	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		return nil, nil, http.StatusBadRequest, err
	}

	ans, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return nil, nil, http.StatusInternalServerError, err
	}
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(ans); err != nil {
		pc.Close()
		return nil, nil, http.StatusInternalServerError, err
	}
	<-gatherComplete

	return pc, track, 0, nil
}

func (h *WebRTCHandler) streamToPeer(track *webrtc.TrackLocalStaticSample, stop <-chan struct{}) {
	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	enc, err := opus.NewEncoder(audio.SampleRate, audio.Channels, opus.AppAudio)
	if err != nil {
		h.log.Error("webrtc: opus encoder", zap.Error(err))
		return
	}
	if err := enc.SetBitrate(opusBitrate); err != nil {
		h.log.Warn("webrtc: opus bitrate", zap.Error(err))
	}

	opusBuf := make([]byte, 4000)
	for {
		select {
		case <-stop:
			return
		case <-listener.Done():
			return
		case frame, ok := <-listener.C:
			if !ok {
				return
			}
			n, err := enc.EncodeFloat32(frame, opusBuf)
			if err != nil {
				h.log.Warn("webrtc: opus encode", zap.Error(err))
				continue
			}
			if err := track.WriteSample(media.Sample{
				Data:     opusBuf[:n],
				Duration: audio.FrameDuration,
			}); err != nil {
				return
			}
		}
	}
}

// removePeer forgets pc, stops its sender and reports whether it was still
// registered.
func (h *WebRTCHandler) removePeer(pc *webrtc.PeerConnection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	stop, ok := h.peers[pc]
	if !ok {
		return false
	}
	delete(h.peers, pc)
	close(stop)
	return true
}
