package stream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/satindergrewal/affix/internal/audio"
)

func TestMP3EncoderArgsReadFloatPCM(t *testing.T) {
	args := mp3EncoderArgs()
	checks := [][2]string{
		{"-f", "f32le"},
		{"-ar", "48000"},
		{"-ac", "2"},
		{"-i", "pipe:0"},
	}
	for _, c := range checks {
		i := slices.Index(args, c[0])
		if i < 0 || i+1 >= len(args) || args[i+1] != c[1] {
			t.Errorf("missing %s %s in %v", c[0], c[1], args)
		}
	}
	if args[len(args)-1] != "pipe:1" {
		t.Errorf("last arg = %q, want pipe:1", args[len(args)-1])
	}
}

func TestFeedPCMWritesFrames(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()
	pr, pw := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		feedPCM(ctx, l, pw)
		close(done)
	}()

	frame := []float32{1, -1}
	l.C <- frame

	buf := make([]byte, 8)
	if _, err := io.ReadFull(pr, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	got := audio.BytesToSamples(buf)
	if !slices.Equal(got, frame) {
		t.Errorf("samples = %v, want %v", got, frame)
	}

	b.Unsubscribe(l)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feedPCM did not return after unsubscribe")
	}
	if _, err := pr.Read(buf); err != io.EOF {
		t.Errorf("read after stop = %v, want EOF", err)
	}
}

func TestFeedPCMStopsOnWriteError(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()
	defer b.Unsubscribe(l)
	pr, pw := io.Pipe()
	pr.Close()

	done := make(chan struct{})
	go func() {
		feedPCM(context.Background(), l, pw)
		close(done)
	}()
	l.C <- []float32{0}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feedPCM kept running after a failed write")
	}
}

func TestWebRTCHandlerRejects(t *testing.T) {
	h := NewWebRTCHandler(NewBroadcaster(), "affix", zaptest.NewLogger(t))

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"preflight", http.MethodOptions, "", http.StatusOK},
		{"get", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, "{not json", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/offer", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
	if h.PeerCount() != 0 {
		t.Errorf("PeerCount = %d, want 0", h.PeerCount())
	}
}
