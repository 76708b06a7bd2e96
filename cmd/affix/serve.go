package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/satindergrewal/affix/internal/api"
	"github.com/satindergrewal/affix/internal/audio"
	"github.com/satindergrewal/affix/internal/logger"
	"github.com/satindergrewal/affix/internal/playlist"
	"github.com/satindergrewal/affix/internal/preset"
	"github.com/satindergrewal/affix/internal/presetstore"
	"github.com/satindergrewal/affix/internal/stream"
)

// ServeCmd runs the radio server.
type ServeCmd struct {
	Port     int    `help:"HTTP port, overrides AFFIX_PORT."`
	MusicDir string `type:"path" placeholder:"DIR" help:"Music directory, overrides AFFIX_MUSIC_DIR."`
}

func (s *ServeCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	if s.Port != 0 {
		cfg.Port = s.Port
	}
	if s.MusicDir != "" {
		cfg.MusicDir = s.MusicDir
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   true,
	})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("affix starting up", zap.String("version", version))

	store, err := presetstore.Open(cfg.PresetDir, log.Named("presets"))
	if err != nil {
		return err
	}
	params, err := store.LoadParams()
	if err != nil {
		log.Warn("using default silence preset", zap.Error(err))
	}

	// Audio pipeline
	pipeline := audio.NewPipeline(params, log.Named("pipeline"))
	go pipeline.Run(ctx)

	// Broadcaster: fan-out PCM frames to all listeners
	broadcaster := stream.NewBroadcaster()
	go broadcaster.Run(ctx, pipeline.Frames())

	feeder := playlist.NewFeeder(pipeline, playlist.Config{
		Dir:         cfg.MusicDir,
		BufferAhead: cfg.BufferAhead,
		Shuffle:     cfg.Shuffle,
		Loop:        cfg.Loop,
	}, log.Named("playlist"))
	go feeder.Run(ctx)

	// Presets edited on disk land between tracks like API edits.
	go func() {
		err := store.Watch(ctx, preset.OwnerID, func(b preset.Blob) {
			if err := pipeline.SetPreset(b); err != nil {
				log.Warn("ignoring stored preset", zap.Error(err))
				return
			}
			log.Info("preset reloaded from disk")
		})
		if err != nil {
			log.Warn("preset watcher stopped", zap.Error(err))
		}
	}()

	webrtcHandler := stream.NewWebRTCHandler(broadcaster, "affix", log.Named("webrtc"))

	mux := http.NewServeMux()
	mux.Handle("/stream", stream.NewHTTPHandler(broadcaster, "affix", log.Named("http")))
	mux.Handle("/offer", webrtcHandler)

	api.New(api.Deps{
		Player: pipeline,
		Store:  store,
		Listeners: func() (int, int) {
			return broadcaster.ListenerCount(), webrtcHandler.PeerCount()
		},
		Playlist: feeder.Status,
		Log:      log.Named("api"),
	}).Register(mux)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("affix live",
		zap.String("addr", addr),
		zap.String("music_dir", cfg.MusicDir),
		zap.String("preset_dir", store.Dir()))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
