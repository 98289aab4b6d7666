package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/secondbrain/realtime/internal/app"
	"github.com/secondbrain/realtime/internal/backend"
	"github.com/secondbrain/realtime/internal/config"
	"github.com/secondbrain/realtime/internal/stt"
	"github.com/secondbrain/realtime/internal/transport/ws"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	engine := stt.NewRemoteEngine(cfg.RecognizerURL)

	// Fail fast: refuse to accept any connection when the recognizer
	// backend cannot be reached.
	probeCtx, probeCancel := context.WithTimeout(ctx, 10*time.Second)
	defer probeCancel()
	if err := engine.Probe(probeCtx); err != nil {
		log.Fatal().Err(err).Msg("recognizer engine unavailable")
	}
	log.Info().Str("url", cfg.RecognizerURL).Msg("recognizer engine reachable")

	var notes *backend.Client
	if cfg.Backend.URL != "" {
		notes = backend.NewClient(cfg.Backend.URL, cfg.Backend.Token)
		log.Info().Str("url", cfg.Backend.URL).Msg("transcript notes enabled")
	}

	ctl := &ws.STTController{
		Registry:     app.NewRegistry(),
		Engine:       engine,
		Backend:      notes,
		SampleRate:   cfg.SampleRate,
		ReadLimit:    cfg.ReadLimit,
		WriteTimeout: cfg.WriteTimeout,
	}

	r := ws.SetupSTTRouter(ctx, cfg, ctl)
	srv := &http.Server{
		Addr:    cfg.STTAddr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", cfg.STTAddr).Msg("stt server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited gracefully")
}
