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
	"github.com/secondbrain/realtime/internal/config"
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

	reg := app.NewRegistry()
	rooms := app.NewDirectory()
	chat := app.NewChat(reg, rooms)

	ctl := &ws.ChatController{
		Orch:         chat,
		WriteTimeout: cfg.WriteTimeout,
	}

	r := ws.SetupChatRouter(ctx, cfg, ctl)
	srv := &http.Server{
		Addr:    cfg.ChatAddr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", cfg.ChatAddr).Msg("chat server started")
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
