package ws

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/secondbrain/realtime/internal/config"
)

func newEngine(cfg *config.Config) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	return r
}

// SetupChatRouter serves the chat websocket at the root path, where the web
// client connects.
func SetupChatRouter(ctx context.Context, cfg *config.Config, ctl *ChatController) *gin.Engine {
	r := newEngine(cfg)
	r.GET("/", func(c *gin.Context) {
		ctl.Handle(ctx, c)
	})
	log.Info().Str("module", "transport.ws").Msg("chat router setup")
	return r
}

// SetupSTTRouter serves the recognition websocket at the root path.
func SetupSTTRouter(ctx context.Context, cfg *config.Config, ctl *STTController) *gin.Engine {
	r := newEngine(cfg)
	r.GET("/", func(c *gin.Context) {
		ctl.Handle(ctx, c)
	})
	log.Info().Str("module", "transport.ws").Msg("stt router setup")
	return r
}
