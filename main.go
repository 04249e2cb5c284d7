package main

import (
	"colorhunt/classifier"
	"colorhunt/config"
	"colorhunt/game"
	"colorhunt/logger"
	"colorhunt/migrations"
	"colorhunt/palette"
	"colorhunt/results"
	"colorhunt/storage"
	"colorhunt/telemetry"
	"context"
	"errors"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

// loadPalette reads the taxonomy from Postgres when configured, migrating the
// schema first, and falls back to the embedded one otherwise.
func loadPalette(ctx context.Context, cfg config.Config) (*palette.Palette, error) {
	if cfg.PostgresURL == "" {
		return palette.Default(), nil
	}
	if err := migrations.Migrate(cfg.PostgresURL); err != nil {
		return nil, err
	}
	repo, err := storage.NewPostgresRepo(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	defer repo.Close()
	return repo.LoadPalette(ctx)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Setup(cfg.Debug, cfg.LogFormat)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "colorhunt", cfg.OtelEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	taxonomy, err := loadPalette(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load colour palette")
	}
	log.Info().Strs("families", taxonomy.Families()).Msg("palette loaded")

	// Dependencies
	colorClassifier := classifier.NewClient(cfg.ClassifierURL, cfg.ClassifierTimeout, taxonomy)
	idGen := game.NewIdGen(cfg.RoomCodeLength)
	tickerGen := game.NewTickerGen()

	registry := game.NewRegistry(idGen, tickerGen, colorClassifier, taxonomy.Families(), game.Settings{
		CountdownTicks: cfg.CountdownTicks,
		RoundTicks:     cfg.RoundTicks,
		TickInterval:   cfg.TickInterval,
	})

	if cfg.RedisAddr != "" {
		publisher := results.NewRedisPublisher(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.RedisResultsChannel)
		defer publisher.Close()
		registry.SetResultRecorder(publisher)
	}

	r := CreateServer(cfg.AllowedOrigins)
	gameHandler := game.NewGameHandler(game.NewRouter(registry), tickerGen, cfg.SendBuffer, cfg.AllowedOrigins)
	gameHandler.Register(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	registry.Shutdown()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown failed")
	}
}
