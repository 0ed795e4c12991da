// cmd/server/main.go
//
// Entry point for the Recycle Sort server.
// Responsibilities:
//   - Load .env and the environment config; configure zerolog.
//   - Load the catalog (fatal on failure) and start the round store sweep.
//   - Serve HTTP until SIGINT/SIGTERM, then shut down gracefully.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/recycle-sort/internal/catalog"
	"github.com/robalobadob/recycle-sort/internal/config"
	"github.com/robalobadob/recycle-sort/internal/httpserver"
	"github.com/robalobadob/recycle-sort/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := catalog.SourceFromOptions(cfg.CatalogSource())
	loadCtx, cancel := context.WithTimeout(ctx, cfg.CatalogTimeout)
	cat, err := catalog.Load(loadCtx, src)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load catalog")
	}
	log.Info().Str("source", src.String()).Int("items", cat.Len()).Msg("catalog loaded")

	mem := store.NewMemoryStore()
	go mem.Run(ctx, time.Minute, cfg.RoundTTL)

	srv := httpserver.New(cat, mem, httpserver.Options{
		ClientOrigin: cfg.ClientOrigin,
		CookieSecure: cfg.CookieSecure,
		RoundSize:    cfg.RoundSize,
		MaxAttempts:  cfg.MaxAttempts,
		RoundTTL:     cfg.RoundTTL,
		Secret:       cfg.RoundSecret,
		DailySalt:    cfg.DailySalt,
	})

	log.Info().Str("port", cfg.Port).Msg("starting recycle-sort server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}
