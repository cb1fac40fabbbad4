package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"snipbin/cfg"
	"snipbin/metrics"
	"snipbin/svc/api"
	"snipbin/svc/db"
	"snipbin/svc/session"
	"snipbin/svc/svc"
	"snipbin/svc/util"
)

func main() {
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		util.InitLog("info", true)
		util.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(c); err != nil {
		util.InitLog("info", true)
		util.Fatal().Err(err).Msg("invalid configuration")
	}
	defer c.Wipe()
	util.InitLog(c.LogLevel, c.Environment == "development")
	util.Info().Msg("starting snipbin API")
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	store, err := db.NewMongo(connectCtx, c.MongoURI, c.MongoDB)
	if err != nil {
		util.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	defer store.Close(context.Background())
	if err := store.EnsureIndexes(connectCtx); err != nil {
		util.Fatal().Err(err).Msg("failed to ensure indexes")
	}
	util.Info().Str("db", c.MongoDB).Msg("mongo connected")

	var rdb *db.Redis
	if c.RedisURL != "" {
		rdb, err = db.NewRedis(c.RedisURL, c)
		if err != nil {
			if c.Environment == "production" {
				util.Fatal().Err(err).Msg("redis required in production")
			}
			util.Warn().Err(err).Msg("redis unavailable (dev mode): sessions will not persist")
		} else {
			util.Info().Msg("redis connected")
		}
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var backend session.Backend
	if rdb != nil {
		backend = rdb
	}
	sessions := session.NewManager(
		backend,
		[]byte(c.SessionSecret.Value()),
		c.SessionTTL,
		c.Environment == "production",
	)

	pasteSvc := svc.NewPaste(store)

	if err := svc.StartSweeper(ctx, store, c.Retention()); err != nil {
		util.Error().Err(err).Msg("failed to start sweeper")
	} else {
		util.Info().Dur("retention", c.Retention()).Msg("expiration sweeper armed")
	}

	server := api.NewServer(c, pasteSvc, sessions, store, rdb)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		util.Info().Msg("shutting down gracefully...")
		return server.Shutdown(shutdownCtx)
	})
	util.Info().Str("port", c.Port).Str("environment", c.Environment).Msg("server starting")
	if err := g.Wait(); err != nil {
		util.Error().Err(err).Msg("server exited with error")
	}
	util.Info().Msg("shutdown complete")
}
