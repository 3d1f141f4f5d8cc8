package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/michelutke/volleyball-scoreboard/internal/config"
	"github.com/michelutke/volleyball-scoreboard/internal/httpapi"
	"github.com/michelutke/volleyball-scoreboard/internal/hub"
	"github.com/michelutke/volleyball-scoreboard/internal/scoreboard"
	"github.com/michelutke/volleyball-scoreboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	h := hub.NewHub(ctx, logger)
	svc := scoreboard.New(st, h, logger)

	// Build the router *with* the service and hub injected
	handler := httpapi.SetupRoutes(svc, h, logger, cfg.KeepaliveInterval)

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		h.Shutdown()
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}
