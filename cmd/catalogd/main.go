// Package main wires together the catalog service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	gpubsub "cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/imagifhub/media-catalog/internal/api"
	"github.com/imagifhub/media-catalog/internal/catalog"
	"github.com/imagifhub/media-catalog/internal/clock/system"
	"github.com/imagifhub/media-catalog/internal/commands"
	"github.com/imagifhub/media-catalog/internal/config"
	"github.com/imagifhub/media-catalog/internal/feed"
	"github.com/imagifhub/media-catalog/internal/id/uuid"
	"github.com/imagifhub/media-catalog/internal/ingest"
	"github.com/imagifhub/media-catalog/internal/logging"
	gcsmedia "github.com/imagifhub/media-catalog/internal/mediastore/gcs"
	memorymedia "github.com/imagifhub/media-catalog/internal/mediastore/memory"
	"github.com/imagifhub/media-catalog/internal/probe"
	pubsubpublisher "github.com/imagifhub/media-catalog/internal/publisher/pubsub"
	"github.com/imagifhub/media-catalog/internal/reaper"
	memorystore "github.com/imagifhub/media-catalog/internal/storage/memory"
	"github.com/imagifhub/media-catalog/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := buildRepository(ctx, cfg)
	if err != nil {
		logger.Fatal("repository init failed", zap.Error(err))
	}
	defer closeRepo()

	media, err := buildMediaStore(ctx, cfg)
	if err != nil {
		logger.Fatal("media store init failed", zap.Error(err))
	}

	var publisher catalog.Publisher
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		client, err := gpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("pubsub client init failed", zap.Error(err))
		}
		defer client.Close() //nolint:errcheck
		publisher = pubsubpublisher.New(client)
	}

	gate := ingest.NewGate(cfg.Ingest.OperatorID)
	manager := ingest.NewManager(
		gate,
		media,
		repo,
		publisher,
		system.New(),
		uuid.New(),
		ingest.Config{
			SessionTTL:  cfg.SessionTTL(),
			ExpirySweep: cfg.ExpirySweep(),
			MediaPrefix: cfg.Media.Prefix,
			ContentType: cfg.Media.ContentType,
			Topic:       cfg.PubSub.TopicName,
		},
		logger.Named("ingest"),
	)

	queue := commands.NewQueue(cfg.Ingest.CommandQueueSize)
	runner := commands.NewRunner(queue, manager, logger.Named("commands"))

	feedSvc := feed.New(repo, feed.Config{MaxItems: cfg.Feed.MaxItems}, logger.Named("feed"))
	server := api.NewServer(feedSvc, cfg, logger.Named("api"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runner.Run(ctx)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		manager.RunExpiry(ctx)
	}()

	if cfg.Reaper.Enabled {
		prober := probe.New(nil, probe.Config{Timeout: cfg.ProbeTimeout()})
		rp := reaper.New(repo, prober, reaper.Config{
			Interval:    cfg.ReaperInterval(),
			ProbeRPS:    cfg.Reaper.ProbeRPS,
			Concurrency: cfg.Reaper.Concurrency,
		}, logger.Named("reaper"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			rp.Run(ctx)
		}()
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	queue.Close()
	wg.Wait()
}

func buildRepository(ctx context.Context, cfg config.Config) (catalog.Repository, func(), error) {
	if cfg.DB.DSN == "" {
		return memorystore.NewCatalogStore(), func() {}, nil
	}
	store, err := postgres.NewCatalogStore(ctx, postgres.CatalogStoreConfig{
		DSN:             cfg.DB.DSN,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func buildMediaStore(ctx context.Context, cfg config.Config) (catalog.MediaStore, error) {
	if cfg.Media.GCSBucket == "" {
		return memorymedia.NewMediaStore(), nil
	}
	client, err := gstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return gcsmedia.New(client, gcsmedia.Config{Bucket: cfg.Media.GCSBucket})
}
