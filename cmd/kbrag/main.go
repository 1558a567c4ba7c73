package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/kbrag/kbrag/internal/ai"
	"github.com/kbrag/kbrag/internal/config"
	"github.com/kbrag/kbrag/internal/embedcache"
	"github.com/kbrag/kbrag/internal/filestore"
	"github.com/kbrag/kbrag/internal/handler"
	"github.com/kbrag/kbrag/internal/job"
	"github.com/kbrag/kbrag/internal/middleware"
	"github.com/kbrag/kbrag/internal/repo"
	"github.com/kbrag/kbrag/internal/schedule"
	"github.com/kbrag/kbrag/internal/service"
	"github.com/kbrag/kbrag/internal/vecindex"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "kbrag",
		Short: "kbrag document question answering server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run kbrag server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			db, err := repo.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := repo.ApplyMigrations(db); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, db)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildGenerator(cfg config.AIConfig) (service.Generator, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	entries := make([]ai.GeneratorEntry, 0, len(cfg.Generate))
	for _, p := range cfg.Generate {
		provider, err := ai.NewProvider(p.Provider, p.Data)
		if err != nil {
			return nil, fmt.Errorf("init generate provider %s: %w", p.Provider, err)
		}
		gen := ai.WithRetry(ai.NewGenerator(provider, p.Model), cfg.Retries, timeout)
		entries = append(entries, ai.GeneratorEntry{
			Name:      p.Provider + "/" + p.Model,
			Generator: gen,
		})
	}
	return ai.NewGroupGenerator(entries), nil
}

func buildEmbedder(cfg config.AIConfig, cache config.CacheConfig, indexStore *vecindex.Store, cacheRepo *repo.EmbeddingCacheRepo) (ai.IEmbedder, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	remote := make([]ai.EmbedderEntry, 0, len(cfg.Embed))
	for _, p := range cfg.Embed {
		provider, err := ai.NewEmbedProvider(p.Provider, p.Data)
		if err != nil {
			return nil, fmt.Errorf("init embed provider %s: %w", p.Provider, err)
		}
		emb := ai.WithEmbedRetry(ai.NewEmbedder(provider, p.Model), cfg.Retries, timeout)
		remote = append(remote, ai.EmbedderEntry{
			Name:     p.Model,
			Embedder: emb,
		})
	}

	entries := make([]ai.EmbedderEntry, 0, 2)
	if len(remote) > 0 {
		// both cache tiers sit inside the chain, around real model output
		// only: fallback vectors must never be persisted under these keys
		remoteChain := ai.NewGroupEmbedder(remote)
		cached := embedcache.WrapDB(remoteChain, cacheRepo)
		cached = embedcache.WrapLRU(cached, cache.LRUSize, time.Duration(cache.LRUTTLMinutes)*time.Minute)
		entries = append(entries, ai.EmbedderEntry{Name: remoteChain.ModelName(), Embedder: cached})
	}
	// local fallback keeps ingestion and search functional without a provider
	local := ai.NewLocalEmbedder(indexStore.EmbeddingDim)
	entries = append(entries, ai.EmbedderEntry{Name: local.ModelName(), Embedder: local})
	return ai.NewGroupEmbedder(entries), nil
}

func runServer(cfg *config.Config, db *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("index_dir", cfg.IndexDir),
		zap.String("file_store", cfg.FileStore.Type),
	)

	docRepo := repo.NewDocumentRepo(db)
	passageRepo := repo.NewPassageRepo(db)
	cacheRepo := repo.NewEmbeddingCacheRepo(db)
	indexStore := vecindex.NewStore(cfg.IndexDir)

	files, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	generator, err := buildGenerator(cfg.AI)
	if err != nil {
		return err
	}
	embedder, err := buildEmbedder(cfg.AI, cfg.Cache, indexStore, cacheRepo)
	if err != nil {
		return err
	}

	ingestService := service.NewIngestService(docRepo, passageRepo, indexStore, embedder, files, cfg.Chunking, cfg.Limits)
	ragService := service.NewRAGService(docRepo, passageRepo, indexStore, embedder, generator, cfg.Limits)

	deps := handler.RouterDeps{
		Documents:       handler.NewDocumentHandler(ingestService),
		Query:           handler.NewQueryHandler(ragService),
		QueryRateWindow: time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORS),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	cleanup := job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Cache.DBMaxAgeDays)
	if err := scheduler.AddJob(cleanup, cfg.Cache.CleanupCron); err != nil {
		return fmt.Errorf("schedule cleanup job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
