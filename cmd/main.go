package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/clipforge/creator-studio/internal/assemblyai"
	"github.com/clipforge/creator-studio/internal/config"
	"github.com/clipforge/creator-studio/internal/email"
	"github.com/clipforge/creator-studio/internal/httpapi"
	"github.com/clipforge/creator-studio/internal/jobs"
	"github.com/clipforge/creator-studio/internal/persistence"
	"github.com/clipforge/creator-studio/internal/replicate"
	"github.com/clipforge/creator-studio/internal/shorts"
	"github.com/clipforge/creator-studio/internal/thumbnail"
	"github.com/clipforge/creator-studio/internal/trends"
	"github.com/clipforge/creator-studio/internal/youtube"
	"github.com/clipforge/creator-studio/pkg/log"
)

type scheduler interface {
	Schedule(ctx context.Context) error
}

type cronEngine interface {
	Start()
	Stop() context.Context
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.Server.LogLevel))

	store, err := persistence.NewSQLiteStore(cfg.Server.DBPath())
	if err != nil {
		log.Fatal("Failed to open store: %v", err)
	}
	defer store.Close()

	transcriber, err := assemblyai.NewClient(cfg.AssemblyAI.APIKey, cfg.AssemblyAI.APIURL)
	if err != nil {
		log.Fatal("Failed to create transcription client: %v", err)
	}
	generator, err := replicate.NewClient(cfg.Replicate.APIKey, cfg.Replicate.APIURL, cfg.Replicate.ModelVersion)
	if err != nil {
		log.Fatal("Failed to create generation client: %v", err)
	}
	notifier := email.NewClient(cfg.Email.ServiceID, cfg.Email.TemplateID, cfg.Email.UserID, cfg.Email.APIURL)
	pipeline := shorts.NewPipeline(transcriber, generator, notifier)

	queue := jobs.NewQueue(1, store)
	queue.Start(jobs.NewPipelineExecutor(queue, pipeline))
	defer queue.Stop()

	ytClient := youtube.New(cfg.YouTube.APIURL, cfg.YouTube.APIKey)
	engine := cron.New()
	cache := trends.New(ytClient, engine, cfg.Trends.CronExpr, cfg.Trends.Regions, cfg.Trends.MaxResults)

	server := httpapi.NewServer(queue, cfg.Server.UploadDir(),
		httpapi.WithUI(cfg.Server.UIStaticDir, cfg.Server.UIStaticDir != ""),
		httpapi.WithTrends(cache),
		httpapi.WithSearch(ytClient),
		httpapi.WithIdeas(store),
		httpapi.WithThumbnails(thumbnail.New(cfg.Thumbnail.APIURL, cfg.Thumbnail.APIKey)),
		httpapi.WithGenerationProxy(generator),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runWithComponents(ctx, cfg, cache, engine, server); err != nil {
		log.Error("Server exited with error: %v", err)
		os.Exit(1)
	}
}

func runWithComponents(
	ctx context.Context,
	cfg *config.Config,
	refresher scheduler,
	engine cronEngine,
	server httpServer,
) error {
	if err := refresher.Schedule(ctx); err != nil {
		return err
	}
	engine.Start()
	defer engine.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe(cfg.Server.Addr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
