package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog/log"

	"github.com/intervuave/interview-worker/internal/analysis"
	"github.com/intervuave/interview-worker/internal/cleanup"
	"github.com/intervuave/interview-worker/internal/config"
	"github.com/intervuave/interview-worker/internal/events"
	"github.com/intervuave/interview-worker/internal/handlers"
	"github.com/intervuave/interview-worker/internal/logging"
	"github.com/intervuave/interview-worker/internal/media"
	"github.com/intervuave/interview-worker/internal/notify"
	"github.com/intervuave/interview-worker/internal/observability"
	"github.com/intervuave/interview-worker/internal/pipeline"
	"github.com/intervuave/interview-worker/internal/queue"
	"github.com/intervuave/interview-worker/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.Logging.Level, cfg.Logging.Format)

	if err := cleanup.EnsureDirs(cfg.Storage.TempDir, cfg.Storage.ChunkDir); err != nil {
		log.Fatal().Err(err).Msg("failed to create working directories")
	}

	var store *storage.JobStore
	if cfg.Storage.Database != "" {
		if err := cleanup.EnsureDirs(filepath.Dir(cfg.Storage.Database)); err != nil {
			log.Fatal().Err(err).Msg("failed to create database directory")
		}
		store, err = storage.NewJobStore(cfg.Storage.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open job store")
		}
		defer store.Close()
	}

	hub := events.NewHub()
	runner := media.NewExecRunner()

	acquirer := media.NewAcquirer(cfg.Media.FFmpegPath, cfg.Storage.TempDir, runner)
	segmenter := media.NewSegmenter(cfg.Media.FFmpegPath, cfg.Storage.TempDir, cfg.Storage.ChunkDir, runner)
	transcript := analysis.NewTranscriptAnalyzer(cfg.Whisper.Command, cfg.Whisper.Model, cfg.Storage.TempDir, runner)
	emotion := analysis.NewEmotionAnalyzer(cfg.Analyzers.EmotionURL, cfg.Analyzers.Timeout)
	posture := analysis.NewPostureAnalyzer(cfg.Analyzers.PostureURL, cfg.Analyzers.Timeout)

	chunkPipeline := pipeline.NewChunkPipeline(segmenter, transcript, emotion, posture, hub)
	notifier := notify.NewNotifier(cfg.Callbacks.StatusTimeout, cfg.Callbacks.ResultTimeout)
	orchestrator := pipeline.NewOrchestrator(acquirer, segmenter, chunkPipeline, notifier, hub, cfg.Workers.ChunkConcurrency)

	workerPool := queue.NewWorkerPool(cfg.Workers.Count, orchestrator, store)
	workerPool.Start()

	cleanupScheduler := cleanup.NewScheduler(
		[]string{cfg.Storage.TempDir, cfg.Storage.ChunkDir},
		cfg.Cleanup.IntervalMinutes,
		cfg.Cleanup.MaxAgeHours,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	obsServer := observability.NewServer(cfg.Metrics.Addr)
	obsServer.Start()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	interviewHandler := handlers.NewInterviewHandler(workerPool, store)
	jobsHandler := handlers.NewJobsHandler(workerPool, store)
	eventsHandler := handlers.NewEventsHandler(hub)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Post("/process-interview", interviewHandler.Handle)
	app.Delete("/jobs/:id", jobsHandler.Cancel)
	if store != nil {
		app.Get("/jobs", jobsHandler.List)
		app.Get("/jobs/:id", jobsHandler.Get)
	}
	app.Get("/ws/events", websocket.New(eventsHandler.Handle))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("server starting")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("shutting down")
		_ = app.Shutdown()

		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = obsServer.Shutdown(ctx)
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
