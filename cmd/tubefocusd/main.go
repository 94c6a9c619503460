// Tubefocusd is the TubeFocus backend daemon.
//
// It scores YouTube videos against the user's session goal, monitors watch
// behavior through the coach, and serves the HTTP API the browser
// extension talks to.
//
// Configuration is loaded from an optional YAML file plus TUBEFOCUS_*
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	TUBEFOCUS_GEMINI_API_KEY=... TUBEFOCUS_YOUTUBE_API_KEY=... tubefocusd
//
//	# With a config file
//	tubefocusd -config /etc/tubefocus/config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/usnaveen/TubeFocus-Backend/internal/audit"
	"github.com/usnaveen/TubeFocus-Backend/internal/coach"
	"github.com/usnaveen/TubeFocus-Backend/internal/config"
	"github.com/usnaveen/TubeFocus-Backend/internal/genai"
	httpserver "github.com/usnaveen/TubeFocus-Backend/internal/http"
	"github.com/usnaveen/TubeFocus-Backend/internal/intent"
	"github.com/usnaveen/TubeFocus-Backend/internal/librarian"
	"github.com/usnaveen/TubeFocus-Backend/internal/logging"
	"github.com/usnaveen/TubeFocus-Backend/internal/scoring"
	"github.com/usnaveen/TubeFocus-Backend/internal/services"
	"github.com/usnaveen/TubeFocus-Backend/internal/telemetry"
	"github.com/usnaveen/TubeFocus-Backend/internal/youtube"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tubefocusd\nVersion:    %s\nCommit:     %s\nBuild Date: %s\n",
			version, gitCommit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// run wires all services and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting tubefocusd",
		zap.String("version", version),
		zap.String("commit", gitCommit))

	tel, err := telemetry.New(version, logger.Named("telemetry"))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	gemini, err := genai.NewClient(genai.Config{
		APIKey:         cfg.Gemini.APIKey.Value(),
		Model:          cfg.Gemini.Model,
		EmbeddingModel: cfg.Gemini.EmbeddingModel,
		BaseURL:        cfg.Gemini.BaseURL,
		Timeout:        cfg.Gemini.Timeout.Duration(),
		MaxRetries:     cfg.Gemini.MaxRetries,
	}, logger.Named("genai"))
	if err != nil {
		return fmt.Errorf("initializing gemini client: %w", err)
	}

	videos, err := youtube.NewClient(youtube.Config{
		APIKey:   cfg.YouTube.APIKey.Value(),
		BaseURL:  cfg.YouTube.BaseURL,
		Timeout:  cfg.YouTube.Timeout.Duration(),
		CacheTTL: cfg.YouTube.CacheTTL.Duration(),
	}, logger.Named("youtube"))
	if err != nil {
		return fmt.Errorf("initializing youtube client: %w", err)
	}

	scorer, err := scoring.NewScorer(gemini, logger.Named("scoring"))
	if err != nil {
		return fmt.Errorf("initializing scorer: %w", err)
	}

	auditor, err := audit.NewAuditor(videos, gemini, logger.Named("audit"))
	if err != nil {
		return fmt.Errorf("initializing auditor: %w", err)
	}

	coachCfg := coach.DefaultConfig()
	coachCfg.Cooldown = cfg.Coach.Cooldown.Duration()
	coachCfg.MaxEvents = cfg.Coach.MaxEvents
	coachCfg.MaxSessions = cfg.Coach.MaxSessions
	coachCfg.MessageTimeout = cfg.Coach.MessageTimeout.Duration()

	coachSvc, err := coach.NewService(coachCfg,
		coach.WithLogger(logger.Named("coach")),
		coach.WithMessenger(services.NewCoachMessenger(gemini)))
	if err != nil {
		return fmt.Errorf("initializing coach: %w", err)
	}

	lib, err := librarian.New(librarian.Config{
		Path:     cfg.Librarian.Path,
		Compress: cfg.Librarian.Compress,
	}, gemini, logger.Named("librarian"))
	if err != nil {
		return fmt.Errorf("initializing librarian: %w", err)
	}

	registry := services.NewRegistry(services.Options{
		Coach:     coachSvc,
		Scorer:    scorer,
		Intent:    intent.NewClassifier(gemini, logger.Named("intent")),
		Auditor:   auditor,
		Librarian: lib,
		Videos:    videos,
	})

	server, err := httpserver.NewServer(registry, logger.Named("http"), &httpserver.Config{
		Host:   cfg.Server.Host,
		Port:   cfg.Server.Port,
		APIKey: cfg.Server.APIKey.Value(),
	})
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
