// Command voxfront is the voice-agent orchestration server: persona registry,
// customer store, session/token API, and the in-process agent dispatcher.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/voxfront/voxfront/internal/agent"
	"github.com/voxfront/voxfront/internal/config"
	"github.com/voxfront/voxfront/internal/customer"
	"github.com/voxfront/voxfront/internal/httpapi"
	"github.com/voxfront/voxfront/internal/observe"
	"github.com/voxfront/voxfront/internal/persona"
	"github.com/voxfront/voxfront/internal/session"
	"github.com/voxfront/voxfront/internal/worker"
	"github.com/voxfront/voxfront/pkg/provider/realtime/grok"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "voxfront: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxfront starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observability ─────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voxfront",
		ServiceVersion: httpapi.Version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Personas and customers ────────────────────────────────────────────────
	registry, err := persona.Load(cfg.Personas.Dir)
	if err != nil {
		slog.Error("failed to load personas", "dir", cfg.Personas.Dir, "err", err)
		return 1
	}
	if _, ok := registry.Get(persona.DefaultID); !ok {
		slog.Error("personas directory carries no "+persona.DefaultID+" persona", "dir", cfg.Personas.Dir)
		return 1
	}
	customers := customer.NewStore(registry)
	slog.Info("personas loaded", "dir", cfg.Personas.Dir, "count", registry.Len())

	// ── Session service and HTTP surface ──────────────────────────────────────
	sessions := session.NewService(cfg.Room, customers)
	server := httpapi.New(cfg, customers, sessions, metrics)

	// ── Agent dispatcher ──────────────────────────────────────────────────────
	var runner *agent.Runner
	if cfg.RoomConfigured() && cfg.RealtimeConfigured() {
		var grokOpts []grok.Option
		if cfg.Realtime.Model != "" {
			grokOpts = append(grokOpts, grok.WithModel(cfg.Realtime.Model))
		}
		if cfg.Realtime.BaseURL != "" {
			grokOpts = append(grokOpts, grok.WithBaseURL(cfg.Realtime.BaseURL))
		}
		provider := grok.New(cfg.Realtime.APIKey, grokOpts...)

		w, err := worker.New(worker.Config{
			Registry:      registry,
			Provider:      provider,
			RecordingsDir: cfg.Recordings.Dir,
			SaveMetadata:  !cfg.Recordings.DisableMetadata,
			Metrics:       metrics,
		})
		if err != nil {
			slog.Error("failed to create agent worker", "err", err)
			return 1
		}
		runner, err = agent.New(cfg.Room, w)
		if err != nil {
			slog.Error("failed to create agent dispatcher", "err", err)
			return 1
		}
	} else {
		slog.Warn("agent dispatch disabled — room or realtime service not configured",
			"missing", cfg.Status().Missing())
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg, registry.Len())

	g, runCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(runCtx) })
	if runner != nil {
		g.Go(func() error { return runner.Run(runCtx, sessions.Announcements()) })
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, personaCount int) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        Voxfront — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printService("Room service", cfg.RoomConfigured())
	printService("Realtime model", cfg.RealtimeConfigured())
	fmt.Printf("║  Personas        : %-19d ║\n", personaCount)
	fmt.Printf("║  Recordings dir  : %-19s ║\n", trim(cfg.Recordings.Dir))
	fmt.Printf("║  Listen addr     : %-19s ║\n", trim(cfg.Server.ListenAddr))
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printService(name string, configured bool) {
	value := "configured"
	if !configured {
		value = "(not configured)"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", name, value)
}

func trim(value string) string {
	if len(value) > 19 {
		return value[:16] + "…"
	}
	return value
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
