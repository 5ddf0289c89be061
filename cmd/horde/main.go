package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/horde/internal/broadcast"
	"github.com/udisondev/horde/internal/combat"
	"github.com/udisondev/horde/internal/config"
	"github.com/udisondev/horde/internal/data"
	"github.com/udisondev/horde/internal/db"
	"github.com/udisondev/horde/internal/event"
	"github.com/udisondev/horde/internal/game/skill"
	"github.com/udisondev/horde/internal/model"
	"github.com/udisondev/horde/internal/session"
)

const DefaultConfigPath = "config/horde.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := flag.String("config", DefaultConfigPath, "path to engine config")
	flag.Parse()
	if p := os.Getenv(config.EnvPath); p != "" {
		*cfgPath = p
	}

	cfg, err := config.LoadEngine(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	combat.EnableDebugLogging(logLevel == slog.LevelDebug)
	skill.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("horde starting", "config", *cfgPath, "log_level", cfg.LogLevel)

	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	bus := event.NewBus()
	defer bus.Close()

	var sess *session.Session
	sess, err = session.New(cfg, cat, session.Options{
		Bus: bus,
		OnComplete: func(r session.Result) {
			slog.Info("run complete", "victory", r.Victory, "duration", r.Duration, "kills", r.Kills)
			// Spectators may still send a reset.
			if !cfg.Broadcast.Enabled {
				sess.Close()
			}
		},
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	sess.Start()
	if cfg.Autopilot.Enabled {
		sess.EnableAutopilot(cfg.Autopilot)
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer stop()
		slog.Info("starting session driver", "session", sess.ID(), "tick", cfg.TickInterval)
		if err := sess.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("session driver: %w", err)
		}
		return nil
	})

	if cfg.Broadcast.Enabled {
		startBroadcast(g, gctx, cfg.Broadcast, cfg.Autopilot, bus, sess)
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("horde stopped",
		"session", sess.ID(),
		"state", sess.State(),
		"kills", sess.Kills(),
		"published", bus.Published(),
		"dropped", bus.Dropped())
	return nil
}

// catalogSource is satisfied by data.Catalog and db.CatalogRepository.
type catalogSource interface {
	LoadSkills(ctx context.Context) ([]*model.SkillDefinition, error)
	LoadEnemies(ctx context.Context) ([]*model.EnemyArchetype, error)
}

func loadCatalog(ctx context.Context, cfg config.Engine) (session.Catalog, error) {
	var src catalogSource

	switch cfg.Catalog.Source {
	case config.CatalogDatabase:
		d, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return session.Catalog{}, err
		}
		defer d.Close()
		src = d.Catalog()
	default:
		c, err := data.LoadCatalog(cfg.Catalog.Path)
		if err != nil {
			return session.Catalog{}, err
		}
		src = c
	}

	skills, err := src.LoadSkills(ctx)
	if err != nil {
		return session.Catalog{}, err
	}
	enemies, err := src.LoadEnemies(ctx)
	if err != nil {
		return session.Catalog{}, err
	}

	slog.Info("catalog ready", "source", cfg.Catalog.Source, "skills", len(skills), "enemies", len(enemies))
	return session.Catalog{Skills: skills, Enemies: enemies}, nil
}

func startBroadcast(g *errgroup.Group, ctx context.Context, cfg config.BroadcastConfig, autopilot config.AutopilotConfig, bus *event.Bus, sess *session.Session) {
	hub := broadcast.NewHub(cfg.SendBuffer)
	hub.OnCommand(func(c broadcast.Command) {
		sess.Post(func() { handleCommand(sess, c, autopilot) })
	})

	events, unsubscribe := bus.Subscribe(cfg.SendBuffer)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "%s %s\n", sess.ID(), sess.State())
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		slog.Info("starting spectator hub")
		return hub.Run(ctx)
	})
	g.Go(func() error {
		defer unsubscribe()
		return hub.Relay(ctx, events)
	})
	g.Go(func() error {
		slog.Info("starting spectator server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("spectator server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// handleCommand runs inside the scheduling domain.
func handleCommand(sess *session.Session, c broadcast.Command, autopilot config.AutopilotConfig) {
	var err error
	switch c.Type {
	case "choose":
		err = sess.Choose(c.SkillID)
	case "level_up":
		sess.LevelUp()
	case "boss":
		err = sess.SpawnBoss()
	case "reset":
		sess.Reset()
		sess.Start()
		if autopilot.Enabled {
			sess.EnableAutopilot(autopilot)
		}
	default:
		slog.Warn("unknown spectator command", "type", c.Type)
		return
	}
	if err != nil {
		slog.Warn("spectator command failed", "type", c.Type, "skillID", c.SkillID, "error", err)
	}
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
