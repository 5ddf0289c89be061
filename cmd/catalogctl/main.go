// Command catalogctl seeds the PostgreSQL catalog from YAML or exports it back.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/udisondev/horde/internal/config"
	"github.com/udisondev/horde/internal/data"
	"github.com/udisondev/horde/internal/db"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := flag.String("config", "config/horde.yaml", "path to engine config")
	catalogPath := flag.String("catalog", "", "catalog YAML to import (empty: built-in catalog)")
	dryRun := flag.Bool("dry-run", false, "validate the catalog without touching the database")
	export := flag.String("export", "", "write the database catalog to this YAML file instead of importing")
	flag.Parse()

	cfg, err := config.LoadEngine(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if *export != "" {
		return exportCatalog(ctx, cfg.Database.DSN(), *export)
	}

	cat, err := data.LoadCatalog(*catalogPath)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	slog.Info("catalog valid", "skills", len(cat.Skills), "enemies", len(cat.Enemies))

	if *dryRun {
		return nil
	}

	dsn := cfg.Database.DSN()
	if err := db.RunMigrations(ctx, dsn); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	d, err := db.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer d.Close()

	if err := d.Catalog().SaveCatalog(ctx, cat.Skills, cat.Enemies); err != nil {
		return fmt.Errorf("saving catalog: %w", err)
	}

	slog.Info("catalog imported", "skills", len(cat.Skills), "enemies", len(cat.Enemies))
	return nil
}

func exportCatalog(ctx context.Context, dsn, path string) error {
	d, err := db.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer d.Close()

	repo := d.Catalog()
	skills, err := repo.LoadSkills(ctx)
	if err != nil {
		return fmt.Errorf("loading skills: %w", err)
	}
	enemies, err := repo.LoadEnemies(ctx)
	if err != nil {
		return fmt.Errorf("loading enemies: %w", err)
	}

	cat := &data.Catalog{Skills: skills, Enemies: enemies}
	if err := cat.Validate(); err != nil {
		return fmt.Errorf("database catalog: %w", err)
	}
	raw, err := cat.Marshal()
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	slog.Info("catalog exported", "path", path, "skills", len(skills), "enemies", len(enemies))
	return nil
}
