// Command seed loads the demo marketplace catalog into the configured
// catalog backend: the catalog tables of the discovery database, and the
// Elasticsearch indices when CATALOG_BACKEND=elasticsearch.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	catalogES "github.com/utafrali/discovery/internal/catalog/elasticsearch"
	catalogpg "github.com/utafrali/discovery/internal/catalog/postgres"
	"github.com/utafrali/discovery/internal/catalog/seed"
	"github.com/utafrali/discovery/internal/config"
	"github.com/utafrali/discovery/migrations"
	"github.com/utafrali/discovery/pkg/database"
	"github.com/utafrali/discovery/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("discovery-seed", cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ds := seed.Build(time.Now())

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return err
	}

	store := catalogpg.NewStore(pool)
	if err := store.UpsertVendors(ctx, ds.Vendors...); err != nil {
		return err
	}
	if err := store.UpsertItems(ctx, ds.Items...); err != nil {
		return err
	}
	log.Info("seeded postgres catalog",
		slog.Int("vendors", len(ds.Vendors)),
		slog.Int("items", len(ds.Items)),
	)

	if cfg.CatalogBackend != config.BackendElasticsearch {
		return nil
	}

	es, err := catalogES.New(ctx, cfg.ElasticsearchURL, cfg.ElasticsearchItemsIndex, cfg.ElasticsearchVendorsIndex, log)
	if err != nil {
		return err
	}
	if err := es.IndexVendors(ctx, ds.Vendors...); err != nil {
		return err
	}
	if err := es.IndexItems(ctx, ds.Items...); err != nil {
		return err
	}
	log.Info("seeded elasticsearch catalog", slog.String("url", cfg.ElasticsearchURL))
	return nil
}
