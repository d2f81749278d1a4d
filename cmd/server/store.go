package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/dukerupert/larder/internal"
	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/handler"
	"github.com/dukerupert/larder/internal/memstore"
	"github.com/dukerupert/larder/internal/postgres"
	"github.com/dukerupert/larder/internal/service"
)

// openStore connects the configured backing store and returns the health
// checks it contributes.
func openStore(ctx context.Context, cfg *internal.Config, logger zerolog.Logger) (service.Store, map[string]handler.Pinger, func(), error) {
	checks := map[string]handler.Pinger{}

	if cfg.Store == "memory" {
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		store := memstore.New()
		seedCatalog(store)
		return store, checks, func() {}, nil
	}

	// Initialize database/sql connection for migrations
	logger.Info().Msg("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info().Msg("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return nil, nil, nil, fmt.Errorf("migration failed: %w", err)
	}
	logger.Info().Msg("Database migrations completed successfully")

	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	store := postgres.New(pool)
	checks["database"] = store
	return store, checks, pool.Close, nil
}

// seedCatalog gives the in-memory store something to sell.
func seedCatalog(store *memstore.Store) {
	for _, p := range []domain.Product{
		{Name: "Country Sourdough", Slug: "country-sourdough", Description: "Naturally leavened, 900g", PriceCents: 850, Stock: 40, Published: true},
		{Name: "Seeded Rye", Slug: "seeded-rye", Description: "Dense rye with sunflower and flax", PriceCents: 950, Stock: 25, Published: true},
		{Name: "Baguette", Slug: "baguette", PriceCents: 350, Stock: 80, Published: true},
		{Name: "Cultured Butter", Slug: "cultured-butter", Description: "250g, lightly salted", PriceCents: 675, Stock: 30, Published: true},
		{Name: "Wild Honey", Slug: "wild-honey", PriceCents: 1200, Stock: 12, Published: true},
	} {
		store.AddProduct(p)
	}
}
