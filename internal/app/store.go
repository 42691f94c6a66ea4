package app

import (
	"context"
	"fmt"
	"log/slog"

	"cookie-auth/internal/config"
	"cookie-auth/internal/database"
	"cookie-auth/internal/repository"
)

// OpenStore connects the credential store selected by cfg.StoreDriver and
// prepares its schema or indexes. The returned func releases the connection.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.UserStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}

		return repository.NewUserRepository(db.Pool), db.Close, nil

	case config.DriverMongo:
		slog.Info("connecting to MongoDB", "database", cfg.MongoDatabase)
		m, err := database.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}

		closeFn := func() {
			m.Close(context.Background())
		}

		store := repository.NewMongoUserRepository(m.Client, m.DB)
		if err := store.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
		}

		return store, closeFn, nil

	case config.DriverMemory:
		slog.Warn("using in-memory user store; accounts are lost on restart")
		return repository.NewMemoryUserRepository(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
