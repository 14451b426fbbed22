package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-fitdash/fitdash/internal/config"
	"github.com/go-fitdash/fitdash/internal/store"

	"github.com/sirupsen/logrus"
)

// initializeDatabase creates and migrates the database connection
func initializeDatabase(
	ctx context.Context,
	cfg *config.Config,
	logger logrus.FieldLogger,
) (*store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DBInitTimeout)
	defer cancel()

	db, err := store.New(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.WithField("driver", cfg.DatabaseDriver).Info("database initialized")
	return db, nil
}
