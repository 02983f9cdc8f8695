// Package store picks the detection repository backend from config.
package store

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/config"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/repository"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/repository/firebase"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/repository/memory"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/repository/postgresql"
)

// Open connects the configured backend. Any connection failure falls back to
// the in-memory store so the service keeps accepting detections. The returned
// close func is always non-nil.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.DetectionRepository, func()) {
	noop := func() {}

	switch cfg.StoreBackend {
	case "firebase":
		repo, err := firebase.Connect(ctx, cfg.FirebaseDatabaseURL, cfg.FirebaseCredentialsFile)
		if err == nil {
			logger.Info("firebase connected", "database_url", cfg.FirebaseDatabaseURL)
			return repo, noop
		}
		logger.Warn("firebase unavailable, using in-memory store", "error", err)

	case "postgres":
		db, err := postgresql.NewDB(ctx, cfg)
		if err == nil {
			err = postgresql.EnsureSchema(ctx, db, cfg.DBTable)
			if err == nil {
				logger.Info("postgres connected", "host", cfg.DBHost, "db", cfg.DBName)
				return postgresql.NewPgDetectionRepository(db, cfg.DBTable), closer(db, logger)
			}
			db.Close()
		}
		logger.Warn("postgres unavailable, using in-memory store", "error", err)
	}

	return memory.NewMemDetectionRepository(), noop
}

func closer(db *sql.DB, logger *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Error("close database", "error", err)
		}
	}
}
