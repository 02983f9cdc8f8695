package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/config"
)

func NewDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the detections table and its indexes if missing.
func EnsureSchema(ctx context.Context, db *sql.DB, table string) error {
	t := pq.QuoteIdentifier(table)
	idx := func(suffix string) string { return pq.QuoteIdentifier(table + "_" + suffix) }
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + t + ` (
			id                        TEXT PRIMARY KEY,
			license_plate             TEXT NOT NULL,
			confidence_api            DOUBLE PRECISION NOT NULL DEFAULT 0,
			confidence_yolo           DOUBLE PRECISION,
			detection_mode            TEXT NOT NULL,
			source                    TEXT NOT NULL DEFAULT '',
			province                  TEXT,
			province_confidence       DOUBLE PRECISION NOT NULL DEFAULT 0,
			region                    TEXT NOT NULL DEFAULT '',
			province_analysis_success BOOLEAN NOT NULL DEFAULT FALSE,
			has_image                 BOOLEAN NOT NULL DEFAULT FALSE,
			image_size                INTEGER NOT NULL DEFAULT 0,
			image_file                TEXT NOT NULL DEFAULT '',
			detected_at               TIMESTAMPTZ NOT NULL,
			created_at                TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS ` + idx("detected_at_idx") + ` ON ` + t + ` (detected_at DESC)`,
		`CREATE INDEX IF NOT EXISTS ` + idx("plate_idx") + ` ON ` + t + ` (lower(license_plate))`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
