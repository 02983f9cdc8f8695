package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/repository"
)

const uniqueViolation = "23505"

const detectionColumns = `id, license_plate, confidence_api, confidence_yolo, detection_mode, source,
	province, province_confidence, region, province_analysis_success,
	has_image, image_size, image_file, detected_at, created_at`

type pgDetectionRepository struct {
	db    *sql.DB
	table string
}

func NewPgDetectionRepository(db *sql.DB, table string) repository.DetectionRepository {
	if table == "" {
		table = repository.Collection
	}
	return &pgDetectionRepository{db: db, table: pq.QuoteIdentifier(table)}
}

func (r *pgDetectionRepository) Create(ctx context.Context, record *domain.DetectionRecord) (*domain.DetectionRecord, error) {
	rec := *record
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	query := `INSERT INTO ` + r.table + ` (` + detectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.LicensePlate, rec.ConfidenceAPI, rec.ConfidenceYOLO, string(rec.DetectionMode), rec.Source,
		rec.Province, rec.ProvinceConfidence, rec.Region, rec.ProvinceAnalysisSuccess,
		rec.HasImage, rec.ImageSize, rec.ImageFile, rec.Timestamp,
	).Scan(&rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %s", repository.ErrDuplicateEntry, rec.ID)
		}
		return nil, fmt.Errorf("DetectionRepository.Create: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.In(time.UTC)
	return &rec, nil
}

func (r *pgDetectionRepository) FindByID(ctx context.Context, id string) (*domain.DetectionRecord, error) {
	query := `SELECT ` + detectionColumns + ` FROM ` + r.table + ` WHERE id = $1`
	rec, err := scanDetection(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("DetectionRepository.FindByID: %w", err)
	}
	return rec, nil
}

func (r *pgDetectionRepository) FindRecent(ctx context.Context, limit int) ([]domain.DetectionRecord, error) {
	query := `SELECT ` + detectionColumns + ` FROM ` + r.table + ` ORDER BY detected_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	records, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("DetectionRepository.FindRecent: %w", err)
	}
	return records, nil
}

func (r *pgDetectionRepository) FindAll(ctx context.Context) ([]domain.DetectionRecord, error) {
	records, err := r.query(ctx, `SELECT `+detectionColumns+` FROM `+r.table)
	if err != nil {
		return nil, fmt.Errorf("DetectionRepository.FindAll: %w", err)
	}
	return records, nil
}

func (r *pgDetectionRepository) Search(ctx context.Context, filter domain.DetectionFilter) ([]domain.DetectionRecord, error) {
	where, args := searchClause(filter)
	query := `SELECT ` + detectionColumns + ` FROM ` + r.table + where + ` ORDER BY detected_at DESC, id DESC`
	records, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("DetectionRepository.Search: %w", err)
	}
	return records, nil
}

func (r *pgDetectionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DetectionRepository.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DetectionRepository.Delete: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgDetectionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *pgDetectionRepository) Backend() string { return "postgres" }

func (r *pgDetectionRepository) query(ctx context.Context, query string, args ...any) ([]domain.DetectionRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.DetectionRecord
	for rows.Next() {
		rec, err := scanDetection(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDetection(row rowScanner) (*domain.DetectionRecord, error) {
	rec := &domain.DetectionRecord{}
	var mode string
	err := row.Scan(
		&rec.ID, &rec.LicensePlate, &rec.ConfidenceAPI, &rec.ConfidenceYOLO, &mode, &rec.Source,
		&rec.Province, &rec.ProvinceConfidence, &rec.Region, &rec.ProvinceAnalysisSuccess,
		&rec.HasImage, &rec.ImageSize, &rec.ImageFile, &rec.Timestamp, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.DetectionMode = domain.DetectionMode(mode)
	rec.Timestamp = rec.Timestamp.In(time.UTC)
	rec.CreatedAt = rec.CreatedAt.In(time.UTC)
	return rec, nil
}

// searchClause builds the WHERE clause for a filter. Plate matching is a
// case-insensitive substring match with LIKE wildcards escaped.
func searchClause(filter domain.DetectionFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.LicensePlate != "" {
		args = append(args, "%"+escapeLike(filter.LicensePlate)+"%")
		conds = append(conds, fmt.Sprintf(`license_plate ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("detected_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("detected_at <= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
