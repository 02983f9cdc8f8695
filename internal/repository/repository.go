package repository

import (
	"context"
	"errors"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")

// Collection is the node / table holding detection records.
const Collection = "license_plate_detections"

// DetectionRepository stores recognized plates. FindRecent and Search return
// records newest first.
type DetectionRepository interface {
	Create(ctx context.Context, record *domain.DetectionRecord) (*domain.DetectionRecord, error)
	FindByID(ctx context.Context, id string) (*domain.DetectionRecord, error)
	FindRecent(ctx context.Context, limit int) ([]domain.DetectionRecord, error)
	FindAll(ctx context.Context) ([]domain.DetectionRecord, error)
	Search(ctx context.Context, filter domain.DetectionFilter) ([]domain.DetectionRecord, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	// Backend names the implementation, e.g. "firebase" or "memory".
	Backend() string
}
