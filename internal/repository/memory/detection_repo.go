// Package memory keeps detection records in process memory. It backs "mock
// mode", used when no cloud store is configured or reachable.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/repository"
)

type memDetectionRepository struct {
	mu      sync.RWMutex
	records []domain.DetectionRecord
	seq     int
	now     func() time.Time
}

func NewMemDetectionRepository() repository.DetectionRepository {
	return &memDetectionRepository{now: time.Now}
}

func (r *memDetectionRepository) Create(ctx context.Context, record *domain.DetectionRecord) (*domain.DetectionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	now := r.now()
	stored := *record
	if stored.ID == "" {
		stored.ID = fmt.Sprintf("mock_%s_%03d_%d", now.Format("20060102_150405"), now.Nanosecond()/int(time.Millisecond), r.seq)
	}
	for _, existing := range r.records {
		if existing.ID == stored.ID {
			return nil, fmt.Errorf("%w: %s", repository.ErrDuplicateEntry, stored.ID)
		}
	}
	if stored.Timestamp.IsZero() {
		stored.Timestamp = now
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	r.records = append(r.records, stored)

	out := stored
	return &out, nil
}

func (r *memDetectionRepository) FindByID(ctx context.Context, id string) (*domain.DetectionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.ID == id {
			out := rec
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memDetectionRepository) FindRecent(ctx context.Context, limit int) ([]domain.DetectionRecord, error) {
	all := r.snapshot()
	repository.SortNewestFirst(all)
	return repository.Limit(all, limit), nil
}

func (r *memDetectionRepository) FindAll(ctx context.Context) ([]domain.DetectionRecord, error) {
	return r.snapshot(), nil
}

func (r *memDetectionRepository) Search(ctx context.Context, filter domain.DetectionFilter) ([]domain.DetectionRecord, error) {
	var out []domain.DetectionRecord
	for _, rec := range r.snapshot() {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	repository.SortNewestFirst(out)
	return out, nil
}

func (r *memDetectionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rec := range r.records {
		if rec.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memDetectionRepository) Ping(ctx context.Context) error { return nil }

func (r *memDetectionRepository) Backend() string { return "memory" }

func (r *memDetectionRepository) snapshot() []domain.DetectionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.DetectionRecord, len(r.records))
	copy(out, r.records)
	return out
}
