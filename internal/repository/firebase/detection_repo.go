// Package firebase stores detection records in a Firebase Realtime Database
// node, one pushed child per record.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
	"gopkg.in/guregu/null.v4"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/repository"
)

var ErrNotConfigured = errors.New("firebase: database url or credentials missing")

// detectionDoc is the stored JSON shape. The record id is the child key and
// is not duplicated inside the document.
type detectionDoc struct {
	LicensePlate            string   `json:"license_plate"`
	ConfidenceAPI           float64  `json:"confidence_api"`
	ConfidenceYOLO          *float64 `json:"confidence_yolo"`
	DetectionMode           string   `json:"detection_mode"`
	Source                  string   `json:"source,omitempty"`
	Province                *string  `json:"province"`
	ProvinceConfidence      float64  `json:"province_confidence"`
	Region                  string   `json:"region"`
	ProvinceAnalysisSuccess bool     `json:"province_analysis_success"`
	HasImage                bool     `json:"has_image"`
	ImageSize               int      `json:"image_size,omitempty"`
	ImageFile               string   `json:"image_file,omitempty"`
	Timestamp               string   `json:"timestamp"`
	CreatedAt               string   `json:"created_at"`
}

type fbDetectionRepository struct {
	ref *db.Ref
	now func() time.Time
}

// Connect initializes the Firebase app from a service account file and
// returns a repository rooted at the detections node.
func Connect(ctx context.Context, databaseURL, credentialsFile string) (repository.DetectionRepository, error) {
	if databaseURL == "" || credentialsFile == "" {
		return nil, ErrNotConfigured
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase.Database: %w", err)
	}
	repo := NewFbDetectionRepository(client)
	if err := repo.Ping(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func NewFbDetectionRepository(client *db.Client) repository.DetectionRepository {
	return &fbDetectionRepository{ref: client.NewRef(repository.Collection), now: time.Now}
}

func (r *fbDetectionRepository) Create(ctx context.Context, record *domain.DetectionRecord) (*domain.DetectionRecord, error) {
	rec := *record
	now := r.now()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = now
	}
	rec.CreatedAt = now

	doc := toDoc(rec)
	if rec.ID != "" {
		var existing *detectionDoc
		child := r.ref.Child(rec.ID)
		if err := child.Get(ctx, &existing); err != nil {
			return nil, fmt.Errorf("DetectionRepository.Create: %w", err)
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: %s", repository.ErrDuplicateEntry, rec.ID)
		}
		if err := child.Set(ctx, doc); err != nil {
			return nil, fmt.Errorf("DetectionRepository.Create: %w", err)
		}
		return &rec, nil
	}

	pushed, err := r.ref.Push(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("DetectionRepository.Create: %w", err)
	}
	rec.ID = pushed.Key
	return &rec, nil
}

func (r *fbDetectionRepository) FindByID(ctx context.Context, id string) (*domain.DetectionRecord, error) {
	var doc *detectionDoc
	if err := r.ref.Child(id).Get(ctx, &doc); err != nil {
		return nil, fmt.Errorf("DetectionRepository.FindByID: %w", err)
	}
	if doc == nil {
		return nil, repository.ErrNotFound
	}
	rec := fromDoc(id, *doc)
	return &rec, nil
}

func (r *fbDetectionRepository) FindRecent(ctx context.Context, limit int) ([]domain.DetectionRecord, error) {
	records, err := r.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("DetectionRepository.FindRecent: %w", err)
	}
	repository.SortNewestFirst(records)
	return repository.Limit(records, limit), nil
}

func (r *fbDetectionRepository) FindAll(ctx context.Context) ([]domain.DetectionRecord, error) {
	var docs map[string]detectionDoc
	if err := r.ref.Get(ctx, &docs); err != nil {
		return nil, fmt.Errorf("DetectionRepository.FindAll: %w", err)
	}
	return fromDocs(docs), nil
}

func (r *fbDetectionRepository) Search(ctx context.Context, filter domain.DetectionFilter) ([]domain.DetectionRecord, error) {
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("DetectionRepository.Search: %w", err)
	}
	var out []domain.DetectionRecord
	for _, rec := range all {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	repository.SortNewestFirst(out)
	return out, nil
}

func (r *fbDetectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	if err := r.ref.Child(id).Delete(ctx); err != nil {
		return fmt.Errorf("DetectionRepository.Delete: %w", err)
	}
	return nil
}

func (r *fbDetectionRepository) Ping(ctx context.Context) error {
	var probe map[string]any
	if err := r.ref.OrderByKey().LimitToFirst(1).Get(ctx, &probe); err != nil {
		return fmt.Errorf("firebase ping: %w", err)
	}
	return nil
}

func (r *fbDetectionRepository) Backend() string { return "firebase" }

func toDoc(rec domain.DetectionRecord) detectionDoc {
	return detectionDoc{
		LicensePlate:            rec.LicensePlate,
		ConfidenceAPI:           rec.ConfidenceAPI,
		ConfidenceYOLO:          rec.ConfidenceYOLO.Ptr(),
		DetectionMode:           string(rec.DetectionMode),
		Source:                  rec.Source,
		Province:                rec.Province.Ptr(),
		ProvinceConfidence:      rec.ProvinceConfidence,
		Region:                  rec.Region,
		ProvinceAnalysisSuccess: rec.ProvinceAnalysisSuccess,
		HasImage:                rec.HasImage,
		ImageSize:               rec.ImageSize,
		ImageFile:               rec.ImageFile,
		Timestamp:               formatTime(rec.Timestamp),
		CreatedAt:               formatTime(rec.CreatedAt),
	}
}

func fromDoc(id string, doc detectionDoc) domain.DetectionRecord {
	return domain.DetectionRecord{
		ID:                      id,
		LicensePlate:            doc.LicensePlate,
		ConfidenceAPI:           doc.ConfidenceAPI,
		ConfidenceYOLO:          null.FloatFromPtr(doc.ConfidenceYOLO),
		DetectionMode:           domain.DetectionMode(doc.DetectionMode),
		Source:                  doc.Source,
		Province:                null.StringFromPtr(doc.Province),
		ProvinceConfidence:      doc.ProvinceConfidence,
		Region:                  doc.Region,
		ProvinceAnalysisSuccess: doc.ProvinceAnalysisSuccess,
		HasImage:                doc.HasImage,
		ImageSize:               doc.ImageSize,
		ImageFile:               doc.ImageFile,
		Timestamp:               parseTime(doc.Timestamp),
		CreatedAt:               parseTime(doc.CreatedAt),
	}
}

func fromDocs(docs map[string]detectionDoc) []domain.DetectionRecord {
	out := make([]domain.DetectionRecord, 0, len(docs))
	for id, doc := range docs {
		out = append(out, fromDoc(id, doc))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

// Older records were written as naive local ISO timestamps without a zone.
var legacyLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
