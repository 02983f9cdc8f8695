package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// DisplayTimeLayout is how timestamps are rendered to the web UI.
const DisplayTimeLayout = "2006-01-02 15:04:05"

type DetectionMode string

const (
	ModeAuto   DetectionMode = "auto"   // detector crop + LPR
	ModeManual DetectionMode = "manual" // full frame LPR
)

// DetectionRecord is one persisted recognition result.
type DetectionRecord struct {
	ID                      string        `json:"id"`
	LicensePlate            string        `json:"license_plate"`
	ConfidenceAPI           float64       `json:"confidence_api"`
	ConfidenceYOLO          null.Float    `json:"confidence_yolo"`
	DetectionMode           DetectionMode `json:"detection_mode"`
	Source                  string        `json:"source,omitempty"`
	Province                null.String   `json:"province"`
	ProvinceConfidence      float64       `json:"province_confidence"`
	Region                  string        `json:"region"`
	ProvinceAnalysisSuccess bool          `json:"province_analysis_success"`
	HasImage                bool          `json:"has_image"`
	ImageSize               int           `json:"image_size,omitempty"`
	ImageFile               string        `json:"image_file,omitempty"`
	Timestamp               time.Time     `json:"timestamp"`
	CreatedAt               time.Time     `json:"created_at"`
}

// DetectionView is the record as returned by the read endpoints.
type DetectionView struct {
	DetectionRecord
	Timestamp string `json:"timestamp"`
}

func (r DetectionRecord) View() DetectionView {
	v := DetectionView{DetectionRecord: r}
	if !r.Timestamp.IsZero() {
		v.Timestamp = r.Timestamp.Local().Format(DisplayTimeLayout)
	}
	return v
}

func Views(records []DetectionRecord) []DetectionView {
	views := make([]DetectionView, 0, len(records))
	for _, r := range records {
		views = append(views, r.View())
	}
	return views
}

// DetectionFilter narrows a search. Zero values match everything.
type DetectionFilter struct {
	LicensePlate string
	From         *time.Time
	To           *time.Time
}

// Matches reports whether r passes the filter. The plate match is a
// case-insensitive substring test; From/To are inclusive.
func (f DetectionFilter) Matches(r DetectionRecord) bool {
	if f.LicensePlate != "" && !containsFold(r.LicensePlate, f.LicensePlate) {
		return false
	}
	if f.From != nil && r.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && r.Timestamp.After(*f.To) {
		return false
	}
	return true
}

// CaptureRequest is an image submitted for recognition. An invalid
// ConfidenceThreshold means the caller did not send one; zero is a valid
// threshold.
type CaptureRequest struct {
	Data                []byte
	Filename            string
	Source              string
	ConfidenceThreshold null.Float
}
