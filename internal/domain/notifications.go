package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type DetectionEventType string

const (
	EventDetectionSaved   DetectionEventType = "detection_saved"
	EventDetectionDeleted DetectionEventType = "detection_deleted"
)

// DetectionEvent is pushed to live dashboards and downstream subscribers.
type DetectionEvent struct {
	Type      DetectionEventType `json:"type"`
	ID        string             `json:"id"`
	Detection *DetectionRecord   `json:"detection,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// CaptureJob is a queued capture from a remote camera.
type CaptureJob struct {
	ImageBase64 string        `json:"image_base64"`
	Source      string        `json:"source"`
	Mode        DetectionMode `json:"mode"`
	Confidence  null.Float    `json:"confidence"`
}
