package domain

// LPRResult is the normalised answer of a plate recognizer. Remote failures
// are reported through Success=false and Error, not as Go errors.
type LPRResult struct {
	Success      bool           `json:"success"`
	LicensePlate string         `json:"license_plate"`
	Confidence   float64        `json:"confidence"` // 0..1
	Error        string         `json:"error,omitempty"`
	Message      string         `json:"message,omitempty"`
	Mock         bool           `json:"mock,omitempty"`
	RawResponse  map[string]any `json:"raw_response,omitempty"`
}

// Found reports whether a plate was actually read.
func (r *LPRResult) Found() bool {
	return r != nil && r.Success && r.LicensePlate != ""
}

// PlateBox is one plate localised by the detector, in source image pixels.
type PlateBox struct {
	BBox       [4]int  `json:"bbox"` // x1, y1, x2, y2
	Confidence float64 `json:"confidence"`
	Class      int     `json:"class"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// CaptureInfo is attached to every webcam detection response.
type CaptureInfo struct {
	Source              string  `json:"source"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	CaptureTime         string  `json:"capture_time"`
	TempFile            string  `json:"temp_file"`
	FirebaseDocID       string  `json:"firebase_doc_id,omitempty"`
}

// ManualDetectionResponse answers POST /api/detect.
type ManualDetectionResponse struct {
	LPRResult
	CaptureInfo
}

// AutoDetectionResponse answers POST /api/detect-yolo.
type AutoDetectionResponse struct {
	Success        bool       `json:"success"`
	LicensePlate   string     `json:"license_plate"`
	Confidence     float64    `json:"confidence"`
	Error          string     `json:"error,omitempty"`
	YOLODetections []PlateBox `json:"yolo_detections"`
	YOLOConfidence float64    `json:"yolo_confidence,omitempty"`
	BBox           *[4]int    `json:"bbox,omitempty"`
	APIResult      *LPRResult `json:"api_result,omitempty"`
	CroppedFile    string     `json:"cropped_file,omitempty"`
	CaptureInfo
}

// UploadResponse answers POST /upload.
type UploadResponse struct {
	LPRResult
	UploadedFile string `json:"uploaded_file"`
	UploadTime   string `json:"upload_time"`
}
