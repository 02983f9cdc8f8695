package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/detector"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/lpr"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/repository"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/repository/memory"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/uploads"
)

type stubRecognizer struct {
	result *domain.LPRResult
	err    error
	calls  int
	last   []byte
}

func (r *stubRecognizer) Name() string { return "stub" }

func (r *stubRecognizer) Recognize(_ context.Context, data []byte) (*domain.LPRResult, error) {
	r.calls++
	r.last = data
	if r.err != nil {
		return nil, r.err
	}
	out := *r.result
	return &out, nil
}

type stubDetector struct {
	boxes     []domain.PlateBox
	err       error
	threshold float64
}

func (d *stubDetector) Detect(_ context.Context, _ image.Image, minConf float64) ([]domain.PlateBox, error) {
	d.threshold = minConf
	return d.boxes, d.err
}

func (d *stubDetector) Close() error { return nil }

type eventRecorder struct {
	events []domain.DetectionEvent
	err    error
}

func (r *eventRecorder) Publish(_ context.Context, e domain.DetectionEvent) error {
	r.events = append(r.events, e)
	return r.err
}

type failingRepo struct {
	repository.DetectionRepository
}

func (failingRepo) Create(context.Context, *domain.DetectionRecord) (*domain.DetectionRecord, error) {
	return nil, errors.New("store offline")
}

func (failingRepo) Backend() string { return "broken" }

type fixture struct {
	svc       *DetectionService
	repo      repository.DetectionRepository
	rec       *stubRecognizer
	det       *stubDetector
	events    *eventRecorder
	uploadDir string
}

func newFixture(t *testing.T, result *domain.LPRResult) *fixture {
	t.Helper()
	store, err := uploads.New(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		repo:      memory.NewMemDetectionRepository(),
		rec:       &stubRecognizer{result: result},
		det:       &stubDetector{},
		events:    &eventRecorder{},
		uploadDir: store.Dir(),
	}
	f.svc = NewDetectionService(DetectionServiceDeps{
		Repo:       f.repo,
		Recognizer: f.rec,
		Detector:   f.det,
		Uploads:    store,
		Publisher:  f.events,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		CacheTTL:   time.Minute,
		APIURL:     "https://lpr.test",
	})
	f.svc.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local) }
	return f
}

func found(plate string, conf float64, raw map[string]any) *domain.LPRResult {
	return &domain.LPRResult{Success: true, LicensePlate: plate, Confidence: conf, RawResponse: raw}
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	data, err := detector.EncodeJPEG(image.NewRGBA(image.Rect(0, 0, w, h)), 90)
	require.NoError(t, err)
	return data
}

func TestDetectManualSavesFoundPlate(t *testing.T) {
	f := newFixture(t, found("กข 1234", 0.91, map[string]any{"province": "th-10:Bangkok (กรุงเทพมหานคร)"}))

	resp, err := f.svc.DetectManual(context.Background(), domain.CaptureRequest{Data: []byte("frame"), Source: "webcam"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "webcam", resp.Source)
	assert.Equal(t, DefaultManualConfidence, resp.ConfidenceThreshold)
	assert.Equal(t, "2025-06-01 09:00:00", resp.CaptureTime)
	assert.Equal(t, "webcam_20250601_090000_000.jpg", resp.TempFile)
	require.NotEmpty(t, resp.FirebaseDocID)

	_, err = os.Stat(f.uploadDir + "/" + resp.TempFile)
	assert.NoError(t, err)

	rec, err := f.repo.FindByID(context.Background(), resp.FirebaseDocID)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeManual, rec.DetectionMode)
	assert.Equal(t, "กรุงเทพมหานคร", rec.Province.String)
	assert.Equal(t, 1.0, rec.ProvinceConfidence)
	assert.True(t, rec.ProvinceAnalysisSuccess)
	assert.False(t, rec.ConfidenceYOLO.Valid)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, domain.EventDetectionSaved, f.events.events[0].Type)
	assert.Equal(t, resp.FirebaseDocID, f.events.events[0].ID)
}

func TestDetectManualNotFoundIsNotSaved(t *testing.T) {
	f := newFixture(t, &domain.LPRResult{Error: "ไม่พบป้ายทะเบียนในภาพ"})

	resp, err := f.svc.DetectManual(context.Background(), domain.CaptureRequest{Data: []byte("frame"), ConfidenceThreshold: null.FloatFrom(0.4)})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "unknown", resp.Source)
	assert.Equal(t, 0.4, resp.ConfidenceThreshold)
	assert.Empty(t, resp.FirebaseDocID)

	all, _ := f.repo.FindAll(context.Background())
	assert.Empty(t, all)
	assert.Empty(t, f.events.events)
}

func TestDetectManualStoreFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t, found("กข 1234", 0.9, nil))
	f.svc.repo = failingRepo{}

	resp, err := f.svc.DetectManual(context.Background(), domain.CaptureRequest{Data: []byte("frame")})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.FirebaseDocID)
}

func TestDetectManualRecognizerError(t *testing.T) {
	f := newFixture(t, nil)
	f.rec.err = errors.New("bad input")

	resp, err := f.svc.DetectManual(context.Background(), domain.CaptureRequest{Data: []byte("frame")})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "bad input")
}

func TestDetectRequiresData(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.DetectManual(context.Background(), domain.CaptureRequest{})
	assert.ErrorIs(t, err, ErrNoFile)
	_, err = f.svc.DetectAuto(context.Background(), domain.CaptureRequest{})
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestDetectAutoCropsBestBox(t *testing.T) {
	f := newFixture(t, found("1กก 2345", 0.88, nil))
	f.det.boxes = []domain.PlateBox{
		{BBox: [4]int{10, 10, 60, 30}, Confidence: 0.75, Width: 50, Height: 20},
		{BBox: [4]int{100, 50, 180, 80}, Confidence: 0.93, Width: 80, Height: 30},
	}

	resp, err := f.svc.DetectAuto(context.Background(), domain.CaptureRequest{Data: testJPEG(t, 200, 100), Source: "webcam"})
	require.NoError(t, err)

	assert.Equal(t, detector.DefaultConfidence, f.det.threshold)
	assert.True(t, resp.Success)
	assert.Equal(t, "1กก 2345", resp.LicensePlate)
	assert.Equal(t, 0.93, resp.YOLOConfidence)
	require.NotNil(t, resp.BBox)
	assert.Equal(t, [4]int{100, 50, 180, 80}, *resp.BBox)
	assert.Len(t, resp.YOLODetections, 2)
	assert.Equal(t, "webcam_yolo_20250601_090000_000.jpg", resp.TempFile)
	assert.Equal(t, "cropped_20250601_090000_000.jpg", resp.CroppedFile)
	require.NotNil(t, resp.APIResult)

	crop, err := detector.Decode(f.rec.last)
	require.NoError(t, err)
	assert.Equal(t, 100, crop.Bounds().Dx())
	assert.Equal(t, 50, crop.Bounds().Dy())

	rec, err := f.repo.FindByID(context.Background(), resp.FirebaseDocID)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeAuto, rec.DetectionMode)
	assert.InDelta(t, 0.93, rec.ConfidenceYOLO.Float64, 1e-9)
}

func TestDetectAutoNoBoxes(t *testing.T) {
	f := newFixture(t, found("x", 1, nil))
	f.det.err = detector.ErrDetectorUnavailable

	resp, err := f.svc.DetectAuto(context.Background(), domain.CaptureRequest{Data: testJPEG(t, 50, 50), ConfidenceThreshold: null.FloatFrom(0.5)})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "ไม่พบป้ายทะเบียนด้วย YOLO (confidence < 0.5)", resp.Error)
	assert.NotNil(t, resp.YOLODetections)
	assert.Empty(t, resp.YOLODetections)
	assert.Zero(t, f.rec.calls)
}

func TestDetectExplicitZeroConfidence(t *testing.T) {
	f := newFixture(t, &domain.LPRResult{Error: lpr.MsgNotFound})
	ctx := context.Background()

	manual, err := f.svc.DetectManual(ctx, domain.CaptureRequest{Data: []byte("frame"), ConfidenceThreshold: null.FloatFrom(0)})
	require.NoError(t, err)
	assert.Zero(t, manual.ConfidenceThreshold)

	f.det.threshold = -1
	auto, err := f.svc.DetectAuto(ctx, domain.CaptureRequest{Data: testJPEG(t, 50, 50), ConfidenceThreshold: null.FloatFrom(0)})
	require.NoError(t, err)
	assert.Zero(t, f.det.threshold)
	assert.Zero(t, auto.ConfidenceThreshold)
}

func TestDetectAutoUnreadableImage(t *testing.T) {
	f := newFixture(t, found("x", 1, nil))
	resp, err := f.svc.DetectAuto(context.Background(), domain.CaptureRequest{Data: []byte("not an image")})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, msgUnreadable, resp.Error)
}

func TestUpload(t *testing.T) {
	f := newFixture(t, found("ตณ 3754", 0.8, nil))

	resp, err := f.svc.Upload(context.Background(), "my car.jpg", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "20250601_090000_my_car.jpg", resp.UploadedFile)
	assert.Equal(t, "2025-06-01 09:00:00", resp.UploadTime)
	assert.True(t, resp.Success)

	all, _ := f.repo.FindAll(context.Background())
	assert.Empty(t, all)

	_, err = f.svc.Upload(context.Background(), "notes.txt", []byte("x"))
	assert.ErrorIs(t, err, ErrFileType)
	_, err = f.svc.Upload(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestRecentAndSearch(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.Local)
	for i, plate := range []string{"กข 1234", "ABC 999", "กข 5555"} {
		_, err := f.repo.Create(ctx, &domain.DetectionRecord{LicensePlate: plate, Timestamp: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	recent, err := f.svc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "กข 5555", recent[0].LicensePlate)
	assert.Equal(t, "2025-01-01 10:00:00", recent[0].Timestamp)

	hits, err := f.svc.Search(ctx, domain.DetectionFilter{LicensePlate: " กข "})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	_, err = f.svc.Search(ctx, domain.DetectionFilter{})
	assert.ErrorIs(t, err, ErrEmptySearch)
}

func TestStatsCacheInvalidatedOnWrite(t *testing.T) {
	f := newFixture(t, found("กข 1234", 0.9, map[string]any{"province": "th-10:Bangkok (กรุงเทพมหานคร)"}))
	ctx := context.Background()

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDetections)

	// Bypassing the service leaves the cached value in place.
	_, err = f.repo.Create(ctx, &domain.DetectionRecord{LicensePlate: "x", DetectionMode: domain.ModeManual})
	require.NoError(t, err)
	stats, _ = f.svc.Stats(ctx)
	assert.Zero(t, stats.TotalDetections)

	resp, err := f.svc.DetectManual(ctx, domain.CaptureRequest{Data: []byte("frame")})
	require.NoError(t, err)
	stats, _ = f.svc.Stats(ctx)
	assert.Equal(t, 2, stats.TotalDetections)

	prov, err := f.svc.ProvinceStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, prov.ProvinceStats["กรุงเทพมหานคร"])

	require.NoError(t, f.svc.Delete(ctx, resp.FirebaseDocID))
	stats, _ = f.svc.Stats(ctx)
	assert.Equal(t, 1, stats.TotalDetections)
	assert.Equal(t, domain.EventDetectionDeleted, f.events.events[len(f.events.events)-1].Type)

	assert.ErrorIs(t, f.svc.Delete(ctx, "missing"), repository.ErrNotFound)
}

func TestPublisherFailureIsLogged(t *testing.T) {
	f := newFixture(t, found("กข 1234", 0.9, nil))
	f.events.err = errors.New("broker down")

	resp, err := f.svc.DetectManual(context.Background(), domain.CaptureRequest{Data: []byte("frame")})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.FirebaseDocID)
}

func TestHandleCaptureJob(t *testing.T) {
	f := newFixture(t, found("บจ 9876", 0.85, nil))
	ctx := context.Background()

	err := f.svc.HandleCaptureJob(ctx, domain.CaptureJob{ImageBase64: base64.StdEncoding.EncodeToString([]byte("frame"))})
	require.NoError(t, err)
	all, _ := f.repo.FindAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "sqs", all[0].Source)

	err = f.svc.HandleCaptureJob(ctx, domain.CaptureJob{ImageBase64: "%%%"})
	assert.ErrorIs(t, err, ErrInvalidJob)

	err = f.svc.HandleCaptureJob(ctx, domain.CaptureJob{ImageBase64: base64.StdEncoding.EncodeToString([]byte("x")), Mode: "video"})
	assert.ErrorIs(t, err, ErrInvalidJob)
}

func TestHandleCaptureJobRecognizerOutcome(t *testing.T) {
	frame := base64.StdEncoding.EncodeToString([]byte("frame"))
	tests := []struct {
		name      string
		result    *domain.LPRResult
		retryable bool
	}{
		{"timeout", &domain.LPRResult{Error: lpr.MsgTimeout}, true},
		{"rate limited", &domain.LPRResult{Error: lpr.MsgRateLimited}, true},
		{"connection", &domain.LPRResult{Error: lpr.MsgConnection}, true},
		{"server error", &domain.LPRResult{Error: "API Error: 503"}, true},
		{"not found", &domain.LPRResult{Error: lpr.MsgNotFound}, false},
		{"invalid key", &domain.LPRResult{Error: lpr.MsgInvalidKey}, false},
		{"client error", &domain.LPRResult{Error: "API Error: 400"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.result)
			err := f.svc.HandleCaptureJob(context.Background(), domain.CaptureJob{ImageBase64: frame, Source: "gate-1"})
			if tt.retryable {
				assert.ErrorIs(t, err, ErrRecognizerUnavailable)
				assert.NotErrorIs(t, err, ErrInvalidJob)
			} else {
				assert.NoError(t, err)
			}
			all, _ := f.repo.FindAll(context.Background())
			assert.Empty(t, all)
		})
	}

	t.Run("auto mode", func(t *testing.T) {
		f := newFixture(t, &domain.LPRResult{Error: lpr.MsgTimeout})
		f.det.boxes = []domain.PlateBox{{BBox: [4]int{5, 5, 40, 20}, Confidence: 0.9, Width: 35, Height: 15}}
		err := f.svc.HandleCaptureJob(context.Background(), domain.CaptureJob{
			ImageBase64: base64.StdEncoding.EncodeToString(testJPEG(t, 50, 50)),
			Mode:        domain.ModeAuto,
		})
		assert.ErrorIs(t, err, ErrRecognizerUnavailable)
		assert.Equal(t, 1, f.rec.calls)
	})

	t.Run("auto mode without a plate box", func(t *testing.T) {
		f := newFixture(t, &domain.LPRResult{Error: lpr.MsgTimeout})
		err := f.svc.HandleCaptureJob(context.Background(), domain.CaptureJob{
			ImageBase64: base64.StdEncoding.EncodeToString(testJPEG(t, 50, 50)),
			Mode:        domain.ModeAuto,
		})
		assert.NoError(t, err)
		assert.Zero(t, f.rec.calls)
	})
}

func TestHandleCaptureJobConfidence(t *testing.T) {
	img := base64.StdEncoding.EncodeToString(testJPEG(t, 50, 50))

	var job domain.CaptureJob
	require.NoError(t, json.Unmarshal([]byte(`{"image_base64":"`+img+`","mode":"auto","confidence":0}`), &job))
	require.True(t, job.Confidence.Valid)

	f := newFixture(t, found("x", 1, nil))
	f.det.threshold = -1
	require.NoError(t, f.svc.HandleCaptureJob(context.Background(), job))
	assert.Zero(t, f.det.threshold)

	job.Confidence = null.FloatFrom(1.5)
	assert.ErrorIs(t, f.svc.HandleCaptureJob(context.Background(), job), ErrInvalidJob)

	var unset domain.CaptureJob
	require.NoError(t, json.Unmarshal([]byte(`{"image_base64":"`+img+`","mode":"auto"}`), &unset))
	assert.False(t, unset.Confidence.Valid)
	require.NoError(t, f.svc.HandleCaptureJob(context.Background(), unset))
	assert.Equal(t, detector.DefaultConfidence, f.det.threshold)
}

func TestInfo(t *testing.T) {
	f := newFixture(t, nil)
	info := f.svc.Info(context.Background())
	assert.Equal(t, "https://lpr.test", info.APIURL)
	assert.Equal(t, "active", info.Status)
	assert.Equal(t, "16MB", info.MaxFileSize)
	assert.True(t, info.FirebaseConnected)
	assert.Equal(t, "memory", info.StoreBackend)
	assert.True(t, info.DetectorLoaded)
	assert.Equal(t, []string{"PNG", "JPG", "JPEG", "GIF", "BMP"}, info.SupportedFormats)
}
