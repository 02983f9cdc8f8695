package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"gopkg.in/guregu/null.v4"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/detector"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/lpr"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/metrics"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/notify"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/province"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/repository"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/uploads"
)

var (
	ErrNoFile      = errors.New("ไม่มีไฟล์ถูกส่งมา")
	ErrFileType    = errors.New("ไฟล์ไม่ถูกต้อง รองรับเฉพาะ PNG, JPG, JPEG, GIF, BMP")
	ErrEmptySearch = errors.New("กรุณาระบุหมายเลขป้ายทะเบียน")
	ErrInvalidJob  = errors.New("invalid capture job")

	ErrRecognizerUnavailable = errors.New("plate recognizer temporarily unavailable")
)

const (
	DefaultManualConfidence = 0.25
	DefaultRecentLimit      = 20

	msgCropFailed     = "ไม่สามารถครอบตัดภาพป้ายทะเบียนได้"
	msgUnreadable     = "ไม่สามารถอ่านไฟล์ภาพได้"
	publishTimeout    = 5 * time.Second
	cacheKeyStats     = "stats"
	cacheKeyProvinces = "province_stats"
	captureTimeLayout = "2006-01-02 15:04:05"
	cropJPEGQuality   = 95
)

type DetectionServiceDeps struct {
	Repo       repository.DetectionRepository
	Recognizer lpr.Recognizer
	Detector   detector.Detector
	Uploads    *uploads.Store
	Publisher  notify.Publisher
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	CacheTTL   time.Duration
	APIURL     string
	MaxUpload  string
}

type DetectionService struct {
	repo       repository.DetectionRepository
	recognizer lpr.Recognizer
	detector   detector.Detector
	uploads    *uploads.Store
	publisher  notify.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	cache      *cache.Cache
	apiURL     string
	maxUpload  string
	now        func() time.Time
}

func NewDetectionService(deps DetectionServiceDeps) *DetectionService {
	if deps.Detector == nil {
		deps.Detector = detector.Disabled{}
	}
	if deps.Publisher == nil {
		deps.Publisher = notify.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MaxUpload == "" {
		deps.MaxUpload = "16MB"
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &DetectionService{
		repo:       deps.Repo,
		recognizer: deps.Recognizer,
		detector:   deps.Detector,
		uploads:    deps.Uploads,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		logger:     deps.Logger.With("component", "detection"),
		cache:      cache.New(ttl, 2*ttl),
		apiURL:     deps.APIURL,
		maxUpload:  deps.MaxUpload,
		now:        time.Now,
	}
}

// DetectManual sends the whole frame to the recognizer.
func (s *DetectionService) DetectManual(ctx context.Context, req domain.CaptureRequest) (*domain.ManualDetectionResponse, error) {
	if len(req.Data) == 0 {
		return nil, ErrNoFile
	}
	threshold := req.ConfidenceThreshold.ValueOrZero()
	if !req.ConfidenceThreshold.Valid {
		threshold = DefaultManualConfidence
	}

	tempFile, err := s.uploads.SaveCapture("webcam", s.now(), req.Data)
	if err != nil {
		return nil, fmt.Errorf("DetectionService.DetectManual: %w", err)
	}

	result := s.recognize(ctx, req.Data)
	resp := &domain.ManualDetectionResponse{
		LPRResult:   *result,
		CaptureInfo: s.captureInfo(req.Source, threshold, tempFile),
	}
	if result.Found() {
		resp.FirebaseDocID = s.save(ctx, detection{
			plate:     result.LicensePlate,
			apiConf:   result.Confidence,
			mode:      domain.ModeManual,
			source:    resp.Source,
			raw:       result.RawResponse,
			imageFile: tempFile,
			imageSize: len(req.Data),
		})
	}
	s.metrics.Detection(string(domain.ModeManual), lpr.Outcome(result))
	return resp, nil
}

// DetectAuto localises the plate first and only sends the crop to the
// recognizer.
func (s *DetectionService) DetectAuto(ctx context.Context, req domain.CaptureRequest) (*domain.AutoDetectionResponse, error) {
	if len(req.Data) == 0 {
		return nil, ErrNoFile
	}
	threshold := req.ConfidenceThreshold.ValueOrZero()
	if !req.ConfidenceThreshold.Valid {
		threshold = detector.DefaultConfidence
	}

	tempFile, err := s.uploads.SaveCapture("webcam_yolo", s.now(), req.Data)
	if err != nil {
		return nil, fmt.Errorf("DetectionService.DetectAuto: %w", err)
	}
	resp := &domain.AutoDetectionResponse{
		YOLODetections: []domain.PlateBox{},
		CaptureInfo:    s.captureInfo(req.Source, threshold, tempFile),
	}
	mode := string(domain.ModeAuto)

	img, err := detector.Decode(req.Data)
	if err != nil {
		s.logger.Warn("cannot decode capture", "file", tempFile, "error", err)
		resp.Error = msgUnreadable
		s.metrics.Detection(mode, "error")
		return resp, nil
	}

	boxes, err := s.detector.Detect(ctx, img, threshold)
	if err != nil {
		s.logger.Warn("plate detector failed", "error", err)
	}
	best, ok := detector.Best(boxes)
	if !ok {
		resp.Error = fmt.Sprintf("ไม่พบป้ายทะเบียนด้วย YOLO (confidence < %g)", threshold)
		s.metrics.Detection(mode, "not_found")
		return resp, nil
	}
	resp.YOLODetections = boxes
	s.logger.Debug("best plate box", "confidence", best.Confidence, "bbox", best.BBox)

	crop, cropFile, err := s.cropPlate(img, best)
	if err != nil {
		s.logger.Warn("crop failed", "error", err)
		resp.Error = msgCropFailed
		s.metrics.Detection(mode, "error")
		return resp, nil
	}

	result := s.recognize(ctx, crop)
	bbox := best.BBox
	resp.Success = result.Success
	resp.LicensePlate = result.LicensePlate
	resp.Confidence = result.Confidence
	resp.Error = result.Error
	resp.YOLOConfidence = best.Confidence
	resp.BBox = &bbox
	resp.APIResult = result
	resp.CroppedFile = cropFile

	if result.Found() {
		resp.FirebaseDocID = s.save(ctx, detection{
			plate:     result.LicensePlate,
			apiConf:   result.Confidence,
			yoloConf:  null.FloatFrom(best.Confidence),
			mode:      domain.ModeAuto,
			source:    resp.Source,
			raw:       result.RawResponse,
			imageFile: cropFile,
			imageSize: len(crop),
		})
	}
	s.metrics.Detection(mode, lpr.Outcome(result))
	return resp, nil
}

// Upload handles the classic file upload form. Results are not persisted.
func (s *DetectionService) Upload(ctx context.Context, filename string, data []byte) (*domain.UploadResponse, error) {
	if filename == "" || len(data) == 0 {
		return nil, ErrNoFile
	}
	if !uploads.Allowed(filename) {
		return nil, ErrFileType
	}
	saved, err := s.uploads.SaveUpload(filename, s.now(), data)
	if err != nil {
		if errors.Is(err, uploads.ErrFileType) {
			return nil, ErrFileType
		}
		return nil, fmt.Errorf("DetectionService.Upload: %w", err)
	}

	result := s.recognize(ctx, data)
	s.metrics.Detection("upload", lpr.Outcome(result))
	return &domain.UploadResponse{
		LPRResult:    *result,
		UploadedFile: saved,
		UploadTime:   s.now().Format(captureTimeLayout),
	}, nil
}

// HandleCaptureJob runs a queued capture through the matching pipeline.
// Errors wrapping ErrInvalidJob will never succeed on retry; errors wrapping
// ErrRecognizerUnavailable should be retried later.
func (s *DetectionService) HandleCaptureJob(ctx context.Context, job domain.CaptureJob) error {
	data, err := base64.StdEncoding.DecodeString(job.ImageBase64)
	if err != nil || len(data) == 0 {
		return fmt.Errorf("%w: image_base64 missing or malformed", ErrInvalidJob)
	}
	if c := job.Confidence; c.Valid && (c.Float64 < 0 || c.Float64 > 1) {
		return fmt.Errorf("%w: confidence %g out of range", ErrInvalidJob, c.Float64)
	}
	source := job.Source
	if source == "" {
		source = "sqs"
	}
	req := domain.CaptureRequest{Data: data, Source: source, ConfidenceThreshold: job.Confidence}

	var (
		mode   domain.DetectionMode
		plate  string
		result *domain.LPRResult
	)
	switch job.Mode {
	case domain.ModeAuto:
		resp, err := s.DetectAuto(ctx, req)
		if err != nil {
			return err
		}
		mode, plate, result = domain.ModeAuto, resp.LicensePlate, resp.APIResult
	case domain.ModeManual, "":
		resp, err := s.DetectManual(ctx, req)
		if err != nil {
			return err
		}
		mode, plate, result = domain.ModeManual, resp.LicensePlate, &resp.LPRResult
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidJob, job.Mode)
	}

	if lpr.Transient(result) {
		return fmt.Errorf("%w: %s", ErrRecognizerUnavailable, result.Error)
	}
	s.logger.Info("capture job processed", "mode", mode, "source", source, "plate", plate, "success", result != nil && result.Success)
	return nil
}

func (s *DetectionService) Recent(ctx context.Context, limit int) ([]domain.DetectionView, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	records, err := s.repo.FindRecent(ctx, limit)
	s.metrics.StoreOp(s.repo.Backend(), "find_recent", err)
	if err != nil {
		return nil, fmt.Errorf("DetectionService.Recent: %w", err)
	}
	return domain.Views(records), nil
}

func (s *DetectionService) Search(ctx context.Context, filter domain.DetectionFilter) ([]domain.DetectionView, error) {
	filter.LicensePlate = strings.TrimSpace(filter.LicensePlate)
	if filter.LicensePlate == "" {
		return nil, ErrEmptySearch
	}
	records, err := s.repo.Search(ctx, filter)
	s.metrics.StoreOp(s.repo.Backend(), "search", err)
	if err != nil {
		return nil, fmt.Errorf("DetectionService.Search: %w", err)
	}
	return domain.Views(records), nil
}

func (s *DetectionService) Stats(ctx context.Context) (domain.DetectionStats, error) {
	if v, ok := s.cache.Get(cacheKeyStats); ok {
		return v.(domain.DetectionStats), nil
	}
	records, err := s.findAll(ctx)
	if err != nil {
		return domain.DetectionStats{}, fmt.Errorf("DetectionService.Stats: %w", err)
	}
	stats := domain.ComputeStats(records)
	s.cache.SetDefault(cacheKeyStats, stats)
	return stats, nil
}

func (s *DetectionService) ProvinceStats(ctx context.Context) (domain.ProvinceStats, error) {
	if v, ok := s.cache.Get(cacheKeyProvinces); ok {
		return v.(domain.ProvinceStats), nil
	}
	records, err := s.findAll(ctx)
	if err != nil {
		return domain.ProvinceStats{}, fmt.Errorf("DetectionService.ProvinceStats: %w", err)
	}
	stats := domain.ComputeProvinceStats(records)
	s.cache.SetDefault(cacheKeyProvinces, stats)
	return stats, nil
}

func (s *DetectionService) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	s.metrics.StoreOp(s.repo.Backend(), "delete", err)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("DetectionService.Delete: %w", err)
	}
	s.cache.Flush()
	s.publish(ctx, domain.DetectionEvent{Type: domain.EventDetectionDeleted, ID: id, Timestamp: s.now()})
	return nil
}

// APIInfo describes the running service to the web UI.
type APIInfo struct {
	APIURL            string   `json:"api_url"`
	Status            string   `json:"status"`
	SupportedFormats  []string `json:"supported_formats"`
	MaxFileSize       string   `json:"max_file_size"`
	FirebaseConnected bool     `json:"firebase_connected"`
	StoreBackend      string   `json:"store_backend"`
	Recognizer        string   `json:"recognizer"`
	DetectorLoaded    bool     `json:"detector_loaded"`
}

func (s *DetectionService) Info(ctx context.Context) APIInfo {
	_, disabled := s.detector.(detector.Disabled)
	return APIInfo{
		APIURL:            s.apiURL,
		Status:            "active",
		SupportedFormats:  uploads.SupportedFormats,
		MaxFileSize:       s.maxUpload,
		FirebaseConnected: s.repo.Ping(ctx) == nil,
		StoreBackend:      s.repo.Backend(),
		Recognizer:        s.recognizer.Name(),
		DetectorLoaded:    !disabled,
	}
}

// UploadedFiles lists the upload folder for the history page.
func (s *DetectionService) UploadedFiles() ([]uploads.FileInfo, error) {
	return s.uploads.List()
}

func (s *DetectionService) captureInfo(source string, threshold float64, tempFile string) domain.CaptureInfo {
	if source == "" {
		source = "unknown"
	}
	return domain.CaptureInfo{
		Source:              source,
		ConfidenceThreshold: threshold,
		CaptureTime:         s.now().Format(captureTimeLayout),
		TempFile:            tempFile,
	}
}

func (s *DetectionService) cropPlate(img image.Image, box domain.PlateBox) ([]byte, string, error) {
	cropped, err := detector.Crop(img, box.BBox, detector.CropPadding)
	if err != nil {
		return nil, "", err
	}
	data, err := detector.EncodeJPEG(cropped, cropJPEGQuality)
	if err != nil {
		return nil, "", err
	}
	name, err := s.uploads.SaveCapture("cropped", s.now(), data)
	if err != nil {
		return nil, "", err
	}
	return data, name, nil
}

func (s *DetectionService) recognize(ctx context.Context, data []byte) *domain.LPRResult {
	start := time.Now()
	result, err := s.recognizer.Recognize(ctx, data)
	if err != nil {
		s.logger.Error("recognizer failed", "provider", s.recognizer.Name(), "error", err)
		result = &domain.LPRResult{Error: "เกิดข้อผิดพลาด: " + err.Error()}
	}
	s.metrics.Recognize(s.recognizer.Name(), lpr.Outcome(result), time.Since(start))
	return result
}

type detection struct {
	plate     string
	apiConf   float64
	yoloConf  null.Float
	mode      domain.DetectionMode
	source    string
	raw       map[string]any
	imageFile string
	imageSize int
}

// save persists a recognized plate and returns its id. Store failures are
// logged and yield an empty id; they never fail the detection request.
func (s *DetectionService) save(ctx context.Context, d detection) string {
	analysis := province.Resolve(d.plate, d.raw)
	record := &domain.DetectionRecord{
		LicensePlate:            d.plate,
		ConfidenceAPI:           d.apiConf,
		ConfidenceYOLO:          d.yoloConf,
		DetectionMode:           d.mode,
		Source:                  d.source,
		ProvinceConfidence:      analysis.ProvinceConfidence,
		Region:                  analysis.Region,
		ProvinceAnalysisSuccess: analysis.AnalysisSuccess,
		HasImage:                d.imageFile != "",
		ImageSize:               d.imageSize,
		ImageFile:               d.imageFile,
		Timestamp:               s.now(),
	}
	if analysis.Province != "" {
		record.Province = null.StringFrom(analysis.Province)
	}

	saved, err := s.repo.Create(ctx, record)
	s.metrics.StoreOp(s.repo.Backend(), "create", err)
	if err != nil {
		s.logger.Warn("saving detection failed", "backend", s.repo.Backend(), "plate", d.plate, "error", err)
		return ""
	}
	s.cache.Flush()
	s.logger.Info("detection saved", "id", saved.ID, "plate", saved.LicensePlate, "mode", saved.DetectionMode, "province", analysis.Province)

	s.publish(ctx, domain.DetectionEvent{Type: domain.EventDetectionSaved, ID: saved.ID, Detection: saved, Timestamp: s.now()})
	return saved.ID
}

func (s *DetectionService) publish(ctx context.Context, event domain.DetectionEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	err := s.publisher.Publish(ctx, event)
	s.metrics.Published(err)
	if err != nil {
		s.logger.Warn("publishing detection event failed", "type", event.Type, "id", event.ID, "error", err)
	}
}

func (s *DetectionService) findAll(ctx context.Context) ([]domain.DetectionRecord, error) {
	records, err := s.repo.FindAll(ctx)
	s.metrics.StoreOp(s.repo.Backend(), "find_all", err)
	return records, err
}
