package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gopkg.in/guregu/null.v4"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/service"
)

const (
	msgNoFileSelected = "ไม่มีไฟล์ถูกเลือก"
	msgFileTooLarge   = "ไฟล์มีขนาดใหญ่เกินกำหนด"
	msgBadConfidence  = "ค่า confidence ไม่ถูกต้อง"
)

type DetectionHandler struct {
	detectionService *service.DetectionService
	maxUploadBytes   int64
}

func NewDetectionHandler(ds *service.DetectionService, maxUploadBytes int64) *DetectionHandler {
	return &DetectionHandler{detectionService: ds, maxUploadBytes: maxUploadBytes}
}

// POST /upload
func (h *DetectionHandler) Upload(c *gin.Context) {
	name, data, status, msg := h.readFile(c, msgNoFileSelected)
	if status != 0 {
		fail(c, status, msg)
		return
	}

	resp, err := h.detectionService.Upload(c.Request.Context(), name, data)
	if err != nil {
		h.detectError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/detect
func (h *DetectionHandler) Detect(c *gin.Context) {
	req, ok := h.captureRequest(c)
	if !ok {
		return
	}
	resp, err := h.detectionService.DetectManual(c.Request.Context(), req)
	if err != nil {
		h.detectError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/detect-yolo
func (h *DetectionHandler) DetectYOLO(c *gin.Context) {
	req, ok := h.captureRequest(c)
	if !ok {
		return
	}
	resp, err := h.detectionService.DetectAuto(c.Request.Context(), req)
	if err != nil {
		h.detectError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DetectionHandler) captureRequest(c *gin.Context) (domain.CaptureRequest, bool) {
	name, data, status, msg := h.readFile(c, service.ErrNoFile.Error())
	if status != 0 {
		fail(c, status, msg)
		return domain.CaptureRequest{}, false
	}

	var threshold null.Float
	if raw := c.PostForm("confidence"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			fail(c, http.StatusBadRequest, msgBadConfidence)
			return domain.CaptureRequest{}, false
		}
		threshold = null.FloatFrom(v)
	}
	return domain.CaptureRequest{
		Data:                data,
		Filename:            name,
		Source:              c.DefaultPostForm("source", "unknown"),
		ConfidenceThreshold: threshold,
	}, true
}

// readFile pulls the multipart "file" field. A non-zero status means the
// request must be rejected with msg; missingMsg is used when no file part
// was sent at all.
func (h *DetectionHandler) readFile(c *gin.Context, missingMsg string) (string, []byte, int, string) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, http.StatusRequestEntityTooLarge, msgFileTooLarge
		}
		return "", nil, http.StatusBadRequest, missingMsg
	}
	if fh.Filename == "" {
		return "", nil, http.StatusBadRequest, msgNoFileSelected
	}

	f, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		return fh.Filename, nil, http.StatusInternalServerError, fmt.Sprintf("เกิดข้อผิดพลาด: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		_ = c.Error(err)
		return fh.Filename, nil, http.StatusInternalServerError, fmt.Sprintf("เกิดข้อผิดพลาด: %v", err)
	}
	return fh.Filename, data, 0, ""
}

func (h *DetectionHandler) detectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoFile), errors.Is(err, service.ErrFileType):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, fmt.Sprintf("เกิดข้อผิดพลาด: %v", err))
	}
}
