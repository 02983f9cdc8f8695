package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/repository"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/service"
)

const (
	msgBadLimit = "ค่า limit ไม่ถูกต้อง"
	msgBadDate  = "รูปแบบวันที่ไม่ถูกต้อง"
	msgNotFound = "ไม่พบข้อมูลการตรวจจับ"
)

var searchTimeLayouts = []string{time.RFC3339, domain.DisplayTimeLayout, "2006-01-02T15:04", time.DateOnly}

type RecordsHandler struct {
	detectionService *service.DetectionService
}

func NewRecordsHandler(ds *service.DetectionService) *RecordsHandler {
	return &RecordsHandler{detectionService: ds}
}

// GET /api/info
func (h *RecordsHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, h.detectionService.Info(c.Request.Context()))
}

// GET /api/firebase/stats
func (h *RecordsHandler) Stats(c *gin.Context) {
	stats, err := h.detectionService.Stats(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// GET /api/firebase/recent?limit=
func (h *RecordsHandler) Recent(c *gin.Context) {
	limit := service.DefaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			fail(c, http.StatusBadRequest, msgBadLimit)
			return
		}
		limit = v
	}

	recent, err := h.detectionService.Recent(c.Request.Context(), limit)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "detections": recent, "count": len(recent)})
}

// GET /api/firebase/search?license_plate=&from=&to=
func (h *RecordsHandler) Search(c *gin.Context) {
	filter := domain.DetectionFilter{LicensePlate: c.Query("license_plate")}
	var err error
	if filter.From, err = parseSearchTime(c.Query("from"), false); err != nil {
		fail(c, http.StatusBadRequest, msgBadDate)
		return
	}
	if filter.To, err = parseSearchTime(c.Query("to"), true); err != nil {
		fail(c, http.StatusBadRequest, msgBadDate)
		return
	}

	results, err := h.detectionService.Search(c.Request.Context(), filter)
	if err != nil {
		if errors.Is(err, service.ErrEmptySearch) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"results":     results,
		"count":       len(results),
		"search_term": strings.TrimSpace(filter.LicensePlate),
	})
}

// GET /api/province-stats
func (h *RecordsHandler) ProvinceStats(c *gin.Context) {
	stats, err := h.detectionService.ProvinceStats(c.Request.Context())
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// DELETE /api/firebase/detections/:id
func (h *RecordsHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.detectionService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			fail(c, http.StatusNotFound, msgNotFound)
			return
		}
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func storeError(c *gin.Context, err error) {
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, err.Error())
}

// parseSearchTime reads a from/to bound in local time. A date-only upper
// bound is extended to the last instant of that day.
func parseSearchTime(raw string, upper bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range searchTimeLayouts {
		t, err := time.ParseInLocation(layout, raw, time.Local)
		if err != nil {
			continue
		}
		if upper && layout == time.DateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &t, nil
	}
	return nil, errors.New("unrecognised time " + strconv.Quote(raw))
}
