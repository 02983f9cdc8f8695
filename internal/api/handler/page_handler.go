package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/service"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/uploads"
)

type PageHandler struct {
	detectionService *service.DetectionService
}

func NewPageHandler(ds *service.DetectionService) *PageHandler {
	return &PageHandler{detectionService: ds}
}

type pageData struct {
	Title string
	Page  string
	Files []uploads.FileInfo
}

func (h *PageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageData{Title: "อัปโหลด", Page: "index"})
}

func (h *PageHandler) Webcam(c *gin.Context) {
	c.HTML(http.StatusOK, "webcam.html", pageData{Title: "Webcam", Page: "webcam"})
}

func (h *PageHandler) Dashboard(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", pageData{Title: "Dashboard", Page: "dashboard"})
}

// History lists the upload folder, newest first.
func (h *PageHandler) History(c *gin.Context) {
	files, err := h.detectionService.UploadedFiles()
	if err != nil {
		_ = c.Error(err)
	}
	c.HTML(http.StatusOK, "history.html", pageData{Title: "ประวัติ", Page: "history", Files: files})
}

// GET /healthz
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
