package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/api/handler"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/api/middleware"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/metrics"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/service"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/web"
)

type RouterDeps struct {
	Auth           *service.AuthService
	Detections     *service.DetectionService
	AuthMw         *middleware.AuthMiddleware
	WSManager      *handler.WebSocketManager
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
	UploadDir      string
	MaxUploadBytes int64
}

func SetupRouter(d RouterDeps) (*gin.Engine, error) {
	templates, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(d.Logger, d.Metrics))
	r.Use(middleware.CORS())
	r.SetHTMLTemplate(templates)
	if d.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = d.MaxUploadBytes
	}

	pages := handler.NewPageHandler(d.Detections)
	r.GET("/", pages.Index)
	r.GET("/webcam", pages.Webcam)
	r.GET("/dashboard", pages.Dashboard)
	r.GET("/history", pages.History)
	r.StaticFS("/assets", http.FS(web.Static()))
	r.Static("/static/uploads", d.UploadDir)

	r.GET("/healthz", handler.Healthz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	wsHandler := handler.NewWebSocketHandler(d.WSManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(d.Auth)
	r.POST("/auth/login", authHandler.Login)

	detectH := handler.NewDetectionHandler(d.Detections, d.MaxUploadBytes)
	r.POST("/upload", detectH.Upload)

	recordsH := handler.NewRecordsHandler(d.Detections)
	apiRoutes := r.Group("/api")
	{
		apiRoutes.POST("/detect", detectH.Detect)
		apiRoutes.POST("/detect-yolo", detectH.DetectYOLO)
		apiRoutes.GET("/info", recordsH.Info)
		apiRoutes.GET("/province-stats", recordsH.ProvinceStats)

		store := apiRoutes.Group("/firebase")
		{
			store.GET("/stats", recordsH.Stats)
			store.GET("/recent", recordsH.Recent)
			store.GET("/search", recordsH.Search)
			store.DELETE("/detections/:id", d.AuthMw.Authenticate(), d.AuthMw.AuthorizeRole(domain.RoleAdmin), recordsH.Delete)
		}
	}

	return r, nil
}
