package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/api"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/api/handler"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/api/middleware"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/config"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/detector"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/detector/tflite"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/iot"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/lpr"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/metrics"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/notify"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/repository/store"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/service"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/uploads"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the capture queue consumer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	repo, closeRepo := store.Open(ctx, cfg, logger)
	defer closeRepo()
	logger.Info("detection store ready", "backend", repo.Backend())

	uploadStore, err := uploads.New(cfg.UploadFolder)
	if err != nil {
		return err
	}

	cloud := &lazyAWS{region: cfg.AWSRegion}

	recognizer, err := newRecognizer(ctx, cfg, cloud, logger)
	if err != nil {
		return err
	}
	logger.Info("plate recognizer ready", "provider", recognizer.Name())

	plateDetector := newDetector(cfg, logger)
	defer plateDetector.Close()

	wsManager := handler.NewWebSocketManager(logger)
	publishers, closePublishers, err := newPublishers(ctx, cfg, cloud, wsManager, logger)
	if err != nil {
		return err
	}
	defer closePublishers()

	detections := service.NewDetectionService(service.DetectionServiceDeps{
		Repo:       repo,
		Recognizer: recognizer,
		Detector:   plateDetector,
		Uploads:    uploadStore,
		Publisher:  publishers,
		Metrics:    m,
		Logger:     logger,
		CacheTTL:   cfg.StatsCacheTTL,
		APIURL:     cfg.LPRAPIURL,
		MaxUpload:  fmt.Sprintf("%dMB", cfg.MaxUploadMB),
	})
	auth := service.NewAuthService(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.JWTSecret, cfg.JWTExpiration())
	if !auth.Enabled() {
		logger.Warn("ADMIN_PASSWORD_HASH or JWT_SECRET is empty, admin login disabled")
	}

	router, err := api.SetupRouter(api.RouterDeps{
		Auth:           auth,
		Detections:     detections,
		AuthMw:         middleware.NewAuthMiddleware(auth, logger),
		WSManager:      wsManager,
		Metrics:        m,
		Gatherer:       reg,
		Logger:         logger,
		UploadDir:      uploadStore.Dir(),
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var consumer *iot.SQSConsumer
	if cfg.SQSCaptureQueueURL == "" {
		logger.Info("SQS_CAPTURE_QUEUE_URL not set, capture consumer disabled")
	} else {
		awsCfg, err := cloud.config(ctx)
		if err != nil {
			return err
		}
		consumer = iot.NewSQSConsumer(sqs.NewFromConfig(awsCfg), cfg.SQSCaptureQueueURL, detections, logger)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		wsManager.Start(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if consumer != nil {
		g.Go(func() error {
			consumer.Start(gctx)
			return nil
		})
	}

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

func newRecognizer(ctx context.Context, cfg *config.Config, cloud *lazyAWS, logger *slog.Logger) (lpr.Recognizer, error) {
	if cfg.LPRUseMock {
		return lpr.NewMock(), nil
	}
	switch cfg.LPRProvider {
	case "rekognition":
		awsCfg, err := cloud.config(ctx)
		if err != nil {
			return nil, err
		}
		return lpr.NewRekognition(rekognition.NewFromConfig(awsCfg), logger), nil
	default:
		if cfg.LPRAPIKey == "" {
			logger.Warn("LPR_API_KEY is empty, using mock recognizer")
			return lpr.NewMock(), nil
		}
		return lpr.NewAIForThai(lpr.AIForThaiConfig{
			URL:        cfg.LPRAPIURL,
			APIKey:     cfg.LPRAPIKey,
			Timeout:    cfg.LPRTimeout,
			RatePerSec: cfg.LPRRatePerSec,
		}, http.DefaultClient, logger), nil
	}
}

// newDetector loads the plate model; auto mode runs without it and reports
// that no plate was localised.
func newDetector(cfg *config.Config, logger *slog.Logger) detector.Detector {
	if cfg.DetectorModelPath == "" {
		return detector.Disabled{}
	}
	yolo, err := tflite.Load(cfg.DetectorModelPath, cfg.DetectorThreads, logger)
	if err != nil {
		logger.Warn("plate detector unavailable", "model", cfg.DetectorModelPath, "error", err)
		return detector.Disabled{}
	}
	logger.Info("plate detector loaded", "model", cfg.DetectorModelPath)
	return yolo
}

func newPublishers(ctx context.Context, cfg *config.Config, cloud *lazyAWS, ws *handler.WebSocketManager, logger *slog.Logger) (notify.Fanout, func(), error) {
	publishers := notify.Fanout{ws}
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.MQTTBroker != "" {
		client, err := notify.DialMQTT(notify.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
			Topic:    cfg.MQTTTopic,
		}, logger)
		if err != nil {
			logger.Warn("mqtt publisher disabled", "error", err)
		} else {
			publishers = append(publishers, client)
			closers = append(closers, client.Close)
		}
	}

	if cfg.IoTMQTTEndpoint != "" {
		awsCfg, err := cloud.config(ctx)
		if err != nil {
			return nil, closeAll, err
		}
		endpoint := cfg.IoTMQTTEndpoint
		if !strings.HasPrefix(endpoint, "https://") && !strings.HasPrefix(endpoint, "http://") {
			endpoint = "https://" + endpoint
		}
		client := iotdataplane.NewFromConfig(awsCfg, func(o *iotdataplane.Options) {
			o.BaseEndpoint = &endpoint
		})
		publishers = append(publishers, notify.NewIoT(client, cfg.IoTTopic))
	}

	if cfg.SQSResultQueueURL != "" {
		awsCfg, err := cloud.config(ctx)
		if err != nil {
			return nil, closeAll, err
		}
		publishers = append(publishers, notify.NewSQS(sqs.NewFromConfig(awsCfg), cfg.SQSResultQueueURL))
	}

	return publishers, closeAll, nil
}

// lazyAWS loads the shared AWS config the first time a component needs it.
type lazyAWS struct {
	region string
	cfg    *aws.Config
}

func (l *lazyAWS) config(ctx context.Context) (aws.Config, error) {
	if l.cfg != nil {
		return *l.cfg, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(l.region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	l.cfg = &cfg
	return cfg, nil
}
