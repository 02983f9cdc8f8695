package lpr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"time"

	"golang.org/x/time/rate"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

const DefaultAIForThaiURL = "https://api.aiforthai.in.th/lpr-iapp"

type AIForThaiConfig struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	RatePerSec float64 // <= 0 disables the limiter
}

// AIForThai calls the AI for Thai LPR-iApp endpoint.
type AIForThai struct {
	url     string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewAIForThai(cfg AIForThaiConfig, client *http.Client, logger *slog.Logger) *AIForThai {
	if cfg.URL == "" {
		cfg.URL = DefaultAIForThaiURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	c := *client
	c.Timeout = cfg.Timeout
	return &AIForThai{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		client:  &c,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With("component", "aiforthai"),
	}
}

func (a *AIForThai) Name() string { return "aiforthai" }

func (a *AIForThai) Recognize(ctx context.Context, image []byte) (*domain.LPRResult, error) {
	if len(image) == 0 {
		return nil, errors.New("AIForThai.Recognize: empty image")
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return transportFailure(err), nil
	}

	body, contentType, err := multipartImage(image)
	if err != nil {
		return nil, fmt.Errorf("AIForThai.Recognize: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, body)
	if err != nil {
		return nil, fmt.Errorf("AIForThai.Recognize: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("apikey", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn("lpr request failed", "error", err)
		return transportFailure(err), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(err), nil
	}
	a.logger.Debug("lpr response", "status", resp.StatusCode, "body", string(raw))
	return mapAIForThaiResponse(resp.StatusCode, raw), nil
}

func multipartImage(image []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func mapAIForThaiResponse(status int, body []byte) *domain.LPRResult {
	switch status {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return &domain.LPRResult{Error: MsgInvalidKey, Message: string(body)}
	case http.StatusTooManyRequests:
		return &domain.LPRResult{Error: MsgRateLimited, Message: string(body)}
	default:
		return &domain.LPRResult{Error: fmt.Sprintf("API Error: %d", status), Message: string(body)}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return &domain.LPRResult{Error: "Error calling LPR API: " + err.Error(), Message: string(body)}
	}

	if number(payload["status"]) == 200 {
		if plate, _ := payload["lp_number"].(string); plate != "" {
			return &domain.LPRResult{
				Success:      true,
				LicensePlate: plate,
				Confidence:   number(payload["conf"]) / 100,
				RawResponse:  payload,
			}
		}
	}
	if entries, ok := payload["LPR"].([]any); ok && len(entries) > 0 {
		first, _ := entries[0].(map[string]any)
		plate, _ := first["plate"].(string)
		return &domain.LPRResult{
			Success:      true,
			LicensePlate: plate,
			Confidence:   number(first["confidence"]),
			RawResponse:  payload,
		}
	}
	return &domain.LPRResult{Error: MsgNotFound, RawResponse: payload}
}

func transportFailure(err error) *domain.LPRResult {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &domain.LPRResult{Error: MsgTimeout}
	case errors.As(err, new(*net.OpError)):
		return &domain.LPRResult{Error: MsgConnection}
	default:
		return &domain.LPRResult{Error: "Error calling LPR API: " + err.Error()}
	}
}
