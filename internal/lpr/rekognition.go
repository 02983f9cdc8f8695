package lpr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

// Thai plates: optional leading digit, one to three Thai consonants, then up
// to four digits, e.g. "กข 1234", "1กก 2345".
var thaiPlatePattern = regexp.MustCompile(`^[0-9]?[\x{0E01}-\x{0E2E}]{1,3}\s?[0-9]{1,4}$`)

type TextDetector interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// Rekognition reads plates with AWS Rekognition DetectText.
type Rekognition struct {
	client TextDetector
	logger *slog.Logger
}

func NewRekognition(client TextDetector, logger *slog.Logger) *Rekognition {
	return &Rekognition{client: client, logger: logger.With("component", "rekognition")}
}

func (r *Rekognition) Name() string { return "rekognition" }

func (r *Rekognition) Recognize(ctx context.Context, image []byte) (*domain.LPRResult, error) {
	if r.client == nil {
		return nil, errors.New("Rekognition.Recognize: client not initialised")
	}
	if len(image) == 0 {
		return nil, errors.New("Rekognition.Recognize: empty image")
	}

	out, err := r.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: image},
	})
	if err != nil {
		r.logger.Warn("DetectText failed", "error", err)
		return &domain.LPRResult{Error: "Error calling LPR API: " + err.Error()}, nil
	}
	r.logger.Debug("DetectText returned", "blocks", len(out.TextDetections))

	plate, conf, seen := bestPlate(out.TextDetections)
	raw := map[string]any{"detected_text": seen}
	if plate == "" {
		return &domain.LPRResult{Error: MsgNotFound, RawResponse: raw}, nil
	}
	raw["lp_number"] = plate
	raw["conf"] = conf
	return &domain.LPRResult{
		Success:      true,
		LicensePlate: plate,
		Confidence:   conf / 100,
		RawResponse:  raw,
	}, nil
}

// bestPlate returns the highest-confidence line or word that looks like a
// Thai plate, plus every text block seen.
func bestPlate(detections []types.TextDetection) (string, float64, []string) {
	var best string
	var bestConf float32
	var seen []string
	for _, d := range detections {
		if d.Type != types.TextTypesLine && d.Type != types.TextTypesWord {
			continue
		}
		if d.DetectedText == nil || d.Confidence == nil {
			continue
		}
		text := strings.Join(strings.Fields(*d.DetectedText), " ")
		seen = append(seen, fmt.Sprintf("%s (%.2f)", text, *d.Confidence))
		if thaiPlatePattern.MatchString(text) && *d.Confidence > bestConf {
			best, bestConf = text, *d.Confidence
		}
	}
	return best, float64(bestConf), seen
}
