// Package detector localises license plates in a frame so the recognizer
// can be fed a tight crop instead of the whole picture.
package detector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/sunshineplan/imgconv"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

var ErrDetectorUnavailable = errors.New("plate detector not loaded")

const (
	DefaultConfidence = 0.7
	CropPadding       = 10
)

// Detector returns plate boxes scoring at least minConfidence, in source
// image pixel coordinates.
type Detector interface {
	Detect(ctx context.Context, img image.Image, minConfidence float64) ([]domain.PlateBox, error)
	Close() error
}

// Disabled is used when no model could be loaded.
type Disabled struct{}

func (Disabled) Detect(context.Context, image.Image, float64) ([]domain.PlateBox, error) {
	return nil, ErrDetectorUnavailable
}

func (Disabled) Close() error { return nil }

// Best returns the highest scoring box. ok is false for an empty slice.
func Best(boxes []domain.PlateBox) (domain.PlateBox, bool) {
	if len(boxes) == 0 {
		return domain.PlateBox{}, false
	}
	best := boxes[0]
	for _, b := range boxes[1:] {
		if b.Confidence > best.Confidence {
			best = b
		}
	}
	return best, true
}

// Crop cuts bbox grown by padding on each side, clamped to the image.
func Crop(img image.Image, bbox [4]int, padding int) (image.Image, error) {
	bounds := img.Bounds()
	rect := image.Rect(bbox[0]-padding, bbox[1]-padding, bbox[2]+padding, bbox[3]+padding).
		Add(bounds.Min).
		Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("crop box %v outside image %v", bbox, bounds)
	}

	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect), nil
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out, nil
}

// Decode reads any format imgconv understands.
func Decode(data []byte) (image.Image, error) {
	img, err := imgconv.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// EncodeJPEG encodes img at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	err := imgconv.Write(&buf, img, &imgconv.FormatOption{
		Format:       imgconv.JPEG,
		EncodeOption: []imgconv.EncodeOption{imgconv.Quality(quality)},
	})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
