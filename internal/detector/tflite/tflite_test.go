package tflite

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/detector"
)

func TestFillInputScalesToUnitRange(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	img.Set(1, 0, color.RGBA{R: 0, G: 255, B: 255, A: 255})

	dst := make([]float32, 2*1*3)
	fillInput(dst, img, 2, 1)
	assert.InDeltaSlice(t, []float32{1, 0, 0, 0, 1, 1}, dst, 1e-6)
}

func TestLoadMissingModel(t *testing.T) {
	_, err := Load("does/not/exist.tflite", 1, nil)
	assert.Error(t, err)
}

func TestDetectAfterClose(t *testing.T) {
	y := &YOLO{}
	require.NoError(t, y.Close())

	assert.NotPanics(t, func() {
		boxes, err := y.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)), 0.5)
		assert.ErrorIs(t, err, detector.ErrDetectorUnavailable)
		assert.Nil(t, boxes)
	})
}
