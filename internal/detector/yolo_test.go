package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

// tensor lays out anchors channel-major the way YOLOv8 exports them.
func tensor(anchors ...[5]float32) []float32 {
	n := len(anchors)
	out := make([]float32, 5*n)
	for i, a := range anchors {
		for c := 0; c < 5; c++ {
			out[c*n+i] = a[c]
		}
	}
	return out
}

func TestDecodeYOLOv8(t *testing.T) {
	out := tensor(
		[5]float32{320, 320, 100, 40, 0.9},
		[5]float32{100, 100, 50, 20, 0.3},
	)
	cands := DecodeYOLOv8(out, 5, 2, 0.5)
	require.Len(t, cands, 1)
	assert.Equal(t, Candidate{CX: 320, CY: 320, W: 100, H: 40, Score: 0.9}, cands[0])

	assert.Nil(t, DecodeYOLOv8(out, 5, 3, 0.5))
	assert.Nil(t, DecodeYOLOv8(out, 4, 2, 0.5))
}

func TestToBoxesScalesPixelOutput(t *testing.T) {
	boxes := ToBoxes([]Candidate{{CX: 320, CY: 320, W: 100, H: 40, Score: 0.9}}, 640, 640, 1280, 720)
	require.Len(t, boxes, 1)
	assert.Equal(t, [4]int{540, 337, 740, 382}, boxes[0].BBox)
	assert.Equal(t, 200, boxes[0].Width)
	assert.Equal(t, 45, boxes[0].Height)
}

func TestToBoxesNormalisedOutput(t *testing.T) {
	boxes := ToBoxes([]Candidate{{CX: 0.5, CY: 0.5, W: 0.2, H: 0.2, Score: 0.8}}, 640, 640, 1000, 500)
	require.Len(t, boxes, 1)
	assert.Equal(t, [4]int{400, 200, 600, 300}, boxes[0].BBox)
}

func TestToBoxesClampsAndDropsDegenerate(t *testing.T) {
	boxes := ToBoxes([]Candidate{
		{CX: 10, CY: 10, W: 40, H: 40, Score: 0.9},
		{CX: 700, CY: 700, W: 10, H: 10, Score: 0.9},
	}, 640, 640, 640, 640)
	require.Len(t, boxes, 1)
	assert.Equal(t, [4]int{0, 0, 30, 30}, boxes[0].BBox)
}

func TestNMS(t *testing.T) {
	boxes := []domain.PlateBox{
		{BBox: [4]int{0, 0, 100, 100}, Confidence: 0.7},
		{BBox: [4]int{5, 5, 105, 105}, Confidence: 0.9},
		{BBox: [4]int{200, 200, 300, 300}, Confidence: 0.6},
		{BBox: [4]int{5, 5, 105, 105}, Confidence: 0.5, Class: 1},
	}
	kept := NMS(boxes, DefaultIoUThreshold)
	require.Len(t, kept, 3)
	assert.Equal(t, 0.9, kept[0].Confidence)
	assert.Equal(t, 0.6, kept[1].Confidence)
	assert.Equal(t, 1, kept[2].Class)
}

func TestIoU(t *testing.T) {
	assert.Equal(t, 1.0, IoU([4]int{0, 0, 10, 10}, [4]int{0, 0, 10, 10}))
	assert.Equal(t, 0.0, IoU([4]int{0, 0, 10, 10}, [4]int{10, 10, 20, 20}))
	assert.InDelta(t, 25.0/175.0, IoU([4]int{0, 0, 10, 10}, [4]int{5, 5, 15, 15}), 1e-9)
}
