package detector

import (
	"sort"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

const DefaultIoUThreshold = 0.45

// Candidate is a raw box in model input coordinates.
type Candidate struct {
	CX, CY, W, H float32
	Score        float32
	Class        int
}

// DecodeYOLOv8 reads a [1, 4+nc, n] output tensor laid out channel-major:
// rows 0..3 are cx, cy, w, h and the remaining rows are class scores.
// Candidates below minScore are dropped.
func DecodeYOLOv8(out []float32, channels, n int, minScore float32) []Candidate {
	if channels < 5 || n <= 0 || len(out) < channels*n {
		return nil
	}
	var cands []Candidate
	for i := 0; i < n; i++ {
		best, cls := float32(0), 0
		for c := 4; c < channels; c++ {
			if s := out[c*n+i]; s > best {
				best, cls = s, c-4
			}
		}
		if best < minScore {
			continue
		}
		cands = append(cands, Candidate{
			CX: out[i], CY: out[n+i], W: out[2*n+i], H: out[3*n+i],
			Score: best, Class: cls,
		})
	}
	return cands
}

// ToBoxes maps candidates from a modelW x modelH input back to a srcW x srcH
// image. Normalised outputs (all coordinates <= 1) are detected and scaled
// up first. Boxes are clamped to the source bounds.
func ToBoxes(cands []Candidate, modelW, modelH, srcW, srcH int) []domain.PlateBox {
	normalised := true
	for _, c := range cands {
		if c.CX > 1.5 || c.CY > 1.5 || c.W > 1.5 || c.H > 1.5 {
			normalised = false
			break
		}
	}
	sx, sy := float32(srcW)/float32(modelW), float32(srcH)/float32(modelH)
	if normalised {
		sx, sy = float32(srcW), float32(srcH)
	}

	boxes := make([]domain.PlateBox, 0, len(cands))
	for _, c := range cands {
		x1 := clamp(int((c.CX-c.W/2)*sx), 0, srcW)
		y1 := clamp(int((c.CY-c.H/2)*sy), 0, srcH)
		x2 := clamp(int((c.CX+c.W/2)*sx), 0, srcW)
		y2 := clamp(int((c.CY+c.H/2)*sy), 0, srcH)
		if x2 <= x1 || y2 <= y1 {
			continue
		}
		boxes = append(boxes, domain.PlateBox{
			BBox:       [4]int{x1, y1, x2, y2},
			Confidence: float64(c.Score),
			Class:      c.Class,
			Width:      x2 - x1,
			Height:     y2 - y1,
		})
	}
	return boxes
}

// NMS keeps the highest scoring box of every overlapping group, per class.
func NMS(boxes []domain.PlateBox, iouThreshold float64) []domain.PlateBox {
	sorted := make([]domain.PlateBox, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Confidence > sorted[j].Confidence })

	kept := make([]domain.PlateBox, 0, len(sorted))
	for _, b := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.Class == b.Class && IoU(k.BBox, b.BBox) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, b)
		}
	}
	return kept
}

func IoU(a, b [4]int) float64 {
	ix1, iy1 := max(a[0], b[0]), max(a[1], b[1])
	ix2, iy2 := min(a[2], b[2]), min(a[3], b[3])
	if ix2 <= ix1 || iy2 <= iy1 {
		return 0
	}
	inter := float64((ix2 - ix1) * (iy2 - iy1))
	areaA := float64((a[2] - a[0]) * (a[3] - a[1]))
	areaB := float64((b[2] - b[0]) * (b[3] - b[1]))
	return inter / (areaA + areaB - inter)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
