// Package tflite runs a YOLOv8 plate detector exported to TensorFlow Lite.
package tflite

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/sunshineplan/imgconv"
	"github.com/tphakala/go-tflite"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/detector"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

// YOLO wraps one interpreter. The interpreter is not safe for concurrent
// use, so Detect serialises calls.
type YOLO struct {
	mu          sync.Mutex
	model       *tflite.Model
	interpreter *tflite.Interpreter
	inW, inH    int
	logger      *slog.Logger
}

// Load reads the model at path. threads <= 0 uses all CPUs.
func Load(path string, threads int, logger *slog.Logger) (*YOLO, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	model := tflite.NewModel(data)
	if model == nil {
		return nil, fmt.Errorf("cannot load TensorFlow Lite model %s", path)
	}

	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	options := tflite.NewInterpreterOptions()
	options.SetNumThread(threads)
	options.SetErrorReporter(func(msg string, _ any) {
		logger.Error("tflite error", "message", msg)
	}, nil)
	defer options.Delete()

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		model.Delete()
		return nil, errors.New("cannot create interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		model.Delete()
		return nil, errors.New("tensor allocation failed")
	}

	input := interpreter.GetInputTensor(0)
	if input.NumDims() != 4 || input.Dim(3) != 3 {
		interpreter.Delete()
		model.Delete()
		return nil, fmt.Errorf("unexpected input tensor rank %d", input.NumDims())
	}

	y := &YOLO{
		model:       model,
		interpreter: interpreter,
		inH:         input.Dim(1),
		inW:         input.Dim(2),
		logger:      logger.With("component", "yolo"),
	}
	y.logger.Info("plate detector loaded", "path", path, "input", fmt.Sprintf("%dx%d", y.inW, y.inH), "threads", threads)
	return y, nil
}

func (y *YOLO) Detect(ctx context.Context, img image.Image, minConfidence float64) ([]domain.PlateBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.interpreter == nil {
		return nil, detector.ErrDetectorUnavailable
	}

	bounds := img.Bounds()
	resized := imgconv.Resize(img, &imgconv.ResizeOption{Width: y.inW, Height: y.inH})
	fillInput(y.interpreter.GetInputTensor(0).Float32s(), resized, y.inW, y.inH)
	if status := y.interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("tflite invoke failed: %v", status)
	}

	output := y.interpreter.GetOutputTensor(0)
	if output.NumDims() != 3 {
		return nil, fmt.Errorf("unexpected output tensor rank %d", output.NumDims())
	}
	channels, n := output.Dim(1), output.Dim(2)
	cands := detector.DecodeYOLOv8(output.Float32s(), channels, n, float32(minConfidence))
	boxes := detector.ToBoxes(cands, y.inW, y.inH, bounds.Dx(), bounds.Dy())
	boxes = detector.NMS(boxes, detector.DefaultIoUThreshold)

	y.logger.Debug("plates detected", "count", len(boxes), "min_confidence", minConfidence)
	return boxes, nil
}

func (y *YOLO) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.interpreter != nil {
		y.interpreter.Delete()
		y.interpreter = nil
	}
	if y.model != nil {
		y.model.Delete()
		y.model = nil
	}
	return nil
}

// fillInput writes img as NHWC RGB float32 scaled to [0, 1].
func fillInput(dst []float32, img image.Image, w, h int) {
	b := img.Bounds()
	i := 0
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			r, g, bl, _ := img.At(b.Min.X+px, b.Min.Y+py).RGBA()
			dst[i] = float32(r) / 65535
			dst[i+1] = float32(g) / 65535
			dst[i+2] = float32(bl) / 65535
			i += 3
		}
	}
}

var _ detector.Detector = (*YOLO)(nil)
