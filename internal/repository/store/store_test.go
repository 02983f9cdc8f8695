package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/config"
)

func TestOpenFallsBackToMemory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, backend := range []string{"memory", "firebase"} {
		t.Run(backend, func(t *testing.T) {
			cfg := &config.Config{StoreBackend: backend}
			repo, closeFn := Open(context.Background(), cfg, logger)
			defer closeFn()
			assert.Equal(t, "memory", repo.Backend())
		})
	}
}
