package lpr

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

var mockPlates = []string{"กข 1234", "1กก 2345", "ตณ 3754", "2กร 5678", "บจ 9876"}

// Mock simulates the remote API: a short delay, then a random plate 70% of
// the time.
type Mock struct {
	mu       sync.Mutex
	rnd      *rand.Rand
	minDelay time.Duration
	maxDelay time.Duration
}

func NewMock() *Mock {
	return &Mock{
		rnd:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		minDelay: 200 * time.Millisecond,
		maxDelay: 800 * time.Millisecond,
	}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Recognize(ctx context.Context, image []byte) (*domain.LPRResult, error) {
	m.mu.Lock()
	delay := m.minDelay
	if span := m.maxDelay - m.minDelay; span > 0 {
		delay += time.Duration(m.rnd.Int64N(int64(span)))
	}
	hit := m.rnd.Float64() < 0.7
	plate := mockPlates[m.rnd.IntN(len(mockPlates))]
	conf := 80 + m.rnd.Float64()*15
	m.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return transportFailure(ctx.Err()), nil
	case <-timer.C:
	}

	if !hit {
		return &domain.LPRResult{Error: MsgNotFoundMock, Mock: true}, nil
	}
	return &domain.LPRResult{
		Success:      true,
		LicensePlate: plate,
		Confidence:   conf / 100,
		Mock:         true,
		RawResponse:  map[string]any{"lp_number": plate, "conf": conf},
	}, nil
}
