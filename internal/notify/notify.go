// Package notify fans detection events out to live subscribers and
// downstream systems.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, event domain.DetectionEvent) error
}

// Fanout publishes every event to all of its publishers and joins their
// errors. A nil or empty Fanout is a no-op.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event domain.DetectionEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, domain.DetectionEvent) error { return nil }

func encode(event domain.DetectionEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal detection event: %w", err)
	}
	return payload, nil
}
