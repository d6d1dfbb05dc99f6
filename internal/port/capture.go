package port

import (
	"context"

	"simreg/internal/domain"
)

// Capturer wraps a capture widget. It yields one frame for document captures
// and a neutral plus a smile frame for face captures.
type Capturer interface {
	Capture(ctx context.Context, req domain.CaptureRequest) (*domain.Capture, error)
}

// PreviewStore materializes previews of captured images and releases them.
type PreviewStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Release(ctx context.Context, key string) error
}

// ProcessingWaiter blocks until a submitted registration is processed and
// returns its reference number.
type ProcessingWaiter interface {
	Wait(ctx context.Context, sessionID string) (string, error)
}
