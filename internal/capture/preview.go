package capture

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"simreg/internal/domain"
	"simreg/internal/port"
)

// PreviewSet tracks the previews materialized for one wizard, at most one per
// capture kind. Materializing a new preview for a kind releases the one it
// supersedes.
type PreviewSet struct {
	mu      sync.Mutex
	store   port.PreviewStore
	prefix  string
	handles map[domain.CaptureKind]*domain.PreviewHandle
}

// NewPreviewSet creates a preview set whose stored objects are keyed under prefix.
// A nil store keeps only inline data URL previews.
func NewPreviewSet(store port.PreviewStore, prefix string) *PreviewSet {
	return &PreviewSet{
		store:   store,
		prefix:  strings.TrimSuffix(prefix, "/"),
		handles: make(map[domain.CaptureKind]*domain.PreviewHandle),
	}
}

// Materialize creates a preview for frame and attaches it to result.
// Encoded frames preview as inline data URLs; blobs are written to the store.
func (p *PreviewSet) Materialize(ctx context.Context, frame domain.Frame, result *domain.CaptureResult) error {
	handle, err := p.create(ctx, frame, result)
	if err != nil {
		return err
	}

	p.mu.Lock()
	old := p.handles[result.Kind]
	p.handles[result.Kind] = handle
	p.mu.Unlock()

	result.Preview = handle
	p.release(ctx, old)
	return nil
}

func (p *PreviewSet) create(ctx context.Context, frame domain.Frame, result *domain.CaptureResult) (*domain.PreviewHandle, error) {
	contentType := frame.ContentType
	if len(frame.Blob) == 0 || p.store == nil {
		if contentType == "" {
			contentType = "image/jpeg"
		}
		if strings.HasPrefix(frame.Encoded, "data:") {
			return &domain.PreviewHandle{URL: frame.Encoded}, nil
		}
		return &domain.PreviewHandle{URL: "data:" + contentType + ";base64," + result.Payload}, nil
	}

	if contentType == "" {
		contentType = http.DetectContentType(frame.Blob)
	}
	key := fmt.Sprintf("%s/%s/%s", p.prefix, result.Kind, uuid.New().String())
	url, err := p.store.Put(ctx, key, contentType, frame.Blob)
	if err != nil {
		return nil, fmt.Errorf("storing %s preview: %w", result.Kind, err)
	}
	return &domain.PreviewHandle{Key: key, URL: url}, nil
}

// Release drops the preview held for kind.
func (p *PreviewSet) Release(ctx context.Context, kind domain.CaptureKind) {
	p.mu.Lock()
	h := p.handles[kind]
	delete(p.handles, kind)
	p.mu.Unlock()
	p.release(ctx, h)
}

// ReleaseAll drops every preview held by the set.
func (p *PreviewSet) ReleaseAll(ctx context.Context) {
	p.mu.Lock()
	handles := p.handles
	p.handles = make(map[domain.CaptureKind]*domain.PreviewHandle)
	p.mu.Unlock()

	for _, h := range handles {
		p.release(ctx, h)
	}
}

// Handles returns a copy of the previews currently held.
func (p *PreviewSet) Handles() map[domain.CaptureKind]domain.PreviewHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[domain.CaptureKind]domain.PreviewHandle, len(p.handles))
	for k, h := range p.handles {
		out[k] = *h
	}
	return out
}

// Held returns the number of previews currently held.
func (p *PreviewSet) Held() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}

func (p *PreviewSet) release(ctx context.Context, h *domain.PreviewHandle) {
	if h == nil || h.Key == "" || p.store == nil {
		return
	}
	if err := p.store.Release(ctx, h.Key); err != nil {
		log.Printf("capture.PreviewSet: failed to release preview %s: %v", h.Key, err)
	}
}
