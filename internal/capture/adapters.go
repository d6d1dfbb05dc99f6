package capture

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"simreg/internal/domain"
)

// Supplied is a Capturer over frames that were already captured by a client,
// such as the browser widget posting its complete or error event to the BFF.
type Supplied struct {
	Frames   []domain.Frame
	Metadata map[string]string
	// Reason is the adapter error reported by the widget, if any.
	Reason string
}

func (s *Supplied) Capture(ctx context.Context, req domain.CaptureRequest) (*domain.Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Reason != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrCaptureFailed, s.Reason)
	}
	if len(s.Frames) == 0 {
		return nil, fmt.Errorf("%w: no frames in %s capture", domain.ErrCaptureFailed, req.Mode)
	}
	return &domain.Capture{Frames: s.Frames, Metadata: s.Metadata}, nil
}

// FileCapturer reads captured images from local files. It serves the terminal
// client, where a document photo and two face photos are taken beforehand.
type FileCapturer struct {
	DocumentPath string
	NeutralPath  string
	SmilePath    string
}

func (f *FileCapturer) Capture(ctx context.Context, req domain.CaptureRequest) (*domain.Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch req.Mode {
	case domain.CaptureModeDocument:
		frame, err := readFrame(domain.CaptureKindDocument, f.DocumentPath)
		if err != nil {
			return nil, err
		}
		return &domain.Capture{
			Frames:   []domain.Frame{frame},
			Metadata: map[string]string{"source": f.DocumentPath, "facing": string(req.Facing)},
		}, nil
	case domain.CaptureModeFace:
		neutral, err := readFrame(domain.CaptureKindNeutralFace, f.NeutralPath)
		if err != nil {
			return nil, err
		}
		smile, err := readFrame(domain.CaptureKindSmileFace, f.SmilePath)
		if err != nil {
			return nil, err
		}
		return &domain.Capture{
			Frames:   []domain.Frame{neutral, smile},
			Metadata: map[string]string{"facing": string(req.Facing)},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown capture mode %q", domain.ErrCaptureFailed, req.Mode)
	}
}

func readFrame(kind domain.CaptureKind, path string) (domain.Frame, error) {
	if path == "" {
		return domain.Frame{}, fmt.Errorf("%w: no file given for %s", domain.ErrCaptureFailed, kind)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("%w: reading %s: %v", domain.ErrCaptureFailed, path, err)
	}
	return domain.Frame{Kind: kind, Blob: data, ContentType: http.DetectContentType(data)}, nil
}

// MemoryPreviewStore keeps previews in process memory.
type MemoryPreviewStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemoryPreviewStore creates an empty in-memory preview store.
func NewMemoryPreviewStore() *MemoryPreviewStore {
	return &MemoryPreviewStore{objects: make(map[string][]byte)}
}

func (m *MemoryPreviewStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return "memory://" + key, nil
}

func (m *MemoryPreviewStore) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Len returns the number of stored previews.
func (m *MemoryPreviewStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
