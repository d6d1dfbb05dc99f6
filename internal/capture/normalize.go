package capture

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"simreg/internal/domain"
)

// MinPayloadLength is the shortest base64 payload accepted as an image.
const MinPayloadLength = 100

// Normalize converts a frame into the plain base64 string expected by the
// eKYC service. Inline data URLs lose their "data:*;base64," prefix and binary
// blobs are encoded.
func Normalize(f domain.Frame) (string, error) {
	var payload string
	switch {
	case len(f.Blob) > 0:
		payload = base64.StdEncoding.EncodeToString(f.Blob)
	case f.Encoded != "":
		payload = stripDataURL(strings.TrimSpace(f.Encoded))
	}
	if len(payload) < MinPayloadLength {
		return "", fmt.Errorf("%s frame: %w", f.Kind, domain.ErrInvalidImage)
	}
	return payload, nil
}

func stripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.Index(s, ","); i >= 0 {
		return s[i+1:]
	}
	return ""
}

// Shot pairs a normalized capture result with the frame it was built from.
type Shot struct {
	Frame  domain.Frame
	Result *domain.CaptureResult
}

// Document builds the result of a document capture. The first frame is used
// whatever kind the adapter labeled it with.
func Document(c *domain.Capture, now time.Time) (Shot, error) {
	if c == nil || len(c.Frames) == 0 {
		return Shot{}, fmt.Errorf("document capture: %w", domain.ErrInvalidImage)
	}
	payload, err := Normalize(c.Frames[0])
	if err != nil {
		return Shot{}, err
	}
	return Shot{
		Frame: c.Frames[0],
		Result: &domain.CaptureResult{
			Kind:       domain.CaptureKindDocument,
			Payload:    payload,
			CapturedAt: now,
		},
	}, nil
}

// Selfie builds the neutral and smile results of a face capture. Frames are
// matched by kind; unlabeled frames are taken in neutral, smile order.
func Selfie(c *domain.Capture, now time.Time) (neutral, smile Shot, err error) {
	if c == nil || len(c.Frames) < 2 {
		return Shot{}, Shot{}, domain.ErrCaptureIncomplete
	}

	var nf, sf *domain.Frame
	var rest []*domain.Frame
	for i := range c.Frames {
		f := &c.Frames[i]
		switch f.Kind {
		case domain.CaptureKindNeutralFace:
			if nf == nil {
				nf = f
			}
		case domain.CaptureKindSmileFace:
			if sf == nil {
				sf = f
			}
		default:
			rest = append(rest, f)
		}
	}
	for _, f := range rest {
		if nf == nil {
			nf = f
		} else if sf == nil {
			sf = f
		}
	}
	if nf == nil || sf == nil {
		return Shot{}, Shot{}, domain.ErrCaptureIncomplete
	}

	np, err := Normalize(*nf)
	if err != nil {
		return Shot{}, Shot{}, fmt.Errorf("%w: %w", domain.ErrCaptureIncomplete, err)
	}
	sp, err := Normalize(*sf)
	if err != nil {
		return Shot{}, Shot{}, fmt.Errorf("%w: %w", domain.ErrCaptureIncomplete, err)
	}

	neutral = Shot{Frame: *nf, Result: &domain.CaptureResult{Kind: domain.CaptureKindNeutralFace, Payload: np, CapturedAt: now}}
	smile = Shot{Frame: *sf, Result: &domain.CaptureResult{Kind: domain.CaptureKindSmileFace, Payload: sp, CapturedAt: now}}
	return neutral, smile, nil
}
