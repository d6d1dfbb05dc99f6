package wizard

import (
	"context"
	"errors"
	"log"

	"simreg/internal/capture"
	"simreg/internal/domain"
	"simreg/internal/port"
)

// CaptureDocument captures the ID document through src and uploads it. The
// capture is kept, together with its preview, until the upload is
// acknowledged so that a failed upload can be retried without recapturing.
func (c *Controller) CaptureDocument(ctx context.Context, src port.Capturer) error {
	cl, err := c.begin(ctx, domain.StepScanID, true, nil)
	if err != nil {
		return err
	}

	raw, err := src.Capture(cl.ctx, domain.CaptureRequest{Mode: domain.CaptureModeDocument, Facing: domain.FacingEnvironment})
	if err != nil {
		return c.finish(cl, err, nil)
	}
	shot, err := capture.Document(raw, c.now())
	if err != nil {
		c.rejected(domain.CaptureKindDocument, err)
		return c.finish(cl, err, nil)
	}

	if !c.current(cl) {
		return c.finish(cl, nil, nil)
	}
	c.preview(cl.ctx, shot)
	if !c.retain(cl, shot.Result) {
		c.previews.Release(context.WithoutCancel(cl.ctx), domain.CaptureKindDocument)
		return c.finish(cl, nil, nil)
	}
	return c.uploadDocument(cl, shot.Result.Payload)
}

// RetryDocument uploads the retained document capture again.
func (c *Controller) RetryDocument(ctx context.Context) error {
	var payload string
	cl, err := c.begin(ctx, domain.StepScanID, true, func() error {
		res := c.state.Pending[domain.CaptureKindDocument]
		if res == nil {
			return domain.ErrNoRetainedCapture
		}
		payload = res.Payload
		return nil
	})
	if err != nil {
		return err
	}
	return c.uploadDocument(cl, payload)
}

func (c *Controller) uploadDocument(cl *call, payload string) error {
	err := c.client.DocumentScan(cl.ctx, cl.sessionID, domain.DocumentScanRequest{
		Image:        payload,
		DocumentType: domain.DefaultDocumentType,
		Locale:       c.settings.Locale,
	})
	return c.finish(cl, err, func() {
		c.state.DocumentUploaded = true
		delete(c.state.Pending, domain.CaptureKindDocument)
	})
}

// CaptureSelfie captures the neutral and smiling face through src and uploads
// both. The document must have been uploaded first.
func (c *Controller) CaptureSelfie(ctx context.Context, src port.Capturer) error {
	cl, err := c.begin(ctx, domain.StepScanID, true, func() error {
		if !c.state.DocumentUploaded {
			return domain.ErrDocumentNotUploaded
		}
		return nil
	})
	if err != nil {
		return err
	}

	raw, err := src.Capture(cl.ctx, domain.CaptureRequest{Mode: domain.CaptureModeFace, Facing: domain.FacingUser})
	if err != nil {
		return c.finish(cl, err, nil)
	}
	neutral, smile, err := capture.Selfie(raw, c.now())
	if err != nil {
		c.rejected(domain.CaptureKindNeutralFace, err)
		return c.finish(cl, err, nil)
	}

	if !c.current(cl) {
		return c.finish(cl, nil, nil)
	}
	c.preview(cl.ctx, neutral)
	c.preview(cl.ctx, smile)
	if !c.retain(cl, neutral.Result, smile.Result) {
		c.previews.Release(context.WithoutCancel(cl.ctx), domain.CaptureKindNeutralFace)
		c.previews.Release(context.WithoutCancel(cl.ctx), domain.CaptureKindSmileFace)
		return c.finish(cl, nil, nil)
	}
	return c.uploadSelfie(cl, neutral.Result.Payload, smile.Result.Payload)
}

// RetrySelfie uploads the retained face captures again.
func (c *Controller) RetrySelfie(ctx context.Context) error {
	var neutral, smile string
	cl, err := c.begin(ctx, domain.StepScanID, true, func() error {
		n := c.state.Pending[domain.CaptureKindNeutralFace]
		s := c.state.Pending[domain.CaptureKindSmileFace]
		if n == nil || s == nil {
			return domain.ErrNoRetainedCapture
		}
		neutral, smile = n.Payload, s.Payload
		return nil
	})
	if err != nil {
		return err
	}
	return c.uploadSelfie(cl, neutral, smile)
}

func (c *Controller) uploadSelfie(cl *call, neutral, smile string) error {
	err := c.client.UserSelfie(cl.ctx, cl.sessionID, neutral, smile)
	return c.finish(cl, err, func() {
		c.state.SelfieUploaded = true
		delete(c.state.Pending, domain.CaptureKindNeutralFace)
		delete(c.state.Pending, domain.CaptureKindSmileFace)
	})
}

// ContinueFromScanID leaves the capture screen once both uploads succeeded.
func (c *Controller) ContinueFromScanID(ctx context.Context) error {
	cl, err := c.begin(ctx, domain.StepScanID, true, func() error {
		if !c.state.DocumentUploaded || !c.state.SelfieUploaded {
			return domain.ErrUploadsIncomplete
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.finish(cl, nil, c.advance)
}

func (c *Controller) preview(ctx context.Context, shot capture.Shot) {
	if err := c.previews.Materialize(ctx, shot.Frame, shot.Result); err != nil {
		log.Printf("wizard.Controller: preview unavailable: %v", err)
	}
}

// current reports whether the wizard is still on the screen cl started on.
func (c *Controller) current(cl *call) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch == cl.epoch && c.state.CurrentStep == cl.step
}

// retain keeps results until their upload is acknowledged. It reports false
// when the wizard navigated away since the call started.
func (c *Controller) retain(cl *call, results ...*domain.CaptureResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != cl.epoch || c.state.CurrentStep != cl.step {
		return false
	}
	for _, r := range results {
		c.state.Pending[r.Kind] = r
	}
	c.state.UpdatedAt = c.now()
	return true
}

func (c *Controller) rejected(kind domain.CaptureKind, err error) {
	if errors.Is(err, domain.ErrInvalidImage) || errors.Is(err, domain.ErrCaptureIncomplete) {
		c.metrics.CaptureRejected(string(kind))
	}
}
