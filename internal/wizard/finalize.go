package wizard

import (
	"context"
	"fmt"
	"strings"

	"simreg/internal/domain"
)

// SubmitSupportingDocuments uploads optional supporting documents. With none
// attached the step is left without a remote call.
func (c *Controller) SubmitSupportingDocuments(ctx context.Context, docs []domain.AdditionalDocument) error {
	for i, d := range docs {
		if strings.TrimSpace(d.DocumentType) == "" || d.DocumentImage == "" {
			return &domain.ValidationError{Fields: []string{fmt.Sprintf("documents[%d]", i)}}
		}
	}

	cl, err := c.begin(ctx, domain.StepSupportingDocuments, true, nil)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return c.finish(cl, nil, c.advance)
	}

	err = c.client.UploadAdditionalDocs(cl.ctx, cl.sessionID, docs, c.settings.Locale)
	return c.finish(cl, err, func() {
		c.state.AdditionalDocs = append([]domain.AdditionalDocument(nil), docs...)
		c.advance()
	})
}

// ConfirmReview records the final confirmation and starts processing.
func (c *Controller) ConfirmReview(ctx context.Context, agreed bool) error {
	cl, err := c.begin(ctx, domain.StepReviewAndConfirm, true, func() error {
		if !agreed {
			return domain.ErrAgreementRequired
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.finish(cl, nil, func() {
		c.state.ReviewConfirmed = true
		c.advance()
	})
}

// AwaitProcessing blocks until the registration is processed, then moves to
// the completion screen with the registration reference.
func (c *Controller) AwaitProcessing(ctx context.Context) error {
	cl, err := c.begin(ctx, domain.StepProcessing, true, func() error {
		if !c.state.ReviewConfirmed {
			return domain.ErrAgreementRequired
		}
		return nil
	})
	if err != nil {
		return err
	}

	ref, err := c.waiter.Wait(cl.ctx, cl.sessionID)
	return c.finish(cl, err, func() {
		c.state.ReferenceNumber = ref
		c.advance()
	})
}
