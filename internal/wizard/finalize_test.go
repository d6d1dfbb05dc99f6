package wizard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"simreg/internal/config"
	"simreg/internal/domain"
	"simreg/internal/wizard"
	"simreg/mocks"
)

func TestSubmitSupportingDocuments_NoneSkipsCall(t *testing.T) {
	f := newFixture(t)
	f.on(t, domain.StepSupportingDocuments)

	require.NoError(t, f.c.SubmitSupportingDocuments(context.Background(), nil))
	assert.Equal(t, domain.StepReviewAndConfirm, f.c.CurrentStep())
	assert.Empty(t, f.client.Calls)
}

func TestSubmitSupportingDocuments_Uploads(t *testing.T) {
	f := newFixture(t)
	f.on(t, domain.StepSupportingDocuments)
	docs := []domain.AdditionalDocument{{DocumentType: "BIRTH_CERTIFICATE", DocumentImage: payload("B"), DocumentName: "psa.jpg"}}
	f.client.On("UploadAdditionalDocs", mock.Anything, "S1", docs, "en").Return(nil).Once()

	require.NoError(t, f.c.SubmitSupportingDocuments(context.Background(), docs))
	assert.Equal(t, domain.StepReviewAndConfirm, f.c.CurrentStep())
	assert.Equal(t, 1, f.view(t).Finalize.AdditionalDocs)
}

func TestSubmitSupportingDocuments_Invalid(t *testing.T) {
	f := newFixture(t)
	f.on(t, domain.StepSupportingDocuments)

	err := f.c.SubmitSupportingDocuments(context.Background(), []domain.AdditionalDocument{{DocumentType: " "}})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"documents[0]"}, verr.Fields)
	assert.Empty(t, f.client.Calls)
}

func TestConfirmReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.on(t, domain.StepReviewAndConfirm)

	assert.ErrorIs(t, f.c.ConfirmReview(ctx, false), domain.ErrAgreementRequired)
	assert.Equal(t, domain.StepReviewAndConfirm, f.c.CurrentStep())

	require.NoError(t, f.c.ConfirmReview(ctx, true))
	assert.Equal(t, domain.StepProcessing, f.c.CurrentStep())
	assert.True(t, f.view(t).Finalize.ReviewConfirmed)
}

func TestAwaitProcessing_Failure(t *testing.T) {
	f := newFixture(t)
	f.on(t, domain.StepProcessing, func(s *domain.WizardState) { s.ReviewConfirmed = true })
	f.waiter.On("Wait", mock.Anything, "S1").Return("", domain.ErrProcessingTimeout).Once()

	assert.ErrorIs(t, f.c.AwaitProcessing(context.Background()), domain.ErrProcessingTimeout)
	v := f.view(t)
	assert.Equal(t, domain.StepProcessing, v.Step)
	assert.Equal(t, "Your registration is taking longer than expected. Please try again.", v.Error.Message)
}

func TestStatusPoller(t *testing.T) {
	ctx := context.Background()

	t.Run("completes", func(t *testing.T) {
		client := new(mocks.MockEkycClient)
		client.On("RegistrationStatus", mock.Anything, "S1").Return(&domain.RegistrationStatus{Status: domain.RegistrationPending}, nil).Twice()
		client.On("RegistrationStatus", mock.Anything, "S1").Return(&domain.RegistrationStatus{
			Status: domain.RegistrationCompleted, ReferenceNumber: "REF-20260301-0001",
		}, nil).Once()

		ref, err := wizard.NewStatusPoller(client, time.Millisecond, 5).Wait(ctx, "S1")
		require.NoError(t, err)
		assert.Equal(t, "REF-20260301-0001", ref)
		client.AssertNumberOfCalls(t, "RegistrationStatus", 3)
	})

	t.Run("fails with message", func(t *testing.T) {
		client := new(mocks.MockEkycClient)
		client.On("RegistrationStatus", mock.Anything, "S1").Return(&domain.RegistrationStatus{
			Status: domain.RegistrationFailed, Message: "Face mismatch",
		}, nil).Once()

		_, err := wizard.NewStatusPoller(client, time.Millisecond, 5).Wait(ctx, "S1")
		assert.ErrorIs(t, err, domain.ErrProcessingFailed)
		assert.Contains(t, err.Error(), "Face mismatch")
	})

	t.Run("gives up", func(t *testing.T) {
		client := new(mocks.MockEkycClient)
		client.On("RegistrationStatus", mock.Anything, "S1").Return(&domain.RegistrationStatus{Status: domain.RegistrationPending}, nil)

		_, err := wizard.NewStatusPoller(client, time.Millisecond, 3).Wait(ctx, "S1")
		assert.ErrorIs(t, err, domain.ErrProcessingTimeout)
		client.AssertNumberOfCalls(t, "RegistrationStatus", 3)
	})

	t.Run("transport error", func(t *testing.T) {
		client := new(mocks.MockEkycClient)
		client.On("RegistrationStatus", mock.Anything, "S1").Return(nil, errors.New("boom")).Once()

		_, err := wizard.NewStatusPoller(client, time.Millisecond, 3).Wait(ctx, "S1")
		assert.EqualError(t, err, "boom")
	})

	t.Run("honors cancellation", func(t *testing.T) {
		client := new(mocks.MockEkycClient)
		client.On("RegistrationStatus", mock.Anything, "S1").Return(&domain.RegistrationStatus{Status: domain.RegistrationPending}, nil)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := wizard.NewStatusPoller(client, time.Hour, 3).Wait(cctx, "S1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewWaiter(t *testing.T) {
	w := wizard.NewWaiter(config.ProcessingConfig{Mode: "delay", Delay: time.Millisecond, Reference: "DEMO"}, nil)
	ref, err := w.Wait(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, "DEMO", ref)

	_, ok := wizard.NewWaiter(config.ProcessingConfig{}, new(mocks.MockEkycClient)).(*wizard.StatusPoller)
	assert.True(t, ok)
}
