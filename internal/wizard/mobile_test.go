package wizard_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"simreg/internal/domain"
)

func (f *fixture) validated(t *testing.T) {
	t.Helper()
	f.client.On("ValidateAccount", mock.Anything, mock.MatchedBy(func(r domain.ValidateAccountRequest) bool {
		return r.MSISDN == testMSISDN
	})).Return(&domain.ValidateAccountResult{SessionID: "S1"}, nil).Once()
	require.NoError(t, f.c.SetMobileNumber(context.Background(), testNumber))
	require.NoError(t, f.c.SetAgreement(true))

	v := f.view(t)
	require.True(t, v.SessionActive)
	require.True(t, v.Mobile.TermsAgreed)
}

func TestSetMobileNumber_ShortInputResetsValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.validated(t)

	require.NoError(t, f.c.SetMobileNumber(ctx, "917123"))

	v := f.view(t)
	assert.Equal(t, "917123", v.Mobile.Number)
	assert.False(t, v.Mobile.ValidationSucceeded)
	assert.False(t, v.Mobile.TermsAgreed)
	assert.False(t, v.Mobile.CanAgree)
	assert.False(t, v.SessionActive)
	assert.ErrorIs(t, f.c.RequestCode(ctx), domain.ErrInvalidMobileNumber)
	f.client.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything, mock.Anything)
}

func TestDismissError_ClearsSessionAndValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.validated(t)

	require.NoError(t, f.c.DismissError(ctx))

	sid, err := f.store.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, sid)

	v := f.view(t)
	assert.Nil(t, v.Error)
	assert.False(t, v.Mobile.ValidationSucceeded)
	assert.False(t, v.Mobile.TermsAgreed)
	assert.False(t, v.Mobile.CanAgree)
	assert.Equal(t, testNumber, v.Mobile.Number)
}

func TestSetMobileNumber_MissingSessionIDFailsValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.client.On("ValidateAccount", mock.Anything, mock.Anything).
		Return(&domain.ValidateAccountResult{}, nil).Once()

	err := f.c.SetMobileNumber(ctx, testNumber)
	assert.ErrorIs(t, err, domain.ErrMissingSessionID)

	v := f.view(t)
	assert.False(t, v.SessionActive)
	assert.False(t, v.Mobile.ValidationSucceeded)
	assert.False(t, v.Mobile.CanAgree)
	require.NotNil(t, v.Error)
	assert.ErrorIs(t, f.c.SetAgreement(true), domain.ErrAgreementLocked)
}

func TestSetMobileNumber_ValidationDiscardedWhenNumberChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.client.On("ValidateAccount", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(&domain.ValidateAccountResult{SessionID: "S-OLD"}, nil).Once()

	done := make(chan error, 1)
	go func() { done <- f.c.SetMobileNumber(ctx, testNumber) }()
	<-entered

	require.NoError(t, f.c.SetMobileNumber(ctx, "91712"))
	close(release)

	assert.ErrorIs(t, <-done, domain.ErrStaleResult)
	v := f.view(t)
	assert.Equal(t, "91712", v.Mobile.Number)
	assert.False(t, v.SessionActive)
	assert.False(t, v.Mobile.ValidationSucceeded)
	assert.False(t, v.Mobile.Validating)
}

func TestSetAgreement_LockedUntilValidated(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.c.SetAgreement(true), domain.ErrAgreementLocked)
	assert.NoError(t, f.c.SetAgreement(false))
	assert.False(t, f.view(t).Mobile.TermsAgreed)
}
