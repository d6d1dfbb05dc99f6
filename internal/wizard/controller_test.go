package wizard_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"simreg/internal/domain"
	"simreg/internal/ekyc"
	"simreg/internal/wizard"
	"simreg/mocks"
)

func TestNormalizeMobile(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"9171234567", "9171234567"},
		{"0917123456", "9917123456"},
		{"+63 917-123-4567", "6391712345"},
		{"917 123 4567 99", "9171234567"},
		{"0", "9"},
		{"abc", ""},
		{"9012345678", "9012345678"},
		{"9000000000", "9000000000"},
		{"0907000000", "9907000000"},
		{"0917 0123 45", "9917012345"},
		{"(0917) 123-4567", "9917123456"},
		{"a9b1c7d1e2f3g4h5i6j7", "9171234567"},
		{"+639171234567", "6391712345"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := wizard.NormalizeMobile(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, wizard.NormalizeMobile(got), "normalization must be idempotent")
		})
	}
}

func TestNormalizeMobile_ReplacesLeadingZeroOnce(t *testing.T) {
	assert.Equal(t, "9017123456", wizard.NormalizeMobile("0017123456"))
}

func TestRenderFor(t *testing.T) {
	assert.Equal(t, domain.ScreenMobileVerification, wizard.RenderFor(domain.StepMobileVerification))
	assert.Equal(t, domain.ScreenScanID, wizard.RenderFor(domain.StepScanID))
	assert.Equal(t, domain.ScreenComplete, wizard.RenderFor(domain.StepComplete))
	assert.Equal(t, domain.ScreenMobileVerification, wizard.RenderFor(domain.Step(0)))
	assert.Equal(t, domain.ScreenMobileVerification, wizard.RenderFor(domain.Step(42)))
}

func TestController_HappyPathToReminders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.client.On("ValidateAccount", mock.Anything, domain.ValidateAccountRequest{
		MSISDN: testMSISDN, ChannelID: "C04", SimType: "PREPAID",
	}).Return(&domain.ValidateAccountResult{SessionID: "S1"}, nil).Once()
	f.client.On("SendOTP", mock.Anything, "S1", testMSISDN).Return(nil).Once()
	f.client.On("VerifyOTP", mock.Anything, "S1", domain.VerifyOTPRequest{
		MSISDN: testMSISDN, Code: "123456", ChannelID: "C04", SimType: "PREPAID",
	}).Return(nil).Once()
	f.client.On("CheckRegistrations", mock.Anything, "S1", testMSISDN).
		Return(json.RawMessage(`{"registrations":[]}`), nil).Once()

	require.NoError(t, f.c.SetMobileNumber(ctx, testNumber))
	sid, err := f.c.SessionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "S1", sid)
	assert.True(t, f.c.CanAgree())
	assert.Equal(t, domain.StepMobileVerification, f.c.CurrentStep())

	require.NoError(t, f.c.SetAgreement(true))
	require.NoError(t, f.c.RequestCode(ctx))
	assert.Equal(t, domain.StepOTPVerification, f.c.CurrentStep())

	require.NoError(t, f.c.PasteOTP("123456"))
	require.NoError(t, f.c.VerifyOTP(ctx))
	assert.Equal(t, domain.StepSimRegistrationReminders, f.c.CurrentStep())

	sid, _ = f.c.SessionID(ctx)
	assert.Equal(t, "S1", sid)

	v := f.view(t)
	assert.True(t, v.OTP.Verified)
	assert.JSONEq(t, `{"registrations":[]}`, string(v.OTP.Registrations))
	assert.Equal(t, 2, v.Phase)
	f.client.AssertExpectations(t)
}

func TestController_FailedSubmitKeepsStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.on(t, domain.StepMobileVerification)

	f.client.On("SendOTP", mock.Anything, "S1", testMSISDN).Return(&ekyc.APIError{
		Op: "send-otp", Status: 422, Message: "Number is barred",
	}).Once()

	err := f.c.RequestCode(ctx)
	require.Error(t, err)
	assert.Equal(t, domain.StepMobileVerification, f.c.CurrentStep())

	v := f.view(t)
	require.NotNil(t, v.Error)
	assert.Equal(t, "Number is barred", v.Error.Message)
	assert.False(t, v.Mobile.CanAgree)
}

func TestController_NetworkErrorMessage(t *testing.T) {
	f := newFixture(t)
	f.on(t, domain.StepSimRegistrationReminders)
	f.client.On("RegTypeList", mock.Anything, "S1").Return(nil, &ekyc.NetworkError{Op: "regTypeList", Err: errors.New("dial tcp")})

	err := f.c.AcceptReminders(context.Background(), true)
	assert.True(t, ekyc.IsNetwork(err))
	assert.Equal(t, ekyc.NetworkMessage, f.view(t).Error.Message)
	assert.Equal(t, domain.StepSimRegistrationReminders, f.c.CurrentStep())
}

func TestController_StepsAfterMobileRequireSession(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		step   domain.Step
		submit func(c *wizard.Controller) error
	}{
		{domain.StepOTPVerification, func(c *wizard.Controller) error {
			_ = c.PasteOTP("123456")
			return c.VerifyOTP(ctx)
		}},
		{domain.StepSimRegistrationReminders, func(c *wizard.Controller) error { return c.AcceptReminders(ctx, true) }},
		{domain.StepProvideSimInformation, func(c *wizard.Controller) error { return c.SubmitRegType(ctx, "NEW") }},
		{domain.StepScanInformation, func(c *wizard.Controller) error { return c.ContinueFromScanInfo(ctx) }},
		{domain.StepScanID, func(c *wizard.Controller) error { return c.ContinueFromScanID(ctx) }},
		{domain.StepPersonalInformation, func(c *wizard.Controller) error { return c.LoadPersonalInformation(ctx) }},
		{domain.StepSupportingDocuments, func(c *wizard.Controller) error { return c.SubmitSupportingDocuments(ctx, nil) }},
		{domain.StepReviewAndConfirm, func(c *wizard.Controller) error { return c.ConfirmReview(ctx, true) }},
		{domain.StepProcessing, func(c *wizard.Controller) error { return c.AwaitProcessing(ctx) }},
	}

	for _, tt := range tests {
		t.Run(tt.step.String(), func(t *testing.T) {
			f := newFixture(t)
			f.on(t, tt.step, func(s *domain.WizardState) {
				s.RegTypes = []domain.RegistrationType{{Key: "NEW", Value: "New"}}
				s.DocumentUploaded = true
				s.SelfieUploaded = true
				s.ReviewConfirmed = true
			})
			require.NoError(t, f.store.Clear(ctx))

			err := tt.submit(f.c)
			assert.ErrorIs(t, err, domain.ErrNoActiveSession)
			assert.Equal(t, tt.step, f.c.CurrentStep())
			assert.Equal(t, wizard.NoSessionMessage, f.view(t).Error.Message)
			assert.Empty(t, f.client.Calls, "no remote call may be made without a session")
			f.waiter.AssertNotCalled(t, "Wait", mock.Anything, mock.Anything)
		})
	}
}

func TestController_WrongStepIsRejected(t *testing.T) {
	f := newFixture(t)
	err := f.c.AcceptReminders(context.Background(), true)
	assert.ErrorIs(t, err, domain.ErrWrongStep)
	assert.Empty(t, f.client.Calls)
}

func TestController_Retreat(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, domain.StepMobileVerification, f.c.Retreat())

	f.on(t, domain.StepScanInformation)
	assert.Equal(t, domain.StepProvideSimInformation, f.c.Retreat())
	assert.Equal(t, domain.StepSimRegistrationReminders, f.c.Retreat())
	assert.Empty(t, f.client.Calls, "retreat never repeats remote calls")
}

func TestController_AdvanceStopsAtLastStep(t *testing.T) {
	f := newFixture(t)
	f.on(t, domain.StepProcessing, func(s *domain.WizardState) { s.ReviewConfirmed = true })
	f.waiter.On("Wait", mock.Anything, "S1").Return("REF-1", nil).Once()

	require.NoError(t, f.c.AwaitProcessing(context.Background()))
	assert.Equal(t, domain.StepComplete, f.c.CurrentStep())
	assert.Equal(t, "REF-1", f.view(t).Finalize.ReferenceNumber)

	_, err := f.c.View(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StepComplete, f.c.CurrentStep())
}

func TestController_DuplicateSubmitWhileInFlight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.on(t, domain.StepSimRegistrationReminders)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.client.On("RegTypeList", mock.Anything, "S1").Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return([]domain.RegistrationType{{Key: "NEW", Value: "New"}}, nil).Once()

	done := make(chan error, 1)
	go func() { done <- f.c.AcceptReminders(ctx, true) }()
	<-entered

	assert.ErrorIs(t, f.c.AcceptReminders(ctx, true), domain.ErrSubmissionInFlight)
	assert.True(t, f.view(t).Busy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, domain.StepProvideSimInformation, f.c.CurrentStep())
	f.client.AssertNumberOfCalls(t, "RegTypeList", 1)
}

func TestController_ResultAfterNavigationIsDiscarded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.on(t, domain.StepProvideSimInformation, func(s *domain.WizardState) {
		s.RegTypes = []domain.RegistrationType{{Key: "NEW", Value: "New"}}
		s.RegType = nil
	})

	entered := make(chan struct{})
	release := make(chan struct{})
	f.client.On("SubmitRegType", mock.Anything, "S1", domain.RegistrationType{Key: "NEW", Value: "New"}, "en").
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).Return(nil).Once()

	done := make(chan error, 1)
	go func() { done <- f.c.SubmitRegType(ctx, "NEW") }()
	<-entered

	f.c.Retreat()
	close(release)

	assert.ErrorIs(t, <-done, domain.ErrStaleResult)
	assert.Equal(t, domain.StepSimRegistrationReminders, f.c.CurrentStep())
	assert.Nil(t, f.view(t).SimInfo.Selected)
}

func TestController_CancelInFlight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.on(t, domain.StepSimRegistrationReminders)

	entered := make(chan struct{})
	f.client.On("RegTypeList", mock.Anything, "S1").Run(func(args mock.Arguments) {
		close(entered)
		<-args.Get(0).(context.Context).Done()
	}).Return(nil, context.Canceled).Once()

	done := make(chan error, 1)
	go func() { done <- f.c.AcceptReminders(ctx, true) }()
	<-entered

	assert.Equal(t, 1, f.c.CancelInFlight())
	err := <-done
	assert.ErrorIs(t, err, domain.ErrCanceled)
	assert.Equal(t, domain.StepSimRegistrationReminders, f.c.CurrentStep())
	assert.Nil(t, f.view(t).Error)
}

func TestController_UnauthorizedClearsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.on(t, domain.StepSimRegistrationReminders)
	f.client.On("RegTypeList", mock.Anything, "S1").Return(nil, &ekyc.APIError{Op: "regTypeList", Status: 401, Message: "Unauthorized"})

	err := f.c.AcceptReminders(ctx, true)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	v := f.view(t)
	assert.False(t, v.SessionActive)
	assert.Equal(t, wizard.SessionExpiredMessage, v.Error.Message)
	assert.Equal(t, domain.StepSimRegistrationReminders, v.Step)
}

func TestController_Restart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.on(t, domain.StepPersonalInformation, func(s *domain.WizardState) {
		s.PersonalInfo.FirstName = "Juan"
	})

	require.NoError(t, f.c.Restart(ctx))

	v := f.view(t)
	assert.Equal(t, domain.StepMobileVerification, v.Step)
	assert.False(t, v.SessionActive)
	assert.Empty(t, v.Mobile.Number)
	assert.Empty(t, v.Personal.Info.FirstName)
}

func TestController_ClosedWizardRejectsSubmissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.on(t, domain.StepSimRegistrationReminders)
	require.NoError(t, f.c.Close(ctx))

	assert.ErrorIs(t, f.c.AcceptReminders(ctx, true), domain.ErrWizardNotFound)
	sid, _ := f.store.Get(ctx)
	assert.Empty(t, sid)
}

func TestController_UpdatedAtTracksChanges(t *testing.T) {
	f := newFixture(t)
	before := f.c.UpdatedAt()
	f.clock.Advance(time.Minute)
	require.NoError(t, f.c.SetMobileNumber(context.Background(), "917"))
	assert.Equal(t, before.Add(time.Minute), f.c.UpdatedAt())
}

func TestController_SessionLoadDoesNotHoldWizardLock(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.MockEkycClient)
	store := new(mocks.MockSessionStore)
	store.On("Clear", mock.Anything).Return(nil).Maybe()

	entered := make(chan struct{})
	release := make(chan struct{})
	store.On("Get", mock.Anything).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return("S1", nil).Once()

	c := wizard.New(uuid.New(), wizard.Deps{Client: client, Session: store}, wizard.Settings{})
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	c.JumpTo(domain.StepSimRegistrationReminders, nil)

	done := make(chan error, 1)
	go func() { done <- c.AcceptReminders(ctx, true) }()
	<-entered

	stepped := make(chan domain.Step, 1)
	go func() { stepped <- c.Retreat() }()
	select {
	case step := <-stepped:
		assert.Equal(t, domain.StepOTPVerification, step)
	case <-time.After(time.Second):
		t.Fatal("wizard lock held while loading the session")
	}

	close(release)
	assert.ErrorIs(t, <-done, domain.ErrStaleResult)
	client.AssertNotCalled(t, "RegTypeList", mock.Anything, mock.Anything)
}
