package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"simreg/internal/domain"
	"simreg/internal/port"
	"simreg/internal/service"
	"simreg/internal/wizard"
)

// MockWizardService is a mock implementation of service.WizardService.
type MockWizardService struct {
	mock.Mock
}

func (m *MockWizardService) Create(ctx context.Context) (*service.WizardToken, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WizardToken), args.Error(1)
}

func (m *MockWizardService) Get(ctx context.Context, id uuid.UUID) (service.Wizard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(service.Wizard), args.Error(1)
}

func (m *MockWizardService) Discard(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWizardService) ValidateToken(tokenString string) (*service.WizardClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WizardClaims), args.Error(1)
}

func (m *MockWizardService) Funnel() []domain.FunnelRow {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.FunnelRow)
}

func (m *MockWizardService) Sweep(ctx context.Context) int {
	args := m.Called(ctx)
	return args.Int(0)
}

func (m *MockWizardService) Active() int {
	args := m.Called()
	return args.Int(0)
}

// MockWizard is a mock implementation of service.Wizard.
type MockWizard struct {
	mock.Mock
}

func (m *MockWizard) ID() uuid.UUID {
	args := m.Called()
	return args.Get(0).(uuid.UUID)
}

func (m *MockWizard) CurrentStep() domain.Step {
	args := m.Called()
	return args.Get(0).(domain.Step)
}

func (m *MockWizard) UpdatedAt() time.Time {
	args := m.Called()
	return args.Get(0).(time.Time)
}

func (m *MockWizard) View(ctx context.Context) (wizard.View, error) {
	args := m.Called(ctx)
	return args.Get(0).(wizard.View), args.Error(1)
}

func (m *MockWizard) Retreat() domain.Step {
	args := m.Called()
	return args.Get(0).(domain.Step)
}

func (m *MockWizard) Restart(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWizard) CancelInFlight() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockWizard) DismissError(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWizard) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWizard) SetMobileNumber(ctx context.Context, raw string) error {
	args := m.Called(ctx, raw)
	return args.Error(0)
}

func (m *MockWizard) SetAgreement(agreed bool) error {
	args := m.Called(agreed)
	return args.Error(0)
}

func (m *MockWizard) RequestCode(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWizard) SetOTPDigit(index int, value string) error {
	args := m.Called(index, value)
	return args.Error(0)
}

func (m *MockWizard) PasteOTP(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockWizard) VerifyOTP(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWizard) ResendOTP(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWizard) AcceptReminders(ctx context.Context, agreed bool) error {
	args := m.Called(ctx, agreed)
	return args.Error(0)
}

func (m *MockWizard) ReloadRegTypes(ctx context.Context) ([]domain.RegistrationType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RegistrationType), args.Error(1)
}

func (m *MockWizard) SubmitRegType(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockWizard) ContinueFromScanInfo(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWizard) CaptureDocument(ctx context.Context, src port.Capturer) error {
	args := m.Called(ctx, src)
	return args.Error(0)
}

func (m *MockWizard) RetryDocument(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWizard) CaptureSelfie(ctx context.Context, src port.Capturer) error {
	args := m.Called(ctx, src)
	return args.Error(0)
}

func (m *MockWizard) RetrySelfie(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWizard) ContinueFromScanID(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWizard) LoadPersonalInformation(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWizard) UpdatePersonalInfo(info domain.PersonalInfo) error {
	args := m.Called(info)
	return args.Error(0)
}

func (m *MockWizard) SelectProvince(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockWizard) SelectCity(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockWizard) SelectBarangay(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockWizard) SetPostalCode(code string) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockWizard) DismissAddressBanner() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockWizard) SubmitPersonalInformation(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWizard) SubmitSupportingDocuments(ctx context.Context, docs []domain.AdditionalDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockWizard) ConfirmReview(ctx context.Context, agreed bool) error {
	args := m.Called(ctx, agreed)
	return args.Error(0)
}

func (m *MockWizard) AwaitProcessing(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
