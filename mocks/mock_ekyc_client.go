package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"simreg/internal/domain"
)

// MockEkycClient is a mock implementation of port.EkycClient.
type MockEkycClient struct {
	mock.Mock
}

func (m *MockEkycClient) ValidateAccount(ctx context.Context, req domain.ValidateAccountRequest) (*domain.ValidateAccountResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidateAccountResult), args.Error(1)
}

func (m *MockEkycClient) SendOTP(ctx context.Context, sessionID, msisdn string) error {
	args := m.Called(ctx, sessionID, msisdn)
	return args.Error(0)
}

func (m *MockEkycClient) ResendOTP(ctx context.Context, sessionID, msisdn string) error {
	args := m.Called(ctx, sessionID, msisdn)
	return args.Error(0)
}

func (m *MockEkycClient) VerifyOTP(ctx context.Context, sessionID string, req domain.VerifyOTPRequest) error {
	args := m.Called(ctx, sessionID, req)
	return args.Error(0)
}

func (m *MockEkycClient) CheckRegistrations(ctx context.Context, sessionID, msisdn string) (json.RawMessage, error) {
	args := m.Called(ctx, sessionID, msisdn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockEkycClient) RegTypeList(ctx context.Context, sessionID string) ([]domain.RegistrationType, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RegistrationType), args.Error(1)
}

func (m *MockEkycClient) SubmitRegType(ctx context.Context, sessionID string, regType domain.RegistrationType, locale string) error {
	args := m.Called(ctx, sessionID, regType, locale)
	return args.Error(0)
}

func (m *MockEkycClient) DocumentScan(ctx context.Context, sessionID string, req domain.DocumentScanRequest) error {
	args := m.Called(ctx, sessionID, req)
	return args.Error(0)
}

func (m *MockEkycClient) UserSelfie(ctx context.Context, sessionID, neutralImage, smileImage string) error {
	args := m.Called(ctx, sessionID, neutralImage, smileImage)
	return args.Error(0)
}

func (m *MockEkycClient) EkycSummary(ctx context.Context, sessionID string) (*domain.EkycSummary, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EkycSummary), args.Error(1)
}

func (m *MockEkycClient) Address(ctx context.Context, sessionID string, q domain.AddressQuery) ([]domain.AddressOption, error) {
	args := m.Called(ctx, sessionID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AddressOption), args.Error(1)
}

func (m *MockEkycClient) PostalCode(ctx context.Context, sessionID, barangayCode string) (string, error) {
	args := m.Called(ctx, sessionID, barangayCode)
	return args.String(0), args.Error(1)
}

func (m *MockEkycClient) SubmitUserDetails(ctx context.Context, sessionID string, details domain.UserDetails) error {
	args := m.Called(ctx, sessionID, details)
	return args.Error(0)
}

func (m *MockEkycClient) UploadAdditionalDocs(ctx context.Context, sessionID string, docs []domain.AdditionalDocument, locale string) error {
	args := m.Called(ctx, sessionID, docs, locale)
	return args.Error(0)
}

func (m *MockEkycClient) RegistrationStatus(ctx context.Context, sessionID string) (*domain.RegistrationStatus, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistrationStatus), args.Error(1)
}
