package port

import (
	"context"
	"encoding/json"

	"simreg/internal/domain"
)

// EkycClient is the remote eKYC service. Every call after account validation
// takes the session id explicitly; an empty id sends no session header.
type EkycClient interface {
	ValidateAccount(ctx context.Context, req domain.ValidateAccountRequest) (*domain.ValidateAccountResult, error)
	SendOTP(ctx context.Context, sessionID, msisdn string) error
	ResendOTP(ctx context.Context, sessionID, msisdn string) error
	VerifyOTP(ctx context.Context, sessionID string, req domain.VerifyOTPRequest) error
	CheckRegistrations(ctx context.Context, sessionID, msisdn string) (json.RawMessage, error)
	RegTypeList(ctx context.Context, sessionID string) ([]domain.RegistrationType, error)
	SubmitRegType(ctx context.Context, sessionID string, regType domain.RegistrationType, locale string) error
	DocumentScan(ctx context.Context, sessionID string, req domain.DocumentScanRequest) error
	UserSelfie(ctx context.Context, sessionID, neutralImage, smileImage string) error
	EkycSummary(ctx context.Context, sessionID string) (*domain.EkycSummary, error)
	Address(ctx context.Context, sessionID string, q domain.AddressQuery) ([]domain.AddressOption, error)
	PostalCode(ctx context.Context, sessionID, barangayCode string) (string, error)
	SubmitUserDetails(ctx context.Context, sessionID string, details domain.UserDetails) error
	UploadAdditionalDocs(ctx context.Context, sessionID string, docs []domain.AdditionalDocument, locale string) error
	RegistrationStatus(ctx context.Context, sessionID string) (*domain.RegistrationStatus, error)
}
