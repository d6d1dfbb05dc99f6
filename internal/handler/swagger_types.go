package handler

import (
	"time"

	"github.com/google/uuid"

	"simreg/internal/domain"
	"simreg/internal/wizard"
)

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// MobileRequest represents the mobile number entry body.
type MobileRequest struct {
	Number string `json:"number" binding:"required" example:"09171234567"`
}

// AgreementRequest represents a checkbox toggle.
type AgreementRequest struct {
	Agreed bool `json:"agreed" example:"true"`
}

// OTPDigitRequest represents one OTP slot edit. An empty value clears the slot.
type OTPDigitRequest struct {
	Value string `json:"value" example:"4"`
}

// OTPPasteRequest represents a pasted OTP code.
type OTPPasteRequest struct {
	Code string `json:"code" binding:"required" example:"123456"`
}

// RegTypeRequest represents the chosen registration type.
type RegTypeRequest struct {
	Key string `json:"key" binding:"required" example:"PREPAID"`
}

// CaptureFrame is one image produced by the capture widget. Image is a
// base64 string or a data URL.
type CaptureFrame struct {
	Kind        domain.CaptureKind `json:"kind" example:"neutral-face"`
	Image       string             `json:"image" example:"data:image/jpeg;base64,/9j/4AAQSkZJRgABAQ..."`
	ContentType string             `json:"content_type" example:"image/jpeg"`
}

// CaptureRequest represents the complete or error event of the capture widget.
type CaptureRequest struct {
	Frames   []CaptureFrame    `json:"frames"`
	Metadata map[string]string `json:"metadata"`
	Error    string            `json:"error" example:"camera permission denied"`
}

// AddressCodeRequest represents a province, city, barangay or postal code choice.
type AddressCodeRequest struct {
	Code string `json:"code" example:"0128"`
}

// SupportingDocumentsRequest represents the supporting documents upload.
type SupportingDocumentsRequest struct {
	Documents []domain.AdditionalDocument `json:"documents"`
}

// --- Response Types ---

// WizardCreatedResponse is returned when a wizard is created.
type WizardCreatedResponse struct {
	WizardID  uuid.UUID `json:"wizard_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Token     string    `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt time.Time `json:"expires_at" example:"2026-01-01T12:00:00Z"`
}

// WizardViewResponse wraps a wizard view in the standard envelope.
type WizardViewResponse struct {
	Success bool        `json:"success" example:"true"`
	Data    wizard.View `json:"data"`
}

// RegTypesResponse wraps the registration type options.
type RegTypesResponse struct {
	Success bool                      `json:"success" example:"true"`
	Data    []domain.RegistrationType `json:"data"`
}

// FunnelResponse wraps the funnel report rows.
type FunnelResponse struct {
	Success bool               `json:"success" example:"true"`
	Data    []domain.FunnelRow `json:"data"`
}

// Response is the generic success envelope.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponseBody is the error envelope.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
