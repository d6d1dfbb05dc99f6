package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")

	ErrWizardNotFound     = errors.New("wizard not found")
	ErrWrongStep          = errors.New("action not available on the current step")
	ErrNoActiveSession    = errors.New("no active session")
	ErrSessionExpired     = errors.New("session expired")
	ErrSubmissionInFlight = errors.New("a submission for this step is already in progress")
	ErrStaleResult        = errors.New("result discarded after navigation")
	ErrCanceled           = errors.New("submission canceled")

	ErrInvalidMobileNumber = errors.New("mobile number must have 10 digits")
	ErrMobileNotValidated  = errors.New("mobile number has not been validated")
	ErrAgreementRequired   = errors.New("agreement is required")
	ErrAgreementLocked     = errors.New("agreement is unavailable until the mobile number is validated")
	ErrMissingSessionID    = errors.New("validation response carried no session id")

	ErrInvalidDigit   = errors.New("otp slot accepts a single digit")
	ErrInvalidSlot    = errors.New("otp slot index out of range")
	ErrOTPIncomplete  = errors.New("otp must have 6 digits")
	ErrResendCooldown = errors.New("otp resend is not yet available")

	ErrRegTypeRequired = errors.New("a registration type must be selected")
	ErrUnknownRegType  = errors.New("registration type is not one of the offered options")

	ErrInvalidImage        = errors.New("image payload is missing or too short")
	ErrCaptureFailed       = errors.New("capture failed")
	ErrCaptureIncomplete   = errors.New("face capture requires a neutral and a smile image")
	ErrNoRetainedCapture   = errors.New("no captured image is waiting for upload")
	ErrDocumentNotUploaded = errors.New("the ID document must be uploaded first")
	ErrUploadsIncomplete   = errors.New("document and selfie must both be uploaded")

	ErrMissingRequiredFields = errors.New("required fields are missing")
	ErrAddressBusy           = errors.New("address lookup in progress")
	ErrAddressUnavailable    = errors.New("address service requires a session refresh")
	ErrPostalCodeReadOnly    = errors.New("postal code is resolved by the address service")
	ErrUnknownAddressCode    = errors.New("address code is not one of the offered options")

	ErrProcessingFailed  = errors.New("registration processing failed")
	ErrProcessingTimeout = errors.New("registration processing did not complete in time")

	ErrSealedValueInvalid = errors.New("sealed value could not be opened")
)

// ValidationError lists the fields that failed local validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return ErrMissingRequiredFields.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrMissingRequiredFields
}

// StatusCoder is implemented by errors that carry an upstream HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// UserMessenger is implemented by errors that carry a message fit for display.
type UserMessenger interface {
	UserMessage() string
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

// MessageOf returns the user-facing message carried by err, falling back to fallback.
func MessageOf(err error, fallback string) string {
	var um UserMessenger
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
