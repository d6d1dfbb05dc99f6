package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"simreg/internal/domain"
	"simreg/internal/ekyc"
	"simreg/internal/middleware"
	"simreg/internal/service"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain and eKYC errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var apiErr *ekyc.APIError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrWizardNotFound):
		return http.StatusNotFound, "WIZARD_NOT_FOUND", "wizard not found or already closed"
	case errors.Is(err, domain.ErrWrongStep):
		return http.StatusConflict, "WRONG_STEP", err.Error()
	case errors.Is(err, domain.ErrSubmissionInFlight):
		return http.StatusConflict, "SUBMISSION_IN_FLIGHT", err.Error()
	case errors.Is(err, domain.ErrStaleResult):
		return http.StatusConflict, "STALE_RESULT", err.Error()
	case errors.Is(err, domain.ErrCanceled):
		return http.StatusConflict, "CANCELED", err.Error()
	case errors.Is(err, domain.ErrAddressBusy):
		return http.StatusConflict, "ADDRESS_BUSY", err.Error()
	case errors.Is(err, domain.ErrNoActiveSession):
		return http.StatusPreconditionFailed, "NO_ACTIVE_SESSION", domain.MessageOf(err, "No active session. Please restart registration.")
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, "SESSION_EXPIRED", "Session expired. Please restart registration."
	case errors.Is(err, domain.ErrResendCooldown):
		return http.StatusTooManyRequests, "RESEND_COOLDOWN", err.Error()
	case errors.Is(err, domain.ErrProcessingTimeout):
		return http.StatusGatewayTimeout, "PROCESSING_TIMEOUT", err.Error()
	case errors.Is(err, domain.ErrProcessingFailed):
		return http.StatusUnprocessableEntity, "PROCESSING_FAILED", domain.MessageOf(err, err.Error())
	case errors.Is(err, domain.ErrInvalidMobileNumber),
		errors.Is(err, domain.ErrMobileNotValidated),
		errors.Is(err, domain.ErrAgreementRequired),
		errors.Is(err, domain.ErrAgreementLocked),
		errors.Is(err, domain.ErrInvalidDigit),
		errors.Is(err, domain.ErrInvalidSlot),
		errors.Is(err, domain.ErrOTPIncomplete),
		errors.Is(err, domain.ErrRegTypeRequired),
		errors.Is(err, domain.ErrUnknownRegType),
		errors.Is(err, domain.ErrInvalidImage),
		errors.Is(err, domain.ErrCaptureFailed),
		errors.Is(err, domain.ErrCaptureIncomplete),
		errors.Is(err, domain.ErrNoRetainedCapture),
		errors.Is(err, domain.ErrDocumentNotUploaded),
		errors.Is(err, domain.ErrUploadsIncomplete),
		errors.Is(err, domain.ErrPostalCodeReadOnly),
		errors.Is(err, domain.ErrUnknownAddressCode),
		errors.Is(err, domain.ErrAddressUnavailable):
		return http.StatusBadRequest, "INVALID_ACTION", err.Error()
	case errors.Is(err, domain.ErrMissingRequiredFields):
		return http.StatusBadRequest, "MISSING_REQUIRED_FIELDS", "required fields are missing"
	case ekyc.IsNetwork(err):
		return http.StatusServiceUnavailable, "EKYC_UNREACHABLE", ekyc.NetworkMessage
	case errors.As(err, &apiErr):
		if apiErr.Status >= 500 {
			return http.StatusBadGateway, "EKYC_ERROR", apiErr.Message
		}
		return http.StatusUnprocessableEntity, "EKYC_REJECTED", apiErr.Message
	case errors.Is(err, domain.ErrMissingSessionID):
		return http.StatusBadGateway, "EKYC_ERROR", "Something went wrong."
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	resp := &APIError{Code: code, Message: msg}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Fields = ve.Fields
	}
	c.JSON(status, APIResponse{Success: false, Error: resp})
}

// currentWizard resolves the wizard bound to the request's token.
// Returns false if it is missing (error response already written).
func currentWizard(c *gin.Context, wizards service.WizardService) (service.Wizard, bool) {
	id, err := middleware.GetWizardID(c)
	if err != nil || id == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing wizard context")
		return nil, false
	}
	w, err := wizards.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return nil, false
	}
	return w, true
}
