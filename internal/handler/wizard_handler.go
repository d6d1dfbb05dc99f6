package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"simreg/internal/capture"
	"simreg/internal/domain"
	"simreg/internal/middleware"
	"simreg/internal/service"
)

// WizardHandler handles the registration wizard endpoints.
type WizardHandler struct {
	wizards service.WizardService
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(wizards service.WizardService) *WizardHandler {
	return &WizardHandler{wizards: wizards}
}

// act runs fn against the caller's wizard and responds with the resulting view.
func (h *WizardHandler) act(c *gin.Context, fn func(ctx context.Context, w service.Wizard) error) {
	w, ok := currentWizard(c, h.wizards)
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), w); err != nil {
		HandleError(c, err)
		return
	}
	h.respondView(c, w)
}

func (h *WizardHandler) respondView(c *gin.Context, w service.Wizard) {
	v, err := w.View(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, v)
}

// Create handles POST /api/v1/wizards
// @Summary Start a registration wizard
// @Description Creates a wizard on the mobile verification step and returns its bearer token
// @Tags wizards
// @Produce json
// @Success 201 {object} Response{data=WizardCreatedResponse} "Wizard created"
// @Failure 500 {object} ErrorResponseBody "Internal error"
// @Router /wizards [post]
func (h *WizardHandler) Create(c *gin.Context) {
	tok, err := h.wizards.Create(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, WizardCreatedResponse{WizardID: tok.WizardID, Token: tok.Token, ExpiresAt: tok.ExpiresAt})
}

// Current handles GET /api/v1/wizards/current
// @Summary Get the wizard view
// @Description Returns the current step, screen, progress and everything the screen renders
// @Tags wizards
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 404 {object} ErrorResponseBody "Wizard closed"
// @Security BearerAuth
// @Router /wizards/current [get]
func (h *WizardHandler) Current(c *gin.Context) {
	w, ok := currentWizard(c, h.wizards)
	if !ok {
		return
	}
	h.respondView(c, w)
}

// Discard handles DELETE /api/v1/wizards/current
// @Summary Discard the wizard
// @Description Closes the wizard, releases its previews and clears its session
// @Tags wizards
// @Success 204 "Wizard discarded"
// @Failure 404 {object} ErrorResponseBody "Wizard closed"
// @Security BearerAuth
// @Router /wizards/current [delete]
func (h *WizardHandler) Discard(c *gin.Context) {
	id, err := middleware.GetWizardID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing wizard context")
		return
	}
	if err := h.wizards.Discard(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Back handles POST /api/v1/wizards/current/back
// @Summary Go back one step
// @Tags wizards
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/back [post]
func (h *WizardHandler) Back(c *gin.Context) {
	h.act(c, func(_ context.Context, w service.Wizard) error {
		w.Retreat()
		return nil
	})
}

// Restart handles POST /api/v1/wizards/current/restart
// @Summary Restart registration
// @Description Clears the session and returns to the mobile verification step
// @Tags wizards
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/restart [post]
func (h *WizardHandler) Restart(c *gin.Context) {
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.Restart(ctx)
	})
}

// Cancel handles POST /api/v1/wizards/current/cancel
// @Summary Cancel in-flight submissions
// @Tags wizards
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/cancel [post]
func (h *WizardHandler) Cancel(c *gin.Context) {
	h.act(c, func(_ context.Context, w service.Wizard) error {
		w.CancelInFlight()
		return nil
	})
}

// DismissError handles POST /api/v1/wizards/current/error/dismiss
// @Summary Dismiss the step error
// @Description Dismissing a session error also restarts registration
// @Tags wizards
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/error/dismiss [post]
func (h *WizardHandler) DismissError(c *gin.Context) {
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.DismissError(ctx)
	})
}

// SetMobile handles PUT /api/v1/wizards/current/mobile
// @Summary Enter the mobile number
// @Description Normalizes the number and validates it with the eKYC service once it has 10 digits
// @Tags mobile
// @Accept json
// @Produce json
// @Param body body MobileRequest true "Mobile number"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 400 {object} ErrorResponseBody "Invalid number"
// @Failure 422 {object} ErrorResponseBody "Rejected by the eKYC service"
// @Security BearerAuth
// @Router /wizards/current/mobile [put]
func (h *WizardHandler) SetMobile(c *gin.Context) {
	var req MobileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.SetMobileNumber(ctx, req.Number)
	})
}

// SetAgreement handles PUT /api/v1/wizards/current/agreement
// @Summary Toggle the terms agreement
// @Tags mobile
// @Accept json
// @Produce json
// @Param body body AgreementRequest true "Agreement"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 400 {object} ErrorResponseBody "Agreement unavailable"
// @Security BearerAuth
// @Router /wizards/current/agreement [put]
func (h *WizardHandler) SetAgreement(c *gin.Context) {
	var req AgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	h.act(c, func(_ context.Context, w service.Wizard) error {
		return w.SetAgreement(req.Agreed)
	})
}

// RequestCode handles POST /api/v1/wizards/current/request-code
// @Summary Send the OTP
// @Tags mobile
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 400 {object} ErrorResponseBody "Mobile number not validated or agreement missing"
// @Failure 412 {object} ErrorResponseBody "No active session"
// @Security BearerAuth
// @Router /wizards/current/request-code [post]
func (h *WizardHandler) RequestCode(c *gin.Context) {
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.RequestCode(ctx)
	})
}

// SetOTPDigit handles PUT /api/v1/wizards/current/otp/digits/:index
// @Summary Edit one OTP slot
// @Tags otp
// @Accept json
// @Produce json
// @Param index path int true "Slot index (0-5)"
// @Param body body OTPDigitRequest true "Digit"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 400 {object} ErrorResponseBody "Invalid slot or digit"
// @Security BearerAuth
// @Router /wizards/current/otp/digits/{index} [put]
func (h *WizardHandler) SetOTPDigit(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "slot index must be an integer")
		return
	}
	var req OTPDigitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	h.act(c, func(_ context.Context, w service.Wizard) error {
		return w.SetOTPDigit(index, req.Value)
	})
}

// PasteOTP handles POST /api/v1/wizards/current/otp/paste
// @Summary Paste an OTP code
// @Description Digits are extracted from the pasted text and fill the slots in order
// @Tags otp
// @Accept json
// @Produce json
// @Param body body OTPPasteRequest true "Pasted text"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/otp/paste [post]
func (h *WizardHandler) PasteOTP(c *gin.Context) {
	var req OTPPasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	h.act(c, func(_ context.Context, w service.Wizard) error {
		return w.PasteOTP(req.Code)
	})
}

// VerifyOTP handles POST /api/v1/wizards/current/otp/verify
// @Summary Verify the OTP
// @Description Verifies the code and looks up existing registrations before advancing
// @Tags otp
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 400 {object} ErrorResponseBody "Code incomplete"
// @Failure 422 {object} ErrorResponseBody "Rejected by the eKYC service"
// @Security BearerAuth
// @Router /wizards/current/otp/verify [post]
func (h *WizardHandler) VerifyOTP(c *gin.Context) {
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.VerifyOTP(ctx)
	})
}

// ResendOTP handles POST /api/v1/wizards/current/otp/resend
// @Summary Resend the OTP
// @Tags otp
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 429 {object} ErrorResponseBody "Resend cooldown active"
// @Security BearerAuth
// @Router /wizards/current/otp/resend [post]
func (h *WizardHandler) ResendOTP(c *gin.Context) {
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.ResendOTP(ctx)
	})
}

// AcceptReminders handles POST /api/v1/wizards/current/reminders/accept
// @Summary Accept the registration reminders
// @Tags sim
// @Accept json
// @Produce json
// @Param body body AgreementRequest true "Agreement"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/reminders/accept [post]
func (h *WizardHandler) AcceptReminders(c *gin.Context) {
	var req AgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.AcceptReminders(ctx, req.Agreed)
	})
}

// RegTypes handles GET /api/v1/wizards/current/reg-types
// @Summary List registration types
// @Description Reloads the registration type options from the eKYC service
// @Tags sim
// @Produce json
// @Success 200 {object} RegTypesResponse "Registration types"
// @Security BearerAuth
// @Router /wizards/current/reg-types [get]
func (h *WizardHandler) RegTypes(c *gin.Context) {
	w, ok := currentWizard(c, h.wizards)
	if !ok {
		return
	}
	types, err := w.ReloadRegTypes(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	if types == nil {
		types = []domain.RegistrationType{}
	}
	RespondOK(c, types)
}

// SubmitRegType handles POST /api/v1/wizards/current/reg-type
// @Summary Choose the registration type
// @Tags sim
// @Accept json
// @Produce json
// @Param body body RegTypeRequest true "Registration type key"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 400 {object} ErrorResponseBody "Unknown registration type"
// @Security BearerAuth
// @Router /wizards/current/reg-type [post]
func (h *WizardHandler) SubmitRegType(c *gin.Context) {
	var req RegTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.SubmitRegType(ctx, req.Key)
	})
}

// ScanInfoNext handles POST /api/v1/wizards/current/scan-info/next
// @Summary Leave the scan instructions
// @Tags scan
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/scan-info/next [post]
func (h *WizardHandler) ScanInfoNext(c *gin.Context) {
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.ContinueFromScanInfo(ctx)
	})
}

func bindCapture(c *gin.Context) (*capture.Supplied, bool) {
	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return nil, false
	}
	src := &capture.Supplied{Metadata: req.Metadata, Reason: req.Error}
	for _, f := range req.Frames {
		src.Frames = append(src.Frames, domain.Frame{Kind: f.Kind, Encoded: f.Image, ContentType: f.ContentType})
	}
	return src, true
}

// CaptureDocument handles POST /api/v1/wizards/current/captures/document
// @Summary Upload the ID document capture
// @Description Accepts the capture widget result; a failed upload keeps the image for retry
// @Tags scan
// @Accept json
// @Produce json
// @Param body body CaptureRequest true "Capture widget result"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 400 {object} ErrorResponseBody "Capture failed or image invalid"
// @Security BearerAuth
// @Router /wizards/current/captures/document [post]
func (h *WizardHandler) CaptureDocument(c *gin.Context) {
	src, ok := bindCapture(c)
	if !ok {
		return
	}
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.CaptureDocument(ctx, src)
	})
}

// RetryDocument handles POST /api/v1/wizards/current/captures/document/retry
// @Summary Retry the retained document upload
// @Tags scan
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 400 {object} ErrorResponseBody "Nothing retained"
// @Security BearerAuth
// @Router /wizards/current/captures/document/retry [post]
func (h *WizardHandler) RetryDocument(c *gin.Context) {
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.RetryDocument(ctx)
	})
}

// CaptureSelfie handles POST /api/v1/wizards/current/captures/selfie
// @Summary Upload the face capture
// @Description Requires a neutral and a smile frame and an uploaded document
// @Tags scan
// @Accept json
// @Produce json
// @Param body body CaptureRequest true "Capture widget result"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 400 {object} ErrorResponseBody "Capture incomplete or document missing"
// @Security BearerAuth
// @Router /wizards/current/captures/selfie [post]
func (h *WizardHandler) CaptureSelfie(c *gin.Context) {
	src, ok := bindCapture(c)
	if !ok {
		return
	}
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.CaptureSelfie(ctx, src)
	})
}

// RetrySelfie handles POST /api/v1/wizards/current/captures/selfie/retry
// @Summary Retry the retained selfie upload
// @Tags scan
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/captures/selfie/retry [post]
func (h *WizardHandler) RetrySelfie(c *gin.Context) {
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.RetrySelfie(ctx)
	})
}

// CapturesNext handles POST /api/v1/wizards/current/captures/next
// @Summary Leave the scan step
// @Tags scan
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 400 {object} ErrorResponseBody "Uploads incomplete"
// @Security BearerAuth
// @Router /wizards/current/captures/next [post]
func (h *WizardHandler) CapturesNext(c *gin.Context) {
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.ContinueFromScanID(ctx)
	})
}

// LoadPersonal handles POST /api/v1/wizards/current/personal/load
// @Summary Load the personal information form
// @Description Fetches the eKYC summary and the province list to prefill the form
// @Tags personal
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/personal/load [post]
func (h *WizardHandler) LoadPersonal(c *gin.Context) {
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.LoadPersonalInformation(ctx)
	})
}

// UpdatePersonal handles PUT /api/v1/wizards/current/personal
// @Summary Edit the personal information form
// @Description Address codes in the body are ignored; use the address endpoints
// @Tags personal
// @Accept json
// @Produce json
// @Param body body domain.PersonalInfo true "Form fields"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/personal [put]
func (h *WizardHandler) UpdatePersonal(c *gin.Context) {
	var req domain.PersonalInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	h.act(c, func(_ context.Context, w service.Wizard) error {
		return w.UpdatePersonalInfo(req)
	})
}

func (h *WizardHandler) selectAddress(c *gin.Context, fn func(ctx context.Context, w service.Wizard, code string) error) {
	var req AddressCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return fn(ctx, w, req.Code)
	})
}

// SelectProvince handles PUT /api/v1/wizards/current/address/province
// @Summary Choose the province
// @Description Clears city, barangay and postal code, then loads the cities
// @Tags address
// @Accept json
// @Produce json
// @Param body body AddressCodeRequest true "Province code"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 409 {object} ErrorResponseBody "Address lookup in progress"
// @Security BearerAuth
// @Router /wizards/current/address/province [put]
func (h *WizardHandler) SelectProvince(c *gin.Context) {
	h.selectAddress(c, func(ctx context.Context, w service.Wizard, code string) error {
		return w.SelectProvince(ctx, code)
	})
}

// SelectCity handles PUT /api/v1/wizards/current/address/city
// @Summary Choose the city
// @Tags address
// @Accept json
// @Produce json
// @Param body body AddressCodeRequest true "City code"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/address/city [put]
func (h *WizardHandler) SelectCity(c *gin.Context) {
	h.selectAddress(c, func(ctx context.Context, w service.Wizard, code string) error {
		return w.SelectCity(ctx, code)
	})
}

// SelectBarangay handles PUT /api/v1/wizards/current/address/barangay
// @Summary Choose the barangay
// @Description Resolves the postal code of the barangay
// @Tags address
// @Accept json
// @Produce json
// @Param body body AddressCodeRequest true "Barangay code"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/address/barangay [put]
func (h *WizardHandler) SelectBarangay(c *gin.Context) {
	h.selectAddress(c, func(ctx context.Context, w service.Wizard, code string) error {
		return w.SelectBarangay(ctx, code)
	})
}

// SetPostalCode handles PUT /api/v1/wizards/current/address/postal-code
// @Summary Enter the postal code manually
// @Description Only allowed when the address service could not resolve it
// @Tags address
// @Accept json
// @Produce json
// @Param body body AddressCodeRequest true "Postal code"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 400 {object} ErrorResponseBody "Postal code is read-only"
// @Security BearerAuth
// @Router /wizards/current/address/postal-code [put]
func (h *WizardHandler) SetPostalCode(c *gin.Context) {
	h.selectAddress(c, func(_ context.Context, w service.Wizard, code string) error {
		return w.SetPostalCode(code)
	})
}

// DismissAddressBanner handles POST /api/v1/wizards/current/address/banner/dismiss
// @Summary Dismiss the address warning banner
// @Description Fatal banners cannot be dismissed
// @Tags address
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/address/banner/dismiss [post]
func (h *WizardHandler) DismissAddressBanner(c *gin.Context) {
	h.act(c, func(_ context.Context, w service.Wizard) error {
		w.DismissAddressBanner()
		return nil
	})
}

// SubmitPersonal handles POST /api/v1/wizards/current/personal/submit
// @Summary Submit the personal information
// @Tags personal
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 400 {object} ErrorResponseBody "Required fields missing"
// @Security BearerAuth
// @Router /wizards/current/personal/submit [post]
func (h *WizardHandler) SubmitPersonal(c *gin.Context) {
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.SubmitPersonalInformation(ctx)
	})
}

// SubmitSupportingDocuments handles POST /api/v1/wizards/current/supporting-documents
// @Summary Upload supporting documents
// @Description An empty list skips the upload and advances
// @Tags finalize
// @Accept json
// @Produce json
// @Param body body SupportingDocumentsRequest true "Documents"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Security BearerAuth
// @Router /wizards/current/supporting-documents [post]
func (h *WizardHandler) SubmitSupportingDocuments(c *gin.Context) {
	var req SupportingDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.SubmitSupportingDocuments(ctx, req.Documents)
	})
}

// ConfirmReview handles POST /api/v1/wizards/current/review/confirm
// @Summary Confirm the review
// @Tags finalize
// @Accept json
// @Produce json
// @Param body body AgreementRequest true "Confirmation"
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 400 {object} ErrorResponseBody "Confirmation required"
// @Security BearerAuth
// @Router /wizards/current/review/confirm [post]
func (h *WizardHandler) ConfirmReview(c *gin.Context) {
	var req AgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.ConfirmReview(ctx, req.Agreed)
	})
}

// AwaitProcessing handles POST /api/v1/wizards/current/processing/wait
// @Summary Wait for registration processing
// @Description Blocks until the registration completes, fails or the wait gives up
// @Tags finalize
// @Produce json
// @Success 200 {object} WizardViewResponse "Wizard view"
// @Failure 422 {object} ErrorResponseBody "Processing failed"
// @Failure 504 {object} ErrorResponseBody "Processing timed out"
// @Security BearerAuth
// @Router /wizards/current/processing/wait [post]
func (h *WizardHandler) AwaitProcessing(c *gin.Context) {
	h.act(c, func(ctx context.Context, w service.Wizard) error {
		return w.AwaitProcessing(ctx)
	})
}
