package wizard

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"simreg/internal/address"
	"simreg/internal/domain"
)

// View is a read-only snapshot of a wizard for rendering.
type View struct {
	WizardID      uuid.UUID         `json:"wizard_id"`
	Step          domain.Step       `json:"step"`
	Screen        domain.Screen     `json:"screen"`
	Phase         int               `json:"phase"`
	Phases        int               `json:"phases"`
	TotalSteps    int               `json:"total_steps"`
	SessionActive bool              `json:"session_active"`
	Busy          bool              `json:"busy"`
	Error         *domain.StepError `json:"error,omitempty"`

	Mobile   MobileView    `json:"mobile"`
	OTP      OTPView       `json:"otp"`
	SimInfo  SimInfoView   `json:"sim_info"`
	Scan     ScanView      `json:"scan"`
	Personal PersonalView  `json:"personal"`
	Finalize FinalizeView  `json:"finalize"`
	Times    TimestampView `json:"times"`
}

type MobileView struct {
	Number              string `json:"number"`
	Validating          bool   `json:"validating"`
	ValidationSucceeded bool   `json:"validation_succeeded"`
	CanAgree            bool   `json:"can_agree"`
	TermsAgreed         bool   `json:"terms_agreed"`
}

type OTPView struct {
	Digits          [domain.OTPLength]string `json:"digits"`
	CanSubmit       bool                     `json:"can_submit"`
	Verified        bool                     `json:"verified"`
	Expired         bool                     `json:"expired"`
	ResendInSeconds int                      `json:"resend_in_seconds"`
	ExpiresInSecs   int                      `json:"expires_in_seconds"`
	Registrations   json.RawMessage          `json:"registrations,omitempty"`
}

type SimInfoView struct {
	RemindersAccepted bool                      `json:"reminders_accepted"`
	RegTypes          []domain.RegistrationType `json:"reg_types"`
	Selected          *domain.RegistrationType  `json:"selected,omitempty"`
}

type ScanView struct {
	DocumentUploaded bool                                        `json:"document_uploaded"`
	SelfieUploaded   bool                                        `json:"selfie_uploaded"`
	Retained         []domain.CaptureKind                        `json:"retained"`
	Previews         map[domain.CaptureKind]domain.PreviewHandle `json:"previews"`
}

type PersonalView struct {
	Loaded  bool                `json:"loaded"`
	Summary *domain.EkycSummary `json:"summary,omitempty"`
	Info    domain.PersonalInfo `json:"info"`
	Address address.Snapshot    `json:"address"`
}

type FinalizeView struct {
	AdditionalDocs  int    `json:"additional_docs"`
	ReviewConfirmed bool   `json:"review_confirmed"`
	ReferenceNumber string `json:"reference_number,omitempty"`
}

type TimestampView struct {
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// View snapshots the wizard.
func (c *Controller) View(ctx context.Context) (View, error) {
	sid, err := c.session.Get(ctx)
	if err != nil {
		return View{}, err
	}
	addr := c.address.Snapshot()
	previews := c.previews.Handles()

	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	now := c.now()

	retained := make([]domain.CaptureKind, 0, len(s.Pending))
	for k := range s.Pending {
		retained = append(retained, k)
	}
	sort.Slice(retained, func(i, j int) bool { return retained[i] < retained[j] })

	info := s.PersonalInfo
	info.Address = addr.Selection

	v := View{
		WizardID:      s.ID,
		Step:          s.CurrentStep,
		Screen:        RenderFor(s.CurrentStep),
		Phase:         s.CurrentStep.Phase(),
		Phases:        domain.DisplayPhases,
		TotalSteps:    domain.TotalSteps,
		SessionActive: sid != "",
		Busy:          c.busy[s.CurrentStep] || (s.CurrentStep == domain.StepMobileVerification && c.validating),
		Error:         s.Error,
		Mobile: MobileView{
			Number:              s.MobileNumber,
			Validating:          c.validating,
			ValidationSucceeded: s.ValidationSucceeded,
			CanAgree:            c.canAgree(),
			TermsAgreed:         s.TermsAgreed,
		},
		OTP: OTPView{
			Digits:          s.OTPDigits,
			CanSubmit:       otpComplete(s.OTPDigits),
			Verified:        s.OTPVerified,
			Expired:         s.OTPExpired,
			ResendInSeconds: seconds(remaining(c.resendAt, now)),
			ExpiresInSecs:   seconds(remaining(c.expiresAt, now)),
			Registrations:   s.Registrations,
		},
		SimInfo: SimInfoView{
			RemindersAccepted: s.RemindersAccepted,
			RegTypes:          s.RegTypes,
			Selected:          s.RegType,
		},
		Scan: ScanView{
			DocumentUploaded: s.DocumentUploaded,
			SelfieUploaded:   s.SelfieUploaded,
			Retained:         retained,
			Previews:         previews,
		},
		Personal: PersonalView{
			Loaded:  s.PersonalLoaded,
			Summary: s.Summary,
			Info:    info,
			Address: addr,
		},
		Finalize: FinalizeView{
			AdditionalDocs:  len(s.AdditionalDocs),
			ReviewConfirmed: s.ReviewConfirmed,
			ReferenceNumber: s.ReferenceNumber,
		},
		Times: TimestampView{StartedAt: s.StartedAt, UpdatedAt: s.UpdatedAt},
	}
	return v, nil
}
