package domain

import "fmt"

// Step is an ordinal position in the registration wizard.
type Step int

const (
	StepMobileVerification Step = iota + 1
	StepOTPVerification
	StepSimRegistrationReminders
	StepProvideSimInformation
	StepScanInformation
	StepScanID
	StepPersonalInformation
	StepSupportingDocuments
	StepReviewAndConfirm
	StepProcessing
	StepComplete
)

// TotalSteps is the number of steps in the wizard.
const TotalSteps = 11

// DisplayPhases is the number of segments shown by the progress indicator.
const DisplayPhases = 6

// Valid reports whether s lies within the wizard sequence.
func (s Step) Valid() bool {
	return s >= StepMobileVerification && s <= StepComplete
}

// Phase maps a step to its progress-indicator segment (1..DisplayPhases).
func (s Step) Phase() int {
	switch s {
	case StepMobileVerification, StepOTPVerification:
		return 1
	case StepSimRegistrationReminders, StepProvideSimInformation:
		return 2
	case StepScanInformation, StepScanID:
		return 3
	case StepPersonalInformation, StepSupportingDocuments:
		return 4
	case StepReviewAndConfirm:
		return 5
	case StepProcessing, StepComplete:
		return 6
	default:
		return 1
	}
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return string(ScreenFor(s))
}

// Screen identifies the component responsible for rendering a step.
type Screen string

const (
	ScreenMobileVerification       Screen = "mobile-verification"
	ScreenOTPVerification          Screen = "otp-verification"
	ScreenSimRegistrationReminders Screen = "sim-registration-reminders"
	ScreenProvideSimInformation    Screen = "provide-sim-information"
	ScreenScanInformation          Screen = "scan-information"
	ScreenScanID                   Screen = "scan-id"
	ScreenPersonalInformation      Screen = "personal-information"
	ScreenSupportingDocuments      Screen = "supporting-documents"
	ScreenReviewAndConfirm         Screen = "review-and-confirm"
	ScreenProcessing               Screen = "processing"
	ScreenComplete                 Screen = "complete"
)

var screens = map[Step]Screen{
	StepMobileVerification:       ScreenMobileVerification,
	StepOTPVerification:          ScreenOTPVerification,
	StepSimRegistrationReminders: ScreenSimRegistrationReminders,
	StepProvideSimInformation:    ScreenProvideSimInformation,
	StepScanInformation:          ScreenScanInformation,
	StepScanID:                   ScreenScanID,
	StepPersonalInformation:      ScreenPersonalInformation,
	StepSupportingDocuments:      ScreenSupportingDocuments,
	StepReviewAndConfirm:         ScreenReviewAndConfirm,
	StepProcessing:               ScreenProcessing,
	StepComplete:                 ScreenComplete,
}

// ScreenFor returns the screen for a step. Out-of-range steps fail closed to
// the mobile verification screen.
func ScreenFor(s Step) Screen {
	if sc, ok := screens[s]; ok {
		return sc
	}
	return ScreenMobileVerification
}

// CaptureKind labels a captured image.
type CaptureKind string

const (
	CaptureKindDocument    CaptureKind = "document"
	CaptureKindNeutralFace CaptureKind = "neutral-face"
	CaptureKindSmileFace   CaptureKind = "smile-face"
)

// CaptureMode selects which physical capture the adapter performs.
type CaptureMode string

const (
	CaptureModeDocument CaptureMode = "document"
	CaptureModeFace     CaptureMode = "face"
)

// CameraFacing selects the camera used by the capture adapter.
type CameraFacing string

const (
	FacingEnvironment CameraFacing = "environment"
	FacingUser        CameraFacing = "user"
)

// AddressLevel is a division in the address cascade.
type AddressLevel string

const (
	AddressProvince   AddressLevel = "province"
	AddressCity       AddressLevel = "city"
	AddressBarangay   AddressLevel = "barangay"
	AddressPostalCode AddressLevel = "postalCode"
)

// BannerSeverity distinguishes banners that block submission from those that don't.
type BannerSeverity string

const (
	BannerWarning BannerSeverity = "warning"
	BannerFatal   BannerSeverity = "fatal"
)

// RegistrationState is the server-side state of a submitted registration.
type RegistrationState string

const (
	RegistrationPending   RegistrationState = "PENDING"
	RegistrationCompleted RegistrationState = "COMPLETED"
	RegistrationFailed    RegistrationState = "FAILED"
)

// Defaults used when talking to the eKYC service.
const (
	DefaultChannelID    = "C04"
	DefaultSimType      = "PREPAID"
	DefaultLocale       = "en"
	DefaultDocumentType = "ID_FRONT"
	DefaultCountry      = "PHL"
	MSISDNPrefix        = "63"
	MobileNumberLength  = 10
	OTPLength           = 6
)
