package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RegistrationType is one selectable option from the regTypeList endpoint.
type RegistrationType struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// AddressOption is one entry of an address lookup list.
type AddressOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// AddressQuery selects a division, optionally filtered by a parent division code.
type AddressQuery struct {
	Division AddressLevel
	CodeName AddressLevel
	Code     string
}

// AddressSelection holds the cascading address codes in dependency order.
type AddressSelection struct {
	ProvinceCode string `json:"province_code"`
	CityCode     string `json:"city_code"`
	BarangayCode string `json:"barangay_code"`
	PostalCode   string `json:"postal_code"`
}

// UserAddress is the address shape exchanged with the eKYC service.
type UserAddress struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	AddressLine3 string `json:"addressLine3"`
	Country      string `json:"country"`
	State        string `json:"state"`
	StateCode    string `json:"stateCode"`
	City         string `json:"city"`
	CityCode     string `json:"cityCode"`
	Barangay     string `json:"barangay"`
	BarangayCode string `json:"barangayCode"`
	PostalCode   string `json:"postalCode"`
}

// IdentityData is the identity record returned in an eKYC summary.
type IdentityData struct {
	FirstName      string        `json:"firstName,omitempty"`
	MiddleName     string        `json:"middleName,omitempty"`
	LastName       string        `json:"lastName,omitempty"`
	Suffix         string        `json:"suffix,omitempty"`
	DateOfBirth    string        `json:"dateOfBirth,omitempty"`
	Gender         string        `json:"gender,omitempty"`
	DocumentType   string        `json:"documentType,omitempty"`
	DocumentNumber string        `json:"documentNumber,omitempty"`
	Nationality    string        `json:"nationality,omitempty"`
	DateOfExpiry   string        `json:"dateOfExpiry,omitempty"`
	UserAddress    []UserAddress `json:"userAddress,omitempty"`
}

// EkycSummary holds data extracted from the scanned document and data the
// user has already confirmed.
type EkycSummary struct {
	ExtractedData *IdentityData `json:"extractedData,omitempty"`
	UserData      *IdentityData `json:"userData,omitempty"`
}

// PersonalInfo is the editable personal-information form.
type PersonalInfo struct {
	FirstName  string           `json:"first_name"`
	MiddleName string           `json:"middle_name"`
	LastName   string           `json:"last_name"`
	Suffix     string           `json:"suffix"`
	Birthday   string           `json:"birthday"`
	Gender     string           `json:"gender"`
	UnitNumber string           `json:"unit_number"`
	Street     string           `json:"street"`
	Village    string           `json:"village"`
	Address    AddressSelection `json:"address"`
}

// UserDetails is the payload of the user-details submission.
type UserDetails struct {
	FirstName     string        `json:"firstName"`
	MiddleName    string        `json:"middleName"`
	LastName      string        `json:"lastName"`
	Suffix        string        `json:"suffix"`
	DateOfBirth   string        `json:"dateOfBirth"`
	Gender        string        `json:"gender"`
	DocType       string        `json:"docType"`
	DocumentNo    string        `json:"documentNo"`
	Nationality   string        `json:"nationality"`
	DateOfExpiry  string        `json:"dateOfExpiry"`
	UserAddresses []UserAddress `json:"userAddresses"`
}

// AdditionalDocument is a supporting document attached before review.
type AdditionalDocument struct {
	DocumentType  string `json:"documentType"`
	DocumentImage string `json:"documentImage"`
	DocumentName  string `json:"documentName"`
}

// ValidateAccountRequest starts an eKYC session for a mobile number.
type ValidateAccountRequest struct {
	MSISDN    string `json:"msisdn"`
	ChannelID string `json:"channelId"`
	SimType   string `json:"simType"`
}

// ValidateAccountResult carries the issued session id and the raw response body.
type ValidateAccountResult struct {
	SessionID string
	Body      json.RawMessage
}

// VerifyOTPRequest submits a one-time code.
type VerifyOTPRequest struct {
	MSISDN    string `json:"msisdn"`
	Code      string `json:"code"`
	ChannelID string `json:"channelId"`
	SimType   string `json:"simType"`
}

// DocumentScanRequest uploads a captured ID image.
type DocumentScanRequest struct {
	Image        string `json:"image"`
	DocumentType string `json:"documentType"`
	Locale       string `json:"locale"`
}

// RegistrationStatus is the processing state of a submitted registration.
type RegistrationStatus struct {
	Status          RegistrationState `json:"status"`
	ReferenceNumber string            `json:"referenceNumber"`
	Message         string            `json:"message,omitempty"`
}

// CaptureRequest configures one capture.
type CaptureRequest struct {
	Mode   CaptureMode
	Facing CameraFacing
}

// Frame is one image yielded by a capture adapter, either as binary data or
// as an inline encoded string (plain base64 or a data URL).
type Frame struct {
	Kind        CaptureKind
	Blob        []byte
	Encoded     string
	ContentType string
}

// Capture is the adapter output for one capture.
type Capture struct {
	Frames   []Frame
	Metadata map[string]string
}

// PreviewHandle references a locally materialized preview of a captured image.
type PreviewHandle struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url"`
}

// CaptureResult is a normalized capture waiting for upload acknowledgment.
type CaptureResult struct {
	Kind       CaptureKind
	Payload    string
	CapturedAt time.Time
	Preview    *PreviewHandle
}

// Banner is a message shown above a form.
type Banner struct {
	Severity BannerSeverity `json:"severity"`
	Message  string         `json:"message"`
}

// StepError is a dismissible error raised by a step's submission.
type StepError struct {
	Step    Step   `json:"step"`
	Message string `json:"message"`
}

// WizardState is the mutable state owned by a wizard controller.
type WizardState struct {
	ID          uuid.UUID
	CurrentStep Step

	MobileNumber        string
	ValidationSucceeded bool
	TermsAgreed         bool
	HasError            bool
	Error               *StepError

	OTPDigits     [OTPLength]string
	OTPVerified   bool
	OTPExpired    bool
	Registrations json.RawMessage

	RemindersAccepted bool
	RegTypes          []RegistrationType
	RegType           *RegistrationType

	Pending          map[CaptureKind]*CaptureResult
	DocumentUploaded bool
	SelfieUploaded   bool

	Summary        *EkycSummary
	PersonalLoaded bool
	PersonalInfo   PersonalInfo

	AdditionalDocs []AdditionalDocument

	ReviewConfirmed bool
	ReferenceNumber string

	StartedAt time.Time
	UpdatedAt time.Time
}

// Checkpoint is the part of a wizard's state persisted next to its session
// id so that a wizard survives a restart of the process hosting it. Captured
// images, OTP digits and supporting documents are never persisted.
type Checkpoint struct {
	Seq       uint64    `json:"seq"`
	ID        uuid.UUID `json:"id"`
	Step      Step      `json:"step"`
	StartedAt time.Time `json:"started_at"`
	SavedAt   time.Time `json:"saved_at"`

	MobileNumber        string `json:"mobile_number"`
	ValidationSucceeded bool   `json:"validation_succeeded"`
	TermsAgreed         bool   `json:"terms_agreed"`

	OTPVerified   bool            `json:"otp_verified"`
	Registrations json.RawMessage `json:"registrations,omitempty"`

	RemindersAccepted bool               `json:"reminders_accepted"`
	RegTypes          []RegistrationType `json:"reg_types,omitempty"`
	RegType           *RegistrationType  `json:"reg_type,omitempty"`

	DocumentUploaded bool `json:"document_uploaded"`
	SelfieUploaded   bool `json:"selfie_uploaded"`

	PersonalInfo    PersonalInfo `json:"personal_info"`
	ReviewConfirmed bool         `json:"review_confirmed"`
	ReferenceNumber string       `json:"reference_number,omitempty"`
}

// FunnelRow summarizes how many live wizards sit on a step.
type FunnelRow struct {
	Step    Step   `json:"step"`
	Screen  Screen `json:"screen"`
	Wizards int    `json:"wizards"`
}
