package ekyc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"simreg/internal/domain"
)

// Endpoint paths relative to the configured base path.
const (
	pathValidateAccount    = "validateAccount"
	pathSendOTP            = "send-otp"
	pathResendOTP          = "resend-otp"
	pathVerifyOTP          = "otp-verification"
	pathCheckRegistrations = "check-registrations"
	pathRegTypeList        = "regTypeList"
	pathRegType            = "regType"
	pathDocumentScan       = "documentScan"
	pathUserSelfie         = "userSelfie"
	pathSummary            = "summary"
	pathAddress            = "address"
	pathUserDetails        = "user-details/submit"
	pathAdditionalDocs     = "additional-docs/upload"
	pathRegistrationStatus = "registration-status"
)

type msisdnBody struct {
	MSISDN string `json:"msisdn"`
}

// ValidateAccount starts a session. The session id is read from the
// X-Session-Id response header, falling back to a sessionId body field.
func (c *Client) ValidateAccount(ctx context.Context, req domain.ValidateAccountRequest) (*domain.ValidateAccountResult, error) {
	resp, err := c.do(ctx, "validateAccount", http.MethodPost, pathValidateAccount, nil, "", req)
	if err != nil {
		return nil, err
	}

	result := &domain.ValidateAccountResult{SessionID: resp.header.Get(SessionHeader)}
	if resp.isJSON {
		result.Body = json.RawMessage(resp.body)
		if result.SessionID == "" {
			var body struct {
				SessionID string `json:"sessionId"`
			}
			if err := json.Unmarshal(unwrapData(resp.body), &body); err == nil {
				result.SessionID = body.SessionID
			}
		}
	}
	return result, nil
}

func (c *Client) SendOTP(ctx context.Context, sessionID, msisdn string) error {
	_, err := c.do(ctx, "sendOTP", http.MethodPost, pathSendOTP, nil, sessionID, msisdnBody{MSISDN: msisdn})
	return err
}

func (c *Client) ResendOTP(ctx context.Context, sessionID, msisdn string) error {
	_, err := c.do(ctx, "resendOTP", http.MethodPost, pathResendOTP, nil, sessionID, msisdnBody{MSISDN: msisdn})
	return err
}

func (c *Client) VerifyOTP(ctx context.Context, sessionID string, req domain.VerifyOTPRequest) error {
	_, err := c.do(ctx, "verifyOTP", http.MethodPost, pathVerifyOTP, nil, sessionID, req)
	return err
}

// CheckRegistrations returns the raw registration lookup for msisdn.
func (c *Client) CheckRegistrations(ctx context.Context, sessionID, msisdn string) (json.RawMessage, error) {
	q := url.Values{"msisdn": {msisdn}}
	resp, err := c.do(ctx, "checkRegistrations", http.MethodGet, pathCheckRegistrations, q, sessionID, nil)
	if err != nil {
		return nil, err
	}
	if !resp.isJSON {
		raw, _ := json.Marshal(string(resp.body))
		return raw, nil
	}
	return json.RawMessage(resp.body), nil
}

// RegTypeList accepts {"regTypes":[...]}, the same wrapped in "data", or a bare array.
func (c *Client) RegTypeList(ctx context.Context, sessionID string) ([]domain.RegistrationType, error) {
	resp, err := c.do(ctx, "regTypeList", http.MethodGet, pathRegTypeList, nil, sessionID, nil)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := decode("regTypeList", resp, &raw); err != nil {
		return nil, err
	}
	var list []domain.RegistrationType
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		RegTypes []domain.RegistrationType `json:"regTypes"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("ekyc.regTypeList: decoding response: %w", err)
	}
	return wrapped.RegTypes, nil
}

type regTypeBody struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Locale string `json:"locale"`
}

func (c *Client) SubmitRegType(ctx context.Context, sessionID string, regType domain.RegistrationType, locale string) error {
	body := regTypeBody{Key: regType.Key, Value: regType.Value, Locale: locale}
	_, err := c.do(ctx, "regType", http.MethodPut, pathRegType, nil, sessionID, body)
	return err
}

func (c *Client) DocumentScan(ctx context.Context, sessionID string, req domain.DocumentScanRequest) error {
	_, err := c.do(ctx, "documentScan", http.MethodPost, pathDocumentScan, nil, sessionID, req)
	return err
}

type selfieBody struct {
	NeutralImage string `json:"neutralImage"`
	SmileImage   string `json:"smileImage"`
}

func (c *Client) UserSelfie(ctx context.Context, sessionID, neutralImage, smileImage string) error {
	body := selfieBody{NeutralImage: neutralImage, SmileImage: smileImage}
	_, err := c.do(ctx, "userSelfie", http.MethodPost, pathUserSelfie, nil, sessionID, body)
	return err
}

func (c *Client) EkycSummary(ctx context.Context, sessionID string) (*domain.EkycSummary, error) {
	resp, err := c.do(ctx, "ekycSummary", http.MethodGet, pathSummary, nil, sessionID, nil)
	if err != nil {
		return nil, err
	}
	var summary domain.EkycSummary
	if err := decode("ekycSummary", resp, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Address looks up one division. A 404 is returned as an *APIError; callers
// decide whether it means "no data".
func (c *Client) Address(ctx context.Context, sessionID string, q domain.AddressQuery) ([]domain.AddressOption, error) {
	resp, err := c.do(ctx, "address", http.MethodGet, pathAddress, addressQuery(q), sessionID, nil)
	if err != nil {
		return nil, withAddressMessage(err)
	}
	var options []domain.AddressOption
	if err := decode("address", resp, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// PostalCode resolves the postal code of a barangay. The body may be
// {"postalCode":..}, the same wrapped in "data", or a bare string.
func (c *Client) PostalCode(ctx context.Context, sessionID, barangayCode string) (string, error) {
	q := addressQuery(domain.AddressQuery{
		Division: domain.AddressPostalCode,
		CodeName: domain.AddressBarangay,
		Code:     barangayCode,
	})
	resp, err := c.do(ctx, "postalCode", http.MethodGet, pathAddress, q, sessionID, nil)
	if err != nil {
		return "", withAddressMessage(err)
	}
	if !resp.isJSON {
		return strings.TrimSpace(string(resp.body)), nil
	}

	raw := unwrapData(resp.body)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj struct {
		PostalCode json.RawMessage `json:"postalCode"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("ekyc.postalCode: decoding response: %w", err)
	}
	return scalarString(obj.PostalCode), nil
}

func (c *Client) SubmitUserDetails(ctx context.Context, sessionID string, details domain.UserDetails) error {
	_, err := c.do(ctx, "userDetailsSubmit", http.MethodPost, pathUserDetails, nil, sessionID, details)
	return err
}

type additionalDocsBody struct {
	Documents []domain.AdditionalDocument `json:"documents"`
	Locale    string                      `json:"locale"`
}

func (c *Client) UploadAdditionalDocs(ctx context.Context, sessionID string, docs []domain.AdditionalDocument, locale string) error {
	body := additionalDocsBody{Documents: docs, Locale: locale}
	_, err := c.do(ctx, "additionalDocs", http.MethodPost, pathAdditionalDocs, nil, sessionID, body)
	return err
}

func (c *Client) RegistrationStatus(ctx context.Context, sessionID string) (*domain.RegistrationStatus, error) {
	resp, err := c.do(ctx, "registrationStatus", http.MethodGet, pathRegistrationStatus, nil, sessionID, nil)
	if err != nil {
		return nil, err
	}
	var status domain.RegistrationStatus
	if err := decode("registrationStatus", resp, &status); err != nil {
		return nil, err
	}
	status.Status = domain.RegistrationState(strings.ToUpper(string(status.Status)))
	return &status, nil
}

func addressQuery(q domain.AddressQuery) url.Values {
	v := url.Values{"division": {string(q.Division)}}
	if q.CodeName != "" {
		v.Set("codeName", string(q.CodeName))
		v.Set("code", q.Code)
	}
	return v
}

// scalarString renders a JSON string or number as a plain string.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}
