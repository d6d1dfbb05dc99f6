package wizard

import (
	"context"
	"fmt"
	"log"
	"strings"

	"simreg/internal/domain"
)

// NormalizeMobile keeps only digits, replaces a leading "0" with "9" and
// truncates to ten digits. Normalizing a normalized number returns it unchanged.
func NormalizeMobile(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		digits = "9" + digits[1:]
	}
	if len(digits) > domain.MobileNumberLength {
		digits = digits[:domain.MobileNumberLength]
	}
	return digits
}

// MSISDN returns the international form of a normalized national number.
func MSISDN(number string) string {
	return domain.MSISDNPrefix + number
}

// SetMobileNumber stores the normalized number. Reaching ten digits triggers
// account validation, which issues the session on success; any other length
// resets the agreement, the validation and the session.
func (c *Controller) SetMobileNumber(ctx context.Context, raw string) error {
	number := NormalizeMobile(raw)

	c.mu.Lock()
	if c.state.CurrentStep != domain.StepMobileVerification {
		c.mu.Unlock()
		return fmt.Errorf("%w: wizard is on %s", domain.ErrWrongStep, c.state.CurrentStep)
	}
	unchanged := number == c.state.MobileNumber
	c.state.MobileNumber = number
	c.state.UpdatedAt = c.now()

	if len(number) != domain.MobileNumberLength {
		c.resetValidation()
		err := c.session.Clear(ctx)
		c.mu.Unlock()
		if err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		return nil
	}
	if unchanged && (c.state.ValidationSucceeded || c.validating) {
		c.mu.Unlock()
		return nil
	}

	c.resetValidation()
	c.validating = true
	gen := c.validation
	if err := c.session.Clear(ctx); err != nil {
		c.validating = false
		c.mu.Unlock()
		return fmt.Errorf("clearing session: %w", err)
	}
	c.mu.Unlock()

	res, err := c.client.ValidateAccount(ctx, domain.ValidateAccountRequest{
		MSISDN:    MSISDN(number),
		ChannelID: c.settings.ChannelID,
		SimType:   c.settings.SimType,
	})
	if err == nil && res.SessionID == "" {
		err = domain.ErrMissingSessionID
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.validation || c.state.CurrentStep != domain.StepMobileVerification {
		log.Printf("wizard.Controller: discarding validation of %s after input changed", MSISDN(number))
		return domain.ErrStaleResult
	}
	c.validating = false
	if err != nil {
		return c.fail(domain.StepMobileVerification, err)
	}

	if err := c.session.Set(ctx, res.SessionID); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	c.state.ValidationSucceeded = true
	c.state.UpdatedAt = c.now()
	return nil
}

// resetValidation must be called with c.mu held.
func (c *Controller) resetValidation() {
	c.validation++
	c.validating = false
	c.state.ValidationSucceeded = false
	c.state.TermsAgreed = false
	c.state.HasError = false
	c.state.Error = nil
}

// CanAgree reports whether the terms checkbox is enabled.
func (c *Controller) CanAgree() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canAgree()
}

func (c *Controller) canAgree() bool {
	return len(c.state.MobileNumber) == domain.MobileNumberLength && !c.state.HasError && c.state.ValidationSucceeded
}

// SetAgreement ticks or clears the terms checkbox.
func (c *Controller) SetAgreement(agreed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.CurrentStep != domain.StepMobileVerification {
		return fmt.Errorf("%w: wizard is on %s", domain.ErrWrongStep, c.state.CurrentStep)
	}
	if agreed && !c.canAgree() {
		return domain.ErrAgreementLocked
	}
	c.state.TermsAgreed = agreed
	c.state.UpdatedAt = c.now()
	return nil
}

// RequestCode sends the one-time code and moves to OTP verification.
func (c *Controller) RequestCode(ctx context.Context) error {
	var msisdn string
	cl, err := c.begin(ctx, domain.StepMobileVerification, true, func() error {
		switch {
		case len(c.state.MobileNumber) != domain.MobileNumberLength:
			return domain.ErrInvalidMobileNumber
		case c.validating || !c.state.ValidationSucceeded:
			return domain.ErrMobileNotValidated
		case !c.state.TermsAgreed:
			return domain.ErrAgreementRequired
		}
		msisdn = MSISDN(c.state.MobileNumber)
		return nil
	})
	if err != nil {
		return err
	}

	err = c.client.SendOTP(cl.ctx, cl.sessionID, msisdn)
	return c.finish(cl, err, c.advance)
}
