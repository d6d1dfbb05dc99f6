package wizard

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"simreg/internal/domain"
)

// armOTPTimers starts the resend cooldown and the code expiry countdown.
// Must be called with c.mu held.
func (c *Controller) armOTPTimers() {
	c.stopTimers()
	c.timerGen++
	gen := c.timerGen

	now := c.now()
	c.resendAt = now.Add(c.settings.ResendCooldown)
	c.expiresAt = now.Add(c.settings.OTPExpiry)
	c.state.OTPExpired = false
	c.expiryTimer = time.AfterFunc(c.settings.OTPExpiry, func() { c.onOTPExpired(gen) })
}

// stopTimers must be called with c.mu held.
func (c *Controller) stopTimers() {
	c.timerGen++
	if c.expiryTimer != nil {
		c.expiryTimer.Stop()
		c.expiryTimer = nil
	}
	c.resendAt = time.Time{}
	c.expiresAt = time.Time{}
}

// onOTPExpired clears the entered digits and marks the code expired. A
// verification already in flight is left to complete.
func (c *Controller) onOTPExpired(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.timerGen || c.state.CurrentStep != domain.StepOTPVerification {
		return
	}
	c.state.OTPDigits = [domain.OTPLength]string{}
	c.state.OTPExpired = true
	c.state.UpdatedAt = c.now()
	log.Printf("wizard.Controller: code for wizard %s expired", c.state.ID)
}

func remaining(deadline, now time.Time) time.Duration {
	if deadline.IsZero() || !now.Before(deadline) {
		return 0
	}
	return deadline.Sub(now)
}

// SetOTPDigit fills one slot. An empty value clears the slot.
func (c *Controller) SetOTPDigit(index int, value string) error {
	if index < 0 || index >= domain.OTPLength {
		return domain.ErrInvalidSlot
	}
	if value != "" && (len(value) != 1 || value[0] < '0' || value[0] > '9') {
		return domain.ErrInvalidDigit
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.CurrentStep != domain.StepOTPVerification {
		return fmt.Errorf("%w: wizard is on %s", domain.ErrWrongStep, c.state.CurrentStep)
	}
	c.state.OTPDigits[index] = value
	c.state.UpdatedAt = c.now()
	return nil
}

// PasteOTP distributes the digits of s over the slots in order. Non-digits are
// ignored, digits beyond the sixth are dropped and unfilled slots are cleared.
func (c *Controller) PasteOTP(s string) error {
	var digits [domain.OTPLength]string
	n := 0
	for _, r := range s {
		if n == domain.OTPLength {
			break
		}
		if r >= '0' && r <= '9' {
			digits[n] = string(r)
			n++
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.CurrentStep != domain.StepOTPVerification {
		return fmt.Errorf("%w: wizard is on %s", domain.ErrWrongStep, c.state.CurrentStep)
	}
	c.state.OTPDigits = digits
	c.state.UpdatedAt = c.now()
	return nil
}

// CanSubmitOTP reports whether all six slots hold a digit.
func (c *Controller) CanSubmitOTP() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return otpComplete(c.state.OTPDigits)
}

func otpComplete(d [domain.OTPLength]string) bool {
	for _, s := range d {
		if len(s) != 1 || s[0] < '0' || s[0] > '9' {
			return false
		}
	}
	return true
}

// VerifyOTP verifies the entered code, looks up existing registrations for the
// number and moves on to the reminders.
func (c *Controller) VerifyOTP(ctx context.Context) error {
	var code, msisdn string
	cl, err := c.begin(ctx, domain.StepOTPVerification, true, func() error {
		if len(c.state.MobileNumber) != domain.MobileNumberLength {
			return domain.ErrMobileNotValidated
		}
		if !otpComplete(c.state.OTPDigits) {
			return domain.ErrOTPIncomplete
		}
		code = strings.Join(c.state.OTPDigits[:], "")
		msisdn = MSISDN(c.state.MobileNumber)
		return nil
	})
	if err != nil {
		return err
	}

	err = c.client.VerifyOTP(cl.ctx, cl.sessionID, domain.VerifyOTPRequest{
		MSISDN:    msisdn,
		Code:      code,
		ChannelID: c.settings.ChannelID,
		SimType:   c.settings.SimType,
	})
	if err != nil {
		return c.finish(cl, err, nil)
	}

	registrations, err := c.client.CheckRegistrations(cl.ctx, cl.sessionID, msisdn)
	return c.finish(cl, err, func() {
		c.state.OTPVerified = true
		c.state.Registrations = registrations
		c.advance()
	})
}

// ResendOTP sends a new code once the cooldown has elapsed. On success the
// digits are cleared and both countdowns restart.
func (c *Controller) ResendOTP(ctx context.Context) error {
	var msisdn string
	cl, err := c.begin(ctx, domain.StepOTPVerification, true, func() error {
		if len(c.state.MobileNumber) != domain.MobileNumberLength {
			return domain.ErrMobileNotValidated
		}
		if remaining(c.resendAt, c.now()) > 0 {
			return domain.ErrResendCooldown
		}
		msisdn = MSISDN(c.state.MobileNumber)
		return nil
	})
	if err != nil {
		return err
	}

	err = c.client.ResendOTP(cl.ctx, cl.sessionID, msisdn)
	return c.finish(cl, err, func() {
		c.state.OTPDigits = [domain.OTPLength]string{}
		c.armOTPTimers()
	})
}
