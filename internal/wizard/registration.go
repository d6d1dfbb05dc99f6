package wizard

import (
	"context"
	"fmt"

	"simreg/internal/domain"
)

// AcceptReminders records the reminders agreement, loads the registration
// types offered for the session and moves on.
func (c *Controller) AcceptReminders(ctx context.Context, agreed bool) error {
	cl, err := c.begin(ctx, domain.StepSimRegistrationReminders, true, func() error {
		if !agreed {
			return domain.ErrAgreementRequired
		}
		return nil
	})
	if err != nil {
		return err
	}

	types, err := c.client.RegTypeList(cl.ctx, cl.sessionID)
	return c.finish(cl, err, func() {
		c.state.RemindersAccepted = true
		c.state.RegTypes = types
		c.advance()
	})
}

// ReloadRegTypes fetches the registration types again without leaving the step.
func (c *Controller) ReloadRegTypes(ctx context.Context) ([]domain.RegistrationType, error) {
	cl, err := c.begin(ctx, domain.StepProvideSimInformation, true, nil)
	if err != nil {
		return nil, err
	}

	types, err := c.client.RegTypeList(cl.ctx, cl.sessionID)
	if err := c.finish(cl, err, func() { c.state.RegTypes = types }); err != nil {
		return nil, err
	}
	return types, nil
}

// SubmitRegType submits the selected registration type. There is no default:
// the key must be one of the offered options.
func (c *Controller) SubmitRegType(ctx context.Context, key string) error {
	var selected domain.RegistrationType
	cl, err := c.begin(ctx, domain.StepProvideSimInformation, true, func() error {
		if key == "" {
			return domain.ErrRegTypeRequired
		}
		for _, rt := range c.state.RegTypes {
			if rt.Key == key {
				selected = rt
				return nil
			}
		}
		return fmt.Errorf("%w: %s", domain.ErrUnknownRegType, key)
	})
	if err != nil {
		return err
	}

	err = c.client.SubmitRegType(cl.ctx, cl.sessionID, selected, c.settings.Locale)
	return c.finish(cl, err, func() {
		rt := selected
		c.state.RegType = &rt
		c.advance()
	})
}

// ContinueFromScanInfo leaves the informational scan screen.
func (c *Controller) ContinueFromScanInfo(ctx context.Context) error {
	cl, err := c.begin(ctx, domain.StepScanInformation, true, func() error {
		if c.state.RegType == nil {
			return domain.ErrRegTypeRequired
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.finish(cl, nil, c.advance)
}
