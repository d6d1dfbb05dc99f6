package wizard

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"simreg/internal/address"
	"simreg/internal/domain"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"02 Jan 2006",
}

// formatDate renders a date as YYYY-MM-DD. Values in an unknown layout are
// returned unchanged.
func formatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Prefill builds the personal-information form from an eKYC summary. Data the
// user already confirmed wins over data extracted from the document; the
// address comes from the first confirmed address only.
func Prefill(s *domain.EkycSummary) domain.PersonalInfo {
	var user, extracted domain.IdentityData
	if s != nil && s.UserData != nil {
		user = *s.UserData
	}
	if s != nil && s.ExtractedData != nil {
		extracted = *s.ExtractedData
	}

	info := domain.PersonalInfo{
		FirstName:  firstNonEmpty(user.FirstName, extracted.FirstName),
		MiddleName: firstNonEmpty(user.MiddleName, extracted.MiddleName),
		LastName:   firstNonEmpty(user.LastName, extracted.LastName),
		Suffix:     user.Suffix,
		Birthday:   formatDate(firstNonEmpty(user.DateOfBirth, extracted.DateOfBirth)),
		Gender:     firstNonEmpty(user.Gender, extracted.Gender),
	}
	if len(user.UserAddress) > 0 {
		a := user.UserAddress[0]
		info.UnitNumber = a.AddressLine1
		info.Street = a.AddressLine2
		info.Village = a.AddressLine3
		info.Address = domain.AddressSelection{
			ProvinceCode: a.StateCode,
			CityCode:     a.CityCode,
			BarangayCode: a.BarangayCode,
			PostalCode:   a.PostalCode,
		}
	}
	return info
}

// AddressNames resolves display names of address codes.
type AddressNames func(level domain.AddressLevel, code string) string

// BuildUserDetails builds the user-details payload. Document fields come from
// the extracted data, falling back to the confirmed data. Codes without a
// known name, such as manually entered ones, are sent as their own name.
func BuildUserDetails(info domain.PersonalInfo, summary *domain.EkycSummary, names AddressNames) domain.UserDetails {
	var doc domain.IdentityData
	switch {
	case summary != nil && summary.ExtractedData != nil:
		doc = *summary.ExtractedData
	case summary != nil && summary.UserData != nil:
		doc = *summary.UserData
	}

	name := func(level domain.AddressLevel, code string) string {
		if code == "" {
			return ""
		}
		if names != nil {
			if n := names(level, code); n != "" {
				return n
			}
		}
		return code
	}

	sel := info.Address
	return domain.UserDetails{
		FirstName:    info.FirstName,
		MiddleName:   info.MiddleName,
		LastName:     info.LastName,
		Suffix:       info.Suffix,
		DateOfBirth:  formatDate(info.Birthday),
		Gender:       info.Gender,
		DocType:      doc.DocumentType,
		DocumentNo:   doc.DocumentNumber,
		Nationality:  doc.Nationality,
		DateOfExpiry: doc.DateOfExpiry,
		UserAddresses: []domain.UserAddress{{
			AddressLine1: info.UnitNumber,
			AddressLine2: info.Street,
			AddressLine3: info.Village,
			Country:      domain.DefaultCountry,
			State:        name(domain.AddressProvince, sel.ProvinceCode),
			StateCode:    sel.ProvinceCode,
			City:         name(domain.AddressCity, sel.CityCode),
			CityCode:     sel.CityCode,
			Barangay:     name(domain.AddressBarangay, sel.BarangayCode),
			BarangayCode: sel.BarangayCode,
			PostalCode:   sel.PostalCode,
		}},
	}
}

// MissingFields lists the required fields of info that are blank.
func MissingFields(info domain.PersonalInfo) []string {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", info.FirstName},
		{"last_name", info.LastName},
		{"birthday", info.Birthday},
		{"gender", info.Gender},
		{"unit_number", info.UnitNumber},
		{"street", info.Street},
		{"province", info.Address.ProvinceCode},
		{"city", info.Address.CityCode},
		{"barangay", info.Address.BarangayCode},
		{"postal_code", info.Address.PostalCode},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// LoadPersonalInformation loads the eKYC summary and the province list
// concurrently, prefills the form and hydrates the address cascade from the
// confirmed address.
func (c *Controller) LoadPersonalInformation(ctx context.Context) error {
	cl, err := c.begin(ctx, domain.StepPersonalInformation, true, nil)
	if err != nil {
		return err
	}

	var (
		summary *domain.EkycSummary
		g       errgroup.Group
	)
	g.Go(func() error {
		var err error
		summary, err = c.client.EkycSummary(cl.ctx, cl.sessionID)
		return err
	})
	g.Go(func() error {
		if err := c.address.ResolveProvinces(cl.ctx); err != nil {
			log.Printf("wizard.Controller: province list unavailable: %v", err)
		}
		return nil
	})
	err = g.Wait()

	var prefill domain.PersonalInfo
	if err == nil {
		prefill = Prefill(summary)
	}
	err = c.finish(cl, err, func() {
		c.state.Summary = summary
		c.state.PersonalInfo = prefill
		c.state.PersonalLoaded = true
	})
	if err != nil {
		return err
	}

	if prefill.Address.ProvinceCode != "" {
		if herr := c.address.Hydrate(ctx, prefill.Address); herr != nil {
			log.Printf("wizard.Controller: address prefill incomplete: %v", herr)
		}
	}
	return nil
}

// UpdatePersonalInfo replaces the editable fields of the form. The address is
// owned by the cascade and changed through the Select methods.
func (c *Controller) UpdatePersonalInfo(info domain.PersonalInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.onStep(domain.StepPersonalInformation); err != nil {
		return err
	}
	info.Address = c.state.PersonalInfo.Address
	c.state.PersonalInfo = info
	c.state.UpdatedAt = c.now()
	return nil
}

// SelectProvince changes the province of the address cascade.
func (c *Controller) SelectProvince(ctx context.Context, code string) error {
	return c.onAddress(func() error { return c.address.SelectProvince(ctx, code) })
}

// SelectCity changes the city of the address cascade.
func (c *Controller) SelectCity(ctx context.Context, code string) error {
	return c.onAddress(func() error { return c.address.SelectCity(ctx, code) })
}

// SelectBarangay changes the barangay and resolves its postal code.
func (c *Controller) SelectBarangay(ctx context.Context, code string) error {
	return c.onAddress(func() error { return c.address.SelectBarangay(ctx, code) })
}

// SetPostalCode enters a postal code manually.
func (c *Controller) SetPostalCode(code string) error {
	return c.onAddress(func() error { return c.address.SetPostalCode(code) })
}

// DismissAddressBanner hides a non-fatal address banner.
func (c *Controller) DismissAddressBanner() bool {
	return c.address.DismissBanner()
}

// Address returns a snapshot of the address cascade.
func (c *Controller) Address() address.Snapshot {
	return c.address.Snapshot()
}

func (c *Controller) onAddress(fn func() error) error {
	c.mu.Lock()
	err := c.onStep(domain.StepPersonalInformation)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return fn()
}

// onStep must be called with c.mu held.
func (c *Controller) onStep(step domain.Step) error {
	if c.closed {
		return domain.ErrWizardNotFound
	}
	if c.state.CurrentStep != step {
		return fmt.Errorf("%w: wizard is on %s", domain.ErrWrongStep, c.state.CurrentStep)
	}
	return nil
}

// SubmitPersonalInformation submits the form. It is blocked while an address
// lookup is in flight or a fatal address error is active, but not by a
// non-fatal one.
func (c *Controller) SubmitPersonalInformation(ctx context.Context) error {
	var details domain.UserDetails
	cl, err := c.begin(ctx, domain.StepPersonalInformation, true, func() error {
		snap := c.address.Snapshot()
		if snap.Busy {
			return domain.ErrAddressBusy
		}
		if !snap.CanSubmit {
			return domain.ErrAddressUnavailable
		}
		info := c.state.PersonalInfo
		info.Address = snap.Selection
		if missing := MissingFields(info); len(missing) > 0 {
			return &domain.ValidationError{Fields: missing}
		}
		c.state.PersonalInfo.Address = snap.Selection
		details = BuildUserDetails(info, c.state.Summary, c.address.NameOf)
		return nil
	})
	if err != nil {
		return err
	}

	err = c.client.SubmitUserDetails(cl.ctx, cl.sessionID, details)
	return c.finish(cl, err, c.advance)
}
