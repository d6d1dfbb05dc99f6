package cli

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"simreg/internal/capture"
	"simreg/internal/domain"
	"simreg/internal/service"
)

// Runner drives one wizard from the mobile number to the reference number.
type Runner struct {
	Wizard  service.Wizard
	Profile *Profile
	In      io.Reader
	Out     io.Writer
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.Out, format, args...)
}

// Run executes every step in order and returns the reference number.
func (r *Runner) Run(ctx context.Context) (string, error) {
	in := bufio.NewReader(r.In)
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"mobile verification", r.mobile},
		{"otp verification", func(ctx context.Context) error { return r.otp(ctx, in) }},
		{"registration reminders", func(ctx context.Context) error { return r.Wizard.AcceptReminders(ctx, true) }},
		{"sim information", r.regType},
		{"scan information", r.Wizard.ContinueFromScanInfo},
		{"scan id", r.scan},
		{"personal information", r.personal},
		{"supporting documents", r.supportingDocuments},
		{"review", func(ctx context.Context) error { return r.Wizard.ConfirmReview(ctx, true) }},
		{"processing", r.Wizard.AwaitProcessing},
	}

	for _, s := range steps {
		r.printf("==> %s\n", s.name)
		if err := s.fn(ctx); err != nil {
			return "", fmt.Errorf("%s: %w", s.name, r.explain(ctx, err))
		}
	}

	v, err := r.Wizard.View(ctx)
	if err != nil {
		return "", err
	}
	r.printf("Registration complete. Reference number: %s\n", v.Finalize.ReferenceNumber)
	return v.Finalize.ReferenceNumber, nil
}

// explain attaches the message the wizard shows for a failed step.
func (r *Runner) explain(ctx context.Context, err error) error {
	v, verr := r.Wizard.View(ctx)
	if verr != nil || v.Error == nil {
		return err
	}
	return fmt.Errorf("%s: %w", v.Error.Message, err)
}

func (r *Runner) mobile(ctx context.Context) error {
	if err := r.Wizard.SetMobileNumber(ctx, r.Profile.Mobile); err != nil {
		return err
	}
	if err := r.Wizard.SetAgreement(true); err != nil {
		return err
	}
	return r.Wizard.RequestCode(ctx)
}

func (r *Runner) otp(ctx context.Context, in *bufio.Reader) error {
	for {
		r.printf("Enter the 6-digit code sent to %s (or \"resend\"): ", r.Profile.Mobile)
		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return fmt.Errorf("reading code: %w", err)
		}
		line = strings.TrimSpace(line)

		if line == "resend" {
			if err := r.Wizard.ResendOTP(ctx); err != nil {
				r.printf("Resend failed: %v\n", err)
			}
			continue
		}
		if err := r.Wizard.PasteOTP(line); err != nil {
			return err
		}
		err = r.Wizard.VerifyOTP(ctx)
		if errors.Is(err, domain.ErrOTPIncomplete) {
			r.printf("The code must have 6 digits.\n")
			continue
		}
		return err
	}
}

func (r *Runner) regType(ctx context.Context) error {
	types, err := r.Wizard.ReloadRegTypes(ctx)
	if err != nil {
		return err
	}
	key := r.Profile.RegType
	if key == "" {
		if len(types) == 0 {
			return domain.ErrRegTypeRequired
		}
		key = types[0].Key
	}
	for _, t := range types {
		if strings.EqualFold(t.Key, key) || strings.EqualFold(t.Value, key) {
			key = t.Key
			break
		}
	}
	r.printf("Registration type: %s\n", key)
	return r.Wizard.SubmitRegType(ctx, key)
}

func (r *Runner) scan(ctx context.Context) error {
	src := &capture.FileCapturer{
		DocumentPath: r.Profile.Captures.Document,
		NeutralPath:  r.Profile.Captures.Neutral,
		SmilePath:    r.Profile.Captures.Smile,
	}
	if err := r.Wizard.CaptureDocument(ctx, src); err != nil {
		return err
	}
	if err := r.Wizard.CaptureSelfie(ctx, src); err != nil {
		return err
	}
	return r.Wizard.ContinueFromScanID(ctx)
}

func (r *Runner) personal(ctx context.Context) error {
	if err := r.Wizard.LoadPersonalInformation(ctx); err != nil {
		return err
	}
	v, err := r.Wizard.View(ctx)
	if err != nil {
		return err
	}

	info := v.Personal.Info
	p := r.Profile.Personal
	override(&info.FirstName, p.FirstName)
	override(&info.MiddleName, p.MiddleName)
	override(&info.LastName, p.LastName)
	override(&info.Suffix, p.Suffix)
	override(&info.Birthday, p.Birthday)
	override(&info.Gender, p.Gender)
	override(&info.UnitNumber, p.UnitNumber)
	override(&info.Street, p.Street)
	override(&info.Village, p.Village)
	if err := r.Wizard.UpdatePersonalInfo(info); err != nil {
		return err
	}

	if err := r.address(ctx, v.Personal.Address.Provinces); err != nil {
		return err
	}
	return r.Wizard.SubmitPersonalInformation(ctx)
}

func (r *Runner) address(ctx context.Context, provinces []domain.AddressOption) error {
	want := r.Profile.Address
	if want.Province == "" {
		return nil
	}
	if err := r.Wizard.SelectProvince(ctx, matchOption(provinces, want.Province)); err != nil {
		return err
	}
	if want.City == "" {
		return nil
	}
	v, err := r.Wizard.View(ctx)
	if err != nil {
		return err
	}
	if err := r.Wizard.SelectCity(ctx, matchOption(v.Personal.Address.Cities, want.City)); err != nil {
		return err
	}
	if want.Barangay == "" {
		return nil
	}
	if v, err = r.Wizard.View(ctx); err != nil {
		return err
	}
	if err := r.Wizard.SelectBarangay(ctx, matchOption(v.Personal.Address.Barangays, want.Barangay)); err != nil {
		return err
	}
	if v, err = r.Wizard.View(ctx); err != nil {
		return err
	}
	if !v.Personal.Address.PostalResolved && want.PostalCode != "" {
		return r.Wizard.SetPostalCode(want.PostalCode)
	}
	return nil
}

func (r *Runner) supportingDocuments(ctx context.Context) error {
	docs := make([]domain.AdditionalDocument, 0, len(r.Profile.SupportingDocuments))
	for _, d := range r.Profile.SupportingDocuments {
		data, err := os.ReadFile(d.Path)
		if err != nil {
			return fmt.Errorf("reading supporting document: %w", err)
		}
		docs = append(docs, domain.AdditionalDocument{
			DocumentType:  d.Type,
			DocumentImage: base64.StdEncoding.EncodeToString(data),
			DocumentName:  filepath.Base(d.Path),
		})
	}
	return r.Wizard.SubmitSupportingDocuments(ctx, docs)
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// matchOption returns the code of the option whose code or name equals want.
// Unmatched values are passed through as codes.
func matchOption(opts []domain.AddressOption, want string) string {
	for _, o := range opts {
		if o.Code == want || strings.EqualFold(o.Name, want) {
			return o.Code
		}
	}
	return want
}
