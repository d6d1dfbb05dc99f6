package wizard_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"simreg/internal/capture"
	"simreg/internal/domain"
	"simreg/internal/ekyc"
	"simreg/internal/session"
	"simreg/internal/wizard"
	"simreg/mocks"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

type fixture struct {
	c        *wizard.Controller
	client   *mocks.MockEkycClient
	waiter   *mocks.MockProcessingWaiter
	store    *session.Store
	previews *capture.MemoryPreviewStore
	clock    *fakeClock
}

const (
	testNumber = "9171234567"
	testMSISDN = "639171234567"
)

func newFixture(t *testing.T, opts ...func(*wizard.Settings)) *fixture {
	t.Helper()
	id := uuid.New()
	f := &fixture{
		client:   new(mocks.MockEkycClient),
		waiter:   new(mocks.MockProcessingWaiter),
		store:    session.NewStore(session.NewMemorySlot(), "simreg:session:"+id.String(), nil, time.Hour),
		previews: capture.NewMemoryPreviewStore(),
		clock:    &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	settings := wizard.Settings{ResendCooldown: 59 * time.Second, OTPExpiry: time.Hour}
	for _, o := range opts {
		o(&settings)
	}
	f.c = wizard.New(id, wizard.Deps{
		Client:   f.client,
		Session:  f.store,
		Previews: f.previews,
		Waiter:   f.waiter,
		Now:      f.clock.Now,
	}, settings)
	t.Cleanup(func() { _ = f.c.Close(context.Background()) })
	return f
}

// on positions the wizard on step with an active session and the state the
// earlier steps would have left behind.
func (f *fixture) on(t *testing.T, step domain.Step, mutate ...func(*domain.WizardState)) {
	t.Helper()
	require.NoError(t, f.store.Set(context.Background(), "S1"))
	f.c.JumpTo(step, func(s *domain.WizardState) {
		s.MobileNumber = testNumber
		s.ValidationSucceeded = true
		s.TermsAgreed = true
		if step > domain.StepOTPVerification {
			s.OTPVerified = true
		}
		if step > domain.StepProvideSimInformation {
			s.RegType = &domain.RegistrationType{Key: "NEW", Value: "New registration"}
		}
		if step > domain.StepScanID {
			s.DocumentUploaded = true
			s.SelfieUploaded = true
		}
		for _, m := range mutate {
			m(s)
		}
	})
	require.Equal(t, step, f.c.CurrentStep())
}

func (f *fixture) view(t *testing.T) wizard.View {
	t.Helper()
	v, err := f.c.View(context.Background())
	require.NoError(t, err)
	return v
}

func serverError(op string) error {
	return &ekyc.APIError{Op: op, Status: 500, Message: "Server error. Please try again later."}
}

// payload returns an encoded image long enough to pass normalization.
func payload(seed string) string {
	return strings.Repeat(seed, 120)
}
