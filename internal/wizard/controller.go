package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"simreg/internal/address"
	"simreg/internal/capture"
	"simreg/internal/config"
	"simreg/internal/domain"
	"simreg/internal/metrics"
	"simreg/internal/port"
)

const (
	NoSessionMessage      = "No active session found. Please restart the registration process."
	SessionExpiredMessage = "Your session has expired. Please restart the registration process."
	fallbackMessage       = "Something went wrong. Please try again."
)

// Deps are the collaborators of a Controller.
type Deps struct {
	Client   port.EkycClient
	Session  port.SessionStore
	Previews port.PreviewStore
	Waiter   port.ProcessingWaiter
	Metrics  *metrics.Metrics
	// Checkpoints persists progress across restarts. Optional.
	Checkpoints port.CheckpointStore
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Settings hold the request defaults, timers and thresholds of a wizard.
type Settings struct {
	ChannelID            string
	SimType              string
	Locale               string
	ResendCooldown       time.Duration
	OTPExpiry            time.Duration
	AddressFailThreshold int
}

// SettingsFromConfig builds Settings from application configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ChannelID:            cfg.Ekyc.ChannelID,
		SimType:              cfg.Ekyc.SimType,
		Locale:               cfg.Ekyc.Locale,
		ResendCooldown:       cfg.Wizard.ResendCooldown,
		OTPExpiry:            cfg.Wizard.OTPExpiry,
		AddressFailThreshold: cfg.Wizard.AddressFailThreshold,
	}
}

func (s Settings) withDefaults() Settings {
	if s.ChannelID == "" {
		s.ChannelID = domain.DefaultChannelID
	}
	if s.SimType == "" {
		s.SimType = domain.DefaultSimType
	}
	if s.Locale == "" {
		s.Locale = domain.DefaultLocale
	}
	if s.ResendCooldown <= 0 {
		s.ResendCooldown = 59 * time.Second
	}
	if s.OTPExpiry <= 0 {
		s.OTPExpiry = 300 * time.Second
	}
	if s.AddressFailThreshold <= 0 {
		s.AddressFailThreshold = address.DefaultFailThreshold
	}
	return s
}

// Controller is the step-flow state machine of one registration wizard. It
// owns the wizard state, gates every transition on the success of the step's
// remote call and holds the collaborators each step needs.
//
// Remote calls run without the lock held. A call records the step and the
// navigation epoch it started in; if either has changed when it returns, its
// result is discarded.
type Controller struct {
	mu sync.Mutex

	client   port.EkycClient
	session  port.SessionStore
	waiter   port.ProcessingWaiter
	previews *capture.PreviewSet
	address  *address.Resolver
	metrics  *metrics.Metrics
	settings Settings
	now      func() time.Time

	state   domain.WizardState
	busy    map[domain.Step]bool
	cancels map[domain.Step]context.CancelFunc
	epoch   uint64

	validating bool
	validation uint64

	timerGen    uint64
	resendAt    time.Time
	expiresAt   time.Time
	expiryTimer *time.Timer
	closed      bool

	checkpoints port.CheckpointStore
	seq         uint64
	dirty       bool
	// ckMu orders checkpoint writes; savedSeq is the last one written.
	ckMu     sync.Mutex
	savedSeq uint64
}

// New creates a controller positioned on the mobile verification step.
func New(id uuid.UUID, deps Deps, settings Settings) *Controller {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	c := &Controller{
		client:   deps.Client,
		session:  deps.Session,
		waiter:   deps.Waiter,
		previews: capture.NewPreviewSet(deps.Previews, id.String()),
		metrics:  deps.Metrics,
		settings: settings.withDefaults(),

		checkpoints: deps.Checkpoints,
		now:      now,
		busy:     make(map[domain.Step]bool),
		cancels:  make(map[domain.Step]context.CancelFunc),
	}
	c.address = address.NewResolver(address.NewEkycSource(deps.Client, deps.Session), c.settings.AddressFailThreshold, deps.Metrics)
	c.state = c.freshState(id)
	return c
}

func (c *Controller) freshState(id uuid.UUID) domain.WizardState {
	t := c.now()
	return domain.WizardState{
		ID:          id,
		CurrentStep: domain.StepMobileVerification,
		Pending:     make(map[domain.CaptureKind]*domain.CaptureResult),
		StartedAt:   t,
		UpdatedAt:   t,
	}
}

// ID returns the wizard id.
func (c *Controller) ID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.ID
}

// CurrentStep returns the step being shown.
func (c *Controller) CurrentStep() domain.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CurrentStep
}

// UpdatedAt returns the time of the last state change.
func (c *Controller) UpdatedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.UpdatedAt
}

// RenderFor returns the screen responsible for a step.
func RenderFor(step domain.Step) domain.Screen {
	return domain.ScreenFor(step)
}

// Retreat moves back one step. It never repeats the remote calls of the step
// being left and is a no-op on the first step.
func (c *Controller) Retreat() domain.Step {
	c.mu.Lock()
	if c.state.CurrentStep <= domain.StepMobileVerification {
		defer c.mu.Unlock()
		return c.state.CurrentStep
	}
	c.setStep(c.state.CurrentStep - 1)
	step := c.state.CurrentStep
	c.mu.Unlock()

	c.flush(context.Background())
	return step
}

// advance moves forward one step. Must be called with c.mu held, and only
// after the current step's submission succeeded.
func (c *Controller) advance() {
	if c.state.CurrentStep >= domain.StepComplete {
		log.Printf("wizard.Controller: wizard %s completed, reference %q", c.state.ID, c.state.ReferenceNumber)
		return
	}
	c.setStep(c.state.CurrentStep + 1)
}

// setStep must be called with c.mu held.
func (c *Controller) setStep(next domain.Step) {
	prev := c.state.CurrentStep
	if prev == next {
		return
	}

	if prev == domain.StepOTPVerification {
		c.stopTimers()
	}
	if prev == domain.StepScanID {
		c.releaseUnretainedPreviews()
	}

	c.state.CurrentStep = next
	c.state.HasError = false
	c.state.Error = nil
	c.state.UpdatedAt = c.now()
	c.epoch++
	c.markDirty()

	if next == domain.StepOTPVerification {
		c.armOTPTimers()
	}
	c.metrics.StepChanged(prev.String(), next.String())
}

func (c *Controller) releaseUnretainedPreviews() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, kind := range []domain.CaptureKind{domain.CaptureKindDocument, domain.CaptureKindNeutralFace, domain.CaptureKindSmileFace} {
		if _, retained := c.state.Pending[kind]; !retained {
			c.previews.Release(ctx, kind)
		}
	}
}

// call is one in-flight step submission.
type call struct {
	ctx       context.Context
	cancel    context.CancelFunc
	step      domain.Step
	epoch     uint64
	sessionID string
}

// begin starts a submission for step. It checks the step is current, that no
// other submission of the step is in flight and runs check with the lock held.
// When needSession is set the session id is loaded with the lock released,
// after which the step and epoch are checked again. No network call is made
// when any precondition fails.
func (c *Controller) begin(ctx context.Context, step domain.Step, needSession bool, check func() error) (*call, error) {
	c.mu.Lock()
	if err := c.admit(step, check); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.busy[step] = true
	epoch := c.epoch
	c.mu.Unlock()

	var sid string
	var serr error
	if needSession {
		sid, serr = c.session.Get(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.epoch != epoch || c.state.CurrentStep != step {
		delete(c.busy, step)
		if c.closed {
			return nil, domain.ErrWizardNotFound
		}
		return nil, domain.ErrStaleResult
	}
	if serr != nil {
		delete(c.busy, step)
		return nil, fmt.Errorf("reading session: %w", serr)
	}
	if needSession && sid == "" {
		delete(c.busy, step)
		c.state.HasError = true
		c.state.Error = &domain.StepError{Step: step, Message: NoSessionMessage}
		return nil, domain.ErrNoActiveSession
	}

	cctx, cancel := context.WithCancel(ctx)
	c.cancels[step] = cancel
	return &call{ctx: cctx, cancel: cancel, step: step, epoch: epoch, sessionID: sid}, nil
}

// admit runs the local preconditions of a submission. Must be called with
// c.mu held.
func (c *Controller) admit(step domain.Step, check func() error) error {
	if c.closed {
		return domain.ErrWizardNotFound
	}
	if c.state.CurrentStep != step {
		return fmt.Errorf("%w: wizard is on %s", domain.ErrWrongStep, c.state.CurrentStep)
	}
	if c.busy[step] {
		return domain.ErrSubmissionInFlight
	}
	if check != nil {
		return check()
	}
	return nil
}

// finish completes a submission. A result that arrives after the wizard
// navigated away is discarded. On success onSuccess runs with the lock held
// and the checkpoint is saved once the lock is released; on failure the error
// is surfaced on the step and the step stays unchanged.
func (c *Controller) finish(cl *call, err error, onSuccess func()) error {
	err = c.settle(cl, err, onSuccess)
	if err == nil {
		c.flush(context.WithoutCancel(cl.ctx))
	}
	return err
}

func (c *Controller) settle(cl *call, err error, onSuccess func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl.cancel()
	delete(c.cancels, cl.step)
	delete(c.busy, cl.step)

	if c.epoch != cl.epoch || c.state.CurrentStep != cl.step {
		log.Printf("wizard.Controller: discarding %s result after navigation", cl.step)
		return domain.ErrStaleResult
	}
	if err != nil {
		return c.fail(cl.step, err)
	}

	c.state.HasError = false
	c.state.Error = nil
	c.state.UpdatedAt = c.now()
	if onSuccess != nil {
		onSuccess()
	}
	c.markDirty()
	return nil
}

// fail records err against step. Must be called with c.mu held.
func (c *Controller) fail(step domain.Step, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", domain.ErrCanceled, err)
	}

	if domain.StatusOf(err) == http.StatusUnauthorized {
		if cerr := c.session.Clear(context.Background()); cerr != nil {
			log.Printf("wizard.Controller: failed to clear expired session: %v", cerr)
		}
		c.state.HasError = true
		c.state.Error = &domain.StepError{Step: step, Message: SessionExpiredMessage}
		return fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
	}

	c.state.HasError = true
	c.state.Error = &domain.StepError{Step: step, Message: domain.MessageOf(err, messageFor(err))}
	log.Printf("wizard.Controller: %s failed: %v", step, err)
	return err
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrCaptureFailed), errors.Is(err, domain.ErrCaptureIncomplete), errors.Is(err, domain.ErrInvalidImage):
		return "We couldn't read the captured image. Please try again."
	case errors.Is(err, domain.ErrProcessingFailed):
		return "Your registration could not be completed. Please try again."
	case errors.Is(err, domain.ErrProcessingTimeout):
		return "Your registration is taking longer than expected. Please try again."
	case errors.Is(err, domain.ErrMissingSessionID):
		return "We couldn't start a session for this number. Please try again."
	default:
		return fallbackMessage
	}
}

// CancelInFlight cancels every submission in flight. Their results are
// reported as canceled and leave the step unchanged.
func (c *Controller) CancelInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.cancels)
	for _, cancel := range c.cancels {
		cancel()
	}
	return n
}

// DismissError hides the current error. On the mobile step it also resets the
// validation and drops the session, so the number has to be validated again.
func (c *Controller) DismissError(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.HasError = false
	c.state.Error = nil
	if c.state.CurrentStep != domain.StepMobileVerification {
		return nil
	}
	c.state.ValidationSucceeded = false
	c.state.TermsAgreed = false
	c.validation++
	if err := c.session.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Restart drops the session, timers, previews and all collected data and
// returns to the first step.
func (c *Controller) Restart(ctx context.Context) error {
	if err := c.restart(ctx); err != nil {
		return err
	}
	c.flush(ctx)
	return nil
}

func (c *Controller) restart(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cancel := range c.cancels {
		cancel()
	}
	c.stopTimers()
	c.previews.ReleaseAll(ctx)
	c.address.Reset()

	prev := c.state.CurrentStep
	c.state = c.freshState(c.state.ID)
	c.epoch++
	c.validation++
	c.validating = false
	c.markDirty()
	if prev != domain.StepMobileVerification {
		c.metrics.StepChanged(prev.String(), domain.StepMobileVerification.String())
	}

	if err := c.session.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Close tears the wizard down: in-flight calls are canceled, timers stopped,
// previews released and the session dropped.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	for _, cancel := range c.cancels {
		cancel()
	}
	c.stopTimers()
	c.previews.ReleaseAll(ctx)
	c.epoch++
	c.forget(ctx)
	return c.session.Clear(ctx)
}

// SessionID returns the eKYC session id held for this wizard, or "".
func (c *Controller) SessionID(ctx context.Context) (string, error) {
	return c.session.Get(ctx)
}

// markDirty records a state change worth persisting. Must be called with c.mu
// held.
func (c *Controller) markDirty() {
	c.seq++
	c.dirty = true
}

// checkpoint must be called with c.mu held.
func (c *Controller) checkpoint() *domain.Checkpoint {
	s := c.state
	return &domain.Checkpoint{
		Seq:                 c.seq,
		ID:                  s.ID,
		Step:                s.CurrentStep,
		StartedAt:           s.StartedAt,
		SavedAt:             c.now(),
		MobileNumber:        s.MobileNumber,
		ValidationSucceeded: s.ValidationSucceeded,
		TermsAgreed:         s.TermsAgreed,
		OTPVerified:         s.OTPVerified,
		Registrations:       s.Registrations,
		RemindersAccepted:   s.RemindersAccepted,
		RegTypes:            s.RegTypes,
		RegType:             s.RegType,
		DocumentUploaded:    s.DocumentUploaded,
		SelfieUploaded:      s.SelfieUploaded,
		PersonalInfo:        s.PersonalInfo,
		ReviewConfirmed:     s.ReviewConfirmed,
		ReferenceNumber:     s.ReferenceNumber,
	}
}

// flush saves the checkpoint when the state changed since the last save.
func (c *Controller) flush(ctx context.Context) {
	if c.checkpoints == nil {
		return
	}
	c.mu.Lock()
	if !c.dirty || c.closed {
		c.mu.Unlock()
		return
	}
	cp := c.checkpoint()
	c.dirty = false
	c.mu.Unlock()

	if err := c.save(ctx, cp); err != nil {
		log.Printf("wizard.Controller: checkpoint of wizard %s not saved: %v", cp.ID, err)
	}
}

// save writes cp unless a newer checkpoint was already written.
func (c *Controller) save(ctx context.Context, cp *domain.Checkpoint) error {
	c.ckMu.Lock()
	defer c.ckMu.Unlock()
	if cp.Seq <= c.savedSeq {
		return nil
	}
	if err := c.checkpoints.Save(ctx, cp); err != nil {
		return err
	}
	c.savedSeq = cp.Seq
	return nil
}

// forget drops the saved checkpoint and blocks later writes. Must be called
// with c.mu held.
func (c *Controller) forget(ctx context.Context) {
	if c.checkpoints == nil {
		return
	}
	c.ckMu.Lock()
	defer c.ckMu.Unlock()
	c.savedSeq = math.MaxUint64
	if err := c.checkpoints.Clear(ctx); err != nil {
		log.Printf("wizard.Controller: checkpoint of wizard %s not cleared: %v", c.state.ID, err)
	}
}

// Persist saves the current state as the wizard's checkpoint.
func (c *Controller) Persist(ctx context.Context) error {
	if c.checkpoints == nil {
		return nil
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrWizardNotFound
	}
	c.seq++
	c.dirty = false
	cp := c.checkpoint()
	c.mu.Unlock()
	return c.save(ctx, cp)
}

// Restore rebuilds a wizard from its checkpoint. Captures, OTP digits and
// previews are not persisted: a wizard restored on the OTP step gets fresh
// countdowns, and one restored on the personal-information step reloads its
// prefill and address lists.
func Restore(cp *domain.Checkpoint, deps Deps, settings Settings) *Controller {
	c := New(cp.ID, deps, settings)
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &c.state
	s.CurrentStep = cp.Step
	if !s.CurrentStep.Valid() {
		s.CurrentStep = domain.StepMobileVerification
	}
	if !cp.StartedAt.IsZero() {
		s.StartedAt = cp.StartedAt
	}
	s.MobileNumber = cp.MobileNumber
	s.ValidationSucceeded = cp.ValidationSucceeded
	s.TermsAgreed = cp.TermsAgreed
	s.OTPVerified = cp.OTPVerified
	s.Registrations = cp.Registrations
	s.RemindersAccepted = cp.RemindersAccepted
	s.RegTypes = cp.RegTypes
	s.RegType = cp.RegType
	s.DocumentUploaded = cp.DocumentUploaded
	s.SelfieUploaded = cp.SelfieUploaded
	s.PersonalInfo = cp.PersonalInfo
	s.PersonalLoaded = s.CurrentStep > domain.StepPersonalInformation
	s.ReviewConfirmed = cp.ReviewConfirmed
	s.ReferenceNumber = cp.ReferenceNumber

	c.seq = cp.Seq
	c.savedSeq = cp.Seq
	if s.CurrentStep == domain.StepOTPVerification {
		c.armOTPTimers()
	}
	return c
}

// Abandon stops a controller that never went live without touching its
// session or checkpoint.
func (c *Controller) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopTimers()
}
