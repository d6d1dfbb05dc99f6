package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"simreg/internal/config"
	"simreg/internal/domain"
	"simreg/internal/metrics"
	"simreg/internal/port"
	"simreg/internal/secure"
	"simreg/internal/session"
	"simreg/internal/wizard"
)

const wizardAudience = "wizard"

// WizardClaims are the claims of a wizard bearer token.
type WizardClaims struct {
	jwt.RegisteredClaims
	WizardID uuid.UUID `json:"wizard_id"`
}

// WizardToken is returned when a wizard is created.
type WizardToken struct {
	WizardID  uuid.UUID `json:"wizard_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Wizard is the surface of one registration wizard exposed to transports.
type Wizard interface {
	ID() uuid.UUID
	CurrentStep() domain.Step
	UpdatedAt() time.Time
	View(ctx context.Context) (wizard.View, error)

	Retreat() domain.Step
	Restart(ctx context.Context) error
	CancelInFlight() int
	DismissError(ctx context.Context) error
	Close(ctx context.Context) error

	SetMobileNumber(ctx context.Context, raw string) error
	SetAgreement(agreed bool) error
	RequestCode(ctx context.Context) error

	SetOTPDigit(index int, value string) error
	PasteOTP(s string) error
	VerifyOTP(ctx context.Context) error
	ResendOTP(ctx context.Context) error

	AcceptReminders(ctx context.Context, agreed bool) error
	ReloadRegTypes(ctx context.Context) ([]domain.RegistrationType, error)
	SubmitRegType(ctx context.Context, key string) error
	ContinueFromScanInfo(ctx context.Context) error

	CaptureDocument(ctx context.Context, src port.Capturer) error
	RetryDocument(ctx context.Context) error
	CaptureSelfie(ctx context.Context, src port.Capturer) error
	RetrySelfie(ctx context.Context) error
	ContinueFromScanID(ctx context.Context) error

	LoadPersonalInformation(ctx context.Context) error
	UpdatePersonalInfo(info domain.PersonalInfo) error
	SelectProvince(ctx context.Context, code string) error
	SelectCity(ctx context.Context, code string) error
	SelectBarangay(ctx context.Context, code string) error
	SetPostalCode(code string) error
	DismissAddressBanner() bool
	SubmitPersonalInformation(ctx context.Context) error

	SubmitSupportingDocuments(ctx context.Context, docs []domain.AdditionalDocument) error
	ConfirmReview(ctx context.Context, agreed bool) error
	AwaitProcessing(ctx context.Context) error
}

// WizardService hosts the live wizards of the BFF.
type WizardService interface {
	Create(ctx context.Context) (*WizardToken, error)
	Get(ctx context.Context, id uuid.UUID) (Wizard, error)
	Discard(ctx context.Context, id uuid.UUID) error
	ValidateToken(tokenString string) (*WizardClaims, error)
	Funnel() []domain.FunnelRow
	Sweep(ctx context.Context) int
	Active() int
}

// WizardDeps are the shared collaborators handed to every wizard.
type WizardDeps struct {
	Client   port.EkycClient
	Slot     port.SessionSlot
	Sealer   *secure.Sealer
	Previews port.PreviewStore
	Waiter   port.ProcessingWaiter
	Metrics  *metrics.Metrics
}

// expiredPurger is implemented by slots that keep expired rows until purged.
type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type wizardService struct {
	deps       WizardDeps
	settings   wizard.Settings
	jwtCfg     config.JWTConfig
	sessionCfg config.SessionConfig
	idle       time.Duration
	now        func() time.Time

	mu      sync.RWMutex
	wizards map[uuid.UUID]*wizard.Controller
}

// NewWizardService creates a new WizardService implementation.
func NewWizardService(deps WizardDeps, cfg *config.Config) WizardService {
	return &wizardService{
		deps:       deps,
		settings:   wizard.SettingsFromConfig(cfg),
		jwtCfg:     cfg.JWT,
		sessionCfg: cfg.Session,
		idle:       cfg.Wizard.IdleTimeout,
		now:        time.Now,
		wizards:    make(map[uuid.UUID]*wizard.Controller),
	}
}

func (s *wizardService) Create(ctx context.Context) (*WizardToken, error) {
	id := uuid.New()
	c := wizard.New(id, s.wizardDeps(id), s.settings)

	token, expiresAt, err := s.signToken(id)
	if err != nil {
		return nil, fmt.Errorf("wizard.Create: %w", err)
	}
	if err := c.Persist(ctx); err != nil {
		log.Printf("wizardService.Create: wizard %s will not survive a restart: %v", id, err)
	}

	s.mu.Lock()
	s.wizards[id] = c
	n := len(s.wizards)
	s.mu.Unlock()
	s.setActive(n)

	log.Printf("wizardService.Create: wizard %s started", id)
	return &WizardToken{WizardID: id, Token: token, ExpiresAt: expiresAt}, nil
}

// wizardDeps binds the shared collaborators to the slot keys of one wizard.
func (s *wizardService) wizardDeps(id uuid.UUID) wizard.Deps {
	deps := wizard.Deps{
		Client:   s.deps.Client,
		Session:  session.NewStore(s.deps.Slot, s.sessionCfg.KeyPrefix+id.String(), s.deps.Sealer, s.sessionCfg.TTL),
		Previews: s.deps.Previews,
		Waiter:   s.deps.Waiter,
		Metrics:  s.deps.Metrics,
	}
	if s.sessionCfg.CheckpointPrefix != "" {
		deps.Checkpoints = session.NewCheckpointStore(s.deps.Slot, s.sessionCfg.CheckpointPrefix+id.String(), s.deps.Sealer, s.sessionCfg.TTL)
	}
	return deps
}

// Get returns a live wizard. A wizard unknown to this process is restored
// from its checkpoint, so tokens stay usable across restarts.
func (s *wizardService) Get(ctx context.Context, id uuid.UUID) (Wizard, error) {
	s.mu.RLock()
	c, ok := s.wizards[id]
	s.mu.RUnlock()
	if ok {
		return c, nil
	}
	return s.restore(ctx, id)
}

func (s *wizardService) restore(ctx context.Context, id uuid.UUID) (Wizard, error) {
	deps := s.wizardDeps(id)
	if deps.Checkpoints == nil {
		return nil, domain.ErrWizardNotFound
	}
	cp, err := deps.Checkpoints.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrWizardNotFound
		}
		return nil, fmt.Errorf("wizard.Get: %w", err)
	}
	if cp.ID != id {
		log.Printf("wizardService.Get: checkpoint for %s names wizard %s", id, cp.ID)
		return nil, domain.ErrWizardNotFound
	}
	restored := wizard.Restore(cp, deps, s.settings)

	s.mu.Lock()
	if c, ok := s.wizards[id]; ok {
		s.mu.Unlock()
		restored.Abandon()
		return c, nil
	}
	s.wizards[id] = restored
	n := len(s.wizards)
	s.mu.Unlock()
	s.setActive(n)

	log.Printf("wizardService.Get: wizard %s restored on %s", id, restored.CurrentStep())
	return restored, nil
}

func (s *wizardService) Discard(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	c, ok := s.wizards[id]
	delete(s.wizards, id)
	n := len(s.wizards)
	s.mu.Unlock()
	if !ok {
		return domain.ErrWizardNotFound
	}
	s.setActive(n)

	if err := c.Close(ctx); err != nil {
		return fmt.Errorf("wizard.Discard: %w", err)
	}
	return nil
}

func (s *wizardService) ValidateToken(tokenString string) (*WizardClaims, error) {
	claims := &WizardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	},
		jwt.WithAudience(wizardAudience),
		jwt.WithIssuer(s.jwtCfg.Issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid || claims.WizardID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func (s *wizardService) signToken(id uuid.UUID) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.jwtCfg.TokenExpiry)
	claims := &WizardClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			Issuer:    s.jwtCfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{wizardAudience},
		},
		WizardID: id,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing wizard token: %w", err)
	}
	return signed, expiresAt, nil
}

// Funnel counts the live wizards on every step.
func (s *wizardService) Funnel() []domain.FunnelRow {
	counts := make(map[domain.Step]int)
	s.mu.RLock()
	for _, c := range s.wizards {
		counts[c.CurrentStep()]++
	}
	s.mu.RUnlock()

	rows := make([]domain.FunnelRow, 0, domain.TotalSteps)
	for step := domain.StepMobileVerification; step <= domain.StepComplete; step++ {
		rows = append(rows, domain.FunnelRow{Step: step, Screen: domain.ScreenFor(step), Wizards: counts[step]})
	}
	return rows
}

// Sweep closes wizards idle for longer than the idle timeout and purges
// expired session slots. It returns the number of wizards closed.
func (s *wizardService) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.idle)

	var stale []*wizard.Controller
	s.mu.Lock()
	for id, c := range s.wizards {
		if s.idle > 0 && c.UpdatedAt().Before(cutoff) {
			stale = append(stale, c)
			delete(s.wizards, id)
		}
	}
	n := len(s.wizards)
	s.mu.Unlock()
	s.setActive(n)

	for _, c := range stale {
		if err := c.Close(ctx); err != nil {
			log.Printf("wizardService.Sweep: closing wizard %s: %v", c.ID(), err)
		}
	}
	if len(stale) > 0 {
		log.Printf("wizardService.Sweep: closed %d idle wizards", len(stale))
	}

	if p, ok := s.deps.Slot.(expiredPurger); ok {
		purged, err := p.PurgeExpired(ctx)
		if err != nil {
			log.Printf("wizardService.Sweep: purging expired sessions: %v", err)
		} else if purged > 0 {
			log.Printf("wizardService.Sweep: purged %d expired sessions", purged)
		}
	}
	return len(stale)
}

func (s *wizardService) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wizards)
}

func (s *wizardService) setActive(n int) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.ActiveWizards.Set(float64(n))
	}
}
