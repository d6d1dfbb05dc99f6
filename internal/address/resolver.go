package address

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"simreg/internal/domain"
	"simreg/internal/metrics"
)

const (
	// UnavailableMessage is shown once lookups keep failing server-side.
	UnavailableMessage = "Address service is temporarily unavailable. You can still fill in your address manually."
	// SessionExpiredMessage is shown when a lookup is rejected as unauthorized.
	SessionExpiredMessage = "Session expired. Please refresh the page and try again."

	DefaultFailThreshold = 3
)

// Snapshot is a copy of the resolver state for rendering.
type Snapshot struct {
	Selection      domain.AddressSelection `json:"selection"`
	Provinces      []domain.AddressOption  `json:"provinces"`
	Cities         []domain.AddressOption  `json:"cities"`
	Barangays      []domain.AddressOption  `json:"barangays"`
	PostalResolved bool                    `json:"postal_resolved"`
	Busy           bool                    `json:"busy"`
	Banner         *domain.Banner          `json:"banner,omitempty"`
	CanSubmit      bool                    `json:"can_submit"`
}

// Resolver is the province → city → barangay → postal code cascade.
// Changing a value clears every descendant value and option list before the
// immediate child list is fetched. Responses for a parent that has since
// changed are dropped.
type Resolver struct {
	mu        sync.Mutex
	src       Source
	threshold int
	metrics   *metrics.Metrics

	sel            domain.AddressSelection
	provinces      []domain.AddressOption
	cities         []domain.AddressOption
	barangays      []domain.AddressOption
	provincesReady bool
	postalResolved bool

	gens     map[domain.AddressLevel]uint64
	inFlight int
	failures int
	banner   *domain.Banner
}

// NewResolver creates a resolver over src. A threshold below one uses
// DefaultFailThreshold.
func NewResolver(src Source, threshold int, m *metrics.Metrics) *Resolver {
	if threshold < 1 {
		threshold = DefaultFailThreshold
	}
	return &Resolver{
		src:       src,
		threshold: threshold,
		metrics:   m,
		gens:      make(map[domain.AddressLevel]uint64),
	}
}

// ResolveProvinces fetches the province list. Once a fetch returns a
// non-empty list it is kept for the lifetime of the resolver.
func (r *Resolver) ResolveProvinces(ctx context.Context) error {
	r.mu.Lock()
	if r.provincesReady {
		r.mu.Unlock()
		return nil
	}
	gen := r.start(domain.AddressProvince)
	r.mu.Unlock()

	opts, err := r.src.Provinces(ctx)
	return r.finishList(domain.AddressProvince, gen, "", opts, err)
}

// SelectProvince sets the province and reloads the city list.
func (r *Resolver) SelectProvince(ctx context.Context, code string) error {
	r.mu.Lock()
	if err := r.checkOption(r.provinces, code); err != nil {
		r.mu.Unlock()
		return err
	}
	r.sel.ProvinceCode = code
	r.clearFrom(domain.AddressCity)
	if code == "" {
		r.mu.Unlock()
		return nil
	}
	gen := r.start(domain.AddressCity)
	r.mu.Unlock()

	opts, err := r.src.Cities(ctx, code)
	return r.finishList(domain.AddressCity, gen, code, opts, err)
}

// SelectCity sets the city and reloads the barangay list.
func (r *Resolver) SelectCity(ctx context.Context, code string) error {
	r.mu.Lock()
	if err := r.checkOption(r.cities, code); err != nil {
		r.mu.Unlock()
		return err
	}
	r.sel.CityCode = code
	r.clearFrom(domain.AddressBarangay)
	if code == "" {
		r.mu.Unlock()
		return nil
	}
	gen := r.start(domain.AddressBarangay)
	r.mu.Unlock()

	opts, err := r.src.Barangays(ctx, code)
	return r.finishList(domain.AddressBarangay, gen, code, opts, err)
}

// SelectBarangay sets the barangay and resolves its postal code.
func (r *Resolver) SelectBarangay(ctx context.Context, code string) error {
	r.mu.Lock()
	if err := r.checkOption(r.barangays, code); err != nil {
		r.mu.Unlock()
		return err
	}
	r.sel.BarangayCode = code
	r.clearFrom(domain.AddressPostalCode)
	if code == "" {
		r.mu.Unlock()
		return nil
	}
	gen := r.start(domain.AddressPostalCode)
	r.mu.Unlock()

	postal, err := r.src.PostalCode(ctx, code)
	return r.finishPostal(gen, code, postal, err)
}

// SetPostalCode records a manually entered postal code. Only allowed while the
// service has not resolved one.
func (r *Resolver) SetPostalCode(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.postalResolved {
		return domain.ErrPostalCodeReadOnly
	}
	r.sel.PostalCode = code
	return nil
}

// Hydrate prefills the cascade from a previously confirmed address. Values are
// kept while the dependent lists are fetched in order. Hydration stops as soon
// as the user changes any hydrated level, so results for the old parents never
// reach the new cascade.
func (r *Resolver) Hydrate(ctx context.Context, sel domain.AddressSelection) error {
	r.mu.Lock()
	r.sel = sel
	r.cities, r.barangays = nil, nil
	r.postalResolved = false
	r.bump(domain.AddressCity, domain.AddressBarangay, domain.AddressPostalCode)
	gens := map[domain.AddressLevel]uint64{
		domain.AddressCity:       r.gens[domain.AddressCity],
		domain.AddressBarangay:   r.gens[domain.AddressBarangay],
		domain.AddressPostalCode: r.gens[domain.AddressPostalCode],
	}
	r.mu.Unlock()

	if sel.ProvinceCode == "" {
		return nil
	}

	steps := []struct {
		level  domain.AddressLevel
		parent string
	}{
		{domain.AddressCity, sel.ProvinceCode},
		{domain.AddressBarangay, sel.CityCode},
		{domain.AddressPostalCode, sel.BarangayCode},
	}
	for _, s := range steps {
		if s.parent == "" {
			return nil
		}
		gen := gens[s.level]
		r.mu.Lock()
		if r.gens[s.level] != gen || !r.ancestorsMatch(s.level, sel) {
			r.mu.Unlock()
			log.Printf("address.Resolver: hydration interrupted at %s", s.level)
			return nil
		}
		r.inFlight++
		r.mu.Unlock()

		var err error
		switch s.level {
		case domain.AddressCity:
			opts, ferr := r.src.Cities(ctx, s.parent)
			err = r.finishList(s.level, gen, s.parent, opts, ferr)
		case domain.AddressBarangay:
			opts, ferr := r.src.Barangays(ctx, s.parent)
			err = r.finishList(s.level, gen, s.parent, opts, ferr)
		case domain.AddressPostalCode:
			postal, ferr := r.src.PostalCode(ctx, s.parent)
			err = r.finishPostal(gen, s.parent, postal, ferr)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ancestorsMatch reports whether every level above level still holds the
// hydrated value. Must be called with r.mu held.
func (r *Resolver) ancestorsMatch(level domain.AddressLevel, sel domain.AddressSelection) bool {
	switch level {
	case domain.AddressPostalCode:
		if r.sel.BarangayCode != sel.BarangayCode {
			return false
		}
		fallthrough
	case domain.AddressBarangay:
		if r.sel.CityCode != sel.CityCode {
			return false
		}
		fallthrough
	case domain.AddressCity:
		return r.sel.ProvinceCode == sel.ProvinceCode
	}
	return true
}

// CanSubmit reports whether the owning form may be submitted: no lookup is in
// flight and no fatal address error is active.
func (r *Resolver) CanSubmit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight == 0 && !r.fatal()
}

// Busy reports whether any lookup is in flight.
func (r *Resolver) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight > 0
}

// Banner returns the active banner, if any.
func (r *Resolver) Banner() *domain.Banner {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.banner == nil {
		return nil
	}
	b := *r.banner
	return &b
}

// DismissBanner hides a warning banner. Fatal banners stay until the session
// is refreshed; the call reports whether a banner was dismissed.
func (r *Resolver) DismissBanner() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.banner == nil || r.banner.Severity == domain.BannerFatal {
		return false
	}
	r.banner = nil
	return true
}

// Selection returns the current address codes.
func (r *Resolver) Selection() domain.AddressSelection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sel
}

// NameOf returns the display name of a code at the given level, or "" when the
// code is not in the loaded list.
func (r *Resolver) NameOf(level domain.AddressLevel, code string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []domain.AddressOption
	switch level {
	case domain.AddressProvince:
		list = r.provinces
	case domain.AddressCity:
		list = r.cities
	case domain.AddressBarangay:
		list = r.barangays
	}
	for _, o := range list {
		if o.Code == code {
			return o.Name
		}
	}
	return ""
}

// Snapshot copies the resolver state.
func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Snapshot{
		Selection:      r.sel,
		Provinces:      append([]domain.AddressOption(nil), r.provinces...),
		Cities:         append([]domain.AddressOption(nil), r.cities...),
		Barangays:      append([]domain.AddressOption(nil), r.barangays...),
		PostalResolved: r.postalResolved,
		Busy:           r.inFlight > 0,
		CanSubmit:      r.inFlight == 0 && !r.fatal(),
	}
	if r.banner != nil {
		b := *r.banner
		s.Banner = &b
	}
	return s
}

// Reset drops every value, list, counter and banner. Lookups still in flight
// are discarded when they return.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sel = domain.AddressSelection{}
	r.provinces, r.cities, r.barangays = nil, nil, nil
	r.provincesReady = false
	r.postalResolved = false
	r.failures = 0
	r.banner = nil
	r.bump(domain.AddressProvince, domain.AddressCity, domain.AddressBarangay, domain.AddressPostalCode)
}

// start must be called with r.mu held.
func (r *Resolver) start(level domain.AddressLevel) uint64 {
	r.inFlight++
	return r.gens[level]
}

func (r *Resolver) bump(levels ...domain.AddressLevel) {
	for _, l := range levels {
		r.gens[l]++
	}
}

// clearFrom clears level and everything below it.
func (r *Resolver) clearFrom(level domain.AddressLevel) {
	switch level {
	case domain.AddressCity:
		r.sel.CityCode = ""
		r.cities = nil
		r.bump(domain.AddressCity)
		fallthrough
	case domain.AddressBarangay:
		r.sel.BarangayCode = ""
		r.barangays = nil
		r.bump(domain.AddressBarangay)
		fallthrough
	case domain.AddressPostalCode:
		r.sel.PostalCode = ""
		r.postalResolved = false
		r.bump(domain.AddressPostalCode)
	}
}

func (r *Resolver) checkOption(list []domain.AddressOption, code string) error {
	if code == "" || len(list) == 0 {
		return nil
	}
	for _, o := range list {
		if o.Code == code {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrUnknownAddressCode, code)
}

func (r *Resolver) finishList(level domain.AddressLevel, gen uint64, parent string, opts []domain.AddressOption, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--

	if r.gens[level] != gen {
		log.Printf("address.Resolver: dropping stale %s list for %q", level, parent)
		return nil
	}

	ok, err := r.classify(level, err)
	if !ok {
		return err
	}

	switch level {
	case domain.AddressProvince:
		r.provinces = opts
		// an empty province list is never cached so the next call retries
		r.provincesReady = len(opts) > 0
	case domain.AddressCity:
		r.cities = opts
	case domain.AddressBarangay:
		r.barangays = opts
	}
	return nil
}

func (r *Resolver) finishPostal(gen uint64, barangay, postal string, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight--

	if r.gens[domain.AddressPostalCode] != gen {
		log.Printf("address.Resolver: dropping stale postal code for %q", barangay)
		return nil
	}

	ok, err := r.classify(domain.AddressPostalCode, err)
	if !ok {
		return err
	}
	if postal != "" {
		r.sel.PostalCode = postal
		r.postalResolved = true
	}
	return nil
}

// classify reports whether a lookup produced a usable (possibly empty) result.
// Server and network failures are counted and only surface as a warning
// banner at the threshold; they return no error so the form stays usable.
// Must be called with r.mu held.
func (r *Resolver) classify(level domain.AddressLevel, err error) (bool, error) {
	if err == nil {
		r.succeeded()
		return true, nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrNoActiveSession) {
		return false, err
	}

	status := domain.StatusOf(err)
	switch {
	case status == http.StatusNotFound:
		r.succeeded()
		return true, nil
	case status == http.StatusUnauthorized:
		r.metrics.AddressFailed(string(level), "auth")
		log.Printf("address.Resolver: %s lookup unauthorized: %v", level, err)
		r.banner = &domain.Banner{Severity: domain.BannerFatal, Message: SessionExpiredMessage}
		return false, fmt.Errorf("%w: %w", domain.ErrAddressUnavailable, err)
	case status >= http.StatusInternalServerError || status == 0:
		class := "server"
		if status == 0 {
			class = "network"
		}
		r.metrics.AddressFailed(string(level), class)
		r.failures++
		log.Printf("address.Resolver: %s lookup failed (%d consecutive): %v", level, r.failures, err)
		if r.failures >= r.threshold && !r.fatal() {
			r.banner = &domain.Banner{Severity: domain.BannerWarning, Message: UnavailableMessage}
		}
		return false, nil
	default:
		r.metrics.AddressFailed(string(level), "client")
		log.Printf("address.Resolver: %s lookup rejected: %v", level, err)
		return false, err
	}
}

func (r *Resolver) succeeded() {
	r.failures = 0
	if r.fatal() {
		r.banner = nil
	}
}

func (r *Resolver) fatal() bool {
	return r.banner != nil && r.banner.Severity == domain.BannerFatal
}
