package address_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"simreg/internal/address"
	"simreg/internal/domain"
	"simreg/internal/ekyc"
	"simreg/internal/metrics"
	"simreg/mocks"
)

type stubSource struct {
	provinces func() ([]domain.AddressOption, error)
	cities    func(code string) ([]domain.AddressOption, error)
	barangays func(code string) ([]domain.AddressOption, error)
	postal    func(code string) (string, error)

	mu    sync.Mutex
	calls []string
}

func (s *stubSource) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *stubSource) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubSource) Provinces(context.Context) ([]domain.AddressOption, error) {
	s.record("provinces")
	return s.provinces()
}

func (s *stubSource) Cities(_ context.Context, code string) ([]domain.AddressOption, error) {
	s.record("cities:" + code)
	return s.cities(code)
}

func (s *stubSource) Barangays(_ context.Context, code string) ([]domain.AddressOption, error) {
	s.record("barangays:" + code)
	return s.barangays(code)
}

func (s *stubSource) PostalCode(_ context.Context, code string) (string, error) {
	s.record("postal:" + code)
	return s.postal(code)
}

func opts(codes ...string) []domain.AddressOption {
	out := make([]domain.AddressOption, 0, len(codes))
	for _, c := range codes {
		out = append(out, domain.AddressOption{Code: c, Name: "Name " + c})
	}
	return out
}

func fullSource() *stubSource {
	return &stubSource{
		provinces: func() ([]domain.AddressOption, error) { return opts("P-A", "P-B"), nil },
		cities: func(code string) ([]domain.AddressOption, error) {
			return opts(code+"/C-X", code+"/C-Y"), nil
		},
		barangays: func(code string) ([]domain.AddressOption, error) {
			return opts(code + "/B-1"), nil
		},
		postal: func(string) (string, error) { return "1100", nil },
	}
}

func serverError() error {
	return &ekyc.APIError{Op: "address", Status: 500, Message: "Service temporarily unavailable. Please try again later."}
}

func TestResolver_CascadeHappyPath(t *testing.T) {
	ctx := context.Background()
	src := fullSource()
	r := address.NewResolver(src, 3, nil)

	require.NoError(t, r.ResolveProvinces(ctx))
	require.NoError(t, r.SelectProvince(ctx, "P-A"))
	require.NoError(t, r.SelectCity(ctx, "P-A/C-X"))
	require.NoError(t, r.SelectBarangay(ctx, "P-A/C-X/B-1"))

	snap := r.Snapshot()
	assert.Equal(t, domain.AddressSelection{
		ProvinceCode: "P-A",
		CityCode:     "P-A/C-X",
		BarangayCode: "P-A/C-X/B-1",
		PostalCode:   "1100",
	}, snap.Selection)
	assert.True(t, snap.PostalResolved)
	assert.True(t, snap.CanSubmit)
	assert.Equal(t, "Name P-A/C-X", r.NameOf(domain.AddressCity, "P-A/C-X"))

	// only the immediate child list is fetched after each selection
	assert.Equal(t, []string{"provinces", "cities:P-A", "barangays:P-A/C-X", "postal:P-A/C-X/B-1"}, src.Calls())
}

func TestResolver_ProvincesCachedAfterSuccess(t *testing.T) {
	src := fullSource()
	r := address.NewResolver(src, 3, nil)

	require.NoError(t, r.ResolveProvinces(context.Background()))
	require.NoError(t, r.ResolveProvinces(context.Background()))
	assert.Equal(t, []string{"provinces"}, src.Calls())
}

func TestResolver_ChangingProvinceClearsDescendantsBeforeFetchResolves(t *testing.T) {
	ctx := context.Background()
	src := fullSource()
	r := address.NewResolver(src, 3, nil)

	require.NoError(t, r.ResolveProvinces(ctx))
	require.NoError(t, r.SelectProvince(ctx, "P-A"))
	require.NoError(t, r.SelectCity(ctx, "P-A/C-X"))
	require.NoError(t, r.SelectBarangay(ctx, "P-A/C-X/B-1"))

	release := make(chan struct{})
	entered := make(chan struct{})
	src.cities = func(code string) ([]domain.AddressOption, error) {
		close(entered)
		<-release
		return opts(code + "/C-Z"), nil
	}

	done := make(chan error, 1)
	go func() { done <- r.SelectProvince(ctx, "P-B") }()
	<-entered

	snap := r.Snapshot()
	assert.Equal(t, "P-B", snap.Selection.ProvinceCode)
	assert.Empty(t, snap.Selection.CityCode)
	assert.Empty(t, snap.Selection.BarangayCode)
	assert.Empty(t, snap.Selection.PostalCode)
	assert.Empty(t, snap.Cities)
	assert.Empty(t, snap.Barangays)
	assert.True(t, snap.Busy)
	assert.False(t, snap.CanSubmit)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, opts("P-B/C-Z"), r.Snapshot().Cities)
	assert.False(t, r.Busy())
}

func TestResolver_StaleChildListIsDropped(t *testing.T) {
	ctx := context.Background()
	src := fullSource()
	r := address.NewResolver(src, 3, nil)
	require.NoError(t, r.ResolveProvinces(ctx))

	release := make(chan struct{})
	entered := make(chan struct{})
	src.cities = func(code string) ([]domain.AddressOption, error) {
		if code == "P-A" {
			close(entered)
			<-release
		}
		return opts(code + "/C-X"), nil
	}

	done := make(chan error, 1)
	go func() { done <- r.SelectProvince(ctx, "P-A") }()
	<-entered

	require.NoError(t, r.SelectProvince(ctx, "P-B"))
	close(release)
	require.NoError(t, <-done)

	snap := r.Snapshot()
	assert.Equal(t, "P-B", snap.Selection.ProvinceCode)
	assert.Equal(t, opts("P-B/C-X"), snap.Cities)
}

func TestResolver_EmptyParentClearsWithoutFetching(t *testing.T) {
	ctx := context.Background()
	src := fullSource()
	r := address.NewResolver(src, 3, nil)
	require.NoError(t, r.ResolveProvinces(ctx))
	require.NoError(t, r.SelectProvince(ctx, "P-A"))

	require.NoError(t, r.SelectProvince(ctx, ""))
	snap := r.Snapshot()
	assert.Empty(t, snap.Selection.ProvinceCode)
	assert.Empty(t, snap.Cities)
	assert.Equal(t, []string{"provinces", "cities:P-A"}, src.Calls())
}

func TestResolver_NotFoundIsEmptyList(t *testing.T) {
	ctx := context.Background()
	src := fullSource()
	src.cities = func(string) ([]domain.AddressOption, error) {
		return nil, &ekyc.APIError{Op: "address", Status: 404, Message: "Address data not found."}
	}
	r := address.NewResolver(src, 3, nil)
	require.NoError(t, r.ResolveProvinces(ctx))

	require.NoError(t, r.SelectProvince(ctx, "P-A"))
	snap := r.Snapshot()
	assert.Empty(t, snap.Cities)
	assert.Nil(t, snap.Banner)
	assert.True(t, snap.CanSubmit)
}

func TestResolver_ServerFailuresRaiseWarningAtThreshold(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	src := fullSource()
	src.provinces = func() ([]domain.AddressOption, error) { return nil, serverError() }
	r := address.NewResolver(src, 3, m)

	require.NoError(t, r.ResolveProvinces(ctx))
	require.NoError(t, r.ResolveProvinces(ctx))
	assert.Nil(t, r.Banner())

	require.NoError(t, r.ResolveProvinces(ctx))
	banner := r.Banner()
	require.NotNil(t, banner)
	assert.Equal(t, domain.BannerWarning, banner.Severity)
	assert.Equal(t, address.UnavailableMessage, banner.Message)

	// manual entry stays possible
	assert.True(t, r.CanSubmit())
	require.NoError(t, r.SelectProvince(ctx, "MANUAL"))
	require.NoError(t, r.SetPostalCode("4000"))

	assert.True(t, r.DismissBanner())
	assert.Nil(t, r.Banner())
	assert.Equal(t, float64(3), testutil.ToFloat64(m.AddressFailures.WithLabelValues("province", "server")))
}

func TestResolver_SuccessResetsFailureCount(t *testing.T) {
	ctx := context.Background()
	fail := true
	src := fullSource()
	src.provinces = func() ([]domain.AddressOption, error) {
		if fail {
			return nil, serverError()
		}
		return opts("P-A"), nil
	}
	src.cities = func(string) ([]domain.AddressOption, error) { return nil, serverError() }
	r := address.NewResolver(src, 3, nil)

	require.NoError(t, r.ResolveProvinces(ctx))
	require.NoError(t, r.ResolveProvinces(ctx))
	fail = false
	require.NoError(t, r.ResolveProvinces(ctx))

	require.NoError(t, r.SelectProvince(ctx, "P-A"))
	require.NoError(t, r.SelectProvince(ctx, "P-A"))
	assert.Nil(t, r.Banner())
}

func TestResolver_NetworkFailuresCountTowardThreshold(t *testing.T) {
	ctx := context.Background()
	src := fullSource()
	src.provinces = func() ([]domain.AddressOption, error) {
		return nil, &ekyc.NetworkError{Op: "address", Err: errors.New("connection refused")}
	}
	r := address.NewResolver(src, 2, nil)

	require.NoError(t, r.ResolveProvinces(ctx))
	require.NoError(t, r.ResolveProvinces(ctx))
	require.NotNil(t, r.Banner())
}

func TestResolver_UnauthorizedIsFatal(t *testing.T) {
	ctx := context.Background()
	src := fullSource()
	src.provinces = func() ([]domain.AddressOption, error) {
		return nil, &ekyc.APIError{Op: "address", Status: 401, Message: "Authentication required. Please refresh and try again."}
	}
	r := address.NewResolver(src, 3, nil)

	err := r.ResolveProvinces(ctx)
	assert.ErrorIs(t, err, domain.ErrAddressUnavailable)

	banner := r.Banner()
	require.NotNil(t, banner)
	assert.Equal(t, domain.BannerFatal, banner.Severity)
	assert.Equal(t, address.SessionExpiredMessage, banner.Message)
	assert.False(t, r.CanSubmit())
	assert.False(t, r.DismissBanner())

	r.Reset()
	assert.True(t, r.CanSubmit())
}

func TestResolver_RejectsUnknownCode(t *testing.T) {
	ctx := context.Background()
	r := address.NewResolver(fullSource(), 3, nil)
	require.NoError(t, r.ResolveProvinces(ctx))

	err := r.SelectProvince(ctx, "P-Z")
	assert.ErrorIs(t, err, domain.ErrUnknownAddressCode)
	assert.Empty(t, r.Selection().ProvinceCode)
}

func TestResolver_PostalCodeReadOnlyOnceResolved(t *testing.T) {
	ctx := context.Background()
	src := fullSource()
	src.postal = func(string) (string, error) { return "", serverError() }
	r := address.NewResolver(src, 3, nil)
	require.NoError(t, r.ResolveProvinces(ctx))
	require.NoError(t, r.SelectProvince(ctx, "P-A"))
	require.NoError(t, r.SelectCity(ctx, "P-A/C-X"))
	require.NoError(t, r.SelectBarangay(ctx, "P-A/C-X/B-1"))

	// unresolved: manual entry allowed
	assert.Empty(t, r.Selection().PostalCode)
	require.NoError(t, r.SetPostalCode("1101"))

	src.postal = func(string) (string, error) { return "1100", nil }
	require.NoError(t, r.SelectBarangay(ctx, "P-A/C-X/B-1"))
	assert.Equal(t, "1100", r.Selection().PostalCode)
	assert.ErrorIs(t, r.SetPostalCode("9999"), domain.ErrPostalCodeReadOnly)
}

func TestResolver_HydrateKeepsValues(t *testing.T) {
	ctx := context.Background()
	src := fullSource()
	src.postal = func(string) (string, error) { return "1100", nil }
	r := address.NewResolver(src, 3, nil)
	require.NoError(t, r.ResolveProvinces(ctx))

	sel := domain.AddressSelection{ProvinceCode: "P-A", CityCode: "P-A/C-X", BarangayCode: "P-A/C-X/B-1", PostalCode: "1100"}
	require.NoError(t, r.Hydrate(ctx, sel))

	snap := r.Snapshot()
	assert.Equal(t, sel, snap.Selection)
	assert.Len(t, snap.Cities, 2)
	assert.Len(t, snap.Barangays, 1)
	assert.True(t, snap.PostalResolved)
	assert.Equal(t, []string{"provinces", "cities:P-A", "barangays:P-A/C-X", "postal:P-A/C-X/B-1"}, src.Calls())
}

func TestEkycSource_UsesWizardSession(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.MockEkycClient)
	store := new(mocks.MockSessionStore)
	store.On("Get", mock.Anything).Return("S1", nil)
	client.On("Address", mock.Anything, "S1", domain.AddressQuery{
		Division: domain.AddressCity, CodeName: domain.AddressProvince, Code: "P-A",
	}).Return(opts("C-X"), nil)

	src := address.NewEkycSource(client, store)
	got, err := src.Cities(ctx, "P-A")
	require.NoError(t, err)
	assert.Equal(t, opts("C-X"), got)
	client.AssertExpectations(t)
}

func TestEkycSource_NoSession(t *testing.T) {
	client := new(mocks.MockEkycClient)
	store := new(mocks.MockSessionStore)
	store.On("Get", mock.Anything).Return("", nil)

	r := address.NewResolver(address.NewEkycSource(client, store), 3, nil)
	err := r.ResolveProvinces(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	assert.Nil(t, r.Banner())
	client.AssertNotCalled(t, "Address", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_ConcurrentSelectionsSettle(t *testing.T) {
	ctx := context.Background()
	src := fullSource()
	r := address.NewResolver(src, 3, nil)
	require.NoError(t, r.ResolveProvinces(ctx))

	var wg sync.WaitGroup
	for _, code := range []string{"P-A", "P-B", "P-A", "P-B"} {
		wg.Add(1)
		go func(c string) {
			defer wg.Done()
			_ = r.SelectProvince(ctx, c)
		}(code)
	}
	wg.Wait()

	assert.Eventually(t, func() bool { return !r.Busy() }, time.Second, time.Millisecond)
	snap := r.Snapshot()
	require.Len(t, snap.Cities, 2)
	assert.Equal(t, snap.Selection.ProvinceCode+"/C-X", snap.Cities[0].Code)
}

func TestResolver_HydrateStopsWhenProvinceChangesMidway(t *testing.T) {
	ctx := context.Background()
	src := fullSource()
	src.postal = func(code string) (string, error) { return "POSTAL-OF-" + code, nil }
	r := address.NewResolver(src, 3, nil)
	require.NoError(t, r.ResolveProvinces(ctx))

	release := make(chan struct{})
	entered := make(chan struct{})
	src.cities = func(code string) ([]domain.AddressOption, error) {
		if code == "P-A" {
			close(entered)
			<-release
		}
		return opts(code+"/C-X", code+"/C-Y"), nil
	}

	done := make(chan error, 1)
	go func() {
		done <- r.Hydrate(ctx, domain.AddressSelection{
			ProvinceCode: "P-A", CityCode: "P-A/C-X", BarangayCode: "P-A/C-X/B-1",
		})
	}()
	<-entered

	require.NoError(t, r.SelectProvince(ctx, "P-B"))
	close(release)
	require.NoError(t, <-done)

	snap := r.Snapshot()
	assert.Equal(t, domain.AddressSelection{ProvinceCode: "P-B"}, snap.Selection)
	assert.Equal(t, opts("P-B/C-X", "P-B/C-Y"), snap.Cities)
	assert.Empty(t, snap.Barangays)
	assert.False(t, snap.PostalResolved)
	assert.False(t, snap.Busy)
	assert.Equal(t, []string{"provinces", "cities:P-A", "cities:P-B"}, src.Calls())
	require.NoError(t, r.SetPostalCode("1200"))
}

func TestResolver_HydrateStopsWhenCityChangesMidway(t *testing.T) {
	ctx := context.Background()
	src := fullSource()
	r := address.NewResolver(src, 3, nil)
	require.NoError(t, r.ResolveProvinces(ctx))

	release := make(chan struct{})
	entered := make(chan struct{})
	src.barangays = func(code string) ([]domain.AddressOption, error) {
		if code == "P-A/C-X" {
			close(entered)
			<-release
		}
		return opts(code + "/B-1"), nil
	}

	done := make(chan error, 1)
	go func() {
		done <- r.Hydrate(ctx, domain.AddressSelection{
			ProvinceCode: "P-A", CityCode: "P-A/C-X", BarangayCode: "P-A/C-X/B-1",
		})
	}()
	<-entered

	require.NoError(t, r.SelectCity(ctx, "P-A/C-Y"))
	close(release)
	require.NoError(t, <-done)

	snap := r.Snapshot()
	assert.Equal(t, domain.AddressSelection{ProvinceCode: "P-A", CityCode: "P-A/C-Y"}, snap.Selection)
	assert.Equal(t, opts("P-A/C-Y/B-1"), snap.Barangays)
	assert.False(t, snap.PostalResolved)
	assert.NotContains(t, src.Calls(), "postal:P-A/C-X/B-1")
}

func TestResolver_EmptyProvinceListIsNotCached(t *testing.T) {
	ctx := context.Background()
	src := fullSource()
	src.provinces = func() ([]domain.AddressOption, error) {
		return nil, &ekyc.APIError{Op: "address", Status: 404, Message: "Address data not found."}
	}
	r := address.NewResolver(src, 3, nil)

	require.NoError(t, r.ResolveProvinces(ctx))
	assert.Empty(t, r.Snapshot().Provinces)

	src.provinces = func() ([]domain.AddressOption, error) { return opts("P-A"), nil }
	require.NoError(t, r.ResolveProvinces(ctx))
	require.NoError(t, r.ResolveProvinces(ctx))
	assert.Equal(t, opts("P-A"), r.Snapshot().Provinces)
	assert.Equal(t, []string{"provinces", "provinces"}, src.Calls())
}
