package address

import (
	"context"
	"fmt"

	"simreg/internal/domain"
	"simreg/internal/port"
)

// Source fetches the option lists of the address cascade.
type Source interface {
	Provinces(ctx context.Context) ([]domain.AddressOption, error)
	Cities(ctx context.Context, provinceCode string) ([]domain.AddressOption, error)
	Barangays(ctx context.Context, cityCode string) ([]domain.AddressOption, error)
	PostalCode(ctx context.Context, barangayCode string) (string, error)
}

// EkycSource serves address lookups from the eKYC service using the wizard's
// current session.
type EkycSource struct {
	client  port.EkycClient
	session port.SessionStore
}

// NewEkycSource creates a Source bound to one wizard's session.
func NewEkycSource(client port.EkycClient, session port.SessionStore) *EkycSource {
	return &EkycSource{client: client, session: session}
}

func (s *EkycSource) sessionID(ctx context.Context) (string, error) {
	id, err := s.session.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("reading session: %w", err)
	}
	if id == "" {
		return "", domain.ErrNoActiveSession
	}
	return id, nil
}

func (s *EkycSource) Provinces(ctx context.Context) ([]domain.AddressOption, error) {
	sid, err := s.sessionID(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Address(ctx, sid, domain.AddressQuery{Division: domain.AddressProvince})
}

func (s *EkycSource) Cities(ctx context.Context, provinceCode string) ([]domain.AddressOption, error) {
	sid, err := s.sessionID(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Address(ctx, sid, domain.AddressQuery{
		Division: domain.AddressCity,
		CodeName: domain.AddressProvince,
		Code:     provinceCode,
	})
}

func (s *EkycSource) Barangays(ctx context.Context, cityCode string) ([]domain.AddressOption, error) {
	sid, err := s.sessionID(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Address(ctx, sid, domain.AddressQuery{
		Division: domain.AddressBarangay,
		CodeName: domain.AddressCity,
		Code:     cityCode,
	})
}

func (s *EkycSource) PostalCode(ctx context.Context, barangayCode string) (string, error) {
	sid, err := s.sessionID(ctx)
	if err != nil {
		return "", err
	}
	return s.client.PostalCode(ctx, sid, barangayCode)
}
