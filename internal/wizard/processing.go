package wizard

import (
	"context"
	"fmt"
	"log"
	"time"

	"simreg/internal/config"
	"simreg/internal/domain"
	"simreg/internal/port"
)

// StatusPoller waits for processing by polling the registration status.
type StatusPoller struct {
	client      port.EkycClient
	interval    time.Duration
	maxAttempts int
}

// NewStatusPoller creates a poller that checks every interval, at most
// maxAttempts times.
func NewStatusPoller(client port.EkycClient, interval time.Duration, maxAttempts int) *StatusPoller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	return &StatusPoller{client: client, interval: interval, maxAttempts: maxAttempts}
}

func (p *StatusPoller) Wait(ctx context.Context, sessionID string) (string, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		status, err := p.client.RegistrationStatus(ctx, sessionID)
		if err != nil {
			return "", err
		}

		switch status.Status {
		case domain.RegistrationCompleted:
			return status.ReferenceNumber, nil
		case domain.RegistrationFailed:
			if status.Message != "" {
				return "", fmt.Errorf("%w: %s", domain.ErrProcessingFailed, status.Message)
			}
			return "", domain.ErrProcessingFailed
		}

		if attempt >= p.maxAttempts {
			log.Printf("wizard.StatusPoller: registration still %s after %d attempts", status.Status, attempt)
			return "", domain.ErrProcessingTimeout
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// FixedDelay completes processing after a fixed delay without asking the
// service, for deployments that expose no status endpoint.
type FixedDelay struct {
	Delay     time.Duration
	Reference string
}

func (d FixedDelay) Wait(ctx context.Context, _ string) (string, error) {
	t := time.NewTimer(d.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.C:
		return d.Reference, nil
	}
}

// NewWaiter selects the processing waiter configured by cfg.
func NewWaiter(cfg config.ProcessingConfig, client port.EkycClient) port.ProcessingWaiter {
	if cfg.Mode == "delay" {
		return FixedDelay{Delay: cfg.Delay, Reference: cfg.Reference}
	}
	return NewStatusPoller(client, cfg.PollInterval, cfg.MaxAttempts)
}
