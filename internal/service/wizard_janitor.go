package service

import (
	"context"
	"log"
	"time"
)

// WizardJanitor periodically closes idle wizards and purges expired sessions.
type WizardJanitor struct {
	wizards  WizardService
	interval time.Duration
}

// NewWizardJanitor creates a new WizardJanitor. A non-positive interval
// defaults to five minutes.
func NewWizardJanitor(wizards WizardService, interval time.Duration) *WizardJanitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &WizardJanitor{wizards: wizards, interval: interval}
}

// Start runs the sweep loop until ctx is canceled.
func (j *WizardJanitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	log.Printf("wizardJanitor: started (interval=%s)", j.interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("wizardJanitor: shutdown complete")
			return
		case <-ticker.C:
			// A fresh context lets a sweep finish releasing previews during shutdown.
			sweepCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			closed := j.wizards.Sweep(sweepCtx)
			cancel()
			if closed > 0 {
				log.Printf("wizardJanitor: %d wizards closed, %d active", closed, j.wizards.Active())
			}
		}
	}
}
