package wizard

import "simreg/internal/domain"

// JumpTo positions the wizard on step after applying mutate to its state,
// bypassing the submissions of the steps in between.
func (c *Controller) JumpTo(step domain.Step, mutate func(*domain.WizardState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mutate != nil {
		mutate(&c.state)
	}
	c.setStep(step)
}
