package config

import (
	"errors"
	"fmt"
)

// Validate reports every problem that would prevent a run.
func (c *Config) Validate() error {
	var errs []error

	if c.Token == "" {
		errs = append(errs, fmt.Errorf("token is required (or set %s)", TokenEnv))
	}
	switch {
	case c.RequestFrequency == 0:
		errs = append(errs, errors.New("requestFrequency is required"))
	case c.RequestFrequency < 0:
		errs = append(errs, fmt.Errorf("requestFrequency must be positive, got %d", c.RequestFrequency))
	}
	if c.PriorityStickerID == "" {
		errs = append(errs, errors.New("priorityStickerId is required"))
	}
	if c.DelayedState == "" {
		errs = append(errs, errors.New("delayedState is required"))
	}
	if len(c.ColumnIDs) == 0 {
		errs = append(errs, errors.New("columnIds must list at least one column"))
	}
	for i, id := range c.ColumnIDs {
		if id == "" {
			errs = append(errs, fmt.Errorf("columnIds[%d] is empty", i))
		}
	}

	if len(c.PriorityOrder) == 0 {
		errs = append(errs, errors.New("priorityOrder must list at least one state"))
	} else if table, err := c.PriorityTable(); err != nil {
		errs = append(errs, fmt.Errorf("priorityOrder: %w", err))
	} else if table.Contains(c.DelayedState) {
		errs = append(errs, fmt.Errorf("delayedState %q must not appear in priorityOrder", c.DelayedState))
	}

	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}
	if c.MaxInFlight < 0 {
		errs = append(errs, fmt.Errorf("maxInFlight must not be negative, got %d", c.MaxInFlight))
	}
	if c.Window < 0 {
		errs = append(errs, errors.New("window must not be negative"))
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("retry.maxRetries must not be negative, got %d", c.Retry.MaxRetries))
	}

	return errors.Join(errs...)
}
