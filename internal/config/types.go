package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/prioritysync/internal/priority"
)

// Duration is a time.Duration written as a Go duration string ("60s", "1m30s").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"60s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// RetryConfig configures optional retries of transient API failures.
// Each attempt consumes its own slot of the request budget.
type RetryConfig struct {
	MaxRetries      int      `json:"maxRetries"`                // 0 disables retries
	InitialInterval Duration `json:"initialInterval,omitempty"` // first backoff interval
	MaxInterval     Duration `json:"maxInterval,omitempty"`     // backoff ceiling
}

// Config is the configuration snapshot for one sync run.
type Config struct {
	Token             string           `json:"token"`             // API bearer token
	RequestFrequency  int              `json:"requestFrequency"`  // API calls allowed per window
	PriorityStickerID string           `json:"priorityStickerId"` // sticker holding the priority
	DelayedState      string           `json:"delayedState"`      // state that excludes a task
	ColumnIDs         []string         `json:"columnIds"`         // columns to scan
	PriorityOrder     []priority.Entry `json:"priorityOrder"`     // known states, lower order = more urgent

	BaseURL        string      `json:"baseUrl,omitempty"`
	Concurrency    int         `json:"concurrency,omitempty"`    // concurrent subtask lookups
	MaxInFlight    int         `json:"maxInFlight,omitempty"`    // concurrent API calls
	Window         Duration    `json:"window,omitempty"`         // rate window
	RequestTimeout Duration    `json:"requestTimeout,omitempty"` // per HTTP request
	Retry          RetryConfig `json:"retry"`
}

// PriorityTable builds the lookup table for the configured priority order.
func (c *Config) PriorityTable() (*priority.Table, error) {
	return priority.NewTable(c.PriorityOrder)
}
