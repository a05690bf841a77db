package config

import (
	"time"

	"github.com/aristath/prioritysync/internal/taskapi"
)

// DefaultConfig returns the settings used when no file overrides them.
// Token, request frequency, sticker, columns and priority order must come
// from a config file.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        taskapi.DefaultBaseURL,
		Concurrency:    4,
		MaxInFlight:    1,
		Window:         Duration(60 * time.Second),
		RequestTimeout: Duration(taskapi.DefaultTimeout),
		Retry: RetryConfig{
			MaxRetries:      0,
			InitialInterval: Duration(500 * time.Millisecond),
			MaxInterval:     Duration(10 * time.Second),
		},
	}
}
