package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aristath/prioritysync/internal/priority"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		globalConfig  string
		projectConfig string
		check         func(t *testing.T, cfg *Config)
	}{
		{
			name: "No config files - returns defaults",
			check: func(t *testing.T, cfg *Config) {
				if cfg.RequestFrequency != 0 {
					t.Errorf("requestFrequency = %d, want unset", cfg.RequestFrequency)
				}
				if time.Duration(cfg.Window) != time.Minute {
					t.Errorf("window = %v, want 1m", time.Duration(cfg.Window))
				}
				if cfg.MaxInFlight != 1 {
					t.Errorf("maxInFlight = %d, want 1", cfg.MaxInFlight)
				}
			},
		},
		{
			name:         "Global only - fills plugin settings",
			globalConfig: `{"token":"g-token","requestFrequency":40,"priorityStickerId":"s1","delayedState":"later","columnIds":["c1"],"priorityOrder":[{"stateId":"urgent","order":0}]}`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Token != "g-token" || cfg.RequestFrequency != 40 || cfg.PriorityStickerID != "s1" {
					t.Errorf("unexpected config: %+v", cfg)
				}
				if len(cfg.PriorityOrder) != 1 || cfg.PriorityOrder[0].StateID != "urgent" {
					t.Errorf("priorityOrder = %+v", cfg.PriorityOrder)
				}
				if cfg.Concurrency != 4 {
					t.Errorf("concurrency default lost: %d", cfg.Concurrency)
				}
			},
		},
		{
			name:          "Project overrides global - project wins per key",
			globalConfig:  `{"token":"g-token","columnIds":["c1","c2"],"window":"30s"}`,
			projectConfig: `{"columnIds":["c3"],"retry":{"maxRetries":2}}`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Token != "g-token" {
					t.Errorf("token = %q, want g-token", cfg.Token)
				}
				if len(cfg.ColumnIDs) != 1 || cfg.ColumnIDs[0] != "c3" {
					t.Errorf("columnIds = %v, want [c3]", cfg.ColumnIDs)
				}
				if time.Duration(cfg.Window) != 30*time.Second {
					t.Errorf("window = %v, want 30s", time.Duration(cfg.Window))
				}
				if cfg.Retry.MaxRetries != 2 {
					t.Errorf("retry.maxRetries = %d, want 2", cfg.Retry.MaxRetries)
				}
				if time.Duration(cfg.Retry.MaxInterval) != 10*time.Second {
					t.Errorf("retry.maxInterval default lost: %v", time.Duration(cfg.Retry.MaxInterval))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(TokenEnv, "")
			tmpDir := t.TempDir()

			globalPath := ""
			if tt.globalConfig != "" {
				globalPath = writeFile(t, tmpDir, "global.json", tt.globalConfig)
			}
			projectPath := ""
			if tt.projectConfig != "" {
				projectPath = writeFile(t, tmpDir, "project.json", tt.projectConfig)
			}

			cfg, err := Load(globalPath, projectPath)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_TokenFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "config.json", `{"token":"from-file"}`)
	t.Setenv(TokenEnv, "from-env")

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Token != "from-env" {
		t.Errorf("token = %q, want from-env", cfg.Token)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	tmpDir := t.TempDir()
	globalPath := writeFile(t, tmpDir, "global.json", "{invalid json")

	_, err := Load(globalPath, "")
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
	if !strings.Contains(err.Error(), "global.json") {
		t.Errorf("error should mention the file: %v", err)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "config.json", `{"window":"soon"}`)

	if _, err := Load("", path); err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
}

func TestLoad_MissingFilesNotError(t *testing.T) {
	cfg, err := Load("/nonexistent/global.json", "/nonexistent/project.json")
	if err != nil {
		t.Fatalf("expected no error for missing files, got: %v", err)
	}
	if cfg.BaseURL == "" {
		t.Error("expected defaults to be populated")
	}
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Token = "t"
	cfg.RequestFrequency = 50
	cfg.PriorityStickerID = "prio"
	cfg.DelayedState = "later"
	cfg.ColumnIDs = []string{"c1"}
	cfg.PriorityOrder = []priority.Entry{{StateID: "urgent", Order: 0}, {StateID: "normal", Order: 1}}
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(cfg *Config) {}},
		{name: "missing token", mutate: func(cfg *Config) { cfg.Token = "" }, wantErr: "token is required"},
		{name: "zero frequency", mutate: func(cfg *Config) { cfg.RequestFrequency = 0 }, wantErr: "requestFrequency is required"},
		{name: "negative frequency", mutate: func(cfg *Config) { cfg.RequestFrequency = -5 }, wantErr: "must be positive"},
		{name: "missing sticker", mutate: func(cfg *Config) { cfg.PriorityStickerID = "" }, wantErr: "priorityStickerId"},
		{name: "missing delayed", mutate: func(cfg *Config) { cfg.DelayedState = "" }, wantErr: "delayedState"},
		{name: "no columns", mutate: func(cfg *Config) { cfg.ColumnIDs = nil }, wantErr: "columnIds"},
		{name: "empty column", mutate: func(cfg *Config) { cfg.ColumnIDs = []string{""} }, wantErr: "columnIds[0]"},
		{name: "no priorities", mutate: func(cfg *Config) { cfg.PriorityOrder = nil }, wantErr: "priorityOrder"},
		{
			name: "duplicate rank",
			mutate: func(cfg *Config) {
				cfg.PriorityOrder = []priority.Entry{{StateID: "a", Order: 1}, {StateID: "b", Order: 1}}
			},
			wantErr: "share order",
		},
		{
			name: "delayed listed as priority",
			mutate: func(cfg *Config) {
				cfg.PriorityOrder = append(cfg.PriorityOrder, priority.Entry{StateID: "later", Order: 9})
			},
			wantErr: "must not appear",
		},
		{name: "negative retries", mutate: func(cfg *Config) { cfg.Retry.MaxRetries = -1 }, wantErr: "maxRetries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingRequestFrequencyFailsValidation(t *testing.T) {
	t.Setenv(TokenEnv, "")
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{"token":"t","priorityStickerId":"prio","delayedState":"later","columnIds":["c1"],"priorityOrder":[{"stateId":"urgent","order":0}]}`)

	cfg, err := Load("", path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "requestFrequency is required") {
		t.Fatalf("expected missing requestFrequency to be reported, got %v", err)
	}
}
