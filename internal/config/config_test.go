package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetenvHelpers(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      string
		expected string
	}{
		{
			name:     "variable set",
			key:      "TEST_STR",
			value:    "override",
			def:      "default",
			expected: "override",
		},
		{
			name:     "variable not set",
			key:      "TEST_STR_MISSING",
			def:      "default",
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}
			if result := getenv(tt.key, tt.def); result != tt.expected {
				t.Errorf("getenv() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			value:    "10s",
			def:      5 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "invalid duration falls back",
			value:    "not_a_duration",
			def:      5 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "missing falls back",
			def:      5 * time.Second,
			expected: 5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_DUR", tt.value)
			}
			if result := mustDuration("TEST_DUR", tt.def); result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GHOST_URL", "https://blog.example.com")
	t.Setenv("GHOST_ADMIN_KEY", "abc123:64656164626565666465616462656566")
	t.Setenv("OMNIVORE_TOKEN", "tok-123")
	t.Setenv("OMNIVORE_USERNAME", "reader")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.SyncLabel != "ghost" {
		t.Errorf("SyncLabel = %q, want ghost", cfg.SyncLabel)
	}
	if cfg.ExcludeLabel != "Newsletter" {
		t.Errorf("ExcludeLabel = %q, want Newsletter", cfg.ExcludeLabel)
	}
	if cfg.ContentRule != "annotation" {
		t.Errorf("ContentRule = %q, want annotation", cfg.ContentRule)
	}
	if cfg.ScanLimit != 100 {
		t.Errorf("ScanLimit = %d, want 100", cfg.ScanLimit)
	}
	if cfg.Location == nil || cfg.Location.String() != "America/Los_Angeles" {
		t.Errorf("Location = %v, want America/Los_Angeles", cfg.Location)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("GHOST_URL", "")
	t.Setenv("GHOST_ADMIN_KEY", "")
	t.Setenv("OMNIVORE_TOKEN", "")
	t.Setenv("OMNIVORE_USERNAME", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without required variables")
	}
}

func TestLoadRejectsBadContentRule(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SYNC_CONTENT_RULE", "everything")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject an unknown content rule")
	}
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DISPLAY_TIMEZONE", "Not/AZone")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject an unknown timezone")
	}
}

func TestLoadOverlayPrecedence(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "linkmirror.yaml")
	overlay := "sync_label: reading\nscan_limit: 25\ndisplay_timezone: Europe/Paris\nshutdown_timeout: 9s\n"
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatalf("failed to write overlay: %v", err)
	}
	t.Setenv("LINKMIRROR_CONFIG_FILE", path)
	// Env must still win over the file.
	t.Setenv("DISPLAY_TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.SyncLabel != "reading" {
		t.Errorf("SyncLabel = %q, want reading (from file)", cfg.SyncLabel)
	}
	if cfg.ScanLimit != 25 {
		t.Errorf("ScanLimit = %d, want 25 (from file)", cfg.ScanLimit)
	}
	if cfg.ShutdownTimeout != 9*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 9s (from file)", cfg.ShutdownTimeout)
	}
	if cfg.DisplayTimezone != "UTC" {
		t.Errorf("DisplayTimezone = %q, want UTC (env over file)", cfg.DisplayTimezone)
	}
}

func TestLoadBrokenOverlay(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("sync_label: [unclosed"), 0o600); err != nil {
		t.Fatalf("failed to write overlay: %v", err)
	}
	t.Setenv("LINKMIRROR_CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail on an unparseable overlay file")
	}
}
