package ftprobe

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if config.HostFile != "iplist.txt" {
		t.Errorf("default host file = %q, want iplist.txt", config.HostFile)
	}
	if config.ScanTimeout != 5 {
		t.Errorf("default timeout = %d, want 5", config.ScanTimeout)
	}
	if config.FTPPort != 21 {
		t.Errorf("default port = %d, want 21", config.FTPPort)
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"zero timeout", func(c *Config) { c.ScanTimeout = 0 }, ErrInvalidTimeout},
		{"negative retries", func(c *Config) { c.Retries = -1 }, ErrInvalidRetries},
		{"negative retry delay", func(c *Config) { c.RetryDelay = -1 }, ErrInvalidRetryDelay},
		{"zero concurrency", func(c *Config) { c.ConcurrentScans = 0 }, ErrInvalidConcurrency},
		{"bad port", func(c *Config) { c.FTPPort = 0 }, ErrInvalidPort},
		{"port too high", func(c *Config) { c.FTPPort = 70000 }, ErrInvalidPort},
		{"empty log dir", func(c *Config) { c.LogDir = "" }, ErrInvalidPath},
		{"empty host file", func(c *Config) { c.HostFile = "" }, ErrInvalidPath},
		{"auth without credentials", func(c *Config) { c.MetricsAuth = true }, ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateZeroRetriesAllowed(t *testing.T) {
	config := DefaultConfig()
	config.Retries = 0
	if err := config.Validate(); err != nil {
		t.Fatalf("retries=0 (check-only behavior) should validate, got %v", err)
	}
}

func TestConfigValidateFiltersReportFormats(t *testing.T) {
	config := DefaultConfig()
	config.ReportFormats = []string{"xml", "CSV", "bogus", "pdf"}
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if !reflect.DeepEqual(config.ReportFormats, []string{"csv", "pdf"}) {
		t.Errorf("filtered formats = %v, want [csv pdf]", config.ReportFormats)
	}

	config.ReportFormats = []string{"bogus"}
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if !reflect.DeepEqual(config.ReportFormats, []string{"txt"}) {
		t.Errorf("fallback formats = %v, want [txt]", config.ReportFormats)
	}
}

func TestLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	original := DefaultConfig()
	original.ScanTimeout = 10
	original.Retries = 5
	original.CheckOnly = true
	if err := original.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.ScanTimeout != 10 || loaded.Retries != 5 || !loaded.CheckOnly {
		t.Errorf("loaded config lost values: %+v", loaded)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"retries": 1}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.Retries != 1 {
		t.Errorf("retries = %d, want 1", config.Retries)
	}
	if config.ScanTimeout != 5 {
		t.Errorf("timeout should keep default 5, got %d", config.ScanTimeout)
	}
	if config.HostFile != "iplist.txt" {
		t.Errorf("host file should keep default, got %q", config.HostFile)
	}
}
