package ftprobe

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config errors
var (
	ErrInvalidTimeout     = errors.New("invalid scan timeout")
	ErrInvalidRetries     = errors.New("invalid retry count")
	ErrInvalidRetryDelay  = errors.New("invalid retry delay")
	ErrInvalidPort        = errors.New("invalid FTP port")
	ErrInvalidConcurrency = errors.New("invalid concurrency value")
	ErrInvalidPath        = errors.New("invalid path")
	ErrMissingCredentials = errors.New("missing credentials for authentication")
)

// Config represents the configuration for the ftprobe application
type Config struct {
	// Scan configuration
	HostFile        string `json:"host_file"`
	FTPPort         int    `json:"ftp_port"`
	ScanTimeout     int    `json:"scan_timeout_seconds"`
	Retries         int    `json:"retries"`
	RetryDelay      int    `json:"retry_delay_seconds"`
	CheckOnly       bool   `json:"check_only"`
	ConcurrentScans int    `json:"concurrent_scans"`
	SkipConfirm     bool   `json:"skip_confirm"`

	// Caching configuration
	EnableCaching bool `json:"enable_caching"`
	CacheTTL      int  `json:"cache_ttl_minutes"`

	// Logging configuration
	LogDir   string `json:"log_dir"`
	LogLevel string `json:"log_level"`

	// Report configuration
	ReportDir     string   `json:"report_dir"`
	ReportFormats []string `json:"report_formats"`
	ConsoleReport bool     `json:"console_report"`

	// Metrics configuration
	MetricsEnabled  bool   `json:"metrics_enabled"`
	MetricsPort     string `json:"metrics_port"`
	MetricsTLS      bool   `json:"metrics_tls"`
	MetricsHostname string `json:"metrics_hostname"`
	MetricsAuth     bool   `json:"metrics_auth"`
	MetricsUsername string `json:"metrics_username"`
	MetricsPassword string `json:"metrics_password"`
}

// LoadConfig loads configuration from a JSON file. Missing fields keep their
// defaults.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults for empty paths
	if config.HostFile == "" {
		config.HostFile = "iplist.txt"
	}
	if config.LogDir == "" {
		config.LogDir = "ghostshell/logging"
	}
	if config.ReportDir == "" {
		config.ReportDir = "ghostshell/reporting"
	}

	return config, nil
}

// SaveConfig saves the current configuration to a file
func (c *Config) SaveConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		HostFile:        "iplist.txt",
		FTPPort:         21,
		ScanTimeout:     5,
		Retries:         3,
		RetryDelay:      2,
		CheckOnly:       false,
		ConcurrentScans: 10,
		SkipConfirm:     false,

		EnableCaching: true,
		CacheTTL:      60,

		LogDir:   "ghostshell/logging",
		LogLevel: "info",

		ReportDir:     "ghostshell/reporting",
		ReportFormats: []string{"txt"},
		ConsoleReport: true,

		MetricsEnabled:  false,
		MetricsPort:     "8080",
		MetricsTLS:      false,
		MetricsHostname: "localhost",
		MetricsAuth:     false,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.FTPPort < 1 || c.FTPPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.FTPPort)
	}

	// Timeout validation
	if c.ScanTimeout < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidTimeout, c.ScanTimeout)
	}

	// Retries of zero means the login phase is skipped entirely; only
	// negative values are rejected.
	if c.Retries < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRetries, c.Retries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRetryDelay, c.RetryDelay)
	}

	// Concurrency validation
	if c.ConcurrentScans < 1 {
		return fmt.Errorf("%w: concurrent scans %d", ErrInvalidConcurrency, c.ConcurrentScans)
	}

	// Directory validation
	if c.LogDir == "" || c.ReportDir == "" {
		return fmt.Errorf("%w: directory paths cannot be empty", ErrInvalidPath)
	}
	if c.HostFile == "" {
		return fmt.Errorf("%w: host file path cannot be empty", ErrInvalidPath)
	}

	// Log level validation
	logLevel := strings.ToLower(c.LogLevel)
	if logLevel != "debug" && logLevel != "info" && logLevel != "warn" && logLevel != "error" {
		c.LogLevel = "info" // Default to info if invalid
	}

	// Metrics authentication validation
	if c.MetricsAuth && (c.MetricsUsername == "" || c.MetricsPassword == "") {
		return fmt.Errorf("%w: both username and password required when auth enabled", ErrMissingCredentials)
	}

	// Report format validation
	validFormats := map[string]bool{
		"txt":  true,
		"csv":  true,
		"json": true,
		"pdf":  true,
	}
	var formats []string
	for _, format := range c.ReportFormats {
		format = strings.ToLower(format)
		if validFormats[format] {
			formats = append(formats, format)
		}
	}
	if len(formats) == 0 {
		formats = []string{"txt"} // Default to plain text if no valid formats
	}
	c.ReportFormats = formats

	return nil
}
