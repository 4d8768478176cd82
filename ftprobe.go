package ftprobe

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/time/rate"
)

// AppVersion represents the application version
const AppVersion = "1.0.0"

// Application errors
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrScanFailed    = errors.New("scan operation failed")
	ErrReportFailed  = errors.New("report generation failed")
)

// -------------- Prometheus Metrics --------------

// Metrics holds all Prometheus metrics used by the application
type Metrics struct {
	HostsProcessed  prometheus.Counter
	ProbeLatency    *prometheus.HistogramVec
	LoginAttempts   *prometheus.CounterVec
	ScanDuration    prometheus.Histogram
	ScanProgress    prometheus.Gauge
	InFlightProbes  prometheus.Gauge
	OperationStatus *prometheus.CounterVec
}

// NewMetrics initializes and returns a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		HostsProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ftprobe_hosts_processed_total",
				Help: "Total number of hosts that reached a terminal classification.",
			},
		),
		ProbeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ftprobe_probe_latency_ms",
				Help:    "TCP connect latency for reachable hosts in milliseconds.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"host"},
		),
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftprobe_login_attempts_total",
				Help: "Total anonymous login attempts by final result.",
			},
			[]string{"result"},
		),
		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ftprobe_scan_duration_seconds",
				Help:    "Duration of complete scan runs in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
		),
		ScanProgress: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ftprobe_scan_progress_ratio",
				Help: "Fraction of the host list processed so far.",
			},
		),
		InFlightProbes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ftprobe_in_flight_probes",
				Help: "Number of host probes currently in flight.",
			},
		),
		OperationStatus: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftprobe_operation_status",
				Help: "Status of top-level operations (input, scan, report).",
			},
			[]string{"operation", "status"},
		),
	}
}

// Register registers all metrics with Prometheus
func (m *Metrics) Register() {
	prometheus.MustRegister(
		m.HostsProcessed,
		m.ProbeLatency,
		m.LoginAttempts,
		m.ScanDuration,
		m.ScanProgress,
		m.InFlightProbes,
		m.OperationStatus,
	)
}

// -------------- Application --------------

// App represents the main application with its dependencies
type App struct {
	Config     *Config
	Logger     *zap.Logger
	Metrics    *Metrics
	Scanner    *Scanner
	Input      *InputHandler
	MetricsSrv *http.Server
	scanID     string
}

// NewApp creates a new application instance
func NewApp(config *Config, logger *zap.Logger) *App {
	var metrics *Metrics
	if config.MetricsEnabled {
		metrics = NewMetrics()
	}

	return &App{
		Config:  config,
		Logger:  logger,
		Metrics: metrics,
		Scanner: NewScanner(config, logger, metrics),
		Input:   NewInputHandler(logger),
		scanID:  uuid.New().String(),
	}
}

// -------------- Logging Initialization --------------

// SetupLogger configures and initializes the logger. The timestamped log
// file doubles as the scan's append-only outcome record.
func SetupLogger(config *Config) (*zap.Logger, error) {
	if err := os.MkdirAll(config.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}
	timestamp := time.Now().Format("20060102_150405")
	logFile := filepath.Join(config.LogDir, fmt.Sprintf("ftprobe_log_%s.log", timestamp))

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig = encoderConfig
	cfg.OutputPaths = []string{logFile, "stdout"}
	cfg.Level = zap.NewAtomicLevelAt(parseLogLevel(config.LogLevel))
	cfg.Development = config.LogLevel == "debug"

	logger, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	logger = logger.With(
		zap.String("version", AppVersion),
		zap.String("pid", strconv.Itoa(os.Getpid())),
	)

	return logger, nil
}

// parseLogLevel converts a string log level to zapcore.Level
func parseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// -------------- Banner --------------

// printBanner prints the startup banner.
func printBanner() {
	const orange = "\033[33m"
	const reset = "\033[0m"
	fmt.Printf(`%s
    ________________     ___    _   ______  _   __
   / ____/_  __/ __ \   /   |  / | / / __ \/ | / /
  / /_    / / / /_/ /  / /| | /  |/ / / / /  |/ /
 / __/   / / / ____/  / ___ |/ /|  / /_/ / /|  /
/_/     /_/ /_/      /_/  |_/_/ |_/\____/_/ |_/

    ftprobe %s - FTP anonymous login scanner

    Checks each host in a list for FTP reachability and, unless
    running in check-only mode, attempts an anonymous login with
    bounded retries. Results are partitioned into reachable,
    unreachable, accepted and rejected buckets.
%s
`, orange, AppVersion, reset)
}

// -------------- Main --------------

// Run is the entry point for the application
func Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	hostFile := flag.String("file", "", "File containing the list of hosts")
	timeout := flag.Int("timeout", 0, "FTP connection timeout in seconds")
	retries := flag.Int("retries", -1, "Number of anonymous login attempts per host (0 disables logins)")
	checkOnly := flag.Bool("check-only", false, "Only check connectivity, do not attempt anonymous logins")
	skipConfirm := flag.Bool("yes", false, "Skip the pre-scan confirmation prompt")
	disableCache := flag.Bool("no-cache", false, "Disable duplicate-host result caching")
	outputFormat := flag.String("output", "", "Override report formats (txt,csv,json,pdf)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ftprobe version %s\n", AppVersion)
		return nil
	}

	// Load configuration
	var config *Config
	if *configPath != "" {
		var err error
		config, err = LoadConfig(*configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		config = DefaultConfig()
	}

	// Apply command line overrides
	if *hostFile != "" {
		config.HostFile = *hostFile
	}
	if *timeout > 0 {
		config.ScanTimeout = *timeout
	}
	if *retries >= 0 {
		config.Retries = *retries
	}
	if *checkOnly {
		config.CheckOnly = true
	}
	if *skipConfirm {
		config.SkipConfirm = true
	}
	if *disableCache {
		config.EnableCaching = false
	}
	if *outputFormat != "" {
		config.ReportFormats = strings.Split(*outputFormat, ",")
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	// Setup logger
	logger, err := SetupLogger(config)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer logger.Sync()

	printBanner()

	// Initialize application
	app := NewApp(config, logger)
	defer app.Scanner.Close()

	logger.Info("ftprobe starting",
		zap.String("version", AppVersion),
		zap.String("scan_id", app.scanID),
		zap.String("host_file", config.HostFile),
		zap.Int("timeout_seconds", config.ScanTimeout),
		zap.Int("retries", config.Retries),
		zap.Bool("check_only", config.CheckOnly),
	)

	// Register Prometheus metrics if enabled
	if config.MetricsEnabled {
		app.Metrics.Register()
		srv := app.startMetricsServer(config.MetricsPort, config.MetricsTLS)
		app.MetricsSrv = srv
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("Metrics server shutdown error", zap.Error(err))
			}
		}()
	}

	// Confirmation gate before any network activity
	if !config.SkipConfirm {
		if !app.Input.Confirm("Do you want to proceed with the scan? (y/n): ") {
			fmt.Println("Exiting...")
			logger.Info("Scan declined by user")
			return nil
		}
	}

	// Load target hosts
	hosts, err := app.Input.LoadHosts(config.HostFile)
	if err != nil {
		if app.Metrics != nil {
			app.Metrics.OperationStatus.WithLabelValues("input", "failure").Inc()
		}
		return fmt.Errorf("failed to load hosts: %w", err)
	}
	if app.Metrics != nil {
		app.Metrics.OperationStatus.WithLabelValues("input", "success").Inc()
	}

	// Console progress bar, updated as hosts finish
	app.Scanner.OnProgress = func(completed, total int) {
		printProgressBar(completed, total)
	}

	fmt.Println("Processing hosts...")
	summary, err := app.Scanner.Run(ctx, hosts)
	if err != nil {
		if app.Metrics != nil {
			app.Metrics.OperationStatus.WithLabelValues("scan", "failure").Inc()
		}
		return fmt.Errorf("%w: %v", ErrScanFailed, err)
	}
	fmt.Println()
	if app.Metrics != nil {
		app.Metrics.OperationStatus.WithLabelValues("scan", "success").Inc()
	}

	// Generate reports
	if err := app.generateReports(summary); err != nil {
		if app.Metrics != nil {
			app.Metrics.OperationStatus.WithLabelValues("report", "failure").Inc()
		}
		return fmt.Errorf("%w: %v", ErrReportFailed, err)
	}
	if app.Metrics != nil {
		app.Metrics.OperationStatus.WithLabelValues("report", "success").Inc()
	}

	logger.Info("ftprobe exited cleanly")
	return nil
}

// printProgressBar renders a coarse completion bar on one console line.
func printProgressBar(current, total int) {
	const barLength = 40
	progress := current * barLength / total
	bar := strings.Repeat("#", progress) + strings.Repeat(".", barLength-progress)
	fmt.Printf("\r[%s] %d/%d", bar, current, total)
}

// -------------- Report Generation --------------

// generateReports writes the summary in every configured format.
func (a *App) generateReports(summary *ScanSummary) error {
	if err := os.MkdirAll(a.Config.ReportDir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	for _, format := range a.Config.ReportFormats {
		var reportFilePath string
		var err error

		switch strings.ToLower(format) {
		case "txt":
			reportFilePath = filepath.Join(a.Config.ReportDir, fmt.Sprintf("ftprobe_summary_%s.txt", timestamp))
			err = WriteTextSummary(summary, reportFilePath)
		case "csv":
			reportFilePath = filepath.Join(a.Config.ReportDir, fmt.Sprintf("ftprobe_report_%s.csv", timestamp))
			err = WriteCSVReport(summary, reportFilePath)
		case "json":
			reportFilePath = filepath.Join(a.Config.ReportDir, fmt.Sprintf("ftprobe_report_%s.json", timestamp))
			err = WriteJSONReport(summary, reportFilePath)
		case "pdf":
			reportFilePath = filepath.Join(a.Config.ReportDir, fmt.Sprintf("ftprobe_report_%s.pdf", timestamp))
			err = WritePDFReport(summary, reportFilePath)
		default:
			a.Logger.Warn("Unsupported report format", zap.String("format", format))
			continue
		}

		if err != nil {
			a.Logger.Error("Failed to write report",
				zap.String("format", format),
				zap.String("file", reportFilePath),
				zap.Error(err),
			)
		} else {
			a.Logger.Info("Report generated",
				zap.String("format", format),
				zap.String("file", reportFilePath),
			)
		}
	}

	if a.Config.ConsoleReport {
		PrintConsoleReport(summary)
	}

	return nil
}

// -------------- Metrics server --------------

// startMetricsServer initializes and starts the metrics HTTP server
func (a *App) startMetricsServer(port string, useTLS bool) *http.Server {
	mux := http.NewServeMux()

	var handler http.Handler = promhttp.Handler()
	if a.Config.MetricsAuth {
		handler = basicAuthMiddleware(handler, a.Config.MetricsUsername, a.Config.MetricsPassword)
	}
	handler = rateLimitMiddleware(handler, rate.NewLimiter(5, 10))
	handler = loggerMiddleware(handler, a.Logger)

	mux.Handle("/metrics", handler)
	mux.HandleFunc("/health", healthCheckHandler)
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ftprobe version %s\n", AppVersion)
	})

	var srv *http.Server

	if useTLS {
		certManager := autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			Cache:      autocert.DirCache("certs"),
			HostPolicy: autocert.HostWhitelist(a.Config.MetricsHostname),
		}

		srv = &http.Server{
			Addr:    ":" + port,
			Handler: mux,
			TLSConfig: &tls.Config{
				GetCertificate: certManager.GetCertificate,
				MinVersion:     tls.VersionTLS12,
			},
		}

		go func() {
			a.Logger.Info("Starting TLS metrics server", zap.String("port", port))
			if err := srv.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
				a.Logger.Error("Metrics server listen failed", zap.Error(err))
			}
		}()
	} else {
		srv = &http.Server{
			Addr:    ":" + port,
			Handler: mux,
		}

		go func() {
			a.Logger.Info("Starting metrics server", zap.String("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.Logger.Error("Metrics server listen failed", zap.Error(err))
			}
		}()
	}

	return srv
}

// -------------- HTTP Middleware --------------

// basicAuthMiddleware adds basic authentication to an HTTP handler
func basicAuthMiddleware(next http.Handler, username, password string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != username || pass != password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware adds rate limiting to an HTTP handler
func rateLimitMiddleware(next http.Handler, limiter *rate.Limiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggerMiddleware adds request logging to an HTTP handler
func loggerMiddleware(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{w, http.StatusOK}
		next.ServeHTTP(rw, r)

		logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", rw.statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// responseWriter is a custom response writer that captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// healthCheckHandler responds to health check requests
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
