package ftprobe

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// HostResult is the terminal classification for one host. It is produced
// exactly once per host and never mutated afterwards; only the coordinator's
// result collection holds it.
type HostResult struct {
	Host  string
	Probe ProbeOutcome
	Login LoginOutcome
}

// ScanSummary partitions all HostResults into four disjoint host-name
// buckets. Every host lands in exactly one of Reachable/Unreachable, and a
// reachable host whose login was attempted lands in exactly one of
// AnonLoginOK/AnonLoginFailed. Per-bucket order follows completion order.
type ScanSummary struct {
	Reachable       []string
	Unreachable     []string
	AnonLoginOK     []string
	AnonLoginFailed []string

	Results    []HostResult
	TotalHosts int
	Duration   time.Duration
}

// ProgressFunc observes scan progress as hosts finish. It is purely
// observational: implementations must not touch the result collection.
type ProgressFunc func(completed, total int)

// Scanner orchestrates the per-host pipeline (normalize, probe, retrying
// anonymous login) across a bounded worker pool.
type Scanner struct {
	config  *Config
	logger  *zap.Logger
	metrics *Metrics

	prober *Prober
	anon   *AnonClient
	cache  *ResultCache

	scanSemaphore *semaphore.Weighted
	limiter       *rate.Limiter

	// OnProgress, when set, is called after each host completes.
	OnProgress ProgressFunc

	// processFn lets tests stand in for the network-bound pipeline.
	processFn func(ctx context.Context, raw string) HostResult
}

// NewScanner creates a Scanner instance. metrics may be nil when metrics are
// disabled.
func NewScanner(config *Config, logger *zap.Logger, metrics *Metrics) *Scanner {
	timeout := time.Duration(config.ScanTimeout) * time.Second
	retryDelay := time.Duration(config.RetryDelay) * time.Second

	var cache *ResultCache
	if config.EnableCaching {
		c, err := NewResultCache(time.Duration(config.CacheTTL)*time.Minute, logger)
		if err != nil {
			logger.Warn("Result cache disabled", zap.Error(err))
		} else {
			cache = c
		}
	}

	s := &Scanner{
		config:        config,
		logger:        logger.With(zap.String("component", "scanner")),
		metrics:       metrics,
		prober:        NewProber(config.FTPPort, timeout, logger),
		anon:          NewAnonClient(config.FTPPort, timeout, retryDelay, logger),
		cache:         cache,
		scanSemaphore: semaphore.NewWeighted(int64(config.ConcurrentScans)),
		limiter:       rate.NewLimiter(rate.Limit(config.ConcurrentScans*2), config.ConcurrentScans*4),
	}
	s.processFn = s.ProcessHost
	return s
}

// ProcessHost runs the full pipeline for one raw host token: normalize,
// probe, and, when the host is reachable and logins are wanted, the retrying
// anonymous login. Every failure mode is captured in the returned HostResult;
// ProcessHost never propagates an error.
func (s *Scanner) ProcessHost(ctx context.Context, raw string) HostResult {
	host := Normalize(raw)

	result := HostResult{Host: host}
	result.Probe = s.prober.Probe(ctx, host)

	if !result.Probe.Reachable {
		s.logger.Info("Host unreachable",
			zap.String("host", host),
			zap.String("reason", result.Probe.Reason),
		)
		result.Login = LoginOutcome{Status: LoginSkipped}
		return result
	}

	s.logger.Info("Host reachable",
		zap.String("host", host),
		zap.Duration("latency", result.Probe.Latency),
	)
	if s.metrics != nil {
		s.metrics.ProbeLatency.WithLabelValues(host).Observe(float64(result.Probe.Latency.Milliseconds()))
	}

	// Retries of zero means connectivity checking only, same as the
	// explicit check-only flag.
	if s.config.CheckOnly || s.config.Retries == 0 {
		result.Login = LoginOutcome{Status: LoginSkipped}
		return result
	}

	result.Login = s.anon.LoginWithRetry(ctx, host, s.config.Retries)
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(result.Login.Status.String()).Add(float64(result.Login.Attempts))
	}
	return result
}

// Run dispatches every host to the pipeline through a fixed-size worker
// pool, collects the results, and partitions them into the final summary.
// A failure on one host never aborts the others; Run only returns an error
// for an empty host list.
func (s *Scanner) Run(ctx context.Context, hosts []string) (*ScanSummary, error) {
	if len(hosts) == 0 {
		return nil, NewAppError(ErrEmptyHostList, ErrCodeInput, "no hosts to scan", "scanner", "run")
	}

	start := time.Now()
	total := len(hosts)

	s.logger.Info("Starting scan",
		zap.Int("hosts", total),
		zap.Int("concurrency", s.config.ConcurrentScans),
		zap.Bool("check_only", s.config.CheckOnly),
	)

	var (
		results   []HostResult
		completed int
		mu        sync.Mutex
		wg        sync.WaitGroup
	)

	hostChan := make(chan string, total)

	for i := 0; i < s.config.ConcurrentScans; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for raw := range hostChan {
				select {
				case <-ctx.Done():
					// Cooperative cancellation: drain remaining
					// jobs without processing them.
					continue
				default:
				}

				if err := s.limiter.Wait(ctx); err != nil {
					s.logger.Warn("Rate limiter interrupted", zap.Error(err))
					continue
				}
				if err := s.scanSemaphore.Acquire(ctx, 1); err != nil {
					s.logger.Warn("Failed to acquire scan slot", zap.Error(err))
					continue
				}

				if s.metrics != nil {
					s.metrics.InFlightProbes.Inc()
				}
				result := s.lookupOrProcess(ctx, raw)
				if s.metrics != nil {
					s.metrics.InFlightProbes.Dec()
				}
				s.scanSemaphore.Release(1)

				mu.Lock()
				results = append(results, result)
				completed++
				done := completed
				mu.Unlock()

				s.reportProgress(done, total)
			}
		}(i)
	}

	for _, host := range hosts {
		hostChan <- host
	}
	close(hostChan)

	wg.Wait()

	summary := buildSummary(results, total, time.Since(start))

	s.logger.Info("Scan completed",
		zap.Duration("duration", summary.Duration),
		zap.Int("reachable", len(summary.Reachable)),
		zap.Int("unreachable", len(summary.Unreachable)),
		zap.Int("anon_login_ok", len(summary.AnonLoginOK)),
		zap.Int("anon_login_failed", len(summary.AnonLoginFailed)),
	)
	if s.metrics != nil {
		s.metrics.ScanDuration.Observe(summary.Duration.Seconds())
	}

	return summary, nil
}

// lookupOrProcess consults the result cache before running the pipeline.
// Tokens that normalize to the same host share one probe per run.
func (s *Scanner) lookupOrProcess(ctx context.Context, raw string) HostResult {
	host := Normalize(raw)
	if s.cache != nil {
		if cached := s.cache.Get(host); cached != nil {
			return *cached
		}
	}

	result := s.processFn(ctx, raw)

	if s.cache != nil {
		s.cache.Set(host, &result)
	}
	return result
}

// reportProgress forwards completion counts to the observer and the
// progress gauge.
func (s *Scanner) reportProgress(completed, total int) {
	if s.OnProgress != nil {
		s.OnProgress(completed, total)
	}
	if s.metrics != nil {
		s.metrics.ScanProgress.Set(float64(completed) / float64(total))
		s.metrics.HostsProcessed.Inc()
	}
}

// Close releases scanner-held resources.
func (s *Scanner) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

// buildSummary partitions the collected results into the four disjoint
// buckets. Bucket order follows completion order; hosts appearing more than
// once in the results (duplicate input tokens) are listed once per bucket.
func buildSummary(results []HostResult, total int, duration time.Duration) *ScanSummary {
	summary := &ScanSummary{
		Results:    results,
		TotalHosts: total,
		Duration:   duration,
	}

	seen := make(map[string]bool, len(results))
	for _, r := range results {
		if seen[r.Host] {
			continue
		}
		seen[r.Host] = true

		if !r.Probe.Reachable {
			summary.Unreachable = append(summary.Unreachable, r.Host)
			continue
		}
		summary.Reachable = append(summary.Reachable, r.Host)

		switch r.Login.Status {
		case LoginSucceeded:
			summary.AnonLoginOK = append(summary.AnonLoginOK, r.Host)
		case LoginFailed:
			summary.AnonLoginFailed = append(summary.AnonLoginFailed, r.Host)
		}
	}

	return summary
}
