package ftprobe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ProbeOutcome is the terminal classification of a connectivity check.
type ProbeOutcome struct {
	Reachable bool
	// Reason carries a human-readable explanation when the host was
	// unreachable. Empty for reachable hosts.
	Reason string
	// Latency is how long the TCP connect took for reachable hosts.
	Latency time.Duration
}

// Prober opens TCP connections to candidate FTP hosts to decide whether a
// login attempt is worth making at all.
type Prober struct {
	port    int
	timeout time.Duration
	logger  *zap.Logger
}

// NewProber creates a Prober for the given control port and dial timeout.
func NewProber(port int, timeout time.Duration, logger *zap.Logger) *Prober {
	return &Prober{
		port:    port,
		timeout: timeout,
		logger:  logger.With(zap.String("component", "prober")),
	}
}

// Probe attempts a single TCP connection to host on the configured port.
// The connection is closed immediately on success; every failure mode
// (refusal, timeout, DNS error, socket exhaustion) classifies the host as
// unreachable rather than surfacing an error. Probe blocks no longer than
// the configured timeout plus scheduling overhead.
func (p *Prober) Probe(ctx context.Context, host string) ProbeOutcome {
	address := net.JoinHostPort(host, strconv.Itoa(p.port))
	dialer := net.Dialer{Timeout: p.timeout}

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", address)
	latency := time.Since(start)

	if err != nil {
		p.logger.Debug("Host unreachable",
			zap.String("host", host),
			zap.String("address", address),
			zap.Error(err),
		)
		return ProbeOutcome{Reachable: false, Reason: probeFailureReason(err)}
	}
	conn.Close()

	p.logger.Debug("Host reachable",
		zap.String("host", host),
		zap.Duration("latency", latency),
	)
	return ProbeOutcome{Reachable: true, Latency: latency}
}

// probeFailureReason condenses a dial error into the reason string recorded
// in the scan summary.
func probeFailureReason(err error) string {
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		return fmt.Sprintf("connection timed out: %v", err)
	}
	return fmt.Sprintf("connection failed: %v", err)
}
