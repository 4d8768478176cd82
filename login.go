package ftprobe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gonzalop/ftp"
	"go.uber.org/zap"
)

// anonUser and anonPassword are the credentials offered during the anonymous
// exchange. Servers configured for public access accept any password for the
// reserved anonymous account; this placeholder matches long-standing scanner
// convention.
const (
	anonUser     = "anonymous"
	anonPassword = "ilove@you.com"
)

// LoginStatus classifies the outcome of the anonymous-login phase.
type LoginStatus int

const (
	// LoginSkipped means no login was attempted (host unreachable or
	// check-only mode).
	LoginSkipped LoginStatus = iota
	// LoginSucceeded means the server accepted the anonymous credentials.
	LoginSucceeded
	// LoginFailed means every attempt was rejected or errored.
	LoginFailed
)

// String returns a printable name for the status.
func (s LoginStatus) String() string {
	switch s {
	case LoginSucceeded:
		return "succeeded"
	case LoginFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// LoginOutcome is the terminal classification of the login phase for one
// host. Response carries the server's reply text on failure, or an
// acceptance note on success.
type LoginOutcome struct {
	Status   LoginStatus
	Response string
	Attempts int
}

// AnonClient performs anonymous FTP control-channel exchanges.
type AnonClient struct {
	port       int
	timeout    time.Duration
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewAnonClient creates an AnonClient. retryDelay is the fixed pause between
// failed attempts when the client is driven through LoginWithRetry.
func NewAnonClient(port int, timeout, retryDelay time.Duration, logger *zap.Logger) *AnonClient {
	return &AnonClient{
		port:       port,
		timeout:    timeout,
		retryDelay: retryDelay,
		logger:     logger.With(zap.String("component", "anon_login")),
	}
}

// Attempt opens a fresh control connection to host and performs one
// anonymous login exchange. The connection is always released before Attempt
// returns, whether or not the exchange succeeded: a successful login ends
// with a clean QUIT, a failed one tears the connection down as-is.
func (c *AnonClient) Attempt(ctx context.Context, host string) LoginOutcome {
	address := net.JoinHostPort(host, strconv.Itoa(c.port))

	client, err := ftp.Dial(address, ftp.WithTimeout(c.timeout))
	if err != nil {
		c.logger.Debug("FTP dial failed",
			zap.String("host", host),
			zap.Error(err),
		)
		return LoginOutcome{Status: LoginFailed, Response: loginFailureReason(err), Attempts: 1}
	}

	if err := client.Login(anonUser, anonPassword); err != nil {
		// Best-effort release; the server already rejected us, so a
		// failed QUIT here is of no consequence.
		client.Quit()
		return LoginOutcome{Status: LoginFailed, Response: loginFailureReason(err), Attempts: 1}
	}

	if err := client.Quit(); err != nil {
		c.logger.Debug("QUIT after successful login failed",
			zap.String("host", host),
			zap.Error(err),
		)
	}

	return LoginOutcome{
		Status:   LoginSucceeded,
		Response: "anonymous login accepted",
		Attempts: 1,
	}
}

// LoginWithRetry drives Attempt up to maxAttempts times with a fixed delay
// between failed attempts. It returns on the first success; after the final
// failure only the most recent diagnostic is kept. maxAttempts below 1 is
// treated as 1; callers that want to skip the login phase entirely must not
// invoke LoginWithRetry at all.
func (c *AnonClient) LoginWithRetry(ctx context.Context, host string, maxAttempts int) LoginOutcome {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var last LoginOutcome
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		last = c.Attempt(ctx, host)
		last.Attempts = attempt
		if last.Status == LoginSucceeded {
			c.logger.Info("Anonymous login succeeded",
				zap.String("host", host),
				zap.Int("attempt", attempt),
			)
			return last
		}

		if attempt < maxAttempts {
			c.logger.Warn("Anonymous login attempt failed, retrying",
				zap.String("host", host),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.String("reason", last.Response),
			)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return last
			}
		}
	}

	c.logger.Info("Anonymous login failed",
		zap.String("host", host),
		zap.Int("attempts", last.Attempts),
		zap.String("reason", last.Response),
	)
	return last
}

// loginFailureReason extracts the most useful diagnostic from a login error:
// the server's own reply line when the failure happened at the protocol
// level, otherwise the transport error text.
func loginFailureReason(err error) string {
	var perr *ftp.ProtocolError
	if errors.As(err, &perr) && perr.Response != "" {
		return perr.Response
	}
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		return fmt.Sprintf("login timed out: %v", err)
	}
	return err.Error()
}
