package ftprobe

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestProbeReachableHost(t *testing.T) {
	server := newMockFTPServer(t, 0)

	prober := NewProber(server.Port(), 2*time.Second, zap.NewNop())
	outcome := prober.Probe(context.Background(), "127.0.0.1")

	if !outcome.Reachable {
		t.Fatalf("expected reachable, got unreachable: %s", outcome.Reason)
	}
	if outcome.Reason != "" {
		t.Errorf("reachable outcome should carry no reason, got %q", outcome.Reason)
	}
}

func TestProbeUnreachableHost(t *testing.T) {
	port := closedPort(t)

	prober := NewProber(port, 2*time.Second, zap.NewNop())
	outcome := prober.Probe(context.Background(), "127.0.0.1")

	if outcome.Reachable {
		t.Fatal("expected unreachable for closed port")
	}
	if outcome.Reason == "" {
		t.Error("unreachable outcome must carry a reason")
	}
}

func TestProbeBoundedWait(t *testing.T) {
	timeout := 1 * time.Second
	prober := NewProber(closedPort(t), timeout, zap.NewNop())

	start := time.Now()
	outcome := prober.Probe(context.Background(), "127.0.0.1")
	elapsed := time.Since(start)

	if outcome.Reachable {
		t.Fatal("expected unreachable")
	}
	// Allow generous scheduling overhead on top of the dial timeout, but
	// never an indefinite hang.
	if elapsed > timeout+2*time.Second {
		t.Errorf("probe took %s, want at most timeout plus overhead", elapsed)
	}
}

func TestProbeDNSFailureIsUnreachable(t *testing.T) {
	prober := NewProber(21, 2*time.Second, zap.NewNop())
	outcome := prober.Probe(context.Background(), "no-such-host.invalid")

	if outcome.Reachable {
		t.Fatal("expected unreachable for unresolvable host")
	}
	if outcome.Reason == "" {
		t.Error("DNS failure must be reported as an unreachable reason")
	}
}
