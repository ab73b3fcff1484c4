package health

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/proxy"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/engineconf"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/supervisor"
)

// Status represents the health of the local proxy.
type Status string

const (
	StatusHealthy     Status = "healthy"
	StatusUnhealthy   Status = "unhealthy"
	StatusUnreachable Status = "unreachable"
	StatusStopped     Status = "stopped"

	// DefaultTimeout bounds each dial made by a check.
	DefaultTimeout = 3 * time.Second
)

// ListenAddress is where synthesized configs put the SOCKS inbound.
var ListenAddress = net.JoinHostPort(engineconf.ListenAddress, strconv.Itoa(engineconf.ListenPort))

// SessionSource reports the running engine session.
type SessionSource interface {
	Info() (supervisor.SessionInfo, bool)
}

// CheckOptions holds options for health checking.
type CheckOptions struct {
	// Address of the local SOCKS listener. Defaults to ListenAddress.
	Address string
	// ProbeTarget is a host:port reached through the proxy. Empty skips
	// the probe.
	ProbeTarget string
	Timeout     time.Duration
}

func (o CheckOptions) withDefaults() CheckOptions {
	if o.Address == "" {
		o.Address = ListenAddress
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// CheckResult contains the results of health checks
type CheckResult struct {
	Running           bool
	Profile           string
	PID               int
	Uptime            string
	ListenerReachable bool
	Probed            bool
	ProbeLatency      time.Duration
	ProbeErr          error
}

// Status summarizes the result.
func (r *CheckResult) Status() Status {
	switch {
	case !r.Running:
		return StatusStopped
	case !r.ListenerReachable:
		return StatusUnreachable
	case r.Probed && r.ProbeErr != nil:
		return StatusUnhealthy
	}
	return StatusHealthy
}

// CheckListener verifies that something accepts TCP connections at addr.
func CheckListener(ctx context.Context, addr string, timeout time.Duration) error {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Probe opens a connection to target through the SOCKS5 proxy at
// proxyAddr and reports how long the handshake took.
func Probe(ctx context.Context, proxyAddr, target string, timeout time.Duration) (time.Duration, error) {
	d, err := proxy.SOCKS5("tcp", proxyAddr, nil, &net.Dialer{Timeout: timeout})
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var conn net.Conn
	if cd, ok := d.(proxy.ContextDialer); ok {
		conn, err = cd.DialContext(ctx, "tcp", target)
	} else {
		conn, err = d.Dial("tcp", target)
	}
	if err != nil {
		return 0, fmt.Errorf("probe %s via %s: %w", target, proxyAddr, err)
	}
	latency := time.Since(start)
	conn.Close()
	return latency, nil
}

// Uptime returns the time since start in human-readable format.
func Uptime(start time.Time) string {
	if start.IsZero() {
		return "unknown"
	}
	return formatDuration(time.Since(start))
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// Check performs all health checks for the running session.
func Check(ctx context.Context, sessions SessionSource, opts CheckOptions) *CheckResult {
	opts = opts.withDefaults()
	result := &CheckResult{}

	info, ok := sessions.Info()
	if !ok {
		return result
	}
	result.Running = true
	result.Profile = info.Profile
	result.PID = info.PID
	result.Uptime = Uptime(info.StartedAt)

	if err := CheckListener(ctx, opts.Address, opts.Timeout); err != nil {
		return result
	}
	result.ListenerReachable = true

	if opts.ProbeTarget != "" {
		result.Probed = true
		result.ProbeLatency, result.ProbeErr = Probe(ctx, opts.Address, opts.ProbeTarget, opts.Timeout)
	}
	return result
}
