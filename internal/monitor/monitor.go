// Package monitor provides background health monitoring for the engine session.
package monitor

import (
	"context"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/supervisor"
)

// Supervisor is the part of the supervisor the monitor needs.
type Supervisor interface {
	Info() (supervisor.SessionInfo, bool)
	Start(ctx context.Context, name string) error
}

// CheckResult holds the result of a single health check.
type CheckResult struct {
	Profile string
	Status  health.Status
	Health  *health.CheckResult
}

// Monitor periodically checks the health of the running session.
type Monitor struct {
	interval    time.Duration
	sup         Supervisor
	opts        health.CheckOptions
	autoRestart bool
	auditLog    *audit.Logger
	report      func(CheckResult)

	// lastProfile is the profile seen running by the previous check.
	lastProfile string
	lastStatus  health.Status
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithAutoRestart restarts the last seen profile when its engine is gone.
func WithAutoRestart(enabled bool) Option {
	return func(m *Monitor) {
		m.autoRestart = enabled
	}
}

// WithAuditLogger sets the audit logger for recording health events.
func WithAuditLogger(logger *audit.Logger) Option {
	return func(m *Monitor) {
		m.auditLog = logger
	}
}

// WithCheckOptions sets listener address, probe target and timeout.
func WithCheckOptions(opts health.CheckOptions) Option {
	return func(m *Monitor) {
		m.opts = opts
	}
}

// WithReporter is called with every check result.
func WithReporter(fn func(CheckResult)) Option {
	return func(m *Monitor) {
		m.report = fn
	}
}

// New creates a new Monitor.
func New(interval time.Duration, sup Supervisor, opts ...Option) *Monitor {
	m := &Monitor{
		interval: interval,
		sup:      sup,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the monitoring loop. It blocks until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	logging.Debug("starting health monitor", "interval", m.interval, "autoRestart", m.autoRestart)

	// Run an immediate check, then loop on interval.
	m.check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("health monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

// check performs one health check. Health events are recorded only when
// the status changes.
func (m *Monitor) check(ctx context.Context) CheckResult {
	h := health.Check(ctx, m.sup, m.opts)
	result := CheckResult{Profile: h.Profile, Status: h.Status(), Health: h}
	if result.Profile == "" {
		result.Profile = m.lastProfile
	}

	if result.Status != m.lastStatus && result.Profile != "" {
		details := string(result.Status)
		if h.ProbeErr != nil {
			details += ": " + h.ProbeErr.Error()
		}
		logging.Debug("health changed", "profile", result.Profile, "status", result.Status)
		if m.auditLog != nil {
			_ = m.auditLog.LogEvent(audit.EventHealth, result.Profile, details)
		}
	}
	m.lastStatus = result.Status

	if m.report != nil {
		m.report(result)
	}

	if h.Running {
		m.lastProfile = h.Profile
		return result
	}

	// Auto-restart a session that went away
	if m.autoRestart && m.lastProfile != "" && ctx.Err() == nil {
		name := m.lastProfile
		logging.UserInfo("Auto-restarting profile %s", name)
		if err := m.sup.Start(ctx, name); err != nil {
			logging.Warn("auto-restart failed", "profile", name, "error", err)
			if m.auditLog != nil {
				_ = m.auditLog.LogEvent(audit.EventError, name, "auto-restart failed: "+err.Error())
			}
		} else if m.auditLog != nil {
			_ = m.auditLog.LogEvent(audit.EventStart, name, "auto-restart")
		}
	}

	return result
}
