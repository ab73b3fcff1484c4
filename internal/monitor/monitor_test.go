package monitor

import (
	"context"
	stderrors "errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/supervisor"
)

type fakeSupervisor struct {
	mu       sync.Mutex
	info     supervisor.SessionInfo
	running  bool
	starts   []string
	startErr error
}

func (f *fakeSupervisor) Info() (supervisor.SessionInfo, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info, f.running
}

func (f *fakeSupervisor) Start(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, name)
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	f.info = supervisor.SessionInfo{Profile: name, PID: 99, StartedAt: time.Now()}
	return nil
}

func (f *fakeSupervisor) exit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
}

func listener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen error: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return ln.Addr().String()
}

func TestMonitor_New(t *testing.T) {
	m := New(30*time.Second, &fakeSupervisor{})
	if m.interval != 30*time.Second {
		t.Errorf("interval = %v, want %v", m.interval, 30*time.Second)
	}
	if m.autoRestart {
		t.Error("autoRestart should default to false")
	}
	if m.auditLog != nil {
		t.Error("auditLog should default to nil")
	}
}

func TestMonitor_Options(t *testing.T) {
	auditLogger := audit.NewLogger(t.TempDir())

	m := New(60*time.Second, &fakeSupervisor{},
		WithAutoRestart(true),
		WithAuditLogger(auditLogger),
		WithCheckOptions(health.CheckOptions{ProbeTarget: "example.com:443"}),
	)

	if !m.autoRestart {
		t.Error("autoRestart should be true")
	}
	if m.auditLog == nil {
		t.Error("auditLog should be set")
	}
	if m.opts.ProbeTarget != "example.com:443" {
		t.Errorf("ProbeTarget = %q", m.opts.ProbeTarget)
	}
}

func TestMonitor_CheckStopped(t *testing.T) {
	stateDir := t.TempDir()
	m := New(time.Second, &fakeSupervisor{}, WithAuditLogger(audit.NewLogger(stateDir)))

	result := m.check(context.Background())
	if result.Status != health.StatusStopped {
		t.Errorf("status = %q, want stopped", result.Status)
	}
	if result.Profile != "" {
		t.Errorf("profile = %q, want empty", result.Profile)
	}
}

func TestMonitor_CheckRecordsTransitions(t *testing.T) {
	stateDir := t.TempDir()
	auditLogger := audit.NewLogger(stateDir)
	sup := &fakeSupervisor{running: true, info: supervisor.SessionInfo{Profile: "Home", PID: 7, StartedAt: time.Now()}}

	var reported []CheckResult
	m := New(time.Second, sup,
		WithAuditLogger(auditLogger),
		WithCheckOptions(health.CheckOptions{Address: listener(t), Timeout: time.Second}),
		WithReporter(func(r CheckResult) { reported = append(reported, r) }),
	)

	ctx := context.Background()
	m.check(ctx)
	m.check(ctx)
	sup.exit()
	m.check(ctx)

	if len(reported) != 3 {
		t.Fatalf("reported %d results, want 3", len(reported))
	}
	if reported[0].Status != health.StatusHealthy {
		t.Errorf("first status = %q, want healthy", reported[0].Status)
	}
	if reported[2].Status != health.StatusStopped || reported[2].Profile != "Home" {
		t.Errorf("last result = %+v, want stopped for Home", reported[2])
	}

	events, err := auditLogger.Events("Home")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d audit events, want 2 (one per transition)", len(events))
	}
	if events[0].Type != audit.EventHealth || events[0].Details != "healthy" {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Details != "stopped" {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestMonitor_AutoRestart(t *testing.T) {
	sup := &fakeSupervisor{running: true, info: supervisor.SessionInfo{Profile: "Home", PID: 7}}
	auditLogger := audit.NewLogger(t.TempDir())
	m := New(time.Second, sup,
		WithAutoRestart(true),
		WithAuditLogger(auditLogger),
		WithCheckOptions(health.CheckOptions{Address: listener(t), Timeout: time.Second}),
	)

	ctx := context.Background()
	m.check(ctx)
	sup.exit()
	m.check(ctx)

	if len(sup.starts) != 1 || sup.starts[0] != "Home" {
		t.Errorf("starts = %v, want [Home]", sup.starts)
	}
	if _, ok := sup.Info(); !ok {
		t.Error("session should be running again")
	}
}

func TestMonitor_AutoRestartFailure(t *testing.T) {
	sup := &fakeSupervisor{running: true, info: supervisor.SessionInfo{Profile: "Home"}}
	sup.startErr = stderrors.New("spawn failed")
	auditLogger := audit.NewLogger(t.TempDir())
	m := New(time.Second, sup,
		WithAutoRestart(true),
		WithAuditLogger(auditLogger),
		WithCheckOptions(health.CheckOptions{Address: listener(t), Timeout: time.Second}),
	)

	ctx := context.Background()
	m.check(ctx)
	sup.exit()
	m.check(ctx)

	events, _ := auditLogger.Events("Home")
	last := events[len(events)-1]
	if last.Type != audit.EventError {
		t.Errorf("last event type = %q, want error", last.Type)
	}
}

func TestMonitor_NoRestartWithoutHistory(t *testing.T) {
	sup := &fakeSupervisor{}
	m := New(time.Second, sup, WithAutoRestart(true))

	m.check(context.Background())
	if len(sup.starts) != 0 {
		t.Errorf("starts = %v, want none", sup.starts)
	}
}

func TestMonitor_RunCancellation(t *testing.T) {
	m := New(100*time.Millisecond, &fakeSupervisor{})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
	}()

	// Let it run briefly then cancel
	time.Sleep(250 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after context cancellation")
	}
}
