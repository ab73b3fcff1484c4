package health

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/supervisor"
)

func TestStatusConstants(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusUnhealthy, "unhealthy"},
		{StatusUnreachable, "unreachable"},
		{StatusStopped, "stopped"},
	}

	for _, tt := range tests {
		if string(tt.status) != tt.want {
			t.Errorf("Status %v = %q, want %q", tt.status, tt.status, tt.want)
		}
	}
}

func TestListenAddress(t *testing.T) {
	if ListenAddress != "127.0.0.1:10808" {
		t.Errorf("ListenAddress = %q, want 127.0.0.1:10808", ListenAddress)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{"seconds", 30 * time.Second, "30s"},
		{"one minute", 1 * time.Minute, "1m"},
		{"minutes", 45 * time.Minute, "45m"},
		{"one hour", 1 * time.Hour, "1h 0m"},
		{"hours and minutes", 2*time.Hour + 30*time.Minute, "2h 30m"},
		{"one day", 24 * time.Hour, "1d 0h"},
		{"days and hours", 3*24*time.Hour + 5*time.Hour, "3d 5h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.want {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.want)
			}
		})
	}
}

func TestUptime_Zero(t *testing.T) {
	if got := Uptime(time.Time{}); got != "unknown" {
		t.Errorf("Uptime(zero) = %q, want unknown", got)
	}
}

// serveSOCKS5 accepts connections and answers every no-auth CONNECT with
// the given reply code.
func serveSOCKS5(t *testing.T, reply byte) string {
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
			go handleSOCKS5(conn, reply)
		}
	}()
	return ln.Addr().String()
}

func handleSOCKS5(conn net.Conn, reply byte) {
	defer conn.Close()

	// Greeting: VER NMETHODS METHODS...
	hdr := make([]byte, 2)
	if _, err := io.ReadFull(conn, hdr); err != nil {
		return
	}
	if _, err := io.ReadFull(conn, make([]byte, hdr[1])); err != nil {
		return
	}
	conn.Write([]byte{5, 0})

	// Request: VER CMD RSV ATYP ADDR PORT
	req := make([]byte, 4)
	if _, err := io.ReadFull(conn, req); err != nil {
		return
	}
	var addrLen int
	switch req[3] {
	case 1:
		addrLen = 4
	case 4:
		addrLen = 16
	case 3:
		l := make([]byte, 1)
		if _, err := io.ReadFull(conn, l); err != nil {
			return
		}
		addrLen = int(l[0])
	}
	if _, err := io.ReadFull(conn, make([]byte, addrLen+2)); err != nil {
		return
	}

	resp := []byte{5, reply, 0, 1, 127, 0, 0, 1, 0, 0}
	binary.BigEndian.PutUint16(resp[8:], 10808)
	conn.Write(resp)
}

func TestCheckListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen error: %v", err)
	}
	addr := ln.Addr().String()

	if err := CheckListener(context.Background(), addr, time.Second); err != nil {
		t.Errorf("CheckListener error: %v", err)
	}

	ln.Close()
	if err := CheckListener(context.Background(), addr, time.Second); err == nil {
		t.Error("CheckListener should fail on a closed port")
	}
}

func TestProbe(t *testing.T) {
	addr := serveSOCKS5(t, 0)

	latency, err := Probe(context.Background(), addr, "example.com:443", time.Second)
	if err != nil {
		t.Fatalf("Probe error: %v", err)
	}
	if latency <= 0 {
		t.Errorf("latency = %v, want positive", latency)
	}
}

func TestProbe_Refused(t *testing.T) {
	// 0x05: connection refused by the remote end.
	addr := serveSOCKS5(t, 5)

	if _, err := Probe(context.Background(), addr, "example.com:443", time.Second); err == nil {
		t.Error("Probe should fail when the proxy refuses the connection")
	}
}

type fakeSessions struct {
	info supervisor.SessionInfo
	ok   bool
}

func (f fakeSessions) Info() (supervisor.SessionInfo, bool) { return f.info, f.ok }

func TestCheck(t *testing.T) {
	running := fakeSessions{
		info: supervisor.SessionInfo{Profile: "Home", PID: 42, StartedAt: time.Now().Add(-2 * time.Minute)},
		ok:   true,
	}
	healthy := serveSOCKS5(t, 0)
	refusing := serveSOCKS5(t, 5)

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen error: %v", err)
	}
	closedAddr := closed.Addr().String()
	closed.Close()

	tests := []struct {
		name     string
		sessions SessionSource
		opts     CheckOptions
		want     Status
	}{
		{"stopped", fakeSessions{}, CheckOptions{Address: healthy}, StatusStopped},
		{"listener down", running, CheckOptions{Address: closedAddr, Timeout: time.Second}, StatusUnreachable},
		{"listener only", running, CheckOptions{Address: healthy}, StatusHealthy},
		{"probe ok", running, CheckOptions{Address: healthy, ProbeTarget: "example.com:443"}, StatusHealthy},
		{"probe refused", running, CheckOptions{Address: refusing, ProbeTarget: "example.com:443"}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Check(context.Background(), tt.sessions, tt.opts)
			if got := result.Status(); got != tt.want {
				t.Errorf("Status() = %q, want %q (result %+v)", got, tt.want, result)
			}
		})
	}

	result := Check(context.Background(), running, CheckOptions{Address: healthy})
	if result.Profile != "Home" || result.PID != 42 || result.Uptime != "2m" {
		t.Errorf("result = %+v", result)
	}
}
