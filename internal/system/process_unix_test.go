//go:build unix

package system

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

// TestHelperProcess is not a real test. It is re-executed as a child
// process by the tests below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}

	switch args[1] {
	case "echo":
		fmt.Fprintln(os.Stdout, "out line")
		fmt.Fprintln(os.Stderr, "err line")
		os.Exit(0)
	case "sleep":
		fmt.Fprintln(os.Stdout, "ready")
		time.Sleep(time.Minute)
		os.Exit(0)
	}
	os.Exit(3)
}

func helperCommand(mode string) Command {
	return Command{
		Path: os.Args[0],
		Args: []string{"-test.run=TestHelperProcess", "--", mode},
		Env:  []string{"GO_WANT_HELPER_PROCESS=1"},
	}
}

func TestOSSpawner_CombinedOutput(t *testing.T) {
	proc, err := DefaultSpawner().Spawn(context.Background(), helperCommand("echo"))
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	var lines []string
	scanner := bufio.NewScanner(proc.Output())
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if err := <-done; err != nil {
		t.Errorf("Wait error: %v", err)
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "out line") || !strings.Contains(joined, "err line") {
		t.Errorf("output = %q, want both stdout and stderr lines", joined)
	}
}

func TestOSSpawner_Terminate(t *testing.T) {
	proc, err := DefaultSpawner().Spawn(context.Background(), helperCommand("sleep"))
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	scanner := bufio.NewScanner(proc.Output())
	if !scanner.Scan() || scanner.Text() != "ready" {
		t.Fatalf("expected ready line, got %q", scanner.Text())
	}
	go func() {
		for scanner.Scan() {
		}
	}()

	if err := proc.Terminate(); err != nil {
		t.Fatalf("Terminate error: %v", err)
	}

	select {
	case err := <-done:
		if err == nil {
			t.Error("Wait should report the signal")
		}
	case <-time.After(10 * time.Second):
		proc.Kill()
		t.Fatal("process did not exit after Terminate")
	}

	if err := proc.Kill(); err != os.ErrProcessDone {
		t.Errorf("Kill after exit error = %v, want os.ErrProcessDone", err)
	}
}

func TestOSSpawner_NoSignalAfterWait(t *testing.T) {
	proc, err := DefaultSpawner().Spawn(context.Background(), helperCommand("echo"))
	if err != nil {
		t.Fatalf("Spawn error: %v", err)
	}
	go func() {
		scanner := bufio.NewScanner(proc.Output())
		for scanner.Scan() {
		}
	}()
	if err := proc.Wait(); err != nil {
		t.Fatalf("Wait error: %v", err)
	}

	// The pid may already belong to another process group.
	if err := proc.Terminate(); err != os.ErrProcessDone {
		t.Errorf("Terminate after Wait error = %v, want os.ErrProcessDone", err)
	}
	if err := proc.Kill(); err != os.ErrProcessDone {
		t.Errorf("Kill after Wait error = %v, want os.ErrProcessDone", err)
	}
}

func TestOSSpawner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := DefaultSpawner().Spawn(ctx, helperCommand("echo")); err == nil {
		t.Error("Spawn should fail with a cancelled context")
	}
}

func TestOSSpawner_MissingBinary(t *testing.T) {
	_, err := DefaultSpawner().Spawn(context.Background(), Command{Path: "/nonexistent/engine"})
	if err == nil {
		t.Error("Spawn should fail for a missing binary")
	}
}

func TestCommand_String(t *testing.T) {
	c := Command{Path: "/usr/bin/xray", Args: []string{"run", "-config", "/tmp/my profile.json"}}
	want := `/usr/bin/xray run -config '/tmp/my profile.json'`
	if got := c.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
