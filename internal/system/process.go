package system

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logging"
)

// waitDelay bounds how long Wait blocks on output copying after the
// process itself has exited.
const waitDelay = 3 * time.Second

// Command describes a process to spawn.
type Command struct {
	Path string
	Args []string
	// Env is appended to the current environment.
	Env []string
	Dir string
}

// String renders the command as a shell-quoted line.
func (c Command) String() string {
	return shellquote.Join(append([]string{c.Path}, c.Args...)...)
}

// Spawner starts long-running child processes.
type Spawner interface {
	// Spawn starts cmd in its own process group. The context only guards
	// the start; cancelling it later does not affect the process.
	Spawn(ctx context.Context, cmd Command) (Process, error)
}

// Process is a running child with combined stdout and stderr.
type Process interface {
	Pid() int

	// Output yields the combined output. It reaches EOF once the process
	// has exited and Wait has returned. Closing it discards further output.
	Output() io.ReadCloser

	// Terminate asks the process group to exit (SIGTERM on unix).
	Terminate() error

	// Kill forcibly ends the process group.
	Kill() error

	// Wait blocks until the process exits. Safe to call more than once.
	Wait() error
}

// osSpawner implements Spawner using os/exec.
type osSpawner struct{}

func (s *osSpawner) Spawn(ctx context.Context, c Command) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	// A single pipe for both streams keeps their relative order.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.WaitDelay = waitDelay
	setupProcessGroup(cmd)

	logging.Debug("spawning process", "cmd", c.String())
	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, err
	}

	return &osProcess{cmd: cmd, out: pr, pw: pw}, nil
}

type osProcess struct {
	cmd *exec.Cmd
	out *io.PipeReader
	pw  *io.PipeWriter

	waitOnce sync.Once
	waitErr  error

	// mu orders signals against reaping so a recycled pid is never hit.
	mu     sync.Mutex
	exited bool
}

func (p *osProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *osProcess) Output() io.ReadCloser {
	return p.out
}

func (p *osProcess) Terminate() error {
	return p.signal(false)
}

func (p *osProcess) Kill() error {
	return p.signal(true)
}

func (p *osProcess) signal(kill bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return os.ErrProcessDone
	}
	return signalGroup(p.cmd, kill)
}

func (p *osProcess) Wait() error {
	p.waitOnce.Do(func() {
		waitExited(p.cmd.Process.Pid)
		p.mu.Lock()
		p.exited = true
		p.mu.Unlock()

		p.waitErr = p.cmd.Wait()
		p.pw.Close()
	})
	return p.waitErr
}
