package system

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Exit errors reported by MockProcess.Wait after a signal.
var (
	ErrMockTerminated = errors.New("mock: terminated")
	ErrMockKilled     = errors.New("mock: killed")
)

// MockSpawner implements Spawner for testing.
type MockSpawner struct {
	mu sync.Mutex

	// Commands records every spawn request.
	Commands []Command

	// Processes holds the processes handed out, in order.
	Processes []*MockProcess

	// SpawnErr is returned by Spawn if set.
	SpawnErr error

	// OnSpawn runs against each new process before Spawn returns.
	OnSpawn func(*MockProcess)

	nextPid int
}

// NewMockSpawner creates a new MockSpawner.
func NewMockSpawner() *MockSpawner {
	return &MockSpawner{nextPid: 1000}
}

func (m *MockSpawner) Spawn(ctx context.Context, cmd Command) (Process, error) {
	m.mu.Lock()
	m.Commands = append(m.Commands, cmd)
	if m.SpawnErr != nil {
		err := m.SpawnErr
		m.mu.Unlock()
		return nil, err
	}
	m.nextPid++
	p := NewMockProcess(m.nextPid)
	m.Processes = append(m.Processes, p)
	hook := m.OnSpawn
	m.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	return p, nil
}

// LastCommand returns the most recent spawn request.
func (m *MockSpawner) LastCommand() (Command, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Commands) == 0 {
		return Command{}, false
	}
	return m.Commands[len(m.Commands)-1], true
}

// LastProcess returns the most recently spawned process.
func (m *MockSpawner) LastProcess() *MockProcess {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Processes) == 0 {
		return nil
	}
	return m.Processes[len(m.Processes)-1]
}

// MockProcess implements Process for testing. Output is fed with
// WriteLine; the process exits on Exit, Kill, or Terminate unless
// IgnoreTerminate is set.
type MockProcess struct {
	pid int
	pr  *io.PipeReader
	pw  *io.PipeWriter

	mu              sync.Mutex
	exitErr         error
	exited          chan struct{}
	once            sync.Once
	terminateCalls  int
	killCalls       int
	ignoreTerminate bool
}

// NewMockProcess creates a running MockProcess.
func NewMockProcess(pid int) *MockProcess {
	pr, pw := io.Pipe()
	return &MockProcess{
		pid:    pid,
		pr:     pr,
		pw:     pw,
		exited: make(chan struct{}),
	}
}

// IgnoreTerminate makes Terminate a no-op so only Kill ends the process.
func (p *MockProcess) IgnoreTerminate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ignoreTerminate = true
}

// WriteLine emits one line of output. It blocks until the line is read.
func (p *MockProcess) WriteLine(line string) error {
	_, err := io.WriteString(p.pw, line+"\n")
	return err
}

// Exit ends the process with err as the Wait result.
func (p *MockProcess) Exit(err error) {
	p.once.Do(func() {
		p.mu.Lock()
		p.exitErr = err
		p.mu.Unlock()
		p.pw.Close()
		close(p.exited)
	})
}

// Exited is closed once the process has ended.
func (p *MockProcess) Exited() <-chan struct{} {
	return p.exited
}

// TerminateCalls reports how often Terminate was called.
func (p *MockProcess) TerminateCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminateCalls
}

// KillCalls reports how often Kill was called.
func (p *MockProcess) KillCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killCalls
}

func (p *MockProcess) Pid() int {
	return p.pid
}

func (p *MockProcess) Output() io.ReadCloser {
	return p.pr
}

func (p *MockProcess) Terminate() error {
	p.mu.Lock()
	p.terminateCalls++
	ignore := p.ignoreTerminate
	p.mu.Unlock()

	if !ignore {
		p.Exit(ErrMockTerminated)
	}
	return nil
}

func (p *MockProcess) Kill() error {
	p.mu.Lock()
	p.killCalls++
	p.mu.Unlock()

	p.Exit(ErrMockKilled)
	return nil
}

func (p *MockProcess) Wait() error {
	<-p.exited
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErr
}
