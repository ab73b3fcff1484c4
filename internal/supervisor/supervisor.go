package supervisor

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logstream"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/profile"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/system"
)

// Defaults for New.
const (
	DefaultEngine      = "xray"
	DefaultConfigFlag  = "-config"
	DefaultStopTimeout = 5 * time.Second
)

// State is the supervisor's externally visible state.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// ProfileSource resolves profile names to stored profiles.
type ProfileSource interface {
	Get(name string) (*profile.Profile, error)
}

// SessionInfo describes the running session.
type SessionInfo struct {
	Profile    string
	ConfigPath string
	PID        int
	StartedAt  time.Time
}

type session struct {
	info     SessionInfo
	proc     system.Process
	streamer *logstream.Streamer
	cancel   context.CancelFunc

	// waitErr is written before waitDone is closed.
	waitDone chan struct{}
	waitErr  error
}

// Supervisor runs at most one engine process at a time.
type Supervisor struct {
	profiles     ProfileSource
	spawner      system.Spawner
	fs           system.FileSystem
	engine       string
	engineArgs   []string
	configFlag   string
	env          []string
	stopTimeout  time.Duration
	startupGrace time.Duration

	obsMu     sync.RWMutex
	observers []Observer

	mu      sync.Mutex
	current *session
	// starting is the session waiting out the startup grace period.
	// s.mu is not held during that wait.
	starting *session
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithSpawner sets the process spawner.
func WithSpawner(sp system.Spawner) Option {
	return func(s *Supervisor) {
		s.spawner = sp
	}
}

// WithFileSystem sets the file system used to check config files.
func WithFileSystem(fsys system.FileSystem) Option {
	return func(s *Supervisor) {
		s.fs = fsys
	}
}

// WithEngine sets the engine binary and arguments placed before the
// config flag.
func WithEngine(binary string, args ...string) Option {
	return func(s *Supervisor) {
		if binary != "" {
			s.engine = binary
		}
		s.engineArgs = append([]string(nil), args...)
	}
}

// WithConfigFlag sets the flag that precedes the config path.
func WithConfigFlag(flag string) Option {
	return func(s *Supervisor) {
		if flag != "" {
			s.configFlag = flag
		}
	}
}

// WithEnv adds KEY=value entries to the engine environment.
func WithEnv(env ...string) Option {
	return func(s *Supervisor) {
		s.env = append(s.env, env...)
	}
}

// WithStopTimeout sets how long Stop waits after SIGTERM before killing.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.stopTimeout = d
		}
	}
}

// WithStartupGrace makes Start wait d and fail if the engine exits within
// that window. Zero disables the check. While Start waits, Status reports
// Stopped, a second Start fails and Stop aborts the pending start.
func WithStartupGrace(d time.Duration) Option {
	return func(s *Supervisor) {
		s.startupGrace = d
	}
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(s *Supervisor) {
		s.observers = append(s.observers, o)
	}
}

// New creates a stopped Supervisor.
func New(profiles ProfileSource, opts ...Option) *Supervisor {
	s := &Supervisor{
		profiles:    profiles,
		spawner:     system.DefaultSpawner(),
		fs:          system.DefaultFS(),
		engine:      DefaultEngine,
		configFlag:  DefaultConfigFlag,
		stopTimeout: DefaultStopTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddObserver registers an observer after construction.
func (s *Supervisor) AddObserver(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

// Status reports whether an engine is running.
func (s *Supervisor) Status() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return Running
	}
	return Stopped
}

// Info returns the running session, if any.
func (s *Supervisor) Info() (SessionInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return SessionInfo{}, false
	}
	return s.current.info, true
}

// Start launches the engine for the named profile.
func (s *Supervisor) Start(ctx context.Context, name string) error {
	s.mu.Lock()

	if s.current != nil {
		s.mu.Unlock()
		return errors.StateError("engine is already running with profile " + s.current.info.Profile)
	}
	if s.starting != nil {
		s.mu.Unlock()
		return errors.StateError("engine is starting with profile " + s.starting.info.Profile)
	}

	p, err := s.profiles.Get(name)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.fs.Exists(p.Path) {
		s.mu.Unlock()
		return errors.New(errors.ExitProfileNotFound, "config file not found: "+p.Path)
	}

	args := make([]string, 0, len(s.engineArgs)+2)
	args = append(args, s.engineArgs...)
	args = append(args, s.configFlag, p.Path)
	cmd := system.Command{Path: s.engine, Args: args, Env: s.env}

	proc, err := s.spawner.Spawn(ctx, cmd)
	if err != nil {
		s.mu.Unlock()
		perr := errors.ProcessError("failed to start engine "+s.engine, err)
		s.emit(Event{Type: EventFailed, Profile: p.Name, Time: time.Now(), Err: perr})
		return perr
	}

	sess := s.newSession(p, proc)

	if s.startupGrace > 0 {
		s.starting = sess
		s.mu.Unlock()
		err := s.awaitGrace(ctx, sess)
		s.mu.Lock()
		s.starting = nil
		if err == nil {
			// A Stop during the wait may have ended the engine just as the
			// grace period ran out.
			select {
			case <-sess.waitDone:
				err = errors.ProcessError("engine stopped during startup", sess.waitErr)
			default:
			}
		}
		if err != nil {
			s.mu.Unlock()
			s.emit(Event{Type: EventFailed, Profile: p.Name, PID: sess.info.PID, Time: time.Now(), Err: err})
			return err
		}
	}

	s.current = sess
	s.mu.Unlock()

	logging.Info("engine started", "profile", p.Name, "pid", sess.info.PID, "cmd", cmd.String())
	s.emit(Event{Type: EventStarted, Profile: p.Name, PID: sess.info.PID, Time: sess.info.StartedAt})
	return nil
}

// newSession attaches a fresh streamer and exit watcher to proc.
func (s *Supervisor) newSession(p *profile.Profile, proc system.Process) *session {
	streamCtx, cancel := context.WithCancel(context.Background())
	sess := &session{
		info: SessionInfo{
			Profile:    p.Name,
			ConfigPath: p.Path,
			PID:        proc.Pid(),
			StartedAt:  time.Now(),
		},
		proc:     proc,
		cancel:   cancel,
		waitDone: make(chan struct{}),
	}
	name := p.Name
	sess.streamer = logstream.New(proc.Output(), logstream.SinkFunc(func(line string) {
		s.emitLine(name, line)
	}))

	go func() {
		sess.streamer.Run(streamCtx)
		if streamCtx.Err() == nil {
			// The stream ended on its own (EOF or a read error). Keep the
			// pipe drained so the engine never writes into a closed pipe.
			io.Copy(io.Discard, proc.Output())
		}
		// Unblock any writer still feeding the pipe.
		proc.Output().Close()
	}()
	go s.watch(sess)
	return sess
}

// awaitGrace fails if the engine exits before the grace period ends.
// Called without s.mu held; Status and Info report Stopped meanwhile.
func (s *Supervisor) awaitGrace(ctx context.Context, sess *session) error {
	timer := time.NewTimer(s.startupGrace)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-sess.waitDone:
		<-sess.streamer.Done()
		sess.cancel()
		return errors.ProcessError("engine exited during startup", sess.waitErr)
	case <-ctx.Done():
		s.terminate(sess)
		return errors.ProcessError("start cancelled", ctx.Err())
	}
}

// watch owns proc.Wait. If the session is still current when the process
// exits, the engine went away on its own.
func (s *Supervisor) watch(sess *session) {
	sess.waitErr = sess.proc.Wait()
	close(sess.waitDone)
	<-sess.streamer.Done()

	s.mu.Lock()
	if s.current != sess {
		s.mu.Unlock()
		return
	}
	s.current = nil
	sess.cancel()
	s.mu.Unlock()

	logging.Warn("engine exited", "profile", sess.info.Profile, "pid", sess.info.PID, "error", sess.waitErr)
	s.emit(Event{Type: EventExited, Profile: sess.info.Profile, PID: sess.info.PID, Time: time.Now(), Err: sess.waitErr})
}

// Stop terminates the running engine and waits for it and its output to
// finish. Stopping an idle supervisor is a StateError with no side effects.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if pending := s.starting; pending != nil {
		// Abort the start; Start reports the failure.
		s.terminate(pending)
		s.mu.Unlock()
		logging.Info("engine start aborted", "profile", pending.info.Profile, "pid", pending.info.PID)
		return nil
	}
	sess := s.current
	if sess == nil {
		s.mu.Unlock()
		return errors.StateError("engine is not running")
	}
	s.terminate(sess)
	s.current = nil
	s.mu.Unlock()

	logging.Info("engine stopped", "profile", sess.info.Profile, "pid", sess.info.PID)
	s.emit(Event{Type: EventStopped, Profile: sess.info.Profile, PID: sess.info.PID, Time: time.Now(), Err: sess.waitErr})
	return nil
}

// terminate ends sess: SIGTERM, bounded wait, SIGKILL, then waits for exit
// and for the streamer to drain. A process that has already been reaped is
// not signalled.
func (s *Supervisor) terminate(sess *session) {
	sess.cancel()

	select {
	case <-sess.waitDone:
		<-sess.streamer.Done()
		return
	default:
	}

	if err := sess.proc.Terminate(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logging.Warn("failed to signal engine", "pid", sess.info.PID, "error", err)
	}

	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()
	select {
	case <-sess.waitDone:
	case <-timer.C:
		logging.Warn("engine did not exit in time, killing", "pid", sess.info.PID, "timeout", s.stopTimeout)
		if err := sess.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			logging.Warn("failed to kill engine", "pid", sess.info.PID, "error", err)
		}
		<-sess.waitDone
	}
	<-sess.streamer.Done()
}

// Close stops the engine if it is running.
func (s *Supervisor) Close() error {
	if err := s.Stop(); err != nil && !errors.HasCode(err, errors.ExitState) {
		return err
	}
	return nil
}

func (s *Supervisor) snapshotObservers() []Observer {
	s.obsMu.RLock()
	defer s.obsMu.RUnlock()
	return append([]Observer(nil), s.observers...)
}

func (s *Supervisor) emit(ev Event) {
	for _, o := range s.snapshotObservers() {
		o.OnEvent(ev)
	}
}

func (s *Supervisor) emitLine(profile, line string) {
	for _, o := range s.snapshotObservers() {
		o.OnLine(profile, line)
	}
}
