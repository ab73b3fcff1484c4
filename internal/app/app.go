package app

import (
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/engineconf"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/profile"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/supervisor"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/system"
)

// App holds the application dependencies
type App struct {
	// Paths holds the configured paths
	Paths *config.Paths

	// Settings is the loaded user configuration
	Settings *config.Settings

	// Store holds the saved profiles, loaded from Paths.ProfilesDir
	Store *profile.Store

	// Supervisor runs the engine for one profile at a time
	Supervisor *supervisor.Supervisor

	// Audit records profile and engine events under Paths.StateDir
	Audit *audit.Logger

	fs      system.FileSystem
	spawner system.Spawner
}

// Option is a function that configures the App
type Option func(*App)

// WithPaths sets custom paths
func WithPaths(paths *config.Paths) Option {
	return func(a *App) {
		a.Paths = paths
	}
}

// WithSettings sets the settings instead of reading Paths.ConfigFile
func WithSettings(s *config.Settings) Option {
	return func(a *App) {
		a.Settings = s
	}
}

// WithFileSystem sets the filesystem used by the store and supervisor
func WithFileSystem(fsys system.FileSystem) Option {
	return func(a *App) {
		a.fs = fsys
	}
}

// WithSpawner sets the process spawner used to start the engine
func WithSpawner(sp system.Spawner) Option {
	return func(a *App) {
		a.spawner = sp
	}
}

// New creates a new App with the given options. Unless overridden, paths
// come from the user config directory and settings from its config.toml.
// Saved profiles are loaded before New returns.
func New(opts ...Option) (*App, error) {
	app := &App{
		fs:      system.DefaultFS(),
		spawner: system.DefaultSpawner(),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.Paths == nil {
		paths, err := config.DefaultPaths()
		if err != nil {
			return nil, err
		}
		app.Paths = paths
	}

	if app.Settings == nil {
		settings, err := config.LoadSettings(app.Paths.ConfigFile)
		if err != nil {
			return nil, err
		}
		app.Settings = settings
	}
	app.Paths.Apply(app.Settings)

	engineArgs, err := app.Settings.EngineArgv()
	if err != nil {
		return nil, errors.ConfigError("invalid engine_args", err)
	}

	app.Store = profile.NewStore(app.Paths.ProfilesDir, profile.WithFileSystem(app.fs))
	if _, err := app.Store.LoadAll(); err != nil {
		return nil, err
	}

	app.Audit = audit.NewLogger(app.Paths.StateDir)

	app.Supervisor = supervisor.New(app.Store,
		supervisor.WithSpawner(app.spawner),
		supervisor.WithFileSystem(app.fs),
		supervisor.WithEngine(app.Settings.Engine, engineArgs...),
		supervisor.WithConfigFlag(app.Settings.ConfigFlag),
		supervisor.WithStopTimeout(app.Settings.StopTimeout.Duration()),
		supervisor.WithStartupGrace(app.Settings.StartupGrace.Duration()),
		supervisor.WithObserver(app.Audit.Observer()),
	)

	logging.Debug("app initialized",
		"profiles_dir", app.Paths.ProfilesDir,
		"state_dir", app.Paths.StateDir,
		"engine", app.Settings.Engine,
		"profiles", len(app.Store.List()))

	return app, nil
}

// SynthesizeOptions returns the engine config options derived from Settings.
func (a *App) SynthesizeOptions() []engineconf.Option {
	return []engineconf.Option{
		engineconf.WithLogLevel(a.Settings.LogLevel),
		engineconf.WithRegionException(a.Settings.RegionException),
	}
}

// Close stops the engine if it is running.
func (a *App) Close() error {
	if a.Supervisor == nil {
		return nil
	}
	return a.Supervisor.Close()
}

// Default is the application instance used by the commands. It is nil
// until the first command loads it.
var Default *App

// SetDefault sets the default application instance (used for testing)
func SetDefault(app *App) {
	Default = app
}

// ResetDefault clears the default application instance
func ResetDefault() {
	Default = nil
}
