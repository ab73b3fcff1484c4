// Package app wires vless-ctl's components together.
//
// An App owns the profile store, the engine supervisor and the audit log,
// all configured from config.Paths and config.Settings. Dependencies are
// injected with functional options so tests can run against a MockFS and
// MockSpawner:
//
//	a, err := app.New(
//	    app.WithPaths(config.PathsFor(dir)),
//	    app.WithSettings(config.DefaultSettings()),
//	    app.WithFileSystem(system.NewMockFS()),
//	    app.WithSpawner(system.NewMockSpawner()),
//	)
//
// New loads saved profiles and registers the audit log as a supervisor
// observer, so every engine start, stop and exit is recorded.
package app
