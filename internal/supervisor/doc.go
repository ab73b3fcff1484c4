// Package supervisor owns the lifecycle of a single engine process.
//
// A Supervisor is either Stopped or Running. Start resolves a profile,
// spawns the engine with the profile's config file and attaches a fresh
// log streamer to its combined output. Stop sends SIGTERM to the engine's
// process group, escalates to SIGKILL after the stop timeout, and returns
// only once the process has exited and its output has been drained.
//
// If the engine exits on its own, the supervisor returns to Stopped and
// observers receive EventExited.
//
//	sup := supervisor.New(store,
//	    supervisor.WithEngine("/usr/local/bin/xray", "run"),
//	    supervisor.WithObserver(supervisor.ObserverFuncs{
//	        Line: func(profile, line string) { fmt.Println(line) },
//	    }),
//	)
//	if err := sup.Start(ctx, "Home"); err != nil {
//	    return err
//	}
//	defer sup.Close()
package supervisor
