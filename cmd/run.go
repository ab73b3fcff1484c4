package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/monitor"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/supervisor"
)

var runCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run the engine with a profile",
	Long: `Starts the Xray engine with the given profile and relays its output
until interrupted. Ctrl-C stops the engine (SIGTERM, then SIGKILL after the
configured stop_timeout).

With --health-interval the local proxy is checked periodically; add
--probe-target to also open a connection through it, and --auto-restart to
start the engine again if it exits.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

var (
	runHealthInterval time.Duration
	runAutoRestart    bool
	runProbeTarget    string
)

func init() {
	runCmd.Flags().DurationVar(&runHealthInterval, "health-interval", 0, "Health check interval (0 disables checks)")
	runCmd.Flags().BoolVar(&runAutoRestart, "auto-restart", false, "Restart the engine if it exits (requires --health-interval)")
	runCmd.Flags().StringVar(&runProbeTarget, "probe-target", "", "host:port to reach through the proxy on each health check")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if runAutoRestart && runHealthInterval <= 0 {
		return errors.ConfigError("--auto-restart requires --health-interval", nil)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runProfile(ctx, args[0])
}

// runProfile runs the engine for name until ctx is done or the engine
// exits on its own.
func runProfile(ctx context.Context, name string) error {
	sup := app.Default.Supervisor

	exited := make(chan supervisor.Event, 1)
	sup.AddObserver(supervisor.ObserverFuncs{
		Line: func(_, line string) {
			logging.EngineLine(line)
		},
		Event: func(ev supervisor.Event) {
			if ev.Type != supervisor.EventExited {
				return
			}
			select {
			case exited <- ev:
			default:
			}
		},
	})

	if err := sup.Start(ctx, name); err != nil {
		return err
	}

	info, _ := sup.Info()
	logSuccess("Engine running with profile %s (pid %d)", info.Profile, info.PID)
	logInfo("Local proxy: socks5://%s (no auth)", health.ListenAddress)

	monDone := make(chan struct{})
	monCtx, cancelMon := context.WithCancel(ctx)
	if runHealthInterval > 0 {
		mon := monitor.New(runHealthInterval, sup,
			monitor.WithAuditLogger(currentAudit()),
			monitor.WithAutoRestart(runAutoRestart),
			monitor.WithCheckOptions(health.CheckOptions{ProbeTarget: runProbeTarget}),
			monitor.WithReporter(healthReporter()),
		)
		go func() {
			defer close(monDone)
			_ = mon.Run(monCtx)
		}()
	} else {
		close(monDone)
	}

	// The monitor must be idle before Stop so it cannot restart the engine.
	shutdown := func() {
		cancelMon()
		<-monDone
	}

	for {
		select {
		case <-ctx.Done():
			shutdown()
			logInfo("Stopping engine")
			if err := sup.Stop(); err != nil && !errors.HasCode(err, errors.ExitState) {
				return err
			}
			logSuccess("Engine stopped")
			return nil

		case ev := <-exited:
			if runAutoRestart {
				logWarning("Engine exited: %v", ev)
				continue
			}
			shutdown()
			if ev.Err != nil {
				return errors.ProcessError("engine exited", ev.Err)
			}
			logInfo("Engine exited")
			return nil
		}
	}
}

// healthReporter prints health changes seen by the monitor.
func healthReporter() func(monitor.CheckResult) {
	var last health.Status
	return func(r monitor.CheckResult) {
		if r.Status == last {
			return
		}
		last = r.Status

		switch r.Status {
		case health.StatusHealthy:
			if r.Health.Probed {
				logSuccess("Proxy healthy (probe %s)", r.Health.ProbeLatency.Round(time.Millisecond))
			} else {
				logSuccess("Proxy listening on %s", health.ListenAddress)
			}
		case health.StatusUnhealthy:
			logWarning("Proxy unhealthy: %v", r.Health.ProbeErr)
		case health.StatusUnreachable:
			logWarning("Proxy not reachable on %s", health.ListenAddress)
		case health.StatusStopped:
			logWarning("Engine for %s is not running", r.Profile)
		}
	}
}
