package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/health"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/supervisor"
)

var probeCmd = &cobra.Command{
	Use:   "probe [name]",
	Short: "Check that a profile can carry traffic",
	Long: `Starts the engine with the given profile, waits for the local proxy,
opens a connection to --target through it and stops the engine again.

Without a name, the proxy already listening on 127.0.0.1:10808 (for
example from "vless-ctl run" in another terminal) is probed instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProbe,
}

var (
	probeTarget  string
	probeTimeout time.Duration
)

const listenerPollInterval = 200 * time.Millisecond

func init() {
	probeCmd.Flags().StringVar(&probeTarget, "target", "www.google.com:443", "host:port to connect to through the proxy")
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 10*time.Second, "How long to wait for the proxy and the probe")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(args) == 0 {
		latency, err := health.Probe(ctx, health.ListenAddress, probeTarget, probeTimeout)
		if err != nil {
			return errors.ProcessError("probe failed", err)
		}
		logSuccess("Reached %s via %s in %s", probeTarget, health.ListenAddress, latency.Round(time.Millisecond))
		return nil
	}

	sup := app.Default.Supervisor
	sup.AddObserver(supervisor.ObserverFuncs{
		Line: func(profile, line string) {
			logging.Debug("engine output", "profile", profile, "line", line)
		},
	})

	if err := sup.Start(ctx, args[0]); err != nil {
		return err
	}
	defer func() {
		if err := sup.Stop(); err != nil && !errors.HasCode(err, errors.ExitState) {
			logWarning("Failed to stop engine: %v", err)
		}
	}()

	info, _ := sup.Info()
	name := info.Profile

	latency, err := probeSession(ctx, sup, health.ListenAddress)
	if err != nil {
		recordEvent(audit.EventHealth, name, fmt.Sprintf("probe %s failed: %v", probeTarget, err))
		return errors.ProcessError("probe failed", err)
	}

	recordEvent(audit.EventHealth, name, fmt.Sprintf("probe %s ok in %s", probeTarget, latency.Round(time.Millisecond)))
	logSuccess("Profile %s reached %s in %s", name, probeTarget, latency.Round(time.Millisecond))
	return nil
}

// probeSession waits for the local listener of the running session, then
// probes through it.
func probeSession(ctx context.Context, sup *supervisor.Supervisor, addr string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := waitForListener(ctx, sup, addr); err != nil {
		return 0, err
	}
	return health.Probe(ctx, addr, probeTarget, probeTimeout)
}

// waitForListener polls addr until it accepts connections, the engine
// exits or ctx ends.
func waitForListener(ctx context.Context, sup *supervisor.Supervisor, addr string) error {
	ticker := time.NewTicker(listenerPollInterval)
	defer ticker.Stop()

	for {
		if err := health.CheckListener(ctx, addr, listenerPollInterval); err == nil {
			return nil
		}
		if sup.Status() != supervisor.Running {
			return fmt.Errorf("engine exited before %s was ready", addr)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("proxy %s not ready: %w", addr, ctx.Err())
		case <-ticker.C:
		}
	}
}
