package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/tui"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Interactive profile picker",
	Long: `Opens an interactive TUI for choosing a profile.

Use arrow keys or j/k to navigate, / to filter.

Actions:
  Enter  - Run the engine with the selected profile
  a      - Add a profile from a share link read on stdin
  e      - Print the selected profile as a share link
  d      - Delete the selected profile
  q/Esc  - Quit`,
	Args: cobra.NoArgs,
	RunE: runPick,
}

var pickPlain bool

func init() {
	pickCmd.Flags().BoolVar(&pickPlain, "plain", false, "Print the profile list without the interactive picker")
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	profiles := store().List()
	active := ""
	if info, ok := app.Default.Supervisor.Info(); ok {
		active = info.Profile
	}

	if pickPlain {
		fmt.Fprint(cmd.OutOrStdout(), tui.SimplePicker(profiles, active))
		return nil
	}

	logging.Debug("picker mode started", "profiles", len(profiles))

	result, err := tui.RunPicker(profiles, active)
	if err != nil {
		return fmt.Errorf("picker error: %w", err)
	}

	logging.Debug("picker result", "action", result.Action)

	switch result.Action {
	case tui.ActionRun:
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runProfile(ctx, result.Profile.Name)

	case tui.ActionAdd:
		fmt.Fprint(cmd.OutOrStdout(), "Paste a vless:// link: ")
		text, err := readLink(cmd.InOrStdin())
		if err != nil {
			return err
		}
		p, err := addLink(text, "")
		if err != nil {
			return err
		}
		logSuccess("Added profile %s (%s)", p.Name, hostPort(p.Summary))

	case tui.ActionExport:
		text, err := exportLink(result.Profile)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)

	case tui.ActionDelete:
		p, err := deleteProfile(result.Profile.Name)
		if err != nil {
			return err
		}
		logSuccess("Deleted profile %s", p.Name)

	case tui.ActionQuit:
		// Just exit cleanly
	}

	return nil
}
