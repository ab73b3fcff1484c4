package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/profile"
)

var eventsCmd = &cobra.Command{
	Use:   "events <name>",
	Short: "Display the event log for a profile",
	Long: `Shows the recorded history of a profile: when it was added, each
engine start, stop and exit, and health changes seen while it ran.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvents,
}

var eventsOutput string

func init() {
	eventsCmd.Flags().StringVarP(&eventsOutput, "output", "o", "table", "Output format: table or json (one event per line)")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	if err := validateOutput(eventsOutput); err != nil {
		return err
	}
	name := profile.Sanitize(args[0])
	if name == "" {
		return errors.FormatError("invalid profile name "+args[0], nil)
	}

	events, err := currentAudit().Events(name)
	if err != nil {
		return fmt.Errorf("failed to read event log: %w", err)
	}

	if len(events) == 0 {
		logInfo("No events found for profile %s", name)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, e := range events {
		if eventsOutput == "json" {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal event: %w", err)
			}
			fmt.Fprintln(out, string(data))
		} else {
			ts := e.Timestamp.Local().Format("2006-01-02 15:04:05")
			if e.Details != "" {
				fmt.Fprintf(out, "[%s] %-8s %s (%s)\n", ts, e.Type, e.Profile, e.Details)
			} else {
				fmt.Fprintf(out, "[%s] %-8s %s\n", ts, e.Type, e.Profile)
			}
		}
	}

	return nil
}
