package cmd

import (
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm <name>",
	Aliases: []string{"delete"},
	Short:   "Delete a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

var rmPurgeEvents bool

func init() {
	rmCmd.Flags().BoolVar(&rmPurgeEvents, "purge-events", false, "Also delete the profile's event log")
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	p, err := deleteProfile(args[0])
	if err != nil {
		return err
	}

	if rmPurgeEvents {
		if err := currentAudit().Remove(p.Name); err != nil {
			logWarning("Failed to remove event log for %s: %v", p.Name, err)
		}
	}

	logSuccess("Deleted profile %s", p.Name)
	return nil
}
