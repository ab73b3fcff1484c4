package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Print a profile as a vless:// share link",
	Long: `Rebuilds a share link from a stored profile. The link carries the
server, user, transport and REALITY settings kept in the profile's
configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	p, err := store().Get(args[0])
	if err != nil {
		return err
	}

	text, err := exportLink(p)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
