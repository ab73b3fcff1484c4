package cmd

import (
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <link>",
	Short: "Add a profile from a vless:// share link",
	Long: `Parses a VLESS share link, builds an Xray configuration for it and
saves it as a named profile.

The profile takes its name from the link's #fragment unless --name is
given. Names are reduced to letters, digits, spaces and _-()[].
Pass "-" to read the link from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var addName string

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "Profile name (default: taken from the link)")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	text := args[0]
	if text == "-" {
		var err error
		if text, err = readLink(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	p, err := addLink(text, addName)
	if err != nil {
		return err
	}

	logSuccess("Added profile %s (%s)", p.Name, hostPort(p.Summary))
	return nil
}
