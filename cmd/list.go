package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved profiles",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var listOutput string

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table or json")
	rootCmd.AddCommand(listCmd)
}

type listEntry struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Server  string `json:"server"`
	Port    int    `json:"port"`
	Network string `json:"network"`
	SNI     string `json:"sni"`
}

func runList(cmd *cobra.Command, args []string) error {
	if err := validateOutput(listOutput); err != nil {
		return err
	}

	profiles := store().List()
	out := cmd.OutOrStdout()

	if listOutput == "json" {
		entries := make([]listEntry, 0, len(profiles))
		for _, p := range profiles {
			entries = append(entries, listEntry{
				Name:    p.Name,
				Path:    p.Path,
				Server:  p.Summary.Server,
				Port:    p.Summary.Port,
				Network: p.Summary.Network,
				SNI:     p.Summary.SNI,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(profiles) == 0 {
		logInfo("No profiles found. Add one with: vless-ctl add 'vless://...'")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSERVER\tNETWORK\tSNI")
	fmt.Fprintln(w, "----\t------\t-------\t---")

	for _, p := range profiles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			p.Name, hostPort(p.Summary), p.Summary.Network, p.Summary.SNI)
	}

	return w.Flush()
}
