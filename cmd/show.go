package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/engineconf"
)

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a profile's connection details",
	Long: `Shows the remote server settings stored in a profile and the local
proxy the engine exposes while the profile runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var showOutput string

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "table", "Output format: table or json")
	rootCmd.AddCommand(showCmd)
}

type localProxy struct {
	Protocol string `json:"protocol"`
	Address  string `json:"address"`
	Port     int    `json:"port"`
	Auth     string `json:"auth"`
}

var defaultLocalProxy = localProxy{
	Protocol: "socks5",
	Address:  engineconf.ListenAddress,
	Port:     engineconf.ListenPort,
	Auth:     "none",
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := validateOutput(showOutput); err != nil {
		return err
	}

	p, err := store().Get(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if showOutput == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Name    string             `json:"name"`
			Path    string             `json:"path"`
			Summary engineconf.Summary `json:"summary"`
			Proxy   localProxy         `json:"localProxy"`
		}{p.Name, p.Path, p.Summary, defaultLocalProxy})
	}

	s := p.Summary
	fmt.Fprintf(out, "Profile:     %s\n", p.Name)
	fmt.Fprintf(out, "File:        %s\n", p.Path)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Server:      %s\n", s.Server)
	fmt.Fprintf(out, "Port:        %d\n", s.Port)
	fmt.Fprintf(out, "User ID:     %s\n", s.UserID)
	fmt.Fprintf(out, "Protocol:    %s\n", s.Protocol)
	fmt.Fprintf(out, "Security:    %s\n", s.Security)
	fmt.Fprintf(out, "Network:     %s\n", s.Network)
	fmt.Fprintf(out, "SNI:         %s\n", s.SNI)
	fmt.Fprintf(out, "Fingerprint: %s\n", s.Fingerprint)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Local proxy: %s://%s:%d (auth: %s)\n",
		defaultLocalProxy.Protocol, defaultLocalProxy.Address, defaultLocalProxy.Port, defaultLocalProxy.Auth)

	return nil
}
