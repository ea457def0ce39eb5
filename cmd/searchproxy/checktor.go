package main

import (
	"fmt"

	"github.com/nao1215/searchproxy/internal/config"
	"github.com/nao1215/searchproxy/internal/tor"
	"github.com/spf13/cobra"
)

// NewCheckTorCmd creates the check-tor command.
func NewCheckTorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-tor [proxy-address]",
		Short: "Check that a Tor SOCKS5 proxy is reachable",
		Long: `Check-tor performs a SOCKS5 handshake with the given proxy (default
127.0.0.1:9050, or tor.proxyAddress from the configuration file) and
reports whether it behaves like a Tor SOCKS port.

Examples:
  searchproxy check-tor
  searchproxy check-tor 127.0.0.1:9150`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheckTorCmd,
	}
}

func runCheckTorCmd(cmd *cobra.Command, args []string) error {
	address := config.DefaultTorProxyAddress
	if len(args) == 1 {
		address = args[0]
	} else if cfg, err := config.Load(""); err == nil {
		address = cfg.Tor.ProxyAddress
	}

	client, err := tor.NewClient(address)
	if err != nil {
		return fmt.Errorf("%w: %s", err, address)
	}

	status := client.CheckConnection(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "Tor proxy %s: %s\n", address, status)
	if err := status.Err(); err != nil {
		return fmt.Errorf("tor proxy check failed: %w", err)
	}
	return nil
}
