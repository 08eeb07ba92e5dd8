package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/sakamichi/core/client"
)

var probeCmd = &cobra.Command{
	Use:   "probe URL",
	Short: "Check that a running service answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return probe(cmd, client.NewWithURL(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func probe(cmd *cobra.Command, c client.Client) error {
	c = c.WithContext(cmd.Context())
	var health map[string]string
	if _, err := c.RawGet("/healthz", &health); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	var greeting []byte
	if _, err := c.RawGet("/api/", &greeting); err != nil {
		return fmt.Errorf("api check failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "status %s: %s\n", health["status"], greeting)
	return nil
}
