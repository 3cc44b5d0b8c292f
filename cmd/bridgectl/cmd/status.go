package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show gateway session status",
	Long: `Show the messaging-gateway session status as seen by the server.

Example:
  bridgectl status`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()

		var resp struct {
			Status string `json:"status"`
		}
		if err := client.do("GET", "/api/whatsapp/status", nil, &resp); err != nil {
			return fmt.Errorf("gateway status: %w", err)
		}

		fmt.Printf("Gateway session: %s\n", resp.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
