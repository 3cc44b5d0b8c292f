package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var (
	phoneSeverity string
	phoneNumber   string
)

// phoneCmd represents the phone command group
var phoneCmd = &cobra.Command{
	Use:   "phone",
	Short: "Recipient directory commands",
	Long: `Commands for managing the severity-to-recipient directory.

Mutations require a dashboard login (bridgectl login).

Examples:
  bridgectl phone list
  bridgectl phone add --severity CRITICAL --phone 5511999990001
  bridgectl phone remove --severity CRITICAL --phone 5511999990001`,
}

var phoneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipients by severity",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()

		var mapping map[string][]string
		if err := client.do("GET", "/api/phones", nil, &mapping); err != nil {
			return fmt.Errorf("list phones: %w", err)
		}

		printMapping(mapping)
		return nil
	},
}

var phoneAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a recipient",
	RunE: func(cmd *cobra.Command, args []string) error {
		if phoneSeverity == "" || phoneNumber == "" {
			return fmt.Errorf("--severity and --phone are required")
		}

		client := newAPIClient()

		var mapping map[string][]string
		err := client.do("POST", "/api/phones", map[string]string{
			"severity": phoneSeverity,
			"phone":    phoneNumber,
		}, &mapping)
		if err != nil {
			return fmt.Errorf("add phone: %w", err)
		}

		fmt.Printf("Added %s to %s\n", phoneNumber, strings.ToUpper(phoneSeverity))
		printMapping(mapping)
		return nil
	},
}

var phoneRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a recipient",
	RunE: func(cmd *cobra.Command, args []string) error {
		if phoneSeverity == "" || phoneNumber == "" {
			return fmt.Errorf("--severity and --phone are required")
		}

		client := newAPIClient()

		path := fmt.Sprintf("/api/phones/%s/%s",
			url.PathEscape(strings.ToUpper(phoneSeverity)), url.PathEscape(phoneNumber))

		var mapping map[string][]string
		if err := client.do("DELETE", path, nil, &mapping); err != nil {
			return fmt.Errorf("remove phone: %w", err)
		}

		fmt.Printf("Removed %s from %s\n", phoneNumber, strings.ToUpper(phoneSeverity))
		printMapping(mapping)
		return nil
	},
}

func printMapping(mapping map[string][]string) {
	if GetOutput() == "json" {
		data, _ := json.MarshalIndent(mapping, "", "  ")
		fmt.Println(string(data))
		return
	}

	severities := make([]string, 0, len(mapping))
	for sev := range mapping {
		severities = append(severities, sev)
	}
	sort.Strings(severities)

	for _, sev := range severities {
		fmt.Printf("%s:\n", sev)
		if len(mapping[sev]) == 0 {
			fmt.Println("  (none)")
			continue
		}
		for _, phone := range mapping[sev] {
			fmt.Printf("  %s\n", phone)
		}
	}
}

func init() {
	for _, c := range []*cobra.Command{phoneAddCmd, phoneRemoveCmd} {
		c.Flags().StringVar(&phoneSeverity, "severity", "", "severity bucket (CRITICAL, WARNING, INFO)")
		c.Flags().StringVar(&phoneNumber, "phone", "", "recipient address")
	}

	phoneCmd.AddCommand(phoneListCmd)
	phoneCmd.AddCommand(phoneAddCmd)
	phoneCmd.AddCommand(phoneRemoveCmd)
	rootCmd.AddCommand(phoneCmd)
}
