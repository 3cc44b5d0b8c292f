package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	alertHost     string
	alertTrigger  string
	alertMessage  string
	alertSeverity string
	alertPriority int
)

// alertCmd represents the alert command group
var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Alert commands",
	Long: `Commands for submitting and inspecting alerts.

Examples:
  # Submit a test alert
  bridgectl alert send --host web-01 --trigger 13491 --message "CPU load too high"

  # List processed alerts, newest first
  bridgectl alert list`,
}

type alertPayload struct {
	Host      string `json:"host"`
	TriggerID string `json:"triggerId"`
	Severity  string `json:"severity,omitempty"`
	Message   string `json:"mensagem"`
	Priority  int    `json:"priority,omitempty"`
}

type alertResult struct {
	ID                 string   `json:"id"`
	Host               string   `json:"host"`
	TriggerID          string   `json:"triggerId"`
	Severity           string   `json:"severity"`
	Message            string   `json:"mensagem"`
	WhatsAppStatus     string   `json:"whatsappStatus"`
	RecipientsNotified []string `json:"recipientsNotified"`
}

var alertSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit an alert",
	Long: `Submit one alert through the notification pipeline.

The severity flag is optional; without it the server classifies the
message text. Processing is synchronous: the command reports the
delivery outcome.

Example:
  bridgectl alert send --host web-01 --trigger 13491 --message "DOWN: no ping" --severity CRITICAL`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if alertHost == "" || alertTrigger == "" || alertMessage == "" {
			return fmt.Errorf("--host, --trigger and --message are required")
		}

		client := newAPIClient()

		var result alertResult
		err := client.do("POST", "/api/alerta", alertPayload{
			Host:      alertHost,
			TriggerID: alertTrigger,
			Severity:  alertSeverity,
			Message:   alertMessage,
			Priority:  alertPriority,
		}, &result)
		if err != nil {
			return fmt.Errorf("send alert: %w", err)
		}

		if GetOutput() == "json" {
			data, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Alert %s processed\n", result.ID)
		fmt.Printf("  severity:   %s\n", result.Severity)
		fmt.Printf("  delivery:   %s\n", result.WhatsAppStatus)
		fmt.Printf("  recipients: %s\n", strings.Join(result.RecipientsNotified, ", "))
		return nil
	},
}

var alertListCmd = &cobra.Command{
	Use:   "list",
	Short: "List processed alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient()

		var alerts []alertResult
		if err := client.do("GET", "/api/alerta", nil, &alerts); err != nil {
			return fmt.Errorf("list alerts: %w", err)
		}

		if GetOutput() == "json" {
			data, _ := json.MarshalIndent(alerts, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		if len(alerts) == 0 {
			fmt.Println("No alerts.")
			return nil
		}

		fmt.Printf("\n%-20s  %-10s  %-8s  %s\n", "HOST", "SEVERITY", "STATUS", "MESSAGE")
		fmt.Println(strings.Repeat("-", 80))
		for _, a := range alerts {
			msg := a.Message
			if len(msg) > 40 {
				msg = msg[:37] + "..."
			}
			fmt.Printf("%-20s  %-10s  %-8s  %s\n", a.Host, a.Severity, a.WhatsAppStatus, msg)
		}
		fmt.Printf("\nTotal: %d alert(s)\n", len(alerts))
		return nil
	},
}

func init() {
	alertSendCmd.Flags().StringVar(&alertHost, "host", "", "monitored host name")
	alertSendCmd.Flags().StringVar(&alertTrigger, "trigger", "", "monitoring trigger id")
	alertSendCmd.Flags().StringVar(&alertMessage, "message", "", "alert message")
	alertSendCmd.Flags().StringVar(&alertSeverity, "severity", "", "severity hint (CRITICAL, WARNING, INFO)")
	alertSendCmd.Flags().IntVar(&alertPriority, "priority", 0, "numeric priority from the monitoring system")

	alertCmd.AddCommand(alertSendCmd)
	alertCmd.AddCommand(alertListCmd)
	rootCmd.AddCommand(alertCmd)
}
