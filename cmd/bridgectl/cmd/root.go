// Package cmd contains the CLI commands for bridgectl.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Used for flags
	serverURL string
	verbose   bool
	output    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bridgectl",
	Short: "AlertBridge - operator CLI",
	Long: `bridgectl manages a running AlertBridge server over its HTTP API.

Examples:
  # Log in and store the dashboard token
  bridgectl login --username admin

  # Submit a test alert
  bridgectl alert send --host web-01 --trigger 13491 --message "CPU load too high"

  # Manage notification recipients
  bridgectl phone list
  bridgectl phone add --severity CRITICAL --phone 5511999990001
  bridgectl phone remove --severity CRITICAL --phone 5511999990001`,
	Run: func(cmd *cobra.Command, args []string) {
		// Show help by default
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "AlertBridge server URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// PrintError prints an error message and exits if fatal is true.
func PrintError(msg string, fatal bool) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	if fatal {
		os.Exit(1)
	}
}
