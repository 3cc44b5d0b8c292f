package cmd

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginUsername string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the dashboard API",
	Long: `Log in with the dashboard credential pair and store the access
token under ~/.alertbridge/token for subsequent commands.

The password is prompted interactively to keep it out of shell history.

Example:
  bridgectl login --username admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginUsername == "" {
			return fmt.Errorf("--username is required")
		}

		fmt.Fprintf(os.Stderr, "Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}

		client := newAPIClient()

		var resp struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int    `json:"expires_in"`
		}
		err = client.do("POST", "/api/login", map[string]string{
			"username": loginUsername,
			"password": string(password),
		}, &resp)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}

		if err := saveToken(resp.AccessToken); err != nil {
			return err
		}

		fmt.Printf("Logged in as %s (token valid for %ds)\n", loginUsername, resp.ExpiresIn)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "dashboard username")
	rootCmd.AddCommand(loginCmd)
}
