package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL   string
	token    string
	adminKey string
)

var rootCmd = &cobra.Command{
	Use:   "portfolio-admin",
	Short: "Review and triage portfolio contact messages and call bookings.",
	Long: `portfolio-admin drives the admin API of the portfolio backend.
Authenticate with --token (from "login") or --admin-key, then list and
update submissions.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("PORTFOLIO_API", "http://localhost:8080/api/v1"), "admin API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("PORTFOLIO_TOKEN"), "access token")
	rootCmd.PersistentFlags().StringVar(&adminKey, "admin-key", os.Getenv("ADMIN_API_KEY"), "static admin API key")

	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewReadCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewRescheduleCommand())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
