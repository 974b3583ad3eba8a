// Package cli implements the genie-dash command-line client for the dashboard API.
package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

const defaultHost = "http://localhost:8080"

// preferences carries profile settings that individual commands consult
// after flag parsing.
type preferences struct {
	profile     string
	waitTimeout time.Duration
}

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]any{
				"error": err.Error(),
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				errObj["code"] = apiErr.Code
			}
			_ = printJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if hint := errorHint(err); hint != "" {
				fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
			}
		}
		return 1
	}
	return 0
}

// errorHint suggests a next step for API errors a user can act on.
func errorHint(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return ""
	}
	switch apiErr.HTTPStatus {
	case http.StatusNotFound:
		return "run 'genie-dash widgets list' to see existing widget ids"
	case http.StatusTooManyRequests:
		return "the server is rate limiting this client, retry in a few seconds"
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return "Databricks did not answer in time or rejected the call, check the server logs"
	}
	return ""
}

func newRootCmd() *cobra.Command {
	var (
		host    string
		output  string
		profile string
	)

	client := NewClient("")
	prefs := &preferences{}

	rootCmd := &cobra.Command{
		Use:           "genie-dash",
		Short:         "Genie dashboard CLI",
		Long:          "Ask Genie questions, inspect results and manage dashboard widgets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Config file is optional
			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = defaultUserConfig()
			}
			p, err := cfg.ActiveProfile(profile)
			if err != nil {
				return err
			}

			// Apply precedence: flag > env > profile > default
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("GENIE_DASH_HOST"); v != "" {
					host = v
				} else if p.Host != "" {
					host = p.Host
				}
			}
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("GENIE_DASH_OUTPUT"); v != "" {
					output = v
				} else if p.Output != "" {
					output = p.Output
				}
			}

			if err := validateOutputFormat(output); err != nil {
				return err
			}
			base, err := normalizeHost(host)
			if err != nil {
				return err
			}
			wait, err := p.waitTimeout()
			if err != nil {
				return fmt.Errorf("profile %s: %w", cfg.profileName(profile), err)
			}

			client.BaseURL = base
			prefs.profile = cfg.profileName(profile)
			prefs.waitTimeout = wait
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", defaultHost, "API host URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "Config profile to use")

	rootCmd.AddCommand(newAskCmd(client, prefs))
	rootCmd.AddCommand(newResultCmd(client))
	rootCmd.AddCommand(newWidgetsCmd(client))
	rootCmd.AddCommand(newQueryCmd(client))
	rootCmd.AddCommand(newConfigCmd(prefs))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
