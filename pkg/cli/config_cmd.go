package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

func newConfigCmd(prefs *preferences) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration profiles",
	}

	cmd.AddCommand(newConfigShowCmd(prefs))
	cmd.AddCommand(newConfigSetProfileCmd())
	cmd.AddCommand(newConfigUseProfileCmd())

	return cmd
}

// newConfigShowCmd lists profiles. The table marks the profile this
// invocation resolved, which follows --profile when given.
func newConfigShowCmd(prefs *preferences) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List configuration profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no configuration at %s, create one with 'genie-dash config set-profile': %w", ConfigPath(), err)
			}
			if ok, err := printStructured(os.Stdout, getOutputFormat(cmd), cfg); ok {
				return err
			}

			active := prefs.profile
			if active == "" {
				active = cfg.CurrentProfile
			}
			printTable(os.Stdout, []string{"", "PROFILE", "HOST", "OUTPUT", "WAIT TIMEOUT"}, profileRows(cfg, active))
			_, _ = fmt.Fprintf(os.Stdout, "Config: %s\n", ConfigPath())
			return nil
		},
	}
}

func profileRows(cfg *UserConfig, active string) [][]string {
	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		p := cfg.Profiles[name]
		marker := ""
		if name == active {
			marker = "*"
		}
		rows = append(rows, []string{marker, name, orDash(p.Host), orDash(p.Output), orDash(p.WaitTimeout)})
	}
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newConfigSetProfileCmd() *cobra.Command {
	var (
		name        string
		host        string
		output      string
		waitTimeout string
		activate    bool
	)

	cmd := &cobra.Command{
		Use:   "set-profile",
		Short: "Create or update a configuration profile",
		Long: "Create or update a profile. Only the flags given are changed, so " +
			"set-profile --name prod --wait-timeout 5m keeps the stored host.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()

			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = defaultUserConfig()
			}
			p := cfg.Profiles[name]

			if flags.Changed("host") {
				base, err := normalizeHost(host)
				if err != nil {
					return err
				}
				p.Host = base
			}
			if flags.Changed("default-output") {
				if err := validateOutputFormat(output); err != nil {
					return err
				}
				p.Output = output
			}
			if flags.Changed("wait-timeout") {
				d, err := parseWaitTimeout(waitTimeout)
				if err != nil {
					return err
				}
				p.WaitTimeout = d.String()
			}

			cfg.Profiles[name] = p
			if activate {
				cfg.CurrentProfile = name
			}
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}

			if ok, err := printStructured(os.Stdout, getOutputFormat(cmd), map[string]any{
				"status":  "ok",
				"profile": name,
				"active":  cfg.CurrentProfile == name,
				"path":    ConfigPath(),
			}); ok {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "Profile %q saved to %s\n", name, ConfigPath())
			if activate {
				_, _ = fmt.Fprintf(os.Stdout, "Active profile set to %q\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Profile name (required)")
	cmd.Flags().StringVar(&host, "host", "", "API host URL")
	cmd.Flags().StringVar(&output, "default-output", "", "Default output format (table, json, yaml)")
	cmd.Flags().StringVar(&waitTimeout, "wait-timeout", "", "Default limit for ask --wait, e.g. 90s or 5m")
	cmd.Flags().BoolVar(&activate, "use", false, "Also make this the active profile")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newConfigUseProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Set the active configuration profile",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			cfg, err := LoadUserConfig()
			if err != nil || len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			names := make([]string, 0, len(cfg.Profiles))
			for name := range cfg.Profiles {
				names = append(names, name)
			}
			sort.Strings(names)
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no config found: %w", err)
			}
			name := args[0]
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found, create it with 'genie-dash config set-profile --name %s'", name, name)
			}
			cfg.CurrentProfile = name
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if ok, err := printStructured(os.Stdout, getOutputFormat(cmd), map[string]string{
				"status":         "ok",
				"active_profile": name,
			}); ok {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "Active profile set to %q\n", name)
			return nil
		},
	}
}
