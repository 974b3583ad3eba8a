package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// UserConfig represents ~/.genie-dash/config.yaml.
type UserConfig struct {
	CurrentProfile string             `yaml:"current-profile" json:"current_profile"`
	Profiles       map[string]Profile `yaml:"profiles" json:"profiles"`
}

// Profile represents a single named configuration profile.
type Profile struct {
	Host   string `yaml:"host,omitempty" json:"host,omitempty"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
	// WaitTimeout bounds `ask --wait` when --timeout is not given, as a
	// Go duration string.
	WaitTimeout string `yaml:"wait-timeout,omitempty" json:"wait_timeout,omitempty"`
}

// waitTimeout parses WaitTimeout. Zero means unset.
func (p Profile) waitTimeout() (time.Duration, error) {
	if p.WaitTimeout == "" {
		return 0, nil
	}
	return parseWaitTimeout(p.WaitTimeout)
}

func parseWaitTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid wait timeout %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid wait timeout %q: must be positive", s)
	}
	return d, nil
}

// ActiveProfile returns the profile to use based on the override or
// current-profile. An explicit override must name an existing profile; a
// dangling current-profile resolves to the empty profile.
func (c *UserConfig) ActiveProfile(override string) (Profile, error) {
	if override != "" {
		p, ok := c.Profiles[override]
		if !ok {
			return Profile{}, fmt.Errorf("profile %q not found", override)
		}
		return p, nil
	}
	return c.Profiles[c.CurrentProfile], nil
}

// profileName reports which profile ActiveProfile resolves for override.
func (c *UserConfig) profileName(override string) string {
	if override != "" {
		return override
	}
	return c.CurrentProfile
}

func defaultUserConfig() *UserConfig {
	return &UserConfig{
		CurrentProfile: "default",
		Profiles:       map[string]Profile{},
	}
}

// ConfigDir returns the path to ~/.genie-dash/.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".genie-dash")
}

// ConfigPath returns the path to ~/.genie-dash/config.yaml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LoadUserConfig reads ~/.genie-dash/config.yaml.
func LoadUserConfig() (*UserConfig, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return &cfg, nil
}

// SaveUserConfig writes ~/.genie-dash/config.yaml.
func SaveUserConfig(cfg *UserConfig) error {
	if err := os.MkdirAll(ConfigDir(), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(ConfigPath(), data, 0o600)
}
