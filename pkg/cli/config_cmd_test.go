package cli

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCommands(t *testing.T) {
	isolateEnv(t)

	out, err := runCLI(t, nil, "config", "set-profile", "--name", "staging",
		"--host", "HTTPS://Staging.example.com/api/", "--default-output", "json", "--wait-timeout", "90s")
	require.NoError(t, err)
	assert.Contains(t, out, `Profile "staging" saved`)

	cfg, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, Profile{Host: "https://staging.example.com", Output: "json", WaitTimeout: "1m30s"}, cfg.Profiles["staging"])
	assert.Equal(t, "default", cfg.CurrentProfile)

	// Only the flags given change.
	_, err = runCLI(t, nil, "config", "set-profile", "--name", "staging", "--wait-timeout", "5m")
	require.NoError(t, err)
	cfg, err = LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, Profile{Host: "https://staging.example.com", Output: "json", WaitTimeout: "5m0s"}, cfg.Profiles["staging"])

	_, err = runCLI(t, nil, "config", "use-profile", "staging")
	require.NoError(t, err)
	cfg, err = LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.CurrentProfile)

	// The active profile now selects JSON output.
	out, err = runCLI(t, nil, "--host", "http://localhost:8080", "config", "show")
	require.NoError(t, err)
	assert.JSONEq(t, `{"current_profile":"staging","profiles":{"staging":
		{"host":"https://staging.example.com","output":"json","wait_timeout":"5m0s"}}}`, out)
}

func TestConfigShow_TableMarksActiveProfile(t *testing.T) {
	isolateEnv(t)
	require.NoError(t, SaveUserConfig(&UserConfig{
		CurrentProfile: "local",
		Profiles: map[string]Profile{
			"local": {Host: "http://localhost:8080"},
			"prod":  {Host: "https://dash.example.com", Output: "table", WaitTimeout: "5m0s"},
		},
	}))

	activeRow := func(out string) string {
		for _, line := range strings.Split(out, "\n") {
			if strings.Contains(line, "*") {
				return line
			}
		}
		return ""
	}

	out, err := runCLI(t, nil, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "WAIT TIMEOUT")
	assert.Contains(t, out, "https://dash.example.com")
	assert.Contains(t, out, "5m0s")
	assert.Contains(t, activeRow(out), "local")
	assert.Contains(t, out, "Config: "+ConfigPath())

	out, err = runCLI(t, nil, "--profile", "prod", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, activeRow(out), "prod", "--profile moves the marker")

	out, err = runCLI(t, nil, "-o", "yaml", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "current-profile: local")
	assert.Contains(t, out, "wait-timeout: 5m0s")
}

func TestConfigSetProfile_UseActivates(t *testing.T) {
	isolateEnv(t)

	out, err := runCLI(t, nil, "config", "set-profile", "--name", "prod", "--host", "https://dash.example.com", "--use")
	require.NoError(t, err)
	assert.Contains(t, out, `Active profile set to "prod"`)

	cfg, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.CurrentProfile)
}

func TestProfileWaitTimeout_BoundsAskWait(t *testing.T) {
	isolateEnv(t)
	old := resultPollInterval
	resultPollInterval = 5 * time.Millisecond
	t.Cleanup(func() { resultPollInterval = old })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"conversationId":"c-1","messageId":"m-1","status":"pending"}`))
	}))
	defer srv.Close()

	require.NoError(t, SaveUserConfig(&UserConfig{
		CurrentProfile: "default",
		Profiles:       map[string]Profile{"default": {Host: srv.URL, WaitTimeout: "40ms"}},
	}))

	start := time.Now()
	_, err := runCLI(t, nil, "ask", "slow question", "--wait")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out waiting for message m-1")
	assert.Less(t, time.Since(start), 30*time.Second, "profile wait-timeout replaces the 2m default")
}

func TestConfigCommands_Errors(t *testing.T) {
	isolateEnv(t)

	_, err := runCLI(t, nil, "config", "use-profile", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config found")

	_, err = runCLI(t, nil, "config", "set-profile", "--name", "x", "--default-output", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")

	_, err = runCLI(t, nil, "config", "set-profile", "--name", "x", "--host", "ftp://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme must be http or https")

	_, err = runCLI(t, nil, "config", "set-profile", "--name", "x", "--wait-timeout=-1s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")

	_, err = runCLI(t, nil, "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config set-profile")

	require.NoError(t, SaveUserConfig(&UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{"default": {}}}))
	_, err = runCLI(t, nil, "config", "use-profile", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config set-profile --name ghost")
}
