package cli

import (
	"fmt"
	"net/url"
	"strings"
)

// apiPrefix is where the client addresses the dashboard API. Hosts pasted
// with it are accepted and the prefix is dropped.
const apiPrefix = "/api"

// normalizeHost turns a user-supplied host into the base URL requests are
// built on: lowercase scheme and host, no path and no trailing slash. Bare
// host:port values get a hint rather than a guess.
func normalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", fmt.Errorf("invalid host: host URL cannot be empty (try %q)", defaultHost)
	}
	if !strings.Contains(host, "://") {
		return "", fmt.Errorf("invalid host %q: missing scheme (try %q)", raw, "http://"+strings.TrimRight(host, "/"))
	}

	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("invalid host %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid host %q: missing host", raw)
	}
	if u.User != nil {
		return "", fmt.Errorf("invalid host %q: credentials are not supported in the host URL", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("invalid host %q: host must not include query or fragment", raw)
	}

	path := strings.TrimRight(u.Path, "/")
	if path != "" && path != apiPrefix {
		return "", fmt.Errorf("invalid host %q: host must not include a path other than %s", raw, apiPrefix)
	}

	return scheme + "://" + strings.ToLower(u.Host), nil
}
