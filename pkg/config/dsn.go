package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// dsnFromURL converts a postgres:// or postgresql:// connection URL
// into the keyword/value DSN lib/pq expects. Query parameters pass
// through as extra options in sorted order; sslmode defaults to
// disable when absent, and the port to 5432.
func dsnFromURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("database URL is empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("malformed database URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported database URL scheme %q", u.Scheme)
	}

	port := u.Port()
	if port == "" {
		port = "5432"
	}

	pairs := []string{
		"host=" + u.Hostname(),
		"port=" + port,
	}
	if u.User != nil {
		pairs = append(pairs, "user="+u.User.Username())
		if password, ok := u.User.Password(); ok {
			pairs = append(pairs, "password="+password)
		}
	}
	if dbname := strings.TrimPrefix(u.Path, "/"); dbname != "" {
		pairs = append(pairs, "dbname="+dbname)
	}

	opts := u.Query()
	if opts.Get("sslmode") == "" {
		opts.Set("sslmode", "disable")
	}
	keys := make([]string, 0, len(opts))
	for key := range opts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		pairs = append(pairs, key+"="+opts.Get(key))
	}

	return strings.Join(pairs, " "), nil
}

// sslModeFromURL extracts the sslmode query parameter of a connection
// URL; empty when the URL is malformed or the parameter is absent.
func sslModeFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("sslmode")
}
