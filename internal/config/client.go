package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Client defaults.
const (
	DefaultSTUN     = "stun:stun.l.google.com:19302"
	DefaultLocalURL = "ws://localhost:4000/ws"
)

// Config holds the terminal client's configuration.
type Config struct {
	// Domain is the public relay domain. Empty means local only.
	Domain string

	// ServerURLs are explicit relay endpoints tried before anything derived from Domain.
	ServerURLs []string

	// ICE servers for WebRTC
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
}

// Options for loading config with CLI flag overrides
type Options struct {
	Domain     string
	ServerURLs []string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	cfg := &Config{
		Domain:     firstNonEmpty(opts.Domain, os.Getenv("ONAIR_DOMAIN")),
		STUNServer: firstNonEmpty(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN),
		TURNServer: firstNonEmpty(opts.TURNServer, os.Getenv("TURN_SERVER")),
		TURNUser:   firstNonEmpty(opts.TURNUser, os.Getenv("TURN_USERNAME")),
		TURNPass:   firstNonEmpty(opts.TURNPass, os.Getenv("TURN_PASSWORD")),
		ForceRelay: opts.ForceRelay,
	}

	cfg.ServerURLs = append(cfg.ServerURLs, opts.ServerURLs...)
	if env := os.Getenv("ONAIR_SERVER"); env != "" {
		cfg.ServerURLs = append(cfg.ServerURLs, splitList(env)...)
	}

	for _, raw := range cfg.ServerURLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			return nil, fmt.Errorf("invalid server URL %q: want ws:// or wss://", raw)
		}
	}

	if cfg.ForceRelay && cfg.TURNServer == "" {
		return nil, fmt.Errorf("relay mode needs a TURN server (--turn or TURN_SERVER)")
	}

	return cfg, nil
}

// Candidates returns the ordered, de-duplicated relay endpoints to try: explicit
// URLs, then the domain's /ws and /api/ws paths, then the local development server.
func (c *Config) Candidates() []string {
	all := append([]string{}, c.ServerURLs...)
	if c.Domain != "" {
		all = append(all,
			fmt.Sprintf("wss://%s/ws", c.Domain),
			fmt.Sprintf("wss://%s/api/ws", c.Domain),
		)
	}
	all = append(all, DefaultLocalURL)

	seen := make(map[string]bool, len(all))
	out := make([]string, 0, len(all))
	for _, u := range all {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// GetRoomLink returns a shareable link for a room, or the bare id without a domain.
func (c *Config) GetRoomLink(roomID string) string {
	if c.Domain == "" {
		return roomID
	}
	return fmt.Sprintf("https://%s/r/%s", c.Domain, url.PathEscape(roomID))
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Config) GetSTUNServers() []string {
	if c.STUNServer == "" {
		return nil
	}
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	host := strings.TrimPrefix(c.TURNServer, "turn:")
	return []string{
		fmt.Sprintf("turn:%s:3478?transport=udp", host),
		fmt.Sprintf("turn:%s:3478?transport=tcp", host),
		fmt.Sprintf("turns:%s:5349?transport=tcp", host),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
