// Package config resolves settings for the relay server and the terminal client.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Server defaults.
const (
	DefaultAddr            = ":4000"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultMaxMessageBytes = 64 * 1024
	DefaultSendBuffer      = 256
	DefaultSubjectPrefix   = "onair"
)

// Server is the relay server's configuration.
type Server struct {
	Addr              string   `yaml:"addr"`
	LogLevel          string   `yaml:"log_level"`
	LogFormat         string   `yaml:"log_format"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
	MaxMessageBytes   int64    `yaml:"max_message_bytes"`
	SendBuffer        int      `yaml:"send_buffer"`
	NATSURL           string   `yaml:"nats_url"`
	NATSSubjectPrefix string   `yaml:"nats_subject_prefix"`
}

// ServerOptions carries command-line overrides. Zero values mean "not set".
type ServerOptions struct {
	ConfigFile      string
	Addr            string
	LogLevel        string
	LogFormat       string
	AllowedOrigins  []string
	MaxMessageBytes int64
	SendBuffer      int
	NATSURL         string
}

// LoadServer resolves the server configuration with the following priority:
// 1. CLI flags (passed via ServerOptions) - highest priority
// 2. Environment variables
// 3. YAML config file, when one is given
// 4. Defaults - lowest priority
func LoadServer(opts ServerOptions) (*Server, error) {
	cfg := &Server{
		Addr:              DefaultAddr,
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
		AllowedOrigins:    []string{"*"},
		MaxMessageBytes:   DefaultMaxMessageBytes,
		SendBuffer:        DefaultSendBuffer,
		NATSSubjectPrefix: DefaultSubjectPrefix,
	}

	if opts.ConfigFile != "" {
		if err := cfg.readFile(opts.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyOptions(opts)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Server) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Server) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	if v := os.Getenv("ONAIR_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("ONAIR_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("ONAIR_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("ONAIR_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("ONAIR_MAX_MESSAGE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ONAIR_MAX_MESSAGE_BYTES: %w", err)
		}
		c.MaxMessageBytes = n
	}
	if v := os.Getenv("ONAIR_SEND_BUFFER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ONAIR_SEND_BUFFER: %w", err)
		}
		c.SendBuffer = n
	}
	if v := os.Getenv("ONAIR_NATS_URL"); v != "" {
		c.NATSURL = v
	}
	if v := os.Getenv("ONAIR_NATS_SUBJECT_PREFIX"); v != "" {
		c.NATSSubjectPrefix = v
	}
	return nil
}

func (c *Server) applyOptions(opts ServerOptions) {
	if opts.Addr != "" {
		c.Addr = opts.Addr
	}
	if opts.LogLevel != "" {
		c.LogLevel = opts.LogLevel
	}
	if opts.LogFormat != "" {
		c.LogFormat = opts.LogFormat
	}
	if len(opts.AllowedOrigins) > 0 {
		c.AllowedOrigins = opts.AllowedOrigins
	}
	if opts.MaxMessageBytes > 0 {
		c.MaxMessageBytes = opts.MaxMessageBytes
	}
	if opts.SendBuffer > 0 {
		c.SendBuffer = opts.SendBuffer
	}
	if opts.NATSURL != "" {
		c.NATSURL = opts.NATSURL
	}
}

// Validate rejects values the server cannot run with.
func (c *Server) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_message_bytes must be positive, got %d", c.MaxMessageBytes))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer))
	}
	return errors.Join(errs...)
}

// AllowsAnyOrigin reports whether the origin list contains the wildcard.
func (c *Server) AllowsAnyOrigin() bool {
	return slices.Contains(c.AllowedOrigins, "*")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
