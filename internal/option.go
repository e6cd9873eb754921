package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	logWriter io.Writer
	version   string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogWriter sets where structured logs are written. Defaults to stdout;
// the MCP server needs stderr since stdout carries the protocol.
func WithLogWriter(w io.Writer) Option {
	return func(a *application) {
		a.logWriter = w
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}
