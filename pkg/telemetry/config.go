package telemetry

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	Level string

	// Format specifies the log format (console, json).
	Format string

	// Output specifies where logs are written (stdout, stderr, file path).
	Output string

	// EnableCaller adds file:line caller information to logs.
	EnableCaller bool
}

// MetricsConfig configures Prometheus metrics collection.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// ListenAddress is the address for the metrics HTTP endpoint. Empty
	// means the registry is exposed only programmatically.
	ListenAddress string

	// Path is the HTTP path for metrics (default: /metrics).
	Path string

	// Namespace is the metrics namespace prefix (default: confsync).
	Namespace string
}

// TracingConfig configures span export for load and save tasks.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	Enabled bool

	// PrettyPrint formats exported stdout spans for humans.
	PrettyPrint bool

	// SamplingRate is the trace sampling rate (0.0 to 1.0).
	SamplingRate float64
}
