package types

// Logger defines methods for structured logging.
//
// Compatible with zap.SugaredLogger and log/slog style loggers: every method
// takes a message followed by alternating key-value pairs.
//
// The library logs configuration swaps at Info, bias fallbacks and rejected
// documents at Warn, and per-lookup details at Debug only.
type Logger interface {
	// Debug logs a message at DebugLevel.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at InfoLevel.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at WarnLevel.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at ErrorLevel.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a message at FatalLevel and calls os.Exit(1).
	//
	// The library itself never calls Fatal; it exists so host loggers can be
	// passed through unchanged.
	Fatal(msg string, keysAndValues ...any)
}
