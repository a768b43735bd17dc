package resolver

import (
	"log/slog"
)

// Logger is the structured logging interface accepted by the resolver,
// validator and merger packages.
//
// Attributes are alternating key-value pairs, following log/slog:
//
//	logger.Debug("splicing reference", "ref", "sample.json#/definitions/aliquot", "file", "participant.json")
//
// Use [NewSlogAdapter] to log through a *slog.Logger:
//
//	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
//	r, err := resolver.NewWithOptions(
//	    resolver.WithRoot("schemas"),
//	    resolver.WithLogger(resolver.NewSlogAdapter(slog.New(handler))),
//	)
//
// Adapters for zap or zerolog only need to implement the five methods below.
type Logger interface {
	// Debug logs at debug level. Use for detailed diagnostic information.
	Debug(msg string, attrs ...any)

	// Info logs at info level.
	Info(msg string, attrs ...any)

	// Warn logs at warn level.
	Warn(msg string, attrs ...any)

	// Error logs at error level.
	Error(msg string, attrs ...any)

	// With returns a Logger that prepends attrs to every record.
	With(attrs ...any) Logger
}

// NopLogger discards all output. It is the default when no logger is configured.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(_ string, _ ...any) {}

// Info implements Logger.
func (NopLogger) Info(_ string, _ ...any) {}

// Warn implements Logger.
func (NopLogger) Warn(_ string, _ ...any) {}

// Error implements Logger.
func (NopLogger) Error(_ string, _ ...any) {}

// With implements Logger.
func (n NopLogger) With(_ ...any) Logger { return n }

var _ Logger = NopLogger{}

// SlogAdapter wraps a *slog.Logger to implement Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter. A nil logger selects slog.Default().
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Debug implements Logger.
func (s *SlogAdapter) Debug(msg string, attrs ...any) {
	s.logger.Debug(msg, attrs...)
}

// Info implements Logger.
func (s *SlogAdapter) Info(msg string, attrs ...any) {
	s.logger.Info(msg, attrs...)
}

// Warn implements Logger.
func (s *SlogAdapter) Warn(msg string, attrs ...any) {
	s.logger.Warn(msg, attrs...)
}

// Error implements Logger.
func (s *SlogAdapter) Error(msg string, attrs ...any) {
	s.logger.Error(msg, attrs...)
}

// With implements Logger.
func (s *SlogAdapter) With(attrs ...any) Logger {
	return &SlogAdapter{logger: s.logger.With(attrs...)}
}

var _ Logger = (*SlogAdapter)(nil)

// OrNop returns l, or NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
