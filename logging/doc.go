// Package logging provides the minimal logging interface used across the
// module and two implementations built on log/slog.
//
//   - Logger interface for dependency injection (slog style key/value args)
//   - SlogAdapter wrapping a *slog.Logger
//   - StructuredLogger with component / session context and helpers for
//     capability calls, rounds and outcomes
//   - NoOpLogger for silent operation (tests, library defaults)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false).WithComponent("engine")
//	coord := engine.New(func(o *engine.Options) { o.Logger = logger })
package logging
