// Package logging provides a minimal logging facade for objinfo.
//
// The Logger interface wraps the handful of structured logging calls the
// library makes. Two backends are provided:
//
//	// slog, e.g. when embedding the library in a Go host
//	logger := logging.New(slog.Default())
//
//	// zerolog, configured from the library configuration
//	logger, err := logging.FromConfig(logging.Config{Level: "debug", Format: "console"})
//
// Arguments follow the slog convention of alternating keys and values:
//
//	logger.Error(ctx, "panic contained", "op", "objinfo_object_query", "panic", v)
//
// Use Nop() where no output is wanted, for example in tests.
package logging
