// Package log builds the structured loggers used by searchproxy.
//
// Loggers are plain *slog.Logger values whose handler is wrapped by
// SecureHandler. The wrapper masks attributes that could carry credentials
// before they reach the output, so request and upstream logs can be shared
// without leaking cookies or authorization headers that a caller or an
// operator-supplied configuration might contain.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, log.Options{
//	    Format: log.FormatJSON,
//	    Level:  slog.LevelInfo,
//	})
//	slog.SetDefault(logger)
//
//	logger.Error("upstream fetch failed",
//	    "url", target,         // kept
//	    "cookie", rawCookie,   // written as ***REDACTED***
//	    "error", err,
//	)
package log
