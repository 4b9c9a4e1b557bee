// Package log provides structured logging for the ct4pwd compiler.
//
// Package: log
// Title: Structured Logging
// Description: Leveled logger with persistent context fields, request IDs,
//              JSON/text/console formatters and a performance timer. Loggers
//              are immutable: With* methods return a configured copy.
// Author: msto63
// Version: v0.2.0
// Created: 2026-09-14
// Modified: 2026-10-02
//
// Change History:
// - 2026-09-14 v0.1.0: Initial logger, formatters and timer
// - 2026-10-02 v0.2.0: Severity-aware LogError for wrapped error chains
//
// Usage:
//   import mdwlog "github.com/msto63/ct4pwd/foundation/core/log"
//
//   logger := mdwlog.GetDefault().WithField("component", "structurer")
//   logger.Info("rows grouped", mdwlog.Fields{"rows": 4})
//
//   timer := logger.StartTimer("compile")
//   defer timer.Stop()
package log
