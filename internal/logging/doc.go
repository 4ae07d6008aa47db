// Package logging provides structured logging utilities for the workdesk application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Process-wide logger setup with level and format selection
//   - Structured logging with slog
//   - PII sanitization (email anonymization)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Configure the process logger once at startup:
//
//	logger, err := logging.Setup(logging.Options{Level: "debug", Format: "json"})
//
// Create a logger with standard attributes:
//
//	logger := logging.WithService(slog.Default(), "sheets")
//	logger.Info("range read",
//	    logging.Operation("sheets.read_range"),
//	    logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("user operation",
//	    logging.UserHash(email))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - User emails are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
//
// Log output goes to stderr by default. In stdio transport mode stdout carries
// the MCP protocol stream, so nothing in this package may write to stdout.
package logging
