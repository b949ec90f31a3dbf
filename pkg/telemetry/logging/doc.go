// Package logging builds structured slog loggers with credential
// redaction.
//
// Every handler produced here wraps its output in a Redactor so that
// API keys and bearer tokens never reach the log sink, regardless of
// which call site logged them.
package logging
