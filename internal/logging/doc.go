// Package logging builds the slog loggers used by taxonid.
//
// Console output puts the observation and acting user in the header line and
// lists only the highlighted fields at info level. JSON output is one object
// per record. WithContext copies ids from a context into a logger, and
// WarnWithContext standardizes degraded-lookup warnings.
package logging
