// Package services defines shared utilities consumed by the consensus
// service, the storage layer and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp observation IDs, acting users, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can tell a
//     caller contract violation from a missing record or a transient failure.
//   - ExitCode, which maps those markers onto process exit statuses.
package services
