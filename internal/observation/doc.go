// Package observation coordinates the identification workflow for one
// observation: it resolves proposed taxa, applies lifecycle events under the
// observation lock, persists the outcome, recomputes consensus and keeps the
// grade statistics cache and metrics current.
package observation
