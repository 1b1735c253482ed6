// Package hierarchy infers parent/child relationships among flat candidate
// taxa and flattens them into a depth-annotated display sequence.
//
// No tree is stored upstream: each candidate only carries a partial snapshot
// of its ancestors. Group compares every pair of candidates, keeps only direct
// (non-transitive) edges, and emits a pre-order walk. Nodes live in a flat
// arena and refer to each other by index, so a nested structure only exists
// while flattening. The result depends on the candidate set, not its order.
package hierarchy
