// Package synonym swaps synonym taxa for their accepted equivalents before
// they reach grouping or consensus.
//
// Resolution never fails: a lookup error, an empty result or a synonym with
// no accepted name all return the original record with an Outcome that says
// why, so callers can log it and carry on.
package synonym
