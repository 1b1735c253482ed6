// Package rank defines the fixed, totally ordered set of taxonomic ranks.
//
// Every comparison the engine makes between two taxa goes through Rank.Order:
// finer ranks order lower, coarser ranks order higher. The table is static data
// and is never derived at runtime. Unknown rank strings parse to Unranked,
// which orders above every recognised rank.
package rank
