// Package taxon models candidate taxa as sparse rank-to-name snapshots.
//
// A Record carries the names of its own rank and of any ancestors the search
// backend chose to include, plus taxonomic status and synonym metadata. The
// package also owns the "best taxonomy level" lookup and the flat JSON shape
// exchanged with the taxon search backend (rank keys, cname_<rank> common
// names). Records are plain values; nothing here mutates a caller's copy.
package taxon
