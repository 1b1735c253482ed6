// Command taxonid manages a taxon catalog and the community identifications
// attached to observations. It records proposals, agreements, disagreements and
// withdrawals, recomputes consensus after every change, and prints grouped
// taxon search results.
package main
