// Package consensus decides which identification currently wins for an
// observation and how much the community trusts it.
//
// Evaluate is a pure function of the identification snapshot it receives:
// withdrawn identifications are ignored, the winner is the most-agreed
// active identification (first proposed wins ties), quorum requires at least
// two supporters and a two-thirds supermajority, and the grade and confidence
// percentage follow from the winner's rank and the remaining disagreement.
package consensus
