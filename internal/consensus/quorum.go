package consensus

// MinimumQuorum is the absolute number of supporters a winner needs.
const MinimumQuorum = 2

// QuorumThreshold returns max(2, ceil(2n/3)).
func QuorumThreshold(participants int) int {
	if participants < 0 {
		participants = 0
	}
	threshold := (2*participants + 2) / 3
	if threshold < MinimumQuorum {
		return MinimumQuorum
	}
	return threshold
}

// Quorum reports whether agreements meet the threshold for participants.
func Quorum(agreements, participants int) bool {
	return agreements >= QuorumThreshold(participants)
}
