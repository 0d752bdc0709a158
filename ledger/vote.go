package ledger

type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

func ParseVoteType(s string) (VoteType, error) {
	switch VoteType(s) {
	case VoteUp, VoteDown:
		return VoteType(s), nil
	}
	return "", ErrInvalidVoteType
}

// Delta is the counter change the vote asks for before clamping.
func (v VoteType) Delta() int {
	if v == VoteUp {
		return 1
	}
	return -1
}

// ApplyVote returns the counter after the vote. The result is never negative.
func ApplyVote(count int, v VoteType) int {
	next := count + v.Delta()
	if next < 0 {
		return 0
	}
	return next
}
