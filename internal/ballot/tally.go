package ballot

import "voting-ledger/internal/model"

// TallyVotes picks the proposal with the most votes, the lowest index wins a tie.
// With no votes at all the genesis proposal wins.
func (s *State) TallyVotes(caller model.Address) (Event, error) {
	return s.advance(caller, tallyGate, func() {
		s.WinningProposalID = winner(s.Proposals)
	})
}

func winner(proposals []model.Proposal) uint64 {
	if len(proposals) == 0 {
		return 0
	}

	bestID, bestCount := uint64(0), proposals[0].VoteCount
	for id := 1; id < len(proposals); id++ {
		if proposals[id].VoteCount > bestCount {
			bestID, bestCount = uint64(id), proposals[id].VoteCount
		}
	}

	return bestID
}
