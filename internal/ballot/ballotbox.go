package ballot

import "voting-ledger/internal/model"

// SetVote records the caller's single vote for proposalID.
func (s *State) SetVote(caller model.Address, proposalID uint64) (Event, error) {
	if err := s.requirePhase(votingGate); err != nil {
		return Event{}, err
	}
	voter, ok := s.voter(caller)
	if !ok {
		return Event{}, newError(ErrNotVoter, reasonNotVoter)
	}
	if voter.HasVoted {
		return Event{}, newError(ErrAlreadyVoted, reasonAlreadyVoted)
	}
	if !s.hasProposal(proposalID) {
		return Event{}, newError(ErrProposalNotFound, reasonProposalNotFound)
	}

	voter.HasVoted = true
	voter.VotedProposalID = proposalID
	s.Voters[string(caller)] = voter
	s.Proposals[proposalID].VoteCount++

	return Event{Name: EventVoted, Voter: caller, ProposalID: proposalID}, nil
}
