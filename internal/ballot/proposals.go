package ballot

import "voting-ledger/internal/model"

// AddProposal appends a proposal, its ID is its index.
func (s *State) AddProposal(caller model.Address, description string) (Event, error) {
	if err := s.requirePhase(proposalRegistrationGate); err != nil {
		return Event{}, err
	}
	if err := s.requireVoter(caller); err != nil {
		return Event{}, err
	}
	if description == "" {
		return Event{}, newError(ErrEmptyProposal, reasonEmptyProposal)
	}

	s.Proposals = append(s.Proposals, model.Proposal{Description: description})

	return Event{Name: EventProposalRegistered, ProposalID: uint64(len(s.Proposals) - 1)}, nil
}

func (s *State) GetOneProposal(caller model.Address, id uint64) (model.Proposal, error) {
	if err := s.requireVoter(caller); err != nil {
		return model.Proposal{}, err
	}
	if !s.hasProposal(id) {
		return model.Proposal{}, newError(ErrProposalNotFound, reasonProposalNotFound)
	}

	return s.Proposals[id], nil
}

func (s *State) hasProposal(id uint64) bool {
	return id < uint64(len(s.Proposals))
}
