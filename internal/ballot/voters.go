package ballot

import "voting-ledger/internal/model"

// AddVoter registers addr. Owner only, during voter registration.
func (s *State) AddVoter(caller, addr model.Address) (Event, error) {
	if err := s.requireOwner(caller); err != nil {
		return Event{}, err
	}
	if err := s.requirePhase(voterRegistrationGate); err != nil {
		return Event{}, err
	}
	if _, ok := s.voter(addr); ok {
		return Event{}, newError(ErrAlreadyRegistered, reasonAlreadyRegistered)
	}

	if s.Voters == nil {
		s.Voters = make(map[string]model.Voter)
	}
	s.Voters[string(addr)] = model.Voter{IsRegistered: true}

	return Event{Name: EventVoterRegistered, VoterAddress: addr}, nil
}

// GetVoter returns the record of addr. Only registered voters may read it, in any phase.
func (s *State) GetVoter(caller, addr model.Address) (model.Voter, error) {
	if err := s.requireVoter(caller); err != nil {
		return model.Voter{}, err
	}

	voter, _ := s.voter(addr)
	return voter, nil
}
