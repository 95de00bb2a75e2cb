package ballot

import "voting-ledger/internal/model"

func (s *State) requireOwner(caller model.Address) error {
	if caller != s.Owner {
		return newError(ErrUnauthorized, reasonUnauthorized)
	}
	return nil
}

func (s *State) requireVoter(caller model.Address) error {
	if _, ok := s.voter(caller); !ok {
		return newError(ErrNotVoter, reasonNotVoter)
	}
	return nil
}
