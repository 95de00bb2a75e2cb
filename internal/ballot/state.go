package ballot

import (
	"errors"
	"fmt"
	"voting-ledger/internal/model"

	"go.uber.org/multierr"
)

// State is the whole ledger record of one ballot.
type State struct {
	Owner             model.Address          `cbor:"owner"`
	WorkflowStatus    model.WorkflowStatus   `cbor:"workflowStatus"`
	Voters            map[string]model.Voter `cbor:"voters"`
	Proposals         []model.Proposal       `cbor:"proposals"`
	WinningProposalID uint64                 `cbor:"winningProposalId"`
}

// New creates the record of a ballot owned by owner, starting at RegisteringVoters.
func New(owner model.Address) *State {
	return &State{
		Owner:          owner,
		WorkflowStatus: model.RegisteringVoters,
		Voters:         make(map[string]model.Voter),
	}
}

// Validate checks the record invariants, used after decoding a record from the ledger.
func (s *State) Validate() error {
	var err error

	if s.Owner == "" {
		err = multierr.Append(err, errors.New("owner is missing"))
	}
	if !s.WorkflowStatus.IsValid() {
		err = multierr.Append(err, errors.New("invalid workflow status: "+s.WorkflowStatus.String()))
	}

	proposalsOpened := s.WorkflowStatus >= model.ProposalsRegistrationStarted
	if proposalsOpened && (len(s.Proposals) == 0 || s.Proposals[0].Description != model.GenesisDescription) {
		err = multierr.Append(err, errors.New("genesis proposal is missing"))
	}
	if !proposalsOpened && len(s.Proposals) != 0 {
		err = multierr.Append(err, fmt.Errorf("%d proposals registered before the registration opened", len(s.Proposals)))
	}

	counted := make([]uint64, len(s.Proposals))
	for addr, voter := range s.Voters {
		if !voter.HasVoted {
			continue
		}
		if voter.VotedProposalID >= uint64(len(s.Proposals)) {
			err = multierr.Append(err, fmt.Errorf("voter %s voted for unknown proposal %d", addr, voter.VotedProposalID))
			continue
		}
		counted[voter.VotedProposalID]++
	}
	for id, proposal := range s.Proposals {
		if proposal.VoteCount != counted[id] {
			err = multierr.Append(err, fmt.Errorf("proposal %d has %d votes, %d voters chose it", id, proposal.VoteCount, counted[id]))
		}
	}

	return err
}

func (s *State) voter(addr model.Address) (model.Voter, bool) {
	voter, ok := s.Voters[string(addr)]
	return voter, ok && voter.IsRegistered
}
