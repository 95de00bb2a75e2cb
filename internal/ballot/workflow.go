package ballot

import "voting-ledger/internal/model"

// phaseGate is the phase an operation requires, with the reasons given when the
// ballot has not reached it yet or has already moved past it.
type phaseGate struct {
	required model.WorkflowStatus
	notYet   string
	passed   string
}

var (
	voterRegistrationGate = phaseGate{
		required: model.RegisteringVoters,
		passed:   "Voters registration is not open anymore",
	}
	startProposalsGate = phaseGate{
		required: model.RegisteringVoters,
		passed:   "Registering proposals cant be started now",
	}
	proposalRegistrationGate = phaseGate{
		required: model.ProposalsRegistrationStarted,
		notYet:   "Proposals are not allowed yet",
		passed:   "Proposals registration is closed",
	}
	endProposalsGate = phaseGate{
		required: model.ProposalsRegistrationStarted,
		notYet:   "Registering proposals havent started yet",
		passed:   "Registering proposals already ended",
	}
	startVotingGate = phaseGate{
		required: model.ProposalsRegistrationEnded,
		notYet:   "Registering proposals phase is not finished",
		passed:   "Voting session already started",
	}
	votingGate = phaseGate{
		required: model.VotingSessionStarted,
		notYet:   "Voting session havent started yet",
		passed:   "Voting session is closed",
	}
	endVotingGate = phaseGate{
		required: model.VotingSessionStarted,
		notYet:   "Voting session havent started yet",
		passed:   "Voting session already ended",
	}
	tallyGate = phaseGate{
		required: model.VotingSessionEnded,
		notYet:   "Current status is not voting session ended",
		passed:   "Votes already tallied",
	}

	allGates = []phaseGate{
		voterRegistrationGate, startProposalsGate, proposalRegistrationGate, endProposalsGate,
		startVotingGate, votingGate, endVotingGate, tallyGate,
	}
)

// successors is the only way the workflow moves: one step forward from each phase.
var successors = map[model.WorkflowStatus]model.WorkflowStatus{
	model.RegisteringVoters:            model.ProposalsRegistrationStarted,
	model.ProposalsRegistrationStarted: model.ProposalsRegistrationEnded,
	model.ProposalsRegistrationEnded:   model.VotingSessionStarted,
	model.VotingSessionStarted:         model.VotingSessionEnded,
	model.VotingSessionEnded:           model.VotesTallied,
}

func (s *State) requirePhase(gate phaseGate) error {
	if s.WorkflowStatus == gate.required {
		return nil
	}
	if s.WorkflowStatus < gate.required {
		return &Error{Kind: ErrWrongPhase, Reason: gate.notYet, TooEarly: true}
	}
	return &Error{Kind: ErrWrongPhase, Reason: gate.passed}
}

// advance checks the caller and the phase, then runs effect and moves one step forward.
// effect must not fail.
func (s *State) advance(caller model.Address, gate phaseGate, effect func()) (Event, error) {
	if err := s.requireOwner(caller); err != nil {
		return Event{}, err
	}
	if err := s.requirePhase(gate); err != nil {
		return Event{}, err
	}

	previous := s.WorkflowStatus
	next := successors[previous]
	if effect != nil {
		effect()
	}
	s.WorkflowStatus = next

	return newStatusChangeEvent(previous, next), nil
}

// StartProposalsRegistering opens the proposal registration and creates the genesis proposal.
func (s *State) StartProposalsRegistering(caller model.Address) (Event, error) {
	return s.advance(caller, startProposalsGate, func() {
		s.Proposals = append(s.Proposals, model.NewGenesisProposal())
	})
}

func (s *State) EndProposalsRegistering(caller model.Address) (Event, error) {
	return s.advance(caller, endProposalsGate, nil)
}

func (s *State) StartVotingSession(caller model.Address) (Event, error) {
	return s.advance(caller, startVotingGate, nil)
}

func (s *State) EndVotingSession(caller model.Address) (Event, error) {
	return s.advance(caller, endVotingGate, nil)
}
