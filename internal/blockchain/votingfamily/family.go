package votingfamily

type Action string

const (
	ActionCreate                    Action = "create"
	ActionAddVoter                  Action = "addVoter"
	ActionStartProposalsRegistering Action = "startProposalsRegistering"
	ActionEndProposalsRegistering   Action = "endProposalsRegistering"
	ActionStartVotingSession        Action = "startVotingSession"
	ActionEndVotingSession          Action = "endVotingSession"
	ActionAddProposal               Action = "addProposal"
	ActionSetVote                   Action = "setVote"
	ActionTallyVotes                Action = "tallyVotes"
)

var Actions = []Action{
	ActionCreate,
	ActionAddVoter,
	ActionStartProposalsRegistering,
	ActionEndProposalsRegistering,
	ActionStartVotingSession,
	ActionEndVotingSession,
	ActionAddProposal,
	ActionSetVote,
	ActionTallyVotes,
}

func (a Action) IsValid() bool {
	for _, action := range Actions {
		if a == action {
			return true
		}
	}
	return false
}

const (
	FamilyName    string = "voting"
	FamilyVersion string = "1.0"

	// to hold the whole record of a ballot
	ballotPrefix = "ballot"
)

// EventType returns the type the family's events are published under, e.g. "voting/Voted".
func EventType(eventName string) string {
	return FamilyName + "/" + eventName
}
