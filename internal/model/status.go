package model

import "fmt"

type WorkflowStatus uint8

const (
	RegisteringVoters WorkflowStatus = iota
	ProposalsRegistrationStarted
	ProposalsRegistrationEnded
	VotingSessionStarted
	VotingSessionEnded
	VotesTallied
)

var statusNames = [...]string{
	"RegisteringVoters",
	"ProposalsRegistrationStarted",
	"ProposalsRegistrationEnded",
	"VotingSessionStarted",
	"VotingSessionEnded",
	"VotesTallied",
}

func (status WorkflowStatus) IsValid() bool {
	return int(status) < len(statusNames)
}

func (status WorkflowStatus) String() string {
	if !status.IsValid() {
		return fmt.Sprint("WorkflowStatus(", uint8(status), ")")
	}
	return statusNames[status]
}
