package ballot

import (
	"strconv"
	"voting-ledger/internal/model"
)

type EventName string

const (
	EventVoterRegistered      EventName = "VoterRegistered"
	EventWorkflowStatusChange EventName = "WorkflowStatusChange"
	EventProposalRegistered   EventName = "ProposalRegistered"
	EventVoted                EventName = "Voted"
)

var EventNames = []EventName{
	EventVoterRegistered,
	EventWorkflowStatusChange,
	EventProposalRegistered,
	EventVoted,
}

// Event is the notification of a successful mutating operation. Which fields are
// meaningful depends on Name.
type Event struct {
	Name EventName `cbor:"name"`

	VoterAddress model.Address `cbor:"voterAddress,omitempty"`

	PreviousStatus model.WorkflowStatus `cbor:"previousStatus"`
	NewStatus      model.WorkflowStatus `cbor:"newStatus"`

	ProposalID uint64        `cbor:"proposalId"`
	Voter      model.Address `cbor:"voter,omitempty"`
}

func newStatusChangeEvent(previous, next model.WorkflowStatus) Event {
	return Event{Name: EventWorkflowStatusChange, PreviousStatus: previous, NewStatus: next}
}

// Attribute is a key value pair of the event signature.
type Attribute struct {
	Key   string
	Value string
}

// Attributes returns the event signature fields in declaration order.
func (e Event) Attributes() []Attribute {
	switch e.Name {
	case EventVoterRegistered:
		return []Attribute{{"voterAddress", string(e.VoterAddress)}}
	case EventWorkflowStatusChange:
		return []Attribute{
			{"previousStatus", e.PreviousStatus.String()},
			{"newStatus", e.NewStatus.String()},
		}
	case EventProposalRegistered:
		return []Attribute{{"proposalId", strconv.FormatUint(e.ProposalID, 10)}}
	case EventVoted:
		return []Attribute{
			{"voter", string(e.Voter)},
			{"proposalId", strconv.FormatUint(e.ProposalID, 10)},
		}
	}
	return nil
}
