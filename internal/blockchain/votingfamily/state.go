package votingfamily

import (
	"errors"
	"voting-ledger/internal/ballot"

	"github.com/fxamacker/cbor"
)

func MarshalBallot(state *ballot.State) ([]byte, error) {
	data, err := cbor.Marshal(state, cbor.CanonicalEncOptions())
	if err != nil {
		return nil, errors.New("failed to marshal the ballot: " + err.Error())
	}
	return data, nil
}

// UnmarshalBallot decodes a ballot record and checks its invariants.
func UnmarshalBallot(data []byte) (*ballot.State, error) {
	var state ballot.State
	if err := cbor.Unmarshal(data, &state); err != nil {
		return nil, errors.New("failed to unmarshal the ballot: " + err.Error())
	}
	if err := state.Validate(); err != nil {
		return nil, errors.New("corrupted ballot record: " + err.Error())
	}

	return &state, nil
}

func MarshalEvent(event ballot.Event) ([]byte, error) {
	data, err := cbor.Marshal(event, cbor.CanonicalEncOptions())
	if err != nil {
		return nil, errors.New("failed to marshal the event: " + err.Error())
	}
	return data, nil
}

func UnmarshalEvent(data []byte) (ballot.Event, error) {
	var event ballot.Event
	if err := cbor.Unmarshal(data, &event); err != nil {
		return ballot.Event{}, errors.New("failed to unmarshal the event: " + err.Error())
	}
	return event, nil
}
