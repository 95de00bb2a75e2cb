package votingfamily

import (
	"errors"

	"github.com/fxamacker/cbor"
	"go.uber.org/multierr"
)

// Payload is the body of a voting transaction.
type Payload struct {
	Action      Action `cbor:"action"`
	Ballot      string `cbor:"ballot"`
	Voter       string `cbor:"voter,omitempty"`
	Description string `cbor:"description,omitempty"`
	ProposalID  uint64 `cbor:"proposalID"`
}

func (p Payload) Validate() error {
	var err error

	if !p.Action.IsValid() {
		err = multierr.Append(err, errors.New("invalid action: '"+string(p.Action)+"'"))
	}
	if p.Ballot == "" {
		err = multierr.Append(err, errors.New("ballot is missing"))
	}
	if p.Action == ActionAddVoter && p.Voter == "" {
		err = multierr.Append(err, errors.New("voter is missing"))
	}

	return err
}

func (p Payload) Marshal() ([]byte, error) {
	return cbor.Marshal(p, cbor.CanonicalEncOptions())
}

func UnmarshalPayload(data []byte) (Payload, error) {
	var payload Payload
	if err := cbor.Unmarshal(data, &payload); err != nil {
		return Payload{}, errors.New("failed to unmarshal the payload: " + err.Error())
	}

	return payload, payload.Validate()
}
