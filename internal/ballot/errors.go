package ballot

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotVoter          = errors.New("not a voter")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrWrongPhase        = errors.New("wrong phase")
	ErrEmptyProposal     = errors.New("empty proposal")
	ErrAlreadyVoted      = errors.New("already voted")
	ErrProposalNotFound  = errors.New("proposal not found")

	// ballot lifecycle on the ledger
	ErrBallotNotFound = errors.New("ballot not found")
	ErrAlreadyExists  = errors.New("ballot already exists")
)

const (
	reasonUnauthorized      = "Ownable: caller is not the owner"
	reasonNotVoter          = "You're not a voter"
	reasonAlreadyRegistered = "Already registered"
	reasonEmptyProposal     = "Proposal description cannot be empty"
	reasonAlreadyVoted      = "You have already voted"
	reasonProposalNotFound  = "Proposal not found"
	reasonBallotNotFound    = "Ballot does not exist"
	reasonAlreadyExists     = "Ballot already exists"
)

// Error is returned by every failing operation. Kind is one of the Err* values,
// Reason is the stable message surfaced to the caller.
type Error struct {
	Kind   error
	Reason string

	// TooEarly is set on ErrWrongPhase when the required phase has not been reached yet;
	// when false the phase has already passed.
	TooEarly bool
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// ErrorFromReason maps a reason string back to the error, e.g. when it was carried
// over the wire as a rejected transaction message. ok is false for unknown reasons.
func ErrorFromReason(reason string) (err *Error, ok bool) {
	switch reason {
	case reasonUnauthorized:
		return newError(ErrUnauthorized, reason), true
	case reasonNotVoter:
		return newError(ErrNotVoter, reason), true
	case reasonAlreadyRegistered:
		return newError(ErrAlreadyRegistered, reason), true
	case reasonEmptyProposal:
		return newError(ErrEmptyProposal, reason), true
	case reasonAlreadyVoted:
		return newError(ErrAlreadyVoted, reason), true
	case reasonProposalNotFound:
		return newError(ErrProposalNotFound, reason), true
	case reasonBallotNotFound:
		return newError(ErrBallotNotFound, reason), true
	case reasonAlreadyExists:
		return newError(ErrAlreadyExists, reason), true
	}

	for _, gate := range allGates {
		if gate.notYet != "" && reason == gate.notYet {
			return &Error{Kind: ErrWrongPhase, Reason: reason, TooEarly: true}, true
		}
		if reason == gate.passed {
			return &Error{Kind: ErrWrongPhase, Reason: reason}, true
		}
	}

	return nil, false
}

// NewBallotNotFoundError is reported by the ledger layer when no record exists for a ballot.
func NewBallotNotFoundError() *Error {
	return newError(ErrBallotNotFound, reasonBallotNotFound)
}

// NewAlreadyExistsError is reported by the ledger layer when a ballot is created twice.
func NewAlreadyExistsError() *Error {
	return newError(ErrAlreadyExists, reasonAlreadyExists)
}
