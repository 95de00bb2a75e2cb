package blockchain

import (
	"context"
	"errors"
	"voting-ledger/internal/ballot"
	"voting-ledger/internal/blockchain/settingsfamily"
	"voting-ledger/internal/blockchain/votingfamily"

	"github.com/hyperledger/sawtooth-sdk-go/signing"
	"go.uber.org/zap"
)

// Submit sends one voting transaction and waits for it to be committed.
// A transaction rejected by the ballot is reported as a *ballot.Error wrapped in the TransactionError.
func (c Client) Submit(ctx context.Context, payload votingfamily.Payload, signer *signing.Signer) (transactionID string, err error) {
	outputs := []string{votingfamily.GetBallotAddress(payload.Ballot)}
	inputs := outputs
	if payload.Action == votingfamily.ActionAddProposal {
		// the proposals limit is only read
		inputs = []string{outputs[0], settingsfamily.GetAddress(settingsfamily.MaxProposalsSetting)}
	}

	transaction, err := NewTransaction(payload, signer, inputs, outputs)
	if err != nil {
		return "", errors.New("failed to create a new " + string(payload.Action) + " transaction: " + err.Error())
	}

	c.logger.Info("submitting "+string(payload.Action), zap.String("ballot", payload.Ballot), zap.String("transactionID", transaction.HeaderSignature))

	transactionID, err = c.submitTransaction(ctx, transaction, signer)
	if err != nil {
		return transactionID, asBallotError(err)
	}

	return transactionID, nil
}

func (c Client) CreateBallot(ctx context.Context, name string, signer *signing.Signer) (string, error) {
	return c.Submit(ctx, votingfamily.Payload{Action: votingfamily.ActionCreate, Ballot: name}, signer)
}

func (c Client) AddVoter(ctx context.Context, name string, voter string, signer *signing.Signer) (string, error) {
	return c.Submit(ctx, votingfamily.Payload{Action: votingfamily.ActionAddVoter, Ballot: name, Voter: voter}, signer)
}

func (c Client) AddProposal(ctx context.Context, name string, description string, signer *signing.Signer) (string, error) {
	return c.Submit(ctx, votingfamily.Payload{Action: votingfamily.ActionAddProposal, Ballot: name, Description: description}, signer)
}

func (c Client) SetVote(ctx context.Context, name string, proposalID uint64, signer *signing.Signer) (string, error) {
	return c.Submit(ctx, votingfamily.Payload{Action: votingfamily.ActionSetVote, Ballot: name, ProposalID: proposalID}, signer)
}

// Advance submits one of the owner's workflow operations, tallyVotes included
func (c Client) Advance(ctx context.Context, name string, action votingfamily.Action, signer *signing.Signer) (string, error) {
	switch action {
	case votingfamily.ActionStartProposalsRegistering, votingfamily.ActionEndProposalsRegistering,
		votingfamily.ActionStartVotingSession, votingfamily.ActionEndVotingSession, votingfamily.ActionTallyVotes:
	default:
		return "", errors.New("not a workflow action: " + string(action))
	}

	return c.Submit(ctx, votingfamily.Payload{Action: action, Ballot: name}, signer)
}

// GetBallot reads the current record of the ballot
func (c Client) GetBallot(ctx context.Context, name string) (*ballot.State, error) {
	data, err := c.getState(ctx, votingfamily.GetBallotAddress(name))
	if errors.Is(err, ErrNotFound) {
		return nil, ballot.NewBallotNotFoundError()
	}
	if err != nil {
		return nil, errors.New("failed to get the ballot state: " + err.Error())
	}

	return votingfamily.UnmarshalBallot(data)
}

// asBallotError attaches the ballot error the processor rejected the transaction with
func asBallotError(err error) error {
	var txnErr *TransactionError
	if !errors.As(err, &txnErr) {
		return err
	}

	if ballotErr, ok := ballot.ErrorFromReason(txnErr.Message); ok {
		return &rejectedError{TransactionError: txnErr, cause: ballotErr}
	}
	return err
}

type rejectedError struct {
	*TransactionError
	cause *ballot.Error
}

func (e *rejectedError) Unwrap() []error {
	return []error{e.TransactionError, e.cause}
}
