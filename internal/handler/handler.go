// based on https://github.com/hyperledger/sawtooth-sdk-go/blob/21f3d02d2446b6a91a945c93a8b94b1ddf616841/examples/intkey_go/src/sawtooth_intkey/handler/handler.go
package handler

import (
	"errors"
	"strconv"
	"voting-ledger/internal/ballot"
	"voting-ledger/internal/blockchain/settingsfamily"
	"voting-ledger/internal/blockchain/votingfamily"
	"voting-ledger/internal/model"

	"github.com/hyperledger/sawtooth-sdk-go/processor"
	"github.com/hyperledger/sawtooth-sdk-go/protobuf/processor_pb2"
	"go.uber.org/zap"
)

const (
	reasonTooManyProposals      = "Too many proposals"
	reasonInvalidProposalsLimit = "Invalid proposals limit setting"
)

var (
	ErrTooManyProposals      = errors.New("too many proposals")
	ErrInvalidProposalsLimit = errors.New("invalid proposals limit setting")
)

// ledgerContext is the part of the validator state context the handler uses.
type ledgerContext interface {
	GetState(addresses []string) (map[string][]byte, error)
	SetState(pairs map[string][]byte) ([]string, error)
	AddEvent(eventType string, attributes []processor.Attribute, eventData []byte) error
}

type Recorder interface {
	ObserveTransaction(action string, err error)
	ObserveTally()
}

// VotingHandler applies the voting family transactions, each one runs a single
// ballot operation against the ballot record.
type VotingHandler struct {
	logger   *zap.Logger
	recorder Recorder
}

func NewVotingHandler(logger *zap.Logger, recorder Recorder) *VotingHandler {
	return &VotingHandler{logger: logger, recorder: recorder}
}

func (h *VotingHandler) FamilyName() string {
	return votingfamily.FamilyName
}

func (h *VotingHandler) FamilyVersions() []string {
	return []string{votingfamily.FamilyVersion}
}

func (h *VotingHandler) Namespaces() []string {
	return []string{votingfamily.Namespace()}
}

func (h *VotingHandler) Apply(request *processor_pb2.TpProcessRequest, context *processor.Context) error {
	return h.apply(model.Address(request.GetHeader().GetSignerPublicKey()), request.GetPayload(), context)
}

func (h *VotingHandler) apply(signer model.Address, data []byte, ctx ledgerContext) (err error) {
	payload, err := votingfamily.UnmarshalPayload(data)
	if err != nil {
		h.logger.Warn("rejecting the transaction: "+err.Error(), zap.String("signer", string(signer)))
		return &processor.InvalidTransactionError{Msg: err.Error()}
	}
	defer func() {
		h.recorder.ObserveTransaction(string(payload.Action), err)
	}()

	logger := h.logger.With(
		zap.String("action", string(payload.Action)),
		zap.String("ballot", payload.Ballot),
		zap.String("signer", string(signer)),
	)

	address := votingfamily.GetBallotAddress(payload.Ballot)
	state, err := h.loadBallot(ctx, address)
	if err != nil {
		logger.Error("failed to load the ballot: " + err.Error())
		return &processor.InternalError{Msg: err.Error()}
	}

	state, event, err := h.dispatch(ctx, state, signer, payload)
	if err != nil {
		var ballotErr *ballot.Error
		if errors.As(err, &ballotErr) {
			logger.Info("transaction rejected: " + ballotErr.Reason)
			return &processor.InvalidTransactionError{Msg: ballotErr.Reason}
		}
		logger.Error("failed to apply the transaction: " + err.Error())
		return &processor.InternalError{Msg: err.Error()}
	}

	if err := h.saveBallot(ctx, address, state); err != nil {
		logger.Error("failed to save the ballot: " + err.Error())
		return &processor.InternalError{Msg: err.Error()}
	}

	if event != nil {
		if err := h.addEvent(ctx, payload.Ballot, *event); err != nil {
			logger.Error("failed to add the event: " + err.Error())
			return &processor.InternalError{Msg: err.Error()}
		}
		if event.Name == ballot.EventWorkflowStatusChange && event.NewStatus == model.VotesTallied {
			h.recorder.ObserveTally()
			logger.Info("votes tallied", zap.Uint64("winningProposalID", state.WinningProposalID))
		}
	}

	logger.Debug("transaction applied")
	return nil
}

// dispatch runs the operation named by the payload on state, nil when the ballot
// doesn't exist yet. It returns the record to save and the event to emit, nil for
// operations that emit none.
func (h *VotingHandler) dispatch(ctx ledgerContext, state *ballot.State, signer model.Address, payload votingfamily.Payload) (*ballot.State, *ballot.Event, error) {
	if payload.Action == votingfamily.ActionCreate {
		if state != nil {
			return nil, nil, ballot.NewAlreadyExistsError()
		}
		return ballot.New(signer), nil, nil
	}
	if state == nil {
		return nil, nil, ballot.NewBallotNotFoundError()
	}

	var (
		event ballot.Event
		err   error
	)
	switch payload.Action {
	case votingfamily.ActionAddVoter:
		event, err = state.AddVoter(signer, model.Address(payload.Voter))
	case votingfamily.ActionStartProposalsRegistering:
		event, err = state.StartProposalsRegistering(signer)
	case votingfamily.ActionEndProposalsRegistering:
		event, err = state.EndProposalsRegistering(signer)
	case votingfamily.ActionStartVotingSession:
		event, err = state.StartVotingSession(signer)
	case votingfamily.ActionEndVotingSession:
		event, err = state.EndVotingSession(signer)
	case votingfamily.ActionAddProposal:
		event, err = state.AddProposal(signer, payload.Description)
		if err == nil {
			err = h.checkProposalLimit(ctx, state)
		}
	case votingfamily.ActionSetVote:
		event, err = state.SetVote(signer, payload.ProposalID)
	case votingfamily.ActionTallyVotes:
		event, err = state.TallyVotes(signer)
	default:
		// UnmarshalPayload lets through only the actions above
		return nil, nil, errors.New("no operation for the action " + string(payload.Action))
	}
	if err != nil {
		return nil, nil, err
	}

	return state, &event, nil
}

// checkProposalLimit enforces the optional on-chain cap on the number of proposals,
// GENESIS included.
// It runs after the proposal was appended, the record is discarded on failure.
func (h *VotingHandler) checkProposalLimit(ctx ledgerContext, state *ballot.State) error {
	address := settingsfamily.GetAddress(settingsfamily.MaxProposalsSetting)
	entries, err := ctx.GetState([]string{address})
	if err != nil {
		return errors.New("failed to read the proposals limit: " + err.Error())
	}

	// a malformed setting rejects the transaction, retrying can't fix it
	limit, err := settingsfamily.ParseUint(entries[address], settingsfamily.MaxProposalsSetting)
	if err != nil {
		h.logger.Warn("rejecting the proposal: " + err.Error())
		return &ballot.Error{Kind: ErrInvalidProposalsLimit, Reason: reasonInvalidProposalsLimit}
	}
	if limit > 0 && uint64(len(state.Proposals)) > limit {
		return &ballot.Error{Kind: ErrTooManyProposals, Reason: reasonTooManyProposals}
	}

	return nil
}

func (h *VotingHandler) loadBallot(ctx ledgerContext, address string) (*ballot.State, error) {
	entries, err := ctx.GetState([]string{address})
	if err != nil {
		return nil, err
	}

	data, ok := entries[address]
	if !ok || len(data) == 0 {
		return nil, nil
	}

	return votingfamily.UnmarshalBallot(data)
}

func (h *VotingHandler) saveBallot(ctx ledgerContext, address string, state *ballot.State) error {
	data, err := votingfamily.MarshalBallot(state)
	if err != nil {
		return err
	}

	written, err := ctx.SetState(map[string][]byte{address: data})
	if err != nil {
		return err
	}
	if len(written) != 1 {
		return errors.New("ballot state was not written, written addresses: " + strconv.Itoa(len(written)))
	}

	return nil
}

func (h *VotingHandler) addEvent(ctx ledgerContext, ballotName string, event ballot.Event) error {
	data, err := votingfamily.MarshalEvent(event)
	if err != nil {
		return err
	}

	attributes := []processor.Attribute{{Key: "ballot", Value: ballotName}}
	for _, attr := range event.Attributes() {
		attributes = append(attributes, processor.Attribute{Key: attr.Key, Value: attr.Value})
	}

	return ctx.AddEvent(votingfamily.EventType(string(event.Name)), attributes, data)
}
