package handler

import (
	"errors"
	"testing"
	"voting-ledger/internal/ballot"
	"voting-ledger/internal/blockchain/settingsfamily"
	"voting-ledger/internal/blockchain/votingfamily"
	"voting-ledger/internal/model"

	"github.com/hyperledger/sawtooth-sdk-go/processor"
	"github.com/hyperledger/sawtooth-sdk-go/protobuf/setting_pb2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

const (
	owner  model.Address = "02owner"
	second model.Address = "02second"
	third  model.Address = "02third"

	ballotName = "board"
)

type emittedEvent struct {
	eventType  string
	attributes []processor.Attribute
	data       []byte
}

type fakeLedger struct {
	state    map[string][]byte
	events   []emittedEvent
	failSets bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{state: make(map[string][]byte)}
}

func (l *fakeLedger) GetState(addresses []string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	for _, addr := range addresses {
		if data, ok := l.state[addr]; ok {
			result[addr] = data
		}
	}
	return result, nil
}

func (l *fakeLedger) SetState(pairs map[string][]byte) ([]string, error) {
	if l.failSets {
		return nil, errors.New("validator went away")
	}
	var written []string
	for addr, data := range pairs {
		l.state[addr] = data
		written = append(written, addr)
	}
	return written, nil
}

func (l *fakeLedger) AddEvent(eventType string, attributes []processor.Attribute, eventData []byte) error {
	l.events = append(l.events, emittedEvent{eventType, attributes, eventData})
	return nil
}

type fakeRecorder struct {
	results map[string][]error
	tallies int
}

func (r *fakeRecorder) ObserveTransaction(action string, err error) {
	if r.results == nil {
		r.results = make(map[string][]error)
	}
	r.results[action] = append(r.results[action], err)
}

func (r *fakeRecorder) ObserveTally() {
	r.tallies++
}

type fixture struct {
	t        *testing.T
	handler  *VotingHandler
	ledger   *fakeLedger
	recorder *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	recorder := &fakeRecorder{}
	return &fixture{
		t:        t,
		handler:  NewVotingHandler(zap.NewNop(), recorder),
		ledger:   newFakeLedger(),
		recorder: recorder,
	}
}

func (f *fixture) submit(signer model.Address, payload votingfamily.Payload) error {
	if payload.Ballot == "" {
		payload.Ballot = ballotName
	}
	data, err := payload.Marshal()
	require.NoError(f.t, err)

	return f.handler.apply(signer, data, f.ledger)
}

func (f *fixture) mustSubmit(signer model.Address, action votingfamily.Action) {
	require.NoError(f.t, f.submit(signer, votingfamily.Payload{Action: action}))
}

func (f *fixture) ballot() *ballot.State {
	data, ok := f.ledger.state[votingfamily.GetBallotAddress(ballotName)]
	require.True(f.t, ok)

	state, err := votingfamily.UnmarshalBallot(data)
	require.NoError(f.t, err)
	return state
}

func (f *fixture) lastEvent() (string, map[string]string, ballot.Event) {
	require.NotEmpty(f.t, f.ledger.events)
	emitted := f.ledger.events[len(f.ledger.events)-1]

	attrs := make(map[string]string)
	for _, attr := range emitted.attributes {
		attrs[attr.Key] = attr.Value
	}
	event, err := votingfamily.UnmarshalEvent(emitted.data)
	require.NoError(f.t, err)

	return emitted.eventType, attrs, event
}

func requireInvalid(t *testing.T, err error, reason string) {
	t.Helper()
	var invalid *processor.InvalidTransactionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, reason, invalid.Msg)
}

func TestFamily(t *testing.T) {
	h := NewVotingHandler(zap.NewNop(), &fakeRecorder{})
	assert.Equal(t, "voting", h.FamilyName())
	assert.Equal(t, []string{"1.0"}, h.FamilyVersions())
	assert.Equal(t, []string{votingfamily.Namespace()}, h.Namespaces())
}

func TestCreateBallot(t *testing.T) {
	f := newFixture(t)
	f.mustSubmit(owner, votingfamily.ActionCreate)

	state := f.ballot()
	assert.Equal(t, owner, state.Owner)
	assert.Equal(t, model.RegisteringVoters, state.WorkflowStatus)
	assert.Empty(t, f.ledger.events)

	err := f.submit(second, votingfamily.Payload{Action: votingfamily.ActionCreate})
	requireInvalid(t, err, "Ballot already exists")
	assert.Equal(t, owner, f.ballot().Owner)
}

func TestActionOnMissingBallot(t *testing.T) {
	f := newFixture(t)

	err := f.submit(owner, votingfamily.Payload{Action: votingfamily.ActionStartProposalsRegistering})
	requireInvalid(t, err, "Ballot does not exist")
	assert.Empty(t, f.ledger.state)
}

func TestInvalidPayload(t *testing.T) {
	f := newFixture(t)

	err := f.handler.apply(owner, []byte{0xff, 0x00}, f.ledger)
	var invalid *processor.InvalidTransactionError
	assert.ErrorAs(t, err, &invalid)

	err = f.submit(owner, votingfamily.Payload{Action: "dropTables"})
	assert.ErrorAs(t, err, &invalid)
}

func TestAddVoterEmitsEvent(t *testing.T) {
	f := newFixture(t)
	f.mustSubmit(owner, votingfamily.ActionCreate)

	require.NoError(t, f.submit(owner, votingfamily.Payload{Action: votingfamily.ActionAddVoter, Voter: string(second)}))

	eventType, attrs, event := f.lastEvent()
	assert.Equal(t, "voting/VoterRegistered", eventType)
	assert.Equal(t, map[string]string{"ballot": ballotName, "voterAddress": string(second)}, attrs)
	assert.Equal(t, ballot.Event{Name: ballot.EventVoterRegistered, VoterAddress: second}, event)

	voter, err := f.ballot().GetVoter(second, second)
	require.NoError(t, err)
	assert.True(t, voter.IsRegistered)
}

func TestRejectedTransactionLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	f.mustSubmit(owner, votingfamily.ActionCreate)
	before := f.ledger.state[votingfamily.GetBallotAddress(ballotName)]

	err := f.submit(second, votingfamily.Payload{Action: votingfamily.ActionStartProposalsRegistering})
	requireInvalid(t, err, "Ownable: caller is not the owner")

	err = f.submit(owner, votingfamily.Payload{Action: votingfamily.ActionSetVote})
	requireInvalid(t, err, "Voting session havent started yet")

	assert.Equal(t, before, f.ledger.state[votingfamily.GetBallotAddress(ballotName)])
	assert.Empty(t, f.ledger.events)
	assert.Len(t, f.recorder.results[string(votingfamily.ActionStartProposalsRegistering)], 1)
}

func TestFullBallot(t *testing.T) {
	f := newFixture(t)
	f.mustSubmit(owner, votingfamily.ActionCreate)
	for _, voter := range []model.Address{owner, second, third} {
		require.NoError(t, f.submit(owner, votingfamily.Payload{Action: votingfamily.ActionAddVoter, Voter: string(voter)}))
	}

	f.mustSubmit(owner, votingfamily.ActionStartProposalsRegistering)
	eventType, attrs, _ := f.lastEvent()
	assert.Equal(t, "voting/WorkflowStatusChange", eventType)
	assert.Equal(t, "RegisteringVoters", attrs["previousStatus"])
	assert.Equal(t, "ProposalsRegistrationStarted", attrs["newStatus"])

	require.NoError(t, f.submit(second, votingfamily.Payload{Action: votingfamily.ActionAddProposal, Description: "My proposal"}))
	_, attrs, _ = f.lastEvent()
	assert.Equal(t, "1", attrs["proposalId"])
	require.NoError(t, f.submit(third, votingfamily.Payload{Action: votingfamily.ActionAddProposal, Description: "Other proposal"}))

	f.mustSubmit(owner, votingfamily.ActionEndProposalsRegistering)
	f.mustSubmit(owner, votingfamily.ActionStartVotingSession)

	votes := map[model.Address]uint64{owner: 1, second: 1, third: 2}
	for voter, id := range votes {
		require.NoError(t, f.submit(voter, votingfamily.Payload{Action: votingfamily.ActionSetVote, ProposalID: id}))
	}
	err := f.submit(owner, votingfamily.Payload{Action: votingfamily.ActionSetVote, ProposalID: 2})
	requireInvalid(t, err, "You have already voted")

	f.mustSubmit(owner, votingfamily.ActionEndVotingSession)
	f.mustSubmit(owner, votingfamily.ActionTallyVotes)

	state := f.ballot()
	assert.Equal(t, model.VotesTallied, state.WorkflowStatus)
	assert.Equal(t, uint64(1), state.WinningProposalID)
	assert.Equal(t, uint64(2), state.Proposals[1].VoteCount)
	assert.Equal(t, 1, f.recorder.tallies)
}

func TestProposalLimit(t *testing.T) {
	f := newFixture(t)
	setting, err := proto.Marshal(&setting_pb2.Setting{
		Entries: []*setting_pb2.Setting_Entry{{Key: settingsfamily.MaxProposalsSetting, Value: "2"}},
	})
	require.NoError(t, err)
	f.ledger.state[settingsfamily.GetAddress(settingsfamily.MaxProposalsSetting)] = setting

	f.mustSubmit(owner, votingfamily.ActionCreate)
	require.NoError(t, f.submit(owner, votingfamily.Payload{Action: votingfamily.ActionAddVoter, Voter: string(owner)}))
	f.mustSubmit(owner, votingfamily.ActionStartProposalsRegistering)

	require.NoError(t, f.submit(owner, votingfamily.Payload{Action: votingfamily.ActionAddProposal, Description: "first"}))
	err = f.submit(owner, votingfamily.Payload{Action: votingfamily.ActionAddProposal, Description: "second"})
	requireInvalid(t, err, "Too many proposals")

	assert.Len(t, f.ballot().Proposals, 2)
}

func TestSaveFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.ledger.failSets = true

	err := f.submit(owner, votingfamily.Payload{Action: votingfamily.ActionCreate})
	var internal *processor.InternalError
	assert.ErrorAs(t, err, &internal)
}

func TestMalformedProposalLimitRejects(t *testing.T) {
	f := newFixture(t)
	setting, err := proto.Marshal(&setting_pb2.Setting{
		Entries: []*setting_pb2.Setting_Entry{{Key: settingsfamily.MaxProposalsSetting, Value: "ten"}},
	})
	require.NoError(t, err)
	f.ledger.state[settingsfamily.GetAddress(settingsfamily.MaxProposalsSetting)] = setting

	f.mustSubmit(owner, votingfamily.ActionCreate)
	require.NoError(t, f.submit(owner, votingfamily.Payload{Action: votingfamily.ActionAddVoter, Voter: string(owner)}))
	f.mustSubmit(owner, votingfamily.ActionStartProposalsRegistering)

	err = f.submit(owner, votingfamily.Payload{Action: votingfamily.ActionAddProposal, Description: "first"})
	requireInvalid(t, err, "Invalid proposals limit setting")
	assert.Len(t, f.ballot().Proposals, 1)

	f.ledger.state[settingsfamily.GetAddress(settingsfamily.MaxProposalsSetting)] = []byte{0xff, 0xff}
	err = f.submit(owner, votingfamily.Payload{Action: votingfamily.ActionAddProposal, Description: "first"})
	requireInvalid(t, err, "Invalid proposals limit setting")
}

func TestEveryActionIsDispatched(t *testing.T) {
	f := newFixture(t)

	for _, action := range votingfamily.Actions {
		var state *ballot.State
		if action != votingfamily.ActionCreate {
			state = ballot.New(owner)
		}

		_, _, err := f.handler.dispatch(f.ledger, state, owner, votingfamily.Payload{Action: action, Ballot: ballotName, Voter: string(second)})
		if err != nil {
			var ballotErr *ballot.Error
			assert.ErrorAs(t, err, &ballotErr, "action %s", action)
		}
	}
}
