package events

import (
	"errors"
	"sync"
	"testing"
	"time"
	"voting-ledger/internal/ballot"
	"voting-ledger/internal/blockchain/votingfamily"
	"voting-ledger/internal/model"

	"github.com/hyperledger/sawtooth-sdk-go/protobuf/events_pb2"
	"github.com/hyperledger/sawtooth-sdk-go/protobuf/validator_pb2"
	"github.com/pebbe/zmq4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

// fakeConnection queues validator messages and records whether two goroutines
// ever received from it at the same time
type fakeConnection struct {
	mu         sync.Mutex
	queue      []*validator_pb2.Message
	receiving  int
	concurrent bool
	closed     bool
}

func (c *fakeConnection) push(message *validator_pb2.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, message)
}

func (c *fakeConnection) readable(timeout time.Duration) (bool, error) {
	c.mu.Lock()
	ready := len(c.queue) > 0
	c.mu.Unlock()
	if !ready {
		time.Sleep(time.Millisecond)
	}
	return ready, nil
}

func (c *fakeConnection) receive() (*validator_pb2.Message, error) {
	c.mu.Lock()
	c.receiving++
	if c.receiving > 1 {
		c.concurrent = true
	}
	c.mu.Unlock()

	// widen the window another receiver could run in
	time.Sleep(time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiving--
	if len(c.queue) == 0 {
		return nil, errors.New("resource temporarily unavailable")
	}
	message := c.queue[0]
	c.queue = c.queue[1:]
	return message, nil
}

func (c *fakeConnection) SendData(id string, data []byte) error { return nil }
func (c *fakeConnection) SendNewMsg(t validator_pb2.Message_MessageType, content []byte) (string, error) {
	return "corr", nil
}
func (c *fakeConnection) SendNewMsgTo(id string, t validator_pb2.Message_MessageType, content []byte) (string, error) {
	return "corr", nil
}
func (c *fakeConnection) SendMsg(t validator_pb2.Message_MessageType, content []byte, corrId string) error {
	return nil
}
func (c *fakeConnection) SendMsgTo(id string, t validator_pb2.Message_MessageType, content []byte, corrId string) error {
	return nil
}
func (c *fakeConnection) RecvData() (string, []byte, error) { return "", nil, errors.New("not used") }
func (c *fakeConnection) RecvMsg() (string, *validator_pb2.Message, error) {
	message, err := c.receive()
	return "", message, err
}
func (c *fakeConnection) RecvMsgWithId(corrId string) (string, *validator_pb2.Message, error) {
	message, err := c.receive()
	return "", message, err
}
func (c *fakeConnection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
func (c *fakeConnection) Socket() *zmq4.Socket { return nil }
func (c *fakeConnection) Monitor(zmq4.Event) (*zmq4.Socket, error) { return nil, nil }
func (c *fakeConnection) Identity() string { return "fake" }

func newEventsMessage(t *testing.T, events ...*events_pb2.Event) *validator_pb2.Message {
	content, err := proto.Marshal(&events_pb2.EventList{Events: events})
	require.NoError(t, err)
	return &validator_pb2.Message{MessageType: validator_pb2.Message_CLIENT_EVENTS, Content: content}
}

func newValidatorEvent(t *testing.T, ballotName string, event ballot.Event) *events_pb2.Event {
	data, err := votingfamily.MarshalEvent(event)
	require.NoError(t, err)

	return &events_pb2.Event{
		EventType: votingfamily.EventType(string(event.Name)),
		Attributes: []*events_pb2.Event_Attribute{
			{Key: "ballot", Value: ballotName},
		},
		Data: data,
	}
}

func TestParseEvent(t *testing.T) {
	event := ballot.Event{
		Name:           ballot.EventWorkflowStatusChange,
		PreviousStatus: model.VotingSessionStarted,
		NewStatus:      model.VotingSessionEnded,
	}

	parsed, err := ParseEvent(newValidatorEvent(t, "board", event))
	require.NoError(t, err)
	assert.Equal(t, BallotEvent{Ballot: "board", Event: event}, parsed)
}

func TestParseEventTypeMismatch(t *testing.T) {
	validatorEvent := newValidatorEvent(t, "board", ballot.Event{Name: ballot.EventVoted, Voter: "02aa"})
	validatorEvent.EventType = "voting/VoterRegistered"

	_, err := ParseEvent(validatorEvent)
	assert.Error(t, err)
}

func TestDispatch(t *testing.T) {
	listener := NewEventListener(zap.NewNop(), "tcp://localhost:4004", "")

	var (
		mu       sync.Mutex
		received []BallotEvent
	)
	listener.SetHandler(ballot.EventVoted, func(event BallotEvent) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event)
		return nil
	})
	listener.SetHandler(ballot.EventProposalRegistered, func(event BallotEvent) error {
		return errors.New("indexer is down")
	})

	listener.dispatch(newValidatorEvent(t, "board", ballot.Event{Name: ballot.EventVoted, Voter: "02aa", ProposalID: 1}))
	listener.dispatch(newValidatorEvent(t, "board", ballot.Event{Name: ballot.EventProposalRegistered, ProposalID: 1}))
	listener.dispatch(newValidatorEvent(t, "board", ballot.Event{Name: ballot.EventVoterRegistered, VoterAddress: "02bb"}))
	listener.wg.Wait()

	require.Len(t, received, 1)
	assert.Equal(t, model.Address("02aa"), received[0].Voter)
	assert.Equal(t, "board", received[0].Ballot)
}

func TestStopUnsubscribesAfterTheLoopExits(t *testing.T) {
	connection := &fakeConnection{}
	listener := NewEventListener(zap.NewNop(), "tcp://localhost:4004", "board")
	listener.connection = connection
	listener.readable = connection.readable

	received := make(chan BallotEvent, 1)
	listener.SetHandler(ballot.EventVoted, func(event BallotEvent) error {
		received <- event
		return nil
	})

	unsubscribed := false
	listener.closerFunc = append(listener.closerFunc, func() error {
		select {
		case <-listener.loopDone:
		default:
			t.Error("unsubscribing while the listen loop still runs")
		}
		// the unsubscribe reply
		connection.push(&validator_pb2.Message{MessageType: validator_pb2.Message_CLIENT_EVENTS_UNSUBSCRIBE_RESPONSE})
		_, _, err := connection.RecvMsgWithId("corr")
		unsubscribed = true
		return err
	})

	listener.startLoop()
	connection.push(&validator_pb2.Message{MessageType: validator_pb2.Message_PING_REQUEST})
	connection.push(newEventsMessage(t, newValidatorEvent(t, "board", ballot.Event{Name: ballot.EventVoted, Voter: "02aa", ProposalID: 2})))

	select {
	case event := <-received:
		assert.Equal(t, uint64(2), event.ProposalID)
	case <-time.After(5 * time.Second):
		t.Fatal("the event was not delivered")
	}

	require.NoError(t, listener.Stop())
	assert.True(t, unsubscribed)
	assert.True(t, connection.closed)
	assert.False(t, connection.concurrent)
}
