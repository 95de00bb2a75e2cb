// based on https://www.hyperledger.org/blog/2019/02/19/hyperledger-sawtooth-events-in-go-2
package events

import (
	"errors"
	"sync"
	"time"
	"voting-ledger/internal/ballot"
	"voting-ledger/internal/blockchain/votingfamily"

	"github.com/hyperledger/sawtooth-sdk-go/messaging"
	"github.com/hyperledger/sawtooth-sdk-go/protobuf/client_event_pb2"
	"github.com/hyperledger/sawtooth-sdk-go/protobuf/events_pb2"
	"github.com/hyperledger/sawtooth-sdk-go/protobuf/validator_pb2"
	"github.com/pebbe/zmq4"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

// BallotEvent is a voting family event received from the validator
type BallotEvent struct {
	Ballot string
	ballot.Event
}

type Handler func(event BallotEvent) error

const (
	pollInterval   = 200 * time.Millisecond
	receiveTimeout = 5 * time.Second
)

type EventListener struct {
	log          *zap.Logger
	connection   messaging.Connection
	validatorUrl string
	ballotFilter string
	closerFunc   []func() error
	handlers     map[string]Handler

	// readable waits up to timeout for a message on the connection
	readable      func(timeout time.Duration) (bool, error)
	stopListening chan struct{}
	loopDone      chan struct{}
	wg            *sync.WaitGroup
}

// NewEventListener creates a listener of the validator at validatorUrl, e.g. tcp://localhost:4004.
// If ballotName is not empty, only the events of this ballot are delivered.
func NewEventListener(logger *zap.Logger, validatorUrl string, ballotName string) *EventListener {
	return &EventListener{
		log:          logger,
		validatorUrl: validatorUrl,
		ballotFilter: ballotName,
		handlers:     make(map[string]Handler),
		wg:           &sync.WaitGroup{},
	}
}

func (e *EventListener) Start() error {
	zmqContext, err := zmq4.NewContext()
	if err != nil {
		return err
	}

	zmqConnection, err := messaging.NewConnection(
		zmqContext,
		zmq4.DEALER,
		e.validatorUrl,
		false,
	)
	if err != nil {
		return err
	}
	// bounds the subscription replies, the loop itself only receives when polled
	if err := zmqConnection.Socket().SetRcvtimeo(receiveTimeout); err != nil {
		zmqConnection.Close()
		return err
	}
	e.connection = zmqConnection
	e.readable = socketReadable(zmqConnection.Socket())

	for eventType := range e.handlers {
		if err := e.subscribeToEvent(eventType); err != nil {
			e.log.Error("error when subscribing to event " + eventType + ": " + err.Error())
		}
	}

	e.startLoop()
	return nil
}

func (e *EventListener) startLoop() {
	e.stopListening = make(chan struct{})
	e.loopDone = make(chan struct{})
	go func() {
		defer close(e.loopDone)
		if err := e.listenLoop(e.stopListening); err != nil {
			e.log.Error("event listener stopped: " + err.Error())
		}
	}()
}

// Stop unsubscribes once the listen loop has exited, the connection is not safe
// for use by two goroutines.
func (e *EventListener) Stop() error {
	close(e.stopListening)
	<-e.loopDone

	var allErr error
	for _, close := range e.closerFunc {
		if err := close(); err != nil {
			allErr = multierr.Append(allErr, err)
		}
	}
	e.connection.Close()
	e.log.Info("waiting for all the event handlers to finish...")
	e.wg.Wait()
	e.log.Info("event listener handlers finished")

	return allErr
}

func (e *EventListener) listenLoop(stop <-chan struct{}) error {
	e.log.Info("start listening on blockchain events")

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		ready, err := e.readable(pollInterval)
		if err != nil {
			return err
		}
		if !ready {
			continue
		}

		_, message, err := e.connection.RecvMsg()
		if err != nil {
			return err
		}
		// Check if received is a client event message
		if message.MessageType != validator_pb2.Message_CLIENT_EVENTS {
			e.log.Warn("skipping a message not requested for: " + message.MessageType.String())
			continue
		}
		event_list := events_pb2.EventList{}
		err = proto.Unmarshal(message.Content, &event_list)
		if err != nil {
			return err
		}
		// Received following events from validator
		for _, event := range event_list.Events {
			e.dispatch(event)
		}
	}
}

func socketReadable(socket *zmq4.Socket) func(time.Duration) (bool, error) {
	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	return func(timeout time.Duration) (bool, error) {
		polled, err := poller.Poll(timeout)
		if err != nil {
			return false, err
		}
		return len(polled) > 0, nil
	}
}

func (e *EventListener) dispatch(event *events_pb2.Event) {
	e.log.Debug("event received: " + event.EventType)

	handler, ok := e.handlers[event.EventType]
	if !ok {
		e.log.Warn("handler missing for the event: " + event.EventType)
		return
	}

	ballotEvent, err := ParseEvent(event)
	if err != nil {
		e.log.Error("error when parsing the event: " + err.Error())
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		if err := handler(ballotEvent); err != nil {
			e.log.Error("error when handling the event: " + err.Error())
		}
	}()
}

// SetHandler registers the handler of the named event, must be called before Start
func (e *EventListener) SetHandler(name ballot.EventName, handler Handler) {
	e.handlers[votingfamily.EventType(string(name))] = handler
}

// ParseEvent decodes the ballot event carried by a validator event
func ParseEvent(event *events_pb2.Event) (BallotEvent, error) {
	decoded, err := votingfamily.UnmarshalEvent(event.GetData())
	if err != nil {
		return BallotEvent{}, err
	}
	if votingfamily.EventType(string(decoded.Name)) != event.GetEventType() {
		return BallotEvent{}, errors.New("event type " + event.GetEventType() + " doesn't match its data: " + string(decoded.Name))
	}

	ballotEvent := BallotEvent{Event: decoded}
	for _, attr := range event.GetAttributes() {
		if attr.GetKey() == "ballot" {
			ballotEvent.Ballot = attr.GetValue()
		}
	}

	return ballotEvent, nil
}

func (e *EventListener) subscribeToEvent(eventType string) (err error) {

	subs := events_pb2.EventSubscription{
		EventType: eventType,
	}
	if e.ballotFilter != "" {
		subs.Filters = []*events_pb2.EventFilter{{
			Key:         "ballot",
			MatchString: e.ballotFilter,
			FilterType:  events_pb2.EventFilter_SIMPLE_ALL,
		}}
	}
	request := client_event_pb2.ClientEventsSubscribeRequest{
		Subscriptions: []*events_pb2.EventSubscription{
			&subs,
		},
	}

	serializedReq, err := proto.Marshal(&request)
	if err != nil {
		return
	}
	// Send the subscription request, get a correlation id
	// from the SDK
	corrId, err := e.connection.SendNewMsg(
		validator_pb2.Message_CLIENT_EVENTS_SUBSCRIBE_REQUEST,
		serializedReq,
	)
	if err != nil {
		return
	}
	e.log.Debug("waiting for receiving the subscription confirmation...")
	// Wait for subscription status, wait for response of
	// message with specific correlation id
	_, response, err := e.connection.RecvMsgWithId(corrId)
	if err != nil {
		return
	}

	// Deserialize received protobuf message as response
	// for subscription request
	subsResponse :=
		client_event_pb2.ClientEventsSubscribeResponse{}

	err = proto.Unmarshal(response.Content, &subsResponse)
	if err != nil {
		return
	}
	if subsResponse.Status !=
		client_event_pb2.ClientEventsSubscribeResponse_OK {
		return errors.New("client subscription failed, subscription status: " + subsResponse.String())
	}

	// unsubscribe when the listener stops
	unsubscribe := func() error {
		events_unsubscribe_request :=
			client_event_pb2.ClientEventsUnsubscribeRequest{}
		serialized_unsubscribe_request, err :=
			proto.Marshal(&events_unsubscribe_request)
		if err != nil {
			return err
		}

		corrId, err := e.connection.SendNewMsg(
			validator_pb2.Message_CLIENT_EVENTS_UNSUBSCRIBE_REQUEST,
			serialized_unsubscribe_request,
		)
		if err != nil {
			return err
		}
		// Wait for status
		_, unsubscribe_response, err :=
			e.connection.RecvMsgWithId(corrId)
		if err != nil {
			return err
		}
		events_unsubscribe_response := client_event_pb2.ClientEventsUnsubscribeResponse{}
		err = proto.Unmarshal(unsubscribe_response.Content,
			&events_unsubscribe_response)
		if err != nil {
			return err
		}
		if events_unsubscribe_response.Status !=
			client_event_pb2.ClientEventsUnsubscribeResponse_OK {
			return errors.New("client couldn't unsubscribe successfully, status: " + events_unsubscribe_response.String())
		}

		return nil
	}

	e.closerFunc = append(e.closerFunc, unsubscribe)
	e.log.Info("successfully subscribed to event '" + eventType + "'")

	return nil
}
