package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"voting-ledger/internal/ballot"
	"voting-ledger/internal/blockchain"
	"voting-ledger/internal/blockchain/events"
	"voting-ledger/internal/blockchain/votingfamily"
	"voting-ledger/internal/config"
	"voting-ledger/internal/keymanager"
	"voting-ledger/internal/logging"
	"voting-ledger/internal/model"

	"github.com/hyperledger/sawtooth-sdk-go/signing"
	"go.uber.org/zap"
)

const usage = `usage: ballotctl [-ballot name] [-key hex] <command> [args]

commands:
  keygen                   print a new private key and its address
  create                   create the ballot, the signer becomes its owner
  add-voter <address>      register a voter
  start-proposals | end-proposals | start-voting | end-voting | tally
  propose <description>    register a proposal
  vote <proposal id>       cast the signer's vote
  show                     print the ballot status and the winning proposal
  voter <address>          print a voter record
  proposal <id>            print a proposal
  watch                    print the ballot events as they are committed
`

var workflowCommands = map[string]votingfamily.Action{
	"start-proposals": votingfamily.ActionStartProposalsRegistering,
	"end-proposals":   votingfamily.ActionEndProposalsRegistering,
	"start-voting":    votingfamily.ActionStartVotingSession,
	"end-voting":      votingfamily.ActionEndVotingSession,
	"tally":           votingfamily.ActionTallyVotes,
}

type ledgerClient interface {
	Submit(ctx context.Context, payload votingfamily.Payload, signer *signing.Signer) (string, error)
	GetBallot(ctx context.Context, name string) (*ballot.State, error)
}

type command struct {
	client     ledgerClient
	keys       keymanager.KeyManager
	signer     string // public key of the signer, resolved through keys
	ballotName string
	out        io.Writer
}

func main() {
	ballotName := flag.String("ballot", "default", "name of the ballot")
	key := flag.String("key", config.GetSignerKey(), "hex encoded private key of the signer, SIGNER_KEY by default")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	logger, err := logging.NewLogger(config.GetLogLevel())
	if err != nil {
		log.Fatalln("setting up the logger failed: ", err)
	}
	defer logger.Sync()

	cmd := command{
		client:     blockchain.NewClient(logger, config.GetValidatorRestAPIAddr(), config.GetBatchWait()),
		keys:       keymanager.NewKeyManager(logger),
		ballotName: *ballotName,
		out:        os.Stdout,
	}
	if *key != "" {
		signerKeys, err := cmd.keys.LoadKeys(*key)
		if err != nil {
			logger.Fatal("invalid signer key: " + err.Error())
		}
		cmd.signer = signerKeys.PublicKey.AsHex()
	}

	args := flag.Args()
	if len(args) > 0 && args[0] == "watch" {
		if err := watch(logger, cmd.ballotName, cmd.out); err != nil {
			logger.Fatal(err.Error())
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.GetRequestTimeout()+config.GetBatchWait())
	defer cancel()

	if err := cmd.run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func (c command) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	name, args := args[0], args[1:]

	if action, ok := workflowCommands[name]; ok {
		return c.submit(ctx, votingfamily.Payload{Action: action})
	}

	switch name {
	case "keygen":
		keys, err := c.keys.GenerateKeys()
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, "private key:", keys.PrivateKey.AsHex())
		fmt.Fprintln(c.out, "address:    ", keys.Address())
		return nil

	case "create":
		return c.submit(ctx, votingfamily.Payload{Action: votingfamily.ActionCreate})

	case "add-voter":
		if len(args) != 1 {
			return errors.New("add-voter needs the voter address")
		}
		return c.submit(ctx, votingfamily.Payload{Action: votingfamily.ActionAddVoter, Voter: args[0]})

	case "propose":
		if len(args) != 1 {
			return errors.New("propose needs the proposal description")
		}
		return c.submit(ctx, votingfamily.Payload{Action: votingfamily.ActionAddProposal, Description: args[0]})

	case "vote":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		return c.submit(ctx, votingfamily.Payload{Action: votingfamily.ActionSetVote, ProposalID: id})

	case "show":
		state, err := c.client.GetBallot(ctx, c.ballotName)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, "owner:             ", state.Owner)
		fmt.Fprintln(c.out, "workflowStatus:    ", state.WorkflowStatus)
		fmt.Fprintln(c.out, "proposals:         ", len(state.Proposals))
		if state.WorkflowStatus == model.VotesTallied {
			fmt.Fprintln(c.out, "winningProposalID: ", state.WinningProposalID)
		}
		return nil

	case "voter":
		if len(args) != 1 {
			return errors.New("voter needs the voter address")
		}
		state, err := c.client.GetBallot(ctx, c.ballotName)
		if err != nil {
			return err
		}
		voter, err := state.GetVoter(c.caller(), model.Address(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "isRegistered: %v, hasVoted: %v, votedProposalId: %d\n", voter.IsRegistered, voter.HasVoted, voter.VotedProposalID)
		return nil

	case "proposal":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		state, err := c.client.GetBallot(ctx, c.ballotName)
		if err != nil {
			return err
		}
		proposal, err := state.GetOneProposal(c.caller(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%d: %s (%d votes)\n", id, proposal.Description, proposal.VoteCount)
		return nil
	}

	return errors.New("unknown command: " + name)
}

func (c command) submit(ctx context.Context, payload votingfamily.Payload) error {
	signerKeys, ok := c.keys.GetKeys(c.signer)
	if !ok {
		return errors.New("the signer key is missing, set -key or SIGNER_KEY")
	}
	payload.Ballot = c.ballotName

	transactionID, err := c.client.Submit(ctx, payload, signerKeys.GetSigner())
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, string(payload.Action), "committed:", transactionID)
	return nil
}

// caller is the address the read calls are made as, empty without a signer key
func (c command) caller() model.Address {
	return model.Address(c.signer)
}

func parseID(args []string) (uint64, error) {
	if len(args) != 1 {
		return 0, errors.New("the proposal id is missing")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, errors.New("invalid proposal id: " + args[0])
	}
	return id, nil
}

func formatEvent(event events.BallotEvent) string {
	var line strings.Builder
	line.WriteString(event.Ballot + " " + string(event.Name))
	for _, attr := range event.Attributes() {
		line.WriteString(" " + attr.Key + "=" + attr.Value)
	}
	return line.String()
}

func watch(logger *zap.Logger, ballotName string, out io.Writer) error {
	listener := events.NewEventListener(logger, config.GetValidatorAddr(), ballotName)
	for _, name := range ballot.EventNames {
		listener.SetHandler(name, func(event events.BallotEvent) error {
			// handlers run concurrently, one write per event keeps the lines whole
			_, err := fmt.Fprintln(out, formatEvent(event))
			return err
		})
	}

	if err := listener.Start(); err != nil {
		return errors.New("failed to start the event listener: " + err.Error())
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	return listener.Stop()
}
