package model

// Address identifies a transaction submitter: the hex encoded public key of the signer.
type Address string

type Voter struct {
	IsRegistered    bool   `cbor:"isRegistered"`
	HasVoted        bool   `cbor:"hasVoted"`
	VotedProposalID uint64 `cbor:"votedProposalId"`
}
