package model

// GenesisDescription is the description of the placeholder proposal at index 0.
const GenesisDescription = "GENESIS"

type Proposal struct {
	Description string `cbor:"description"`
	VoteCount   uint64 `cbor:"voteCount"`
}

func NewGenesisProposal() Proposal {
	return Proposal{Description: GenesisDescription}
}
