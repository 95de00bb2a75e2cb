package votingfamily

import (
	"sync"
	"voting-ledger/internal/hashing"
)

var (
	familyHash       = ""
	ballotPrefixHash = ""

	calcOnce sync.Once
)

func initHashVars() {
	calcOnce.Do(func() {
		familyHash = hashing.CalculateSHA512(FamilyName)
		ballotPrefixHash = hashing.CalculateSHA512(ballotPrefix)
	})
}

// Namespace is the address prefix of all the family's state.
func Namespace() string {
	initHashVars()

	return familyHash[0:6]
}

// GetBallotAddress calculates the address of the ballot record; if the name is empty,
// it returns the prefix of all the ballots
func GetBallotAddress(name string) (address string) {
	initHashVars()

	address = familyHash[0:6] + ballotPrefixHash[0:6]

	if name != "" {
		nameHash := hashing.CalculateSHA512(name)
		address += nameHash[0:58]
	}

	return address
}
