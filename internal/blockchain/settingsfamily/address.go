package settingsfamily

import (
	"strings"
	"voting-ledger/internal/hashing"
)

// MaxProposalsSetting caps the number of proposals of a ballot, genesis included.
// Unset or zero means no limit.
const MaxProposalsSetting = "voting.proposals.max"

// GetAddress returns the state address of an on-chain setting of the sawtooth_settings family.
func GetAddress(settingName string) string {
	addr := "000000"
	parts := strings.Split(settingName, ".")
	for i := 0; i < 4; i++ {
		if i < len(parts) {
			addr += hashing.CalculateSHA256(parts[i])[:16]
		} else {
			addr += hashing.CalculateSHA256("")[:16]
		}
	}
	return addr
}
