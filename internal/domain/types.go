package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Mode represents a token's economic mode
type Mode string

const (
	ModeCommunity    Mode = "community"
	ModeSpeculation  Mode = "speculation"
	ModeCrowdfunding Mode = "crowdfunding"
)

// IsValidMode checks if a mode is one of the known modes
func IsValidMode(mode Mode) bool {
	return mode == ModeCommunity ||
		mode == ModeSpeculation ||
		mode == ModeCrowdfunding
}

// CanTransition reports whether a mode change from one mode to another is
// allowed. Community is the hub: every other mode is entered from community
// and left back to community. Direct speculation<->crowdfunding moves are
// rejected.
func CanTransition(from, to Mode) bool {
	if !IsValidMode(from) || !IsValidMode(to) || from == to {
		return false
	}
	return from == ModeCommunity || to == ModeCommunity
}

// Tier represents the display tier assigned to a token at creation
type Tier string

const (
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// ZeroAddress is the zero account identifier, used as the mint/burn sentinel
var ZeroAddress = common.Address{}

// IsZeroAddress checks if an address is the zero sentinel
func IsZeroAddress(addr common.Address) bool {
	return addr == ZeroAddress
}

// ParseAddress parses a 0x-prefixed hex account identifier
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, Validationf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// NormalizeAddress normalizes an address string to its checksummed form
func NormalizeAddress(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return common.HexToAddress(s).String()
	}
	return s
}
