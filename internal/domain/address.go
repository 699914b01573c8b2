package domain

import (
	"errors"
	"strings"

	"filippo.io/edwards25519"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned when a string is neither a hex nor a base58 address.
var ErrInvalidAddress = errors.New("invalid address")

// NormalizeAddress returns the canonical form of an address.
// Hex (EVM) addresses are lower-cased with a 0x prefix; base58 addresses must
// decode to 32 bytes and are returned unchanged since base58 is case-sensitive.
func NormalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", ErrInvalidAddress
	}

	if common.IsHexAddress(addr) {
		return strings.ToLower(common.HexToAddress(addr).Hex()), nil
	}

	decoded, err := base58.Decode(addr)
	if err != nil || len(decoded) != 32 {
		return "", ErrInvalidAddress
	}
	return addr, nil
}

// IsHexAddress reports whether addr is an EVM address.
func IsHexAddress(addr string) bool {
	return common.IsHexAddress(strings.TrimSpace(addr))
}

// IsWalletAddress reports whether addr can belong to a key holder.
// EVM addresses always can. A base58 address must be a point on the ed25519
// curve; program-derived addresses are off-curve and have no private key.
func IsWalletAddress(addr string) bool {
	norm, err := NormalizeAddress(addr)
	if err != nil {
		return false
	}
	if IsHexAddress(norm) {
		return true
	}
	decoded, err := base58.Decode(norm)
	if err != nil {
		return false
	}
	return isOnCurve(decoded)
}

// SameAddress compares two addresses after normalization.
func SameAddress(a, b string) bool {
	na, errA := NormalizeAddress(a)
	nb, errB := NormalizeAddress(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return na == nb
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
