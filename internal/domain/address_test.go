package domain

import (
	"errors"
	"testing"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

func TestNormalizeAddress_Hex(t *testing.T) {
	got, err := NormalizeAddress("  0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82 ")
	if err != nil {
		t.Fatalf("NormalizeAddress: %v", err)
	}
	want := "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestNormalizeAddress_HexWithoutPrefix(t *testing.T) {
	got, err := NormalizeAddress("0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82")
	if err != nil {
		t.Fatalf("NormalizeAddress: %v", err)
	}
	if got != "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82" {
		t.Errorf("unexpected normalized address: %s", got)
	}
}

func TestNormalizeAddress_Base58(t *testing.T) {
	addr := "So11111111111111111111111111111111111111112"
	got, err := NormalizeAddress(addr)
	if err != nil {
		t.Fatalf("NormalizeAddress: %v", err)
	}
	if got != addr {
		t.Errorf("base58 address must be kept as is: got %s", got)
	}
}

func TestNormalizeAddress_Invalid(t *testing.T) {
	tests := []string{"", "   ", "cake", "0x1234", "0OIl"}
	for _, in := range tests {
		if _, err := NormalizeAddress(in); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("NormalizeAddress(%q): expected ErrInvalidAddress, got %v", in, err)
		}
	}
}

func TestIsWalletAddress(t *testing.T) {
	onCurve := base58.Encode(edwards25519.NewGeneratorPoint().Bytes())
	if !IsWalletAddress(onCurve) {
		t.Error("generator point must be a wallet address")
	}

	// find an encoding that is not a curve point
	var offCurve string
	for i := 2; i < 256; i++ {
		b := make([]byte, 32)
		b[0] = byte(i)
		if _, err := new(edwards25519.Point).SetBytes(b); err != nil {
			offCurve = base58.Encode(b)
			break
		}
	}
	if offCurve == "" {
		t.Fatal("no off-curve candidate found")
	}
	if IsWalletAddress(offCurve) {
		t.Errorf("off-curve address %s must not be a wallet address", offCurve)
	}

	if !IsWalletAddress("0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82") {
		t.Error("hex address must be a wallet address")
	}
	if IsWalletAddress("nope") {
		t.Error("invalid address must not be a wallet address")
	}
}

func TestSameAddress(t *testing.T) {
	if !SameAddress("0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82", "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82") {
		t.Error("hex addresses differing in case must be equal")
	}
	if SameAddress("0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82", "0x55d398326f99059ff775485246999027b3197955") {
		t.Error("different addresses must not be equal")
	}
}
