package wallet

import (
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/sha3"
)

const (
	flightNumberSize = 8
	wordSize         = 32
	loginDomain      = "flight-seats-login"
)

var ErrInvalidInput = errors.New("invalid digest input")

// Keccak256 hashes the concatenation of parts with legacy keccak padding.
func Keccak256(parts ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// FlightID = keccak(bytes8(flightNumber) || uint256(departure)).
func FlightID(flightNumber string, departure int64) ([32]byte, error) {
	num, err := flightNumberBytes(flightNumber)
	if err != nil {
		return [32]byte{}, err
	}
	dep, err := int64Word(departure)
	if err != nil {
		return [32]byte{}, err
	}
	return Keccak256(num, dep), nil
}

// CreateFlightDigest = keccak(flightID || address || uint256(nonce)).
func CreateFlightDigest(flightID [32]byte, airline Address, nonce uint64) ([32]byte, error) {
	addr, err := airline.Bytes()
	if err != nil {
		return [32]byte{}, err
	}
	return Keccak256(flightID[:], addr, uint64Word(nonce)), nil
}

// RefundDigest = keccak(address || uint256(amount) || uint256(nonce)).
func RefundDigest(airline Address, amount *big.Int, nonce uint64) ([32]byte, error) {
	addr, err := airline.Bytes()
	if err != nil {
		return [32]byte{}, err
	}
	amt, err := bigWord(amount)
	if err != nil {
		return [32]byte{}, err
	}
	return Keccak256(addr, amt, uint64Word(nonce)), nil
}

// LoginDigest binds an address to the moment a session token was requested.
func LoginDigest(addr Address, issuedAt int64) ([32]byte, error) {
	raw, err := addr.Bytes()
	if err != nil {
		return [32]byte{}, err
	}
	ts, err := int64Word(issuedAt)
	if err != nil {
		return [32]byte{}, err
	}
	return Keccak256([]byte(loginDomain), raw, ts), nil
}

func flightNumberBytes(flightNumber string) ([]byte, error) {
	if flightNumber == "" || len(flightNumber) > flightNumberSize {
		return nil, fmt.Errorf("%w: flight number must be 1 to %d bytes", ErrInvalidInput, flightNumberSize)
	}
	out := make([]byte, flightNumberSize)
	copy(out, flightNumber)
	return out, nil
}

func uint64Word(v uint64) []byte {
	return new(big.Int).SetUint64(v).FillBytes(make([]byte, wordSize))
}

func int64Word(v int64) ([]byte, error) {
	if v < 0 {
		return nil, fmt.Errorf("%w: negative value %d", ErrInvalidInput, v)
	}
	return uint64Word(uint64(v)), nil
}

func bigWord(v *big.Int) ([]byte, error) {
	if v == nil || v.Sign() < 0 || v.BitLen() > wordSize*8 {
		return nil, fmt.Errorf("%w: amount out of uint256 range", ErrInvalidInput)
	}
	return v.FillBytes(make([]byte, wordSize)), nil
}
