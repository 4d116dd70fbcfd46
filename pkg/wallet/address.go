package wallet

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"
)

// Address is the base58 form of version || ripemd160(sha256(pub)) || checksum.
type Address string

func (a Address) String() string {
	return string(a)
}

// Bytes decodes the address and validates its checksum.
func (a Address) Bytes() ([]byte, error) {
	if a == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	full, err := base58.Decode(string(a))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(full) != 1+ripemd160.Size+checksumLength {
		return nil, fmt.Errorf("%w: unexpected length %d", ErrInvalidAddress, len(full))
	}
	if full[0] != version {
		return nil, fmt.Errorf("%w: unknown version %d", ErrInvalidAddress, full[0])
	}
	payload, checksum := full[:len(full)-checksumLength], full[len(full)-checksumLength:]
	if !bytes.Equal(Checksum(payload), checksum) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}
	return full, nil
}

// Validate reports whether the address is well formed.
func (a Address) Validate() error {
	_, err := a.Bytes()
	return err
}

// AddressFromPublicKey derives the address of a 64-byte X||Y public key.
func AddressFromPublicKey(pub []byte) Address {
	versioned := append([]byte{version}, PublicKeyHash(pub)...)
	full := append(versioned, Checksum(versioned)...)
	return Address(base58.Encode(full))
}

func PublicKeyHash(pub []byte) []byte {
	pubHash := sha256.Sum256(pub)

	hasher := ripemd160.New()
	hasher.Write(pubHash[:])
	return hasher.Sum(nil)
}

func Checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}
