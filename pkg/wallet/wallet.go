// Package wallet holds the identities used by the ledger: P-256 key pairs,
// base58 addresses derived from them, and signatures over keccak digests.
package wallet

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	checksumLength  = 4
	version         = byte(0x00)
	coordinateSize  = 32
	publicKeyLength = 2 * coordinateSize
)

var (
	ErrInvalidKey       = errors.New("invalid key")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Wallet is a P-256 key pair and the address derived from it
type Wallet struct {
	PrivateKey *ecdsa.PrivateKey
	PublicKey  []byte
}

// NewWallet generates a fresh key pair.
func NewWallet() (*Wallet, error) {
	private, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &Wallet{PrivateKey: private, PublicKey: marshalPublicKey(&private.PublicKey)}, nil
}

// FromPrivateKeyHex restores a wallet from its hex-encoded private scalar.
func FromPrivateKeyHex(s string) (*Wallet, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != coordinateSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidKey, coordinateSize, len(raw))
	}

	key, err := ecdh.P256().NewPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	pub, err := parsePublicKey(key.PublicKey().Bytes()[1:])
	if err != nil {
		return nil, err
	}

	private := &ecdsa.PrivateKey{PublicKey: *pub, D: new(big.Int).SetBytes(raw)}
	return &Wallet{PrivateKey: private, PublicKey: marshalPublicKey(pub)}, nil
}

// PrivateKeyHex returns the private scalar as 64 hex characters.
func (w *Wallet) PrivateKeyHex() string {
	return hex.EncodeToString(w.PrivateKey.D.FillBytes(make([]byte, coordinateSize)))
}

func (w *Wallet) Address() Address {
	return AddressFromPublicKey(w.PublicKey)
}

// Sign signs the digest. The result embeds the public key so that a
// verifier holding only the address can check it.
func (w *Wallet) Sign(digest [32]byte) ([]byte, error) {
	sig, err := ecdsa.SignASN1(rand.Reader, w.PrivateKey, digest[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}
	return append(append([]byte{}, w.PublicKey...), sig...), nil
}

// Verify checks that sig was produced over digest by the key behind addr.
func Verify(addr Address, digest [32]byte, sig []byte) error {
	if len(sig) <= publicKeyLength {
		return fmt.Errorf("%w: signature too short", ErrInvalidSignature)
	}
	pubBytes := sig[:publicKeyLength]
	if AddressFromPublicKey(pubBytes) != addr {
		return fmt.Errorf("%w: signer is not %s", ErrInvalidSignature, addr)
	}
	pub, err := parsePublicKey(pubBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !ecdsa.VerifyASN1(pub, digest[:], sig[publicKeyLength:]) {
		return fmt.Errorf("%w: verification failed", ErrInvalidSignature)
	}
	return nil
}

func marshalPublicKey(pub *ecdsa.PublicKey) []byte {
	out := make([]byte, publicKeyLength)
	pub.X.FillBytes(out[:coordinateSize])
	pub.Y.FillBytes(out[coordinateSize:])
	return out
}

func parsePublicKey(raw []byte) (*ecdsa.PublicKey, error) {
	if len(raw) != publicKeyLength {
		return nil, fmt.Errorf("%w: public key must be %d bytes", ErrInvalidKey, publicKeyLength)
	}
	// ecdh rejects points that are not on the curve.
	if _, err := ecdh.P256().NewPublicKey(append([]byte{0x04}, raw...)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(raw[:coordinateSize]),
		Y:     new(big.Int).SetBytes(raw[coordinateSize:]),
	}, nil
}
