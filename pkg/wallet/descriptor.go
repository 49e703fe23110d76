// Package wallet holds the encrypted wallet descriptor and the
// cryptographic verification pipeline a single candidate trial runs
// through. The chain is fixed by the wallet format being attacked:
// iterated SHA-512 key derivation, two AES-256-CBC unwraps and a
// secp256k1 public key comparison.
package wallet

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

const (
	// aes.BlockSize, spelled out so the descriptor validates without
	// touching the cipher packages.
	blockSize = 16

	// UncompressedPubKeyLen is the length of an uncompressed secp256k1
	// public key: 0x04 prefix plus two 32-byte coordinates.
	UncompressedPubKeyLen = 65
)

// Descriptor is the static bundle a candidate passphrase is tested
// against. It is loaded once at coordinator startup and distributed
// verbatim to workers inside every lease response.
type Descriptor struct {
	Salt                []byte
	Iterations          int
	EncryptedMasterKey  []byte
	EncryptedPrivateKey []byte
	PublicKey           []byte
}

// descriptorWire is the hex-encoded JSON form of a Descriptor.
type descriptorWire struct {
	Salt                string `json:"salt"                validate:"required,hexadecimal"`
	Iterations          int    `json:"iterations"          validate:"required,gt=0"`
	EncryptedMasterKey  string `json:"encryptedMasterKey"  validate:"required,hexadecimal"`
	EncryptedPrivateKey string `json:"encryptedPrivateKey" validate:"required,hexadecimal"`
	PublicKey           string `json:"publicKey"           validate:"required,hexadecimal"`
}

// MarshalJSON encodes the binary fields as hex strings.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(descriptorWire{
		Salt:                hex.EncodeToString(d.Salt),
		Iterations:          d.Iterations,
		EncryptedMasterKey:  hex.EncodeToString(d.EncryptedMasterKey),
		EncryptedPrivateKey: hex.EncodeToString(d.EncryptedPrivateKey),
		PublicKey:           hex.EncodeToString(d.PublicKey),
	})
}

// UnmarshalJSON decodes the hex wire form.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var wire descriptorWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if err := validator.New().Struct(&wire); err != nil {
		return fmt.Errorf("invalid wallet descriptor: %w", err)
	}

	var err error
	if d.Salt, err = hex.DecodeString(wire.Salt); err != nil {
		return fmt.Errorf("invalid salt: %w", err)
	}
	if d.EncryptedMasterKey, err = hex.DecodeString(wire.EncryptedMasterKey); err != nil {
		return fmt.Errorf("invalid encrypted master key: %w", err)
	}
	if d.EncryptedPrivateKey, err = hex.DecodeString(wire.EncryptedPrivateKey); err != nil {
		return fmt.Errorf("invalid encrypted private key: %w", err)
	}
	if d.PublicKey, err = hex.DecodeString(wire.PublicKey); err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}
	d.Iterations = wire.Iterations
	return nil
}

// Validate checks the structural invariants of the descriptor.
func (d *Descriptor) Validate() error {
	if d.Iterations <= 0 {
		return fmt.Errorf("derivation iterations must be positive, got %d", d.Iterations)
	}
	if len(d.EncryptedMasterKey) == 0 || len(d.EncryptedMasterKey)%blockSize != 0 {
		return fmt.Errorf("encrypted master key length %d is not a positive multiple of %d",
			len(d.EncryptedMasterKey), blockSize)
	}
	if len(d.EncryptedPrivateKey) == 0 || len(d.EncryptedPrivateKey)%blockSize != 0 {
		return fmt.Errorf("encrypted private key length %d is not a positive multiple of %d",
			len(d.EncryptedPrivateKey), blockSize)
	}
	if len(d.PublicKey) != UncompressedPubKeyLen {
		return fmt.Errorf("public key must be %d bytes, got %d", UncompressedPubKeyLen, len(d.PublicKey))
	}
	if d.PublicKey[0] != 0x04 {
		return fmt.Errorf("public key must be uncompressed (0x04 prefix), got 0x%02x", d.PublicKey[0])
	}
	return nil
}

// Load reads and validates a descriptor from a JSON file.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet file %q: %w", path, err)
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse wallet file %q: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("wallet file %q: %w", path, err)
	}
	return &d, nil
}
