package wallet

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/sha512"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Verify runs a single candidate trial against the descriptor and
// reports whether the passphrase unlocks the wallet.
//
// The chain: derive a 32-byte key and 16-byte IV by iterated SHA-512
// over passphrase||salt, unwrap the master key with AES-256-CBC,
// unwrap the private key with the master key and an IV taken from the
// double SHA-256 of the public key, then derive the uncompressed
// secp256k1 public key and compare byte-exactly.
//
// Every malformed intermediate (unaligned ciphertext, out-of-range
// scalar) is a non-match for this candidate, never an error: the hot
// loop must survive arbitrary garbage.
func Verify(d *Descriptor, passphrase string) bool {
	key, iv := deriveKeyIV(passphrase, d.Salt, d.Iterations)

	master, ok := decryptCBC(d.EncryptedMasterKey, key, iv)
	if !ok {
		return false
	}

	innerIV := doubleSHA256(d.PublicKey)[:blockSize]
	priv, ok := decryptCBC(d.EncryptedPrivateKey, master, innerIV)
	if !ok {
		return false
	}

	pub, ok := pubKeyFromScalar(priv)
	if !ok {
		return false
	}
	return bytes.Equal(pub, d.PublicKey)
}

// deriveKeyIV iterates SHA-512 over passphrase||salt. The first 32
// bytes of the final digest are the key, the next 16 the IV.
func deriveKeyIV(passphrase string, salt []byte, iterations int) (key, iv []byte) {
	buf := make([]byte, 0, len(passphrase)+len(salt))
	buf = append(buf, passphrase...)
	buf = append(buf, salt...)

	digest := sha512.Sum512(buf)
	for i := 1; i < iterations; i++ {
		digest = sha512.Sum512(digest[:])
	}
	return digest[:32], digest[32:48]
}

// decryptCBC decrypts ciphertext with AES-256-CBC, padding disabled,
// and returns the first 32 bytes of the plaintext. Returns false on
// any structural problem instead of an error.
func decryptCBC(ciphertext, key, iv []byte) ([]byte, bool) {
	if len(key) < 32 || len(iv) != blockSize {
		return nil, false
	}
	if len(ciphertext) < 32 || len(ciphertext)%blockSize != 0 {
		return nil, false
	}

	block, err := aes.NewCipher(key[:32])
	if err != nil {
		return nil, false
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return plaintext[:32], true
}

// pubKeyFromScalar validates that priv is a secp256k1 scalar in
// (0, n) and returns the corresponding uncompressed public key.
func pubKeyFromScalar(priv []byte) ([]byte, bool) {
	if len(priv) != 32 {
		return nil, false
	}

	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(priv); overflow || scalar.IsZero() {
		return nil, false
	}

	_, pub := btcec.PrivKeyFromBytes(priv)
	return pub.SerializeUncompressed(), true
}

// doubleSHA256 returns SHA-256(SHA-256(data)).
func doubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}
