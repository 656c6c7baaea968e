// Package cipher provides reversible symmetric encryption for redacted
// spans. Blobs are self-describing: a hex-encoded IV, a colon, and the
// hex-encoded ciphertext. Hex never contains the separator, so the split is
// unambiguous.
package cipher

import (
	"bytes"
	"crypto/aes"
	cryptocipher "crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// MinKeyLength is the minimum accepted key length in bytes. The first
	// 32 bytes of the key are used as the AES-256 key.
	MinKeyLength = 32

	blobSeparator = ":"

	// payloadVersion is prepended to the plaintext before encryption. It
	// versions the encoding and gives decryption a known prefix to verify,
	// so a wrong key fails the prefix check instead of yielding garbage.
	payloadVersion = "v1\x00"
)

var (
	// ErrKeyTooShort is returned by New for keys under MinKeyLength.
	// This is a configuration error and should stop startup.
	ErrKeyTooShort = errors.New("cipher: key must be at least 32 characters")

	// ErrMalformedBlob is returned when a blob does not split into a
	// well-formed IV and ciphertext.
	ErrMalformedBlob = errors.New("cipher: malformed blob")

	// ErrDecryptFailed is returned when decryption cannot produce valid
	// plaintext, typically because the key is wrong or the ciphertext is
	// corrupt.
	ErrDecryptFailed = errors.New("cipher: decryption failed")
)

// Cipher encrypts and decrypts text under a fixed key. It is stateless
// apart from the key and safe for concurrent use; the only per-call state
// is the random IV drawn from crypto/rand.
type Cipher struct {
	key []byte
}

// New builds a Cipher from the given key, failing immediately if the key is
// too short.
func New(key string) (*Cipher, error) {
	if len(key) < MinKeyLength {
		return nil, ErrKeyTooShort
	}
	return &Cipher{key: []byte(key)[:MinKeyLength]}, nil
}

// Encrypt encrypts plaintext under a fresh random IV. Two calls with the
// same plaintext produce different blobs.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("cipher: reading IV: %w", err)
	}

	padded := pad([]byte(payloadVersion+plaintext), aes.BlockSize)
	ct := make([]byte, len(padded))
	cryptocipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)

	return hex.EncodeToString(iv) + blobSeparator + hex.EncodeToString(ct), nil
}

// Decrypt reverses Encrypt. It returns ErrMalformedBlob for blobs that do
// not split into exactly two well-formed hex parts with a one-block IV, and
// ErrDecryptFailed when the padding does not verify (wrong key or corrupt
// ciphertext). It never returns partial plaintext.
func (c *Cipher) Decrypt(blob string) (string, error) {
	parts := strings.Split(blob, blobSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ErrMalformedBlob
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrMalformedBlob
	}

	ct, err := hex.DecodeString(parts[1])
	if err != nil || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", ErrMalformedBlob
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("cipher: %w", err)
	}

	pt := make([]byte, len(ct))
	cryptocipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)

	unpadded, ok := unpad(pt, aes.BlockSize)
	if !ok {
		return "", ErrDecryptFailed
	}

	payload := string(unpadded)
	if !strings.HasPrefix(payload, payloadVersion) {
		return "", ErrDecryptFailed
	}

	return strings.TrimPrefix(payload, payloadVersion), nil
}

// pad applies PKCS#7 padding so arbitrary-length UTF-8 round-trips exactly.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}
