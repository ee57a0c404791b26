// Package secret provides the process-wide string encrypter used to protect
// credentials at rest, most notably the SMTP relay password stored in the
// directory configuration record. Ciphertexts are base64 strings so they fit
// in ordinary text columns and config files.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrEncryption is wrapped by every failure of Encrypt or Decrypt: malformed
// input, key mismatch, or an exhausted entropy source.
var ErrEncryption = errors.New("secret: encryption error")

// hkdfInfo binds derived keys to this use so the same application secret can
// feed other derivations without key reuse.
const hkdfInfo = "casa-string-encrypter-v1"

// StringEncrypter encrypts and decrypts short strings with a fixed key.
// Implementations must be safe for concurrent use.
type StringEncrypter interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// aesEncrypter implements StringEncrypter with AES-256-GCM.
type aesEncrypter struct {
	aead cipher.AEAD
}

// NewStringEncrypter derives a 32-byte AES key from the application secret
// with HKDF-SHA256 and returns an encrypter bound to it.
func NewStringEncrypter(appSecret string) (StringEncrypter, error) {
	if appSecret == "" {
		return nil, fmt.Errorf("%w: empty application secret", ErrEncryption)
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(appSecret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("%w: deriving key: %v", ErrEncryption, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: creating cipher: %v", ErrEncryption, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: creating GCM: %v", ErrEncryption, err)
	}
	return &aesEncrypter{aead: gcm}, nil
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext+tag).
// The empty string encrypts to the empty string.
func (e *aesEncrypter) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: generating nonce: %v", ErrEncryption, err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. The empty string decrypts to the empty string.
func (e *aesEncrypter) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: decoding base64: %v", ErrEncryption, err)
	}

	nonceSize := e.aead.NonceSize()
	if len(raw) < nonceSize+e.aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrEncryption)
	}

	nonce, ct := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("%w: decrypting: %v", ErrEncryption, err)
	}
	return string(plaintext), nil
}
