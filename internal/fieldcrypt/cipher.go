// Package fieldcrypt applies symmetric authenticated encryption to single
// string fields transiting between the API and the document store.
package fieldcrypt

import (
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"
)

// ErrMissingKey indicates no cipher key was supplied. The key must come from
// external configuration; the process refuses to start without one rather
// than silently disabling encryption.
var ErrMissingKey = errors.New("cipher key is required")

// Cipher encrypts and decrypts one field with a process-wide symmetric key.
// Tokens carry a fresh nonce per call, so encrypting the same plaintext
// twice yields different ciphertexts.
type Cipher struct {
	keys []*fernet.Key
}

// New builds a Cipher from a base64-encoded 32-byte key.
func New(encodedKey string) (*Cipher, error) {
	if encodedKey == "" {
		return nil, ErrMissingKey
	}
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode cipher key: %w", err)
	}
	return &Cipher{keys: []*fernet.Key{key}}, nil
}

// Encrypt produces an authenticated token for the plaintext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(plaintext), c.keys[0])
	if err != nil {
		return "", fmt.Errorf("encrypt field: %w", err)
	}
	return string(tok), nil
}

// Decrypt recovers the plaintext of a token produced under the current key.
// Values that do not verify are returned unchanged: records written before
// encryption was introduced, or under a rotated-away key, stay readable
// as-is. A corrupted token is indistinguishable from legacy plaintext, so a
// successful return is not a provenance guarantee.
func (c *Cipher) Decrypt(value string) string {
	msg := fernet.VerifyAndDecrypt([]byte(value), 0, c.keys)
	if msg == nil {
		return value
	}
	return string(msg)
}

// GenerateKey produces a new encoded key for provisioning. Replacing a key
// that already encrypted data makes that data permanently unrecoverable.
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", fmt.Errorf("generate cipher key: %w", err)
	}
	return key.Encode(), nil
}
