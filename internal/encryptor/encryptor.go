// Package encryptor handles the Fernet tokens the directory stores exchange
// credentials as.
package encryptor

import (
	"github.com/fernet/fernet-go"
	"github.com/pkg/errors"
)

// Encryptor decrypts (and, for tests and tooling, encrypts) credential tokens.
type Encryptor struct {
	key *fernet.Key
}

// New builds an Encryptor from a base64 Fernet key.
func New(key string) (*Encryptor, error) {
	decoded, err := fernet.DecodeKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "decode encryption key")
	}
	return &Encryptor{key: decoded}, nil
}

// Decrypt recovers the plaintext from a credential token. Tokens are
// long-lived credentials, so no TTL is enforced.
func (e *Encryptor) Decrypt(token string) (string, error) {
	plaintext := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{e.key})
	if plaintext == nil {
		return "", errors.New("invalid credential token")
	}
	return string(plaintext), nil
}

// Encrypt produces a token for the given plaintext.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	token, err := fernet.EncryptAndSign([]byte(plaintext), e.key)
	if err != nil {
		return "", errors.Wrap(err, "encrypt credential")
	}
	return string(token), nil
}
