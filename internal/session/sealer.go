package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// ErrUnsealable is returned when a stored value cannot be opened.
var ErrUnsealable = errors.New("stored session cannot be opened")

const nonceSize = 24

// Sealer protects tokens at rest.
type Sealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

// NewSealer returns a secretbox sealer keyed by sha256(secret), or a pass-through
// sealer when secret is empty.
func NewSealer(secret string) Sealer {
	if secret == "" {
		return plainSealer{}
	}
	return &boxSealer{key: sha256.Sum256([]byte(secret))}
}

type plainSealer struct{}

func (plainSealer) Seal(plain string) (string, error)  { return plain, nil }
func (plainSealer) Open(sealed string) (string, error) { return sealed, nil }

type boxSealer struct {
	key [32]byte
}

func (b *boxSealer) Seal(plain string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	out := secretbox.Seal(nonce[:], []byte(plain), &nonce, &b.key)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (b *boxSealer) Open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrUnsealable
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrUnsealable
	}
	return string(plain), nil
}
