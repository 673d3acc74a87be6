package jwtx

import (
	"errors"
	"fmt"

	"github.com/Raymond-engr/DRID-Research/pkg/cryptox"
)

// KeyManager pairs the active signer with a verifier that accepts its tokens.
type KeyManager struct {
	Signer   Signer
	Verifier *EdDSAVerifier
	KeySet   *KeySet
}

type KeyManagerOptions struct {
	Issuer   string
	Audience []string

	// PEM is a PKCS8 Ed25519 private key. When empty a key is generated in
	// memory and every token becomes invalid on restart.
	PEM []byte
}

func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: Issuer is required")
	}

	pemKey := opts.PEM
	if len(pemKey) == 0 {
		var err error
		if pemKey, err = cryptox.GenerateEd25519Key(); err != nil {
			return nil, err
		}
	}

	signer, err := NewSignerEdDSA("", pemKey)
	if err != nil {
		return nil, fmt.Errorf("jwtx: load signing key: %w", err)
	}

	keys := NewKeySet()
	keys.Add(signer.KID(), signer.PublicKey())

	return &KeyManager{
		Signer:   signer,
		Verifier: NewVerifierEdDSA(keys, opts.Issuer, opts.Audience),
		KeySet:   keys,
	}, nil
}

// NewEphemeralKeyManager is NewKeyManager with a throwaway key.
func NewEphemeralKeyManager(issuer string, audience []string) (*KeyManager, error) {
	return NewKeyManager(KeyManagerOptions{Issuer: issuer, Audience: audience})
}
