package client

import (
	"fmt"
	"os"
	"path/filepath"

	"spear/internal/cryptographic/dh"
	"spear/internal/cryptographic/signature"
)

// Key files stored raw in the key directory.
const (
	publicKeyFile        = "public.key"
	secretKeyFile        = "secret.key"
	signingPublicKeyFile = "signing_public.key"
	signingSecretKeyFile = "signing_secret.key"
)

type (
	// Keys is the local key material for one identity: an X25519 pair for
	// key agreement and an Ed25519 pair for signing.
	Keys struct {
		PublicKey        []byte
		SecretKey        []byte
		SigningPublicKey []byte
		SigningSecretKey []byte
	}
)

// GenerateKeys creates fresh key pairs and writes them into dir.
func GenerateKeys(dir string) (*Keys, error) {
	priv, pub, err := dh.NewX25519KeyPair()
	if err != nil {
		return nil, err
	}
	signingPub, signingPriv, err := signature.NewEd25519Keypair()
	if err != nil {
		return nil, err
	}

	keys := &Keys{
		PublicKey:        pub[:],
		SecretKey:        priv[:],
		SigningPublicKey: signingPub,
		SigningSecretKey: signingPriv,
	}
	if err := keys.save(dir); err != nil {
		return nil, err
	}
	return keys, nil
}

// LoadKeys reads the key material previously written by GenerateKeys.
func LoadKeys(dir string) (*Keys, error) {
	keys := &Keys{}
	for _, f := range []struct {
		name string
		dst  *[]byte
	}{
		{publicKeyFile, &keys.PublicKey},
		{secretKeyFile, &keys.SecretKey},
		{signingPublicKeyFile, &keys.SigningPublicKey},
		{signingSecretKeyFile, &keys.SigningSecretKey},
	} {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			return nil, fmt.Errorf("read key file %s: %w", f.name, err)
		}
		*f.dst = data
	}
	return keys, nil
}

func (k *Keys) save(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		data []byte
	}{
		{publicKeyFile, k.PublicKey},
		{secretKeyFile, k.SecretKey},
		{signingPublicKeyFile, k.SigningPublicKey},
		{signingSecretKeyFile, k.SigningSecretKey},
	} {
		if err := os.WriteFile(filepath.Join(dir, f.name), f.data, 0o600); err != nil {
			return fmt.Errorf("write key file %s: %w", f.name, err)
		}
	}
	return nil
}
