package signature

import (
	"crypto/ed25519"
	"crypto/rand"
)

func NewEd25519Keypair() (pub []byte, priv []byte, err error) {
	pub, priv, err = ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}

// Sign produces a detached signature over message. The protocol signs
// ciphertext only; the nonce is not covered.
func Sign(privKeyBytes []byte, message []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(privKeyBytes), message)
}

func Verify(pubKeyBytes []byte, message []byte, sig []byte) bool {
	if len(pubKeyBytes) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubKeyBytes), message, sig)
}
