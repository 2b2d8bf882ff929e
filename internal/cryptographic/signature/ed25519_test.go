package signature_test

import (
	"testing"

	"spear/internal/cryptographic/signature"
)

func TestSignVerify(t *testing.T) {
	pub, priv, err := signature.NewEd25519Keypair()
	if err != nil {
		t.Fatalf("NewEd25519Keypair: %v", err)
	}

	msg := []byte("ciphertext bytes")
	sig := signature.Sign(priv, msg)

	if !signature.Verify(pub, msg, sig) {
		t.Fatal("valid signature rejected")
	}
}

func TestVerify_TamperDetection(t *testing.T) {
	pub, priv, err := signature.NewEd25519Keypair()
	if err != nil {
		t.Fatalf("NewEd25519Keypair: %v", err)
	}

	msg := []byte("ciphertext bytes")
	sig := signature.Sign(priv, msg)

	tamperedMsg := append([]byte(nil), msg...)
	tamperedMsg[0] ^= 0x01
	if signature.Verify(pub, tamperedMsg, sig) {
		t.Fatal("accepted signature over mutated message")
	}

	tamperedSig := append([]byte(nil), sig...)
	tamperedSig[0] ^= 0x01
	if signature.Verify(pub, msg, tamperedSig) {
		t.Fatal("accepted mutated signature")
	}
}

func TestVerify_WrongKeySize(t *testing.T) {
	_, priv, err := signature.NewEd25519Keypair()
	if err != nil {
		t.Fatalf("NewEd25519Keypair: %v", err)
	}
	msg := []byte("x")
	sig := signature.Sign(priv, msg)

	if signature.Verify([]byte("short"), msg, sig) {
		t.Fatal("accepted truncated public key")
	}
}
