package client_test

import (
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"testing"

	"spear/internal/client"
	"spear/internal/cryptographic/dh"
	"spear/internal/cryptographic/encryption"
	"spear/internal/cryptographic/signature"
	"spear/internal/model"
	"spear/internal/repository/memory"
	"spear/internal/service/server"
)

func newRelay(t *testing.T) *client.Client {
	t.Helper()
	store := memory.NewStore()
	s := server.NewHttpServer(store, store, store, nil)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return client.New(ts.URL)
}

func registerWithKeys(t *testing.T, api *client.Client, username string) *client.Keys {
	t.Helper()
	keys, err := client.GenerateKeys(t.TempDir())
	if err != nil {
		t.Fatalf("GenerateKeys: %v", err)
	}
	_, err = api.Register(username,
		base64.StdEncoding.EncodeToString(keys.PublicKey),
		base64.StdEncoding.EncodeToString(keys.SigningPublicKey))
	if err != nil {
		t.Fatalf("Register %q: %v", username, err)
	}
	return keys
}

func TestSendReceive_RoundTrip(t *testing.T) {
	api := newRelay(t)
	aliceKeys := registerWithKeys(t, api, "alice")
	bobKeys := registerWithKeys(t, api, "bob")

	if _, err := api.Send("alice", "bob", aliceKeys, []byte("hi"), 1); err != nil {
		t.Fatalf("Send: %v", err)
	}

	received, err := api.Receive("bob", bobKeys)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("received %d messages, want 1", len(received))
	}
	msg := received[0]
	if msg.From != "alice" || string(msg.Plaintext) != "hi" || msg.Counter != 1 || msg.Rejected {
		t.Fatalf("unexpected message %+v", msg)
	}

	// Acknowledged on receipt: a second fetch is empty.
	received, err = api.Receive("bob", bobKeys)
	if err != nil {
		t.Fatalf("second Receive: %v", err)
	}
	if len(received) != 0 {
		t.Fatalf("acknowledged message redelivered: %+v", received)
	}
}

func TestReceive_BadSignatureSkipped(t *testing.T) {
	api := newRelay(t)
	aliceKeys := registerWithKeys(t, api, "alice")
	bobKeys := registerWithKeys(t, api, "bob")

	// Forge an envelope claiming to be from alice but signed with a key
	// that is not hers.
	bob, err := api.GetUser("bob")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	bobPub, _ := base64.StdEncoding.DecodeString(bob.PublicKey)
	secret, err := dh.SharedSecret(aliceKeys.SecretKey, bobPub)
	if err != nil {
		t.Fatalf("SharedSecret: %v", err)
	}
	nonce, _ := encryption.NewNonce()
	ciphertext, err := encryption.Seal(secret, nonce, []byte("forged"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	_, wrongSigner, err := signature.NewEd25519Keypair()
	if err != nil {
		t.Fatalf("NewEd25519Keypair: %v", err)
	}
	counter := int64(1)
	if _, err := api.PostMessage(model.SendMessageRequest{
		FromUsername:     "alice",
		ToUsername:       "bob",
		EncryptedContent: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:            base64.StdEncoding.EncodeToString(nonce),
		Signature:        base64.StdEncoding.EncodeToString(signature.Sign(wrongSigner, ciphertext)),
		Counter:          &counter,
	}); err != nil {
		t.Fatalf("PostMessage: %v", err)
	}

	// A legitimate message follows the forged one.
	if _, err := api.Send("alice", "bob", aliceKeys, []byte("legit"), 2); err != nil {
		t.Fatalf("Send: %v", err)
	}

	received, err := api.Receive("bob", bobKeys)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(received) != 2 {
		t.Fatalf("received %d entries, want 2", len(received))
	}
	if !received[0].Rejected {
		t.Fatal("forged envelope not rejected")
	}
	if received[1].Rejected || string(received[1].Plaintext) != "legit" {
		t.Fatalf("legitimate message mishandled: %+v", received[1])
	}

	// The rejected envelope was not acknowledged and is fetched again.
	received, err = api.Receive("bob", bobKeys)
	if err != nil {
		t.Fatalf("second Receive: %v", err)
	}
	if len(received) != 1 || !received[0].Rejected {
		t.Fatalf("rejected envelope not left pending: %+v", received)
	}
}

func TestSend_UnknownRecipient(t *testing.T) {
	api := newRelay(t)
	aliceKeys := registerWithKeys(t, api, "alice")

	_, err := api.Send("alice", "nobody", aliceKeys, []byte("hi"), 1)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 404 {
		t.Fatalf("want 404 APIError, got %v", err)
	}
}

func TestAdvanceCounter_ReplayReportedToClient(t *testing.T) {
	api := newRelay(t)
	registerWithKeys(t, api, "alice")
	registerWithKeys(t, api, "bob")

	if _, err := api.GetOrCreateSession("alice", "bob"); err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	if _, err := api.AdvanceCounter("alice", "bob", "alice", 5); err != nil {
		t.Fatalf("AdvanceCounter: %v", err)
	}

	_, err := api.AdvanceCounter("alice", "bob", "alice", 5)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError, got %v", err)
	}
	if apiErr.ExpectedCounter == nil || *apiErr.ExpectedCounter != 6 {
		t.Fatalf("replay detail missing: %+v", apiErr)
	}
}

func TestKeys_SaveLoad(t *testing.T) {
	dir := t.TempDir()

	keys, err := client.GenerateKeys(dir)
	if err != nil {
		t.Fatalf("GenerateKeys: %v", err)
	}

	loaded, err := client.LoadKeys(dir)
	if err != nil {
		t.Fatalf("LoadKeys: %v", err)
	}
	if string(loaded.SecretKey) != string(keys.SecretKey) ||
		string(loaded.SigningSecretKey) != string(keys.SigningSecretKey) {
		t.Fatal("key material changed across save/load")
	}

	if _, err := client.LoadKeys(t.TempDir()); err == nil {
		t.Fatal("LoadKeys succeeded on empty dir")
	}
}
