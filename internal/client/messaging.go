package client

import (
	"encoding/base64"
	"fmt"

	"spear/internal/cryptographic/dh"
	"spear/internal/cryptographic/encryption"
	"spear/internal/cryptographic/signature"
	"spear/internal/model"
)

type (
	// Received is one fetched envelope after local processing. Rejected
	// envelopes failed signature verification; they are skipped without
	// decryption and left unacknowledged on the server.
	Received struct {
		ID        string
		From      string
		Plaintext []byte
		Counter   int64
		CreatedAt string
		Rejected  bool
	}
)

// Send runs the send path: resolve the recipient, derive the shared key,
// seal with a fresh random nonce, sign the ciphertext, submit. The counter
// is caller-chosen; the relay stores it with the envelope without checking
// it against the session ledger.
func (c *Client) Send(from, to string, keys *Keys, plaintext []byte, counter int64) (string, error) {
	recipient, err := c.GetUser(to)
	if err != nil {
		return "", err
	}
	recipientKey, err := base64.StdEncoding.DecodeString(recipient.PublicKey)
	if err != nil {
		return "", fmt.Errorf("decode recipient key: %w", err)
	}

	secret, err := dh.SharedSecret(keys.SecretKey, recipientKey)
	if err != nil {
		return "", err
	}

	nonce, err := encryption.NewNonce()
	if err != nil {
		return "", err
	}
	ciphertext, err := encryption.Seal(secret, nonce, plaintext)
	if err != nil {
		return "", err
	}

	// The signature covers the ciphertext only, not the nonce.
	sig := signature.Sign(keys.SigningSecretKey, ciphertext)

	resp, err := c.PostMessage(model.SendMessageRequest{
		FromUsername:     from,
		ToUsername:       to,
		EncryptedContent: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:            base64.StdEncoding.EncodeToString(nonce),
		Signature:        base64.StdEncoding.EncodeToString(sig),
		Counter:          &counter,
	})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Receive runs the receive path: fetch pending envelopes and, for each in
// server order, resolve the sender, verify the signature over the
// ciphertext, decrypt, then acknowledge. A bad signature marks the envelope
// Rejected and processing continues with the rest; any other failure aborts
// the batch.
func (c *Client) Receive(self string, keys *Keys) ([]Received, error) {
	fetched, err := c.FetchMessages(self)
	if err != nil {
		return nil, err
	}

	var out []Received
	for _, msg := range fetched.Messages {
		sender, err := c.GetUser(msg.FromUsername)
		if err != nil {
			return out, err
		}
		senderKey, err := base64.StdEncoding.DecodeString(sender.PublicKey)
		if err != nil {
			return out, fmt.Errorf("decode sender key: %w", err)
		}
		senderSigningKey, err := base64.StdEncoding.DecodeString(sender.SigningPublicKey)
		if err != nil {
			return out, fmt.Errorf("decode sender signing key: %w", err)
		}

		ciphertext, err := base64.StdEncoding.DecodeString(msg.EncryptedContent)
		if err != nil {
			return out, fmt.Errorf("decode ciphertext: %w", err)
		}
		nonce, err := base64.StdEncoding.DecodeString(msg.Nonce)
		if err != nil {
			return out, fmt.Errorf("decode nonce: %w", err)
		}
		sig, err := base64.StdEncoding.DecodeString(msg.Signature)
		if err != nil {
			return out, fmt.Errorf("decode signature: %w", err)
		}

		// Verify before any decryption attempt.
		if !signature.Verify(senderSigningKey, ciphertext, sig) {
			out = append(out, Received{
				ID:       msg.ID,
				From:     msg.FromUsername,
				Counter:  msg.Counter,
				Rejected: true,
			})
			continue
		}

		secret, err := dh.SharedSecret(keys.SecretKey, senderKey)
		if err != nil {
			return out, err
		}
		plaintext, err := encryption.Open(secret, nonce, ciphertext)
		if err != nil {
			return out, fmt.Errorf("decrypt message from %q: %w", msg.FromUsername, err)
		}

		if err := c.Acknowledge(msg.ID); err != nil {
			return out, fmt.Errorf("acknowledge message %s: %w", msg.ID, err)
		}

		out = append(out, Received{
			ID:        msg.ID,
			From:      msg.FromUsername,
			Plaintext: plaintext,
			Counter:   msg.Counter,
			CreatedAt: msg.CreatedAt,
		})
	}
	return out, nil
}
