// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr/nip44"
)

// EncryptionMethod is the payload encryption scheme used for events
// filed under the encrypted-events container.
const EncryptionMethod = "nip44"

// EncryptContent encrypts plaintext for recipientPublicKey using
// NIP-44 (versioned ChaCha20 + HMAC over a shared conversation key).
// Encrypting to the identity's own public key yields a self-readable
// payload, which is how private events are stored in the pod.
func (i *Identity) EncryptContent(plaintext, recipientPublicKey string) (string, error) {
	if i.secretKey == "" {
		return "", fmt.Errorf("identity: no secret key, cannot encrypt")
	}
	conversationKey, err := nip44.GenerateConversationKey(recipientPublicKey, i.secretKey)
	if err != nil {
		return "", fmt.Errorf("identity: deriving conversation key: %w", err)
	}
	ciphertext, err := nip44.Encrypt(plaintext, conversationKey)
	if err != nil {
		return "", fmt.Errorf("identity: encrypting content: %w", err)
	}
	return ciphertext, nil
}

// DecryptContent reverses EncryptContent for a payload produced by (or
// for) senderPublicKey.
func (i *Identity) DecryptContent(ciphertext, senderPublicKey string) (string, error) {
	if i.secretKey == "" {
		return "", fmt.Errorf("identity: no secret key, cannot decrypt")
	}
	conversationKey, err := nip44.GenerateConversationKey(senderPublicKey, i.secretKey)
	if err != nil {
		return "", fmt.Errorf("identity: deriving conversation key: %w", err)
	}
	plaintext, err := nip44.Decrypt(ciphertext, conversationKey)
	if err != nil {
		return "", fmt.Errorf("identity: decrypting content: %w", err)
	}
	return plaintext, nil
}
