// Arbord - Backing Stack Supervisor for the Arbor Desktop Shell
// Copyright 2026 Arbor Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arbor-dev/arbord

package keyring

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"
)

const (
	// fileStoreSalt binds derived keys to this use case.
	fileStoreSalt = "arbord-master-key-store"

	// fileStoreInfo is the HKDF info parameter, versioned so the scheme
	// can change without silently misreading old files.
	fileStoreInfo = "file-store-v1"

	// fileKeySize is the AES-256 key size in bytes.
	fileKeySize = 32

	// fileNonceSize is the GCM nonce size in bytes.
	fileNonceSize = 12
)

// FileStore keeps the secret in an AES-256-GCM encrypted file. It is
// the fallback backend for hosts where no OS secret store CLI is
// usable. The encryption key is derived from a machine secret via
// HKDF-SHA256; the file holds base64(nonce || ciphertext).
type FileStore struct {
	path string
	aead cipher.AEAD
}

// NewFileStore creates a file-backed store at path, deriving the
// encryption key from machineSecret.
func NewFileStore(path, machineSecret string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: file store path is empty", ErrUnavailable)
	}
	if machineSecret == "" {
		return nil, fmt.Errorf("%w: machine secret is empty", ErrUnavailable)
	}

	key := make([]byte, fileKeySize)
	kdf := hkdf.New(sha256.New, []byte(machineSecret), []byte(fileStoreSalt), []byte(fileStoreInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("%w: key derivation failed: %v", ErrUnavailable, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &FileStore{path: path, aead: aead}, nil
}

// Get implements Store.
func (s *FileStore) Get(context.Context) (string, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	blob, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return "", fmt.Errorf("%w: corrupt store file: %v", ErrUnavailable, err)
	}
	if len(blob) < fileNonceSize+1 {
		return "", fmt.Errorf("%w: store file too short", ErrUnavailable)
	}

	nonce, ciphertext := blob[:fileNonceSize], blob[fileNonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: decryption failed", ErrUnavailable)
	}
	return string(plaintext), nil
}

// Set implements Store.
func (s *FileStore) Set(_ context.Context, value string) error {
	nonce := make([]byte, fileNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	blob := s.aead.Seal(nonce, nonce, []byte(value), nil)
	encoded := base64.StdEncoding.EncodeToString(blob)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.WriteFile(s.path, []byte(encoded), 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
