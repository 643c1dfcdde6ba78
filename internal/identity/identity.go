// Package identity derives the stable per-deployment instance identity
// that scopes every stored row, so independent deployments can share one
// physical database without collision.
//
// The identity is the SHA-256 digest of the deployment's public key.
// The keypair is generated once and persisted beside the database; the
// derived identity never changes for the lifetime of the key file.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const privateKeyPEMType = "PRIVATE KEY"

// Identity is a stable deployment identity.
type Identity struct {
	// ID is the hex SHA-256 digest of the encoded public key.
	ID string

	// Public is the key the ID was derived from.
	Public ed25519.PublicKey
}

// Load reads the Ed25519 keypair at keyPath, generating and persisting a
// new one on first use, and returns the derived identity.
func Load(keyPath string) (Identity, error) {
	data, err := os.ReadFile(keyPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return generate(keyPath)
	case err != nil:
		return Identity{}, fmt.Errorf("read identity key %s: %w", keyPath, err)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != privateKeyPEMType {
		return Identity{}, fmt.Errorf("identity key %s: no %s PEM block", keyPath, privateKeyPEMType)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return Identity{}, fmt.Errorf("parse identity key %s: %w", keyPath, err)
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return Identity{}, fmt.Errorf("identity key %s: not an Ed25519 key", keyPath)
	}
	return fromPrivate(priv)
}

// FromPublicKey derives the identity string for a public key without
// touching the filesystem.
func FromPublicKey(pub ed25519.PublicKey) (string, error) {
	encoded, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("encode public key: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

func generate(keyPath string) (Identity, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Identity{}, fmt.Errorf("generate identity key: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return Identity{}, fmt.Errorf("encode identity key: %w", err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: privateKeyPEMType, Bytes: der})

	if dir := filepath.Dir(keyPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return Identity{}, fmt.Errorf("create identity key dir: %w", err)
		}
	}
	if err := os.WriteFile(keyPath, data, 0o600); err != nil {
		return Identity{}, fmt.Errorf("write identity key %s: %w", keyPath, err)
	}
	return fromPrivate(priv)
}

func fromPrivate(priv ed25519.PrivateKey) (Identity, error) {
	pub := priv.Public().(ed25519.PublicKey)
	id, err := FromPublicKey(pub)
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: id, Public: pub}, nil
}
