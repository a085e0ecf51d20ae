// Package keys holds the service signing key material. The pair is built
// once at process start and is read-only afterwards, so it is safe to share
// across concurrent callers.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

const bits = 2048

type KeyPair struct {
	private *rsa.PrivateKey
}

// Generate creates a fresh pair. Tokens signed before a restart become
// unverifiable, which matches the single-service deployment model.
func Generate() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return &KeyPair{private: priv}, nil
}

// LoadOrGenerate reads a PKCS#8 or PKCS#1 private key from path, falling
// back to a fresh pair when path is empty.
func LoadOrGenerate(path string) (*KeyPair, error) {
	if path == "" {
		return Generate()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", path)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return &KeyPair{private: key}, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key in %s is not RSA", path)
	}
	return &KeyPair{private: key}, nil
}

func (k *KeyPair) Private() *rsa.PrivateKey {
	return k.private
}

func (k *KeyPair) Public() *rsa.PublicKey {
	return &k.private.PublicKey
}

// PublicPEM encodes the public key so external trust domains can verify
// tokens without the private key.
func (k *KeyPair) PublicPEM() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(k.Public())
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	out := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return string(out), nil
}
