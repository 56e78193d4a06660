package chainpay

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// Signer produces detached RSA-SHA256 signatures over outbound webhook
// bodies. A missing key file is not an error: deployments without a key
// deliver unsigned payloads.
type Signer struct {
	priv *rsa.PrivateKey
}

func NewSigner(keyPath string) (*Signer, error) {
	raw, err := os.ReadFile(keyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Signer{}, nil
		}
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("invalid pem in signing key file")
	}
	priv, err := parsePrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	return &Signer{priv: priv}, nil
}

func parsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("unsupported signing key type: %T", key)
	}
	return rsaKey, nil
}

func (s *Signer) HasKey() bool {
	return s != nil && s.priv != nil
}

// Sign returns the base64 signature of the canonical JSON form of v,
// or "" when no key is loaded. The receiver recomputes the same bytes
// from the body, so serialization must be deterministic.
func (s *Signer) Sign(v interface{}) (string, error) {
	if !s.HasKey() {
		return "", nil
	}
	data, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.priv, crypto.SHA256, sum[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// CanonicalJSON serializes v with object keys in sorted order,
// independent of struct field order. encoding/json sorts map keys, so
// a marshal round-trip through an untyped value is canonical.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var plain interface{}
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, err
	}
	return json.Marshal(plain)
}
