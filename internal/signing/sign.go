// Package signing implements the registry's detached-signature scheme:
// RSA-PKCS#1 v1.5 over SHA-256, where the signed input is the raw
// 32-byte artifact digest. Verification walks a leaf-first certificate
// chain to the embedded skreg root CA; registry-signed packages carry
// no chain and verify against the embedded registry intermediate.
package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
)

// ParsePrivateKeyPEM parses a PEM-encoded PKCS#8 RSA private key.
// PKCS#1 blocks are accepted for compatibility.
func ParsePrivateKeyPEM(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in private key material")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is %T, expected RSA", key)
		}
		return rsaKey, nil
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

// ParseKeySecret extracts the PEM private key from a secret-store JSON
// payload of the form {"private_key": "-----BEGIN ..."}.
func ParseKeySecret(secretJSON []byte) (*rsa.PrivateKey, error) {
	var payload struct {
		PrivateKey string `json:"private_key"`
	}
	if err := json.Unmarshal(secretJSON, &payload); err != nil {
		return nil, fmt.Errorf("parsing CA key secret JSON: %w", err)
	}
	if payload.PrivateKey == "" {
		return nil, fmt.Errorf("CA key secret is missing the private_key field")
	}
	return ParsePrivateKeyPEM([]byte(payload.PrivateKey))
}

// SignDigest signs the raw bytes of a hex SHA-256 digest with
// RSA-PKCS#1 v1.5 over SHA-256. Blinding randomness comes from
// crypto/rand.
func SignDigest(key *rsa.PrivateKey, digestHex string) ([]byte, error) {
	raw, err := hex.DecodeString(digestHex)
	if err != nil {
		return nil, fmt.Errorf("decoding digest hex: %w", err)
	}
	if len(raw) != sha256.Size {
		return nil, fmt.Errorf("digest is %d bytes, expected %d", len(raw), sha256.Size)
	}

	// PKCS#1v1.5 signs the SHA-256 of the message; the message here is
	// the raw digest bytes, hashed once more by the signing primitive.
	hashed := sha256.Sum256(raw)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hashed[:])
	if err != nil {
		return nil, fmt.Errorf("signing digest: %w", err)
	}
	return sig, nil
}

// VerifyDigest checks a detached signature produced by SignDigest.
func VerifyDigest(pub *rsa.PublicKey, digestHex string, signature []byte) error {
	raw, err := hex.DecodeString(digestHex)
	if err != nil {
		return fmt.Errorf("decoding digest hex: %w", err)
	}
	hashed := sha256.Sum256(raw)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, hashed[:], signature); err != nil {
		return fmt.Errorf("signature does not verify: %w", err)
	}
	return nil
}
