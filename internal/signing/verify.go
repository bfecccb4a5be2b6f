package signing

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	_ "embed"
	"encoding/pem"
	"fmt"
)

//go:embed trust/skreg-root-ca.pem
var rootCAPEM []byte

//go:embed trust/skreg-registry-intermediate.pem
var registryIntermediatePEM []byte

// VerifiedSigner is the identity extracted from a successful
// signature verification.
type VerifiedSigner struct {
	// CertSerial is the leaf certificate serial for publisher-signed
	// packages; zero with Registry true for registry-signed ones.
	CertSerial uint64
	Registry   bool
	CommonName string
}

// Verifier validates detached package signatures against a trust anchor.
type Verifier struct {
	roots        *x509.CertPool
	intermediate *x509.Certificate
	revocation   RevocationStore
}

// NewVerifier builds a Verifier from the embedded skreg root CA and
// registry intermediate. Revoked is consulted for every certificate in
// a publisher chain; pass a MemoryRevocationStore in tests.
func NewVerifier(revoked RevocationStore) (*Verifier, error) {
	root, err := parseCertPEM(rootCAPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded root CA: %w", err)
	}
	intermediate, err := parseCertPEM(registryIntermediatePEM)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded registry intermediate: %w", err)
	}

	roots := x509.NewCertPool()
	roots.AddCert(root)
	return &Verifier{roots: roots, intermediate: intermediate, revocation: revoked}, nil
}

// NewVerifierWithAnchors builds a Verifier from caller-supplied root and
// intermediate certificates. Used by tests that generate their own CA.
func NewVerifierWithAnchors(root, intermediate *x509.Certificate, revoked RevocationStore) *Verifier {
	roots := x509.NewCertPool()
	roots.AddCert(root)
	return &Verifier{roots: roots, intermediate: intermediate, revocation: revoked}
}

// Verify checks the detached signature over digestHex against the
// supplied chain. An empty chain means registry-signed: the signature
// verifies against the embedded registry intermediate. A non-empty
// chain is leaf-first; the leaf key must verify the signature, the
// chain must terminate at the embedded root, and no certificate serial
// may be revoked.
func (v *Verifier) Verify(ctx context.Context, digestHex string, signature []byte, chainPEM []string) (*VerifiedSigner, error) {
	if len(chainPEM) == 0 {
		return v.verifyRegistry(ctx, digestHex, signature)
	}
	return v.verifyPublisher(ctx, digestHex, signature, chainPEM)
}

func (v *Verifier) verifyRegistry(ctx context.Context, digestHex string, signature []byte) (*VerifiedSigner, error) {
	pub, ok := v.intermediate.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("registry intermediate carries a %T key, expected RSA", v.intermediate.PublicKey)
	}
	if err := VerifyDigest(pub, digestHex, signature); err != nil {
		return nil, err
	}
	if err := v.checkRevoked(ctx, v.intermediate); err != nil {
		return nil, err
	}
	return &VerifiedSigner{Registry: true, CommonName: v.intermediate.Subject.CommonName}, nil
}

func (v *Verifier) verifyPublisher(ctx context.Context, digestHex string, signature []byte, chainPEM []string) (*VerifiedSigner, error) {
	certs := make([]*x509.Certificate, 0, len(chainPEM))
	for i, p := range chainPEM {
		cert, err := parseCertPEM([]byte(p))
		if err != nil {
			return nil, fmt.Errorf("parsing chain certificate %d: %w", i, err)
		}
		certs = append(certs, cert)
	}

	leaf := certs[0]
	intermediates := x509.NewCertPool()
	for _, c := range certs[1:] {
		intermediates.AddCert(c)
	}

	if _, err := leaf.Verify(x509.VerifyOptions{
		Roots:         v.roots,
		Intermediates: intermediates,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}); err != nil {
		return nil, fmt.Errorf("certificate chain does not reach the skreg root: %w", err)
	}

	pub, ok := leaf.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("leaf certificate carries a %T key, expected RSA", leaf.PublicKey)
	}
	if err := VerifyDigest(pub, digestHex, signature); err != nil {
		return nil, err
	}

	for _, c := range certs {
		if err := v.checkRevoked(ctx, c); err != nil {
			return nil, err
		}
	}

	return &VerifiedSigner{
		CertSerial: leaf.SerialNumber.Uint64(),
		CommonName: leaf.Subject.CommonName,
	}, nil
}

func (v *Verifier) checkRevoked(ctx context.Context, cert *x509.Certificate) error {
	if v.revocation == nil {
		return nil
	}
	revoked, err := v.revocation.IsRevoked(ctx, cert.SerialNumber.Uint64())
	if err != nil {
		return fmt.Errorf("checking revocation for serial %d: %w", cert.SerialNumber.Uint64(), err)
	}
	if revoked {
		return fmt.Errorf("certificate %q (serial %d) has been revoked", cert.Subject.CommonName, cert.SerialNumber.Uint64())
	}
	return nil
}

func parseCertPEM(pemBytes []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("no CERTIFICATE PEM block found")
	}
	return x509.ParseCertificate(block.Bytes)
}
