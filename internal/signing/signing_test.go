package signing

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCA struct {
	rootCert  *x509.Certificate
	rootKey   *rsa.PrivateKey
	interCert *x509.Certificate
	interKey  *rsa.PrivateKey
}

func newTestCA(t *testing.T) *testCA {
	t.Helper()
	rootKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	rootTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test root"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTmpl, rootTmpl, &rootKey.PublicKey, rootKey)
	require.NoError(t, err)
	rootCert, err := x509.ParseCertificate(rootDER)
	require.NoError(t, err)

	interKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	interTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(2),
		Subject:               pkix.Name{CommonName: "test intermediate"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	interDER, err := x509.CreateCertificate(rand.Reader, interTmpl, rootCert, &interKey.PublicKey, rootKey)
	require.NoError(t, err)
	interCert, err := x509.ParseCertificate(interDER)
	require.NoError(t, err)

	return &testCA{rootCert: rootCert, rootKey: rootKey, interCert: interCert, interKey: interKey}
}

func (ca *testCA) issueLeaf(t *testing.T, serial int64) (*x509.Certificate, *rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: "test publisher"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca.interCert, &key.PublicKey, ca.interKey)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	pemStr := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	return cert, key, pemStr
}

func mustJSON(t *testing.T, s string) []byte {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return data
}

func testDigest() string {
	sum := sha256.Sum256([]byte("artifact bytes"))
	return hex.EncodeToString(sum[:])
}

func TestSignVerifyRoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	digest := testDigest()

	sig, err := SignDigest(key, digest)
	require.NoError(t, err)
	require.NoError(t, VerifyDigest(&key.PublicKey, digest, sig))

	// Flipping any byte of the signature breaks verification.
	bad := make([]byte, len(sig))
	copy(bad, sig)
	bad[0] ^= 0xff
	assert.Error(t, VerifyDigest(&key.PublicKey, digest, bad))

	// A different digest breaks verification.
	other := sha256.Sum256([]byte("different bytes"))
	assert.Error(t, VerifyDigest(&key.PublicKey, hex.EncodeToString(other[:]), sig))
}

func TestSignDigestRejectsBadInput(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	_, err = SignDigest(key, "not-hex")
	assert.Error(t, err)

	_, err = SignDigest(key, "abcd") // too short
	assert.Error(t, err)
}

func TestVerifierRegistrySigned(t *testing.T) {
	ca := newTestCA(t)
	v := NewVerifierWithAnchors(ca.rootCert, ca.interCert, NewMemoryRevocationStore())
	digest := testDigest()

	sig, err := SignDigest(ca.interKey, digest)
	require.NoError(t, err)

	signer, err := v.Verify(context.Background(), digest, sig, nil)
	require.NoError(t, err)
	assert.True(t, signer.Registry)
}

func TestVerifierPublisherChain(t *testing.T) {
	ca := newTestCA(t)
	revoked := NewMemoryRevocationStore()
	v := NewVerifierWithAnchors(ca.rootCert, ca.interCert, revoked)

	_, leafKey, leafPEM := ca.issueLeaf(t, 77)
	interPEM := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: ca.interCert.Raw}))

	digest := testDigest()
	sig, err := SignDigest(leafKey, digest)
	require.NoError(t, err)

	signer, err := v.Verify(context.Background(), digest, sig, []string{leafPEM, interPEM})
	require.NoError(t, err)
	assert.False(t, signer.Registry)
	assert.Equal(t, uint64(77), signer.CertSerial)

	// Revoking the leaf serial turns verification into a hard failure.
	revoked.Revoke(77)
	_, err = v.Verify(context.Background(), digest, sig, []string{leafPEM, interPEM})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revoked")
}

func TestVerifierRejectsForeignChain(t *testing.T) {
	ca := newTestCA(t)
	foreign := newTestCA(t)
	v := NewVerifierWithAnchors(ca.rootCert, ca.interCert, NewMemoryRevocationStore())

	_, leafKey, leafPEM := foreign.issueLeaf(t, 5)
	interPEM := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: foreign.interCert.Raw}))

	digest := testDigest()
	sig, err := SignDigest(leafKey, digest)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), digest, sig, []string{leafPEM, interPEM})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root")
}

func TestEmbeddedAnchorsParse(t *testing.T) {
	v, err := NewVerifier(NewMemoryRevocationStore())
	require.NoError(t, err)
	assert.NotNil(t, v.intermediate)
	assert.Contains(t, v.intermediate.Subject.CommonName, "Intermediate")
}

func TestParseKeySecret(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	secret := []byte(`{"private_key": ` + string(mustJSON(t, string(keyPEM))) + `}`)
	parsed, err := ParseKeySecret(secret)
	require.NoError(t, err)
	assert.Equal(t, key.N, parsed.N)

	_, err = ParseKeySecret([]byte(`{}`))
	assert.Error(t, err)
	_, err = ParseKeySecret([]byte(`not json`))
	assert.Error(t, err)
}
