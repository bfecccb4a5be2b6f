package installer

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skregdev/skreg/internal/registry"
	"github.com/skregdev/skreg/internal/signing"
	"github.com/skregdev/skreg/internal/skill"
	"github.com/skregdev/skreg/internal/skill/pack"
)

type testAnchors struct {
	rootCert  *x509.Certificate
	interCert *x509.Certificate
	interKey  *rsa.PrivateKey
}

func newTestAnchors(t *testing.T) *testAnchors {
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
		KeyUsage:              x509.KeyUsageCertSign,
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

	return &testAnchors{rootCert: rootCert, interCert: interCert, interKey: interKey}
}

// buildArtifact packs a minimal skill tree and returns the final
// tarball bytes with their digest.
func buildArtifact(t *testing.T) ([]byte, string) {
	t.Helper()
	dir := t.TempDir()

	manifest := map[string]any{
		"namespace":      "acme",
		"name":           "deploy-helper",
		"version":        "1.0.0",
		"description":    "A helpful deployment skill for CI pipelines.",
		"cert_chain_pem": []string{},
	}
	raw, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), raw, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("# Deploy Helper\n\nUsage notes.\n"), 0o644))

	out := filepath.Join(t.TempDir(), "artifact.skill")
	require.NoError(t, pack.DirectoryWithDigest(dir, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)

	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:])
}

type fakeRegistry struct {
	manifest registry.Manifest
	artifact []byte
	sig      []byte
}

func (f *fakeRegistry) serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/packages/acme/deploy-helper/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": f.manifest})
	})
	mux.HandleFunc("/v1/download/acme/deploy-helper/1.0.0", func(w http.ResponseWriter, r *http.Request) {
		w.Write(f.artifact)
	})
	mux.HandleFunc("/v1/download/acme/deploy-helper/1.0.0/sig", func(w http.ResponseWriter, r *http.Request) {
		w.Write(f.sig)
	})
	return httptest.NewServer(mux)
}

func setupInstall(t *testing.T) (*fakeRegistry, *signing.Verifier) {
	t.Helper()
	anchors := newTestAnchors(t)
	artifact, digest := buildArtifact(t)

	sig, err := signing.SignDigest(anchors.interKey, digest)
	require.NoError(t, err)

	fake := &fakeRegistry{
		manifest: registry.Manifest{
			Namespace:    "acme",
			Name:         "deploy-helper",
			Version:      "1.0.0",
			Description:  "A helpful deployment skill for CI pipelines.",
			SHA256:       digest,
			Signer:       "registry",
			CertChainPEM: []string{},
		},
		artifact: artifact,
		sig:      sig,
	}

	verifier := signing.NewVerifierWithAnchors(anchors.rootCert, anchors.interCert, signing.NewMemoryRevocationStore())
	return fake, verifier
}

func TestInstall(t *testing.T) {
	fake, verifier := setupInstall(t)
	srv := fake.serve(t)
	defer srv.Close()

	root := t.TempDir()
	inst := New(registry.New(srv.URL), verifier, root)

	ref, err := skill.ParseRef("acme/deploy-helper@1.0.0")
	require.NoError(t, err)

	installed, err := inst.Install(context.Background(), ref)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "acme", "deploy-helper", "1.0.0"), installed.InstallPath)
	assert.True(t, installed.Signer.IsRegistry())
	assert.Equal(t, fake.manifest.SHA256, installed.SHA256.String())

	_, err = os.Stat(filepath.Join(installed.InstallPath, "SKILL.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(installed.InstallPath, "manifest.json"))
	assert.NoError(t, err)
}

func TestInstallLatest(t *testing.T) {
	fake, verifier := setupInstall(t)
	srv := fake.serve(t)
	defer srv.Close()

	inst := New(registry.New(srv.URL), verifier, t.TempDir())

	ref, err := skill.ParseRef("acme/deploy-helper")
	require.NoError(t, err)

	installed, err := inst.Install(context.Background(), ref)
	require.NoError(t, err)
	assert.Contains(t, installed.InstallPath, filepath.Join("acme", "deploy-helper", "1.0.0"))
}

func TestInstallDigestMismatch(t *testing.T) {
	fake, verifier := setupInstall(t)
	// Corrupt the artifact after the manifest digest was recorded
	fake.artifact = append([]byte{}, fake.artifact...)
	fake.artifact[len(fake.artifact)-1] ^= 0xff
	srv := fake.serve(t)
	defer srv.Close()

	inst := New(registry.New(srv.URL), verifier, t.TempDir())

	ref, err := skill.ParseRef("acme/deploy-helper@1.0.0")
	require.NoError(t, err)

	_, err = inst.Install(context.Background(), ref)
	require.Error(t, err)

	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, fake.manifest.SHA256, integrity.Expected)
	assert.NotEqual(t, integrity.Expected, integrity.Actual)
	assert.Contains(t, err.Error(), integrity.Expected)
	assert.Contains(t, err.Error(), integrity.Actual)
}

func TestInstallBadSignature(t *testing.T) {
	fake, verifier := setupInstall(t)
	fake.sig = append([]byte{}, fake.sig...)
	fake.sig[0] ^= 0xff
	srv := fake.serve(t)
	defer srv.Close()

	inst := New(registry.New(srv.URL), verifier, t.TempDir())

	ref, err := skill.ParseRef("acme/deploy-helper@1.0.0")
	require.NoError(t, err)

	_, err = inst.Install(context.Background(), ref)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verifying signature")
}

func TestInstallNotFound(t *testing.T) {
	_, verifier := setupInstall(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "not_found", "message": "Package version not found"},
		})
	}))
	defer srv.Close()

	inst := New(registry.New(srv.URL), verifier, t.TempDir())

	ref, err := skill.ParseRef("acme/ghost@1.0.0")
	require.NoError(t, err)

	_, err = inst.Install(context.Background(), ref)
	require.Error(t, err)

	var remote *registry.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusNotFound, remote.StatusCode)
}

func TestUninstall(t *testing.T) {
	fake, verifier := setupInstall(t)
	srv := fake.serve(t)
	defer srv.Close()

	root := t.TempDir()
	inst := New(registry.New(srv.URL), verifier, root)

	ref, err := skill.ParseRef("acme/deploy-helper@1.0.0")
	require.NoError(t, err)

	installed, err := inst.Install(context.Background(), ref)
	require.NoError(t, err)

	require.NoError(t, inst.Uninstall(ref))
	_, err = os.Stat(installed.InstallPath)
	assert.True(t, os.IsNotExist(err))

	// Second uninstall reports not installed
	assert.Error(t, inst.Uninstall(ref))
}
