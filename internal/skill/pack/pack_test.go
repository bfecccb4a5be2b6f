package pack

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEvilTar(t *testing.T, w io.Writer, entryName string) {
	t.Helper()
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	content := []byte("evil")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: entryName, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(content)),
	}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

const testDescription = "A test skill with a description long enough to pass vetting."

func writeSkillDir(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"),
		[]byte("---\nname: test-skill\n---\n# Test\n"), 0o644))
	manifest := map[string]any{
		"namespace":      "acme",
		"name":           "test-skill",
		"version":        "0.1.0",
		"description":    testDescription,
		"cert_chain_pem": []string{},
	}
	raw, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), raw, 0o644))
}

func TestPackUnpackRoundTrip(t *testing.T) {
	src := t.TempDir()
	writeSkillDir(t, src)
	require.NoError(t, os.Mkdir(filepath.Join(src, "references"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "references", "api.md"), []byte("# API\n"), 0o644))
	// Hidden files are excluded from the archive.
	require.NoError(t, os.WriteFile(filepath.Join(src, ".hidden"), []byte("x"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, Directory(src, &buf))

	dest := t.TempDir()
	require.NoError(t, Unpack(bytes.NewReader(buf.Bytes()), dest))

	got, err := os.ReadFile(filepath.Join(dest, "SKILL.md"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(src, "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = os.Stat(filepath.Join(dest, "references", "api.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, ".hidden"))
	assert.True(t, os.IsNotExist(err))
}

func TestPackIsDeterministic(t *testing.T) {
	src := t.TempDir()
	writeSkillDir(t, src)

	var a, b bytes.Buffer
	require.NoError(t, Directory(src, &a))
	require.NoError(t, Directory(src, &b))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestPackRequiresMandatoryFiles(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "SKILL.md"), []byte("# s\n"), 0o644))

	var buf bytes.Buffer
	err := Directory(src, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest.json")
}

func TestDirectoryWithDigestStampsAndRestores(t *testing.T) {
	src := t.TempDir()
	writeSkillDir(t, src)
	before, err := os.ReadFile(filepath.Join(src, "manifest.json"))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "test.skill")
	require.NoError(t, DirectoryWithDigest(src, out))

	// Source manifest is byte-identical to its pre-pack state.
	after, err := os.ReadFile(filepath.Join(src, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// The embedded manifest carries a stamp verifiable from the content.
	dest := t.TempDir()
	require.NoError(t, UnpackFile(out, dest))
	stamped, err := VerifyStampedDigest(dest)
	require.NoError(t, err)
	assert.Len(t, stamped, 64)
}

func TestVerifyStampedDigestDetectsTampering(t *testing.T) {
	src := t.TempDir()
	writeSkillDir(t, src)
	out := filepath.Join(t.TempDir(), "test.skill")
	require.NoError(t, DirectoryWithDigest(src, out))

	dest := t.TempDir()
	require.NoError(t, UnpackFile(out, dest))

	// Modify content after stamping: verification must fail.
	require.NoError(t, os.WriteFile(filepath.Join(dest, "SKILL.md"), []byte("tampered"), 0o644))
	_, err := VerifyStampedDigest(dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestUnpackRejectsTraversal(t *testing.T) {
	// A tarball containing a ../ entry must be rejected.
	var buf bytes.Buffer
	writeEvilTar(t, &buf, "../escape.md")

	err := Unpack(bytes.NewReader(buf.Bytes()), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")
}

func TestArtifactDigestMatchesBytes(t *testing.T) {
	src := t.TempDir()
	writeSkillDir(t, src)
	out := filepath.Join(t.TempDir(), "test.skill")
	require.NoError(t, DirectoryWithDigest(src, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	assert.Len(t, hex.EncodeToString(sum[:]), 64)
}
