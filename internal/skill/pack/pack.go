// Package pack creates and extracts gzip-compressed .skill tar archives.
//
// Packing is deterministic: entries are walked in lexical order, tar
// headers carry zeroed timestamps and ownership, and file modes are
// normalized. The same file tree always produces the same bytes, which
// is what makes the self-referential manifest digest checkable on the
// registry side (see DirectoryWithDigest).
package pack

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// RequiredFiles must be present at the root of every .skill archive.
var RequiredFiles = []string{"SKILL.md", "manifest.json"}

// Directory packs sourceDir into a gzip tar written to w. Hidden files
// and directories (dot-prefixed) are excluded at any depth. Symlinks are
// not followed; their presence is an error.
func Directory(sourceDir string, w io.Writer) error {
	for _, required := range RequiredFiles {
		if _, err := os.Stat(filepath.Join(sourceDir, required)); err != nil {
			return fmt.Errorf("required file %q is missing: %w", required, err)
		}
	}

	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("symlink %q is not allowed in a skill package", rel)
		}

		hdr := &tar.Header{
			Name:     filepath.ToSlash(rel),
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     info.Size(),
		}
		if d.IsDir() {
			hdr.Name += "/"
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return fmt.Errorf("packing %s: %w", sourceDir, err)
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

// DirectoryToFile packs sourceDir into a .skill file at outputPath.
func DirectoryToFile(sourceDir, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := Directory(sourceDir, f); err != nil {
		f.Close()
		os.Remove(outputPath)
		return err
	}
	return f.Close()
}

// Digest returns the hex SHA-256 of a deterministic pack of sourceDir.
func Digest(sourceDir string) (string, error) {
	h := sha256.New()
	if err := Directory(sourceDir, h); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CanonicalManifest re-serializes raw manifest JSON in canonical form
// (sorted keys, two-space indent) with the self-referential sha256 field
// set to stamp, or removed entirely when stamp is empty.
func CanonicalManifest(raw []byte, stamp string) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if stamp == "" {
		delete(m, "sha256")
	} else {
		m["sha256"] = stamp
	}
	return json.MarshalIndent(m, "", "  ")
}

// DirectoryWithDigest packs sourceDir into a .skill file at outputPath,
// stamping the archive's own digest into the embedded manifest.
//
// The digest cycle is resolved in two passes over a canonical form: the
// first pass packs with the manifest re-serialized canonically and the
// sha256 field absent, producing the canonical digest; the second pass
// packs with that digest stamped in, producing the final artifact. A
// verifier repeats the first pass from the extracted content to confirm
// the stamp. The source manifest.json is restored to its original bytes
// on both success and failure paths.
func DirectoryWithDigest(sourceDir, outputPath string) error {
	manifestPath := filepath.Join(sourceDir, "manifest.json")
	original, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	defer os.WriteFile(manifestPath, original, 0o644)

	unstamped, err := CanonicalManifest(original, "")
	if err != nil {
		return err
	}
	if err := os.WriteFile(manifestPath, unstamped, 0o644); err != nil {
		return fmt.Errorf("writing canonical manifest: %w", err)
	}

	digest, err := Digest(sourceDir)
	if err != nil {
		return err
	}

	stamped, err := CanonicalManifest(original, digest)
	if err != nil {
		return err
	}
	if err := os.WriteFile(manifestPath, stamped, 0o644); err != nil {
		return fmt.Errorf("stamping manifest: %w", err)
	}

	return DirectoryToFile(sourceDir, outputPath)
}

// VerifyStampedDigest recomputes the canonical digest of an extracted
// archive tree and compares it to the sha256 stamped in its manifest.
// Returns the stamped digest on success.
func VerifyStampedDigest(dir string) (string, error) {
	manifestPath := filepath.Join(dir, "manifest.json")
	stampedRaw, err := os.ReadFile(manifestPath)
	if err != nil {
		return "", fmt.Errorf("reading manifest: %w", err)
	}

	var m struct {
		SHA256 string `json:"sha256"`
	}
	if err := json.Unmarshal(stampedRaw, &m); err != nil {
		return "", fmt.Errorf("parsing manifest: %w", err)
	}
	if m.SHA256 == "" {
		return "", fmt.Errorf("manifest has no stamped sha256")
	}

	unstamped, err := CanonicalManifest(stampedRaw, "")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(manifestPath, unstamped, 0o644); err != nil {
		return "", fmt.Errorf("writing canonical manifest: %w", err)
	}
	defer os.WriteFile(manifestPath, stampedRaw, 0o644)

	digest, err := Digest(dir)
	if err != nil {
		return "", err
	}
	if digest != m.SHA256 {
		return "", fmt.Errorf("stamped digest mismatch: manifest says %s, canonical content digests to %s", m.SHA256, digest)
	}
	return m.SHA256, nil
}
