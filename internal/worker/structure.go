package worker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/skregdev/skreg/internal/skill/pack"
)

// maxArtifactBytes bounds the total uncompressed size of an archive.
const maxArtifactBytes = 5 << 20

// allowedExtensions is the extension allow-list for regular files.
// Extensions are matched case-sensitively.
var allowedExtensions = map[string]bool{
	".md":   true,
	".json": true,
}

// checkStructure validates the unpacked archive tree: required files
// present, total size bounded, only allow-listed file types, and no
// symlinks anywhere.
func checkStructure(dir string) error {
	for _, name := range pack.RequiredFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("required file %s is missing", name)
		}
	}

	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return fmt.Errorf("symlink %s is not allowed", relPath(dir, path))
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return fmt.Errorf("special file %s is not allowed", relPath(dir, path))
		}
		if !allowedExtensions[filepath.Ext(path)] {
			return fmt.Errorf("file type not allowed: %s", relPath(dir, path))
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return err
	}

	if total > maxArtifactBytes {
		return fmt.Errorf("archive too large: %d bytes, limit %d", total, int64(maxArtifactBytes))
	}
	return nil
}

func relPath(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
