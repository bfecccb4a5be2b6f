package worker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/skregdev/skreg/internal/skill"
)

// secretPatterns are substrings that suggest embedded credentials when
// found in lowercased markdown content.
var secretPatterns = []string{
	"password=",
	"passwd=",
	"secret=",
	"api_key=",
	"apikey=",
	"token=",
	"private_key=",
	"-----begin",
}

// checkContent validates the manifest description, scans markdown files
// for secret-looking content, and restricts references/ to markdown.
func checkContent(dir string, manifest *skill.Manifest) error {
	if got := len(strings.TrimSpace(manifest.Description)); got < skill.MinDescriptionLen {
		return fmt.Errorf("description too short: %d characters after trimming, minimum %d", got, skill.MinDescriptionLen)
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		content := strings.ToLower(string(data))
		for _, pattern := range secretPatterns {
			if strings.Contains(content, pattern) {
				return fmt.Errorf("possible hardcoded secret in %s: matched %q", relPath(dir, path), pattern)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	refDir := filepath.Join(dir, "references")
	entries, err := os.ReadDir(refDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		// Directories count as non-markdown children too.
		if !strings.HasSuffix(entry.Name(), ".md") {
			return fmt.Errorf("references/ may only contain markdown, found %s", entry.Name())
		}
	}
	return nil
}
