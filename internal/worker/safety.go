package worker

import (
	"context"
	"fmt"

	"github.com/skregdev/skreg/internal/repository"
)

// quarantineError marks a failure that quarantines the job instead of
// plain-failing it.
type quarantineError struct {
	msg string
}

func (e *quarantineError) Error() string {
	return e.msg
}

// checkSafety runs the registry-wide name squatting check and the
// yanked re-upload check.
func checkSafety(ctx context.Context, name, version string, packages repository.PackageRepository, versions repository.VersionRepository) error {
	existing, err := packages.ListAllNames(ctx)
	if err != nil {
		return fmt.Errorf("listing package names: %w", err)
	}
	for _, pkg := range existing {
		d := levenshtein(name, pkg.Name)
		// Distance 0 is this package's own prior existence
		if d >= 1 && d <= 2 {
			return fmt.Errorf("name %q is too close to existing package %q: Levenshtein distance %d", name, pkg.Name, d)
		}
	}

	yanked, err := versions.ListYanked(ctx)
	if err != nil {
		return fmt.Errorf("listing yanked versions: %w", err)
	}
	candidate := name + "@" + version
	for _, nv := range yanked {
		if nv == candidate {
			return &quarantineError{msg: fmt.Sprintf("re-upload of yanked version %s", candidate)}
		}
	}
	return nil
}
