package skill

import (
	"fmt"
	"strings"

	"github.com/coreos/go-semver/semver"
)

// PackageRef is a fully-qualified package reference such as
// "acme/deploy-helper" or "acme/deploy-helper@1.2.3". A nil Version
// means "latest".
type PackageRef struct {
	Namespace Namespace
	Name      PackageName
	Version   *semver.Version
}

// ParseRef parses a package reference in the form "namespace/name[@version]".
func ParseRef(input string) (PackageRef, error) {
	nsName := input
	var version *semver.Version
	if left, v, found := strings.Cut(input, "@"); found {
		parsed, err := semver.NewVersion(v)
		if err != nil {
			return PackageRef{}, fmt.Errorf("invalid semver version %q: %w", v, err)
		}
		nsName = left
		version = parsed
	}

	nsStr, nameStr, found := strings.Cut(nsName, "/")
	if !found {
		return PackageRef{}, fmt.Errorf("package reference must be in the form 'namespace/name[@version]'")
	}

	ns, err := NewNamespace(nsStr)
	if err != nil {
		return PackageRef{}, err
	}
	name, err := NewPackageName(nameStr)
	if err != nil {
		return PackageRef{}, err
	}

	return PackageRef{Namespace: ns, Name: name, Version: version}, nil
}

// String renders the reference as "ns/name" or "ns/name@version".
func (r PackageRef) String() string {
	s := fmt.Sprintf("%s/%s", r.Namespace, r.Name)
	if r.Version != nil {
		s += "@" + r.Version.String()
	}
	return s
}

// VersionOrLatest returns the pinned version string, or "latest".
func (r PackageRef) VersionOrLatest() string {
	if r.Version == nil {
		return "latest"
	}
	return r.Version.String()
}
