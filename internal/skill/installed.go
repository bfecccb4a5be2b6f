package skill

import (
	"encoding/json"
	"fmt"
)

// SignerKind identifies who signed a package: the registry intermediate
// CA on behalf of the publisher, or the publisher's own leaf
// certificate. It serializes as a tagged JSON object with a "kind"
// discriminator.
type SignerKind struct {
	kind       string
	certSerial uint64
}

// RegistrySigner is the signer for registry-issued signatures.
func RegistrySigner() SignerKind {
	return SignerKind{kind: "registry"}
}

// PublisherSigner is the signer for publisher-issued signatures, carrying
// the serial number of the publisher leaf certificate.
func PublisherSigner(certSerial uint64) SignerKind {
	return SignerKind{kind: "publisher", certSerial: certSerial}
}

// IsRegistry reports whether the package was signed by the registry.
func (s SignerKind) IsRegistry() bool { return s.kind == "registry" }

// CertSerial returns the publisher leaf serial and whether one is present.
func (s SignerKind) CertSerial() (uint64, bool) {
	if s.kind != "publisher" {
		return 0, false
	}
	return s.certSerial, true
}

func (s SignerKind) String() string { return s.kind }

type signerKindJSON struct {
	Kind       string  `json:"kind"`
	CertSerial *uint64 `json:"cert_serial,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s SignerKind) MarshalJSON() ([]byte, error) {
	out := signerKindJSON{Kind: s.kind}
	if s.kind == "publisher" {
		serial := s.certSerial
		out.CertSerial = &serial
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SignerKind) UnmarshalJSON(data []byte) error {
	var in signerKindJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case "registry":
		*s = RegistrySigner()
	case "publisher":
		if in.CertSerial == nil {
			return fmt.Errorf("publisher signer is missing cert_serial")
		}
		*s = PublisherSigner(*in.CertSerial)
	default:
		return fmt.Errorf("unknown signer kind %q", in.Kind)
	}
	return nil
}

// InstalledPackage describes a skill package materialized on the local
// filesystem by the installer.
type InstalledPackage struct {
	Ref         PackageRef `json:"ref"`
	SHA256      Digest     `json:"sha256"`
	Signer      SignerKind `json:"signer"`
	InstallPath string     `json:"install_path"`
}
