package engine

import (
	"fmt"
	"strings"

	"github.com/wolfeidau/devcerts/internal/pki"
)

// Options describes one leaf issuance. It is built once by the caller and
// passed by value.
type Options struct {
	CertificateName string
	Algorithm       pki.Algorithm
	// RSABits is the leaf modulus size, zero selects pki.DefaultRSABits.
	RSABits int
	// Curve is the leaf curve, pki.CurveUnspecified selects P-256.
	Curve       pki.Curve
	Hash        pki.HashAlgorithm
	DNSNames    []string
	PfxPassword string
	Subject     pki.Subject
	// Publish uploads the PEM artifacts when the engine has a publisher.
	Publish bool
}

// Validate checks the options before any key material is generated.
func (o Options) Validate() error {
	name := strings.TrimSpace(o.CertificateName)
	if name == "" {
		return fmt.Errorf("%w: certificate name is required", pki.ErrInvalidParameter)
	}

	if name != o.CertificateName || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: invalid certificate name %q", pki.ErrInvalidParameter, o.CertificateName)
	}

	switch o.Algorithm {
	case pki.AlgorithmRSA, pki.AlgorithmEC:
	default:
		return fmt.Errorf("%w: unsupported algorithm %s", pki.ErrInvalidParameter, o.Algorithm)
	}

	if len(o.DNSNames) == 0 {
		return fmt.Errorf("%w: at least one DNS name is required", pki.ErrInvalidParameter)
	}

	return nil
}

// KeySpec returns the leaf key specification.
func (o Options) KeySpec() pki.KeySpec {
	spec := pki.KeySpec{Algorithm: o.Algorithm}
	switch o.Algorithm {
	case pki.AlgorithmRSA:
		spec.RSABits = o.RSABits
	case pki.AlgorithmEC:
		spec.Curve = o.Curve
	}
	return spec
}

func (o Options) hash() pki.HashAlgorithm {
	if o.Hash == pki.HashUnspecified {
		return pki.HashSHA256
	}
	return o.Hash
}

// leafSuffixes are the file name suffixes sharing one collision index.
func (o Options) leafSuffixes() (cert, key, keystore string) {
	return fmt.Sprintf("-%s-cert.pem", o.Algorithm),
		fmt.Sprintf("-%s-key.pem", o.Algorithm),
		fmt.Sprintf("-%s-cert.pfx", o.Algorithm)
}
