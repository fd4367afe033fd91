package pki

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"strings"
)

// Algorithm is the key family of a certificate.
type Algorithm int

const (
	AlgorithmUnspecified Algorithm = iota
	AlgorithmRSA
	AlgorithmEC
)

// ParseAlgorithm accepts rsa, ec and ecdsa in any case.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rsa":
		return AlgorithmRSA, nil
	case "ec", "ecdsa":
		return AlgorithmEC, nil
	default:
		return AlgorithmUnspecified, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidParameter, s)
	}
}

// String returns the token used in artifact file names.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmRSA:
		return "rsa"
	case AlgorithmEC:
		return "ec"
	default:
		return "unspecified"
	}
}

// Curve is a named elliptic curve.
type Curve int

const (
	// CurveUnspecified selects the default curve, P-256.
	CurveUnspecified Curve = iota
	CurveP256
	CurveP384
	CurveP521
)

// ParseCurve maps the NIST, SEC and OpenSSL names of the supported curves.
// Unknown names are rejected rather than silently mapped to P-256.
func ParseCurve(s string) (Curve, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p-256", "p256", "nistp256", "prime256v1", "secp256r1":
		return CurveP256, nil
	case "p-384", "p384", "nistp384", "secp384r1":
		return CurveP384, nil
	case "p-521", "p521", "nistp521", "secp521r1":
		return CurveP521, nil
	default:
		return CurveUnspecified, fmt.Errorf("%w: unknown curve %q", ErrInvalidParameter, s)
	}
}

func (c Curve) String() string {
	switch c {
	case CurveUnspecified, CurveP256:
		return "P-256"
	case CurveP384:
		return "P-384"
	case CurveP521:
		return "P-521"
	default:
		return fmt.Sprintf("Curve(%d)", int(c))
	}
}

// HashAlgorithm is the digest used when signing a certificate.
type HashAlgorithm int

const (
	// HashUnspecified selects SHA-256.
	HashUnspecified HashAlgorithm = iota
	HashSHA256
	HashSHA384
	HashSHA512
)

// ParseHashAlgorithm accepts SHA256, SHA-256 and sha256 style names.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "") {
	case "sha256":
		return HashSHA256, nil
	case "sha384":
		return HashSHA384, nil
	case "sha512":
		return HashSHA512, nil
	default:
		return HashUnspecified, fmt.Errorf("%w: unknown hash algorithm %q", ErrInvalidParameter, s)
	}
}

func (h HashAlgorithm) String() string {
	switch h {
	case HashUnspecified, HashSHA256:
		return "SHA256"
	case HashSHA384:
		return "SHA384"
	case HashSHA512:
		return "SHA512"
	default:
		return fmt.Sprintf("HashAlgorithm(%d)", int(h))
	}
}

// Hash returns the crypto.Hash for h.
func (h HashAlgorithm) Hash() crypto.Hash {
	switch h {
	case HashSHA384:
		return crypto.SHA384
	case HashSHA512:
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}

// signatureAlgorithm picks the x509 signature algorithm for a signer of the
// given family. RSA always uses PKCS#1 v1.5 padding.
func signatureAlgorithm(alg Algorithm, h HashAlgorithm) (x509.SignatureAlgorithm, error) {
	switch alg {
	case AlgorithmRSA:
		switch h.Hash() {
		case crypto.SHA384:
			return x509.SHA384WithRSA, nil
		case crypto.SHA512:
			return x509.SHA512WithRSA, nil
		default:
			return x509.SHA256WithRSA, nil
		}
	case AlgorithmEC:
		switch h.Hash() {
		case crypto.SHA384:
			return x509.ECDSAWithSHA384, nil
		case crypto.SHA512:
			return x509.ECDSAWithSHA512, nil
		default:
			return x509.ECDSAWithSHA256, nil
		}
	default:
		return x509.UnknownSignatureAlgorithm, fmt.Errorf("%w: unsupported algorithm %s", ErrInvalidParameter, alg)
	}
}
