package pki

import (
	"crypto/rand"
	"crypto/x509"
	"fmt"
)

// CASigner signs certificate templates to create certificates.
// *Certificate implements it for authorities whose private key is held in memory.
type CASigner interface {
	// SignCertificate signs a certificate template and returns the DER-encoded certificate bytes.
	// The template must be fully populated, including PublicKey and SignatureAlgorithm.
	SignCertificate(template *x509.Certificate) ([]byte, error)

	// GetCACertificate returns the CA certificate (public key only).
	GetCACertificate() (*x509.Certificate, error)
}

var _ CASigner = (*Certificate)(nil)

// Certificate is a parsed certificate together with the key pair it was
// issued for.
type Certificate struct {
	Cert *x509.Certificate
	Key  *KeyPair
}

// Algorithm returns the key family of the certificate's public key.
func (c *Certificate) Algorithm() Algorithm {
	return algorithmOf(c.Cert)
}

// SignCertificate signs template with the certificate's private key.
func (c *Certificate) SignCertificate(template *x509.Certificate) ([]byte, error) {
	if c.Cert == nil {
		return nil, fmt.Errorf("%w: issuer certificate is missing", ErrIssuance)
	}

	if c.Key == nil || c.Key.Private == nil {
		return nil, fmt.Errorf("%w: issuer private key is unavailable", ErrIssuance)
	}

	if !c.Cert.IsCA {
		return nil, fmt.Errorf("%w: issuer %q is not a certificate authority", ErrIssuance, c.Cert.Subject.String())
	}

	if err := verifyCertKeyPair(c.Cert, c.Key.Private); err != nil {
		return nil, fmt.Errorf("%w: issuer key is unusable: %v", ErrIssuance, err)
	}

	der, err := x509.CreateCertificate(rand.Reader, template, c.Cert, template.PublicKey, c.Key.Private)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIssuance, err)
	}

	return der, nil
}

// GetCACertificate returns the CA certificate.
func (c *Certificate) GetCACertificate() (*x509.Certificate, error) {
	if c.Cert == nil {
		return nil, fmt.Errorf("%w: issuer certificate is missing", ErrIssuance)
	}
	return c.Cert, nil
}

func algorithmOf(cert *x509.Certificate) Algorithm {
	if cert == nil {
		return AlgorithmUnspecified
	}

	switch cert.PublicKeyAlgorithm {
	case x509.RSA:
		return AlgorithmRSA
	case x509.ECDSA:
		return AlgorithmEC
	default:
		return AlgorithmUnspecified
	}
}
