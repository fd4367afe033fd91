package pki

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"os"
)

// NewFileSigner loads an authority from a PEM-encoded private key file and a
// PEM-encoded X.509 certificate file. The key may be RSA or EC and must match
// the certificate.
func NewFileSigner(caKeyPath, caCertPath string) (*Certificate, error) {
	// Load CA private key
	keyData, err := os.ReadFile(caKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA key file: %w", err)
	}

	caKey, err := ParsePrivateKeyPEM(keyData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CA private key: %w", err)
	}

	// Load CA certificate
	certData, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert file: %w", err)
	}

	caCert, err := ParseCertificatePEM(certData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CA certificate: %w", err)
	}

	// Verify key and cert match
	if err := verifyCertKeyPair(caCert, caKey); err != nil {
		return nil, fmt.Errorf("CA key and certificate do not match: %w", err)
	}

	keyPair, err := keyPairFromSigner(caKey)
	if err != nil {
		return nil, err
	}

	return &Certificate{Cert: caCert, Key: keyPair}, nil
}

// verifyCertKeyPair checks that a certificate's public key matches a private key
func verifyCertKeyPair(cert *x509.Certificate, key crypto.Signer) error {
	certPubKey, ok := cert.PublicKey.(interface{ Equal(crypto.PublicKey) bool })
	if !ok {
		return fmt.Errorf("unsupported certificate public key type %T", cert.PublicKey)
	}

	if !certPubKey.Equal(key.Public()) {
		return fmt.Errorf("public keys do not match")
	}

	return nil
}
