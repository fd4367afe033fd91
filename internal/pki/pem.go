package pki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// PEM block types written by this package.
const (
	PEMTypeCertificate   = "CERTIFICATE"
	PEMTypeRSAPrivateKey = "RSA PRIVATE KEY"
	PEMTypeECPrivateKey  = "EC PRIVATE KEY"
	PEMTypePrivateKey    = "PRIVATE KEY"
)

// ErrInvalidPEM is returned when no usable PEM block is found.
var ErrInvalidPEM = errors.New("invalid PEM data")

// EncodeCertificatePEM returns the certificate as a CERTIFICATE block.
func EncodeCertificatePEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  PEMTypeCertificate,
		Bytes: cert.Raw,
	})
}

// EncodePrivateKeyPEM encodes RSA keys as PKCS#1 and EC keys as SEC 1.
func EncodePrivateKeyPEM(key crypto.Signer) ([]byte, error) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return pem.EncodeToMemory(&pem.Block{
			Type:  PEMTypeRSAPrivateKey,
			Bytes: x509.MarshalPKCS1PrivateKey(k),
		}), nil
	case *ecdsa.PrivateKey:
		keyBytes, err := x509.MarshalECPrivateKey(k)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal EC private key: %w", err)
		}
		return pem.EncodeToMemory(&pem.Block{
			Type:  PEMTypeECPrivateKey,
			Bytes: keyBytes,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unsupported private key type %T", ErrInvalidParameter, key)
	}
}

// ParseCertificatePEM parses the first CERTIFICATE block in data.
func ParseCertificatePEM(data []byte) (*x509.Certificate, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("%w: no CERTIFICATE block", ErrInvalidPEM)
		}

		if block.Type != PEMTypeCertificate {
			continue
		}

		return x509.ParseCertificate(block.Bytes)
	}
}

// ParsePrivateKeyPEM parses the first private key block in data. PKCS#1,
// SEC 1 and PKCS#8 encodings are accepted; other blocks such as
// EC PARAMETERS are skipped.
func ParsePrivateKeyPEM(data []byte) (crypto.Signer, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("%w: no private key block", ErrInvalidPEM)
		}

		switch block.Type {
		case PEMTypeRSAPrivateKey:
			return x509.ParsePKCS1PrivateKey(block.Bytes)
		case PEMTypeECPrivateKey:
			return x509.ParseECPrivateKey(block.Bytes)
		case PEMTypePrivateKey:
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
			signer, ok := key.(crypto.Signer)
			if !ok {
				return nil, fmt.Errorf("%w: unsupported private key type %T", ErrInvalidParameter, key)
			}
			return signer, nil
		}
	}
}
