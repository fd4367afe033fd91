package pki

import (
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
)

// Extension and key purpose OIDs from RFC 5280.
var (
	OIDExtensionSubjectKeyID     = asn1.ObjectIdentifier{2, 5, 29, 14}
	OIDExtensionKeyUsage         = asn1.ObjectIdentifier{2, 5, 29, 15}
	OIDExtensionSubjectAltName   = asn1.ObjectIdentifier{2, 5, 29, 17}
	OIDExtensionBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 19}
	OIDExtensionAuthorityKeyID   = asn1.ObjectIdentifier{2, 5, 29, 35}
	OIDExtensionExtendedKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 37}

	// OIDServerAuth is the TLS Web Server Authentication key purpose
	OIDServerAuth = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 1}
)

// ErrExtensionNotFound is returned when a required extension is missing
var ErrExtensionNotFound = errors.New("extension not found")

// FindExtension returns the extension with the given OID from a parsed certificate.
func FindExtension(cert *x509.Certificate, oid asn1.ObjectIdentifier) (*ExtensionInfo, error) {
	for i, ext := range cert.Extensions {
		if ext.Id.Equal(oid) {
			return &ExtensionInfo{Index: i, Critical: ext.Critical, Value: ext.Value}, nil
		}
	}
	return nil, ErrExtensionNotFound
}

// ExtensionInfo describes where and how an extension appears in a certificate.
type ExtensionInfo struct {
	Index    int
	Critical bool
	Value    []byte
}

// ExtractAuthorityKeyID returns the keyIdentifier of the authority key
// identifier extension.
func ExtractAuthorityKeyID(cert *x509.Certificate) ([]byte, error) {
	ext, err := FindExtension(cert, OIDExtensionAuthorityKeyID)
	if err != nil {
		return nil, err
	}

	var aki struct {
		KeyID []byte `asn1:"optional,tag:0"`
	}
	if _, err := asn1.Unmarshal(ext.Value, &aki); err != nil {
		return nil, fmt.Errorf("failed to unmarshal authority key identifier: %w", err)
	}

	return aki.KeyID, nil
}

// ExtractSubjectKeyID returns the value of the subject key identifier extension.
func ExtractSubjectKeyID(cert *x509.Certificate) ([]byte, error) {
	ext, err := FindExtension(cert, OIDExtensionSubjectKeyID)
	if err != nil {
		return nil, err
	}

	var ski []byte
	if _, err := asn1.Unmarshal(ext.Value, &ski); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subject key identifier: %w", err)
	}

	return ski, nil
}
