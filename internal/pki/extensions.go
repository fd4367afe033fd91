package pki

import (
	"crypto"
	"crypto/sha1" // #nosec G505 - RFC 5280 key identifiers are defined over SHA-1
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/bits"
	"strings"
	"unicode"
)

// ExtensionSet is an ordered list of X.509v3 extensions. The order is kept
// when the set is encoded into a certificate.
type ExtensionSet []pkix.Extension

// Find returns the extension with the given OID.
func (s ExtensionSet) Find(oid asn1.ObjectIdentifier) (pkix.Extension, bool) {
	for _, ext := range s {
		if ext.Id.Equal(oid) {
			return ext, true
		}
	}
	return pkix.Extension{}, false
}

// BuildRootExtensions returns key usage (certificate signing), basic
// constraints (CA, path length 0) and the subject key identifier.
func BuildRootExtensions(pub crypto.PublicKey) (ExtensionSet, error) {
	keyUsage, err := marshalKeyUsage(x509.KeyUsageCertSign, true)
	if err != nil {
		return nil, err
	}

	constraints, err := marshalBasicConstraints(true, 0, true)
	if err != nil {
		return nil, err
	}

	ski, err := SubjectKeyID(pub)
	if err != nil {
		return nil, err
	}

	skiValue, err := asn1.Marshal(ski)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal subject key identifier: %w", err)
	}

	return ExtensionSet{
		keyUsage,
		constraints,
		{Id: OIDExtensionSubjectKeyID, Critical: false, Value: skiValue},
	}, nil
}

// BuildLeafExtensions returns the extensions of a TLS server certificate
// issued by issuer. dnsNames must not be empty.
func BuildLeafExtensions(issuer *x509.Certificate, pub crypto.PublicKey, dnsNames []string) (ExtensionSet, error) {
	if len(dnsNames) == 0 {
		return nil, fmt.Errorf("%w: at least one DNS name is required", ErrInvalidParameter)
	}

	if issuer == nil {
		return nil, fmt.Errorf("%w: issuer certificate is required", ErrIssuance)
	}

	if pub == nil {
		return nil, fmt.Errorf("%w: public key is required", ErrInvalidParameter)
	}

	constraints, err := marshalBasicConstraints(false, 0, false)
	if err != nil {
		return nil, err
	}

	keyUsage, err := marshalKeyUsage(x509.KeyUsageDigitalSignature|x509.KeyUsageKeyEncipherment, true)
	if err != nil {
		return nil, err
	}

	ekuValue, err := asn1.Marshal([]asn1.ObjectIdentifier{OIDServerAuth})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extended key usage: %w", err)
	}

	aki, err := authorityKeyID(issuer)
	if err != nil {
		return nil, err
	}

	san, err := marshalDNSNames(dnsNames)
	if err != nil {
		return nil, err
	}

	return ExtensionSet{
		constraints,
		keyUsage,
		{Id: OIDExtensionExtendedKeyUsage, Critical: false, Value: ekuValue},
		aki,
		san,
	}, nil
}

// SubjectKeyID computes the RFC 5280 method 1 key identifier: the SHA-1 hash
// of the subjectPublicKey BIT STRING.
func SubjectKeyID(pub crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal public key: %v", ErrInvalidParameter, err)
	}

	var spki struct {
		Algorithm pkix.AlgorithmIdentifier
		PublicKey asn1.BitString
	}
	if _, err := asn1.Unmarshal(der, &spki); err != nil {
		return nil, fmt.Errorf("failed to unmarshal public key: %w", err)
	}

	sum := sha1.Sum(spki.PublicKey.Bytes) // #nosec G401
	return sum[:], nil
}

func authorityKeyID(issuer *x509.Certificate) (pkix.Extension, error) {
	keyID := issuer.SubjectKeyId
	if len(keyID) == 0 {
		var err error
		keyID, err = SubjectKeyID(issuer.PublicKey)
		if err != nil {
			return pkix.Extension{}, err
		}
	}

	// keyIdentifier only, no authorityCertIssuer or serial
	value, err := asn1.Marshal(struct {
		KeyID []byte `asn1:"optional,tag:0"`
	}{KeyID: keyID})
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("failed to marshal authority key identifier: %w", err)
	}

	return pkix.Extension{Id: OIDExtensionAuthorityKeyID, Critical: false, Value: value}, nil
}

func marshalKeyUsage(ku x509.KeyUsage, critical bool) (pkix.Extension, error) {
	// KeyUsage bit 0 is the most significant bit of the first octet.
	b := []byte{bits.Reverse8(byte(ku)), bits.Reverse8(byte(ku >> 8))}
	if b[1] == 0 {
		b = b[:1]
	}

	value, err := asn1.Marshal(asn1.BitString{Bytes: b, BitLength: bitLength(b)})
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("failed to marshal key usage: %w", err)
	}

	return pkix.Extension{Id: OIDExtensionKeyUsage, Critical: critical, Value: value}, nil
}

// bitLength trims trailing zero bits as DER requires for named bit lists.
func bitLength(b []byte) int {
	n := len(b) * 8
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0 {
			return n - bits.TrailingZeros8(b[i])
		}
		n -= 8
	}
	return 0
}

func marshalBasicConstraints(isCA bool, maxPathLen int, critical bool) (pkix.Extension, error) {
	value, err := asn1.Marshal(struct {
		IsCA       bool `asn1:"optional"`
		MaxPathLen int  `asn1:"optional,default:-1"`
	}{IsCA: isCA, MaxPathLen: maxPathLen})
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("failed to marshal basic constraints: %w", err)
	}

	return pkix.Extension{Id: OIDExtensionBasicConstraints, Critical: critical, Value: value}, nil
}

func marshalDNSNames(dnsNames []string) (pkix.Extension, error) {
	names := make([]asn1.RawValue, 0, len(dnsNames))
	for _, name := range dnsNames {
		if strings.TrimSpace(name) == "" {
			return pkix.Extension{}, fmt.Errorf("%w: DNS name must not be blank", ErrInvalidParameter)
		}
		if !isIA5String(name) {
			return pkix.Extension{}, fmt.Errorf("%w: DNS name %q is not ASCII", ErrInvalidParameter, name)
		}
		names = append(names, asn1.RawValue{Tag: 2, Class: asn1.ClassContextSpecific, Bytes: []byte(name)})
	}

	value, err := asn1.Marshal(names)
	if err != nil {
		return pkix.Extension{}, fmt.Errorf("failed to marshal subject alternative name: %w", err)
	}

	return pkix.Extension{Id: OIDExtensionSubjectAltName, Critical: false, Value: value}, nil
}

func isIA5String(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
