package pki

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	rootValidityYears = 10
	leafValidityYears = 3
	serialNumberBytes = 8
)

// Subject is the distinguished name of an issued certificate.
type Subject struct {
	Organization       string
	OrganizationalUnit string
	CommonName         string
}

// String renders the subject as O=..., OU=..., CN=...
func (s Subject) String() string {
	parts := make([]string, 0, 3)
	if s.Organization != "" {
		parts = append(parts, "O="+s.Organization)
	}
	if s.OrganizationalUnit != "" {
		parts = append(parts, "OU="+s.OrganizationalUnit)
	}
	if s.CommonName != "" {
		parts = append(parts, "CN="+s.CommonName)
	}
	return strings.Join(parts, ", ")
}

// Name returns the subject as a pkix.Name. Empty components are omitted.
func (s Subject) Name() pkix.Name {
	var name pkix.Name
	if s.Organization != "" {
		name.Organization = []string{s.Organization}
	}
	if s.OrganizationalUnit != "" {
		name.OrganizationalUnit = []string{s.OrganizationalUnit}
	}
	name.CommonName = s.CommonName
	return name
}

// Issuer creates root and leaf certificates.
type Issuer struct {
	// Now returns the issuance time, defaults to time.Now.
	Now func() time.Time
}

// NewIssuer returns an Issuer using the wall clock.
func NewIssuer() *Issuer {
	return &Issuer{Now: time.Now}
}

func (i *Issuer) now() time.Time {
	if i.Now == nil {
		return time.Now().UTC()
	}
	return i.Now().UTC()
}

// IssueRoot creates a self-signed certificate authority valid from one day
// before now until ten years after now.
func (i *Issuer) IssueRoot(subject Subject, keyPair *KeyPair, hash HashAlgorithm) (*Certificate, error) {
	if keyPair == nil || keyPair.Private == nil {
		return nil, fmt.Errorf("%w: root key pair is required", ErrInvalidParameter)
	}

	sigAlg, err := signatureAlgorithm(keyPair.Algorithm, hash)
	if err != nil {
		return nil, err
	}

	extensions, err := BuildRootExtensions(keyPair.Public())
	if err != nil {
		return nil, err
	}

	serialNumber, err := newSerialNumber()
	if err != nil {
		return nil, err
	}

	now := i.now()
	template := &x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               subject.Name(),
		NotBefore:             now.AddDate(0, 0, -1),
		NotAfter:              now.AddDate(rootValidityYears, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
		SignatureAlgorithm:    sigAlg,
		ExtraExtensions:       extensions,
	}

	// Self-sign the CA certificate
	der, err := x509.CreateCertificate(rand.Reader, template, template, keyPair.Public(), keyPair.Private)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create root certificate: %v", ErrIssuance, err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse root certificate: %v", ErrIssuance, err)
	}

	return &Certificate{Cert: cert, Key: keyPair}, nil
}

// IssueLeaf creates a TLS server certificate for dnsNames signed by issuer,
// valid from one day before now until three years after now. The returned
// certificate carries keyPair, not the issuer's key.
func (i *Issuer) IssueLeaf(issuer CASigner, subject Subject, keyPair *KeyPair, hash HashAlgorithm, dnsNames []string) (*Certificate, error) {
	if len(dnsNames) == 0 {
		return nil, fmt.Errorf("%w: at least one DNS name is required", ErrInvalidParameter)
	}

	if keyPair == nil || keyPair.Private == nil {
		return nil, fmt.Errorf("%w: leaf key pair is required", ErrInvalidParameter)
	}

	if issuer == nil {
		return nil, fmt.Errorf("%w: issuer is required", ErrIssuance)
	}

	caCert, err := issuer.GetCACertificate()
	if err != nil {
		return nil, wrapIssuance(err)
	}

	extensions, err := BuildLeafExtensions(caCert, keyPair.Public(), dnsNames)
	if err != nil {
		return nil, err
	}

	sigAlg, err := signatureAlgorithm(algorithmOf(caCert), hash)
	if err != nil {
		return nil, fmt.Errorf("%w: issuer key: %v", ErrIssuance, err)
	}

	serialNumber, err := newSerialNumber()
	if err != nil {
		return nil, err
	}

	now := i.now()
	notBefore := now.AddDate(0, 0, -1)
	notAfter := now.AddDate(leafValidityYears, 0, 0)

	if notAfter.After(caCert.NotAfter) {
		return nil, fmt.Errorf("%w: leaf would expire at %s, after issuer expiry %s", ErrIssuance,
			notAfter.Format(time.RFC3339), caCert.NotAfter.Format(time.RFC3339))
	}

	if notBefore.Before(caCert.NotBefore) {
		return nil, fmt.Errorf("%w: leaf would be valid from %s, before issuer %s", ErrIssuance,
			notBefore.Format(time.RFC3339), caCert.NotBefore.Format(time.RFC3339))
	}

	template := &x509.Certificate{
		SerialNumber:       serialNumber,
		Subject:            subject.Name(),
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		KeyUsage:           x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:        []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		SignatureAlgorithm: sigAlg,
		PublicKey:          keyPair.Public(),
		ExtraExtensions:    extensions,
	}

	// Sign the leaf certificate with the CA (via signer)
	der, err := issuer.SignCertificate(template)
	if err != nil {
		return nil, wrapIssuance(err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse leaf certificate: %v", ErrIssuance, err)
	}

	return &Certificate{Cert: cert, Key: keyPair}, nil
}

// newSerialNumber returns a positive serial built from 8 random bytes.
func newSerialNumber() (*big.Int, error) {
	buf := make([]byte, serialNumberBytes)
	for {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("%w: failed to generate serial number: %v", ErrIssuance, err)
		}

		serial := new(big.Int).SetBytes(buf)
		if serial.Sign() > 0 {
			return serial, nil
		}
	}
}

func wrapIssuance(err error) error {
	if errors.Is(err, ErrIssuance) || errors.Is(err, ErrInvalidParameter) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrIssuance, err)
}
