package pki

import "errors"

// Sentinel errors
var (
	// ErrInvalidParameter is returned for caller errors such as an RSA key size
	// below the floor, an unknown curve or an empty DNS name list.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrIssuance is returned when a certificate cannot be signed, for example
	// because the issuer has no usable private key.
	ErrIssuance = errors.New("certificate issuance failed")
)
