package pki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
)

const (
	// DefaultRSABits is the leaf RSA modulus size when none is requested.
	DefaultRSABits = 2048

	// RootRSABits is the modulus size used for RSA root authorities.
	RootRSABits = 4096

	// DefaultMinRSABits is the safety floor applied to requested RSA keys.
	DefaultMinRSABits = 2048
)

// KeySpec describes the key pair to generate.
type KeySpec struct {
	Algorithm Algorithm
	// RSABits is the modulus size, zero selects DefaultRSABits.
	RSABits int
	// Curve selects the EC curve, CurveUnspecified selects P-256.
	Curve Curve
}

// KeyPair is an asymmetric key pair owned by a single issuance.
type KeyPair struct {
	Algorithm Algorithm
	RSABits   int
	Curve     Curve
	Private   crypto.Signer
}

// Public returns the public half of the key pair.
func (k *KeyPair) Public() crypto.PublicKey {
	return k.Private.Public()
}

// Generator produces key pairs.
type Generator struct {
	// MinRSABits rejects RSA requests below this size.
	MinRSABits int
	Rand       io.Reader
}

// NewGenerator returns a Generator with the default RSA floor.
func NewGenerator() *Generator {
	return &Generator{MinRSABits: DefaultMinRSABits, Rand: rand.Reader}
}

// Generate creates a new key pair for spec.
func (g *Generator) Generate(spec KeySpec) (*KeyPair, error) {
	random := g.Rand
	if random == nil {
		random = rand.Reader
	}

	switch spec.Algorithm {
	case AlgorithmRSA:
		bits := spec.RSABits
		if bits == 0 {
			bits = DefaultRSABits
		}
		if bits < g.MinRSABits {
			return nil, fmt.Errorf("%w: RSA key size %d is below the minimum of %d bits", ErrInvalidParameter, bits, g.MinRSABits)
		}

		key, err := rsa.GenerateKey(random, bits)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to generate RSA key: %v", ErrInvalidParameter, err)
		}

		return &KeyPair{Algorithm: AlgorithmRSA, RSABits: bits, Private: key}, nil
	case AlgorithmEC:
		curve, err := ellipticCurve(spec.Curve)
		if err != nil {
			return nil, err
		}

		key, err := ecdsa.GenerateKey(curve, random)
		if err != nil {
			return nil, fmt.Errorf("failed to generate EC key: %w", err)
		}

		c := spec.Curve
		if c == CurveUnspecified {
			c = CurveP256
		}

		return &KeyPair{Algorithm: AlgorithmEC, Curve: c, Private: key}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm %s", ErrInvalidParameter, spec.Algorithm)
	}
}

func ellipticCurve(c Curve) (elliptic.Curve, error) {
	switch c {
	case CurveUnspecified, CurveP256:
		return elliptic.P256(), nil
	case CurveP384:
		return elliptic.P384(), nil
	case CurveP521:
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("%w: unknown curve %s", ErrInvalidParameter, c)
	}
}

// keyPairFromSigner rebuilds KeyPair metadata for a key loaded from disk.
func keyPairFromSigner(signer crypto.Signer) (*KeyPair, error) {
	switch key := signer.(type) {
	case *rsa.PrivateKey:
		return &KeyPair{Algorithm: AlgorithmRSA, RSABits: key.N.BitLen(), Private: key}, nil
	case *ecdsa.PrivateKey:
		var c Curve
		switch key.Curve {
		case elliptic.P256():
			c = CurveP256
		case elliptic.P384():
			c = CurveP384
		case elliptic.P521():
			c = CurveP521
		default:
			return nil, fmt.Errorf("%w: unsupported curve %s", ErrInvalidParameter, key.Curve.Params().Name)
		}
		return &KeyPair{Algorithm: AlgorithmEC, Curve: c, Private: key}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported private key type %T", ErrInvalidParameter, signer)
	}
}
