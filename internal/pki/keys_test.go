package pki

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate(t *testing.T) {
	gen := NewGenerator()

	t.Run("RSA defaults to 2048 bits", func(t *testing.T) {
		kp, err := gen.Generate(KeySpec{Algorithm: AlgorithmRSA})
		require.NoError(t, err)
		require.Equal(t, AlgorithmRSA, kp.Algorithm)
		require.Equal(t, 2048, kp.RSABits)

		key, ok := kp.Private.(*rsa.PrivateKey)
		require.True(t, ok)
		require.Equal(t, 2048, key.N.BitLen())
	})

	t.Run("RSA below floor is rejected", func(t *testing.T) {
		_, err := gen.Generate(KeySpec{Algorithm: AlgorithmRSA, RSABits: 1024})
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("RSA floor is configurable", func(t *testing.T) {
		strict := &Generator{MinRSABits: 3072}
		_, err := strict.Generate(KeySpec{Algorithm: AlgorithmRSA, RSABits: 2048})
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("EC curves", func(t *testing.T) {
		tests := []struct {
			curve    Curve
			expected elliptic.Curve
			tag      Curve
		}{
			{CurveUnspecified, elliptic.P256(), CurveP256},
			{CurveP256, elliptic.P256(), CurveP256},
			{CurveP384, elliptic.P384(), CurveP384},
			{CurveP521, elliptic.P521(), CurveP521},
		}

		for _, tt := range tests {
			kp, err := gen.Generate(KeySpec{Algorithm: AlgorithmEC, Curve: tt.curve})
			require.NoError(t, err)
			require.Equal(t, tt.tag, kp.Curve)

			key, ok := kp.Private.(*ecdsa.PrivateKey)
			require.True(t, ok)
			require.Equal(t, tt.expected, key.Curve)
		}
	})

	t.Run("unknown curve is rejected", func(t *testing.T) {
		_, err := gen.Generate(KeySpec{Algorithm: AlgorithmEC, Curve: Curve(42)})
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("unknown algorithm is rejected", func(t *testing.T) {
		_, err := gen.Generate(KeySpec{})
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
}

func TestParseCurve(t *testing.T) {
	for _, name := range []string{"P-256", "nistP256", "prime256v1", "secp256r1"} {
		c, err := ParseCurve(name)
		require.NoError(t, err)
		require.Equal(t, CurveP256, c)
	}

	c, err := ParseCurve("nistP521")
	require.NoError(t, err)
	require.Equal(t, CurveP521, c)

	_, err = ParseCurve("brainpoolP256r1")
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestParseAlgorithmAndHash(t *testing.T) {
	alg, err := ParseAlgorithm("ECDSA")
	require.NoError(t, err)
	require.Equal(t, AlgorithmEC, alg)
	require.Equal(t, "ec", alg.String())

	_, err = ParseAlgorithm("dsa")
	require.ErrorIs(t, err, ErrInvalidParameter)

	h, err := ParseHashAlgorithm("SHA-384")
	require.NoError(t, err)
	require.Equal(t, HashSHA384, h)

	_, err = ParseHashAlgorithm("MD5")
	require.ErrorIs(t, err, ErrInvalidParameter)
}
