package pki

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testSubject(cn string) Subject {
	return Subject{
		Organization:       "Sisa Solutions",
		OrganizationalUnit: "dev@example",
		CommonName:         cn,
	}
}

// newTestRoot creates a root of the given family using small keys.
func newTestRoot(t *testing.T, alg Algorithm) *Certificate {
	t.Helper()

	kp, err := NewGenerator().Generate(KeySpec{Algorithm: alg, RSABits: 2048, Curve: CurveP256})
	require.NoError(t, err)

	root, err := NewIssuer().IssueRoot(testSubject("Test Development Root CA"), kp, HashSHA256)
	require.NoError(t, err)

	return root
}
