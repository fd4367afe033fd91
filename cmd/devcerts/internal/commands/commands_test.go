package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/devcerts/internal/pki"
	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

func testGlobals(t *testing.T, out *bytes.Buffer) *Globals {
	t.Helper()
	return &Globals{Config: filepath.Join(t.TempDir(), "missing.yaml"), Out: out}
}

func TestEcdsaCmd_Run(t *testing.T) {
	tmpDir := t.TempDir()
	var out bytes.Buffer

	cmd := &EcdsaCmd{
		Issue: IssueFlags{
			Name:      "svc",
			Hash:      "SHA256",
			DNS:       []string{"svc.local"},
			OutputDir: tmpDir,
		},
		Curve: "P-256",
	}

	err := cmd.Run(context.Background(), testGlobals(t, &out))
	require.NoError(t, err)

	// Verify files created
	for _, name := range []string{"root-ca-ec-cert.pem", "root-ca-ec-key.pem", "svc-ec-cert.pem", "svc-ec-key.pem"} {
		_, err = os.Stat(filepath.Join(tmpDir, name))
		require.NoError(t, err, name)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "svc-ec-cert.pem"))
	require.NoError(t, err)
	leaf, err := pki.ParseCertificatePEM(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"svc.local"}, leaf.DNSNames)
	assert.Equal(t, []string{"Sisa Solutions"}, leaf.Subject.Organization)
	assert.Equal(t, "Sisa Development", leaf.Subject.CommonName)

	summary := out.String()
	assert.Contains(t, summary, "Root CA (created)")
	assert.Contains(t, summary, "svc-ec-cert.pem")
	assert.Contains(t, summary, "Sisa Development Root CA")

	// Second run reuses the root and avoids overwriting the leaf
	out.Reset()
	err = cmd.Run(context.Background(), testGlobals(t, &out))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Root CA (existing)")
	_, err = os.Stat(filepath.Join(tmpDir, "svc-1-ec-cert.pem"))
	require.NoError(t, err)
}

func TestEcdsaCmd_InvalidCurve(t *testing.T) {
	cmd := &EcdsaCmd{
		Issue: IssueFlags{Name: "svc", Hash: "SHA256", OutputDir: t.TempDir()},
		Curve: "brainpoolP256r1",
	}

	err := cmd.Run(context.Background(), testGlobals(t, &bytes.Buffer{}))
	require.ErrorIs(t, err, pki.ErrInvalidParameter)
}

func TestRsaCmd_Run(t *testing.T) {
	tmpDir := t.TempDir()
	var out bytes.Buffer

	cmd := &RsaCmd{
		Issue: IssueFlags{
			Name:         "api",
			Hash:         "sha384",
			PfxPassword:  "changeit",
			Organization: "Acme",
			CN:           "Acme Dev",
			OutputDir:    tmpDir,
		},
		KeySize: 2048,
	}

	err := cmd.Run(context.Background(), testGlobals(t, &out))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(tmpDir, "api-rsa-cert.pem"))
	require.NoError(t, err)
	leaf, err := pki.ParseCertificatePEM(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost"}, leaf.DNSNames)
	assert.Equal(t, []string{"Acme"}, leaf.Subject.Organization)
	assert.Equal(t, "SHA384-RSA", leaf.SignatureAlgorithm.String())

	pfx, err := os.ReadFile(filepath.Join(tmpDir, "api-rsa-cert.pfx"))
	require.NoError(t, err)
	_, cert, _, err := pkcs12.DecodeChain(pfx, "changeit")
	require.NoError(t, err)
	assert.Equal(t, leaf.Raw, cert.Raw)
}

func TestRsaCmd_KeySizeBelowFloor(t *testing.T) {
	cmd := &RsaCmd{
		Issue:   IssueFlags{Name: "api", Hash: "SHA256", OutputDir: t.TempDir()},
		KeySize: 1024,
	}

	err := cmd.Run(context.Background(), testGlobals(t, &bytes.Buffer{}))
	require.ErrorIs(t, err, pki.ErrInvalidParameter)
}

func TestIssue_ProfileDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	outDir := filepath.Join(tmpDir, "certs")

	profilePath := filepath.Join(tmpDir, "devcerts.yaml")
	require.NoError(t, os.WriteFile(profilePath, []byte(`
organization: Profile Org
outputDir: `+outDir+`
product: Acme
rootName: acme-root
dnsNames: [profile.local]
`), 0600))

	cmd := &EcdsaCmd{
		Issue: IssueFlags{Name: "svc", Hash: "SHA256"},
		Curve: "P-256",
	}

	var out bytes.Buffer
	err := cmd.Run(context.Background(), &Globals{Config: profilePath, Out: &out})
	require.NoError(t, err)

	rootPEM, err := os.ReadFile(filepath.Join(outDir, "acme-root-ec-cert.pem"))
	require.NoError(t, err)
	root, err := pki.ParseCertificatePEM(rootPEM)
	require.NoError(t, err)
	assert.Equal(t, "Acme Development Root CA", root.Subject.CommonName)
	assert.Equal(t, []string{"Profile Org"}, root.Subject.Organization)

	leafPEM, err := os.ReadFile(filepath.Join(outDir, "svc-ec-cert.pem"))
	require.NoError(t, err)
	leaf, err := pki.ParseCertificatePEM(leafPEM)
	require.NoError(t, err)
	assert.Equal(t, []string{"profile.local"}, leaf.DNSNames)
}

func TestIssue_InvalidHash(t *testing.T) {
	cmd := &EcdsaCmd{
		Issue: IssueFlags{Name: "svc", Hash: "MD5", OutputDir: t.TempDir()},
		Curve: "P-256",
	}

	err := cmd.Run(context.Background(), testGlobals(t, &bytes.Buffer{}))
	require.ErrorIs(t, err, pki.ErrInvalidParameter)
}
