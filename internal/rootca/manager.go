// Package rootca owns the one-root-authority-per-key-family invariant: it
// loads an existing root from its PEM pair or mints a new one in memory.
package rootca

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/devcerts/internal/pki"
)

// ErrRootLoad is returned when an existing root certificate or key cannot be
// loaded. The files are never regenerated in that case.
var ErrRootLoad = errors.New("failed to load root CA")

// State is the provisioning state of a root for one key family.
type State int

const (
	// Absent means the certificate file, the key file, or both are missing.
	Absent State = iota
	// Present means both files exist.
	Present
)

func (s State) String() string {
	if s == Present {
		return "present"
	}
	return "absent"
}

const (
	DefaultName    = "root-ca"
	DefaultProduct = "Sisa"
)

// Config replaces the fixed root file names and common name with explicit
// values.
type Config struct {
	// Dir holds the root certificate and key files.
	Dir string
	// Name is the file name prefix, {Name}-{alg}-cert.pem and {Name}-{alg}-key.pem.
	Name string
	// Product is used in the root common name, "{Product} Development Root CA".
	Product string
	// RSABits is the modulus size of RSA roots.
	RSABits int
	// Curve is the curve of EC roots.
	Curve pki.Curve
	// Hash signs the root certificate.
	Hash pki.HashAlgorithm
}

// DefaultConfig returns the root settings used by the CLI.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:     dir,
		Name:    DefaultName,
		Product: DefaultProduct,
		RSABits: pki.RootRSABits,
		Curve:   pki.CurveP521,
		Hash:    pki.HashSHA512,
	}
}

// CommonName returns the root certificate common name.
func (c Config) CommonName() string {
	return fmt.Sprintf("%s Development Root CA", c.Product)
}

// Manager obtains root authorities.
type Manager struct {
	cfg       Config
	generator *pki.Generator
	issuer    *pki.Issuer
}

// NewManager creates a manager. Zero fields of cfg take their defaults.
func NewManager(cfg Config, generator *pki.Generator, issuer *pki.Issuer) *Manager {
	defaults := DefaultConfig(cfg.Dir)
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	if cfg.Product == "" {
		cfg.Product = defaults.Product
	}
	if cfg.RSABits == 0 {
		cfg.RSABits = defaults.RSABits
	}
	if cfg.Curve == pki.CurveUnspecified {
		cfg.Curve = defaults.Curve
	}
	if cfg.Hash == pki.HashUnspecified {
		cfg.Hash = defaults.Hash
	}

	if generator == nil {
		generator = pki.NewGenerator()
	}
	if issuer == nil {
		issuer = pki.NewIssuer()
	}

	return &Manager{cfg: cfg, generator: generator, issuer: issuer}
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Paths returns the certificate and key file paths for alg.
func (m *Manager) Paths(alg pki.Algorithm) (certPath, keyPath string) {
	certPath = filepath.Join(m.cfg.Dir, fmt.Sprintf("%s-%s-cert.pem", m.cfg.Name, alg))
	keyPath = filepath.Join(m.cfg.Dir, fmt.Sprintf("%s-%s-key.pem", m.cfg.Name, alg))
	return certPath, keyPath
}

// State reports whether both root files exist for alg.
func (m *Manager) State(alg pki.Algorithm) State {
	certPath, keyPath := m.Paths(alg)
	if fileExists(certPath) && fileExists(keyPath) {
		return Present
	}
	return Absent
}

// Obtain loads the root for alg when both files exist, otherwise mints a new
// one in memory and reports wasCreated. The caller persists a created root.
// The organization and unit of subjectDefaults are used for a new root; the
// common name is always CommonName().
func (m *Manager) Obtain(alg pki.Algorithm, subjectDefaults pki.Subject) (root *pki.Certificate, wasCreated bool, err error) {
	certPath, keyPath := m.Paths(alg)

	if m.State(alg) == Present {
		log.Info().
			Str("algorithm", alg.String()).
			Str("path_cert", certPath).
			Str("path_key", keyPath).
			Msg("Root CA exists, loading...")

		loaded, err := m.load(alg, certPath, keyPath)
		if err != nil {
			return nil, false, err
		}

		return loaded, false, nil
	}

	if fileExists(certPath) || fileExists(keyPath) {
		log.Warn().
			Str("algorithm", alg.String()).
			Bool("cert_exists", fileExists(certPath)).
			Bool("key_exists", fileExists(keyPath)).
			Msg("Incomplete root CA on disk, generating a new one")
	} else {
		log.Info().Str("algorithm", alg.String()).Msg("Root CA does not exist, generating...")
	}

	root, err = m.create(alg, subjectDefaults)
	if err != nil {
		return nil, false, err
	}

	return root, true, nil
}

func (m *Manager) load(alg pki.Algorithm, certPath, keyPath string) (*pki.Certificate, error) {
	root, err := pki.NewFileSigner(keyPath, certPath)
	if err != nil {
		return nil, fmt.Errorf("%w from %s: %v (remove %s and %s to generate a new root)", ErrRootLoad, certPath, err, certPath, keyPath)
	}

	if root.Algorithm() != alg {
		return nil, fmt.Errorf("%w: %s holds a %s key, expected %s", ErrRootLoad, certPath, root.Algorithm(), alg)
	}

	if !root.Cert.IsCA {
		return nil, fmt.Errorf("%w: %s is not a certificate authority", ErrRootLoad, certPath)
	}

	daysRemaining := int(time.Until(root.Cert.NotAfter).Hours() / 24)
	if daysRemaining < 0 {
		log.Error().
			Int("days_expired", -daysRemaining).
			Str("path_cert", certPath).
			Msg("Root CA is expired, remove it to generate a new one")
	} else {
		log.Info().
			Int("days_remaining", daysRemaining).
			Msg("Root CA is valid, using existing...")
	}

	return root, nil
}

func (m *Manager) create(alg pki.Algorithm, subjectDefaults pki.Subject) (*pki.Certificate, error) {
	spec := pki.KeySpec{Algorithm: alg}
	switch alg {
	case pki.AlgorithmRSA:
		spec.RSABits = m.cfg.RSABits
	case pki.AlgorithmEC:
		spec.Curve = m.cfg.Curve
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm %s", pki.ErrInvalidParameter, alg)
	}

	keyPair, err := m.generator.Generate(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to generate root key: %w", err)
	}

	subject := pki.Subject{
		Organization:       subjectDefaults.Organization,
		OrganizationalUnit: subjectDefaults.OrganizationalUnit,
		CommonName:         m.cfg.CommonName(),
	}

	root, err := m.issuer.IssueRoot(subject, keyPair, m.cfg.Hash)
	if err != nil {
		return nil, fmt.Errorf("failed to create root certificate: %w", err)
	}

	log.Info().
		Str("algorithm", alg.String()).
		Str("subject", subject.String()).
		Str("serial_number", root.Cert.SerialNumber.Text(16)).
		Msg("Generated root CA")

	return root, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
