package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ErrConfig is returned when a profile file cannot be read or is invalid.
var ErrConfig = errors.New("invalid configuration")

const (
	DefaultFileName     = ".devcerts.yaml"
	DefaultOrganization = "Sisa Solutions"
	DefaultCommonName   = "Sisa Development"
	DefaultOutputDir    = "gen"
	DefaultProduct      = "Sisa"
	DefaultRootName     = "root-ca"
	DefaultMinRSABits   = 2048
	DefaultDNSName      = "localhost"

	minAllowedRSABits = 1024
)

// SSM configures publishing to Parameter Store.
type SSM struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Prefix   string `yaml:"prefix"`
}

// Profile holds subject and output defaults. Zero fields are unset.
type Profile struct {
	Organization     string   `yaml:"organization"`
	OrganizationUnit string   `yaml:"organizationUnit"`
	CommonName       string   `yaml:"commonName"`
	OutputDir        string   `yaml:"outputDir"`
	Product          string   `yaml:"product"`
	RootName         string   `yaml:"rootName"`
	MinRSABits       int      `yaml:"minRSABits"`
	DNSNames         []string `yaml:"dnsNames"`
	SSM              SSM      `yaml:"ssm"`
}

// Defaults returns the built-in profile.
func Defaults() Profile {
	return Profile{
		Organization:     DefaultOrganization,
		OrganizationUnit: DefaultOrganizationUnit(),
		CommonName:       DefaultCommonName,
		OutputDir:        DefaultOutputDir,
		Product:          DefaultProduct,
		RootName:         DefaultRootName,
		MinRSABits:       DefaultMinRSABits,
		DNSNames:         []string{DefaultDNSName},
	}
}

// DefaultOrganizationUnit returns {user}@{host}.
func DefaultOrganizationUnit() string {
	username := "unknown"
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = u.Username
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}

	return fmt.Sprintf("%s@%s", username, host)
}

// DefaultPath returns the profile path in the user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(home, DefaultFileName)
}

// Load reads the profile at path. A missing file yields an empty profile.
func Load(path string) (Profile, error) {
	var profile Profile

	data, err := os.ReadFile(path) // #nosec G304 - path is supplied by the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug().Str("path", path).Msg("No profile found, using defaults")
			return profile, nil
		}
		return profile, fmt.Errorf("%w: failed to read %s: %v", ErrConfig, path, err)
	}

	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("%w: failed to parse YAML profile %s: %v", ErrConfig, path, err)
	}

	if err := profile.Validate(); err != nil {
		return profile, fmt.Errorf("%s: %w", path, err)
	}

	log.Debug().Str("path", path).Msg("Loaded profile")

	return profile, nil
}

// Validate checks the fields that are set.
func (p Profile) Validate() error {
	if p.MinRSABits != 0 && p.MinRSABits < minAllowedRSABits {
		return fmt.Errorf("%w: minRSABits must be at least %d", ErrConfig, minAllowedRSABits)
	}

	for _, name := range p.DNSNames {
		if name == "" {
			return fmt.Errorf("%w: dnsNames must not contain empty entries", ErrConfig)
		}
	}

	return nil
}

// Merge returns p with every set field of over applied on top.
func (p Profile) Merge(over Profile) Profile {
	if over.Organization != "" {
		p.Organization = over.Organization
	}
	if over.OrganizationUnit != "" {
		p.OrganizationUnit = over.OrganizationUnit
	}
	if over.CommonName != "" {
		p.CommonName = over.CommonName
	}
	if over.OutputDir != "" {
		p.OutputDir = over.OutputDir
	}
	if over.Product != "" {
		p.Product = over.Product
	}
	if over.RootName != "" {
		p.RootName = over.RootName
	}
	if over.MinRSABits > 0 {
		p.MinRSABits = over.MinRSABits
	}
	if len(over.DNSNames) > 0 {
		p.DNSNames = over.DNSNames
	}
	if over.SSM.Region != "" {
		p.SSM.Region = over.SSM.Region
	}
	if over.SSM.Endpoint != "" {
		p.SSM.Endpoint = over.SSM.Endpoint
	}
	if over.SSM.Prefix != "" {
		p.SSM.Prefix = over.SSM.Prefix
	}
	return p
}

// Resolve layers the built-in defaults, the profile at path and the values
// set on the command line, in increasing precedence.
func Resolve(path string, flags Profile) (Profile, error) {
	if path == "" {
		path = DefaultPath()
	}

	file, err := Load(path)
	if err != nil {
		return Profile{}, err
	}

	resolved := Defaults().Merge(file).Merge(flags)
	if err := resolved.Validate(); err != nil {
		return Profile{}, err
	}

	return resolved, nil
}
