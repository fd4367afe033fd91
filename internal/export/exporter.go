package export

import (
	"context"
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/devcerts/internal/pki"
	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// ErrExport is returned when an artifact cannot be written.
var ErrExport = errors.New("export failed")

// Kind identifies the content of an artifact.
type Kind int

const (
	KindCertificate Kind = iota
	KindPrivateKey
	KindKeystore
)

func (k Kind) String() string {
	switch k {
	case KindCertificate:
		return "certificate"
	case KindPrivateKey:
		return "private key"
	case KindKeystore:
		return "keystore"
	default:
		return "unknown"
	}
}

// Artifact records a file written by the exporter.
type Artifact struct {
	Kind Kind
	Path string
	Size int
}

// WriteMode controls what happens when the target file exists.
type WriteMode int

const (
	// CreateNew fails if the file exists.
	CreateNew WriteMode = iota
	// Replace truncates an existing file.
	Replace
)

const (
	certificateFileMode os.FileMode = 0644
	secretFileMode      os.FileMode = 0600
	dirMode             os.FileMode = 0755
)

// Exporter writes certificates and keys below Dir.
type Exporter struct {
	Dir string
}

// New returns an Exporter for dir.
func New(dir string) *Exporter {
	return &Exporter{Dir: dir}
}

// EnsureDir creates the output directory if it does not exist.
func (e *Exporter) EnsureDir() error {
	if info, err := os.Stat(e.Dir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrExport, e.Dir)
		}
		return nil
	}

	log.Info().Str("path", e.Dir).Msg("Creating output folder")

	if err := os.MkdirAll(e.Dir, dirMode); err != nil {
		return fmt.Errorf("%w: failed to create output directory: %v", ErrExport, err)
	}

	return nil
}

// ExportCertificatePEM writes cert as a PEM CERTIFICATE block.
func (e *Exporter) ExportCertificatePEM(ctx context.Context, cert *x509.Certificate, path string, mode WriteMode) (Artifact, error) {
	if cert == nil {
		return Artifact{}, fmt.Errorf("%w: %s: certificate is nil", ErrExport, path)
	}

	data := pki.EncodeCertificatePEM(cert)
	if err := writeFile(ctx, path, data, certificateFileMode, mode); err != nil {
		return Artifact{}, err
	}

	log.Info().Str("path", path).Msg("Certificate exported")

	return Artifact{Kind: KindCertificate, Path: path, Size: len(data)}, nil
}

// ExportPrivateKeyPEM writes key as PKCS#1 (RSA) or SEC 1 (EC) PEM.
func (e *Exporter) ExportPrivateKeyPEM(ctx context.Context, key crypto.Signer, path string, mode WriteMode) (Artifact, error) {
	if key == nil {
		return Artifact{}, fmt.Errorf("%w: %s: private key is nil", ErrExport, path)
	}

	data, err := pki.EncodePrivateKeyPEM(key)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %s: %v", ErrExport, path, err)
	}

	if err := writeFile(ctx, path, data, secretFileMode, mode); err != nil {
		return Artifact{}, err
	}

	log.Info().Str("path", path).Msg("Private key exported")

	return Artifact{Kind: KindPrivateKey, Path: path, Size: len(data)}, nil
}

// ExportKeystore writes a password protected PKCS#12 bundle holding the
// certificate, its private key and chain. A blank password skips the export
// and reports written=false.
func (e *Exporter) ExportKeystore(ctx context.Context, cert *pki.Certificate, chain []*x509.Certificate, path, password string) (artifact Artifact, written bool, err error) {
	if strings.TrimSpace(password) == "" {
		log.Debug().Str("path", path).Msg("No keystore password, skipping PFX export")
		return Artifact{}, false, nil
	}

	if cert == nil || cert.Cert == nil || cert.Key == nil || cert.Key.Private == nil {
		return Artifact{}, false, fmt.Errorf("%w: %s: certificate and private key are required", ErrExport, path)
	}

	data, err := pkcs12.Modern.Encode(cert.Key.Private, cert.Cert, chain, password)
	if err != nil {
		return Artifact{}, false, fmt.Errorf("%w: %s: failed to encode PKCS#12: %v", ErrExport, path, err)
	}

	if err := writeFile(ctx, path, data, secretFileMode, CreateNew); err != nil {
		return Artifact{}, false, err
	}

	log.Info().Str("path", path).Msg("Keystore exported")

	return Artifact{Kind: KindKeystore, Path: path, Size: len(data)}, true, nil
}

// ResolveNonCollidingPath returns dir/fileName, or the first free variant
// with a numeric suffix before the extension: name.pem, name-1.pem, name-2.pem.
func ResolveNonCollidingPath(dir, fileName string) (string, error) {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)

	candidate := filepath.Join(dir, fileName)
	for i := 1; ; i++ {
		exists, err := pathExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, i, ext))
	}
}

// ResolveNonCollidingStem returns stem, or stem-N with the smallest N, such
// that no dir/{result}{suffix} exists for any of suffixes. It keeps the files
// of one artifact set on the same index, e.g. svc-ec-cert.pem and
// svc-ec-key.pem become svc-1-ec-cert.pem and svc-1-ec-key.pem.
func ResolveNonCollidingStem(dir, stem string, suffixes ...string) (string, error) {
	candidate := stem
	for i := 1; ; i++ {
		taken := false
		for _, suffix := range suffixes {
			exists, err := pathExists(filepath.Join(dir, candidate+suffix))
			if err != nil {
				return "", err
			}
			if exists {
				taken = true
				break
			}
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", stem, i)
	}
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("%w: failed to stat %s: %v", ErrExport, path, err)
	}
}

func writeFile(ctx context.Context, path string, data []byte, perm os.FileMode, mode WriteMode) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrExport, path, err)
	}

	flags := os.O_WRONLY | os.O_CREATE
	if mode == Replace {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, perm) // #nosec G304 - path is built by the exporter
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrExport, path, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: failed to write %s: %v", ErrExport, path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %v", ErrExport, path, err)
	}

	return nil
}
