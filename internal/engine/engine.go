// Package engine runs one certificate issuance: obtain the root for the key
// family, issue the leaf, then export and optionally publish the artifacts.
package engine

import (
	"context"
	"crypto/x509"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/devcerts/internal/export"
	"github.com/wolfeidau/devcerts/internal/pki"
	"github.com/wolfeidau/devcerts/internal/rootca"
	"github.com/wolfeidau/devcerts/internal/ssmcerts"
	"golang.org/x/sync/errgroup"
)

// Publisher uploads the PEM artifacts of an issuance.
type Publisher interface {
	Publish(ctx context.Context, bundle ssmcerts.Bundle) error
}

var _ Publisher = (*ssmcerts.Publisher)(nil)

// Engine issues leaf certificates.
type Engine struct {
	Roots     *rootca.Manager
	Generator *pki.Generator
	Issuer    *pki.Issuer
	Exporter  *export.Exporter
	// Publisher is optional.
	Publisher Publisher
}

// New creates an engine writing leaf artifacts to outputDir and keeping the
// roots described by rootCfg.
func New(outputDir string, rootCfg rootca.Config, generator *pki.Generator) *Engine {
	if generator == nil {
		generator = pki.NewGenerator()
	}
	issuer := pki.NewIssuer()

	return &Engine{
		Roots:     rootca.NewManager(rootCfg, generator, issuer),
		Generator: generator,
		Issuer:    issuer,
		Exporter:  export.New(outputDir),
	}
}

// Result describes a completed issuance.
type Result struct {
	Root        *pki.Certificate
	Leaf        *pki.Certificate
	RootCreated bool
	// Stem is the collision free base name of the leaf files.
	Stem      string
	Artifacts []export.Artifact
	Published bool
}

// Issue obtains the root for opts.Algorithm, issues the leaf and writes the
// artifacts. A root is only written to disk when it was created by this call.
func (e *Engine) Issue(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	root, created, err := e.Roots.Obtain(opts.Algorithm, opts.Subject)
	if err != nil {
		return nil, err
	}

	leafKey, err := e.Generator.Generate(opts.KeySpec())
	if err != nil {
		return nil, fmt.Errorf("failed to generate leaf key: %w", err)
	}

	leaf, err := e.Issuer.IssueLeaf(root, opts.Subject, leafKey, opts.hash(), opts.DNSNames)
	if err != nil {
		return nil, err
	}

	fingerprint, err := pki.Fingerprint(leaf.Key.Public())
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("algorithm", opts.Algorithm.String()).
		Str("subject", opts.Subject.String()).
		Strs("dns_names", opts.DNSNames).
		Str("serial_number", leaf.Cert.SerialNumber.Text(16)).
		Str("fingerprint", fingerprint).
		Msg("Issued leaf certificate")

	if err := e.Exporter.EnsureDir(); err != nil {
		return nil, err
	}

	if created {
		if err := export.New(e.Roots.Config().Dir).EnsureDir(); err != nil {
			return nil, err
		}
	}

	certSuffix, keySuffix, keystoreSuffix := opts.leafSuffixes()

	stem, err := export.ResolveNonCollidingStem(e.Exporter.Dir, opts.CertificateName, certSuffix, keySuffix, keystoreSuffix)
	if err != nil {
		return nil, err
	}

	if stem != opts.CertificateName {
		log.Warn().Str("name", opts.CertificateName).Str("stem", stem).Msg("Output files exist, using a new name")
	}

	artifacts, err := e.export(ctx, opts, root, leaf, created, stem)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Root:        root,
		Leaf:        leaf,
		RootCreated: created,
		Stem:        stem,
		Artifacts:   artifacts,
	}

	if opts.Publish && e.Publisher != nil {
		if err := e.publish(ctx, opts, root, leaf); err != nil {
			return nil, err
		}
		result.Published = true
	}

	return result, nil
}

// export writes all artifacts concurrently. The first failure cancels the
// remaining writes; files already written are left in place.
func (e *Engine) export(ctx context.Context, opts Options, root, leaf *pki.Certificate, rootCreated bool, stem string) ([]export.Artifact, error) {
	certSuffix, keySuffix, keystoreSuffix := opts.leafSuffixes()
	dir := e.Exporter.Dir

	var jobs []func(ctx context.Context) (export.Artifact, bool, error)

	if rootCreated {
		rootCertPath, rootKeyPath := e.Roots.Paths(opts.Algorithm)
		jobs = append(jobs,
			func(ctx context.Context) (export.Artifact, bool, error) {
				a, err := e.Exporter.ExportCertificatePEM(ctx, root.Cert, rootCertPath, export.Replace)
				return a, err == nil, err
			},
			func(ctx context.Context) (export.Artifact, bool, error) {
				a, err := e.Exporter.ExportPrivateKeyPEM(ctx, root.Key.Private, rootKeyPath, export.Replace)
				return a, err == nil, err
			},
		)
	}

	jobs = append(jobs,
		func(ctx context.Context) (export.Artifact, bool, error) {
			a, err := e.Exporter.ExportCertificatePEM(ctx, leaf.Cert, filepath.Join(dir, stem+certSuffix), export.CreateNew)
			return a, err == nil, err
		},
		func(ctx context.Context) (export.Artifact, bool, error) {
			a, err := e.Exporter.ExportPrivateKeyPEM(ctx, leaf.Key.Private, filepath.Join(dir, stem+keySuffix), export.CreateNew)
			return a, err == nil, err
		},
		func(ctx context.Context) (export.Artifact, bool, error) {
			chain := []*x509.Certificate{root.Cert}
			return e.Exporter.ExportKeystore(ctx, leaf, chain, filepath.Join(dir, stem+keystoreSuffix), opts.PfxPassword)
		},
	)

	type outcome struct {
		artifact export.Artifact
		written  bool
	}
	outcomes := make([]outcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			artifact, written, err := job(gctx)
			if err != nil {
				return err
			}
			outcomes[i] = outcome{artifact: artifact, written: written}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	artifacts := make([]export.Artifact, 0, len(outcomes))
	for _, o := range outcomes {
		if o.written {
			artifacts = append(artifacts, o.artifact)
		}
	}

	return artifacts, nil
}

func (e *Engine) publish(ctx context.Context, opts Options, root, leaf *pki.Certificate) error {
	keyPEM, err := pki.EncodePrivateKeyPEM(leaf.Key.Private)
	if err != nil {
		return err
	}

	return e.Publisher.Publish(ctx, ssmcerts.Bundle{
		Name:     fmt.Sprintf("%s-%s", opts.CertificateName, opts.Algorithm),
		RootCert: pki.EncodeCertificatePEM(root.Cert),
		LeafCert: pki.EncodeCertificatePEM(leaf.Cert),
		LeafKey:  keyPEM,
	})
}
