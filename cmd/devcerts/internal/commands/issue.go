package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/devcerts/internal/config"
	"github.com/wolfeidau/devcerts/internal/engine"
	"github.com/wolfeidau/devcerts/internal/pki"
	"github.com/wolfeidau/devcerts/internal/rootca"
	"github.com/wolfeidau/devcerts/internal/ssmcerts"
)

// IssueFlags are shared by the ecdsa and rsa commands. Empty values fall back
// to the profile, then to the built-in defaults.
type IssueFlags struct {
	Name         string   `short:"n" required:"" help:"Base name of the output files"`
	Hash         string   `short:"a" help:"Signature hash (SHA256, SHA384, SHA512)" default:"SHA256"`
	DNS          []string `short:"d" help:"DNS name for the subject alternative name, repeatable (default: localhost)"`
	PfxPassword  string   `short:"p" name:"pfx-password" help:"Password of the PKCS#12 keystore, omit to skip it" env:"DEVCERTS_PFX_PASSWORD"`
	Organization string   `short:"o" help:"Organization name (default: Sisa Solutions)"`
	OU           string   `name:"ou" help:"Organizational unit (default: {user}@{host})"`
	CN           string   `name:"cn" help:"Common name (default: Sisa Development)"`
	OutputDir    string   `help:"Output directory (default: gen)"`
	SSMPrefix    string   `name:"ssm-prefix" help:"Publish the PEM files to SSM Parameter Store under this prefix"`
	AWSRegion    string   `help:"AWS region" env:"AWS_REGION"`
	AWSEndpoint  string   `help:"AWS endpoint (for LocalStack)" env:"AWS_ENDPOINT"`
}

func (f *IssueFlags) profile() config.Profile {
	return config.Profile{
		Organization:     f.Organization,
		OrganizationUnit: f.OU,
		CommonName:       f.CN,
		OutputDir:        f.OutputDir,
		DNSNames:         f.DNS,
		SSM: config.SSM{
			Region:   f.AWSRegion,
			Endpoint: f.AWSEndpoint,
			Prefix:   f.SSMPrefix,
		},
	}
}

func (f *IssueFlags) issue(ctx context.Context, globals *Globals, key pki.KeySpec) error {
	hash, err := pki.ParseHashAlgorithm(f.Hash)
	if err != nil {
		return err
	}

	profile, err := config.Resolve(globals.Config, f.profile())
	if err != nil {
		return err
	}

	opts := engine.Options{
		CertificateName: f.Name,
		Algorithm:       key.Algorithm,
		RSABits:         key.RSABits,
		Curve:           key.Curve,
		Hash:            hash,
		DNSNames:        profile.DNSNames,
		PfxPassword:     f.PfxPassword,
		Subject: pki.Subject{
			Organization:       profile.Organization,
			OrganizationalUnit: profile.OrganizationUnit,
			CommonName:         profile.CommonName,
		},
		Publish: profile.SSM.Prefix != "",
	}

	generator := pki.NewGenerator()
	generator.MinRSABits = profile.MinRSABits

	eng := engine.New(profile.OutputDir, rootca.Config{
		Dir:     profile.OutputDir,
		Name:    profile.RootName,
		Product: profile.Product,
	}, generator)

	if opts.Publish {
		publisher, err := ssmcerts.NewPublisher(ctx, ssmcerts.Config{
			Region:   profile.SSM.Region,
			Endpoint: profile.SSM.Endpoint,
			Prefix:   profile.SSM.Prefix,
		})
		if err != nil {
			return err
		}
		eng.Publisher = publisher
	}

	log.Info().
		Str("name", opts.CertificateName).
		Str("algorithm", opts.Algorithm.String()).
		Str("hash", hash.String()).
		Str("output_dir", profile.OutputDir).
		Msg("Issuing certificate")

	result, err := eng.Issue(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to issue certificate: %w", err)
	}

	return printSummary(globals.out(), result, profile)
}
