package ssmcerts

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog/log"
)

// ErrPublish is returned when artifacts cannot be written to or read from
// Parameter Store.
var ErrPublish = errors.New("ssm publish failed")

// ParameterAPI is the subset of the SSM client used by the publisher.
type ParameterAPI interface {
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Config for publishing certificates
type Config struct {
	Region string
	// Endpoint overrides the SSM endpoint (for LocalStack)
	Endpoint string
	// Prefix is the parameter path prefix, e.g. /devcerts/local
	Prefix string
}

// Bundle holds the PEM encoded artifacts of one issuance.
type Bundle struct {
	Name     string
	RootCert []byte
	LeafCert []byte
	LeafKey  []byte
}

// Publisher stores certificate bundles in AWS SSM Parameter Store.
type Publisher struct {
	client ParameterAPI
	prefix string
}

// NewPublisher loads the default AWS configuration and creates an SSM client.
func NewPublisher(ctx context.Context, cfg Config) (*Publisher, error) {
	opts := []func(*config.LoadOptions) error{}

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.Endpoint != "" {
		// Use BaseEndpoint for LocalStack support
		opts = append(opts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load AWS config: %v", ErrPublish, err)
	}

	return NewPublisherWithClient(ssm.NewFromConfig(awsConfig), cfg.Prefix)
}

// NewPublisherWithClient creates a publisher using client.
func NewPublisherWithClient(client ParameterAPI, prefix string) (*Publisher, error) {
	prefix = strings.TrimRight(prefix, "/")
	if !strings.HasPrefix(prefix, "/") {
		return nil, fmt.Errorf("%w: parameter prefix %q must start with /", ErrPublish, prefix)
	}

	return &Publisher{client: client, prefix: prefix}, nil
}

// Parameters returns the root certificate, leaf certificate and leaf key
// parameter names of the bundle called name.
func (p *Publisher) Parameters(name string) (rootParam, certParam, keyParam string) {
	base := fmt.Sprintf("%s/%s", p.prefix, name)
	return base + "/root-ca-cert", base + "/cert", base + "/key"
}

// Publish uploads the bundle. The leaf key is stored as a SecureString.
func (p *Publisher) Publish(ctx context.Context, bundle Bundle) error {
	if err := bundle.Validate(); err != nil {
		return err
	}

	log.Info().Str("prefix", p.prefix).Str("name", bundle.Name).Msg("Uploading certificates to AWS SSM Parameter Store...")

	rootParam, certParam, keyParam := p.Parameters(bundle.Name)

	if err := p.put(ctx, rootParam, bundle.RootCert, ssmtypes.ParameterTypeString); err != nil {
		return err
	}

	if err := p.put(ctx, certParam, bundle.LeafCert, ssmtypes.ParameterTypeString); err != nil {
		return err
	}

	if err := p.put(ctx, keyParam, bundle.LeafKey, ssmtypes.ParameterTypeSecureString); err != nil {
		return err
	}

	log.Info().Msg("Successfully uploaded certificates to AWS SSM Parameter Store")

	return nil
}

// Load reads a bundle previously written by Publish.
func (p *Publisher) Load(ctx context.Context, name string) (*Bundle, error) {
	rootParam, certParam, keyParam := p.Parameters(name)

	rootCert, err := p.get(ctx, rootParam)
	if err != nil {
		return nil, err
	}

	leafCert, err := p.get(ctx, certParam)
	if err != nil {
		return nil, err
	}

	leafKey, err := p.get(ctx, keyParam)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{Name: name, RootCert: rootCert, LeafCert: leafCert, LeafKey: leafKey}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}

	return bundle, nil
}

func (p *Publisher) put(ctx context.Context, name string, value []byte, paramType ssmtypes.ParameterType) error {
	_, err := p.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(string(value)),
		Type:      paramType,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to put %s: %v", ErrPublish, name, err)
	}

	log.Info().Str("parameter", name).Msg("Uploaded to SSM Parameter Store")
	return nil
}

func (p *Publisher) get(ctx context.Context, name string) ([]byte, error) {
	output, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get %s: %v", ErrPublish, name, err)
	}
	if output.Parameter == nil || output.Parameter.Value == nil {
		return nil, fmt.Errorf("%w: parameter %s has no value", ErrPublish, name)
	}
	return []byte(*output.Parameter.Value), nil
}

// Validate checks that the bundle holds valid PEM and that the leaf
// certificate matches its key.
func (b *Bundle) Validate() error {
	if b.Name == "" || strings.ContainsAny(b.Name, "/\\") {
		return fmt.Errorf("%w: invalid bundle name %q", ErrPublish, b.Name)
	}

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(b.RootCert) {
		return fmt.Errorf("%w: invalid root certificate PEM", ErrPublish)
	}

	if _, err := tls.X509KeyPair(b.LeafCert, b.LeafKey); err != nil {
		return fmt.Errorf("%w: invalid leaf certificate/key: %v", ErrPublish, err)
	}

	return nil
}
