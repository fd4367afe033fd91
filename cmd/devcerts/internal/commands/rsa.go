package commands

import (
	"context"

	"github.com/wolfeidau/devcerts/internal/pki"
)

// RsaCmd issues an RSA leaf certificate.
type RsaCmd struct {
	Issue   IssueFlags `embed:""`
	KeySize int        `short:"s" help:"RSA key size in bits" default:"2048"`
}

func (c *RsaCmd) Run(ctx context.Context, globals *Globals) error {
	return c.Issue.issue(ctx, globals, pki.KeySpec{Algorithm: pki.AlgorithmRSA, RSABits: c.KeySize})
}
