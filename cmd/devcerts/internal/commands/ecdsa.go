package commands

import (
	"context"

	"github.com/wolfeidau/devcerts/internal/pki"
)

// EcdsaCmd issues an EC leaf certificate.
type EcdsaCmd struct {
	Issue IssueFlags `embed:""`
	Curve string     `short:"c" help:"Named curve (P-256, P-384, P-521)" default:"P-256"`
}

func (c *EcdsaCmd) Run(ctx context.Context, globals *Globals) error {
	curve, err := pki.ParseCurve(c.Curve)
	if err != nil {
		return err
	}

	return c.Issue.issue(ctx, globals, pki.KeySpec{Algorithm: pki.AlgorithmEC, Curve: curve})
}
