package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wolfeidau/devcerts/internal/config"
	"github.com/wolfeidau/devcerts/internal/engine"
	"github.com/wolfeidau/devcerts/internal/pki"
)

// printSummary prints the issued certificates and the files written
func printSummary(w io.Writer, result *engine.Result, profile config.Profile) error {
	rootFingerprint, err := pki.Fingerprint(result.Root.Key.Public())
	if err != nil {
		return err
	}

	leafFingerprint, err := pki.Fingerprint(result.Leaf.Key.Public())
	if err != nil {
		return err
	}

	rootState := "existing"
	if result.RootCreated {
		rootState = "created"
	}

	fmt.Fprintln(w, "\n"+strings.Repeat("=", 50))
	fmt.Fprintln(w, "Certificate Issued")
	fmt.Fprintln(w, strings.Repeat("=", 50))

	fmt.Fprintf(w, "\nRoot CA (%s):\n", rootState)
	fmt.Fprintf(w, "  Subject:      %s\n", result.Root.Cert.Subject.String())
	fmt.Fprintf(w, "  Expires:      %s\n", result.Root.Cert.NotAfter.Format(time.DateOnly))
	fmt.Fprintf(w, "  Fingerprint:  %s\n", rootFingerprint)

	fmt.Fprintln(w, "\nLeaf:")
	fmt.Fprintf(w, "  Subject:      %s\n", result.Leaf.Cert.Subject.String())
	fmt.Fprintf(w, "  DNS names:    %s\n", strings.Join(result.Leaf.Cert.DNSNames, ", "))
	fmt.Fprintf(w, "  Serial:       %s\n", result.Leaf.Cert.SerialNumber.Text(16))
	fmt.Fprintf(w, "  Expires:      %s\n", result.Leaf.Cert.NotAfter.Format(time.DateOnly))
	fmt.Fprintf(w, "  Fingerprint:  %s\n", leafFingerprint)

	fmt.Fprintln(w, "\nFiles written:")
	for _, artifact := range result.Artifacts {
		fmt.Fprintf(w, "  %-13s %s\n", artifact.Kind.String()+":", artifact.Path)
	}

	if result.Published {
		fmt.Fprintf(w, "\nPublished to SSM Parameter Store under %s\n", profile.SSM.Prefix)
	}

	fmt.Fprintln(w)

	return nil
}
