package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/devcerts/cmd/devcerts/internal/commands"
	"github.com/wolfeidau/devcerts/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Ecdsa   commands.EcdsaCmd `cmd:"" help:"Issue an EC certificate signed by the EC root CA"`
		Rsa     commands.RsaCmd   `cmd:"" help:"Issue an RSA certificate signed by the RSA root CA"`
		Config  string            `help:"Profile file (default: ~/.devcerts.yaml)" type:"path"`
		Debug   bool              `help:"Enable debug mode."`
		LogJSON bool              `help:"Write logs as JSON." name:"log-json"`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("devcerts"),
		kong.Description("Issue development TLS certificates from a local root CA."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	logger.Install(os.Stderr, logger.Options{Debug: cli.Debug, JSON: cli.LogJSON})

	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version, Config: cli.Config, Out: os.Stdout})
	cmd.FatalIfErrorf(err)
}
