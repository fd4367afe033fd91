package commands

import (
	"io"
	"os"
)

type Globals struct {
	Debug   bool
	Version string
	// Config is the profile path, empty selects ~/.devcerts.yaml.
	Config string
	// Out receives the issuance summary, defaults to stdout.
	Out io.Writer
}

func (g *Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
