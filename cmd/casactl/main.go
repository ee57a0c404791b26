// Command casactl is the operator tool for the Casa plugin server: it
// encrypts and decrypts stored secrets, hashes console passwords, and sends
// mail through the configured relay.
package main

import (
	"os"

	"github.com/keyxmakerx/casa-helloworld/internal/casactl"
)

func main() {
	root := casactl.NewRootCommand(casactl.DefaultConfig())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
