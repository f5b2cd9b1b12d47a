// lumina-frontend is the command-line entry point for the Lumina
// compiler front end.
package main

import (
	"os"

	"github.com/lumina-lang/lumina/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
