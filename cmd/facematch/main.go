package main

import (
	"os"

	"github.com/saturnino-fabrica-de-software/facematch/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
