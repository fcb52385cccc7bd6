package main

import (
	"os"

	"github.com/muzzletov/mendxml/cmd/mendxml/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
