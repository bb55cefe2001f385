// Package main is the entry point for the sdr-enthusiasts image API server.
package main

import (
	"os"

	"github.com/sdr-enthusiasts/sdr-image-api/cmd/image-api/app"
)

func main() {
	v := app.NewViper()

	// environment-only logging until flags are parsed
	app.ConfigureLogging(v)

	if err := app.NewRootCmd(v).Execute(); err != nil {
		os.Exit(1)
	}
}
