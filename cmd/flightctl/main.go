// flightctl is the operator CLI for the flight delay API: it prepares the
// database, bulk-loads the CSV sources and issues admin tokens.
//
// Usage:
//
//	flightctl setup [--flights]
//	flightctl import --data-dir data [--flights]
//	flightctl token --subject ops --role admin --hours 24
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "flightctl",
		Usage:   "Flight delay API administration",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			importCommand(),
			setupCommand(),
			tokenCommand(),
		},
	}
}
