package main

import (
	"log"
	"os"

	"cad-auth/internal/build"
	"cad-auth/internal/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = build.Name
	app.Version = build.Version
	app.Usage = "Discord login for the CAD portal: department resolution and signed CAD tokens"

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
