package cli

import (
	"github.com/urfave/cli/v2"
)

// NewApp створює новий CLI додаток
func NewApp() *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Configuration file path",
		Value:   "_local.hcl",
		EnvVars: []string{"CAD_AUTH_CONFIG"},
	}

	app := &cli.App{
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from a .env file before running",
				Value: ".env",
			},
		},
		Before: loadEnvFile,
		Commands: []*cli.Command{
			{
				Name:  "configure",
				Usage: "Generate configuration from template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "template",
						Aliases: []string{"t"},
						Usage:   "Path to HCL template file",
						Value:   "configs/cad-auth.hcl.tmpl",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output configuration file path",
						Value:   "_local.hcl",
					},
					&cli.StringFlag{
						Name:    "version",
						Aliases: []string{"v"},
						Usage:   "Build version",
						Value:   "dev",
					},
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Configuration mode (local, staging, production)",
						Value:   "local",
					},
				},
				Action: configureAction,
			},
			{
				Name:   "server",
				Usage:  "Start the auth server",
				Flags:  []cli.Flag{configFlag},
				Action: serverAction,
			},
			{
				Name:   "migrate",
				Usage:  "Create the membership table and seed department keys",
				Flags:  []cli.Flag{configFlag},
				Action: migrateAction,
			},
			{
				Name:  "token",
				Usage: "Inspect CAD tokens",
				Subcommands: []*cli.Command{
					{
						Name:      "verify",
						Usage:     "Verify a CAD token with the configured signing key",
						ArgsUsage: "<token>",
						Flags:     []cli.Flag{configFlag},
						Action:    tokenVerifyAction,
					},
				},
			},
			{
				Name:   "version",
				Usage:  "Show version information",
				Action: versionAction,
			},
		},
	}

	return app
}
