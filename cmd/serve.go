package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/logfinder/gatewayproxy/app"
	"github.com/logfinder/gatewayproxy/app/standalone"
	"github.com/logfinder/gatewayproxy/util/conf"
	"github.com/logfinder/gatewayproxy/util/logging"
)

var (
	serveCmdDescription = `The serve command starts a http server and waits for requests
to handle. Each request is passed to the worker the same
way a gateway event would be, so handlers can be run and
tested without AWS.

The command will launch the http server and blocks indefin-
itely, processing incoming http requests.`
	serveCmd = &cli.Command{
		Name:        "serve",
		Usage:       "Start a http server and listen for requests.",
		Description: serveCmdDescription,
		Action:      serveAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "host",
				Aliases:  []string{"H"},
				Usage:    "The host to listen on.",
				Value:    "localhost",
				Category: "http",
				EnvVars:  []string{"HTTP_HOST"},
			},
			&cli.IntFlag{
				Name:     "port",
				Aliases:  []string{"P"},
				Usage:    "The port to listen on.",
				Value:    8080,
				Category: "http",
				EnvVars:  []string{"HTTP_PORT"},
			},
			&cli.BoolFlag{
				Name:     "h2c",
				Usage:    "Enable HTTP/2 cleartext upgrade.",
				Value:    false,
				Category: "http",
				EnvVars:  []string{"HTTP_H2C"},
			},
		},
	}
)

func serveAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	app, err := app.New(ctx)
	if err != nil {
		return err
	}

	cfg, err := conf.Parse[standalone.Config](conf.ParseOptions{
		Cli:      ctx,
		Defaults: standalone.DefaultConfig,
		Log:      log,
	})
	if err != nil {
		return err
	}

	if err := conf.Validate(cfg); err != nil {
		return err
	}

	return app.Run(ctx.Context, standalone.Module(cfg))
}

func init() {
	rootApp.Commands = append(rootApp.Commands, serveCmd)
}
