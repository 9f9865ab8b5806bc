package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/logfinder/gatewayproxy/app"
	"github.com/logfinder/gatewayproxy/app/lambda"
	"github.com/logfinder/gatewayproxy/util/conf"
	"github.com/logfinder/gatewayproxy/util/logging"
)

var (
	lambdaCmdDescription = `The lambda command starts gatewayproxy as an AWS Lambda runtime
interface client, which allows it to be directly invoked by
the AWS Lambda runtime without any additional dependencies.
This command is intended to be used as the entrypoint of a
dockerized API handler, written in any language.

Events are mapped onto the worker either directly (the
default) or by converting them into http requests, which
are then served by the same routes as the serve command.

The command will start the AWS runtime interface client and
blocks indefinitely, processing incoming AWS Lambda events.`
	lambdaCmd = &cli.Command{
		Name:        "lambda",
		Usage:       "Run the AWS Lambda handler",
		Description: lambdaCmdDescription,
		Action:      lambdaAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "lambda-proxy-source",
				Usage:    "the source of the AWS Lambda event. Options: API_GW_V1, API_GW_V2, ALB.",
				Value:    lambda.ProxySourceApiGatewayV1.String(),
				EnvVars:  []string{"LAMBDA_PROXY_SOURCE"},
				Category: "lambda",
			},
			&cli.StringFlag{
				Name:     "lambda-mode",
				Usage:    "how events reach the worker. Options: direct, http.",
				Value:    lambda.ModeDirect.String(),
				EnvVars:  []string{"LAMBDA_MODE"},
				Category: "lambda",
			},
		},
	}
)

func lambdaAction(ctx *cli.Context) error {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return err
	}

	app, err := app.New(ctx)
	if err != nil {
		return err
	}

	cfg, err := conf.Parse[lambda.Config](conf.ParseOptions{
		Cli:      ctx,
		Defaults: lambda.DefaultConfig,
		Log:      log,
	})
	if err != nil {
		return err
	}

	if err := conf.Validate(cfg); err != nil {
		return err
	}

	log.Info("starting AWS Lambda handler")

	return app.Run(ctx.Context, lambda.Module(cfg))
}

func init() {
	rootApp.Commands = append(rootApp.Commands, lambdaCmd)
}
