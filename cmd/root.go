package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/logfinder/gatewayproxy/config"
	"github.com/logfinder/gatewayproxy/internal/shell"
	"github.com/logfinder/gatewayproxy/util/conf"
	"github.com/logfinder/gatewayproxy/util/logging"
)

var (
	appName  = "gatewayproxy"
	appUsage = `Serve API Gateway proxy events with a handler running in a
separate worker process, written in any language.`

	// rootFlagConfigKeys maps root flags onto nested config keys.
	rootFlagConfigKeys = map[string]string{
		"error-mode":   "proxy.error_mode",
		"cmd":          "backend.cmd",
		"arg":          "backend.args",
		"cwd":          "backend.cwd",
		"interface":    "backend.io.interface",
		"transport":    "backend.io.rpc.transport",
		"rpc-method":   "backend.io.rpc.method",
		"max-workers":  "backend.max_workers",
		"send-timeout": "backend.send.timeout",
		"stop-timeout": "backend.stop.timeout",
	}

	rootApp = &cli.App{
		Name:            appName,
		Usage:           appUsage,
		HideHelpCommand: true,
		Args:            true,
		Flags: []cli.Flag{
			// general flags
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "set the log level. Options: debug, info, warn, error, panic, fatal.",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "set the log format. Options: production, development.",
				EnvVars: []string{"LOG_FORMAT"},
			},
			&cli.PathFlag{
				Name:    "config",
				Usage:   "load configuration from a json or .env file.",
				Aliases: []string{"f"},
				EnvVars: []string{"CONFIG_FILE"},
			},
			// proxy flags
			&cli.StringFlag{
				Name:     "error-mode",
				Usage:    "what to do with handler failures. Options: propagate, respond.",
				Value:    "propagate",
				Category: "proxy",
			},
			// backend flags
			&cli.StringFlag{
				Name:     "cmd",
				Usage:    "the command to invoke in order to start the worker process.",
				Aliases:  []string{"c"},
				Category: "backend",
			},
			&cli.StringSliceFlag{
				Name:     "arg",
				Usage:    "additional arguments to pass to the worker process.",
				Aliases:  []string{"a"},
				Category: "backend",
			},
			&cli.StringFlag{
				Name:     "cwd",
				Usage:    "the working directory of the worker process.",
				Category: "backend",
			},
			&cli.StringFlag{
				Name:     "interface",
				Usage:    "the interface to use for communication with the worker process. Options: stdio, rpc.",
				Aliases:  []string{"i"},
				Value:    "stdio",
				Category: "backend",
			},
			&cli.StringFlag{
				Name:     "transport",
				Usage:    "the transport of the rpc interface. Options: stdio, ipc, tcp, http, ws.",
				Value:    "stdio",
				Category: "backend",
			},
			&cli.StringFlag{
				Name:     "rpc-method",
				Usage:    "the rpc method called for each request.",
				Value:    "handle",
				Category: "backend",
			},
			&cli.IntFlag{
				Name:     "max-workers",
				Usage:    "the maximum number of concurrent worker processes. Defaults to the number of CPUs.",
				Aliases:  []string{"n"},
				Category: "backend",
			},
			&cli.DurationFlag{
				Name:     "send-timeout",
				Usage:    "the time a worker has to answer a request.",
				Value:    30 * time.Second,
				Category: "backend",
			},
			&cli.DurationFlag{
				Name:     "stop-timeout",
				Usage:    "the time a worker has to exit before it is killed.",
				Value:    5 * time.Second,
				Category: "backend",
			},
		},
		Before: func(ctx *cli.Context) error {
			// parse config from defaults, file, env and flags
			cfg, err := conf.Parse[config.Config](conf.ParseOptions{
				Cli:      ctx,
				CliMap:   rootFlagConfigKeys,
				Defaults: config.DefaultConfig,
				FileName: ctx.Path("config"),
			})
			if err != nil {
				return err
			}

			// create the logger
			log, err := createLogger(cfg)
			if err != nil {
				return err
			}

			// inject logger into cli context
			ctx.Context = logging.ContextWithLogger(ctx.Context, log)

			// inject the config into the cli context
			ctx.Context = conf.ContextWithConfig(ctx.Context, cfg)

			return nil
		},
		After: func(ctx *cli.Context) error {
			log, err := logging.LoggerFromContext(ctx.Context)
			if err != nil {
				return nil
			}

			_ = log.Sync()

			return nil
		},
	}
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:               "version",
		Usage:              "print the version",
		DisableDefaultText: true,
	}
}

type ExecuteParams struct {
	Version  string
	Compiled time.Time
}

// Execute runs the cli and returns the process exit code.
func Execute(params ExecuteParams) int {
	rootApp.Version = params.Version
	rootApp.Compiled = params.Compiled

	return run(context.Background(), os.Args)
}

func run(ctx context.Context, args []string) int {
	err := rootApp.RunContext(ctx, args)

	// if app exited without error, return
	if err == nil {
		return 0
	}

	// if app exited with ExitError, exit with given exit code
	var exitErr *shell.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode
	}

	// otherwise, exit with exit code 1
	fmt.Fprintf(rootApp.ErrWriter, "error: %s\n", err.Error())

	return 1
}

func createLogger(cfg config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.LogFormat == "development" {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	zapConfig.InitialFields = map[string]any{
		"app": appName,
	}

	zapConfig.Level = logLevel(cfg.LogLevel)

	return zapConfig.Build()
}

func logLevel(lvl string) zap.AtomicLevel {
	if atom, err := zap.ParseAtomicLevel(lvl); err == nil {
		return atom
	}

	return zap.NewAtomicLevelAt(zap.InfoLevel)
}
