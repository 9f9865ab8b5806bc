package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"github.com/logfinder/gatewayproxy/app"
	"github.com/logfinder/gatewayproxy/proxy"
)

var (
	invokeCmdDescription = `The invoke command reads a single API Gateway (REST API)
proxy event, passes it to the worker and prints the
resulting response event as JSON.

The event is read from the file given by --event, or from
stdin if the flag is omitted or set to "-". A failing
handler makes the command exit with a non-zero code.`
	invokeCmd = &cli.Command{
		Name:        "invoke",
		Usage:       "Handle a single proxy event and print the response.",
		Description: invokeCmdDescription,
		Action:      invokeAction,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:     "event",
				Aliases:  []string{"e"},
				Usage:    "the file to read the event from.",
				Value:    "-",
				Category: "invoke",
			},
		},
	}
)

func invokeAction(ctx *cli.Context) error {
	evt, err := readEvent(ctx.Path("event"), ctx.App.Reader)
	if err != nil {
		return err
	}

	app, err := app.New(ctx)
	if err != nil {
		return err
	}

	var adapter *proxy.Adapter
	var res events.APIGatewayProxyResponse

	err = app.Exec(ctx.Context, func(execCtx context.Context) error {
		res, err = adapter.ProxyWithContext(execCtx, evt)
		return err
	}, fx.Populate(&adapter))
	if err != nil {
		return fmt.Errorf("invocation failed: %w", err)
	}

	enc := json.NewEncoder(ctx.App.Writer)
	enc.SetIndent("", "  ")

	return enc.Encode(res)
}

func readEvent(path string, stdin io.Reader) (events.APIGatewayProxyRequest, error) {
	var evt events.APIGatewayProxyRequest

	var r io.Reader
	if path == "" || path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return evt, fmt.Errorf("error opening event: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&evt); err != nil {
		return evt, fmt.Errorf("error decoding event: %w", err)
	}

	return evt, nil
}

func init() {
	rootApp.Commands = append(rootApp.Commands, invokeCmd)
}
