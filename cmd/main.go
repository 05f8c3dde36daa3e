package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"

	"github.com/ethereum-optimism/infra/livetest"
	"github.com/ethereum-optimism/infra/livetest/exitcodes"
	"github.com/ethereum-optimism/infra/livetest/flags"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	// A missing .env is fine; values may come from the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Failed to load .env file", "err", err)
	}

	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "livetest"
	app.Usage = "Live acceptance tests for the scanning engine"
	app.Description = "livetest runs declarative test cases against a live target and checks console output and result artifacts"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.Commands = []*cli.Command{
		{
			Name:        "smoke",
			Usage:       "Load every package of a Go module and run its examples",
			Description: "smoke walks the module, parses every package and runs the examples that declare their output",
			Flags:       cliapp.ProtectFlags(append(flags.SmokeFlags, oplog.CLIFlags(flags.EnvVarPrefix)...)),
			Action:      smoke,
		},
	}
	// RuntimeError and TestFailureError carry their own exit codes; anything else
	// never got as far as running cases.
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err == nil {
			return
		}
		var exitErr cli.ExitCoder
		if !errors.As(err, &exitErr) {
			exitErr = cli.Exit(err.Error(), exitcodes.RuntimeErr)
		}
		cli.HandleExitCoder(exitErr)
	}

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	// Start CLI
	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func setupLogging(ctx *cli.Context) log.Logger {
	logCfg := oplog.ReadCLIConfig(ctx)
	logger := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(logger.Handler())
	oplog.SetupDefaults()
	return logger
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logger := setupLogging(ctx)

	cfg, err := livetest.NewConfig(ctx, logger)
	if err != nil {
		return nil, livetest.NewRuntimeError("config", err)
	}
	cfg.Log.Debug("Config", "config", cfg)

	lt, err := livetest.New(cfg, Version, closeApp)
	if err != nil {
		return nil, livetest.NewRuntimeError("setup", err)
	}
	return lt, nil
}

func smoke(ctx *cli.Context) error {
	logger := setupLogging(ctx)

	cfg, err := livetest.NewSmokeConfig(ctx, logger)
	if err != nil {
		return livetest.NewRuntimeError("config", err)
	}
	return livetest.RunSmoke(ctx.Context, cfg)
}
