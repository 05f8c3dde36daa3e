package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/livetest/engine"
	"github.com/ethereum-optimism/infra/livetest/smoke"
)

const EnvVarPrefix = "LIVETEST"

var (
	Suite = &cli.StringFlag{
		Name:    "suite",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUITE"),
		Usage:   "Path to the live test suite (XML, or YAML when ending in .yaml/.yml)",
	}
	Options = &cli.StringFlag{
		Name:    "options",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OPTIONS"),
		Usage:   "Path to the engine option table (YAML). Without it switches are passed through uncoerced",
	}
	RunCase = &cli.StringFlag{
		Name:    "run-case",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_CASE"),
		Usage:   "Run only the case with this 1-based index, or whose name matches this regex",
	}
	StopFail = &cli.BoolFlag{
		Name:    "stop-fail",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STOP_FAIL"),
		Usage:   "Stop at the first failing case",
	}
	Beep = &cli.BoolFlag{
		Name:    "beep",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BEEP"),
		Usage:   "Ring the terminal bell for every failing case",
	}
	KeepWorkDirs = &cli.BoolFlag{
		Name:    "keep-workdirs",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "KEEP_WORKDIRS"),
		Usage:   "Keep the working directories of passing cases",
	}
	WorkDir = &cli.StringFlag{
		Name:    "work-dir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WORK_DIR"),
		Usage:   "Parent directory for per-case working directories (default: system temp dir)",
	}
	EngineBinary = &cli.StringFlag{
		Name:    "engine-binary",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ENGINE_BINARY"),
		Usage:   "Path to the scanning engine executable",
	}
	EngineArgs = &cli.StringSliceFlag{
		Name:    "engine-arg",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ENGINE_ARGS"),
		Usage:   "Extra leading argument for the engine, repeatable",
	}
	EngineNotVulnerableCode = &cli.IntFlag{
		Name:    "engine-not-vulnerable-code",
		Value:   engine.DefaultNotVulnerableCode,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ENGINE_NOT_VULNERABLE_CODE"),
		Usage:   "Engine exit code signalling that nothing was found",
	}
	EngineNegativeCode = &cli.IntFlag{
		Name:    "engine-negative-code",
		Value:   engine.DefaultNegativeCode,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ENGINE_NEGATIVE_CODE"),
		Usage:   "Engine exit code for an explicit negative result",
	}
	ReportFile = &cli.StringFlag{
		Name:    "report-file",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT_FILE"),
		Usage:   "Also write the plain text results table to this file",
	}
	HealthzAddr = &cli.StringFlag{
		Name:    "healthz.addr",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "HEALTHZ_ADDR"),
		Usage:   "Serve /healthz on this address while running, e.g. '0.0.0.0:8080'",
	}
)

// Smoke subcommand flags
var (
	SmokeRoot = &cli.StringFlag{
		Name:    "root",
		Value:   ".",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SMOKE_ROOT"),
		Usage:   "Root of the Go module to smoke test",
	}
	SmokeExclude = &cli.StringSliceFlag{
		Name:    "exclude",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SMOKE_EXCLUDE"),
		Usage:   "Directory name or root-relative path to skip, repeatable",
	}
	GoBinary = &cli.StringFlag{
		Name:    "go-binary",
		Value:   smoke.DefaultGoBinary,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GO_BINARY"),
		Usage:   "Path to the Go binary used to run examples",
	}
)

var requiredFlags = []cli.Flag{
	Suite,
	EngineBinary,
}

var optionalFlags = []cli.Flag{
	Options,
	RunCase,
	StopFail,
	Beep,
	KeepWorkDirs,
	WorkDir,
	EngineArgs,
	EngineNotVulnerableCode,
	EngineNegativeCode,
	ReportFile,
	HealthzAddr,
}

var Flags []cli.Flag

var SmokeFlags = []cli.Flag{
	SmokeRoot,
	SmokeExclude,
	GoBinary,
}

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

// CheckRequired verifies the live test flags. They are not marked Required on the
// flags themselves so that the smoke subcommand runs without them.
func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
