package livetest

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/livetest/flags"
	"github.com/ethereum-optimism/infra/livetest/runner"
)

// Config holds the live test configuration
type Config struct {
	SuitePath         string
	OptionsPath       string           // empty: switches are passed through uncoerced
	Selector          *runner.Selector // nil selects every case
	StopOnFailure     bool
	Beep              bool
	KeepWorkDirs      bool
	WorkDir           string // parent of the per-case working directories
	EngineBinary      string
	EngineArgs        []string
	NotVulnerableCode int
	NegativeCode      int
	ReportFile        string
	HealthzAddr       string
	MetricsAddr       string // empty when metrics are disabled
	Log               log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	suitePath, err := absPath(ctx.String(flags.Suite.Name))
	if err != nil {
		return nil, err
	}
	if suitePath == "" {
		return nil, errors.New("suite is required")
	}
	optionsPath, err := absPath(ctx.String(flags.Options.Name))
	if err != nil {
		return nil, err
	}
	workDir, err := absPath(ctx.String(flags.WorkDir.Name))
	if err != nil {
		return nil, err
	}

	selector, err := runner.ParseSelector(ctx.String(flags.RunCase.Name))
	if err != nil {
		return nil, err
	}

	notVulnerable := ctx.Int(flags.EngineNotVulnerableCode.Name)
	negative := ctx.Int(flags.EngineNegativeCode.Name)
	if notVulnerable == negative {
		return nil, fmt.Errorf("engine exit codes must differ, both are %d", negative)
	}

	var metricsAddr string
	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	if metricsCfg.Enabled {
		if err := metricsCfg.Check(); err != nil {
			return nil, fmt.Errorf("invalid metrics config: %w", err)
		}
		metricsAddr = fmt.Sprintf("%s:%d", metricsCfg.ListenAddr, metricsCfg.ListenPort)
	}

	return &Config{
		SuitePath:         suitePath,
		OptionsPath:       optionsPath,
		Selector:          selector,
		StopOnFailure:     ctx.Bool(flags.StopFail.Name),
		Beep:              ctx.Bool(flags.Beep.Name),
		KeepWorkDirs:      ctx.Bool(flags.KeepWorkDirs.Name),
		WorkDir:           workDir,
		EngineBinary:      ctx.String(flags.EngineBinary.Name),
		EngineArgs:        ctx.StringSlice(flags.EngineArgs.Name),
		NotVulnerableCode: notVulnerable,
		NegativeCode:      negative,
		ReportFile:        ctx.String(flags.ReportFile.Name),
		HealthzAddr:       ctx.String(flags.HealthzAddr.Name),
		MetricsAddr:       metricsAddr,
		Log:               log,
	}, nil
}

func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for '%s': %w", p, err)
	}
	return abs, nil
}

// SmokeConfig holds the smoke test configuration
type SmokeConfig struct {
	Root     string
	Exclude  []string
	GoBinary string
	Log      log.Logger
}

// NewSmokeConfig creates a new SmokeConfig from cli context
func NewSmokeConfig(ctx *cli.Context, log log.Logger) (*SmokeConfig, error) {
	root, err := absPath(ctx.String(flags.SmokeRoot.Name))
	if err != nil {
		return nil, err
	}
	if root == "" {
		return nil, errors.New("smoke root is required")
	}
	return &SmokeConfig{
		Root:     root,
		Exclude:  ctx.StringSlice(flags.SmokeExclude.Name),
		GoBinary: ctx.String(flags.GoBinary.Name),
		Log:      log,
	}, nil
}
