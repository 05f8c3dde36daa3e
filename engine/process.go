package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/livetest/options"
)

// Process engine defaults
const (
	DefaultNotVulnerableCode = 3
	DefaultNegativeCode      = 4
	DefaultArtifactName      = "log"

	// DomainErrorCode is the exit code the engine uses for anticipated failures.
	DomainErrorCode = 1

	OutputDirFlag = "--output-dir"
	DumpDirFlag   = "--dump-dir"
	FilesDirFlag  = "--files-dir"

	// TestModeEnv is set to "1" in the engine environment when running under test.
	TestModeEnv = "LIVETEST_TEST_MODE"

	unknownTarget = "unknown"
)

// ProcessConfig configures the ProcessEngine.
type ProcessConfig struct {
	Binary            string
	Args              []string // leading arguments placed before the rendered options
	NotVulnerableCode int
	NegativeCode      int
	ArtifactName      string
	Stdout            io.Writer // defaults to os.Stdout as it is when Run is called
	Log               log.Logger
	CmdBuilder        func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// ProcessEngine runs the scanning tool as a child process, one process per case.
type ProcessEngine struct {
	cfg      ProcessConfig
	opts     options.Set
	env      Environment
	testMode bool
	target   string
}

var _ Engine = (*ProcessEngine)(nil)

// NewProcessFactory validates cfg and returns a Factory producing ProcessEngines.
func NewProcessFactory(cfg ProcessConfig) (Factory, error) {
	if cfg.Binary == "" {
		return nil, fmt.Errorf("engine binary is required")
	}
	if cfg.NotVulnerableCode == 0 {
		cfg.NotVulnerableCode = DefaultNotVulnerableCode
	}
	if cfg.NegativeCode == 0 {
		cfg.NegativeCode = DefaultNegativeCode
	}
	if cfg.NotVulnerableCode == cfg.NegativeCode {
		return nil, fmt.Errorf("not-vulnerable and negative exit codes must differ (both %d)", cfg.NegativeCode)
	}
	for _, code := range []int{cfg.NotVulnerableCode, cfg.NegativeCode} {
		if code == DomainErrorCode {
			return nil, fmt.Errorf("exit code %d is reserved for engine errors", DomainErrorCode)
		}
	}
	if cfg.ArtifactName == "" {
		cfg.ArtifactName = DefaultArtifactName
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.CmdBuilder == nil {
		cfg.CmdBuilder = exec.CommandContext
	}
	return func() Engine {
		return &ProcessEngine{cfg: cfg}
	}, nil
}

// Init implements Engine.
func (p *ProcessEngine) Init(opts options.Set, env Environment, testMode bool) error {
	if env.WorkDir == "" {
		return fmt.Errorf("engine work directory is required")
	}
	p.opts = opts.Clone()
	p.env = env
	p.testMode = testMode
	p.target = TargetName(opts.String("url"))
	return nil
}

// Run implements Engine.
func (p *ProcessEngine) Run(ctx context.Context) Result {
	args := append([]string{}, p.cfg.Args...)
	args = append(args, RenderArgs(p.opts)...)
	args = append(args,
		OutputDirFlag+"="+p.env.WorkDir,
		DumpDirFlag+"="+p.env.DumpDir(p.target),
		FilesDirFlag+"="+p.env.FilesDir(p.target),
	)

	cmd := p.cfg.CmdBuilder(ctx, p.cfg.Binary, args...)
	cmd.Dir = p.env.WorkDir
	if p.testMode {
		cmd.Env = append(os.Environ(), TestModeEnv+"=1")
	}
	out := p.cfg.Stdout
	if out == nil {
		out = os.Stdout
	}
	cmd.Stdout = out
	cmd.Stderr = out

	p.cfg.Log.Debug("Starting engine process", "binary", p.cfg.Binary, "args", strings.Join(args, " "), "testMode", p.testMode)
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Failed(ctxErr)
	}
	if err == nil {
		return Vulnerable()
	}

	exitErr := &exec.ExitError{}
	if !errors.As(err, &exitErr) {
		return Failed(fmt.Errorf("failed to run engine: %w", err))
	}

	note := fmt.Sprintf("exit code %d", exitErr.ExitCode())
	switch exitErr.ExitCode() {
	case p.cfg.NotVulnerableCode:
		return Result{Kind: KindNotVulnerable, Note: note}
	case p.cfg.NegativeCode:
		return Result{Kind: KindNegative, Note: note}
	case DomainErrorCode:
		return Result{Kind: KindError, Err: NewDomainError("engine reported an error", exitErr), Note: note}
	default:
		return Result{Kind: KindError, Err: fmt.Errorf("engine terminated abnormally: %w", exitErr), Note: note}
	}
}

// OutputFile implements Engine.
func (p *ProcessEngine) OutputFile() string {
	return filepath.Join(p.env.OutputDir(p.target), p.cfg.ArtifactName)
}

// TargetName derives the per-target directory name from a target URL.
func TargetName(rawURL string) string {
	if rawURL == "" {
		return unknownTarget
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return unknownTarget
	}
	return u.Hostname()
}

// RenderArgs renders an option set as command line flags in sorted order. True
// booleans become bare flags; false booleans, nil and empty strings are omitted.
func RenderArgs(opts options.Set) []string {
	var args []string
	for _, name := range opts.Names() {
		switch v := opts[name].(type) {
		case nil:
		case bool:
			if v {
				args = append(args, "--"+name)
			}
		case string:
			if v != "" {
				args = append(args, fmt.Sprintf("--%s=%s", name, v))
			}
		default:
			args = append(args, fmt.Sprintf("--%s=%v", name, v))
		}
	}
	return args
}
