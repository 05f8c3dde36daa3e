// Package engine defines the contract between the live test runner and the
// scanning engine under test, plus a process based adapter.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ethereum-optimism/infra/livetest/options"
)

// Kind tags the outcome of one engine run.
type Kind int

const (
	KindVulnerable    Kind = iota // run completed with a positive result
	KindNegative                  // run completed and explicitly returned a negative result
	KindNotVulnerable             // engine signalled that nothing was found
	KindError                     // run failed, see Result.Err
)

func (k Kind) String() string {
	switch k {
	case KindVulnerable:
		return "vulnerable"
	case KindNegative:
		return "negative"
	case KindNotVulnerable:
		return "not_vulnerable"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the tagged outcome of Engine.Run.
type Result struct {
	Kind Kind
	Err  error  // set for KindError
	Note string // optional detail, e.g. the exit code of a child process
}

func Vulnerable() Result    { return Result{Kind: KindVulnerable} }
func Negative() Result      { return Result{Kind: KindNegative} }
func NotVulnerable() Result { return Result{Kind: KindNotVulnerable} }
func Failed(err error) Result {
	return Result{Kind: KindError, Err: err}
}

// DomainError is an anticipated failure mode of the engine, as opposed to a crash.
type DomainError struct {
	Msg string
	Err error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a DomainError.
func NewDomainError(msg string, err error) *DomainError {
	return &DomainError{Msg: msg, Err: err}
}

// IsDomainError checks if the error is or wraps a DomainError
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return err != nil && errors.As(err, &domainErr)
}

// Engine is the scanning engine collaborator. A fresh Engine is created for every
// case, so implementations may keep per-run state freely.
type Engine interface {
	// Init replaces all engine configuration with opts. testMode is always true
	// when called by the live test runner.
	Init(opts options.Set, env Environment, testMode bool) error
	// Run performs the scan. Cancelling ctx must stop the run promptly.
	Run(ctx context.Context) Result
	// OutputFile returns the path of the result artifact of the current run.
	OutputFile() string
}

// Factory creates a new, unconfigured Engine.
type Factory func() Engine

// Environment holds the per-case filesystem layout the engine must write into.
type Environment struct {
	WorkDir string
}

// OutputDir returns the directory holding results for the given target.
func (e Environment) OutputDir(target string) string {
	return filepath.Join(e.WorkDir, target)
}

// DumpDir returns the result dump area for the given target.
func (e Environment) DumpDir(target string) string {
	return filepath.Join(e.WorkDir, target, "dump")
}

// FilesDir returns the downloaded files area for the given target.
func (e Environment) FilesDir(target string) string {
	return filepath.Join(e.WorkDir, target, "files")
}
