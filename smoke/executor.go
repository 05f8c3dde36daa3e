package smoke

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

const DefaultGoBinary = "go"

// ExampleExecutor runs the named examples of a unit.
type ExampleExecutor interface {
	RunExamples(ctx context.Context, u Unit, names []string) ([]byte, error)
}

var _ ExampleExecutor = (*GoTestExecutor)(nil)

// GoTestExecutor runs examples with `go test` from the module root.
type GoTestExecutor struct {
	GoBinary   string
	Dir        string
	CmdBuilder func(ctx context.Context, name string, arg ...string) *exec.Cmd
}

// BuildArgs returns the go test arguments running exactly the given examples.
func BuildArgs(importPath string, names []string) []string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return []string{"test", "-count=1", "-run", "^(" + strings.Join(quoted, "|") + ")$", importPath}
}

// RunExamples implements ExampleExecutor. The combined output is returned in
// both the success and failure case.
func (e *GoTestExecutor) RunExamples(ctx context.Context, u Unit, names []string) ([]byte, error) {
	goBinary := e.GoBinary
	if goBinary == "" {
		goBinary = DefaultGoBinary
	}
	build := e.CmdBuilder
	if build == nil {
		build = exec.CommandContext
	}

	cmd := build(ctx, goBinary, BuildArgs(u.ImportPath, names)...)
	cmd.Dir = e.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.Bytes(), fmt.Errorf("examples of %s failed: %w", u.ImportPath, err)
	}
	return out.Bytes(), nil
}
