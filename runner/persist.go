package runner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum-optimism/infra/livetest/types"
)

// persistFailure writes the diagnostic files of a failing case into its working
// directory: test_case always, console_output when console evidence was retained,
// traceback when a diagnostic exists.
func persistFailure(c types.ResolvedCase, o *types.Outcome) error {
	if o.WorkDir == "" {
		return fmt.Errorf("case %s has no working directory", c.DisplayName())
	}
	files := map[string]string{
		TestCaseFile: fmt.Sprintf("%s\n%s\n", c.DisplayName(), o.Summary()),
	}
	if o.Console != "" {
		files[ConsoleOutputFile] = o.Console
	}
	if o.HasTrace() {
		files[TracebackFile] = o.Diagnostic
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(o.WorkDir, name), []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
