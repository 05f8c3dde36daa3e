package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/livetest/types"
)

// decodeConsole turns raw captured bytes into assertion text. Invalid UTF-8 is
// replaced rather than rejected and terminal escape sequences are removed.
func decodeConsole(raw []byte) string {
	return stripansi.Strip(strings.ToValidUTF8(string(raw), "\uFFFD"))
}

// readArtifact reads the engine result artifact. A missing artifact reads as empty.
func readArtifact(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read result artifact: %w", err)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}

// evidence holds the two texts assertions are checked against.
type evidence struct {
	console  string
	artifact string
}

func (e evidence) text(src types.Source) string {
	if src == types.SourceConsole {
		return e.console
	}
	return e.artifact
}

// matchAssertions checks assertions in order and returns the first one that does
// not hold. A regex that fails to compile counts as not holding and its compile
// error is returned.
func matchAssertions(assertions []types.Assertion, ev evidence) (*types.Assertion, error) {
	for i := range assertions {
		a := assertions[i]
		text := ev.text(a.Source)
		if !a.IsRegex() {
			if !strings.Contains(text, a.Pattern) {
				return &a, nil
			}
			continue
		}
		re, err := regexp.Compile("(?s)" + a.Expr())
		if err != nil {
			return &a, fmt.Errorf("invalid assertion regex %q: %w", a.Expr(), err)
		}
		if !re.MatchString(text) {
			return &a, nil
		}
	}
	return nil, nil
}
