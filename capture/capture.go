// Package capture redirects the process stdout and the root logger into a spooled
// file for the duration of one engine invocation.
package capture

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

const spoolPattern = "livetest-stdout-*.log"

// mu serialises captures: stdout and the root logger are process-wide resources.
var mu sync.Mutex

// Handle is an active capture. Release must be called exactly once, normally
// deferred right after Acquire succeeds; extra calls are no-ops.
type Handle struct {
	spool      *os.File
	origStdout *os.File
	origRoot   log.Logger

	once    sync.Once
	content []byte
	err     error
}

// Acquire takes exclusive ownership of stdout and the root logger and points both
// at a new spool file created in dir. It blocks while another capture is active.
func Acquire(dir string) (*Handle, error) {
	mu.Lock()

	spool, err := os.CreateTemp(dir, spoolPattern)
	if err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("failed to create capture spool: %w", err)
	}

	h := &Handle{
		spool:      spool,
		origStdout: os.Stdout,
		origRoot:   log.Root(),
	}
	os.Stdout = spool
	log.SetDefault(log.NewLogger(log.NewTerminalHandler(spool, false)))
	return h, nil
}

// Release restores the original stdout and root logger, then returns everything
// written while the capture was active. The spool file is removed.
func (h *Handle) Release() ([]byte, error) {
	h.once.Do(func() {
		os.Stdout = h.origStdout
		log.SetDefault(h.origRoot)
		mu.Unlock()

		h.content, h.err = h.drain()
	})
	return h.content, h.err
}

func (h *Handle) drain() ([]byte, error) {
	path := h.spool.Name()
	defer func() {
		_ = h.spool.Close()
		_ = os.Remove(path)
	}()

	if err := h.spool.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync capture spool: %w", err)
	}
	if _, err := h.spool.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind capture spool: %w", err)
	}
	content, err := io.ReadAll(h.spool)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture spool: %w", err)
	}
	return content, nil
}
