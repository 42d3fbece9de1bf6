package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Adithya-Monish-Kumar-K/docalign/pkg/errors"
)

// Command runs an external process once per call, writing the text to its
// stdin and returning its stdout. Anything written to stderr is reported as
// ErrDiagnostics alongside the output; a non-zero exit is ErrTransformFailed.
//
// There is no deadline unless Timeout is positive, so a helper that never
// exits stalls the caller. When the deadline fires the helper's whole
// process group is killed, and output pipes still held open by orphaned
// descendants are closed after killGrace.
type Command struct {
	Args    []string
	Timeout time.Duration
}

// killGrace bounds how long Wait keeps copying output after the helper
// was killed.
const killGrace = 500 * time.Millisecond

func NewCommand(args []string, timeout time.Duration) *Command {
	return &Command{Args: args, Timeout: timeout}
}

func (c *Command) Apply(ctx context.Context, text string) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	var out, diag bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Stdout = &out
	cmd.Stderr = &diag
	cmd.WaitDelay = killGrace
	killProcessGroup(cmd)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("stdin pipe for %s: %w", describe(c.Args), err)
	}
	if err := cmd.Start(); err != nil {
		return "", apperrors.Newf(apperrors.ErrTransformFailed, "starting %s: %v", describe(c.Args), err)
	}

	// stdin is fed while the process runs; Wait closes it once the
	// process exits, which unblocks a helper that stopped reading.
	var g errgroup.Group
	g.Go(func() error {
		defer stdin.Close()
		_, err := io.WriteString(stdin, text)
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
			return nil
		}
		return err
	})
	waitErr := cmd.Wait()
	ioErr := g.Wait()

	switch {
	case waitErr != nil:
		return "", apperrors.Newf(apperrors.ErrTransformFailed, "%s: %v: %s",
			describe(c.Args), waitErr, strings.TrimSpace(diag.String()))
	case ioErr != nil:
		return "", apperrors.Newf(apperrors.ErrTransformFailed, "%s: %v", describe(c.Args), ioErr)
	}
	if msg := strings.TrimSpace(diag.String()); msg != "" {
		return out.String(), apperrors.Newf(apperrors.ErrDiagnostics, "%s: %s", describe(c.Args), msg)
	}
	return out.String(), nil
}
