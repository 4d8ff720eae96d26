// internal/writers/brokenpipe.go
package writers

import (
	"errors"
	"io"
	"io/fs"
	"syscall"
)

// IsBrokenPipe reports whether err means the reading end went away: a
// downstream consumer (like `head`) closed early, or the output file was
// closed under a buffered flush. Treated as a clean exit, not a failure.
func IsBrokenPipe(err error) bool {
	return err != nil &&
		(errors.Is(err, syscall.EPIPE) ||
			errors.Is(err, io.ErrClosedPipe) ||
			errors.Is(err, fs.ErrClosed))
}
