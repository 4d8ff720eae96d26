// internal/output/text.go
package output

import (
	"fmt"
	"io"
)

// WriteTSV prints one line per (coil, sample): coil, readout, sample
// offset, real part, imaginary part.
func WriteTSV(w io.Writer, res *Result, header bool) error {
	if header {
		if _, err := fmt.Fprintln(w, "coil\treadout\tsample\treal\timag"); err != nil {
			return err
		}
	}
	for c, row := range res.Signal {
		for t, v := range row {
			ro, s := res.decompose(t)
			_, err := fmt.Fprintf(w, "%d\t%d\t%d\t%.9g\t%.9g\n",
				c, ro, s, real(v), imag(v))
			if err != nil {
				return err
			}
		}
	}
	return nil
}
