// internal/output/result.go

// Package output renders simulation results as TSV or JSON. The internal
// shape of the core never leaks: writers consume the Result document only.
package output

// Result is the writable outcome of one simulation run.
type Result struct {
	RunID    string
	Sequence string
	Voxels   int
	Readouts int
	// PerReadout lists each readout's sample count, in readout order.
	PerReadout []int
	// Signal is the accumulated complex signal, one flat row per coil.
	Signal [][]complex128
}

// decompose maps a flat sample index to (readout, sample) by scanning
// PerReadout. Output-side twin of the trajectory helper; keeps this
// package free of core imports.
func (r *Result) decompose(t int) (readout, sample int) {
	for ro, n := range r.PerReadout {
		if t < n {
			return ro, t
		}
		t -= n
	}
	return -1, -1
}
