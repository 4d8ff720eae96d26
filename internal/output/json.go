// internal/output/json.go
package output

import (
	"io"

	"epgsim/internal/jsonutil"
)

// signalV1 is the stable wire schema for one run. Complex samples are
// [re, im] pairs.
type signalV1 struct {
	RunID      string         `json:"run_id"`
	Sequence   string         `json:"sequence"`
	Voxels     int            `json:"voxels"`
	Readouts   int            `json:"readouts"`
	PerReadout []int          `json:"samples_per_readout"`
	Coils      [][][2]float64 `json:"coils"`
}

func toV1(res *Result) signalV1 {
	v := signalV1{
		RunID:      res.RunID,
		Sequence:   res.Sequence,
		Voxels:     res.Voxels,
		Readouts:   res.Readouts,
		PerReadout: append([]int(nil), res.PerReadout...),
		Coils:      make([][][2]float64, len(res.Signal)),
	}
	for c, row := range res.Signal {
		samples := make([][2]float64, len(row))
		for i, s := range row {
			samples[i] = [2]float64{real(s), imag(s)}
		}
		v.Coils[c] = samples
	}
	return v
}

// WriteJSON writes the run as a single indented JSON document.
func WriteJSON(w io.Writer, res *Result) error {
	return jsonutil.EncodePretty(w, toV1(res))
}
