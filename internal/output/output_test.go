// internal/output/output_test.go
package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func sampleResult() *Result {
	return &Result{
		RunID:      "run-1",
		Sequence:   "fisp",
		Voxels:     2,
		Readouts:   2,
		PerReadout: []int{2, 1},
		Signal: [][]complex128{
			{complex(1, -1), complex(0.5, 0), complex(0, 2)},
		},
	}
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTSV(&buf, sampleResult(), true); err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 samples:\n%s", len(lines), buf.String())
	}
	if lines[0] != "coil\treadout\tsample\treal\timag" {
		t.Errorf("bad header: %q", lines[0])
	}
	// Third sample lives in readout 1, offset 0.
	if !strings.HasPrefix(lines[3], "0\t1\t0\t") {
		t.Errorf("bad decomposition on last line: %q", lines[3])
	}
}

func TestWriteTSVNoHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTSV(&buf, sampleResult(), false); err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}
	if strings.Contains(buf.String(), "coil\t") {
		t.Error("header written despite header=false")
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var doc struct {
		RunID      string         `json:"run_id"`
		Sequence   string         `json:"sequence"`
		PerReadout []int          `json:"samples_per_readout"`
		Coils      [][][2]float64 `json:"coils"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.RunID != "run-1" || doc.Sequence != "fisp" {
		t.Errorf("metadata lost: %+v", doc)
	}
	if len(doc.Coils) != 1 || len(doc.Coils[0]) != 3 {
		t.Fatalf("signal shape lost: %+v", doc.Coils)
	}
	if doc.Coils[0][0] != [2]float64{1, -1} {
		t.Errorf("first sample = %v, want [1 -1]", doc.Coils[0][0])
	}
}
