// core/sequence/spgr_test.go
package sequence

import (
	"math"
	"math/cmplx"
	"testing"

	"epgsim-core/tissue"
)

var brain = tissue.Parameters{T1: 1.0, T2: 0.1}

func mustSPGR(t *testing.T, cfg SPGRConfig) *SPGR {
	t.Helper()
	s, err := NewSPGR(cfg)
	if err != nil {
		t.Fatalf("NewSPGR: %v", err)
	}
	return s
}

func TestSPGRNinetyDegreeEcho(t *testing.T) {
	seq := mustSPGR(t, SPGRConfig{
		RF: []complex128{90}, TR: 1.0, TE: 0, MaxOrder: 1,
	})
	out, err := Run(seq, brain)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := cmplx.Abs(out[0]); math.Abs(got-1) > 1e-12 {
		t.Errorf("|echo| = %g, want sin(90°) = 1", got)
	}
}

func TestZeroRFTrainYieldsNoSignal(t *testing.T) {
	const n = 8
	seq := mustSPGR(t, SPGRConfig{
		RF: make([]complex128, n), TR: 0.01, TE: 0.004, MaxOrder: 4,
	})
	out, err := Run(seq, brain)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != n {
		t.Fatalf("output length %d, want %d", len(out), n)
	}
	for r, v := range out {
		if v != 0 {
			t.Errorf("echo %d = %v, want 0", r, v)
		}
	}
}

func TestSPGRInversionRecoveryPrep(t *testing.T) {
	ti := 0.3
	seq := mustSPGR(t, SPGRConfig{
		RF: []complex128{90}, TR: 1.0, TE: 0, TI: ti, MaxOrder: 1,
	})
	out, err := Run(seq, brain)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Z after prep: -E1 + (1-E1) = 1 - 2·exp(-TI/T1); 90° tips it all.
	e1 := math.Exp(-ti / brain.T1)
	want := math.Abs(1 - 2*e1)
	if got := cmplx.Abs(out[0]); math.Abs(got-want) > 1e-12 {
		t.Errorf("|echo| = %g, want %g", got, want)
	}
	if re := real(out[0]); math.Abs(re) > 1e-12 {
		t.Errorf("echo real part = %g, want 0 for zero-phase RF", re)
	}
}

func TestSPGRSaturatesWithRepetition(t *testing.T) {
	seq := mustSPGR(t, SPGRConfig{
		RF: []complex128{30, 30, 30, 30, 30, 30}, TR: 0.01, TE: 0, MaxOrder: 1,
	})
	out, err := Run(seq, brain)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// With TR << T1 the longitudinal pool drains: echoes shrink.
	for r := 1; r < len(out); r++ {
		if cmplx.Abs(out[r]) >= cmplx.Abs(out[r-1]) {
			t.Fatalf("echo %d (%g) not below echo %d (%g)",
				r, cmplx.Abs(out[r]), r-1, cmplx.Abs(out[r-1]))
		}
	}
}

func TestNewSPGRValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  SPGRConfig
	}{
		{"empty RF", SPGRConfig{TR: 1, MaxOrder: 1}},
		{"zero TR", SPGRConfig{RF: []complex128{90}, MaxOrder: 1}},
		{"negative TE", SPGRConfig{RF: []complex128{90}, TR: 1, TE: -0.1, MaxOrder: 1}},
		{"TE past TR", SPGRConfig{RF: []complex128{90}, TR: 1, TE: 1.5, MaxOrder: 1}},
		{"no max order", SPGRConfig{RF: []complex128{90}, TR: 1}},
	}
	for _, c := range cases {
		if _, err := NewSPGR(c.cfg); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

// stubSeq violates the sample-count contract; Validate must catch it.
type stubSeq struct{ *SPGR }

func (s stubSeq) SampleCount() int { return s.SPGR.SampleCount() + 1 }

func TestValidateCatchesContractViolations(t *testing.T) {
	seq := mustSPGR(t, SPGRConfig{RF: []complex128{90}, TR: 1, MaxOrder: 1})
	if err := Validate(seq); err != nil {
		t.Fatalf("valid sequence rejected: %v", err)
	}
	if err := Validate(stubSeq{seq}); err == nil {
		t.Fatal("expected sample-count mismatch error")
	}
}
