// internal/dispatcher/dispatcher_test.go
package dispatcher

import (
	"context"
	"math"
	"math/cmplx"
	"testing"

	"epgsim-core/sequence"
	"epgsim-core/tissue"
	"epgsim-core/trajectory"
)

func testSequence(t *testing.T, reps int) sequence.Sequence {
	t.Helper()
	rf := make([]complex128, reps)
	for i := range rf {
		rf[i] = 35
	}
	seq, err := sequence.NewFISP(sequence.FISPConfig{
		RF: rf, TR: 0.01, TE: 0.004, MaxOrder: 8,
	})
	if err != nil {
		t.Fatalf("NewFISP: %v", err)
	}
	return seq
}

func testVoxels(n int) []tissue.Parameters {
	vox := make([]tissue.Parameters, n)
	for i := range vox {
		vox[i] = tissue.Parameters{
			T1:   0.5 + 0.1*float64(i%7),
			T2:   0.04 + 0.01*float64(i%5),
			B0:   10 * float64(i%3),
			X:    0.001 * float64(i),
			Caps: tissue.CapB0,
		}
	}
	return vox
}

func testTrajectory(t *testing.T, readouts int) trajectory.Trajectory {
	t.Helper()
	tr, err := trajectory.NewCartesian(trajectory.CartesianConfig{
		Readouts: readouts, Samples: 4, Dwell: 1e-5, Kx0: -50, DeltaKx: 25,
	})
	if err != nil {
		t.Fatalf("NewCartesian: %v", err)
	}
	return tr
}

func TestMagnetizationModesAgreeExactly(t *testing.T) {
	seq := testSequence(t, 10)
	vox := testVoxels(23)
	ctx := context.Background()

	ref, err := Magnetization(ctx, Config{Mode: ModeSequential}, seq, vox)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}

	for _, cfg := range []Config{
		{Mode: ModeParallel, Threads: 4},
		{Mode: ModeChunked, Threads: 3, ChunkSize: 5},
		{Mode: ModeParallel, Threads: 4, ArenaLanes: 4},
	} {
		got, err := Magnetization(ctx, cfg, seq, vox)
		if err != nil {
			t.Fatalf("%s: %v", cfg.Mode, err)
		}
		for v := range ref {
			for r := range ref[v] {
				if got[v][r] != ref[v][r] {
					t.Fatalf("%s (arena=%d): voxel %d echo %d differs: %v vs %v",
						cfg.Mode, cfg.ArenaLanes, v, r, got[v][r], ref[v][r])
				}
			}
		}
	}
}

func TestArenaExhaustionDetectedBeforeRun(t *testing.T) {
	seq := testSequence(t, 2)
	cfg := Config{Mode: ModeParallel, Threads: 4, ArenaLanes: 2}
	if _, err := Magnetization(context.Background(), cfg, seq, testVoxels(3)); err == nil {
		t.Fatal("expected arena-lanes error before launch")
	}
}

func TestUnknownModeRejected(t *testing.T) {
	seq := testSequence(t, 2)
	if _, err := Magnetization(context.Background(), Config{Mode: "gpu"}, seq, testVoxels(1)); err == nil {
		t.Fatal("expected unknown-mode error")
	}
}

func TestSignalMatchesManualExpansion(t *testing.T) {
	seq := testSequence(t, 6)
	tr := testTrajectory(t, 6)
	vox := testVoxels(1)
	sens := [][]complex128{{complex(0.8, -0.2)}}

	got, err := Signal(context.Background(), Config{Mode: ModeSequential}, seq, tr, vox, sens)
	if err != nil {
		t.Fatalf("Signal: %v", err)
	}

	echo, err := sequence.Run(seq, vox[0])
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := make([]complex128, trajectory.TotalSamples(tr))
	offs := trajectory.ReadoutOffsets(tr)
	for r := 0; r < tr.Readouts(); r++ {
		tr.Expand(want[offs[r]:offs[r]+tr.SamplesPerReadout(r)], r, echo[r], vox[0], sens[0][0])
	}
	for i := range want {
		if got[0][i] != want[i] {
			t.Fatalf("sample %d: %v vs manual %v", i, got[0][i], want[i])
		}
	}
}

func TestSignalMultiCoilWeighting(t *testing.T) {
	seq := testSequence(t, 3)
	tr := testTrajectory(t, 3)
	vox := testVoxels(2)
	sens := [][]complex128{
		{1, 1},
		{complex(0, 2), complex(0, 2)},
	}

	got, err := Signal(context.Background(), Config{Mode: ModeSequential}, seq, tr, vox, sens)
	if err != nil {
		t.Fatalf("Signal: %v", err)
	}
	// Coil 1 is coil 0 scaled by 2i everywhere.
	for i := range got[0] {
		if cmplx.Abs(got[1][i]-complex(0, 2)*got[0][i]) > 1e-12 {
			t.Fatalf("sample %d: coil1 %v, want 2i·coil0 %v", i, got[1][i], got[0][i])
		}
	}
}

func TestSignalReadoutCountMismatch(t *testing.T) {
	seq := testSequence(t, 4)
	tr := testTrajectory(t, 5)
	_, err := Signal(context.Background(), Config{Mode: ModeSequential}, seq, tr,
		testVoxels(1), [][]complex128{{1}})
	if err == nil {
		t.Fatal("expected readout/echo count mismatch error")
	}
}

func TestDegenerateVoxelPoisonsOnlyItself(t *testing.T) {
	seq := testSequence(t, 4)
	vox := testVoxels(3)
	vox[1].T1 = math.NaN()
	vox[1].T2 = math.NaN()

	out, err := Magnetization(context.Background(), Config{Mode: ModeParallel, Threads: 2}, seq, vox)
	if err != nil {
		t.Fatalf("Magnetization: %v", err)
	}
	for _, v := range out[1] {
		if !cmplx.IsNaN(v) {
			t.Fatalf("degenerate voxel produced finite echo %v", v)
		}
	}
	for _, row := range [][]complex128{out[0], out[2]} {
		for r, v := range row {
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				t.Fatalf("healthy voxel poisoned at echo %d: %v", r, v)
			}
		}
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	seq := testSequence(t, 2)
	if _, err := Magnetization(ctx, Config{Mode: ModeSequential}, seq, testVoxels(4)); err == nil {
		t.Fatal("expected context error")
	}
}
