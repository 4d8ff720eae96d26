// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"math/cmplx"

	"github.com/google/uuid"

	"epgsim-core/sequence"
	"epgsim-core/tissue"
	"epgsim-core/trajectory"
	"epgsim/internal/cli"
	"epgsim/internal/dispatcher"
	"epgsim/internal/output"
	"epgsim/internal/version"
	"epgsim/internal/writers"
)

// rfTrain builds a constant train: |rf| = flip degrees, angle(rf) = phase.
func rfTrain(reps int, flip, phaseDeg float64) []complex128 {
	rf := complex(flip, 0) * cmplx.Exp(complex(0, phaseDeg*math.Pi/180))
	train := make([]complex128, reps)
	for i := range train {
		train[i] = rf
	}
	return train
}

// sliceProfile returns n idealized RF scaling factors across the slice
// (half-sine shape). n = 0 means non-selective.
func sliceProfile(n int) []float64 {
	if n <= 0 {
		return nil
	}
	p := make([]float64, n)
	for i := range p {
		p[i] = math.Sin(math.Pi * (float64(i) + 0.5) / float64(n))
	}
	return p
}

func buildSequence(opt cli.Options) (sequence.Sequence, error) {
	train := rfTrain(opt.Reps, opt.Flip, opt.Phase)
	switch opt.Sequence {
	case cli.SeqSPGR:
		return sequence.NewSPGR(sequence.SPGRConfig{
			RF: train, TR: opt.TR, TE: opt.TE, TI: opt.TI,
			MaxOrder:             opt.MaxOrder,
			InversionB1Sensitive: opt.B1Inversion,
		})
	case cli.SeqFISP:
		return sequence.NewFISP(sequence.FISPConfig{
			RF: train, TR: opt.TR, TE: opt.TE, TI: opt.TI,
			MaxOrder:             opt.MaxOrder,
			SliceProfile:         sliceProfile(opt.Profile),
			InversionB1Sensitive: opt.B1Inversion,
		})
	case cli.SeqFlow:
		return sequence.NewFlowFISP(sequence.FlowFISPConfig{
			RF: train, TR: opt.TR, TE: opt.TE,
			MaxOrder:         opt.MaxOrder,
			SliceThickness:   opt.Thickness,
			Velocity:         opt.Velocity,
			InflowZ:          opt.InflowZ,
			FullCompensation: opt.FullCompensation,
		})
	}
	return nil, fmt.Errorf("unknown sequence %q", opt.Sequence)
}

func buildTrajectory(opt cli.Options) (trajectory.Trajectory, error) {
	return trajectory.NewCartesian(trajectory.CartesianConfig{
		Readouts: opt.Reps,
		Samples:  opt.Samples,
		Dwell:    opt.Dwell,
		Kx0:      opt.Kx0,
		DeltaKx:  opt.DeltaKx,
	})
}

// RunContext executes the simulator CLI. Exit codes: 0 ok, 2 usage error,
// 3 runtime/IO error.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet("epgsim")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		_, _ = cli.ParseArgs(fs, []string{"-h"}) // register flags for usage
		fs.SetOutput(outw)
		fs.Usage()
		if err := outw.Flush(); writers.IsBrokenPipe(err) {
			return 0
		} else if err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 3
		}
		return 0
	}

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(outw)
			fs.Usage()
			if e := outw.Flush(); writers.IsBrokenPipe(e) {
				return 0
			} else if e != nil {
				_, _ = fmt.Fprintln(stderr, e)
				return 3
			}
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "epgsim version %s\n", version.Version)
		return 0
	}

	voxels, err := tissue.LoadTSV(opts.TissueFile)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	if len(voxels) == 0 {
		_, _ = fmt.Fprintln(stderr, "no voxels in", opts.TissueFile)
		return 2
	}

	seq, err := buildSequence(opts)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	tr, err := buildTrajectory(opts)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	// Single uniform coil; sensitivity maps come in through the library
	// API, not the CLI.
	sens := make([]complex128, len(voxels))
	for i := range sens {
		sens[i] = 1
	}

	cfg := dispatcher.Config{
		Mode:       dispatcher.Mode(opts.Mode),
		Threads:    opts.Threads,
		ChunkSize:  opts.ChunkSize,
		ArenaLanes: opts.ArenaLanes,
	}
	signal, err := dispatcher.Signal(parent, cfg, seq, tr, voxels, [][]complex128{sens})
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}

	per := make([]int, tr.Readouts())
	for r := range per {
		per[r] = tr.SamplesPerReadout(r)
	}
	res := &output.Result{
		RunID:      uuid.NewString(),
		Sequence:   opts.Sequence,
		Voxels:     len(voxels),
		Readouts:   tr.Readouts(),
		PerReadout: per,
		Signal:     signal,
	}

	switch opts.Output {
	case "json":
		err = output.WriteJSON(outw, res)
	default:
		err = output.WriteTSV(outw, res, opts.Header)
	}
	if writers.IsBrokenPipe(err) {
		return 0
	}
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	if e := outw.Flush(); writers.IsBrokenPipe(e) {
		return 0
	} else if e != nil {
		_, _ = fmt.Fprintln(stderr, e)
		return 3
	}
	return 0
}

// Run is RunContext with a background context.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
