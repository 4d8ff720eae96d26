// internal/dispatcher/dispatcher.go
package dispatcher

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"epgsim-core/epg"
	"epgsim-core/sequence"
	"epgsim-core/tissue"
	"epgsim-core/trajectory"
)

// Mode selects how voxels are fanned out.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
	ModeChunked    Mode = "chunked"
)

// Config controls execution. All modes are structurally equivalent; they
// differ only in how voxel indices reach a lane.
type Config struct {
	Mode      Mode
	Threads   int // worker count for parallel/chunked (0 = all CPUs)
	ChunkSize int // voxels per block in chunked mode (0 = derive from Threads)

	// ArenaLanes > 0 backs every lane's state with a slice of one shared
	// preallocated arena instead of per-lane allocations, the way a GPU
	// block shares its static allocation region. Must cover every lane;
	// checked before any voxel executes.
	ArenaLanes int
}

func (c Config) lanes() int {
	switch c.Mode {
	case ModeSequential:
		return 1
	default:
		if c.Threads > 0 {
			return c.Threads
		}
		return runtime.GOMAXPROCS(0)
	}
}

func (c Config) validate() (int, error) {
	switch c.Mode {
	case ModeSequential, ModeParallel, ModeChunked:
	default:
		return 0, fmt.Errorf("dispatcher: unknown mode %q", c.Mode)
	}
	return c.lanes(), nil
}

// laneStates builds one private state per lane, either owned or viewed
// into a single shared arena. Arena exhaustion is a launch-configuration
// error, reported here before any voxel runs.
func laneStates(cfg Config, seq sequence.Sequence, lanes int) ([]*epg.State, error) {
	orders, partitions := seq.Shape()
	states := make([]*epg.State, lanes)
	if cfg.ArenaLanes > 0 {
		if cfg.ArenaLanes < lanes {
			return nil, fmt.Errorf("dispatcher: arena has %d lanes, launch needs %d",
				cfg.ArenaLanes, lanes)
		}
		stride := epg.Size(orders, partitions)
		arena := make([]complex128, cfg.ArenaLanes*stride)
		for w := range states {
			st, err := epg.ViewState(arena[w*stride:(w+1)*stride], orders, partitions)
			if err != nil {
				return nil, err
			}
			states[w] = st
		}
		return states, nil
	}
	for w := range states {
		st, err := epg.NewState(orders, partitions)
		if err != nil {
			return nil, err
		}
		states[w] = st
	}
	return states, nil
}

// chunks partitions [0, n) into contiguous [lo, hi) blocks.
func chunks(n, size int) [][2]int {
	if size < 1 {
		size = 1
	}
	var out [][2]int
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		out = append(out, [2]int{lo, hi})
	}
	return out
}

// runVoxels drives fn(lane, voxel) for every voxel index under the
// configured mode. fn must touch only lane-private and voxel-private data.
// Cancellation is honored between voxels; a started voxel always runs to
// completion.
func runVoxels(ctx context.Context, cfg Config, lanes, voxels int, fn func(lane, voxel int)) error {
	if cfg.Mode == ModeSequential {
		for v := 0; v < voxels; v++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(0, v)
		}
		return nil
	}

	size := 1
	if cfg.Mode == ModeChunked {
		size = cfg.ChunkSize
		if size < 1 {
			size = (voxels + lanes - 1) / lanes
		}
	}
	jobs := make(chan [2]int, lanes*2)

	var wg sync.WaitGroup
	wg.Add(lanes)
	for w := 0; w < lanes; w++ {
		go func(lane int) {
			defer wg.Done()
			for blk := range jobs {
				for v := blk[0]; v < blk[1]; v++ {
					if ctx.Err() != nil {
						return
					}
					fn(lane, v)
				}
			}
		}(w)
	}

feed:
	for _, blk := range chunks(voxels, size) {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- blk:
		}
	}
	close(jobs)
	wg.Wait()
	return ctx.Err()
}

// Magnetization simulates every voxel and returns its echo-time
// magnetization trajectory, one row per voxel. Rows never share storage: a
// numerically degenerate voxel poisons only its own row.
func Magnetization(ctx context.Context, cfg Config, seq sequence.Sequence, voxels []tissue.Parameters) ([][]complex128, error) {
	if err := sequence.Validate(seq); err != nil {
		return nil, err
	}
	lanes, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	states, err := laneStates(cfg, seq, lanes)
	if err != nil {
		return nil, err
	}

	out := make([][]complex128, len(voxels))
	for v := range out {
		out[v] = make([]complex128, seq.SampleCount())
	}
	err = runVoxels(ctx, cfg, lanes, len(voxels), func(lane, v int) {
		sequence.Simulate(seq, states[lane], out[v], voxels[v])
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Signal simulates every voxel, expands its echo trajectory across the
// k-space readouts, weights by each coil's sensitivity, and reduces the
// per-lane accumulation buffers into one signal per coil.
//
// coilSens[c][v] is coil c's complex sensitivity at voxel v; pass a single
// all-ones row for an unweighted sum. The reduction is an associative
// complex sum, performed in fixed lane order after all workers finish.
func Signal(ctx context.Context, cfg Config, seq sequence.Sequence, tr trajectory.Trajectory,
	voxels []tissue.Parameters, coilSens [][]complex128) ([][]complex128, error) {

	if err := sequence.Validate(seq); err != nil {
		return nil, err
	}
	if tr.Readouts() != seq.SampleCount() {
		return nil, fmt.Errorf("dispatcher: trajectory has %d readouts, sequence yields %d echoes",
			tr.Readouts(), seq.SampleCount())
	}
	if len(coilSens) == 0 {
		return nil, fmt.Errorf("dispatcher: no coils")
	}
	for c := range coilSens {
		if len(coilSens[c]) != len(voxels) {
			return nil, fmt.Errorf("dispatcher: coil %d has %d sensitivities for %d voxels",
				c, len(coilSens[c]), len(voxels))
		}
	}
	lanes, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	states, err := laneStates(cfg, seq, lanes)
	if err != nil {
		return nil, err
	}

	total := trajectory.TotalSamples(tr)
	offs := trajectory.ReadoutOffsets(tr)
	ncoils := len(coilSens)

	// Lane-private accumulation buffers; the only shared write is the
	// final reduction below.
	acc := make([][][]complex128, lanes)
	echoes := make([][]complex128, lanes)
	for w := 0; w < lanes; w++ {
		acc[w] = make([][]complex128, ncoils)
		for c := range acc[w] {
			acc[w][c] = make([]complex128, total)
		}
		echoes[w] = make([]complex128, seq.SampleCount())
	}

	err = runVoxels(ctx, cfg, lanes, len(voxels), func(lane, v int) {
		echo := echoes[lane]
		for i := range echo {
			echo[i] = 0
		}
		sequence.Simulate(seq, states[lane], echo, voxels[v])
		for c := 0; c < ncoils; c++ {
			w := coilSens[c][v]
			if w == 0 {
				continue
			}
			for r := 0; r < tr.Readouts(); r++ {
				dst := acc[lane][c][offs[r] : offs[r]+tr.SamplesPerReadout(r)]
				tr.Expand(dst, r, echo[r], voxels[v], w)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	signal := make([][]complex128, ncoils)
	for c := range signal {
		signal[c] = make([]complex128, total)
		for w := 0; w < lanes; w++ {
			for i, v := range acc[w][c] {
				signal[c][i] += v
			}
		}
	}
	return signal, nil
}
