// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"

	"epgsim/internal/version"
)

// Sequence families selectable on the command line.
const (
	SeqSPGR = "spgr"
	SeqFISP = "fisp"
	SeqFlow = "flow"
)

// Options holds all CLI flags and arguments.
type Options struct {
	// Input
	TissueFile string

	// Sequence
	Sequence    string
	Flip        float64 // degrees
	Phase       float64 // RF phase (degrees)
	Reps        int
	TR          float64 // seconds
	TE          float64 // seconds
	TI          float64 // seconds; 0 disables the inversion prepulse
	B1Inversion bool    // use the B1-sensitive inversion prepulse
	MaxOrder    int
	Profile     int // slice-profile positions (0 = non-selective)

	// Flow (sequence=flow)
	Thickness        float64 // m
	Velocity         float64 // m/s
	InflowZ          float64
	FullCompensation bool

	// Readout expansion
	Samples int     // samples per readout (1 = echo only)
	Dwell   float64 // inter-sample spacing (s)
	Kx0     float64 // kx of the first sample (1/m)
	DeltaKx float64 // kx step per sample (1/m)

	// Performance
	Mode       string
	Threads    int
	ChunkSize  int
	ArenaLanes int

	// Output
	Output string
	Header bool // true unless --no-header

	Version bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: extended phase graph MR signal simulator

Version: %s

Usage of %s:
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// Parse is the top-level call for CLI parsing.
func Parse() (Options, error) { return ParseArgs(flag.CommandLine, nil) }

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	// Input
	fs.StringVar(&opt.TissueFile, "tissue", "", "voxel TSV file: T1 T2 x y z [B0 [B1]] [*]")

	// Sequence
	fs.StringVar(&opt.Sequence, "sequence", SeqSPGR, "sequence family: spgr | fisp | flow ["+SeqSPGR+"]")
	fs.Float64Var(&opt.Flip, "flip", 30, "flip angle in degrees [30]")
	fs.Float64Var(&opt.Phase, "phase", 0, "RF phase in degrees [0]")
	fs.IntVar(&opt.Reps, "reps", 100, "RF train length [100]")
	fs.Float64Var(&opt.TR, "tr", 0.01, "repetition time in seconds [0.01]")
	fs.Float64Var(&opt.TE, "te", 0.005, "echo time in seconds [0.005]")
	fs.Float64Var(&opt.TI, "ti", 0, "inversion delay in seconds (0 = no prepulse) [0]")
	fs.BoolVar(&opt.B1Inversion, "b1-inversion", false, "B1-sensitive inversion prepulse [false]")
	fs.IntVar(&opt.MaxOrder, "max-order", 25, "configuration orders carried per voxel [25]")
	fs.IntVar(&opt.Profile, "profile", 0, "slice-profile positions for 2D integration (0 = non-selective) [0]")

	// Flow
	fs.Float64Var(&opt.Thickness, "thickness", 0, "slice thickness in m (flow) [0]")
	fs.Float64Var(&opt.Velocity, "velocity", 0, "through-slice blood velocity in m/s (flow) [0]")
	fs.Float64Var(&opt.InflowZ, "inflow-z", 1, "longitudinal level of inflowing blood [1]")
	fs.BoolVar(&opt.FullCompensation, "full-compensation", false, "full blood compensation instead of transport (flow) [false]")

	// Readout
	fs.IntVar(&opt.Samples, "samples", 1, "samples per readout (1 = echo only) [1]")
	fs.Float64Var(&opt.Dwell, "dwell", 4e-6, "inter-sample spacing in seconds [4e-6]")
	fs.Float64Var(&opt.Kx0, "k0", 0, "kx of the first readout sample (1/m) [0]")
	fs.Float64Var(&opt.DeltaKx, "delta-k", 0, "kx step per sample (1/m) [0]")

	// Performance
	fs.StringVar(&opt.Mode, "mode", "parallel", "execution mode: sequential | parallel | chunked [parallel]")
	fs.IntVar(&opt.Threads, "threads", 0, "number of worker threads (0 = all CPUs) [0]")
	fs.IntVar(&opt.ChunkSize, "chunk-size", 0, "voxels per block in chunked mode (0 = auto) [0]")
	fs.IntVar(&opt.ArenaLanes, "arena-lanes", 0, "back states with a shared arena of N lanes (0 = per-lane allocation) [0]")

	// Output
	fs.StringVar(&opt.Output, "output", "tsv", "output format: tsv | json [tsv]")
	noHeader := false
	fs.BoolVar(&noHeader, "no-header", false, "suppress header line in TSV [false]")

	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	opt.Header = !noHeader

	if opt.Version {
		return opt, nil
	}

	// Validation
	if opt.TissueFile == "" {
		return opt, errors.New("--tissue is required")
	}
	switch opt.Sequence {
	case SeqSPGR, SeqFISP, SeqFlow:
	default:
		return opt, fmt.Errorf("invalid --sequence %q", opt.Sequence)
	}
	if opt.Reps < 1 {
		return opt, errors.New("--reps must be >= 1")
	}
	if opt.TR <= 0 {
		return opt, errors.New("--tr must be > 0")
	}
	if opt.TE < 0 || opt.TE > opt.TR {
		return opt, errors.New("--te must be within [0, --tr]")
	}
	if opt.MaxOrder < 1 {
		return opt, errors.New("--max-order must be >= 1")
	}
	if opt.Profile < 0 {
		return opt, errors.New("--profile must be >= 0")
	}
	if opt.Sequence == SeqFlow && (opt.Thickness <= 0 || opt.Velocity <= 0) {
		return opt, errors.New("flow sequence needs --thickness and --velocity > 0")
	}
	if opt.Samples < 1 {
		return opt, errors.New("--samples must be >= 1")
	}
	if opt.Dwell <= 0 {
		return opt, errors.New("--dwell must be > 0")
	}
	if opt.Threads < 0 {
		return opt, errors.New("--threads must be >= 0")
	}
	if opt.ChunkSize < 0 {
		return opt, errors.New("--chunk-size must be >= 0")
	}
	if opt.ArenaLanes < 0 {
		return opt, errors.New("--arena-lanes must be >= 0")
	}
	switch opt.Mode {
	case "sequential", "parallel", "chunked":
	default:
		return opt, fmt.Errorf("invalid --mode %q", opt.Mode)
	}
	if opt.Output != "tsv" && opt.Output != "json" {
		return opt, fmt.Errorf("invalid --output %q", opt.Output)
	}
	return opt, nil
}
