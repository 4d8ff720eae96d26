// core/epg/state.go
package epg

import "fmt"

// Row indices into Ω.
const (
	rowFPlus  = 0
	rowFMinus = 1
	rowZ      = 2
)

// State is the configuration state Ω for one voxel: 3 rows × orders
// dephasing orders × partitions flow compartments, stored flat as
// data[(row*orders+order)*partitions+partition].
//
// The backing slice is either owned (NewState) or a view into a caller
// arena (ViewState); the operators never care which.
type State struct {
	orders     int
	partitions int
	data       []complex128
}

// Size returns the number of complex elements a state of the given shape
// occupies. Useful for sizing arenas before launch.
func Size(orders, partitions int) int { return 3 * orders * partitions }

func checkShape(orders, partitions int) error {
	if orders < 1 {
		return fmt.Errorf("epg: orders must be >= 1, got %d", orders)
	}
	if partitions < 1 {
		return fmt.Errorf("epg: partitions must be >= 1, got %d", partitions)
	}
	return nil
}

// NewState allocates an owned Ω of the given shape, reset to equilibrium.
func NewState(orders, partitions int) (*State, error) {
	if err := checkShape(orders, partitions); err != nil {
		return nil, err
	}
	s := &State{
		orders:     orders,
		partitions: partitions,
		data:       make([]complex128, Size(orders, partitions)),
	}
	s.Reset()
	return s, nil
}

// ViewState wraps a caller-provided buffer (typically one lane's slice of a
// shared arena) as an Ω of the given shape and resets it. The buffer must
// hold at least Size(orders, partitions) elements; a short buffer is a
// launch-configuration error, reported here before any simulation runs.
func ViewState(buf []complex128, orders, partitions int) (*State, error) {
	if err := checkShape(orders, partitions); err != nil {
		return nil, err
	}
	need := Size(orders, partitions)
	if len(buf) < need {
		return nil, fmt.Errorf("epg: buffer holds %d elements, shape (3,%d,%d) needs %d",
			len(buf), orders, partitions, need)
	}
	s := &State{orders: orders, partitions: partitions, data: buf[:need]}
	s.Reset()
	return s, nil
}

// Orders returns the maximum number of dephasing orders represented.
func (s *State) Orders() int { return s.orders }

// Partitions returns the number of flow compartments.
func (s *State) Partitions() int { return s.partitions }

func (s *State) idx(row, order, partition int) int {
	return (row*s.orders+order)*s.partitions + partition
}

// FPlus returns F+ at (order, partition).
func (s *State) FPlus(order, partition int) complex128 {
	return s.data[s.idx(rowFPlus, order, partition)]
}

// FMinus returns F̄₋ at (order, partition). The physical F− state is its
// conjugate.
func (s *State) FMinus(order, partition int) complex128 {
	return s.data[s.idx(rowFMinus, order, partition)]
}

// Z returns the longitudinal component at (order, partition).
func (s *State) Z(order, partition int) complex128 {
	return s.data[s.idx(rowZ, order, partition)]
}

// SetFPlus sets F+ at (order, partition). Test hook; sequences go through
// the operators.
func (s *State) SetFPlus(order, partition int, v complex128) {
	s.data[s.idx(rowFPlus, order, partition)] = v
}

// SetFMinus sets F̄₋ at (order, partition).
func (s *State) SetFMinus(order, partition int, v complex128) {
	s.data[s.idx(rowFMinus, order, partition)] = v
}

// SetZ sets Z at (order, partition).
func (s *State) SetZ(order, partition int, v complex128) {
	s.data[s.idx(rowZ, order, partition)] = v
}

// Reset zeroes every entry and sets Z[order 0] = 1 in every partition:
// fully relaxed equilibrium, no transverse magnetization.
func (s *State) Reset() {
	for i := range s.data {
		s.data[i] = 0
	}
	base := s.idx(rowZ, 0, 0)
	for p := 0; p < s.partitions; p++ {
		s.data[base+p] = 1
	}
}
