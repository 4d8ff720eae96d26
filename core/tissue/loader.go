// core/tissue/loader.go
package tissue

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadTSV reads voxel records from a whitespace-separated file.
// Columns: T1 T2 x y z [B0 [B1]]. Blank lines and '#' comments are
// skipped. Trailing optional columns left out leave the matching
// capability unset.
func LoadTSV(path string) ([]Parameters, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()

	var list []Parameters
	sc := bufio.NewScanner(fh)
	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		f := strings.Fields(line)
		if len(f) < 5 || len(f) > 7 {
			return nil, fmt.Errorf("%s:%d bad field count (want 5-7, got %d)", path, ln, len(f))
		}
		vals := make([]float64, len(f))
		for i, s := range f {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d bad number %q: %v", path, ln, s, err)
			}
			vals[i] = v
		}
		p := Parameters{T1: vals[0], T2: vals[1], X: vals[2], Y: vals[3], Z: vals[4]}
		if len(f) >= 6 {
			p.B0 = vals[5]
			p.Caps |= CapB0
		}
		if len(f) == 7 {
			p.B1 = vals[6]
			p.Caps |= CapB1
		}
		list = append(list, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
