package identicon

import (
	"encoding/json"
	"strings"

	"github.com/etulastrada/ideconfy/pkg/errors"
)

// Pattern is a square boolean grid, symmetric under left-right mirroring.
// The zero value is an empty 0x0 grid.
type Pattern struct {
	size  int
	cells []bool // row-major
}

// Cell addresses one grid square.
type Cell struct {
	Row, Col int
}

// HalfWidth returns the number of columns decided from the digest: ceil(size/2).
func HalfWidth(size int) int {
	return (size + 1) / 2
}

// digitsRequired returns one more than the largest digest index read for size.
func digitsRequired(size int) int {
	return (size-1)*size + HalfWidth(size)
}

// MaxSize returns the largest grid size whose digit budget fits in a digest.
func MaxSize() int {
	size := 1
	for digitsRequired(size+1) <= DigestLength {
		size++
	}
	return size
}

// ValidateSize reports whether size can be generated from a SHA-256 digest.
func ValidateSize(size int) error {
	if size < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "grid size must be positive, got %d", size)
	}
	if need := digitsRequired(size); need > DigestLength {
		return errors.New(errors.ErrCodeInvalidConfig,
			"grid size %d needs %d digest digits, digest has %d (max size %d)",
			size, need, DigestLength, MaxSize())
	}
	return nil
}

// Bits returns the decided half of the grid as a row-major sequence of
// size*HalfWidth(size) bits. Bit (i, j) is on iff the digest digit at flat
// index i*size+j is even.
func Bits(d Digest, size int) ([]bool, error) {
	if err := ValidateSize(size); err != nil {
		return nil, err
	}
	half := HalfWidth(size)
	bits := make([]bool, 0, size*half)
	for i := 0; i < size; i++ {
		for j := 0; j < half; j++ {
			v, err := d.Nibble(i*size + j)
			if err != nil {
				return nil, err
			}
			bits = append(bits, v%2 == 0)
		}
	}
	return bits, nil
}

// Mirror expands the decided half produced by [Bits] into a full grid.
// Column j is copied to column size-1-j only when j < size/2, so the center
// column of an odd grid is written exactly once. Missing bits read as off.
func Mirror(bits []bool, size int) Pattern {
	if size < 1 {
		return Pattern{}
	}
	half := HalfWidth(size)
	p := Pattern{size: size, cells: make([]bool, size*size)}
	for i := 0; i < size; i++ {
		for j := 0; j < half; j++ {
			k := i*half + j
			if k >= len(bits) || !bits[k] {
				continue
			}
			p.cells[i*size+j] = true
			if j < size/2 {
				p.cells[i*size+size-1-j] = true
			}
		}
	}
	return p
}

// NewPattern builds a pattern from explicit rows. Rows must be square.
func NewPattern(rows [][]bool) (Pattern, error) {
	size := len(rows)
	p := Pattern{size: size, cells: make([]bool, size*size)}
	for i, row := range rows {
		if len(row) != size {
			return Pattern{}, errors.New(errors.ErrCodeInvalidInput, "row %d has %d cells, want %d", i, len(row), size)
		}
		copy(p.cells[i*size:], row)
	}
	return p, nil
}

// Size returns the grid side length.
func (p Pattern) Size() int { return p.size }

// At reports whether the cell at (row, col) is on. Out-of-range cells are off.
func (p Pattern) At(row, col int) bool {
	if row < 0 || col < 0 || row >= p.size || col >= p.size {
		return false
	}
	return p.cells[row*p.size+col]
}

// On lists the cells that are on in row-major order.
func (p Pattern) On() []Cell {
	var cells []Cell
	for i := 0; i < p.size; i++ {
		for j := 0; j < p.size; j++ {
			if p.cells[i*p.size+j] {
				cells = append(cells, Cell{Row: i, Col: j})
			}
		}
	}
	return cells
}

// Rows returns a copy of the grid as nested slices.
func (p Pattern) Rows() [][]bool {
	rows := make([][]bool, p.size)
	for i := range rows {
		rows[i] = append([]bool(nil), p.cells[i*p.size:(i+1)*p.size]...)
	}
	return rows
}

// Equal reports whether two patterns have the same size and cells.
func (p Pattern) Equal(o Pattern) bool {
	if p.size != o.size {
		return false
	}
	for i := range p.cells {
		if p.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// IsSymmetric reports whether every row reads the same mirrored.
func (p Pattern) IsSymmetric() bool {
	for i := 0; i < p.size; i++ {
		for j := 0; j < p.size/2; j++ {
			if p.At(i, j) != p.At(i, p.size-1-j) {
				return false
			}
		}
	}
	return true
}

// String draws the grid with '#' for on and '.' for off, one row per line.
func (p Pattern) String() string {
	var b strings.Builder
	for i := 0; i < p.size; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j := 0; j < p.size; j++ {
			if p.At(i, j) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
	}
	return b.String()
}

// MarshalJSON encodes the grid as an array of rows.
func (p Pattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Rows())
}

// UnmarshalJSON decodes an array of rows.
func (p *Pattern) UnmarshalJSON(data []byte) error {
	var rows [][]bool
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	parsed, err := NewPattern(rows)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
