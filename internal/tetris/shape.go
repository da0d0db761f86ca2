// Package tetris implements the play-field: shapes, the active tetromino, collision,
// locking, line clearing and scoring.
package tetris

import "strings"

// Shape is a rectangular, row-major occupancy matrix. A true cell is occupied.
// Shapes are treated as immutable values: operations return new shapes.
type Shape [][]bool

// ParseShape builds a shape from rows of 0/1 integers, the layout used by catalog files.
func ParseShape(rows [][]int) Shape {
	s := make(Shape, len(rows))
	for i, row := range rows {
		s[i] = make([]bool, len(row))
		for j, v := range row {
			s[i][j] = v != 0
		}
	}
	return s
}

// Ints returns the shape as rows of 0/1 integers.
func (s Shape) Ints() [][]int {
	out := make([][]int, len(s))
	for i, row := range s {
		out[i] = make([]int, len(row))
		for j, v := range row {
			if v {
				out[i][j] = 1
			}
		}
	}
	return out
}

// Height returns the number of rows.
func (s Shape) Height() int {
	return len(s)
}

// Width returns the number of columns of the first row.
func (s Shape) Width() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// Valid reports whether the shape is non-empty, rectangular and has at least one occupied cell.
func (s Shape) Valid() bool {
	if len(s) == 0 || len(s[0]) == 0 {
		return false
	}
	occupied := false
	for _, row := range s {
		if len(row) != len(s[0]) {
			return false
		}
		for _, v := range row {
			occupied = occupied || v
		}
	}
	return occupied
}

// Cells returns the number of occupied cells.
func (s Shape) Cells() int {
	n := 0
	for _, row := range s {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	c := make(Shape, len(s))
	for i, row := range s {
		c[i] = append([]bool(nil), row...)
	}
	return c
}

// Rotate returns the shape turned 90° clockwise: M'[i][j] = M[n-1-j][i],
// where n is the number of rows of M. The receiver is left untouched.
func (s Shape) Rotate() Shape {
	n := s.Height()
	w := s.Width()
	rotated := make(Shape, w)
	for i := 0; i < w; i++ {
		rotated[i] = make([]bool, n)
		for j := 0; j < n; j++ {
			rotated[i][j] = s[n-1-j][i]
		}
	}
	return rotated
}

// Equal reports whether two shapes have identical dimensions and cells.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if len(s[i]) != len(o[i]) {
			return false
		}
		for j := range s[i] {
			if s[i][j] != o[i][j] {
				return false
			}
		}
	}
	return true
}

// String renders the shape with '#' for occupied and '.' for empty cells.
func (s Shape) String() string {
	var b strings.Builder
	for i, row := range s {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, v := range row {
			if v {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
	}
	return b.String()
}
