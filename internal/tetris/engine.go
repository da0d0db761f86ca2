package tetris

import (
	"errors"
	"fmt"
)

// Default board dimensions.
const (
	DefaultRows = 20
	DefaultCols = 10
)

// PointsPerLine is multiplied by the square of the lines cleared at once.
const PointsPerLine = 100

// Tetromino is a piece positioned by the column and row of its bounding box top-left.
type Tetromino struct {
	Col   int   `json:"col"`
	Row   int   `json:"row"`
	Shape Shape `json:"shape"`
	Color Color `json:"color"`
}

// Clone returns a copy that shares no memory with t.
func (t Tetromino) Clone() Tetromino {
	t.Shape = t.Shape.Clone()
	return t
}

// LockResult describes what happened when the active piece was locked.
type LockResult struct {
	Cells        int `json:"cells"`
	LinesCleared int `json:"lines_cleared"`
	Points       int `json:"points"`
}

// Stats holds running counters for a game.
type Stats struct {
	Score        int `json:"score"`
	LinesCleared int `json:"lines_cleared"`
	Locks        int `json:"locks"`
	Spawns       int `json:"spawns"`
}

// Engine owns the authoritative board state. It is not safe for concurrent use; the
// session drives it from a single tick goroutine.
type Engine struct {
	rows, cols int
	grid       [][]Color
	active     *Tetromino
	gameOver   bool
	stats      Stats
	lastLock   LockResult
}

// New creates an empty board with the given dimensions.
// Non-positive dimensions fall back to the defaults.
func New(rows, cols int) *Engine {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	e := &Engine{rows: rows, cols: cols}
	e.grid = emptyGrid(rows, cols)
	return e
}

// NewWithGrid creates an engine whose locked cells are a copy of grid.
// The grid must be rectangular and contain only palette colors.
func NewWithGrid(grid [][]Color) (*Engine, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, errors.New("grid must have at least one row and one column")
	}
	cols := len(grid[0])
	e := &Engine{rows: len(grid), cols: cols, grid: make([][]Color, len(grid))}
	for r, row := range grid {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", r, len(row), cols)
		}
		for c, v := range row {
			if !v.Valid() {
				return nil, fmt.Errorf("cell (%d,%d) holds invalid color %d", r, c, v)
			}
		}
		e.grid[r] = append([]Color(nil), row...)
	}
	return e, nil
}

func emptyGrid(rows, cols int) [][]Color {
	g := make([][]Color, rows)
	for i := range g {
		g[i] = make([]Color, cols)
	}
	return g
}

// Rows returns the board height.
func (e *Engine) Rows() int { return e.rows }

// Cols returns the board width.
func (e *Engine) Cols() int { return e.cols }

// Score returns the current score.
func (e *Engine) Score() int { return e.stats.Score }

// Stats returns the running counters.
func (e *Engine) Stats() Stats { return e.stats }

// GameOver reports whether a spawn collided. No mutator has an effect until Reset.
func (e *Engine) GameOver() bool { return e.gameOver }

// LastLock returns the result of the most recent lock.
func (e *Engine) LastLock() LockResult { return e.lastLock }

// Cell returns the color at (row, col), or Empty when out of range.
func (e *Engine) Cell(row, col int) Color {
	if row < 0 || row >= e.rows || col < 0 || col >= e.cols {
		return Empty
	}
	return e.grid[row][col]
}

// Active returns a copy of the active piece, or nil when none is falling.
func (e *Engine) Active() *Tetromino {
	if e.active == nil {
		return nil
	}
	t := e.active.Clone()
	return &t
}

// Reset clears the board, score and game-over flag.
func (e *Engine) Reset() {
	e.grid = emptyGrid(e.rows, e.cols)
	e.active = nil
	e.gameOver = false
	e.stats = Stats{}
	e.lastLock = LockResult{}
}

// Collides reports whether any occupied cell of t is outside the board or on a locked cell.
func (e *Engine) Collides(t Tetromino) bool {
	for i, row := range t.Shape {
		for j, filled := range row {
			if !filled {
				continue
			}
			r := t.Row + i
			c := t.Col + j
			if c < 0 || c >= e.cols || r < 0 || r >= e.rows {
				return true
			}
			if e.grid[r][c] != Empty {
				return true
			}
		}
	}
	return false
}

// Spawn places a new active piece horizontally centered at row 0. If that position
// already collides the game is over. Spawn is rejected while a piece is falling, after
// game over, or for an invalid shape or color.
func (e *Engine) Spawn(shape Shape, color Color) bool {
	if e.gameOver || e.active != nil || !shape.Valid() || color == Empty || !color.Valid() {
		return false
	}

	t := &Tetromino{
		Col:   e.cols/2 - shape.Width()/2,
		Row:   0,
		Shape: shape.Clone(),
		Color: color,
	}
	if e.Collides(*t) {
		e.gameOver = true
		return false
	}

	e.active = t
	e.stats.Spawns++
	return true
}

// Move translates the active piece. A colliding move is reverted and reported as a
// failure; a failed downward move locks the piece where it stands.
func (e *Engine) Move(dCol, dRow int) bool {
	if e.active == nil || e.gameOver {
		return false
	}

	next := *e.active
	next.Col += dCol
	next.Row += dRow
	if e.Collides(next) {
		if dRow > 0 {
			e.Lock()
		}
		return false
	}

	e.active.Col = next.Col
	e.active.Row = next.Row
	return true
}

// Rotate turns the active piece 90° clockwise. A rotation that collides is discarded.
func (e *Engine) Rotate() bool {
	if e.active == nil || e.gameOver {
		return false
	}

	next := *e.active
	next.Shape = e.active.Shape.Rotate()
	if e.Collides(next) {
		return false
	}

	e.active.Shape = next.Shape
	return true
}

// HardDrop moves the active piece down until it would collide and locks it there.
func (e *Engine) HardDrop() bool {
	if e.active == nil || e.gameOver {
		return false
	}

	next := *e.active
	for {
		next.Row++
		if e.Collides(next) {
			break
		}
		e.active.Row = next.Row
	}
	_, ok := e.Lock()
	return ok
}

// Lock writes the active piece into the grid with its color, releases it and clears
// completed rows.
func (e *Engine) Lock() (LockResult, bool) {
	if e.active == nil || e.gameOver {
		return LockResult{}, false
	}

	t := e.active
	cells := 0
	for i, row := range t.Shape {
		for j, filled := range row {
			if !filled {
				continue
			}
			r, c := t.Row+i, t.Col+j
			if r < 0 || r >= e.rows || c < 0 || c >= e.cols {
				continue
			}
			e.grid[r][c] = t.Color
			cells++
		}
	}
	e.active = nil
	e.stats.Locks++

	before := e.stats.Score
	cleared := e.ClearLines()

	e.lastLock = LockResult{
		Cells:        cells,
		LinesCleared: cleared,
		Points:       e.stats.Score - before,
	}
	return e.lastLock, true
}

// ClearLines removes every row without empty cells, shifts the remaining rows down and
// inserts the same number of empty rows at the top. It returns the number of rows removed
// and adds lines² × PointsPerLine to the score.
func (e *Engine) ClearLines() int {
	kept := make([][]Color, 0, e.rows)
	for _, row := range e.grid {
		if hasEmpty(row) {
			kept = append(kept, row)
		}
	}

	cleared := e.rows - len(kept)
	if cleared == 0 {
		return 0
	}

	e.grid = append(emptyGrid(cleared, e.cols), kept...)
	e.stats.Score += cleared * cleared * PointsPerLine
	e.stats.LinesCleared += cleared
	return cleared
}

func hasEmpty(row []Color) bool {
	for _, v := range row {
		if v == Empty {
			return true
		}
	}
	return false
}
