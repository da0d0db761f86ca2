package tetris

// Snapshot is a read-only copy of the board for renderers.
type Snapshot struct {
	Rows     int        `json:"rows"`
	Cols     int        `json:"cols"`
	Grid     [][]Color  `json:"grid"`
	Active   *Tetromino `json:"active,omitempty"`
	GameOver bool       `json:"game_over"`
	Stats    Stats      `json:"stats"`
}

// Snapshot copies the current board state.
func (e *Engine) Snapshot() Snapshot {
	grid := make([][]Color, e.rows)
	for i, row := range e.grid {
		grid[i] = append([]Color(nil), row...)
	}
	return Snapshot{
		Rows:     e.rows,
		Cols:     e.cols,
		Grid:     grid,
		Active:   e.Active(),
		GameOver: e.gameOver,
		Stats:    e.stats,
	}
}

// Composite returns the grid with the active piece painted in, the view a renderer
// draws each frame.
func (s Snapshot) Composite() [][]Color {
	out := make([][]Color, len(s.Grid))
	for i, row := range s.Grid {
		out[i] = append([]Color(nil), row...)
	}
	if s.Active == nil {
		return out
	}
	for i, row := range s.Active.Shape {
		for j, filled := range row {
			r, c := s.Active.Row+i, s.Active.Col+j
			if filled && r >= 0 && r < len(out) && c >= 0 && c < len(out[r]) {
				out[r][c] = s.Active.Color
			}
		}
	}
	return out
}
