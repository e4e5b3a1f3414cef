package domain

import "strings"

const (
	SeatFree   = 0
	SeatBooked = 1
)

// SeatGrid is a vehicle's occupancy matrix, indexed [row][col]. Rows may have
// different lengths.
type SeatGrid [][]int

func (g SeatGrid) Rows() int {
	return len(g)
}

// Cols returns the width of row, or 0 for a row outside the grid.
func (g SeatGrid) Cols(row int) int {
	if row < 0 || row >= len(g) {
		return 0
	}
	return len(g[row])
}

func (g SeatGrid) InBounds(row, col int) bool {
	return row >= 0 && row < len(g) && col >= 0 && col < len(g[row])
}

func (g SeatGrid) IsBooked(row, col int) bool {
	return g.InBounds(row, col) && g[row][col] == SeatBooked
}

// BookedCount counts cells in the Booked state.
func (g SeatGrid) BookedCount() int {
	n := 0
	for _, row := range g {
		for _, cell := range row {
			if cell == SeatBooked {
				n++
			}
		}
	}
	return n
}

func (g SeatGrid) Clone() SeatGrid {
	if g == nil {
		return nil
	}
	out := make(SeatGrid, len(g))
	for i, row := range g {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// String renders one row per line, cells separated by spaces.
func (g SeatGrid) String() string {
	var b strings.Builder
	for i, row := range g {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteByte(' ')
			}
			if cell == SeatBooked {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
	}
	return b.String()
}
