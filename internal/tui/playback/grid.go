package playback

import (
	"strings"

	"github.com/msto63/ct4pwd/foundation/vpl/evaluator"
)

// Point is a cursor position on the grid; Y grows downwards
type Point struct {
	X, Y int
}

// Positions returns the cursor before the first step and after every
// step. Actions keep the cursor in place.
func Positions(trace evaluator.Trace) []Point {
	points := make([]Point, 0, len(trace)+1)
	cur := Point{}
	points = append(points, cur)
	for _, step := range trace {
		if step.Kind == evaluator.StepMove {
			cur.X += step.Vector.DX
			cur.Y += step.Vector.DY
		}
		points = append(points, cur)
	}
	return points
}

// bounds returns the smallest rectangle holding all points
func bounds(points []Point) (lo, hi Point) {
	for i, p := range points {
		if i == 0 {
			lo, hi = p, p
			continue
		}
		if p.X < lo.X {
			lo.X = p.X
		}
		if p.Y < lo.Y {
			lo.Y = p.Y
		}
		if p.X > hi.X {
			hi.X = p.X
		}
		if p.Y > hi.Y {
			hi.Y = p.Y
		}
	}
	return lo, hi
}

// Grid renders the path up to step current (0 = start) as rows of
// unstyled cells
func Grid(points []Point, current int) [][]string {
	if len(points) == 0 {
		return nil
	}
	if current >= len(points) {
		current = len(points) - 1
	}
	lo, hi := bounds(points)

	rows := make([][]string, hi.Y-lo.Y+1)
	for y := range rows {
		rows[y] = make([]string, hi.X-lo.X+1)
		for x := range rows[y] {
			rows[y][x] = CellEmpty
		}
	}
	for i := 1; i <= current; i++ {
		p := points[i]
		rows[p.Y-lo.Y][p.X-lo.X] = CellVisited
	}
	start := points[0]
	rows[start.Y-lo.Y][start.X-lo.X] = CellStart
	cur := points[current]
	rows[cur.Y-lo.Y][cur.X-lo.X] = CellCursor
	return rows
}

// renderGrid styles the grid cells
func renderGrid(rows [][]string) string {
	var b strings.Builder
	for y, row := range rows {
		if y > 0 {
			b.WriteString("\n")
		}
		for x, cell := range row {
			if x > 0 {
				b.WriteString(" ")
			}
			switch cell {
			case CellCursor:
				b.WriteString(CursorStyle.Render(cell))
			case CellVisited, CellStart:
				b.WriteString(VisitedStyle.Render(cell))
			default:
				b.WriteString(EmptyCellStyle.Render(cell))
			}
		}
	}
	return b.String()
}
