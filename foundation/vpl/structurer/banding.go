// File: banding.go
// Title: Indentation Banding
// Description: Maps horizontal pixel offsets to scope depths using fixed
//              width bands, and estimates a band width from marker pitch.
// Author: msto63
// Version: v0.1.1
// Created: 2026-09-16
// Modified: 2026-10-19
//
// Change History:
// - 2026-09-16 v0.1.0: Initial implementation
// - 2026-10-19 v0.1.1: Estimate from clustered leading columns only

package structurer

import (
	"math"
	"sort"

	"github.com/msto63/ct4pwd/foundation/vpl/token"
)

// DefaultBandWidth is used when no width is configured and none can be
// estimated from the image
const DefaultBandWidth = 40.0

// Banding buckets an x offset into an indentation depth. Band n covers
// offsets in [(n-0.5)*Width, (n+0.5)*Width).
type Banding struct {
	Width float64
}

// Depth returns the depth for an offset from the anchor column.
// Non-positive offsets and a non-positive width map to depth 0.
func (b Banding) Depth(offset float64) int {
	if offset <= 0 || b.Width <= 0 {
		return 0
	}
	return int(math.Floor(offset/b.Width + 0.5))
}

// Offset returns the ideal offset of a depth, the centre of its band
func (b Banding) Offset(depth int) float64 {
	return float64(depth) * b.Width
}

// EstimateBandWidth derives a band width from the leading columns of the
// rows. Markers that share a row say nothing about indentation and are
// ignored.
//
// Leading columns closer than half the vertical row pitch (and never closer
// than noiseFloor) are one column with x jitter. The width is the smallest
// step between the centres of the remaining columns. Without indentation
// the row pitch stands in for the marker size; a single row falls back to
// DefaultBandWidth.
func EstimateBandWidth(tokens []token.Token, rowTolerance, noiseFloor float64) float64 {
	rows := groupRows(tokens, rowTolerance)
	if len(rows) < 2 {
		return DefaultBandWidth
	}

	steps := make([]float64, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		steps = append(steps, rows[i].meanY-rows[i-1].meanY)
	}
	pitch := median(steps)

	leads := make([]float64, 0, len(rows))
	for _, r := range rows {
		leads = append(leads, r.tokens[0].Position.X)
	}
	centres := clusterColumns(leads, math.Max(noiseFloor, pitch/2))

	best := 0.0
	for i := 1; i < len(centres); i++ {
		if g := centres[i] - centres[i-1]; best == 0 || g < best {
			best = g
		}
	}
	switch {
	case best > 0:
		return best
	case pitch > 0:
		return pitch
	}
	return DefaultBandWidth
}

// clusterColumns sorts xs and merges neighbours closer than gap, returning
// the mean of every cluster in ascending order
func clusterColumns(xs []float64, gap float64) []float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	var centres []float64
	sum, n := 0.0, 0
	for i, x := range sorted {
		if i > 0 && x-sorted[i-1] >= gap {
			centres = append(centres, sum/float64(n))
			sum, n = 0, 0
		}
		sum += x
		n++
	}
	if n > 0 {
		centres = append(centres, sum/float64(n))
	}
	return centres
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
