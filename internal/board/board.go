// Package board accumulates scalar training metrics into plottable
// series.
//
// The trainer draws (x, y) points under a label ("train_loss",
// "val_acc") as it steps; the board smooths them by averaging every N
// draws into one visible point, then renders the series as an ASCII
// chart or CSV. It is the textual stand-in for a live loss plot:
// cheap enough to run in any terminal, structured enough to feed a real
// plotting tool from the CSV.
//
// A Board is used from a single goroutine, matching the strictly
// sequential training loop.
package board

import "math"

// Point is one visible (x, y) sample of a series.
type Point struct {
	X float64
	Y float64
}

// Board collects labeled series of averaged points.
type Board struct {
	labels []string
	series map[string][]Point
	buffer map[string][]Point
}

// New creates an empty board.
func New() *Board {
	return &Board{
		series: make(map[string][]Point),
		buffer: make(map[string][]Point),
	}
}

// Draw adds a raw (x, y) sample to the label's buffer. Every everyN
// samples the buffer collapses into one visible point at the mean x and
// mean y, smoothing the displayed curve. everyN ≤ 1 makes every sample
// visible immediately.
//
// Labels keep the order of their first Draw call.
func (b *Board) Draw(x, y float64, label string, everyN int) {
	if _, seen := b.buffer[label]; !seen {
		if _, flushed := b.series[label]; !flushed {
			b.labels = append(b.labels, label)
		}
	}
	if everyN < 1 {
		everyN = 1
	}

	b.buffer[label] = append(b.buffer[label], Point{X: x, Y: y})
	buf := b.buffer[label]
	if len(buf) < everyN {
		return
	}

	var sx, sy float64
	for _, p := range buf {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(buf))
	b.series[label] = append(b.series[label], Point{X: sx / n, Y: sy / n})
	b.buffer[label] = buf[:0]
}

// Points returns a copy of the label's visible points. Buffered samples
// that have not reached their everyN quota are not included.
func (b *Board) Points(label string) []Point {
	pts := b.series[label]
	if pts == nil {
		return nil
	}
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}

// Labels returns the labels in first-draw order.
func (b *Board) Labels() []string {
	out := make([]string, len(b.labels))
	copy(out, b.labels)
	return out
}

// Len returns the total number of visible points across all series.
func (b *Board) Len() int {
	total := 0
	for _, pts := range b.series {
		total += len(pts)
	}
	return total
}

// bounds returns the visible data range, or ok=false when the board has
// no visible points yet.
func (b *Board) bounds() (xmin, xmax, ymin, ymax float64, ok bool) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, pts := range b.series {
		for _, p := range pts {
			xmin = math.Min(xmin, p.X)
			xmax = math.Max(xmax, p.X)
			ymin = math.Min(ymin, p.Y)
			ymax = math.Max(ymax, p.Y)
		}
	}
	return xmin, xmax, ymin, ymax, b.Len() > 0
}
