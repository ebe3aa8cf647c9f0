package board

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Chart dimensions in character cells, excluding margins.
const (
	chartWidth  = 60
	chartHeight = 15
)

// Series glyphs, assigned in label order and recycled past the end.
var glyphs = []byte{'*', 'o', 'x', '+', '#', '@'}

// Render writes a fixed-size ASCII chart of all visible series: scaled
// axes, one glyph per series, and a legend. A board with no visible
// points renders a single placeholder line.
func (b *Board) Render(w io.Writer) error {
	xmin, xmax, ymin, ymax, ok := b.bounds()
	if !ok {
		_, err := fmt.Fprintln(w, "(no data)")
		return err
	}
	// Degenerate ranges still need a nonzero span to scale against.
	if xmax == xmin {
		xmax = xmin + 1
	}
	if ymax == ymin {
		ymax = ymin + 1
	}

	grid := make([][]byte, chartHeight)
	for i := range grid {
		grid[i] = []byte(strings.Repeat(" ", chartWidth))
	}
	for li, label := range b.labels {
		glyph := glyphs[li%len(glyphs)]
		for _, p := range b.series[label] {
			col := int((p.X - xmin) / (xmax - xmin) * float64(chartWidth-1))
			row := int((p.Y - ymin) / (ymax - ymin) * float64(chartHeight-1))
			// Row 0 is the top of the chart.
			grid[chartHeight-1-row][col] = glyph
		}
	}

	yTop := fmt.Sprintf("%10.4g", ymax)
	yBot := fmt.Sprintf("%10.4g", ymin)
	margin := strings.Repeat(" ", 10)

	for i, row := range grid {
		label := margin
		switch i {
		case 0:
			label = yTop
		case chartHeight - 1:
			label = yBot
		}
		if _, err := fmt.Fprintf(w, "%s |%s\n", label, row); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%s +%s\n", margin, strings.Repeat("-", chartWidth)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s  %-*.4g%*.4g\n", margin, chartWidth/2, xmin, chartWidth/2, xmax); err != nil {
		return err
	}

	legend := make([]string, 0, len(b.labels))
	for li, label := range b.labels {
		legend = append(legend, fmt.Sprintf("%c %s", glyphs[li%len(glyphs)], label))
	}
	_, err := fmt.Fprintf(w, "%s  %s\n", margin, strings.Join(legend, "   "))
	return err
}

// WriteCSV writes every visible point in long form with a label,x,y
// header, series in label order, points in draw order.
func (b *Board) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"label", "x", "y"}); err != nil {
		return err
	}
	for _, label := range b.labels {
		for _, p := range b.series[label] {
			record := []string{
				label,
				strconv.FormatFloat(p.X, 'g', -1, 64),
				strconv.FormatFloat(p.Y, 'g', -1, 64),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
