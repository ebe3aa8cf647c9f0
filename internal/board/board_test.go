package board

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraw_ImmediateFlush(t *testing.T) {
	b := New()
	b.Draw(0.0, 1.0, "train_loss", 1)

	pts := b.Points("train_loss")
	require.Len(t, pts, 1)
	assert.Equal(t, Point{X: 0.0, Y: 1.0}, pts[0])
}

func TestDraw_AveragesEveryN(t *testing.T) {
	b := New()
	b.Draw(1, 10, "loss", 3)
	b.Draw(2, 20, "loss", 3)
	assert.Empty(t, b.Points("loss"), "buffered draws must not be visible")

	b.Draw(3, 30, "loss", 3)
	pts := b.Points("loss")
	require.Len(t, pts, 1)
	assert.Equal(t, Point{X: 2, Y: 20}, pts[0], "flush averages the buffered samples")

	// Buffer restarts after a flush.
	b.Draw(4, 40, "loss", 3)
	assert.Len(t, b.Points("loss"), 1)
}

func TestDraw_EveryNBelowOne(t *testing.T) {
	b := New()
	b.Draw(1, 2, "loss", 0)
	b.Draw(3, 4, "loss", -5)
	assert.Len(t, b.Points("loss"), 2)
}

func TestLabels_FirstDrawOrder(t *testing.T) {
	b := New()
	b.Draw(0, 1, "train_loss", 2)
	b.Draw(0, 2, "val_loss", 1)
	b.Draw(1, 3, "train_loss", 2)
	b.Draw(0, 4, "val_acc", 1)

	assert.Equal(t, []string{"train_loss", "val_loss", "val_acc"}, b.Labels())
}

func TestPoints_ReturnsCopy(t *testing.T) {
	b := New()
	b.Draw(1, 2, "loss", 1)

	pts := b.Points("loss")
	pts[0] = Point{X: 99, Y: 99}
	assert.Equal(t, Point{X: 1, Y: 2}, b.Points("loss")[0])
}

func TestPoints_UnknownLabel(t *testing.T) {
	assert.Nil(t, New().Points("missing"))
}

func TestLen(t *testing.T) {
	b := New()
	assert.Equal(t, 0, b.Len())
	b.Draw(0, 1, "a", 1)
	b.Draw(0, 2, "b", 1)
	b.Draw(1, 3, "a", 1)
	b.Draw(0, 0, "c", 5) // buffered, not visible
	assert.Equal(t, 3, b.Len())
}

func TestRender_NoData(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, New().Render(&sb))
	assert.Equal(t, "(no data)\n", sb.String())
}

func TestRender_Chart(t *testing.T) {
	b := New()
	for i := 0; i < 10; i++ {
		b.Draw(float64(i), float64(10-i), "train_loss", 1)
		b.Draw(float64(i), float64(i)*0.5, "val_loss", 1)
	}

	var sb strings.Builder
	require.NoError(t, b.Render(&sb))
	out := sb.String()

	assert.Contains(t, out, "* train_loss")
	assert.Contains(t, out, "o val_loss")
	assert.Contains(t, out, "|")
	assert.Contains(t, out, "+---")
	// Axis labels carry the data range.
	assert.Contains(t, out, "10")
	assert.Contains(t, out, "0")
}

func TestRender_SinglePoint(t *testing.T) {
	b := New()
	b.Draw(1, 1, "loss", 1)

	var sb strings.Builder
	require.NoError(t, b.Render(&sb), "degenerate ranges must still render")
	assert.Contains(t, sb.String(), "*")
}

func TestWriteCSV(t *testing.T) {
	b := New()
	b.Draw(0, 1.5, "train_loss", 1)
	b.Draw(1, 0.75, "train_loss", 1)
	b.Draw(1, 2, "val_loss", 1)

	var sb strings.Builder
	require.NoError(t, b.WriteCSV(&sb))

	want := "label,x,y\n" +
		"train_loss,0,1.5\n" +
		"train_loss,1,0.75\n" +
		"val_loss,1,2\n"
	assert.Equal(t, want, sb.String())
}
