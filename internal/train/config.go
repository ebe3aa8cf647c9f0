package train

import (
	"fmt"
	"io"
	"log"

	"github.com/kiln-ml/kiln/internal/board"
)

// Config holds the trainer's hyperparameters and wiring.
type Config struct {
	// MaxEpochs is the number of passes over the training split.
	MaxEpochs int

	// GradientClip caps the global L2 norm of all parameter gradients
	// each step: when the norm exceeds the cap, every gradient is
	// scaled by cap/norm. Zero disables clipping.
	GradientClip float64

	// PlotTrainPerEpoch and PlotValidPerEpoch set how many points per
	// epoch the default steps contribute to the loss curves. Defaults 2
	// and 1.
	PlotTrainPerEpoch int
	PlotValidPerEpoch int

	// Board receives the loss curves; nil disables plotting.
	Board *board.Board

	// Logger receives one key=value line per epoch plus fit start
	// lines; nil keeps the trainer silent.
	Logger *log.Logger

	// CheckpointPath, when set, receives a checkpoint after the final
	// epoch, and with CheckpointEvery > 0 also every that many epochs.
	// The file is overwritten in place.
	CheckpointPath  string
	CheckpointEvery int
}

func (c *Config) applyDefaults() {
	if c.PlotTrainPerEpoch == 0 {
		c.PlotTrainPerEpoch = 2
	}
	if c.PlotValidPerEpoch == 0 {
		c.PlotValidPerEpoch = 1
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard, "", 0)
	}
}

// Validate checks the configuration for values the trainer cannot run
// with.
func (c Config) Validate() error {
	if c.MaxEpochs < 1 {
		return fmt.Errorf("max epochs must be at least 1, got %d", c.MaxEpochs)
	}
	if c.GradientClip < 0 {
		return fmt.Errorf("gradient clip must not be negative, got %g", c.GradientClip)
	}
	if c.PlotTrainPerEpoch < 1 {
		return fmt.Errorf("plot train per epoch must be at least 1, got %d", c.PlotTrainPerEpoch)
	}
	if c.PlotValidPerEpoch < 1 {
		return fmt.Errorf("plot valid per epoch must be at least 1, got %d", c.PlotValidPerEpoch)
	}
	if c.CheckpointEvery < 0 {
		return fmt.Errorf("checkpoint interval must not be negative, got %d", c.CheckpointEvery)
	}
	if c.CheckpointEvery > 0 && c.CheckpointPath == "" {
		return fmt.Errorf("checkpoint interval %d set without a checkpoint path", c.CheckpointEvery)
	}
	return nil
}
