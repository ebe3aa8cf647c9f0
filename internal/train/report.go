package train

import "time"

// EpochStats summarizes one completed epoch.
type EpochStats struct {
	Epoch       int     // 0-based
	TrainLoss   float64 // mean training loss over the epoch
	ValLoss     float64 // mean validation loss, meaningful when HasValLoss
	ValAccuracy float64 // mean validation accuracy, meaningful when HasValAccuracy

	HasValLoss     bool
	HasValAccuracy bool

	// Metrics holds every per-epoch running mean by name, including
	// custom names models observed through Context.Observe.
	Metrics map[string]float64

	Duration time.Duration
}

// Report is the outcome of a completed fit.
type Report struct {
	Epochs   []EpochStats
	Duration time.Duration
}

// Final returns the last epoch's stats, or the zero value when no
// epoch completed.
func (r *Report) Final() EpochStats {
	if len(r.Epochs) == 0 {
		return EpochStats{}
	}
	return r.Epochs[len(r.Epochs)-1]
}
