package nn

import (
	"fmt"
	"sort"

	"github.com/kiln-ml/kiln/internal/serialization"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// CheckpointInfo is the training state saved alongside the parameters.
type CheckpointInfo struct {
	ModelType     string
	Epoch         int
	Step          int64
	Loss          float64
	OptimizerType string
	Hyperparams   map[string]any
}

// SaveCheckpoint writes the parameters, the optimizer's state buffers
// and the run info into a single .kiln file at path, overwriting any
// existing file.
//
// Optimizer state keys carry a buffer prefix ("velocity.", "m.", ...),
// so they share the tensor namespace with the parameters without
// clashing; the header records which keys belong to the optimizer.
func SaveCheckpoint[B tensor.Backend](path string, params *ParameterSet[B], optimizerState map[string]*tensor.RawTensor, info CheckpointInfo) error {
	stateDict := params.StateDict()
	merged := make(map[string]*tensor.RawTensor, len(stateDict)+len(optimizerState))
	for name, raw := range stateDict {
		merged[name] = raw
	}

	optimizerKeys := make([]string, 0, len(optimizerState))
	for key, raw := range optimizerState {
		if _, clash := merged[key]; clash {
			return fmt.Errorf("optimizer state key %q collides with a parameter", key)
		}
		merged[key] = raw
		optimizerKeys = append(optimizerKeys, key)
	}
	sort.Strings(optimizerKeys)

	writer, err := serialization.NewWriter(path)
	if err != nil {
		return err
	}
	defer writer.Close()

	return writer.WriteStateDictWithHeader(merged, serialization.Header{
		ModelType: info.ModelType,
		CheckpointMeta: &serialization.CheckpointMeta{
			IsCheckpoint:  true,
			Epoch:         info.Epoch,
			Step:          info.Step,
			Loss:          info.Loss,
			OptimizerType: info.OptimizerType,
			Hyperparams:   info.Hyperparams,
			OptimizerKeys: optimizerKeys,
		},
	})
}

// LoadCheckpoint restores parameter values from the checkpoint at path
// into the given set and returns the optimizer state buffers and the
// saved run info.
//
// The parameter set must already be built with the same names and
// shapes the checkpoint was saved from; feed the returned state to the
// optimizer's LoadStateDict to resume mid-run.
func LoadCheckpoint[B tensor.Backend](path string, params *ParameterSet[B]) (map[string]*tensor.RawTensor, *CheckpointInfo, error) {
	reader, err := serialization.NewReader(path)
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	device := tensor.CPU
	if all := params.All(); len(all) > 0 {
		device = all[0].Tensor().Device()
	}
	stateDict, err := reader.ReadStateDict(device)
	if err != nil {
		return nil, nil, err
	}
	if err := params.LoadStateDict(stateDict); err != nil {
		return nil, nil, err
	}

	meta := reader.Header().CheckpointMeta
	if meta == nil {
		return map[string]*tensor.RawTensor{}, &CheckpointInfo{ModelType: reader.Header().ModelType}, nil
	}

	optimizerState := make(map[string]*tensor.RawTensor, len(meta.OptimizerKeys))
	for _, key := range meta.OptimizerKeys {
		raw, ok := stateDict[key]
		if !ok {
			return nil, nil, fmt.Errorf("%w: optimizer state %q listed in header but missing",
				serialization.ErrCorruptedData, key)
		}
		optimizerState[key] = raw
	}

	info := &CheckpointInfo{
		ModelType:     reader.Header().ModelType,
		Epoch:         meta.Epoch,
		Step:          meta.Step,
		Loss:          meta.Loss,
		OptimizerType: meta.OptimizerType,
		Hyperparams:   meta.Hyperparams,
	}
	return optimizerState, info, nil
}
