package serialization

import (
	"time"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "KILN"
	FormatVersion   = 2  // v2: trailing SHA-256 checksum over the whole file
	FixedHeaderSize = 32 // magic + version + flags + reserved + header size + data size
	HeaderAlignment = 64 // tensor payloads start on 64-byte boundaries
	ChecksumSize    = 32 // SHA-256 checksum size (32 bytes)
)

// Data type string constants for serialization.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
	DTypeUint8   = "uint8"
	DTypeBool    = "bool"
)

// Flags for the .kiln format.
const (
	FlagHasOptimizer uint32 = 1 << 0 // optimizer state included
	FlagHasMetadata  uint32 = 1 << 1 // custom metadata included
)

// Header is the JSON header of a .kiln file.
type Header struct {
	FormatVersion  int               `json:"format_version"`       // Version of the .kiln format
	KilnVersion    string            `json:"kiln_version"`         // Version of Kiln that created this file
	ModelType      string            `json:"model_type"`           // Type of model (e.g., "Regressor", "Classifier")
	CreatedAt      time.Time         `json:"created_at"`           // When the file was created
	Tensors        []TensorMeta      `json:"tensors"`              // Tensor metadata
	Metadata       map[string]string `json:"metadata"`             // Custom metadata
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"` // Checkpoint metadata (optional)
}

// CheckpointMeta carries training state alongside the parameters, so a
// run can resume where it left off.
type CheckpointMeta struct {
	IsCheckpoint  bool           `json:"is_checkpoint"`  // Whether this is a checkpoint file
	Epoch         int            `json:"epoch"`          // Training epoch number
	Step          int64          `json:"step"`           // Global training step number
	Loss          float64        `json:"loss"`           // Mean train loss at checkpoint
	OptimizerType string         `json:"optimizer_type"` // Optimizer type ("SGD", "Adam", ...)
	Hyperparams   map[string]any `json:"hyperparams"`    // Captured model + trainer hyperparameters
	TrainingMeta  map[string]any `json:"training_meta"`  // Additional training metadata
	OptimizerKeys []string       `json:"optimizer_keys"` // Names of optimizer-state tensors in this file
}

// TensorMeta describes a tensor in the .kiln file.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "net.0.weight")
	DType  string `json:"dtype"`  // Data type (e.g., "float32", "float64")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section (bytes from start of tensor data)
	Size   int64  `json:"size"`   // Size in bytes
}

// alignUp rounds n up to the next multiple of align.
func alignUp(n, align int64) int64 {
	return (n + align - 1) / align * align
}

// dtypeToString converts tensor.DataType to string representation.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Int32:
		return DTypeInt32
	case tensor.Int64:
		return DTypeInt64
	case tensor.Uint8:
		return DTypeUint8
	case tensor.Bool:
		return DTypeBool
	default:
		return "unknown"
	}
}

// stringToDtype converts string representation to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeInt32:
		return tensor.Int32, true
	case DTypeInt64:
		return tensor.Int64, true
	case DTypeUint8:
		return tensor.Uint8, true
	case DTypeBool:
		return tensor.Bool, true
	default:
		return 0, false
	}
}
