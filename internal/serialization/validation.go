package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Ceilings on untrusted header fields. A kiln checkpoint holds one
// model's parameters plus optimizer buffers, so these are generous by
// orders of magnitude; anything beyond them is a malformed or hostile
// file, not a bigger model.
const (
	MaxHeaderSize    = 16 * 1024 * 1024 // JSON header bytes
	MaxTensorCount   = 10_000           // entries in the tensor table
	MaxTensorNameLen = 512              // qualified names like "velocity.net.2.bias"
	MaxMetadataSize  = 1024 * 1024      // total metadata key+value bytes
)

// ValidationLevel controls how much of an untrusted header is checked
// before any tensor bytes are read.
type ValidationLevel int

const (
	// ValidationStrict checks names, counts, metadata size and the full
	// offset layout. The default.
	ValidationStrict ValidationLevel = iota
	// ValidationNormal skips the offset layout pass.
	ValidationNormal
	// ValidationNone trusts the header as-is. Only for files this
	// process just wrote.
	ValidationNone
)

// ValidateTensorOffsets rejects tensor tables whose regions fall
// outside the data section or overlap each other. Overlap would let one
// name alias another tensor's bytes.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", t.Offset, t.Size),
			}
		}
		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
			}
		}
		if i+1 < len(sorted) {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}

	return nil
}

// ValidateTensorName rejects names that could escape the tensor
// namespace: oversized names, path separators, traversal sequences and
// null bytes. Parameter names are dotted identifiers, never paths.
func ValidateTensorName(name string) error {
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}

	var reason string
	switch {
	case strings.Contains(name, ".."):
		reason = "contains '..' (path traversal attempt)"
	case strings.ContainsAny(name, `/\`):
		reason = `contains path separator (/ or \)`
	case strings.Contains(name, "\x00"):
		reason = "contains null byte"
	default:
		return nil
	}
	return &ValidationError{
		Type:    "invalid_name",
		Tensor:  name,
		Details: reason,
	}
}

// ValidateHeader checks a parsed header at the given level.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}

	var metaSize int
	for k, v := range h.Metadata {
		metaSize += len(k) + len(v)
	}
	if metaSize > MaxMetadataSize {
		return &ValidationError{
			Type:    "metadata_too_large",
			Details: fmt.Sprintf("got %d bytes, max %d", metaSize, MaxMetadataSize),
		}
	}

	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
	}

	// The offset layout pass sorts the whole table; strict mode only.
	if level == ValidationStrict {
		return ValidateTensorOffsets(h.Tensors, dataSize)
	}
	return nil
}
