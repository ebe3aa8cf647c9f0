package serialization

import (
	"errors"
	"strings"
	"testing"
)

// TestValidateTensorOffsets covers overlap, bounds and negative-value
// detection in one table. The error Type pins which check fired.
func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		wantType string // "" means no error expected
	}{
		{
			name: "valid layout",
			tensors: []TensorMeta{
				{Name: "encoder.weight", Offset: 0, Size: 100},
				{Name: "encoder.bias", Offset: 100, Size: 200},
				{Name: "head.weight", Offset: 300, Size: 150},
			},
			dataSize: 500,
		},
		{
			name: "exact boundary is not overlap",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 100, Size: 100},
			},
			dataSize: 200,
		},
		{
			name: "tensor fits exactly",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 500},
			},
			dataSize: 500,
		},
		{
			name: "regions overlap",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 50, Size: 100},
			},
			dataSize: 200,
			wantType: "offset_overlap",
		},
		{
			name: "one byte overlap",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 99, Size: 100},
			},
			dataSize: 200,
			wantType: "offset_overlap",
		},
		{
			name: "extends beyond data",
			tensors: []TensorMeta{
				{Name: "a", Offset: 100, Size: 200},
			},
			dataSize: 250,
			wantType: "out_of_bounds",
		},
		{
			name: "offset beyond data",
			tensors: []TensorMeta{
				{Name: "a", Offset: 1000, Size: 100},
			},
			dataSize: 500,
			wantType: "out_of_bounds",
		},
		{
			name: "negative offset",
			tensors: []TensorMeta{
				{Name: "a", Offset: -100, Size: 100},
			},
			dataSize: 500,
			wantType: "negative_offset",
		},
		{
			name: "negative size",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: -100},
			},
			dataSize: 500,
			wantType: "negative_offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			if tt.wantType == "" {
				if err != nil {
					t.Fatalf("expected no error, got: %v", err)
				}
				return
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if vErr.Type != tt.wantType {
				t.Errorf("expected %s error, got %s", tt.wantType, vErr.Type)
			}
		})
	}
}

func TestValidateTensorOffsets_TooManyTensors(t *testing.T) {
	tensors := make([]TensorMeta, MaxTensorCount+1)
	for i := range tensors {
		tensors[i] = TensorMeta{Name: "t", Offset: int64(i * 100), Size: 100}
	}

	err := ValidateTensorOffsets(tensors, int64((MaxTensorCount+1)*100))
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Type != "too_many_tensors" {
		t.Errorf("expected too_many_tensors error, got: %v", err)
	}
}

func TestValidateTensorName(t *testing.T) {
	bad := []string{
		"../../../etc/passwd",
		"..\\..\\windows\\system32",
		"tensor/../secret",
		"layer/0/weight",
		"model\\layer\\weight",
		"tensor\x00hidden",
		strings.Repeat("a", MaxTensorNameLen+1),
	}
	for _, name := range bad {
		if err := ValidateTensorName(name); err == nil {
			t.Errorf("expected error for name %q, got nil", name)
		}
	}

	good := []string{
		"weight",
		"net.0.weight",
		"velocity.net.2.bias",
		"embedding-matrix",
		"UPPERCASE_123",
	}
	for _, name := range good {
		if err := ValidateTensorName(name); err != nil {
			t.Errorf("expected no error for name %q, got: %v", name, err)
		}
	}
}

func TestValidateHeader_Levels(t *testing.T) {
	overlapping := Header{
		Tensors: []TensorMeta{
			{Name: "a", Offset: 0, Size: 100},
			{Name: "b", Offset: 50, Size: 100},
		},
	}

	// Strict catches the overlap, normal only checks names.
	if err := ValidateHeader(&overlapping, 200, ValidationStrict); err == nil {
		t.Error("strict validation should fail on overlap")
	}
	if err := ValidateHeader(&overlapping, 200, ValidationNormal); err != nil {
		t.Errorf("normal validation should pass, got: %v", err)
	}

	// ValidationNone skips everything, even hostile names.
	hostile := Header{
		Tensors: []TensorMeta{
			{Name: "../../../etc/passwd", Offset: -1000, Size: -1000},
		},
	}
	if err := ValidateHeader(&hostile, 100, ValidationNone); err != nil {
		t.Errorf("ValidationNone should skip all checks, got: %v", err)
	}

	// Bad name fails at any level above none.
	if err := ValidateHeader(&hostile, 100, ValidationNormal); err == nil {
		t.Error("normal validation should reject traversal names")
	}
}

func TestValidateHeader_MetadataTooLarge(t *testing.T) {
	bloated := Header{
		Metadata: map[string]string{
			"notes": strings.Repeat("x", MaxMetadataSize+1),
		},
	}

	err := ValidateHeader(&bloated, 0, ValidationNormal)
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Type != "metadata_too_large" {
		t.Errorf("expected metadata_too_large error, got: %v", err)
	}

	if err := ValidateHeader(&bloated, 0, ValidationNone); err != nil {
		t.Errorf("ValidationNone should skip the metadata check, got: %v", err)
	}
}

func TestValidationError_Messages(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		expected string
	}{
		{
			name: "single tensor",
			err: &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  "layer1",
				Details: "offset 100 + size 200 > data_size 250",
			},
			expected: `out_of_bounds: tensor "layer1": offset 100 + size 200 > data_size 250`,
		},
		{
			name: "tensor pair",
			err: &ValidationError{
				Type:    "offset_overlap",
				Tensor:  "tensor1",
				Tensor2: "tensor2",
				Details: "regions [0-100] and [50-150] overlap",
			},
			expected: `offset_overlap: tensors "tensor1" and "tensor2": regions [0-100] and [50-150] overlap`,
		},
		{
			name: "no tensor",
			err: &ValidationError{
				Type:    "too_many_tensors",
				Details: "got 100001, max 100000",
			},
			expected: "too_many_tensors: got 100001, max 100000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("error message mismatch\nexpected: %s\ngot:      %s", tt.expected, got)
			}
		})
	}
}

// FuzzValidateTensorName ensures name validation never panics.
func FuzzValidateTensorName(f *testing.F) {
	f.Add("net.0.weight")
	f.Add("../malicious")
	f.Add("path/to/tensor")
	f.Add(strings.Repeat("a", MaxTensorNameLen))
	f.Add("\x00null_byte")

	f.Fuzz(func(_ *testing.T, name string) {
		_ = ValidateTensorName(name)
	})
}

// FuzzValidateTensorOffsets ensures offset validation never panics.
func FuzzValidateTensorOffsets(f *testing.F) {
	f.Add(int64(0), int64(100), int64(200))
	f.Add(int64(-100), int64(50), int64(1000))
	f.Add(int64(100), int64(-50), int64(1000))

	f.Fuzz(func(_ *testing.T, offset, size, dataSize int64) {
		tensors := []TensorMeta{
			{Name: "fuzz_tensor", Offset: offset, Size: size},
		}
		_ = ValidateTensorOffsets(tensors, dataSize)
	})
}
