package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// ReaderOptions configures .kiln file reading behavior.
type ReaderOptions struct {
	// SkipChecksumValidation skips the whole-file checksum pass on open.
	// Verify can still be called explicitly. Faster, but corruption goes
	// undetected until a tensor is read.
	SkipChecksumValidation bool

	// ValidationLevel controls header validation strictness.
	ValidationLevel ValidationLevel
}

// DefaultReaderOptions returns the recommended options: full checksum
// verification and strict header validation.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		SkipChecksumValidation: false,
		ValidationLevel:        ValidationStrict,
	}
}

// Reader reads state dictionaries from .kiln files.
type Reader struct {
	file      *os.File
	header    *Header
	tensorIdx map[string]int
	dataStart int64
	dataSize  int64
	fileSize  int64
	closed    bool
}

// NewReader opens a .kiln file with default options.
func NewReader(path string) (*Reader, error) {
	return NewReaderWithOptions(path, DefaultReaderOptions())
}

// NewReaderWithOptions opens a .kiln file with custom options.
func NewReaderWithOptions(path string, options ReaderOptions) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r := &Reader{file: file}
	if err := r.readHeader(options); err != nil {
		_ = file.Close()
		return nil, err
	}

	if !options.SkipChecksumValidation {
		if err := r.Verify(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return r, nil
}

func (r *Reader) readHeader(options ReaderOptions) error {
	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	r.fileSize = info.Size()

	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r.file, fixed); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}

	if !bytes.Equal(fixed[0:4], []byte(MagicBytes)) {
		return fmt.Errorf("%w: got %q", ErrInvalidMagic, fixed[0:4])
	}

	version := binary.LittleEndian.Uint32(fixed[4:8])
	if version != FormatVersion {
		return fmt.Errorf("%w: got version %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	headerSize := int64(binary.LittleEndian.Uint64(fixed[16:24]))
	r.dataSize = int64(binary.LittleEndian.Uint64(fixed[24:32]))

	if headerSize <= 0 || headerSize > MaxHeaderSize {
		return fmt.Errorf("%w: header size %d (max %d)", ErrHeaderTooLarge, headerSize, MaxHeaderSize)
	}
	if r.dataSize < 0 {
		return fmt.Errorf("%w: negative data size %d", ErrCorruptedData, r.dataSize)
	}

	r.dataStart = alignUp(FixedHeaderSize+headerSize, HeaderAlignment)
	if want := r.dataStart + r.dataSize + ChecksumSize; r.fileSize != want {
		return fmt.Errorf("%w: file size %d, expected %d", ErrCorruptedData, r.fileSize, want)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerJSON); err != nil {
		return fmt.Errorf("failed to read header JSON: %w", err)
	}

	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return fmt.Errorf("failed to parse header: %w", err)
	}

	if err := ValidateHeader(&header, r.dataSize, options.ValidationLevel); err != nil {
		return fmt.Errorf("header validation failed: %w", err)
	}

	r.header = &header
	r.tensorIdx = make(map[string]int, len(header.Tensors))
	for i, t := range header.Tensors {
		r.tensorIdx[t.Name] = i
	}
	return nil
}

// Verify recomputes the SHA-256 checksum over the file and compares it
// to the stored trailing checksum.
func (r *Reader) Verify() error {
	if r.closed {
		return fmt.Errorf("reader is closed")
	}

	h := sha256.New()
	body := io.NewSectionReader(r.file, 0, r.fileSize-ChecksumSize)
	if _, err := io.Copy(h, body); err != nil {
		return fmt.Errorf("failed to hash file: %w", err)
	}
	var computed [32]byte
	copy(computed[:], h.Sum(nil))

	var stored [32]byte
	if _, err := r.file.ReadAt(stored[:], r.fileSize-ChecksumSize); err != nil {
		return fmt.Errorf("failed to read checksum: %w", err)
	}

	if computed != stored {
		return fmt.Errorf("%w: computed %x, stored %x", ErrChecksumMismatch, computed, stored)
	}
	return nil
}

// Header returns the parsed file header.
func (r *Reader) Header() *Header {
	return r.header
}

// Metadata returns the user metadata from the header.
func (r *Reader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns tensor names in file order.
func (r *Reader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, t := range r.header.Tensors {
		names[i] = t.Name
	}
	return names
}

// TensorInfo returns metadata for a named tensor.
func (r *Reader) TensorInfo(name string) (*TensorMeta, error) {
	idx, ok := r.tensorIdx[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	return &r.header.Tensors[idx], nil
}

// ReadTensorData reads the raw bytes of a named tensor.
func (r *Reader) ReadTensorData(name string) ([]byte, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}

	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	data := make([]byte, meta.Size)
	if _, err := r.file.ReadAt(data, r.dataStart+meta.Offset); err != nil {
		return nil, fmt.Errorf("failed to read tensor %s: %w", name, err)
	}
	return data, nil
}

// LoadTensor reads a named tensor into a new RawTensor on the given device.
func (r *Reader) LoadTensor(name string, device tensor.Device) (*tensor.RawTensor, error) {
	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, fmt.Errorf("%w: tensor %s has unknown dtype %q", ErrCorruptedData, name, meta.DType)
	}

	shape := tensor.Shape(meta.Shape)
	raw, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}

	if want := int64(raw.NumElements() * dtype.Size()); meta.Size != want {
		return nil, fmt.Errorf("%w: tensor %s has size %d, shape implies %d",
			ErrCorruptedData, name, meta.Size, want)
	}

	data, err := r.ReadTensorData(name)
	if err != nil {
		return nil, err
	}
	copy(raw.Data(), data)
	return raw, nil
}

// ReadStateDict loads all tensors into a state dictionary.
func (r *Reader) ReadStateDict(device tensor.Device) (map[string]*tensor.RawTensor, error) {
	stateDict := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		raw, err := r.LoadTensor(meta.Name, device)
		if err != nil {
			return nil, err
		}
		stateDict[meta.Name] = raw
	}
	return stateDict, nil
}

// Close closes the reader and the underlying file.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}
