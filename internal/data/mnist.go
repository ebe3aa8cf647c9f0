package data

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// MNIST dataset filenames as distributed (gzipped IDX format).
const (
	MNISTTrainImages = "train-images-idx3-ubyte.gz"
	MNISTTrainLabels = "train-labels-idx1-ubyte.gz"
	MNISTTestImages  = "t10k-images-idx3-ubyte.gz"
	MNISTTestLabels  = "t10k-labels-idx1-ubyte.gz"
)

// MNISTDigests holds the SHA-256 digests of the canonical distribution
// files, for passing as MNISTConfig.Digests.
var MNISTDigests = map[string]string{
	MNISTTrainImages: "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609",
	MNISTTrainLabels: "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c",
	MNISTTestImages:  "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6",
	MNISTTestLabels:  "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6",
}

// IDX magic numbers: unsigned-byte tensors of rank 3 (images) and
// rank 1 (labels).
const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049
)

// MNIST loads the four gzipped IDX files from a directory into a
// train/test Arrays module. Pixels are normalized to [0, 1] and each
// image is a flat row of rows×cols features; labels are the digit
// classes 0-9 as float32.
type MNIST[B tensor.Backend] struct {
	*Arrays[B]
	imageRows int
	imageCols int
}

// MNISTConfig locates and validates the dataset files.
type MNISTConfig struct {
	Root      string // directory holding the four .gz files
	BatchSize int    // default 64
	Seed      int64
	// Digests maps filename to expected SHA-256 hex. Files with an
	// entry are verified before parsing; an empty map skips
	// verification entirely.
	Digests map[string]string
}

// NewMNIST reads and validates the dataset.
func NewMNIST[B tensor.Backend](config MNISTConfig, backend B) (*MNIST[B], error) {
	if config.BatchSize == 0 {
		config.BatchSize = 64
	}

	trainImages, rows, cols, err := readMNISTImages(config, MNISTTrainImages)
	if err != nil {
		return nil, err
	}
	trainLabels, err := readMNISTLabels(config, MNISTTrainLabels)
	if err != nil {
		return nil, err
	}
	testImages, testRows, testCols, err := readMNISTImages(config, MNISTTestImages)
	if err != nil {
		return nil, err
	}
	testLabels, err := readMNISTLabels(config, MNISTTestLabels)
	if err != nil {
		return nil, err
	}

	if rows != testRows || cols != testCols {
		return nil, fmt.Errorf("data: train images are %dx%d but test images are %dx%d",
			rows, cols, testRows, testCols)
	}
	imageSize := rows * cols
	numTrain := len(trainImages) / imageSize
	numTest := len(testImages) / imageSize
	if numTrain != len(trainLabels) {
		return nil, fmt.Errorf("data: %d train images but %d train labels", numTrain, len(trainLabels))
	}
	if numTest != len(testLabels) {
		return nil, fmt.Errorf("data: %d test images but %d test labels", numTest, len(testLabels))
	}

	features := make([]float32, 0, (numTrain+numTest)*imageSize)
	features = append(features, trainImages...)
	features = append(features, testImages...)
	labels := make([]float32, 0, numTrain+numTest)
	labels = append(labels, trainLabels...)
	labels = append(labels, testLabels...)

	arrays, err := NewArrays(ArraysConfig{
		Features:    features,
		Labels:      labels,
		NumFeatures: imageSize,
		NumLabels:   1,
		NumTrain:    numTrain,
		NumVal:      numTest,
		BatchSize:   config.BatchSize,
		Seed:        config.Seed,
	}, backend)
	if err != nil {
		return nil, err
	}

	return &MNIST[B]{Arrays: arrays, imageRows: rows, imageCols: cols}, nil
}

// ImageRows returns the image height in pixels.
func (m *MNIST[B]) ImageRows() int {
	return m.imageRows
}

// ImageCols returns the image width in pixels.
func (m *MNIST[B]) ImageCols() int {
	return m.imageCols
}

// NumClasses returns the number of digit classes.
func (m *MNIST[B]) NumClasses() int {
	return 10
}

// openMNISTFile reads, optionally digest-checks, and decompresses one
// dataset file.
func openMNISTFile(config MNISTConfig, name string) (io.Reader, error) {
	path := filepath.Join(config.Root, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("data: reading %s: %w", path, err)
	}

	if want, ok := config.Digests[name]; ok {
		sum := sha256.Sum256(raw)
		if got := fmt.Sprintf("%x", sum); got != want {
			return nil, fmt.Errorf("data: %s digest mismatch: got %s, want %s", name, got, want)
		}
	}

	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("data: decompressing %s: %w", name, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(gz); err != nil {
		gz.Close()
		return nil, fmt.Errorf("data: decompressing %s: %w", name, err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("data: decompressing %s: %w", name, err)
	}
	return &buf, nil
}

// readMNISTImages parses an IDX image file into normalized [0, 1]
// float32 pixels, flattened to one row per image.
func readMNISTImages(config MNISTConfig, name string) (pixels []float32, rows, cols int, err error) {
	r, err := openMNISTFile(config, name)
	if err != nil {
		return nil, 0, 0, err
	}

	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, 0, 0, fmt.Errorf("data: %s: reading magic: %w", name, err)
	}
	if magic != idxImagesMagic {
		return nil, 0, 0, fmt.Errorf("data: %s: invalid magic number: got %d, want %d", name, magic, idxImagesMagic)
	}

	var numImages, numRows, numCols uint32
	if err := binary.Read(r, binary.BigEndian, &numImages); err != nil {
		return nil, 0, 0, fmt.Errorf("data: %s: reading image count: %w", name, err)
	}
	if err := binary.Read(r, binary.BigEndian, &numRows); err != nil {
		return nil, 0, 0, fmt.Errorf("data: %s: reading row count: %w", name, err)
	}
	if err := binary.Read(r, binary.BigEndian, &numCols); err != nil {
		return nil, 0, 0, fmt.Errorf("data: %s: reading column count: %w", name, err)
	}

	imageSize := int(numRows) * int(numCols)
	if imageSize == 0 {
		return nil, 0, 0, fmt.Errorf("data: %s: zero image dimensions %dx%d", name, numRows, numCols)
	}
	raw := make([]byte, int(numImages)*imageSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, 0, 0, fmt.Errorf("data: %s: reading %d images: %w", name, numImages, err)
	}

	pixels = make([]float32, len(raw))
	for i, p := range raw {
		pixels[i] = float32(p) / 255
	}
	return pixels, int(numRows), int(numCols), nil
}

// readMNISTLabels parses an IDX label file into float32 class labels.
func readMNISTLabels(config MNISTConfig, name string) ([]float32, error) {
	r, err := openMNISTFile(config, name)
	if err != nil {
		return nil, err
	}

	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("data: %s: reading magic: %w", name, err)
	}
	if magic != idxLabelsMagic {
		return nil, fmt.Errorf("data: %s: invalid magic number: got %d, want %d", name, magic, idxLabelsMagic)
	}

	var numLabels uint32
	if err := binary.Read(r, binary.BigEndian, &numLabels); err != nil {
		return nil, fmt.Errorf("data: %s: reading label count: %w", name, err)
	}

	raw := make([]byte, numLabels)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("data: %s: reading %d labels: %w", name, numLabels, err)
	}

	labels := make([]float32, len(raw))
	for i, l := range raw {
		labels[i] = float32(l)
	}
	return labels, nil
}
