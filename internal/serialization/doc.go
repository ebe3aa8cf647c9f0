// Package serialization provides the native .kiln format for saving and
// loading model weights and training checkpoints.
//
// The .kiln format is a simple binary container for named tensors:
//
//	Format Structure:
//	  [4 bytes:  Magic "KILN"]
//	  [4 bytes:  Version (uint32 LE)]
//	  [4 bytes:  Flags (uint32 LE)]
//	  [4 bytes:  Reserved]
//	  [8 bytes:  Header Size (uint64 LE)]
//	  [8 bytes:  Data Size (uint64 LE)]
//	  [Header:   JSON metadata, padded to 64-byte boundary]
//	  [Tensors:  raw bytes, each 64-byte aligned, sorted by name]
//	  [32 bytes: SHA-256 checksum of everything above]
//
// Tensors are laid out sorted by name, so the same state dictionary
// always produces the same layout. The trailing checksum covers headers
// and payloads, letting readers detect any corruption.
//
// The header carries optional checkpoint metadata (epoch, step, loss,
// optimizer state keys, hyperparameters), so a single file restores a
// full training run.
//
// Example usage:
//
//	// Save a state dictionary
//	writer, err := serialization.NewWriter("model.kiln")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer writer.Close()
//	if err := writer.WriteStateDict(params.StateDict(), "mlp", nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load it back
//	reader, err := serialization.NewReader("model.kiln")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reader.Close()
//	stateDict, err := reader.ReadStateDict(tensor.CPU)
package serialization
