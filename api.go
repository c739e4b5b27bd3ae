package velazk

import (
	"fmt"
	"sync"
)

// Package-level host boundary. Embedders that cannot hold Go objects across
// calls initialize each role once per process and then drive it through
// byte-slice functions. All state lives behind one lock; the role objects
// themselves are read-only, so operations only take the read side.

var (
	apiMu sync.RWMutex

	gChunkProver   *ChunkProver
	gChunkVerifier *ChunkVerifier
	gBatchProver   *BatchProver
	gBatchVerifier *BatchVerifier
)

// InitChunkProver loads the process-wide chunk prover from a snapshot.
// Re-initialization is an error; restart the process to change snapshots.
func InitChunkProver(paramsDir, assetsDir string) error {
	apiMu.Lock()
	defer apiMu.Unlock()
	if gChunkProver != nil {
		return fmt.Errorf("%w: chunk prover", ErrAlreadyInitialized)
	}
	p, err := NewChunkProver(paramsDir, assetsDir)
	if err != nil {
		return err
	}
	gChunkProver = p
	return nil
}

// InitChunkVerifier loads the process-wide chunk verifier from a snapshot.
func InitChunkVerifier(paramsDir, assetsDir string) error {
	apiMu.Lock()
	defer apiMu.Unlock()
	if gChunkVerifier != nil {
		return fmt.Errorf("%w: chunk verifier", ErrAlreadyInitialized)
	}
	v, err := NewChunkVerifier(paramsDir, assetsDir)
	if err != nil {
		return err
	}
	gChunkVerifier = v
	return nil
}

// InitBatchProver loads the process-wide batch prover from a snapshot.
func InitBatchProver(paramsDir, assetsDir string) error {
	apiMu.Lock()
	defer apiMu.Unlock()
	if gBatchProver != nil {
		return fmt.Errorf("%w: batch prover", ErrAlreadyInitialized)
	}
	p, err := NewBatchProver(paramsDir, assetsDir)
	if err != nil {
		return err
	}
	gBatchProver = p
	return nil
}

// InitBatchVerifier loads the process-wide batch verifier from a snapshot.
func InitBatchVerifier(paramsDir, assetsDir string) error {
	apiMu.Lock()
	defer apiMu.Unlock()
	if gBatchVerifier != nil {
		return fmt.Errorf("%w: batch verifier", ErrAlreadyInitialized)
	}
	v, err := NewBatchVerifier(paramsDir, assetsDir)
	if err != nil {
		return err
	}
	gBatchVerifier = v
	return nil
}

func chunkProver() (*ChunkProver, error) {
	apiMu.RLock()
	defer apiMu.RUnlock()
	if gChunkProver == nil {
		return nil, fmt.Errorf("%w: chunk prover", ErrNotInitialized)
	}
	return gChunkProver, nil
}

func chunkVerifier() (*ChunkVerifier, error) {
	apiMu.RLock()
	defer apiMu.RUnlock()
	if gChunkVerifier == nil {
		return nil, fmt.Errorf("%w: chunk verifier", ErrNotInitialized)
	}
	return gChunkVerifier, nil
}

func batchProver() (*BatchProver, error) {
	apiMu.RLock()
	defer apiMu.RUnlock()
	if gBatchProver == nil {
		return nil, fmt.Errorf("%w: batch prover", ErrNotInitialized)
	}
	return gBatchProver, nil
}

func batchVerifier() (*BatchVerifier, error) {
	apiMu.RLock()
	defer apiMu.RUnlock()
	if gBatchVerifier == nil {
		return nil, fmt.Errorf("%w: batch verifier", ErrNotInitialized)
	}
	return gBatchVerifier, nil
}

// GenChunkProof proves a serialized execution trace and returns the chunk
// proof envelope.
func GenChunkProof(rawTrace []byte) ([]byte, error) {
	p, err := chunkProver()
	if err != nil {
		return nil, err
	}
	proof, err := p.GenChunkProof(rawTrace)
	if err != nil {
		return nil, err
	}
	return proof.MarshalBinary()
}

// VerifyChunkProof checks a chunk proof envelope. See
// ChunkVerifier.VerifyChunkProof for the three-way result contract.
func VerifyChunkProof(rawProof []byte) (bool, error) {
	v, err := chunkVerifier()
	if err != nil {
		return false, err
	}
	return v.VerifyChunkProof(rawProof)
}

// GetChunkVK returns the serialized chunk verifying key from whichever chunk
// role is initialized.
func GetChunkVK() ([]byte, error) {
	apiMu.RLock()
	defer apiMu.RUnlock()
	switch {
	case gChunkProver != nil:
		return gChunkProver.ChunkVK(), nil
	case gChunkVerifier != nil:
		return gChunkVerifier.ChunkVK(), nil
	}
	return nil, fmt.Errorf("%w: no chunk role", ErrNotInitialized)
}

// GetBatchVK returns the serialized batch verifying key from whichever batch
// role is initialized.
func GetBatchVK() ([]byte, error) {
	apiMu.RLock()
	defer apiMu.RUnlock()
	switch {
	case gBatchProver != nil:
		return gBatchProver.BatchVK(), nil
	case gBatchVerifier != nil:
		return gBatchVerifier.BatchVK(), nil
	}
	return nil, fmt.Errorf("%w: no batch role", ErrNotInitialized)
}

// CheckChunkProofs decodes a run of chunk proof envelopes and runs the batch
// prover's pre-flight gate over them. Nil means the run verifies and chains.
func CheckChunkProofs(rawProofs [][]byte) error {
	p, err := batchProver()
	if err != nil {
		return err
	}
	proofs, err := decodeChunkRun(rawProofs)
	if err != nil {
		return err
	}
	return p.CheckChunkProofs(proofs)
}

// GenBatchProof aggregates a run of chunk proof envelopes under the claimed
// chunk hashes and returns the batch proof envelope.
func GenBatchProof(chunkHashes [][]byte, rawProofs [][]byte) ([]byte, error) {
	p, err := batchProver()
	if err != nil {
		return nil, err
	}
	proofs, err := decodeChunkRun(rawProofs)
	if err != nil {
		return nil, err
	}
	proof, err := p.GenBatchProof(chunkHashes, proofs)
	if err != nil {
		return nil, err
	}
	return proof.MarshalBinary()
}

// VerifyBatchProof checks a batch proof envelope. See
// BatchVerifier.VerifyBatchProof for the three-way result contract.
func VerifyBatchProof(rawProof []byte) (bool, error) {
	v, err := batchVerifier()
	if err != nil {
		return false, err
	}
	return v.VerifyBatchProof(rawProof)
}

// ChunkTraceToChunkInfo derives the chunk info of a serialized trace without
// proving it. Pure; needs no initialized role.
func ChunkTraceToChunkInfo(rawTrace []byte) ([]byte, error) {
	info, err := ChunkInfoFromTrace(rawTrace)
	if err != nil {
		return nil, err
	}
	return info.Encode()
}

func decodeChunkRun(rawProofs [][]byte) ([]*ChunkProof, error) {
	proofs := make([]*ChunkProof, len(rawProofs))
	for i, raw := range rawProofs {
		p, err := DecodeChunkProof(raw)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		proofs[i] = p
	}
	return proofs, nil
}
