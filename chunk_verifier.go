package velazk

import (
	"github.com/consensys/gnark/backend/plonk"
)

// ChunkVerifier checks chunk proofs against one chunk verifying key
// snapshot. Read-only after construction; safe for concurrent use.
type ChunkVerifier struct {
	params  CircuitParams
	vk      plonk.VerifyingKey
	vkBytes []byte
}

// NewChunkVerifier loads the chunk verifying key from a parameter/assets
// snapshot.
func NewChunkVerifier(paramsDir, assetsDir string) (*ChunkVerifier, error) {
	snap, err := OpenSnapshot(paramsDir, assetsDir)
	if err != nil {
		return nil, err
	}
	vk, err := snap.chunkVerifyingKey()
	if err != nil {
		return nil, err
	}
	vkBytes, err := serializeKey(vk)
	if err != nil {
		return nil, err
	}
	return &ChunkVerifier{params: snap.Params(), vk: vk, vkBytes: vkBytes}, nil
}

// ChunkVK returns the serialized chunk verifying key. Byte-stable for the
// process lifetime.
func (me *ChunkVerifier) ChunkVK() []byte {
	return append([]byte(nil), me.vkBytes...)
}

// VerifyChunkProof checks a serialized chunk proof envelope. The result is
// three-way: an error wrapping ErrProofDecode when the bytes cannot be
// parsed at all, otherwise a definitive cryptographic verdict with a nil
// error. A false verdict is a normal outcome, not a failure.
func (me *ChunkVerifier) VerifyChunkProof(raw []byte) (bool, error) {
	proof, err := DecodeChunkProof(raw)
	if err != nil {
		return false, err
	}
	gp, err := proof.gnarkProof()
	if err != nil {
		return false, err
	}
	return verifyChunkAgainst(me.vk, gp, &proof.Info), nil
}

// Verify checks an already-decoded chunk proof.
func (me *ChunkVerifier) Verify(proof *ChunkProof) (bool, error) {
	gp, err := proof.gnarkProof()
	if err != nil {
		return false, err
	}
	return verifyChunkAgainst(me.vk, gp, &proof.Info), nil
}

// verifyChunkAgainst binds a chunk proof to the public inputs derived from
// its chunk info and verifies it. Shared by the chunk verifier, the
// aggregation pre-flight gate and the batch prover's own re-check.
func verifyChunkAgainst(vk plonk.VerifyingKey, gp plonk.Proof, info *ChunkInfo) bool {
	pubw, err := chunkPublicWitness(info)
	if err != nil {
		return false
	}
	return plonk.Verify(gp, vk, pubw, OPT_CHUNK_VERIFIER) == nil
}
