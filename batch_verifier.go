package velazk

import (
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"

	"github.com/vela-protocol/velazk/circuits/aggregation"
)

// BatchVerifier checks batch proofs against one aggregation verifying key
// snapshot. Read-only after construction; safe for concurrent use.
type BatchVerifier struct {
	params  CircuitParams
	vk      plonk.VerifyingKey
	vkBytes []byte
}

// NewBatchVerifier loads the aggregation verifying key from a
// parameter/assets snapshot.
func NewBatchVerifier(paramsDir, assetsDir string) (*BatchVerifier, error) {
	snap, err := OpenSnapshot(paramsDir, assetsDir)
	if err != nil {
		return nil, err
	}
	vk, err := snap.batchVerifyingKey()
	if err != nil {
		return nil, err
	}
	vkBytes, err := serializeKey(vk)
	if err != nil {
		return nil, err
	}
	return &BatchVerifier{params: snap.Params(), vk: vk, vkBytes: vkBytes}, nil
}

// BatchVK returns the serialized batch verifying key. Byte-stable for the
// process lifetime.
func (me *BatchVerifier) BatchVK() []byte {
	return append([]byte(nil), me.vkBytes...)
}

// VerifyBatchProof checks a serialized batch proof envelope. The result is
// three-way: an error wrapping ErrProofDecode when the bytes cannot be
// parsed at all, otherwise a definitive cryptographic verdict with a nil
// error. A false verdict is a normal outcome, not a failure.
func (me *BatchVerifier) VerifyBatchProof(raw []byte) (bool, error) {
	proof, err := DecodeBatchProof(raw)
	if err != nil {
		return false, err
	}
	return me.Verify(proof)
}

// Verify checks an already-decoded batch proof. A batch claiming more chunks
// than this snapshot's capacity cannot have been produced under its keys and
// is rejected without touching the pairing check.
func (me *BatchVerifier) Verify(proof *BatchProof) (bool, error) {
	n := proof.NumChunks()
	if n < 1 || n > int(me.params.Capacity) {
		return false, nil
	}
	gp, err := proof.gnarkProof()
	if err != nil {
		return false, err
	}
	pubw, err := batchPublicWitness(proof, int(me.params.Capacity))
	if err != nil {
		return false, err
	}
	return plonk.Verify(gp, me.vk, pubw) == nil, nil
}

// batchPublicWitness rebuilds the public witness a batch proof verifies
// against from its envelope: the declared chunk hashes padded with zeros to
// capacity, the matching active prefix, and the three rolled-up scalars.
func batchPublicWitness(proof *BatchProof, capacity int) (witness.Witness, error) {
	n := proof.NumChunks()
	assignment := &aggregation.Circuit{
		ChunkHashes:   make([]frontend.Variable, capacity),
		Active:        make([]frontend.Variable, capacity),
		PrevStateRoot: innerBig(proof.PrevStateRoot),
		PostStateRoot: innerBig(proof.PostStateRoot),
		DataDigest:    outerBig(proof.DataDigest),
	}
	for i := 0; i < capacity; i++ {
		if i < n {
			assignment.ChunkHashes[i] = outerBig(proof.ChunkHashes[i])
			assignment.Active[i] = 1
		} else {
			assignment.ChunkHashes[i] = 0
			assignment.Active[i] = 0
		}
	}
	return frontend.NewWitness(assignment, FIELD_OUTER, frontend.PublicOnly())
}
