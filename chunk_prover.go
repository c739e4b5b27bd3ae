package velazk

import (
	"fmt"
	"math/big"

	fr377 "github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"

	"github.com/vela-protocol/velazk/circuits/transition"
)

// ChunkProver turns execution traces into chunk proofs under one key
// snapshot. Read-only after construction; safe for concurrent use.
type ChunkProver struct {
	params  CircuitParams
	ccs     constraint.ConstraintSystem
	pk      plonk.ProvingKey
	vk      plonk.VerifyingKey
	vkBytes []byte
}

// NewChunkProver loads the chunk proving keys from a parameter/assets
// snapshot. This pays the full deserialization cost up front; construct once
// per process.
func NewChunkProver(paramsDir, assetsDir string) (*ChunkProver, error) {
	snap, err := OpenSnapshot(paramsDir, assetsDir)
	if err != nil {
		return nil, err
	}
	ccs, err := snap.chunkConstraintSystem()
	if err != nil {
		return nil, err
	}
	pk, err := snap.chunkProvingKey()
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
	return &ChunkProver{
		params:  snap.Params(),
		ccs:     ccs,
		pk:      pk,
		vk:      vk,
		vkBytes: vkBytes,
	}, nil
}

// ChunkVK returns the serialized chunk verifying key. Byte-stable for the
// process lifetime.
func (me *ChunkProver) ChunkVK() []byte {
	return append([]byte(nil), me.vkBytes...)
}

// Params returns the circuit dimensions of the loaded snapshot.
func (me *ChunkProver) Params() CircuitParams {
	return me.params
}

// GenChunkProof decodes a trace, derives its chunk info, replays the state
// folding natively and, if the trace is executable, proves it. The returned
// proof's public output is deterministic; the proof bytes themselves are
// not, since proving is randomized.
func (me *ChunkProver) GenChunkProof(rawTrace []byte) (*ChunkProof, error) {
	trace, err := DecodeTrace(rawTrace)
	if err != nil {
		return nil, err
	}
	info := trace.ChunkInfo()

	if len(trace.Steps) == 0 {
		return nil, fmt.Errorf("%w: trace executes no steps", ErrWitnessGeneration)
	}
	if len(trace.Steps) > int(me.params.MaxSteps) {
		return nil, fmt.Errorf("%w: trace has %d steps, circuit capacity is %d", ErrWitnessGeneration, len(trace.Steps), me.params.MaxSteps)
	}
	if replayed := foldState(trace.PrevStateRoot, trace.Steps); !replayed.Equal(&trace.PostStateRoot) {
		return nil, fmt.Errorf("%w: replaying the trace does not reach its claimed post-state root", ErrWitnessGeneration)
	}

	assignment := chunkAssignment(trace, &info, int(me.params.MaxSteps))
	w, err := frontend.NewWitness(assignment, FIELD_INNER)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWitnessGeneration, err)
	}
	gp, err := plonk.Prove(me.ccs, me.pk, w, OPT_CHUNK_PROVER)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProving, err)
	}
	raw, err := serializeKey(gp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProving, err)
	}
	return &ChunkProof{Info: info, Proof: raw}, nil
}

func chunkAssignment(trace *ExecutionTrace, info *ChunkInfo, maxSteps int) *transition.Circuit {
	c := &transition.Circuit{
		PrevStateRoot: innerBig(info.PrevStateRoot),
		PostStateRoot: innerBig(info.PostStateRoot),
		DataHash:      innerBig(info.DataHash),
		Deltas:        make([]frontend.Variable, maxSteps),
		Words:         make([]frontend.Variable, maxSteps),
		Active:        make([]frontend.Variable, maxSteps),
	}
	for i := 0; i < maxSteps; i++ {
		if i < len(trace.Steps) {
			c.Deltas[i] = innerBig(trace.Steps[i].Delta)
			c.Words[i] = innerBig(trace.Steps[i].Word)
			c.Active[i] = 1
		} else {
			c.Deltas[i] = 0
			c.Words[i] = 0
			c.Active[i] = 0
		}
	}
	return c
}

// chunkPublicWitness rebuilds the public witness a chunk proof verifies
// against from its chunk info alone.
func chunkPublicWitness(info *ChunkInfo) (witness.Witness, error) {
	assignment := &transition.Circuit{
		PrevStateRoot: innerBig(info.PrevStateRoot),
		PostStateRoot: innerBig(info.PostStateRoot),
		DataHash:      innerBig(info.DataHash),
	}
	return frontend.NewWitness(assignment, FIELD_INNER, frontend.PublicOnly())
}

func innerBig(e fr377.Element) *big.Int {
	return e.BigInt(new(big.Int))
}
