// Package aggregation contains the batch circuit: a BW6-761 PLONK circuit
// that natively verifies a run of BLS12-377 chunk proofs, recomputes each
// chunk's commitment from the recursive public inputs, and enforces that
// consecutive chunks chain into one continuous state transition.
package aggregation

import (
	"errors"

	backend_plonk "github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/std/recursion/plonk"
)

// Inner curve shorthand. BLS12-377 proofs verify natively inside BW6-761.
type (
	InnerScalar = sw_bls12377.ScalarField
	InnerG1     = sw_bls12377.G1Affine
	InnerG2     = sw_bls12377.G2Affine
	InnerGT     = sw_bls12377.GT
)

// Circuit is sized at compile time by the slice lengths of its template (the
// batch capacity). A batch shorter than capacity pads the tail slots with
// copies of its last proof; the Active flags deactivate every per-slot check
// except the recursive verification itself, which always runs.
//
// Public input order: chunk hashes, active flags, first pre-state, last
// post-state, rolling data commitment. The native side reconstructs the
// public witness in this order from a batch proof envelope.
type Circuit struct {
	Proofs    []plonk.Proof[InnerScalar, InnerG1, InnerG2]
	Witnesses []plonk.Witness[InnerScalar]

	ChunkHashes   []frontend.Variable `gnark:",public"`
	Active        []frontend.Variable `gnark:",public"`
	PrevStateRoot frontend.Variable   `gnark:",public"`
	PostStateRoot frontend.Variable   `gnark:",public"`
	DataDigest    frontend.Variable   `gnark:",public"`

	// Baked into the constraint system as a constant at compile time: a
	// batch proof is bound to one chunk key snapshot.
	ChunkVk plonk.VerifyingKey[InnerScalar, InnerG1, InnerG2] `gnark:"-"`
}

func (me *Circuit) Define(api frontend.API) error {
	n := len(me.Proofs)
	if n == 0 || len(me.Witnesses) != n || len(me.ChunkHashes) != n || len(me.Active) != n {
		return errors.New("slot slices must be non-empty and of equal length")
	}

	verifier, err := plonk.NewVerifier[InnerScalar, InnerG1, InnerG2, InnerGT](api)
	if err != nil {
		return err
	}
	scalars, err := emulated.NewField[InnerScalar](api)
	if err != nil {
		return err
	}
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}

	// Inner public inputs are BLS12-377 scalars; recompose each into a
	// single BW6-761 variable (the inner modulus is strictly smaller).
	toVar := func(e *emulated.Element[InnerScalar]) frontend.Variable {
		return api.FromBinary(scalars.ToBits(e)...)
	}

	// A batch covers at least one chunk, and active slots form a prefix.
	api.AssertIsEqual(me.Active[0], 1)

	lastPost := frontend.Variable(0)
	dataAcc := frontend.Variable(0)
	prevPost := frontend.Variable(0)
	for i := range me.Proofs {
		api.AssertIsBoolean(me.Active[i])
		if i > 0 {
			api.AssertIsEqual(api.Mul(me.Active[i], api.Sub(1, me.Active[i-1])), 0)
		}

		// Padding slots repeat the last real proof, so every slot must
		// carry a valid proof under the baked chunk key.
		if err := verifier.AssertProof(me.ChunkVk, me.Proofs[i], me.Witnesses[i], plonk.WithCompleteArithmetic()); err != nil {
			return err
		}
		if len(me.Witnesses[i].Public) != 3 {
			return errors.New("chunk witness must expose pre-state, post-state and data hash")
		}
		pre := toVar(&me.Witnesses[i].Public[0])
		post := toVar(&me.Witnesses[i].Public[1])
		data := toVar(&me.Witnesses[i].Public[2])

		// Active slots commit to their declared chunk hash; padding slots
		// declare zero.
		h.Reset()
		h.Write(pre, post, data)
		hash := h.Sum()
		api.AssertIsEqual(api.Mul(me.Active[i], api.Sub(hash, me.ChunkHashes[i])), 0)
		api.AssertIsEqual(api.Mul(api.Sub(1, me.Active[i]), me.ChunkHashes[i]), 0)

		// Chain-linking invariant across active neighbours.
		if i == 0 {
			api.AssertIsEqual(pre, me.PrevStateRoot)
		} else {
			api.AssertIsEqual(api.Mul(me.Active[i], api.Sub(pre, prevPost)), 0)
		}

		h.Reset()
		h.Write(dataAcc, data)
		dataAcc = api.Select(me.Active[i], h.Sum(), dataAcc)
		lastPost = api.Select(me.Active[i], post, lastPost)
		prevPost = post
	}

	api.AssertIsEqual(lastPost, me.PostStateRoot)
	api.AssertIsEqual(dataAcc, me.DataDigest)
	return nil
}

// Placeholder builds the compile-time template: capacity proof slots shaped
// after the chunk constraint system, with the chunk verifying key fixed as a
// circuit constant.
func Placeholder(capacity int, chunkCcs constraint.ConstraintSystem, chunkVk backend_plonk.VerifyingKey) (*Circuit, error) {
	if capacity < 1 {
		return nil, errors.New("capacity must be at least 1")
	}
	fixedVk, err := plonk.ValueOfVerifyingKey[InnerScalar, InnerG1, InnerG2](chunkVk)
	if err != nil {
		return nil, err
	}
	circuit := &Circuit{
		Proofs:      make([]plonk.Proof[InnerScalar, InnerG1, InnerG2], capacity),
		Witnesses:   make([]plonk.Witness[InnerScalar], capacity),
		ChunkHashes: make([]frontend.Variable, capacity),
		Active:      make([]frontend.Variable, capacity),
		ChunkVk:     fixedVk,
	}
	for i := 0; i < capacity; i++ {
		circuit.Proofs[i] = plonk.PlaceholderProof[InnerScalar, InnerG1, InnerG2](chunkCcs)
		circuit.Witnesses[i] = plonk.PlaceholderWitness[InnerScalar](chunkCcs)
	}
	return circuit, nil
}
