package velazk

import (
	"fmt"
	"math/big"
	"runtime"

	frbw6 "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	stdplonk "github.com/consensys/gnark/std/recursion/plonk"
	"golang.org/x/sync/errgroup"

	"github.com/vela-protocol/velazk/circuits/aggregation"
)

// BatchProver aggregates an ordered run of chunk proofs into one recursive
// batch proof. It carries both tiers' key material: the BW6-761 aggregation
// keys it proves with and the BLS12-377 chunk verifying key it re-checks
// inputs against. Read-only after construction; safe for concurrent use.
type BatchProver struct {
	params  CircuitParams
	ccs     constraint.ConstraintSystem
	pk      plonk.ProvingKey
	vk      plonk.VerifyingKey
	vkBytes []byte
	chunkVk plonk.VerifyingKey
}

// NewBatchProver loads the aggregation proving keys and the chunk verifying
// key from a parameter/assets snapshot. This pays the full deserialization
// cost up front; construct once per process.
func NewBatchProver(paramsDir, assetsDir string) (*BatchProver, error) {
	snap, err := OpenSnapshot(paramsDir, assetsDir)
	if err != nil {
		return nil, err
	}
	ccs, err := snap.batchConstraintSystem()
	if err != nil {
		return nil, err
	}
	pk, err := snap.batchProvingKey()
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
	chunkVk, err := snap.chunkVerifyingKey()
	if err != nil {
		return nil, err
	}
	return &BatchProver{
		params:  snap.Params(),
		ccs:     ccs,
		pk:      pk,
		vk:      vk,
		vkBytes: vkBytes,
		chunkVk: chunkVk,
	}, nil
}

// BatchVK returns the serialized batch verifying key. Byte-stable for the
// process lifetime.
func (me *BatchProver) BatchVK() []byte {
	return append([]byte(nil), me.vkBytes...)
}

// Params returns the circuit dimensions of the loaded snapshot.
func (me *BatchProver) Params() CircuitParams {
	return me.params
}

// CheckChunkProofs runs the aggregation pre-flight gate: every proof must
// verify under this snapshot's chunk key and consecutive chunks must chain.
// Nil means GenBatchProof would accept the run, capacity permitting.
func (me *BatchProver) CheckChunkProofs(proofs []*ChunkProof) error {
	return checkChunkRun(me.chunkVk, proofs)
}

// GenBatchProof aggregates an ordered run of chunk proofs. chunkHashes are
// the caller's claimed per-chunk commitments, one canonical 48-byte encoding
// per proof; each is recomputed from the proof's chunk info and must match.
// The run must be non-empty, chain, fit the circuit capacity, and every
// proof must verify. Batches shorter than capacity are padded internally by
// repeating the last proof; padding never appears in the returned envelope.
func (me *BatchProver) GenBatchProof(chunkHashes [][]byte, proofs []*ChunkProof) (*BatchProof, error) {
	n := len(proofs)
	capacity := int(me.params.Capacity)
	if n == 0 || n > capacity {
		return nil, fmt.Errorf("%w: got %d chunks, circuit capacity is %d", ErrBatchSize, n, capacity)
	}
	if len(chunkHashes) != n {
		return nil, fmt.Errorf("%w: %d chunk hashes for %d proofs", ErrHashMismatch, len(chunkHashes), n)
	}

	hashes := make([]frbw6.Element, n)
	for i, raw := range chunkHashes {
		h, err := decodeOuterElement(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk hash %d: %v", ErrProofDecode, i, err)
		}
		if want := proofs[i].Info.Hash(); !h.Equal(&want) {
			return nil, &HashMismatchError{Index: i}
		}
		hashes[i] = h
	}
	for i := 1; i < n; i++ {
		if !proofs[i].Info.PrevStateRoot.Equal(&proofs[i-1].Info.PostStateRoot) {
			return nil, &ChainBreakError{Index: i}
		}
	}

	// Decode, re-verify and lift every proof into recursion form in
	// parallel. Verification here is a hard error, unlike the advisory
	// gate: proving over a bad input would only fail later and slower.
	recProofs := make([]stdplonk.Proof[aggregation.InnerScalar, aggregation.InnerG1, aggregation.InnerG2], n)
	recWitnesses := make([]stdplonk.Witness[aggregation.InnerScalar], n)
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i := range proofs {
		g.Go(func() error {
			gp, err := proofs[i].gnarkProof()
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			if !verifyChunkAgainst(me.chunkVk, gp, &proofs[i].Info) {
				return &ChunkVerifyError{Index: i}
			}
			recProofs[i], err = stdplonk.ValueOfProof[aggregation.InnerScalar, aggregation.InnerG1, aggregation.InnerG2](gp)
			if err != nil {
				return fmt.Errorf("%w: lifting chunk proof %d: %v", ErrWitnessGeneration, i, err)
			}
			pubw, err := chunkPublicWitness(&proofs[i].Info)
			if err != nil {
				return fmt.Errorf("%w: chunk witness %d: %v", ErrWitnessGeneration, i, err)
			}
			recWitnesses[i], err = stdplonk.ValueOfWitness[aggregation.InnerScalar](pubw)
			if err != nil {
				return fmt.Errorf("%w: lifting chunk witness %d: %v", ErrWitnessGeneration, i, err)
			}
			if got := len(recWitnesses[i].Public); got != NUM_CHUNK_PUBLICS {
				return fmt.Errorf("%w: chunk witness %d exposes %d public inputs, want %d", ErrWitnessGeneration, i, got, NUM_CHUNK_PUBLICS)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	infos := make([]ChunkInfo, n)
	for i := range proofs {
		infos[i] = proofs[i].Info
	}
	digest := foldBatchData(infos)

	assignment := &aggregation.Circuit{
		Proofs:        make([]stdplonk.Proof[aggregation.InnerScalar, aggregation.InnerG1, aggregation.InnerG2], capacity),
		Witnesses:     make([]stdplonk.Witness[aggregation.InnerScalar], capacity),
		ChunkHashes:   make([]frontend.Variable, capacity),
		Active:        make([]frontend.Variable, capacity),
		PrevStateRoot: innerBig(proofs[0].Info.PrevStateRoot),
		PostStateRoot: innerBig(proofs[n-1].Info.PostStateRoot),
		DataDigest:    outerBig(digest),
	}
	for i := 0; i < capacity; i++ {
		if i < n {
			assignment.Proofs[i] = recProofs[i]
			assignment.Witnesses[i] = recWitnesses[i]
			assignment.ChunkHashes[i] = outerBig(hashes[i])
			assignment.Active[i] = 1
		} else {
			assignment.Proofs[i] = recProofs[n-1]
			assignment.Witnesses[i] = recWitnesses[n-1]
			assignment.ChunkHashes[i] = 0
			assignment.Active[i] = 0
		}
	}

	w, err := frontend.NewWitness(assignment, FIELD_OUTER)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWitnessGeneration, err)
	}
	gp, err := plonk.Prove(me.ccs, me.pk, w)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProving, err)
	}
	raw, err := serializeKey(gp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProving, err)
	}
	return &BatchProof{
		ChunkHashes:   hashes,
		PrevStateRoot: proofs[0].Info.PrevStateRoot,
		PostStateRoot: proofs[n-1].Info.PostStateRoot,
		DataDigest:    digest,
		Proof:         raw,
	}, nil
}

func outerBig(e frbw6.Element) *big.Int {
	return e.BigInt(new(big.Int))
}
