package velazk

import (
	"fmt"
	"runtime"

	"github.com/consensys/gnark/backend/plonk"
	"golang.org/x/sync/errgroup"
)

// checkChunkRun is the aggregation pre-flight gate: it verifies every chunk
// proof of an ordered run and checks that consecutive chunks chain. Proof
// verification fans out across CPUs; the reported failure is always the
// lowest failing index regardless of completion order.
//
// The gate is advisory. Batch proving re-establishes both properties itself,
// so a caller skipping the gate loses an early exit, not soundness.
func checkChunkRun(vk plonk.VerifyingKey, proofs []*ChunkProof) error {
	if len(proofs) == 0 {
		return fmt.Errorf("%w: empty chunk run", ErrBatchSize)
	}

	decodeErrs := make([]error, len(proofs))
	valid := make([]bool, len(proofs))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i := range proofs {
		g.Go(func() error {
			gp, err := proofs[i].gnarkProof()
			if err != nil {
				decodeErrs[i] = err
				return nil
			}
			valid[i] = verifyChunkAgainst(vk, gp, &proofs[i].Info)
			return nil
		})
	}
	g.Wait()

	for i := range proofs {
		if decodeErrs[i] != nil {
			return fmt.Errorf("chunk %d: %w", i, decodeErrs[i])
		}
		if !valid[i] {
			return &ChunkVerifyError{Index: i}
		}
	}
	for i := 1; i < len(proofs); i++ {
		if !proofs[i].Info.PrevStateRoot.Equal(&proofs[i-1].Info.PostStateRoot) {
			return &ChainBreakError{Index: i}
		}
	}
	return nil
}

// CheckChunkProofs runs the pre-flight gate against this verifier's chunk
// key. Nil means the whole run verifies and chains.
func (me *ChunkVerifier) CheckChunkProofs(proofs []*ChunkProof) error {
	return checkChunkRun(me.vk, proofs)
}
