package velazk

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// The end-to-end tests share one real snapshot. Setup compiles the recursive
// aggregation circuit, which dominates the suite's runtime, so everything
// here hides behind -short.

var (
	testSnapOnce sync.Once
	testSnapRoot string
	testSnapErr  error
)

func testSnapshotDirs(t *testing.T) (paramsDir, assetsDir string) {
	t.Helper()
	if testing.Short() {
		t.Skip("snapshot setup and proving are slow")
	}
	testSnapOnce.Do(func() {
		testSnapRoot, testSnapErr = os.MkdirTemp("", "velazk-test")
		if testSnapErr != nil {
			return
		}
		testSnapErr = Setup(
			filepath.Join(testSnapRoot, "params"),
			filepath.Join(testSnapRoot, "assets"),
			CircuitParams{MaxSteps: 4, Capacity: 2},
		)
	})
	require.NoError(t, testSnapErr)
	return filepath.Join(testSnapRoot, "params"), filepath.Join(testSnapRoot, "assets")
}

func TestMain(m *testing.M) {
	code := m.Run()
	if testSnapRoot != "" {
		os.RemoveAll(testSnapRoot)
	}
	os.Exit(code)
}

func TestEndToEnd(t *testing.T) {
	paramsDir, assetsDir := testSnapshotDirs(t)

	prover, err := NewChunkProver(paramsDir, assetsDir)
	require.NoError(t, err)
	verifier, err := NewChunkVerifier(paramsDir, assetsDir)
	require.NoError(t, err)
	require.Equal(t, prover.ChunkVK(), verifier.ChunkVK())

	// Two chained traces of different lengths, so the second chunk also
	// exercises step padding inside the transition circuit.
	var rawTraces [][]byte
	state := u64(7)
	for c := 0; c < 2; c++ {
		trace := &ExecutionTrace{PrevStateRoot: state}
		for s := 0; s < 2+c; s++ {
			trace.Steps = append(trace.Steps, TraceStep{
				Delta: u64(uint64(100*c + s + 1)),
				Word:  u64(uint64(10*c + s)),
			})
		}
		trace.Seal()
		state = trace.PostStateRoot
		raw, err := trace.Encode()
		require.NoError(t, err)
		rawTraces = append(rawTraces, raw)
	}

	proofs := make([]*ChunkProof, len(rawTraces))
	hashes := make([][]byte, len(rawTraces))
	for i, raw := range rawTraces {
		proofs[i], err = prover.GenChunkProof(raw)
		require.NoError(t, err)
		ok, err := verifier.Verify(proofs[i])
		require.NoError(t, err)
		require.True(t, ok)
		hashes[i] = proofs[i].Info.HashBytes()
	}

	t.Run("chunk envelope round trip", func(t *testing.T) {
		raw, err := proofs[0].MarshalBinary()
		require.NoError(t, err)
		ok, err := verifier.VerifyChunkProof(raw)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("chunk proof binds its info", func(t *testing.T) {
		bad := &ChunkProof{Info: proofs[0].Info, Proof: proofs[0].Proof}
		bad.Info.PostStateRoot = u64(12345)
		ok, err := verifier.Verify(bad)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("flipped chunk proof byte is rejected", func(t *testing.T) {
		// Depending on which byte flips, the bytes stop parsing as curve
		// points or the pairing check fails. Both outcomes reject.
		for _, at := range []int{0, len(proofs[0].Proof) / 2, len(proofs[0].Proof) - 1} {
			bad := &ChunkProof{Info: proofs[0].Info, Proof: append([]byte(nil), proofs[0].Proof...)}
			bad.Proof[at] ^= 1
			ok, err := verifier.Verify(bad)
			if err != nil {
				require.ErrorIs(t, err, ErrProofDecode)
			} else {
				require.False(t, ok)
			}
		}
	})

	batchProver, err := NewBatchProver(paramsDir, assetsDir)
	require.NoError(t, err)
	batchVerifier, err := NewBatchVerifier(paramsDir, assetsDir)
	require.NoError(t, err)
	require.Equal(t, batchProver.BatchVK(), batchVerifier.BatchVK())

	t.Run("gate accepts the run and indexes failures", func(t *testing.T) {
		require.NoError(t, batchProver.CheckChunkProofs(proofs))

		swapped := []*ChunkProof{proofs[1], proofs[0]}
		err := batchProver.CheckChunkProofs(swapped)
		var chainErr *ChainBreakError
		require.ErrorAs(t, err, &chainErr)
		require.Equal(t, 1, chainErr.Index)

		tampered := &ChunkProof{Info: proofs[1].Info, Proof: proofs[1].Proof}
		tampered.Info.DataHash = u64(1)
		err = batchProver.CheckChunkProofs([]*ChunkProof{proofs[0], tampered})
		var verifyErr *ChunkVerifyError
		require.ErrorAs(t, err, &verifyErr)
		require.Equal(t, 1, verifyErr.Index)
		require.ErrorIs(t, err, ErrChunkVerify)
	})

	batch, err := batchProver.GenBatchProof(hashes, proofs)
	require.NoError(t, err)
	require.Equal(t, len(proofs), batch.NumChunks())
	require.True(t, batch.PrevStateRoot.Equal(&proofs[0].Info.PrevStateRoot))
	require.True(t, batch.PostStateRoot.Equal(&proofs[1].Info.PostStateRoot))

	t.Run("batch envelope round trip", func(t *testing.T) {
		raw, err := batch.MarshalBinary()
		require.NoError(t, err)
		ok, err := batchVerifier.VerifyBatchProof(raw)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("batch proof binds its publics", func(t *testing.T) {
		mutant := *batch
		mutant.PostStateRoot = u64(12345)
		ok, err := batchVerifier.Verify(&mutant)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("flipped batch proof byte is rejected", func(t *testing.T) {
		for _, at := range []int{0, len(batch.Proof) / 2, len(batch.Proof) - 1} {
			mutant := *batch
			mutant.Proof = append([]byte(nil), batch.Proof...)
			mutant.Proof[at] ^= 1
			ok, err := batchVerifier.Verify(&mutant)
			if err != nil {
				require.ErrorIs(t, err, ErrProofDecode)
			} else {
				require.False(t, ok)
			}
		}
	})

	t.Run("short batch pads to capacity", func(t *testing.T) {
		single, err := batchProver.GenBatchProof(hashes[:1], proofs[:1])
		require.NoError(t, err)
		require.Equal(t, 1, single.NumChunks())
		ok, err := batchVerifier.Verify(single)
		require.NoError(t, err)
		require.True(t, ok)
	})
}
