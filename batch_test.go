package velazk

import (
	"testing"

	frbw6 "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	"github.com/stretchr/testify/require"
)

// chainedInfos builds n chunk proofs whose infos chain, with placeholder
// proof bodies. Enough for every check that precedes proof decoding.
func chainedInfos(n int) ([]*ChunkProof, [][]byte) {
	proofs := make([]*ChunkProof, n)
	hashes := make([][]byte, n)
	state := u64(100)
	for i := 0; i < n; i++ {
		next := mimcSumInner(state, u64(uint64(i+1)))
		proofs[i] = &ChunkProof{
			Info:  ChunkInfo{PrevStateRoot: state, PostStateRoot: next, DataHash: u64(uint64(i + 50))},
			Proof: []byte{1},
		}
		hashes[i] = proofs[i].Info.HashBytes()
		state = next
	}
	return proofs, hashes
}

func TestGenBatchProofInputErrors(t *testing.T) {
	p := &BatchProver{params: CircuitParams{MaxSteps: 2, Capacity: 2}}

	_, err := p.GenBatchProof(nil, nil)
	require.ErrorIs(t, err, ErrBatchSize)

	proofs, hashes := chainedInfos(3)
	_, err = p.GenBatchProof(hashes, proofs)
	require.ErrorIs(t, err, ErrBatchSize)

	proofs, hashes = chainedInfos(2)
	_, err = p.GenBatchProof(hashes[:1], proofs)
	require.ErrorIs(t, err, ErrHashMismatch)

	// Malformed hash encoding.
	bad := [][]byte{hashes[0], []byte{1, 2, 3}}
	_, err = p.GenBatchProof(bad, proofs)
	require.ErrorIs(t, err, ErrProofDecode)

	// Well-formed hash that commits to nothing in the run.
	other := ChunkInfo{PrevStateRoot: u64(1)}
	bad = [][]byte{hashes[0], other.HashBytes()}
	_, err = p.GenBatchProof(bad, proofs)
	var hashErr *HashMismatchError
	require.ErrorAs(t, err, &hashErr)
	require.Equal(t, 1, hashErr.Index)
	require.ErrorIs(t, err, ErrHashMismatch)

	// Broken chain, reported at the later chunk's index.
	proofs, hashes = chainedInfos(2)
	proofs[1].Info.PrevStateRoot = u64(999)
	hashes[1] = proofs[1].Info.HashBytes()
	_, err = p.GenBatchProof(hashes, proofs)
	var chainErr *ChainBreakError
	require.ErrorAs(t, err, &chainErr)
	require.Equal(t, 1, chainErr.Index)
	require.ErrorIs(t, err, ErrChainLink)
}

func TestGenBatchProofThreeChunkBreakIndex(t *testing.T) {
	// Breaking the link between the second and third chunk of a three-chunk
	// run reports index 2, the later chunk.
	p := &BatchProver{params: CircuitParams{MaxSteps: 2, Capacity: 4}}
	proofs, hashes := chainedInfos(3)
	proofs[2].Info.PrevStateRoot = u64(999)
	hashes[2] = proofs[2].Info.HashBytes()

	_, err := p.GenBatchProof(hashes, proofs)
	var chainErr *ChainBreakError
	require.ErrorAs(t, err, &chainErr)
	require.Equal(t, 2, chainErr.Index)
}

func TestCheckChunkRunEmpty(t *testing.T) {
	require.ErrorIs(t, checkChunkRun(nil, nil), ErrBatchSize)
}

func TestBatchVerifierBounds(t *testing.T) {
	v := &BatchVerifier{params: CircuitParams{MaxSteps: 2, Capacity: 2}}

	// More chunks than capacity can never verify under these keys; that is
	// a negative verdict, not an error.
	over := &BatchProof{ChunkHashes: make([]frbw6.Element, 3), Proof: []byte{1}}
	ok, err := v.Verify(over)
	require.NoError(t, err)
	require.False(t, ok)

	// Within bounds, a garbage proof body is a decode error.
	garbage := &BatchProof{ChunkHashes: make([]frbw6.Element, 1), Proof: []byte{1, 2, 3}}
	_, err = v.Verify(garbage)
	require.ErrorIs(t, err, ErrProofDecode)
}

func TestBatchProofEnvelopeRoundTrip(t *testing.T) {
	var h0, h1 frbw6.Element
	h0.SetUint64(41)
	h1.SetUint64(42)
	var digest frbw6.Element
	digest.SetUint64(43)
	proof := &BatchProof{
		ChunkHashes:   []frbw6.Element{h0, h1},
		PrevStateRoot: u64(1),
		PostStateRoot: u64(2),
		DataDigest:    digest,
		Proof:         []byte{9, 9, 9},
	}
	raw, err := proof.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeBatchProof(raw)
	require.NoError(t, err)
	require.Equal(t, proof, decoded)
	require.Equal(t, 2, decoded.NumChunks())
}

func TestBatchProofEnvelopeErrors(t *testing.T) {
	_, err := DecodeBatchProof([]byte("junk"))
	require.ErrorIs(t, err, ErrProofDecode)

	// No chunks.
	raw, err := encMode().Marshal(batchProofWire{
		Version:       BATCH_PROOF_VERSION,
		PrevStateRoot: innerElementBytes(u64(1)),
		PostStateRoot: innerElementBytes(u64(2)),
		DataDigest:    outerElementBytes(frbw6.Element{}),
		Proof:         []byte{1},
	})
	require.NoError(t, err)
	_, err = DecodeBatchProof(raw)
	require.ErrorIs(t, err, ErrProofDecode)

	// Empty proof body.
	raw, err = encMode().Marshal(batchProofWire{
		Version:       BATCH_PROOF_VERSION,
		ChunkHashes:   [][]byte{outerElementBytes(frbw6.Element{})},
		PrevStateRoot: innerElementBytes(u64(1)),
		PostStateRoot: innerElementBytes(u64(2)),
		DataDigest:    outerElementBytes(frbw6.Element{}),
	})
	require.NoError(t, err)
	_, err = DecodeBatchProof(raw)
	require.ErrorIs(t, err, ErrProofDecode)
}
