package velazk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkProofEnvelopeRoundTrip(t *testing.T) {
	proof := &ChunkProof{
		Info:  ChunkInfo{PrevStateRoot: u64(1), PostStateRoot: u64(2), DataHash: u64(3)},
		Proof: []byte{0xde, 0xad, 0xbe, 0xef},
	}
	raw, err := proof.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeChunkProof(raw)
	require.NoError(t, err)
	require.Equal(t, proof, decoded)
}

func TestChunkProofEnvelopeErrors(t *testing.T) {
	_, err := DecodeChunkProof([]byte("junk"))
	require.ErrorIs(t, err, ErrProofDecode)

	raw, err := encMode().Marshal(chunkProofWire{
		Version: 99,
		Info:    (&ChunkInfo{}).wire(),
		Proof:   []byte{1},
	})
	require.NoError(t, err)
	_, err = DecodeChunkProof(raw)
	require.ErrorIs(t, err, ErrProofDecode)

	raw, err = encMode().Marshal(chunkProofWire{
		Version: CHUNK_PROOF_VERSION,
		Info:    (&ChunkInfo{}).wire(),
	})
	require.NoError(t, err)
	_, err = DecodeChunkProof(raw)
	require.ErrorIs(t, err, ErrProofDecode)

	// The embedded proof body is validated lazily.
	proof := &ChunkProof{Proof: []byte{1, 2, 3}}
	_, err = proof.gnarkProof()
	require.ErrorIs(t, err, ErrProofDecode)
}

func TestGenChunkProofInputErrors(t *testing.T) {
	p := &ChunkProver{params: CircuitParams{MaxSteps: 2, Capacity: 2}}

	_, err := p.GenChunkProof([]byte("junk"))
	require.ErrorIs(t, err, ErrTraceDecode)

	empty := testTrace(0)
	raw, err := empty.Encode()
	require.NoError(t, err)
	_, err = p.GenChunkProof(raw)
	require.ErrorIs(t, err, ErrWitnessGeneration)

	long := testTrace(3)
	raw, err = long.Encode()
	require.NoError(t, err)
	_, err = p.GenChunkProof(raw)
	require.ErrorIs(t, err, ErrWitnessGeneration)

	// A claimed post-state the replay does not reach.
	lying := testTrace(2)
	lying.PostStateRoot = u64(12345)
	raw, err = lying.Encode()
	require.NoError(t, err)
	_, err = p.GenChunkProof(raw)
	require.ErrorIs(t, err, ErrWitnessGeneration)
}
