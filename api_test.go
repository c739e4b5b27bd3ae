package velazk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func resetHost() {
	apiMu.Lock()
	defer apiMu.Unlock()
	gChunkProver = nil
	gChunkVerifier = nil
	gBatchProver = nil
	gBatchVerifier = nil
}

func TestHostOperationsBeforeInit(t *testing.T) {
	resetHost()
	t.Cleanup(resetHost)

	_, err := GenChunkProof(nil)
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = VerifyChunkProof(nil)
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = GetChunkVK()
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = GetBatchVK()
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, CheckChunkProofs(nil), ErrNotInitialized)
	_, err = GenBatchProof(nil, nil)
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = VerifyBatchProof(nil)
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestHostInitIsOnce(t *testing.T) {
	resetHost()
	t.Cleanup(resetHost)

	// Roles refuse re-initialization regardless of the new snapshot's
	// validity, so the check runs before any disk access.
	apiMu.Lock()
	gChunkProver = &ChunkProver{}
	gChunkVerifier = &ChunkVerifier{}
	gBatchProver = &BatchProver{}
	gBatchVerifier = &BatchVerifier{}
	apiMu.Unlock()

	require.ErrorIs(t, InitChunkProver("", ""), ErrAlreadyInitialized)
	require.ErrorIs(t, InitChunkVerifier("", ""), ErrAlreadyInitialized)
	require.ErrorIs(t, InitBatchProver("", ""), ErrAlreadyInitialized)
	require.ErrorIs(t, InitBatchVerifier("", ""), ErrAlreadyInitialized)
}

func TestHostInitBadSnapshot(t *testing.T) {
	resetHost()
	t.Cleanup(resetHost)

	// A failed init leaves the role uninitialized.
	require.Error(t, InitChunkVerifier(t.TempDir(), t.TempDir()))
	_, err := VerifyChunkProof(nil)
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestChunkTraceToChunkInfoNeedsNoInit(t *testing.T) {
	resetHost()
	t.Cleanup(resetHost)

	trace := testTrace(2)
	raw, err := trace.Encode()
	require.NoError(t, err)

	rawInfo, err := ChunkTraceToChunkInfo(raw)
	require.NoError(t, err)
	info, err := DecodeChunkInfo(rawInfo)
	require.NoError(t, err)
	require.True(t, info.PostStateRoot.Equal(&trace.PostStateRoot))

	_, err = ChunkTraceToChunkInfo([]byte("junk"))
	require.ErrorIs(t, err, ErrTraceDecode)
}
