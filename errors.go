package velazk

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every failure returned by this package wraps one of these,
// so callers can classify with errors.Is without parsing messages. A proof
// that parses but does not verify is not an error; it is a negative boolean
// result.
var (
	// ErrNotInitialized is returned when a role operation is invoked before
	// the role was initialized from a parameter/assets snapshot.
	ErrNotInitialized = errors.New("velazk: role not initialized")

	// ErrAlreadyInitialized is returned on a second initialization attempt of
	// the same role. Roles are init-once for the process lifetime.
	ErrAlreadyInitialized = errors.New("velazk: role already initialized")

	// ErrSnapshotMismatch is returned when key material does not belong to
	// the parameter snapshot it is being loaded with, or a file digest does
	// not match its manifest entry.
	ErrSnapshotMismatch = errors.New("velazk: parameter/assets snapshot mismatch")

	// ErrTraceDecode marks a malformed execution trace.
	ErrTraceDecode = errors.New("velazk: malformed execution trace")

	// ErrProofDecode marks bytes that cannot be parsed as a proof at all.
	ErrProofDecode = errors.New("velazk: malformed proof")

	// ErrWitnessGeneration marks a well-formed trace that does not describe
	// an executable state transition.
	ErrWitnessGeneration = errors.New("velazk: witness generation failed")

	// ErrProving marks a cryptographic or resource failure while building a
	// proof. Never retried internally.
	ErrProving = errors.New("velazk: proof generation failed")

	// ErrHashMismatch marks a declared chunk hash that does not commit to its
	// paired proof's chunk info.
	ErrHashMismatch = errors.New("velazk: chunk hash mismatch")

	// ErrChainLink marks adjacent chunks whose state commitments do not
	// chain.
	ErrChainLink = errors.New("velazk: chunks do not chain")

	// ErrBatchSize marks a batch whose chunk count is outside the capacity
	// the aggregation keys were set up for.
	ErrBatchSize = errors.New("velazk: batch size out of range")

	// ErrChunkVerify marks a chunk proof in an aggregation run that does not
	// verify under the snapshot's chunk key.
	ErrChunkVerify = errors.New("velazk: chunk proof in run does not verify")
)

// ChainBreakError reports the first index whose pre-state does not equal the
// previous chunk's post-state.
type ChainBreakError struct {
	Index int
}

func (me *ChainBreakError) Error() string {
	return fmt.Sprintf("velazk: chunk %d does not chain: its pre-state differs from the post-state of chunk %d", me.Index, me.Index-1)
}

func (me *ChainBreakError) Unwrap() error { return ErrChainLink }

// HashMismatchError reports the index of a declared chunk hash that does not
// match the commitment recomputed from its proof's chunk info.
type HashMismatchError struct {
	Index int
}

func (me *HashMismatchError) Error() string {
	return fmt.Sprintf("velazk: declared hash of chunk %d does not commit to its proof", me.Index)
}

func (me *HashMismatchError) Unwrap() error { return ErrHashMismatch }

// ChunkVerifyError reports the index of a chunk proof rejected by the
// aggregation pre-flight gate.
type ChunkVerifyError struct {
	Index int
}

func (me *ChunkVerifyError) Error() string {
	return fmt.Sprintf("velazk: chunk proof %d does not verify", me.Index)
}

func (me *ChunkVerifyError) Unwrap() error { return ErrChunkVerify }
