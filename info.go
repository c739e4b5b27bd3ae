package velazk

import (
	"bytes"
	"fmt"

	fr377 "github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	frbw6 "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	"github.com/fxamacker/cbor/v2"
)

// ChunkInfo is the public metadata a chunk proof attests to: the state
// commitment before and after the chunk and the commitment to the chunk's
// externally visible data.
type ChunkInfo struct {
	PrevStateRoot fr377.Element
	PostStateRoot fr377.Element
	DataHash      fr377.Element
}

type chunkInfoWire struct {
	PrevStateRoot []byte `cbor:"1,keyasint"`
	PostStateRoot []byte `cbor:"2,keyasint"`
	DataHash      []byte `cbor:"3,keyasint"`
}

// Hash commits to the chunk info as a BW6-761 scalar. This is the linking
// value between the chunk and batch tiers; the aggregation circuit recomputes
// it from the recursive proof's public inputs.
func (me *ChunkInfo) Hash() frbw6.Element {
	return mimcSumOuter(toOuter(me.PrevStateRoot), toOuter(me.PostStateRoot), toOuter(me.DataHash))
}

// HashBytes is the canonical 48-byte big-endian encoding of Hash, the form a
// host process passes back into batch proving.
func (me *ChunkInfo) HashBytes() []byte {
	h := me.Hash()
	b := h.Bytes()
	return b[:]
}

// MatchesHash reports whether declared is the canonical encoding of this
// chunk info's commitment.
func (me *ChunkInfo) MatchesHash(declared []byte) bool {
	return bytes.Equal(declared, me.HashBytes())
}

// Encode serializes the chunk info in the external wire format.
func (me *ChunkInfo) Encode() ([]byte, error) {
	return encMode().Marshal(me.wire())
}

func (me *ChunkInfo) wire() chunkInfoWire {
	return chunkInfoWire{
		PrevStateRoot: innerElementBytes(me.PrevStateRoot),
		PostStateRoot: innerElementBytes(me.PostStateRoot),
		DataHash:      innerElementBytes(me.DataHash),
	}
}

func (me *ChunkInfo) fromWire(wire chunkInfoWire) error {
	var err error
	if me.PrevStateRoot, err = decodeInnerElement(wire.PrevStateRoot); err != nil {
		return fmt.Errorf("pre-state root: %w", err)
	}
	if me.PostStateRoot, err = decodeInnerElement(wire.PostStateRoot); err != nil {
		return fmt.Errorf("post-state root: %w", err)
	}
	if me.DataHash, err = decodeInnerElement(wire.DataHash); err != nil {
		return fmt.Errorf("data hash: %w", err)
	}
	return nil
}

// DecodeChunkInfo parses a serialized chunk info. Failures wrap
// ErrProofDecode since chunk infos only cross the boundary inside proof
// envelopes or as their companions.
func DecodeChunkInfo(raw []byte) (*ChunkInfo, error) {
	var wire chunkInfoWire
	if err := cbor.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: chunk info: %v", ErrProofDecode, err)
	}
	var info ChunkInfo
	if err := info.fromWire(wire); err != nil {
		return nil, fmt.Errorf("%w: chunk info: %v", ErrProofDecode, err)
	}
	return &info, nil
}
