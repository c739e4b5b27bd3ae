package velazk

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	fr377 "github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	frbw6 "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/fxamacker/cbor/v2"
)

// ChunkProof is one chunk's proof together with the chunk info it attests
// to. The proof bytes are gnark's canonical BLS12-377 PLONK serialization;
// the public witness is reconstructed from the info on verification, so the
// binding between the two is structural.
type ChunkProof struct {
	Info  ChunkInfo
	Proof []byte
}

type chunkProofWire struct {
	Version uint16        `cbor:"1,keyasint"`
	Info    chunkInfoWire `cbor:"2,keyasint"`
	Proof   []byte        `cbor:"3,keyasint"`
}

// MarshalBinary serializes the proof envelope for the host boundary.
func (me *ChunkProof) MarshalBinary() ([]byte, error) {
	return encMode().Marshal(chunkProofWire{
		Version: CHUNK_PROOF_VERSION,
		Info:    me.Info.wire(),
		Proof:   me.Proof,
	})
}

// UnmarshalBinary parses a proof envelope. Failures wrap ErrProofDecode.
func (me *ChunkProof) UnmarshalBinary(raw []byte) error {
	var wire chunkProofWire
	if err := cbor.Unmarshal(raw, &wire); err != nil {
		return fmt.Errorf("%w: chunk proof envelope: %v", ErrProofDecode, err)
	}
	if wire.Version != CHUNK_PROOF_VERSION {
		return fmt.Errorf("%w: unsupported chunk proof version %d", ErrProofDecode, wire.Version)
	}
	if len(wire.Proof) == 0 {
		return fmt.Errorf("%w: empty chunk proof body", ErrProofDecode)
	}
	if err := me.Info.fromWire(wire.Info); err != nil {
		return fmt.Errorf("%w: chunk proof envelope: %v", ErrProofDecode, err)
	}
	me.Proof = wire.Proof
	return nil
}

// DecodeChunkProof parses a serialized chunk proof envelope.
func DecodeChunkProof(raw []byte) (*ChunkProof, error) {
	var proof ChunkProof
	if err := proof.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return &proof, nil
}

// gnarkProof deserializes the embedded proof body, rejecting truncated or
// padded encodings.
func (me *ChunkProof) gnarkProof() (plonk.Proof, error) {
	gp := plonk.NewProof(ecc.BLS12_377)
	n, err := gp.ReadFrom(bytes.NewReader(me.Proof))
	if err != nil {
		return nil, fmt.Errorf("%w: chunk proof body: %v", ErrProofDecode, err)
	}
	if n != int64(len(me.Proof)) {
		return nil, fmt.Errorf("%w: chunk proof body has %d trailing bytes", ErrProofDecode, int64(len(me.Proof))-n)
	}
	return gp, nil
}

// BatchProof is the recursive aggregate over an ordered run of chunks. Its
// public inputs carry the chunk commitments, the batch's first pre-state and
// last post-state, and the rolling data-availability commitment.
type BatchProof struct {
	ChunkHashes   []frbw6.Element
	PrevStateRoot fr377.Element
	PostStateRoot fr377.Element
	DataDigest    frbw6.Element
	Proof         []byte
}

type batchProofWire struct {
	Version       uint16   `cbor:"1,keyasint"`
	ChunkHashes   [][]byte `cbor:"2,keyasint"`
	PrevStateRoot []byte   `cbor:"3,keyasint"`
	PostStateRoot []byte   `cbor:"4,keyasint"`
	DataDigest    []byte   `cbor:"5,keyasint"`
	Proof         []byte   `cbor:"6,keyasint"`
}

// NumChunks is the number of real (non-padding) chunks the batch covers.
func (me *BatchProof) NumChunks() int { return len(me.ChunkHashes) }

// MarshalBinary serializes the batch proof envelope for the host boundary.
func (me *BatchProof) MarshalBinary() ([]byte, error) {
	hashes := make([][]byte, len(me.ChunkHashes))
	for i, h := range me.ChunkHashes {
		hashes[i] = outerElementBytes(h)
	}
	return encMode().Marshal(batchProofWire{
		Version:       BATCH_PROOF_VERSION,
		ChunkHashes:   hashes,
		PrevStateRoot: innerElementBytes(me.PrevStateRoot),
		PostStateRoot: innerElementBytes(me.PostStateRoot),
		DataDigest:    outerElementBytes(me.DataDigest),
		Proof:         me.Proof,
	})
}

// UnmarshalBinary parses a batch proof envelope. Failures wrap
// ErrProofDecode.
func (me *BatchProof) UnmarshalBinary(raw []byte) error {
	var wire batchProofWire
	if err := cbor.Unmarshal(raw, &wire); err != nil {
		return fmt.Errorf("%w: batch proof envelope: %v", ErrProofDecode, err)
	}
	if wire.Version != BATCH_PROOF_VERSION {
		return fmt.Errorf("%w: unsupported batch proof version %d", ErrProofDecode, wire.Version)
	}
	if len(wire.ChunkHashes) == 0 {
		return fmt.Errorf("%w: batch proof covers no chunks", ErrProofDecode)
	}
	if len(wire.Proof) == 0 {
		return fmt.Errorf("%w: empty batch proof body", ErrProofDecode)
	}
	var err error
	me.ChunkHashes = make([]frbw6.Element, len(wire.ChunkHashes))
	for i, h := range wire.ChunkHashes {
		if me.ChunkHashes[i], err = decodeOuterElement(h); err != nil {
			return fmt.Errorf("%w: chunk hash %d: %v", ErrProofDecode, i, err)
		}
	}
	if me.PrevStateRoot, err = decodeInnerElement(wire.PrevStateRoot); err != nil {
		return fmt.Errorf("%w: pre-state root: %v", ErrProofDecode, err)
	}
	if me.PostStateRoot, err = decodeInnerElement(wire.PostStateRoot); err != nil {
		return fmt.Errorf("%w: post-state root: %v", ErrProofDecode, err)
	}
	if me.DataDigest, err = decodeOuterElement(wire.DataDigest); err != nil {
		return fmt.Errorf("%w: data digest: %v", ErrProofDecode, err)
	}
	me.Proof = wire.Proof
	return nil
}

// DecodeBatchProof parses a serialized batch proof envelope.
func DecodeBatchProof(raw []byte) (*BatchProof, error) {
	var proof BatchProof
	if err := proof.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return &proof, nil
}

func (me *BatchProof) gnarkProof() (plonk.Proof, error) {
	gp := plonk.NewProof(ecc.BW6_761)
	n, err := gp.ReadFrom(bytes.NewReader(me.Proof))
	if err != nil {
		return nil, fmt.Errorf("%w: batch proof body: %v", ErrProofDecode, err)
	}
	if n != int64(len(me.Proof)) {
		return nil, fmt.Errorf("%w: batch proof body has %d trailing bytes", ErrProofDecode, int64(len(me.Proof))-n)
	}
	return gp, nil
}

// decodeOuterElement parses a canonical 48-byte big-endian BW6-761 scalar.
func decodeOuterElement(b []byte) (frbw6.Element, error) {
	if len(b) != CHUNK_HASH_SIZE {
		return frbw6.Element{}, fmt.Errorf("encoding is %d bytes, want %d", len(b), CHUNK_HASH_SIZE)
	}
	return frbw6.BigEndian.Element((*[frbw6.Bytes]byte)(b))
}

func outerElementBytes(e frbw6.Element) []byte {
	b := e.Bytes()
	return b[:]
}
