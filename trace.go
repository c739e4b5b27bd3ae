package velazk

import (
	"fmt"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/fxamacker/cbor/v2"
)

// Envelopes crossing the host boundary are CBOR with integer keys and
// deterministic encoding, so identical records always serialize to identical
// bytes.
var encMode = sync.OnceValue(func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
})

// TraceStep is one state-transition step of a chunk: a state delta folded
// into the state commitment and the data word it exposes externally.
type TraceStep struct {
	Delta fr.Element
	Word  fr.Element
}

// ExecutionTrace is the decoded form of one chunk's execution record. The
// post-state root is the trace producer's claim; proving fails if replaying
// the deltas does not reach it.
type ExecutionTrace struct {
	PrevStateRoot fr.Element
	PostStateRoot fr.Element
	Steps         []TraceStep
}

type stepWire struct {
	Delta []byte `cbor:"1,keyasint"`
	Word  []byte `cbor:"2,keyasint"`
}

type traceWire struct {
	Version       uint16     `cbor:"1,keyasint"`
	PrevStateRoot []byte     `cbor:"2,keyasint"`
	PostStateRoot []byte     `cbor:"3,keyasint"`
	Steps         []stepWire `cbor:"4,keyasint"`
}

// decodeInnerElement parses a canonical 32-byte big-endian BLS12-377 scalar.
// Values at or above the modulus are rejected rather than reduced.
func decodeInnerElement(b []byte) (fr.Element, error) {
	if len(b) != STATE_ROOT_SIZE {
		return fr.Element{}, fmt.Errorf("encoding is %d bytes, want %d", len(b), STATE_ROOT_SIZE)
	}
	return fr.BigEndian.Element((*[fr.Bytes]byte)(b))
}

// DecodeTrace parses a serialized execution trace. Failures wrap
// ErrTraceDecode.
func DecodeTrace(raw []byte) (*ExecutionTrace, error) {
	var wire traceWire
	if err := cbor.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTraceDecode, err)
	}
	if wire.Version != TRACE_VERSION {
		return nil, fmt.Errorf("%w: unsupported trace version %d", ErrTraceDecode, wire.Version)
	}
	var trace ExecutionTrace
	var err error
	if trace.PrevStateRoot, err = decodeInnerElement(wire.PrevStateRoot); err != nil {
		return nil, fmt.Errorf("%w: pre-state root: %v", ErrTraceDecode, err)
	}
	if trace.PostStateRoot, err = decodeInnerElement(wire.PostStateRoot); err != nil {
		return nil, fmt.Errorf("%w: post-state root: %v", ErrTraceDecode, err)
	}
	trace.Steps = make([]TraceStep, len(wire.Steps))
	for i, s := range wire.Steps {
		if trace.Steps[i].Delta, err = decodeInnerElement(s.Delta); err != nil {
			return nil, fmt.Errorf("%w: step %d delta: %v", ErrTraceDecode, i, err)
		}
		if trace.Steps[i].Word, err = decodeInnerElement(s.Word); err != nil {
			return nil, fmt.Errorf("%w: step %d word: %v", ErrTraceDecode, i, err)
		}
	}
	return &trace, nil
}

// Encode serializes the trace in the external wire format. It is the inverse
// of DecodeTrace and exists for trace producers and tests.
func (me *ExecutionTrace) Encode() ([]byte, error) {
	wire := traceWire{
		Version:       TRACE_VERSION,
		PrevStateRoot: innerElementBytes(me.PrevStateRoot),
		PostStateRoot: innerElementBytes(me.PostStateRoot),
		Steps:         make([]stepWire, len(me.Steps)),
	}
	for i, s := range me.Steps {
		wire.Steps[i] = stepWire{
			Delta: innerElementBytes(s.Delta),
			Word:  innerElementBytes(s.Word),
		}
	}
	return encMode().Marshal(&wire)
}

// Seal replays the delta chain and records the resulting post-state root as
// the trace's claim. Trace producers that executed the steps already know the
// post-state and set it directly; Seal exists for synthetic traces.
func (me *ExecutionTrace) Seal() {
	me.PostStateRoot = foldState(me.PrevStateRoot, me.Steps)
}

// ChunkInfo derives the public metadata the chunk proof binds to. Pure: the
// pre-state and claimed post-state come from the trace, the data hash is the
// MiMC digest of the trace's data words.
func (me *ExecutionTrace) ChunkInfo() ChunkInfo {
	return ChunkInfo{
		PrevStateRoot: me.PrevStateRoot,
		PostStateRoot: me.PostStateRoot,
		DataHash:      dataDigest(me.Steps),
	}
}

// ChunkInfoFromTrace decodes a serialized trace and derives its ChunkInfo.
// Requires no key material and must succeed for any well-formed trace.
func ChunkInfoFromTrace(raw []byte) (*ChunkInfo, error) {
	trace, err := DecodeTrace(raw)
	if err != nil {
		return nil, err
	}
	info := trace.ChunkInfo()
	return &info, nil
}

func innerElementBytes(e fr.Element) []byte {
	b := e.Bytes()
	return b[:]
}
