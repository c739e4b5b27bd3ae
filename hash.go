package velazk

import (
	fr377 "github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	mimc377 "github.com/consensys/gnark-crypto/ecc/bls12-377/fr/mimc"
	frbw6 "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	mimcbw6 "github.com/consensys/gnark-crypto/ecc/bw6-761/fr/mimc"
)

// Native MiMC helpers. Each mirrors, block for block, a hash computed inside
// one of the circuits: the transition circuit folds states and data words
// over BLS12-377, the aggregation circuit commits to chunk infos and folds
// batch data over BW6-761. Any change here must change the circuits too.

func mimcSumInner(vals ...fr377.Element) fr377.Element {
	h := mimc377.NewMiMC()
	for _, v := range vals {
		b := v.Bytes()
		h.Write(b[:])
	}
	var out fr377.Element
	out.SetBytes(h.Sum(nil))
	return out
}

func mimcSumOuter(vals ...frbw6.Element) frbw6.Element {
	h := mimcbw6.NewMiMC()
	for _, v := range vals {
		b := v.Bytes()
		h.Write(b[:])
	}
	var out frbw6.Element
	out.SetBytes(h.Sum(nil))
	return out
}

// toOuter embeds a BLS12-377 scalar into the BW6-761 scalar field. The inner
// modulus is smaller, so the value is carried over unchanged.
func toOuter(e fr377.Element) frbw6.Element {
	b := e.Bytes()
	var out frbw6.Element
	out.SetBytes(b[:])
	return out
}

// foldState replays the trace's delta chain from the pre-state root.
func foldState(pre fr377.Element, steps []TraceStep) fr377.Element {
	state := pre
	for _, s := range steps {
		state = mimcSumInner(state, s.Delta)
	}
	return state
}

// dataDigest is the rolling MiMC commitment to the trace's data words,
// starting from zero.
func dataDigest(steps []TraceStep) fr377.Element {
	var acc fr377.Element
	for _, s := range steps {
		acc = mimcSumInner(acc, s.Word)
	}
	return acc
}

// foldBatchData is the rolling commitment to per-chunk data hashes, the
// batch-level aggregate of the chunks' data-availability commitments.
func foldBatchData(infos []ChunkInfo) frbw6.Element {
	var acc frbw6.Element
	for i := range infos {
		acc = mimcSumOuter(acc, toOuter(infos[i].DataHash))
	}
	return acc
}
