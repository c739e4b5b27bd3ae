package transition

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	fr "github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/mimc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
)

// Cross-checks the circuit against the native MiMC folding it must mirror.

const maxSteps = 3

func sum2(a, b fr.Element) fr.Element {
	h := mimc.NewMiMC()
	ab, bb := a.Bytes(), b.Bytes()
	h.Write(ab[:])
	h.Write(bb[:])
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}

func template() *Circuit {
	return &Circuit{
		Deltas: make([]frontend.Variable, maxSteps),
		Words:  make([]frontend.Variable, maxSteps),
		Active: make([]frontend.Variable, maxSteps),
	}
}

// assignment folds nSteps synthetic steps natively and pads to maxSteps.
func assignment(nSteps int) *Circuit {
	var state, data fr.Element
	state.SetUint64(11)
	c := template()
	c.PrevStateRoot = state.String()
	for i := 0; i < maxSteps; i++ {
		if i < nSteps {
			var delta, word fr.Element
			delta.SetUint64(uint64(i + 1))
			word.SetUint64(uint64(i + 7))
			state = sum2(state, delta)
			data = sum2(data, word)
			c.Deltas[i] = delta.String()
			c.Words[i] = word.String()
			c.Active[i] = 1
		} else {
			c.Deltas[i] = 0
			c.Words[i] = 0
			c.Active[i] = 0
		}
	}
	c.PostStateRoot = state.String()
	c.DataHash = data.String()
	return c
}

func TestTransitionCircuit(t *testing.T) {
	assert := test.NewAssert(t)

	full := assignment(maxSteps)
	padded := assignment(2)

	wrongPost := assignment(2)
	wrongPost.PostStateRoot = 12345

	wrongData := assignment(2)
	wrongData.DataHash = 12345

	// A step after an inactive slot breaks the prefix invariant.
	gap := assignment(2)
	gap.Active[1], gap.Active[2] = 0, 1

	empty := assignment(0)

	nonBoolean := assignment(2)
	nonBoolean.Active[1] = 2

	assert.CheckCircuit(
		template(),
		test.WithValidAssignment(full),
		test.WithValidAssignment(padded),
		test.WithInvalidAssignment(wrongPost),
		test.WithInvalidAssignment(wrongData),
		test.WithInvalidAssignment(gap),
		test.WithInvalidAssignment(empty),
		test.WithInvalidAssignment(nonBoolean),
		test.WithCurves(ecc.BLS12_377),
	)
}

func TestTransitionPaddingNeutral(t *testing.T) {
	// Padding slots must not influence the folded publics: the padded
	// assignment's outputs equal a native fold over just the real steps.
	a := assignment(1)
	var state fr.Element
	state.SetUint64(11)
	var delta fr.Element
	delta.SetUint64(1)
	want := sum2(state, delta)
	if a.PostStateRoot != want.String() {
		t.Fatalf("padded fold diverged: got %v, want %v", a.PostStateRoot, want.String())
	}
}
