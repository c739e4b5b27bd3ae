// Package transition contains the chunk state-transition circuit. It proves,
// over BLS12-377, that folding a trace's state deltas into the pre-state
// commitment reaches the claimed post-state commitment, and that the exposed
// data words hash to the claimed data-availability commitment.
package transition

import (
	"errors"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// Circuit is sized at compile time by the slice lengths of its template (the
// MaxSteps setup parameter). Shorter traces are padded with inactive steps.
//
// Public input order is pre-state, post-state, data hash; the aggregation
// circuit depends on it.
type Circuit struct {
	PrevStateRoot frontend.Variable `gnark:",public"`
	PostStateRoot frontend.Variable `gnark:",public"`
	DataHash      frontend.Variable `gnark:",public"`

	// Per-step witness. Active flags are boolean, start at 1 and are
	// monotone non-increasing, so a trace is a contiguous prefix of the
	// step slots.
	Deltas []frontend.Variable
	Words  []frontend.Variable
	Active []frontend.Variable
}

func (me *Circuit) Define(api frontend.API) error {
	if len(me.Deltas) == 0 || len(me.Deltas) != len(me.Words) || len(me.Deltas) != len(me.Active) {
		return errors.New("step slices must be non-empty and of equal length")
	}
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}

	// At least one step executes.
	api.AssertIsEqual(me.Active[0], 1)

	state := me.PrevStateRoot
	digest := frontend.Variable(0)
	for i := range me.Deltas {
		api.AssertIsBoolean(me.Active[i])
		if i > 0 {
			// No active step may follow an inactive one.
			api.AssertIsEqual(api.Mul(me.Active[i], api.Sub(1, me.Active[i-1])), 0)
		}

		h.Reset()
		h.Write(state, me.Deltas[i])
		state = api.Select(me.Active[i], h.Sum(), state)

		h.Reset()
		h.Write(digest, me.Words[i])
		digest = api.Select(me.Active[i], h.Sum(), digest)
	}

	api.AssertIsEqual(state, me.PostStateRoot)
	api.AssertIsEqual(digest, me.DataHash)
	return nil
}
