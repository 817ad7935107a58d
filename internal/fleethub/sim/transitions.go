package sim

import (
	"fmt"
	"math/rand/v2"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

// Transition is one outgoing edge of the status table.
type Transition struct {
	To          model.Status
	Probability float64
}

// TransitionTable gives, per status, the per-tick probability of moving to
// another status. Statuses without a row never change in the simulator.
type TransitionTable map[model.Status][]Transition

// DefaultTransitions keeps roughly five percent of vessels changing status per tick.
func DefaultTransitions() TransitionTable {
	return TransitionTable{
		model.StatusAtSea: {
			{To: model.StatusAnchored, Probability: 0.02},
			{To: model.StatusInPort, Probability: 0.01},
		},
		model.StatusAnchored: {
			{To: model.StatusAtSea, Probability: 0.08},
			{To: model.StatusInPort, Probability: 0.02},
		},
		model.StatusInPort: {
			{To: model.StatusAtSea, Probability: 0.05},
			{To: model.StatusAnchored, Probability: 0.01},
		},
	}
}

// Validate rejects tables that reach statuses the simulator may not enter or
// whose rows sum above one.
func (t TransitionTable) Validate() error {
	for from, row := range t {
		sum := 0.0
		for _, tr := range row {
			switch tr.To {
			case model.StatusAtSea, model.StatusAnchored, model.StatusInPort:
			default:
				return fmt.Errorf("transition %s -> %s: target not reachable by simulation", from, tr.To)
			}
			if tr.Probability < 0 {
				return fmt.Errorf("transition %s -> %s: negative probability", from, tr.To)
			}
			sum += tr.Probability
		}
		if sum > 1 {
			return fmt.Errorf("transitions from %s sum to %.3f", from, sum)
		}
	}
	return nil
}

// Next draws the status following from.
func (t TransitionTable) Next(rng *rand.Rand, from model.Status) model.Status {
	row, ok := t[from]
	if !ok {
		return from
	}
	r := rng.Float64()
	acc := 0.0
	for _, tr := range row {
		acc += tr.Probability
		if r < acc {
			return tr.To
		}
	}
	return from
}
