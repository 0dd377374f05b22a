package solver

import (
	"context"
	"math/rand"
)

const improvePasses = 40

// improve runs a first-improvement local search over three move kinds:
// transfer a duty between staff, add a duty, and remove one. Moves that
// would flip a forced cell are never tried; everything else is judged by
// the full objective, where hard violations dominate.
func (m *model) improve(ctx context.Context, x [][]bool, rng *rand.Rand) score {
	best := m.evaluate(x)

	order := make([]int, m.n)
	for d := range order {
		order[d] = d
	}

	for pass := 0; pass < improvePasses; pass++ {
		if ctx.Err() != nil {
			return best
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		changed := false

		for _, d := range order {
			on := 0
			for s := 0; s < m.m; s++ {
				if x[s][d] {
					on++
				}
			}

			// Transfer: move the duty from one staff to another.
			for from := 0; from < m.m; from++ {
				if !x[from][d] || m.forced[from][d] == forcedOn {
					continue
				}
				for to := 0; to < m.m; to++ {
					if to == from || x[to][d] || m.forced[to][d] == forcedOff {
						continue
					}
					x[from][d] = false
					x[to][d] = true
					if sc := m.evaluate(x); sc.better(best) {
						best = sc
						changed = true
						// x[from][d] is false now; the revert below
						// must never run for this holder again.
						break
					}
					x[from][d] = true
					x[to][d] = false
				}
			}

			// Add: fill an unused slot.
			if on < m.need[d].Max {
				for s := 0; s < m.m; s++ {
					if x[s][d] || m.forced[s][d] == forcedOff {
						continue
					}
					x[s][d] = true
					if sc := m.evaluate(x); sc.better(best) {
						best = sc
						changed = true
						on++
					} else {
						x[s][d] = false
					}
				}
			}

			// Remove: drop above-minimum staffing.
			if on > m.need[d].Min {
				for s := 0; s < m.m; s++ {
					if !x[s][d] || m.forced[s][d] == forcedOn {
						continue
					}
					x[s][d] = false
					if sc := m.evaluate(x); sc.better(best) {
						best = sc
						changed = true
						on--
					} else {
						x[s][d] = true
					}
				}
			}
		}

		if !changed {
			break
		}
	}
	return best
}
