// Package depgraph implements the frame-graph dependency resolver, spec
// §4.2: backward-liveness propagation from the render-frame sink, pairwise
// dependency computation with latest-writer-wins semantics, and a
// declaration-order-stable topological sort with cycle detection.
//
// No example repo in the pack ships a general-purpose graph/topo-sort
// library (gogpu-gg and gogpu-wgpu resolve all internal orderings ad hoc,
// e.g. recording/pool.go's worker scheduling) — this package follows that
// same practice rather than reaching for an external graph library nothing
// in the corpus uses. See DESIGN.md.
package depgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/framegraph/internal/smallset"
)

// ErrCycle is returned by Resolve when the live passes contain a dependency
// cycle.
var ErrCycle = errors.New("depgraph: cyclic dependency")

// NoSink indicates a build with no designated render-frame sink.
const NoSink = -1

// PassUsage is the per-pass read/write texture-id summary the resolver
// needs. Texture ids and pass indices are declaration-order indices, opaque
// to this package.
type PassUsage struct {
	// Reads are textures this pass samples, binds as input attachment, or
	// reads as depth/stencil.
	Reads []int
	// Writes are textures this pass writes as color output, depth/stencil,
	// or clears.
	Writes []int
}

// Input is the resolver's input: one PassUsage per declared pass, in
// declaration order, plus the sink texture id (or NoSink).
type Input struct {
	Passes []PassUsage
	Sink   int
}

// Result is the resolver's output.
type Result struct {
	// Live holds the original declaration indices of live passes, in final
	// execution order (topologically sorted, ties broken by ascending
	// declaration index).
	Live []int
}

// Resolve runs spec §4.2 steps 1-4. Step 5 (recomputing per-texture pass
// ranges against the new live indices) is the caller's responsibility,
// since that requires texture-level bookkeeping this package does not hold.
func Resolve(in Input) (Result, error) {
	used := computeLiveness(in)

	liveOriginal := make([]int, 0, len(in.Passes))
	for i, u := range used {
		if u {
			liveOriginal = append(liveOriginal, i)
		}
	}

	deps := computeDependencies(in, used)

	order, err := topoSort(liveOriginal, deps)
	if err != nil {
		return Result{}, err
	}
	return Result{Live: order}, nil
}

// computeLiveness implements spec §4.2 steps 1-2: a pass is used iff it
// writes the sink, or it writes a texture read by a later used pass. Walking
// backward lets "later used pass" be resolved with a single pass over the
// declarations.
func computeLiveness(in Input) []bool {
	n := len(in.Passes)
	used := make([]bool, n)
	neededReads := smallset.New[int](8)

	for i := n - 1; i >= 0; i-- {
		p := in.Passes[i]

		isUsed := false
		for _, t := range p.Writes {
			if t == in.Sink {
				isUsed = true
				break
			}
			if neededReads.Has(t) {
				isUsed = true
				break
			}
		}

		used[i] = isUsed
		if isUsed {
			for _, t := range p.Reads {
				neededReads.Add(t)
			}
		}
	}
	return used
}

// computeDependencies implements spec §4.2 step 3: for used passes A before
// B, B depends on A iff A writes some texture T that B reads or writes, and
// no later pass between them rewrites T first (latest writer wins). A pass
// that reads T without writing it, when no earlier used pass writes T,
// depends on the first later used pass that writes T, so two passes that
// each read what the other writes form a cycle.
func computeDependencies(in Input, used []bool) map[int]*smallset.Set[int] {
	deps := make(map[int]*smallset.Set[int])
	latestWriter := make(map[int]int) // texture id -> most recent used-pass index that wrote it
	writers := make(map[int][]int)    // texture id -> every used pass writing it, ascending
	for i, p := range in.Passes {
		if used[i] {
			for _, t := range p.Writes {
				writers[t] = append(writers[t], i)
			}
		}
	}

	for i, p := range in.Passes {
		if !used[i] {
			continue
		}

		depSet := smallset.New[int](4)
		seenFrom := func(t int) {
			if w, ok := latestWriter[t]; ok && w != i {
				depSet.Add(w)
			}
		}
		for _, t := range p.Reads {
			if _, ok := latestWriter[t]; !ok && len(writers[t]) > 0 && writers[t][0] != i {
				depSet.Add(writers[t][0])
			}
			seenFrom(t)
		}
		for _, t := range p.Writes {
			seenFrom(t)
		}
		deps[i] = depSet

		for _, t := range p.Writes {
			latestWriter[t] = i
		}
	}
	return deps
}

// topoSort produces a topological order over liveOriginal respecting deps,
// stable with respect to declaration order: among passes whose
// dependencies are all already placed, the one with the smallest
// declaration index is placed next (spec §4.2 step 4).
func topoSort(liveOriginal []int, deps map[int]*smallset.Set[int]) ([]int, error) {
	inDegree := make(map[int]int, len(liveOriginal))
	dependents := make(map[int][]int, len(liveOriginal))
	for _, p := range liveOriginal {
		inDegree[p] = deps[p].Len()
	}
	for _, p := range liveOriginal {
		for _, dep := range deps[p].Values() {
			dependents[dep] = append(dependents[dep], p)
		}
	}

	ready := make([]int, 0, len(liveOriginal))
	for _, p := range liveOriginal {
		if inDegree[p] == 0 {
			ready = append(ready, p)
		}
	}
	sort.Ints(ready)

	order := make([]int, 0, len(liveOriginal))
	for len(ready) > 0 {
		sort.Ints(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		newlyReady := dependents[next]
		sort.Ints(newlyReady)
		for _, d := range newlyReady {
			inDegree[d]--
			if inDegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(order) != len(liveOriginal) {
		return nil, fmt.Errorf("%w: %d of %d live passes could not be ordered", ErrCycle, len(liveOriginal)-len(order), len(liveOriginal))
	}
	return order, nil
}
