package framegraph

import "github.com/gogpu/framegraph/backend"

// invalidIndex marks an unset pass index inside a PassRange, mirroring
// Atema's FrameGraphBuilder::PassRange use of a sentinel "max size_t"
// (original_source FrameGraphBuilder.hpp) adapted to Go's -1 convention.
const invalidIndex = -1

// PassRange is an inclusive range of declaration-order pass indices,
// per spec §3.
type PassRange struct {
	First, Last int
}

func emptyRange() PassRange { return PassRange{First: invalidIndex, Last: invalidIndex} }

func (r PassRange) empty() bool { return r.First == invalidIndex }

// isInside reports whether index lies within [First, Last].
func (r PassRange) isInside(index int) bool {
	if r.empty() {
		return false
	}
	return r.First <= index && index <= r.Last
}

// overlaps reports whether r and other share at least one pass index, per
// spec §3: "each endpoint of one lies within the other".
func (r PassRange) overlaps(other PassRange) bool {
	if r.empty() || other.empty() {
		return false
	}
	return other.isInside(r.First) || other.isInside(r.Last) || r.isInside(other.First) || r.isInside(other.Last)
}

// inside reports whether both endpoints of r lie within other.
func (r PassRange) inside(other PassRange) bool {
	if r.empty() || other.empty() {
		return false
	}
	return other.isInside(r.First) && other.isInside(r.Last)
}

// less orders ranges by ascending First, per spec §3.
func (r PassRange) less(other PassRange) bool { return r.First < other.First }

// extend grows r to also cover index, initializing an empty range to
// [index, index].
func (r PassRange) extend(index int) PassRange {
	if r.empty() {
		return PassRange{First: index, Last: index}
	}
	out := r
	if index < out.First {
		out.First = index
	}
	if index > out.Last {
		out.Last = index
	}
	return out
}

// union returns the smallest range covering both r and other. An empty
// operand is ignored.
func (r PassRange) union(other PassRange) PassRange {
	if r.empty() {
		return other
	}
	if other.empty() {
		return r
	}
	out := r
	if other.First < out.First {
		out.First = other.First
	}
	if other.Last > out.Last {
		out.Last = other.Last
	}
	return out
}

// textureUsage is the builder-internal per-texture usage record, per spec
// §3 "Texture usage record". Pass indices recorded here are declaration
// indices until Graph.recomputeLiveRanges rewrites them to live indices
// (spec §4.2 step 5).
type textureUsage struct {
	sampled []int
	input   []int
	output  []int
	depth   []int
	clear   []int

	readRange  PassRange
	writeRange PassRange
	useRange   PassRange

	// usagePerPass aggregates which backend.ImageUsage flags this texture
	// requires at each pass index that touches it, for the aliasing
	// allocator's per-alias usage aggregation (spec §4.3 step 1).
	usagePerPass map[int]backend.ImageUsage

	finalOutput bool
	imported    bool
}

func newTextureUsage() *textureUsage {
	return &textureUsage{
		readRange:    emptyRange(),
		writeRange:   emptyRange(),
		useRange:     emptyRange(),
		usagePerPass: make(map[int]backend.ImageUsage),
	}
}

func (u *textureUsage) recordRead(passIndex int, usage backend.ImageUsage) {
	u.readRange = u.readRange.extend(passIndex)
	u.useRange = u.useRange.extend(passIndex)
	u.usagePerPass[passIndex] |= usage
}

func (u *textureUsage) recordWrite(passIndex int, usage backend.ImageUsage) {
	u.writeRange = u.writeRange.extend(passIndex)
	u.useRange = u.useRange.extend(passIndex)
	u.usagePerPass[passIndex] |= usage
}

// aggregatedUsage ORs together every per-pass usage flag this texture ever
// required, per spec §4.3 step 1.
func (u *textureUsage) aggregatedUsage() backend.ImageUsage {
	var out backend.ImageUsage
	for _, f := range u.usagePerPass {
		out |= f
	}
	return out
}

// doesClear reports whether passIndex clears this texture.
func (u *textureUsage) doesClear(passIndex int) bool {
	for _, p := range u.clear {
		if p == passIndex {
			return true
		}
	}
	return false
}

// lastWriteBefore returns the largest write index strictly before
// passIndex, or invalidIndex if none.
func (u *textureUsage) lastWriteBefore(passIndex int) int {
	best := invalidIndex
	consider := func(indices []int) {
		for _, p := range indices {
			if p < passIndex && p > best {
				best = p
			}
		}
	}
	consider(u.output)
	consider(u.depth)
	consider(u.clear)
	return best
}

// firstUseAfter returns the smallest read (or write) index strictly after
// passIndex, or invalidIndex if none.
func (u *textureUsage) firstUseAfter(passIndex int) int {
	best := invalidIndex
	consider := func(indices []int) {
		for _, p := range indices {
			if p > passIndex && (best == invalidIndex || p < best) {
				best = p
			}
		}
	}
	consider(u.sampled)
	consider(u.input)
	consider(u.output)
	consider(u.depth)
	consider(u.clear)
	return best
}
