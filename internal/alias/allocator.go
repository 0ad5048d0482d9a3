// Package alias implements the frame-graph aliasing allocator, spec §4.3:
// greedy interval coloring that partitions live textures into physical
// textures whose member pass-ranges never overlap and whose image settings
// are compatible.
//
// Grounded on the *caching-by-compatible-key* idiom of
// _examples/gogpu-wgpu/hal/vulkan/renderpass.go's RenderPassCache (reuse an
// existing vk.RenderPass when a RenderPassKey matches) — here the same
// "reuse an existing slot when a compatibility predicate matches, else
// allocate a new one" shape drives physical-texture assignment instead of
// render-pass caching. See DESIGN.md.
package alias

import (
	"errors"
	"math/bits"
	"sort"

	"github.com/gogpu/framegraph/backend"
)

// ErrIncompatible is returned by Allocate on an internal invariant failure:
// an imported texture ended up sharing a physical texture with another
// handle, or two members of one physical texture have overlapping ranges.
// Either indicates a bug in this package (spec §7 "IncompatibleAlias").
var ErrIncompatible = errors.New("alias: incompatible alias (internal invariant failure)")

// Range is an inclusive pass-index range, independent of the root package's
// PassRange (this is a leaf package and must not import it).
type Range struct {
	First, Last int
}

func (r Range) isInside(i int) bool { return r.First <= i && i <= r.Last }

// overlaps reports whether r and other share any pass index that isn't
// just a single touching boundary. A range ending exactly where another
// begins (r.Last == other.First, or vice-versa) is deliberately NOT treated
// as an overlap here: the pass at that shared index reads the outgoing
// alias before writing the incoming one (see internal/barrier's alias-
// boundary handling), so the two aliases never need the physical texture's
// contents simultaneously and may still share it. A genuine overlap — one
// range's interior reaching into the other — still blocks sharing.
func (r Range) overlaps(other Range) bool {
	if r.Last == other.First || other.Last == r.First {
		return false
	}
	return other.isInside(r.First) || other.isInside(r.Last) || r.isInside(other.First) || r.isInside(other.Last)
}

// Input describes one live texture for the allocator, per spec §4.3.
type Input struct {
	// Handle is the caller's opaque identifier for this texture (e.g. a
	// TextureHandle cast to int).
	Handle int

	Imported bool
	Settings backend.ImageSettings // Usages must already be the aggregated per-pass OR
	Range    Range
}

// Member is one texture sharing a PhysicalTexture, in range-sorted order.
type Member struct {
	Handle int
	Range  Range
}

// PhysicalTexture is a group of aliases sharing one backing image, per
// spec §3 "Physical-texture alias".
type PhysicalTexture struct {
	Imported bool
	Settings backend.ImageSettings // accumulated usages = union of members'
	Members  []Member              // range-sorted
}

// Allocate partitions inputs into physical textures per spec §4.3, and
// returns the handle -> physical-texture-index mapping.
func Allocate(inputs []Input) ([]PhysicalTexture, map[int]int, error) {
	ordered := make([]Input, len(inputs))
	copy(ordered, inputs)

	// Step 2: sort by useRange ascending; tie-break on decreasing usage-flag
	// count (prefer stricter first).
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Range.First != ordered[j].Range.First {
			return ordered[i].Range.First < ordered[j].Range.First
		}
		ci := bits.OnesCount32(uint32(ordered[i].Settings.Usages))
		cj := bits.OnesCount32(uint32(ordered[j].Settings.Usages))
		return ci > cj
	})

	var physical []PhysicalTexture
	assignment := make(map[int]int, len(inputs))

	for _, in := range ordered {
		// Step 4: imported textures always occupy their own physical texture.
		if in.Imported {
			idx := len(physical)
			physical = append(physical, PhysicalTexture{
				Imported: true,
				Settings: in.Settings,
				Members:  []Member{{Handle: in.Handle, Range: in.Range}},
			})
			assignment[in.Handle] = idx
			continue
		}

		placed := -1
		for idx := range physical {
			pt := &physical[idx]
			if pt.Imported {
				continue
			}
			if !pt.Settings.CompatibleBase(in.Settings) {
				continue
			}
			if !pt.Settings.Usages.Has(in.Settings.Usages) {
				continue
			}
			if rangesOverlapAny(pt.Members, in.Range) {
				continue
			}
			placed = idx
			break
		}

		if placed == -1 {
			physical = append(physical, PhysicalTexture{
				Settings: in.Settings,
				Members:  []Member{{Handle: in.Handle, Range: in.Range}},
			})
			assignment[in.Handle] = len(physical) - 1
			continue
		}

		pt := &physical[placed]
		pt.Settings.Usages |= in.Settings.Usages
		pt.Members = insertSorted(pt.Members, Member{Handle: in.Handle, Range: in.Range})
		assignment[in.Handle] = placed
	}

	if err := verify(physical); err != nil {
		return nil, nil, err
	}
	return physical, assignment, nil
}

func rangesOverlapAny(members []Member, r Range) bool {
	for _, m := range members {
		if m.Range.overlaps(r) {
			return true
		}
	}
	return false
}

// insertSorted inserts m into members keeping them sorted by ascending
// Range.First, per spec §4.3 step 3 "Insert in range-sorted position".
func insertSorted(members []Member, m Member) []Member {
	i := sort.Search(len(members), func(i int) bool { return members[i].Range.First > m.Range.First })
	members = append(members, Member{})
	copy(members[i+1:], members[i:])
	members[i] = m
	return members
}

// verify checks two of the invariants spec §4.3 lists after allocation:
// imported textures are alone in their physical texture, and member ranges
// within one physical texture do not overlap. Usage coverage is not
// re-checked here.
func verify(physical []PhysicalTexture) error {
	for _, pt := range physical {
		if pt.Imported && len(pt.Members) != 1 {
			return ErrIncompatible
		}
		for i := 0; i < len(pt.Members); i++ {
			for j := i + 1; j < len(pt.Members); j++ {
				if pt.Members[i].Range.overlaps(pt.Members[j].Range) {
					return ErrIncompatible
				}
			}
		}
	}
	return nil
}
