// Package barrier computes the minimal set of image memory barriers a
// compiled frame graph must issue for one physical texture's timeline, per
// spec §4.4. It is grounded on the access/stage/layout bookkeeping in
// gogpu-wgpu/hal/vulkan/command.go (textureUsageToAccessStageLayout,
// vkCmdPipelineBarrier) and hal/command.go's TextureBarrier /
// TextureUsageTransition, generalized from a single-texture transition
// table into a planner over an arbitrary use sequence.
package barrier

import "github.com/gogpu/framegraph/backend"

// Category is how one pass touches a physical texture at one point in its
// timeline.
type Category int

const (
	CategorySampled Category = iota
	CategoryInputAttachment
	CategoryColorOutput
	CategoryDepthStencil
)

// Use is one pass's touch of a physical texture, in live execution order.
type Use struct {
	PassIndex int

	// Member identifies which alias (declared texture) owns this use. When
	// consecutive uses on one physical texture carry different Member
	// values, the planner treats the prior contents as discarded: the
	// aliasing allocator only ever hands the same physical texture to a new
	// alias once the previous alias's last use has passed, so there is
	// nothing to synchronize against (spec §4.3 "alias boundary").
	Member int

	Category Category

	// Stages is consulted only for CategorySampled, per
	// ShaderStageFlags.ToPipelineStages.
	Stages backend.ShaderStageFlags
}

// Barrier is one image memory barrier to issue before the pass at
// BeforePassIndex begins, outside any render-pass scope (spec §5 "Ordering
// guarantees").
type Barrier struct {
	BeforePassIndex int

	SrcStages backend.PipelineStage
	DstStages backend.PipelineStage
	SrcAccess backend.MemoryAccess
	DstAccess backend.MemoryAccess
	SrcLayout backend.ImageLayout
	DstLayout backend.ImageLayout
}

// Plan walks uses in order (callers must pass them sorted by PassIndex) and
// returns the barriers needed to keep every transition correctly
// synchronized, eliding barriers between consecutive pure reads that need
// no layout change.
func Plan(uses []Use) []Barrier {
	var out []Barrier

	currentLayout := backend.LayoutUndefined
	var currentAccess backend.MemoryAccess
	currentStages := backend.StageTopOfPipe
	lastMember := 0
	haveLast := false

	for _, u := range uses {
		if haveLast && u.Member != lastMember {
			// Alias boundary: contents are discarded, nothing to wait on.
			currentLayout = backend.LayoutUndefined
			currentAccess = 0
			currentStages = backend.StageTopOfPipe
		}

		reqLayout, reqAccess, reqStages := requirementsFor(u)
		if needsBarrier(currentLayout, currentAccess, currentStages, reqLayout, reqAccess, reqStages) {
			out = append(out, Barrier{
				BeforePassIndex: u.PassIndex,
				SrcStages:       currentStages,
				DstStages:       reqStages,
				SrcAccess:       currentAccess,
				DstAccess:       reqAccess,
				SrcLayout:       currentLayout,
				DstLayout:       reqLayout,
			})
		}

		currentLayout, currentAccess, currentStages = reqLayout, reqAccess, reqStages
		lastMember = u.Member
		haveLast = true
	}

	return out
}

func requirementsFor(u Use) (backend.ImageLayout, backend.MemoryAccess, backend.PipelineStage) {
	switch u.Category {
	case CategorySampled:
		return backend.LayoutShaderRead, backend.AccessShaderRead, u.Stages.ToPipelineStages()
	case CategoryInputAttachment:
		return backend.LayoutShaderRead, backend.AccessInputAttachmentRead, backend.StageFragmentShader
	case CategoryColorOutput:
		return backend.LayoutAttachment, backend.AccessColorAttachmentWrite, backend.StageColorAttachmentOutput
	case CategoryDepthStencil:
		return backend.LayoutAttachment,
			backend.AccessDepthStencilAttachmentRead | backend.AccessDepthStencilAttachmentWrite,
			backend.StageEarlyFragmentTests | backend.StageLateFragmentTests
	default:
		return backend.LayoutUndefined, 0, backend.StageTopOfPipe
	}
}

// isReadOnly reports whether access contains only read bits.
func isReadOnly(access backend.MemoryAccess) bool {
	const writeMask = backend.AccessShaderWrite |
		backend.AccessColorAttachmentWrite |
		backend.AccessDepthStencilAttachmentWrite |
		backend.AccessTransferWrite
	return access&writeMask == 0
}

// needsBarrier reports whether a transition from (curLayout, curAccess,
// curStages) to (reqLayout, reqAccess, reqStages) requires an explicit
// barrier. A read-after-read at the same layout needs none only if curStages
// already covers every stage the new read happens in; everything else (any
// layout change, any access pair involving a write, or a read introducing a
// stage not already waited on) does (spec §4.4 step 4).
func needsBarrier(curLayout backend.ImageLayout, curAccess backend.MemoryAccess, curStages backend.PipelineStage, reqLayout backend.ImageLayout, reqAccess backend.MemoryAccess, reqStages backend.PipelineStage) bool {
	if curLayout != reqLayout {
		return true
	}
	if !(isReadOnly(curAccess) && isReadOnly(reqAccess)) {
		return true
	}
	return !curStages.Has(reqStages)
}
