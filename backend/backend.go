// Package backend declares the interfaces and boundary enumerations this
// module's frame-graph executor drives. It implements nothing: the concrete
// GPU backend (buffer/image/pipeline/command-buffer objects), windowing, and
// swap-chain acquisition are external collaborators per spec §1 — this
// package only names the vocabulary they must speak.
package backend

import "github.com/gogpu/gputypes"

// ImageFormat is the fixed set of color and depth/stencil formats this core
// reasons about. It intentionally does not alias gputypes.TextureFormat:
// that type (confirmed via RGBA8Unorm/BGRA8Unorm/RGBA8UnormSRGB usage in the
// wider pack) has no confirmed depth/stencil members, and this core's
// aliasing-compatibility check (spec §3) must compare depth formats too.
type ImageFormat uint32

const (
	FormatUnknown ImageFormat = iota

	// 8-bit component color formats.
	FormatR8Unorm
	FormatRG8Unorm
	FormatRGBA8Unorm
	FormatRGBA8Srgb
	FormatBGRA8Unorm
	FormatBGRA8Srgb

	// 16-bit component color formats.
	FormatR16Float
	FormatRG16Float
	FormatRGBA16Float

	// 32-bit component color formats.
	FormatR32Float
	FormatRG32Float
	FormatRGBA32Float

	// 64-bit component color formats.
	FormatRGBA64Float

	// Depth/stencil formats.
	FormatDepth16Unorm
	FormatDepth32Float
	FormatDepth24UnormStencil8
	FormatDepth32FloatStencil8
)

// IsDepthStencil reports whether format carries a depth and/or stencil
// component.
func (f ImageFormat) IsDepthStencil() bool {
	switch f {
	case FormatDepth16Unorm, FormatDepth32Float, FormatDepth24UnormStencil8, FormatDepth32FloatStencil8:
		return true
	default:
		return false
	}
}

// ImageUsage is a bitmask of how an image may be used, per spec §6.
type ImageUsage uint32

const (
	UsageRenderTarget ImageUsage = 1 << iota
	UsageShaderSampling
	UsageShaderInput
	UsageTransferSrc
	UsageTransferDst
)

// Has reports whether u contains every flag in other.
func (u ImageUsage) Has(other ImageUsage) bool { return u&other == other }

// SampleCount is the number of samples per pixel for multisampling.
type SampleCount uint32

// Tiling controls the memory layout of an image.
type Tiling uint32

const (
	TilingOptimal Tiling = iota
	TilingLinear
)

// ImageLayout is the set of layouts a physical image can occupy, per spec §6.
type ImageLayout uint32

const (
	LayoutUndefined ImageLayout = iota
	LayoutAttachment
	LayoutShaderRead
	LayoutTransferSrc
	LayoutTransferDst
	LayoutPresent
	LayoutGeneral
)

// AttachmentLoading controls how a render-pass attachment is initialized.
//
// Spec §6's glossary lists only {Undefined, Clear, Load}, but spec §4.5's
// load-op algorithm requires a fourth value for attachments nobody reads and
// nobody clears. DontCare is added here to make that algorithm expressible;
// see DESIGN.md Open Question decisions.
type AttachmentLoading uint32

const (
	LoadUndefined AttachmentLoading = iota
	LoadClear
	LoadLoad
	LoadDontCare
)

// AttachmentStoring controls whether a render-pass attachment's contents are
// written back to memory at the end of the pass.
type AttachmentStoring uint32

const (
	StoreUndefined AttachmentStoring = iota
	StoreStore
	StoreDontCare
)

// PipelineStage is a bitmask of pipeline stages a barrier synchronizes
// against, per spec §4.4/§6.
type PipelineStage uint32

const (
	StageTopOfPipe PipelineStage = 1 << iota
	StageDrawIndirect
	StageVertexInput
	StageVertexShader
	StageFragmentShader
	StageComputeShader
	StageEarlyFragmentTests
	StageLateFragmentTests
	StageColorAttachmentOutput
	StageTransfer
	StageBottomOfPipe
	StageAllCommands
)

// Has reports whether s contains every stage in other.
func (s PipelineStage) Has(other PipelineStage) bool { return s&other == other }

// MemoryAccess is a bitmask of memory-access types a barrier synchronizes,
// per spec §4.4/§6.
type MemoryAccess uint32

const (
	AccessShaderRead MemoryAccess = 1 << iota
	AccessShaderWrite
	AccessInputAttachmentRead
	AccessColorAttachmentRead
	AccessColorAttachmentWrite
	AccessDepthStencilAttachmentRead
	AccessDepthStencilAttachmentWrite
	AccessTransferRead
	AccessTransferWrite
)

// Has reports whether a contains every access flag in other.
func (a MemoryAccess) Has(other MemoryAccess) bool { return a&other == other }

// ShaderStage identifies a single programmable pipeline stage.
type ShaderStage uint32

const (
	StageVertex ShaderStage = iota
	StageTessellationControl
	StageTessellationEvaluation
	StageGeometry
	StageFragment
	StageCompute
)

// ShaderStageFlags is a bitmask over ShaderStage, used to record which
// stages sample a texture (spec §4.1 addSampledTexture).
type ShaderStageFlags uint32

func (f ShaderStageFlags) With(s ShaderStage) ShaderStageFlags { return f | 1<<uint(s) }
func (f ShaderStageFlags) Has(s ShaderStage) bool              { return f&(1<<uint(s)) != 0 }

// ToPipelineStages converts a set of shader stages into the PipelineStage
// flags a barrier must wait on, per spec §4.4 step 2.
func (f ShaderStageFlags) ToPipelineStages() PipelineStage {
	var s PipelineStage
	if f.Has(StageVertex) {
		s |= StageVertexShader
	}
	if f.Has(StageFragment) {
		s |= StageFragmentShader
	}
	if f.Has(StageCompute) {
		s |= StageComputeShader
	}
	if f.Has(StageTessellationControl) || f.Has(StageTessellationEvaluation) || f.Has(StageGeometry) {
		// These stages share the vertex-pipeline's synchronization scope;
		// this core targets a single graphics queue (spec §1 Non-goals) and
		// does not distinguish them further.
		s |= StageVertexShader
	}
	return s
}

// ImageSettings describes an image's static, backend-relevant properties.
// It is the Go equivalent of spec §3's "texture settings" tuple, extended
// with the aggregated usage flags the aliasing allocator accumulates.
type ImageSettings struct {
	Width, Height uint32
	Format        ImageFormat
	MipLevels     uint32
	Samples       SampleCount
	Tiling        Tiling
	Usages        ImageUsage
}

// CompatibleBase reports whether two image settings are compatible for
// aliasing ignoring usage flags (spec §3: width, height, format,
// mip-level count, sample count, and tiling must be equal). Usage
// compatibility is a separate, stateful check performed by the aliasing
// allocator against a physical texture's accumulated usage set, since that
// set grows as more aliases join the physical texture.
func (s ImageSettings) CompatibleBase(other ImageSettings) bool {
	return s.Width == other.Width &&
		s.Height == other.Height &&
		s.Format == other.Format &&
		s.MipLevels == other.MipLevels &&
		s.Samples == other.Samples &&
		s.Tiling == other.Tiling
}

// ClearValue is the value an attachment is cleared to at the start of a
// render pass. Color uses the real gputypes.Color so a backend built on the
// wider gogpu/wgpu ecosystem needs no translation; depth/stencil clears use
// their own scalar pair since gputypes has no confirmed depth-clear type.
type ClearValue struct {
	IsDepthStencil bool
	Color          gputypes.Color
	Depth          float32
	Stencil        uint32
}

// Image is an opaque backend-owned image resource.
type Image interface {
	// Settings returns the static properties this image was created with.
	Settings() ImageSettings
}

// ImageView is an opaque backend-owned view into a single layer/mip level
// of an Image.
type ImageView interface {
	Image() Image
	Layer() uint32
	MipLevel() uint32
}

// RenderPass is an opaque backend-owned render-pass object, synthesized by
// internal/synth from a live pass's attachment descriptions.
type RenderPass interface{}

// Framebuffer is an opaque backend-owned framebuffer object binding a
// RenderPass's attachments to concrete image views.
type Framebuffer interface{}

// AttachmentDescription describes one render-pass attachment slot, per
// spec §4.5.
type AttachmentDescription struct {
	Format         ImageFormat
	Samples        SampleCount
	Load           AttachmentLoading
	Store          AttachmentStoring
	InitialLayout  ImageLayout
	FinalLayout    ImageLayout
}

// ImageBarrierDesc fully describes one image memory barrier, per spec §3's
// "Texture barrier" and §6.
type ImageBarrierDesc struct {
	SrcStages PipelineStage
	DstStages PipelineStage
	SrcAccess MemoryAccess
	DstAccess MemoryAccess
	SrcLayout ImageLayout
	DstLayout ImageLayout

	BaseLayer    uint32
	LayerCount   uint32
	BaseMipLevel uint32
	MipLevelCount uint32
}

// Destroyable is anything the executor can hand to a caller-owned deferred
// destruction queue (spec §5 "Shared-resource policy").
type Destroyable interface {
	Destroy()
}

// CommandBuffer is the backend contract the executor records into, per
// spec §6.
type CommandBuffer interface {
	Begin() error
	End() error

	// BeginRenderPass opens a render-pass scope. secondary indicates the
	// pass expects secondary command buffers via ExecuteSecondaryCommands
	// rather than direct draw* calls.
	BeginRenderPass(rp RenderPass, fb Framebuffer, clearValues []ClearValue, secondary bool)
	EndRenderPass()

	// ImageBarrier issues one image memory barrier. Barriers are issued
	// outside render-pass scopes only (spec §5 "Ordering guarantees").
	ImageBarrier(img Image, desc ImageBarrierDesc)

	// ExecuteSecondaryCommands submits secondary command buffers recorded
	// by worker threads back into this primary buffer's current render pass.
	ExecuteSecondaryCommands(cmds []CommandBuffer)
}

// CommandBufferFactory creates secondary command buffers for a given
// worker thread index, per spec §5 "Parallel pass recording".
type CommandBufferFactory interface {
	CreateSecondaryCommandBuffer(threadIndex int) (CommandBuffer, error)
}

// ImageFactory allocates the physical images and views a compiled frame
// graph binds its virtual textures to. Build() calls CreateImage once per
// non-imported physical texture produced by the aliasing allocator and
// CreateImageView once per live texture handle; it never calls them again
// unless the graph is rebuilt.
type ImageFactory interface {
	CreateImage(settings ImageSettings) (Image, error)
	CreateImageView(img Image, layer, mipLevel uint32) (ImageView, error)
}

// RenderPassFactory turns a synthesized attachment layout into the backend's
// concrete render-pass and framebuffer objects, per spec §4.5.
type RenderPassFactory interface {
	CreateRenderPass(attachments []AttachmentDescription) (RenderPass, error)
	CreateFramebuffer(rp RenderPass, views []ImageView, width, height uint32) (Framebuffer, error)
}

// Factory is the full backend surface Build() drives to turn a compiled
// frame graph into concrete GPU objects.
type Factory interface {
	ImageFactory
	RenderPassFactory
}
