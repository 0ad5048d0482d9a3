package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/backend"
)

// ExecutionCallback is invoked inside a pass's render-scope during
// Execute(), per spec §4.1 "setExecutionCallback" and §4.6 step 3.
type ExecutionCallback func(ctx *PassContext) error

// PassContext is handed to a pass's ExecutionCallback. It exposes the
// current command buffer, a way to resolve a declared handle to its bound
// physical image view, the current frame-in-flight index, a deferred
// destruction queue, and (when the pass enabled secondary command buffers)
// a factory for per-worker secondary command buffers — per spec §4.6 step 3
// and §5 "Parallel pass recording".
type PassContext struct {
	Cmd              backend.CommandBuffer
	CurrentFrameIndex int

	graph     *Graph
	passIndex int

	secondaryFactory backend.CommandBufferFactory
}

// ResolveView resolves a declared texture handle to the physical image view
// bound to it in the currently executing compiled plan.
func (c *PassContext) ResolveView(handle TextureHandle) (backend.ImageView, error) {
	return c.graph.resolveView(handle)
}

// DestroyAfterUse enqueues resource for destruction once the frame-in-flight
// that last referenced it has retired (spec §5 "Shared-resource policy").
func (c *PassContext) DestroyAfterUse(resource backend.Destroyable) {
	c.graph.destroyAfterUse(c.CurrentFrameIndex, resource)
}

// CreateSecondaryCommandBuffer returns a secondary command buffer for the
// given worker thread index. It is only valid when the pass enabled
// secondary command buffers via EnableSecondaryCommandBuffers; callers
// must pass distinct threadIndex values in [0, workerCount), workerCount
// being the value given to EnableSecondaryCommandBuffers, so thread-local
// command pools stay distinct per spec §5. threadIndex is passed to the
// factory unchecked.
func (c *PassContext) CreateSecondaryCommandBuffer(threadIndex int) (backend.CommandBuffer, error) {
	if c.secondaryFactory == nil {
		return nil, fmt.Errorf("framegraph: pass did not enable secondary command buffers")
	}
	return c.secondaryFactory.CreateSecondaryCommandBuffer(threadIndex)
}

type outputBinding struct {
	binding int
	clear   *backend.ClearValue
}

type depthBinding struct {
	handle TextureHandle
	clear  *backend.ClearValue
}

// passDecl is the builder-internal record for one declared pass, per spec
// §3 "Pass declaration".
type passDecl struct {
	name string

	execCallback ExecutionCallback

	useRenderFrameOutput  bool
	useSecondaryBuffers   bool
	workerCount           int

	sampled map[TextureHandle]backend.ShaderStageFlags
	inputs  map[TextureHandle]int
	outputs map[TextureHandle]outputBinding
	depth   *depthBinding

	// usedHandles enforces spec §3's invariant: each handle appears in at
	// most one use category within one pass.
	usedHandles map[TextureHandle]struct{}

	hasInputSize  bool
	inputWidth    uint32
	inputHeight   uint32
	hasOutputSize bool
	outputWidth   uint32
	outputHeight  uint32
}

func newPassDecl(name string) *passDecl {
	return &passDecl{
		name:        name,
		sampled:     make(map[TextureHandle]backend.ShaderStageFlags),
		inputs:      make(map[TextureHandle]int),
		outputs:     make(map[TextureHandle]outputBinding),
		usedHandles: make(map[TextureHandle]struct{}),
	}
}

func (p *passDecl) markUsed(handle TextureHandle) error {
	if _, ok := p.usedHandles[handle]; ok {
		return fmt.Errorf("%w: pass %q", ErrDoubleUsage, p.name)
	}
	p.usedHandles[handle] = struct{}{}
	return nil
}

// PassRef is returned by Graph.CreatePass and exposes the setters a caller
// uses to declare one pass's texture usage and callback, per spec §4.1.
type PassRef struct {
	graph *Graph
	index int
}

func (p PassRef) decl() *passDecl { return p.graph.passes[p.index] }

// EnableRenderFrameOutput marks this pass as targeting the render-frame
// sink's presentation path. This is a declarative flag consumed by the
// physical-pass synthesizer (final layout becomes Present rather than
// Attachment) and is independent of SetFinalOutput, which designates which
// *texture* is the sink (spec §4.1).
func (p PassRef) EnableRenderFrameOutput(enable bool) PassRef {
	p.decl().useRenderFrameOutput = enable
	return p
}

// EnableSecondaryCommandBuffers marks this pass's render-scope as recorded
// via secondary command buffers from workerCount worker threads, per spec
// §5 "Parallel pass recording". workerCount must be >= 1 when enable is
// true; it is ignored when enable is false.
func (p PassRef) EnableSecondaryCommandBuffers(enable bool, workerCount int) PassRef {
	d := p.decl()
	d.useSecondaryBuffers = enable
	if enable {
		if workerCount < 1 {
			workerCount = 1
		}
		d.workerCount = workerCount
	}
	return p
}

// SetExecutionCallback sets the callback invoked inside this pass's
// render-scope during Execute().
func (p PassRef) SetExecutionCallback(cb ExecutionCallback) PassRef {
	p.decl().execCallback = cb
	return p
}

// AddSampledTexture declares handle as sampled (shader-read) by this pass in
// the given shader stages. Fails with ErrDoubleUsage if handle is already
// used by this pass in any category (spec §4.1).
func (p PassRef) AddSampledTexture(handle TextureHandle, stages backend.ShaderStageFlags) error {
	d := p.decl()
	if err := d.markUsed(handle); err != nil {
		return err
	}
	d.sampled[handle] = stages
	return nil
}

// AddInputTexture declares handle as an input attachment at bindingIndex.
// Fails with ErrDoubleUsage on double-use, or ErrSizeMismatch if handle's
// (width, height) disagrees with previously added inputs (spec §4.1).
func (p PassRef) AddInputTexture(handle TextureHandle, bindingIndex int) error {
	d := p.decl()
	if err := d.markUsed(handle); err != nil {
		return err
	}
	settings := p.graph.TextureSettings(handle)
	if d.hasInputSize {
		if d.inputWidth != settings.Width || d.inputHeight != settings.Height {
			return fmt.Errorf("%w: pass %q input size mismatch", ErrSizeMismatch, d.name)
		}
	} else {
		d.hasInputSize = true
		d.inputWidth, d.inputHeight = settings.Width, settings.Height
	}
	d.inputs[handle] = bindingIndex
	return nil
}

// AddOutputTexture declares handle as a color output at bindingIndex. If
// clearColor is non-nil, this pass clears handle before writing it. Fails
// with ErrDoubleUsage on double-use, or ErrSizeMismatch on size disagreement
// with previously added outputs/depth (spec §4.1).
func (p PassRef) AddOutputTexture(handle TextureHandle, bindingIndex int, clearColor *backend.ClearValue) error {
	d := p.decl()
	if err := d.markUsed(handle); err != nil {
		return err
	}
	settings := p.graph.TextureSettings(handle)
	if err := d.checkOutputSize(settings); err != nil {
		return err
	}
	d.outputs[handle] = outputBinding{binding: bindingIndex, clear: clearColor}
	return nil
}

// SetDepthTexture declares handle as this pass's depth/stencil attachment.
// Only one is allowed per pass; size constraints match AddOutputTexture
// (spec §4.1).
func (p PassRef) SetDepthTexture(handle TextureHandle, clearDepthStencil *backend.ClearValue) error {
	d := p.decl()
	if d.depth != nil {
		return fmt.Errorf("%w: pass %q already has a depth texture", ErrDoubleUsage, d.name)
	}
	if err := d.markUsed(handle); err != nil {
		return err
	}
	settings := p.graph.TextureSettings(handle)
	if err := d.checkOutputSize(settings); err != nil {
		return err
	}
	d.depth = &depthBinding{handle: handle, clear: clearDepthStencil}
	return nil
}

func (d *passDecl) checkOutputSize(settings TextureSettings) error {
	if d.hasOutputSize {
		if d.outputWidth != settings.Width || d.outputHeight != settings.Height {
			return fmt.Errorf("%w: pass %q output size mismatch", ErrSizeMismatch, d.name)
		}
		return nil
	}
	d.hasOutputSize = true
	d.outputWidth, d.outputHeight = settings.Width, settings.Height
	return nil
}

// CreatePass declares a new pass and returns a PassRef exposing its setters
// (spec §4.1).
func (g *Graph) CreatePass(name string) PassRef {
	g.passes = append(g.passes, newPassDecl(name))
	return PassRef{graph: g, index: len(g.passes) - 1}
}
