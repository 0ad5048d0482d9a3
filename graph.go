package framegraph

import (
	"fmt"
	"sort"

	"github.com/gogpu/framegraph/backend"
	"github.com/gogpu/framegraph/internal/alias"
	"github.com/gogpu/framegraph/internal/barrier"
	"github.com/gogpu/framegraph/internal/depgraph"
	"github.com/gogpu/framegraph/internal/synth"
)

// CompiledFrameGraph summarizes the result of a successful Build(), per spec
// §3. It is read-only introspection data; Execute does not consult it
// directly (the Graph keeps its own resolved execution plan internally).
type CompiledFrameGraph struct {
	// LivePassNames are the names of the passes that survived dependency
	// resolution, in final execution order.
	LivePassNames []string
	// CulledPassNames are the declared passes dropped as dead.
	CulledPassNames []string
	// PhysicalTextureCount is how many distinct physical images the
	// aliasing allocator produced.
	PhysicalTextureCount int
}

// resolvedPass is one live pass's fully-synthesized execution record.
type resolvedPass struct {
	decl *passDecl

	hasRenderPass bool
	renderPass    backend.RenderPass
	framebuffer   backend.Framebuffer
	clearValues   []backend.ClearValue

	barriers []resolvedBarrier
}

type resolvedBarrier struct {
	image backend.Image
	desc  backend.ImageBarrierDesc
}

// garbageSlot holds resources retired during one frame-in-flight slot,
// pending destruction once that slot is reused (spec §5 "Shared-resource
// policy").
type garbageSlot struct {
	items []backend.Destroyable
}

// Graph is a frame-graph builder and compiled executor: declare textures and
// passes, Build() to resolve dependencies/aliasing/barriers/attachments, and
// Execute() once per frame against a backend command buffer. Grounded on
// gogpu-gg/render/gpu_renderer.go and gpucore/pipeline.go's HybridPipeline,
// which orchestrate a fixed sequence of independently-testable stages the
// same way Build() does here (resolve -> alias -> barrier-plan -> synth).
type Graph struct {
	opts graphOptions

	textures []textureDecl
	passes   []*passDecl
	sink     TextureHandle
	sinkSet  bool
	dupSink  string // name passed to a second SetFinalOutput call, if any

	physicalImages []backend.Image
	views          map[TextureHandle]backend.ImageView

	liveOrder []int // original pass indices, execution order
	resolved  []resolvedPass

	garbage []garbageSlot
}

// New creates an empty Graph.
func New(opts ...Option) *Graph {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	g := &Graph{
		opts:    o,
		views:   make(map[TextureHandle]backend.ImageView),
		garbage: make([]garbageSlot, o.framesInFlight),
	}
	return g
}

// Build resolves dependencies, computes aliasing and barriers, and
// synthesizes render-pass/framebuffer objects through factory. It must be
// called again after any texture or pass declaration changes.
func (g *Graph) Build(factory backend.Factory) (*CompiledFrameGraph, error) {
	if g.dupSink != "" {
		return nil, newBuildError(KindMultipleFrameOutputs, g.dupSink, invalidIndex, nil)
	}
	if !g.sink.valid() {
		return nil, newBuildError(KindNoFrameOutput, "", invalidIndex, nil)
	}

	usages := g.collectUsages()

	depInput := depgraph.Input{Sink: g.sink.index()}
	depInput.Passes = make([]depgraph.PassUsage, len(g.passes))
	for i, p := range g.passes {
		depInput.Passes[i] = depgraph.PassUsage{
			Reads:  readTextures(p),
			Writes: writeTextures(p),
		}
	}

	depResult, err := depgraph.Resolve(depInput)
	if err != nil {
		return nil, newBuildError(KindCyclicDependency, "", invalidIndex, err)
	}
	// The sink must actually be produced by some live pass; if no live
	// pass writes it, nothing reaches the frame output.
	if !anyPassWritesSink(g.passes, depResult.Live, g.sink) {
		return nil, newBuildError(KindNoFrameOutput, g.textureName(g.sink), invalidIndex, nil)
	}
	g.liveOrder = depResult.Live

	livePos := make(map[int]int, len(g.liveOrder))
	for pos, orig := range g.liveOrder {
		livePos[orig] = pos
	}

	// Recompute per-texture ranges restricted to live passes, in
	// compacted live-order positions (spec §4.2 step 5).
	liveUsages := g.recomputeLiveRanges(usages, livePos)

	aliasInputs := make([]alias.Input, 0, len(liveUsages))
	for handleIdx, u := range liveUsages {
		decl := g.textures[handleIdx]
		in := alias.Input{
			Handle:   handleIdx,
			Imported: decl.imported,
			Range:    alias.Range{First: u.useRange.First, Last: u.useRange.Last},
		}
		if !decl.imported {
			in.Settings = decl.settings.toImageSettings(u.aggregatedUsage())
		}
		aliasInputs = append(aliasInputs, in)
	}
	sort.Slice(aliasInputs, func(i, j int) bool { return aliasInputs[i].Handle < aliasInputs[j].Handle })

	physical, assign, err := alias.Allocate(aliasInputs)
	if err != nil {
		return nil, newBuildError(KindIncompatibleAlias, "", invalidIndex, err)
	}

	if err := g.allocatePhysicalImages(factory, physical); err != nil {
		return nil, err
	}
	if err := g.resolveViews(factory, physical, assign); err != nil {
		return nil, err
	}

	barriersByPass := g.planBarriers(physical, assign, liveUsages, livePos)

	resolved, culled, err := g.synthesizePasses(factory, liveUsages, livePos, barriersByPass)
	if err != nil {
		return nil, err
	}
	g.resolved = resolved

	summary := &CompiledFrameGraph{PhysicalTextureCount: len(physical)}
	for _, orig := range g.liveOrder {
		summary.LivePassNames = append(summary.LivePassNames, g.passes[orig].name)
	}
	summary.CulledPassNames = culled

	logger().Info("framegraph: build complete",
		"live_passes", len(g.liveOrder),
		"culled_passes", len(culled),
		"physical_textures", len(physical))

	return summary, nil
}

func readTextures(p *passDecl) []int {
	out := make([]int, 0, len(p.sampled)+len(p.inputs))
	for h := range p.sampled {
		out = append(out, h.index())
	}
	for h := range p.inputs {
		out = append(out, h.index())
	}
	if p.depth != nil {
		out = append(out, p.depth.handle.index())
	}
	return out
}

func writeTextures(p *passDecl) []int {
	out := make([]int, 0, len(p.outputs)+1)
	for h := range p.outputs {
		out = append(out, h.index())
	}
	if p.depth != nil {
		out = append(out, p.depth.handle.index())
	}
	return out
}

func passWritesSink(p *passDecl, sink TextureHandle) bool {
	if _, ok := p.outputs[sink]; ok {
		return true
	}
	return p.depth != nil && p.depth.handle == sink
}

func anyPassWritesSink(passes []*passDecl, live []int, sink TextureHandle) bool {
	for _, orig := range live {
		if passWritesSink(passes[orig], sink) {
			return true
		}
	}
	return false
}

// collectUsages walks every declared pass in declaration order and builds
// the per-texture usage record the resolver and allocator consult (spec §3
// "Texture usage record").
func (g *Graph) collectUsages() map[int]*textureUsage {
	usages := make(map[int]*textureUsage, len(g.textures))
	get := func(h TextureHandle) *textureUsage {
		u, ok := usages[h.index()]
		if !ok {
			u = newTextureUsage()
			u.imported = g.textures[h.index()].imported
			usages[h.index()] = u
		}
		return u
	}

	for passIdx, p := range g.passes {
		for h := range p.sampled {
			u := get(h)
			u.recordRead(passIdx, backend.UsageShaderSampling)
			u.sampled = append(u.sampled, passIdx)
		}
		for h := range p.inputs {
			u := get(h)
			u.recordRead(passIdx, backend.UsageShaderInput)
			u.input = append(u.input, passIdx)
		}
		for h, binding := range p.outputs {
			u := get(h)
			u.recordWrite(passIdx, backend.UsageRenderTarget)
			u.output = append(u.output, passIdx)
			if binding.clear != nil {
				u.clear = append(u.clear, passIdx)
			}
		}
		if p.depth != nil {
			u := get(p.depth.handle)
			u.recordWrite(passIdx, backend.UsageRenderTarget)
			u.depth = append(u.depth, passIdx)
			if p.depth.clear != nil {
				u.clear = append(u.clear, passIdx)
			}
		}
	}

	if g.sink.valid() {
		get(g.sink).finalOutput = true
	}
	return usages
}

// recomputeLiveRanges drops dead-pass references and remaps surviving pass
// indices to compacted live-order positions (spec §4.2 step 5).
func (g *Graph) recomputeLiveRanges(usages map[int]*textureUsage, livePos map[int]int) map[int]*textureUsage {
	out := make(map[int]*textureUsage, len(usages))
	remap := func(indices []int) []int {
		r := make([]int, 0, len(indices))
		for _, i := range indices {
			if p, ok := livePos[i]; ok {
				r = append(r, p)
			}
		}
		sort.Ints(r)
		return r
	}
	for handleIdx, u := range usages {
		nu := newTextureUsage()
		nu.imported = u.imported
		nu.finalOutput = u.finalOutput
		nu.sampled = remap(u.sampled)
		nu.input = remap(u.input)
		nu.output = remap(u.output)
		nu.depth = remap(u.depth)
		nu.clear = remap(u.clear)
		for _, list := range [][]int{nu.sampled, nu.input, nu.output, nu.depth} {
			for _, p := range list {
				nu.useRange = nu.useRange.extend(p)
			}
		}
		for _, p := range nu.output {
			nu.writeRange = nu.writeRange.extend(p)
		}
		for _, p := range nu.depth {
			nu.writeRange = nu.writeRange.extend(p)
		}
		for origPass, flags := range u.usagePerPass {
			if p, ok := livePos[origPass]; ok {
				nu.usagePerPass[p] = flags
			}
		}
		if len(nu.sampled)+len(nu.input)+len(nu.output)+len(nu.depth) == 0 && !nu.imported {
			continue // touched only by culled passes
		}
		out[handleIdx] = nu
	}
	return out
}

func (g *Graph) allocatePhysicalImages(factory backend.ImageFactory, physical []alias.PhysicalTexture) error {
	g.physicalImages = make([]backend.Image, len(physical))
	for i, phys := range physical {
		if phys.Imported {
			g.physicalImages[i] = g.textures[phys.Members[0].Handle].imports.Image
			continue
		}
		img, err := factory.CreateImage(phys.Settings)
		if err != nil {
			return fmt.Errorf("framegraph: allocate physical texture %d: %w", i, err)
		}
		g.physicalImages[i] = img
	}
	return nil
}

func (g *Graph) resolveViews(factory backend.ImageFactory, physical []alias.PhysicalTexture, assign map[int]int) error {
	g.views = make(map[TextureHandle]backend.ImageView, len(assign))
	for handleIdx, physIdx := range assign {
		handle := handleFromIndex(handleIdx)
		decl := g.textures[handleIdx]
		var layer, mip uint32
		if decl.imported {
			layer, mip = decl.imports.Layer, decl.imports.MipLevel
		}
		view, err := factory.CreateImageView(g.physicalImages[physIdx], layer, mip)
		if err != nil {
			return fmt.Errorf("framegraph: create view for %q: %w", decl.name, err)
		}
		g.views[handle] = view
	}
	return nil
}

// planBarriers groups every live touch of every declared texture by the
// physical texture it was assigned to, and runs the barrier planner once
// per physical texture.
func (g *Graph) planBarriers(physical []alias.PhysicalTexture, assign map[int]int, liveUsages map[int]*textureUsage, livePos map[int]int) map[int][]resolvedBarrier {
	type touch struct {
		pos      int
		member   int
		category barrier.Category
		stages   backend.ShaderStageFlags
	}
	perPhysical := make(map[int][]touch)

	for handleIdx, u := range liveUsages {
		physIdx, ok := assign[handleIdx]
		if !ok {
			continue
		}
		for _, pos := range u.sampled {
			perPhysical[physIdx] = append(perPhysical[physIdx], touch{pos, handleIdx, barrier.CategorySampled, sampledStagesAt(g, handleIdx, livePos, pos)})
		}
		for _, pos := range u.input {
			perPhysical[physIdx] = append(perPhysical[physIdx], touch{pos, handleIdx, barrier.CategoryInputAttachment, 0})
		}
		for _, pos := range u.output {
			perPhysical[physIdx] = append(perPhysical[physIdx], touch{pos, handleIdx, barrier.CategoryColorOutput, 0})
		}
		for _, pos := range u.depth {
			perPhysical[physIdx] = append(perPhysical[physIdx], touch{pos, handleIdx, barrier.CategoryDepthStencil, 0})
		}
	}

	rank := func(c barrier.Category) int {
		if c == barrier.CategorySampled || c == barrier.CategoryInputAttachment {
			return 0
		}
		return 1
	}

	out := make(map[int][]resolvedBarrier)
	for physIdx, touches := range perPhysical {
		sort.Slice(touches, func(i, j int) bool {
			if touches[i].pos != touches[j].pos {
				return touches[i].pos < touches[j].pos
			}
			return rank(touches[i].category) < rank(touches[j].category)
		})
		uses := make([]barrier.Use, len(touches))
		for i, t := range touches {
			uses[i] = barrier.Use{PassIndex: t.pos, Member: t.member, Category: t.category, Stages: t.stages}
		}
		for _, b := range barrier.Plan(uses) {
			out[b.BeforePassIndex] = append(out[b.BeforePassIndex], resolvedBarrier{
				image: g.physicalImages[physIdx],
				desc: backend.ImageBarrierDesc{
					SrcStages: b.SrcStages, DstStages: b.DstStages,
					SrcAccess: b.SrcAccess, DstAccess: b.DstAccess,
					SrcLayout: b.SrcLayout, DstLayout: b.DstLayout,
					LayerCount: 1, MipLevelCount: 1,
				},
			})
		}
	}
	return out
}

func sampledStagesAt(g *Graph, handleIdx int, livePos map[int]int, pos int) backend.ShaderStageFlags {
	for orig, p := range livePos {
		if p != pos {
			continue
		}
		if stages, ok := g.passes[orig].sampled[handleFromIndex(handleIdx)]; ok {
			return stages
		}
	}
	return 0
}

// synthesizePasses builds one resolvedPass per live pass: attachment
// descriptions, clear values, render pass and framebuffer objects, and the
// barriers that must be issued immediately before it.
func (g *Graph) synthesizePasses(factory backend.RenderPassFactory, liveUsages map[int]*textureUsage, livePos map[int]int, barriersByPass map[int][]resolvedBarrier) ([]resolvedPass, []string, error) {
	var culled []string
	liveSet := make(map[int]bool, len(g.liveOrder))
	for _, orig := range g.liveOrder {
		liveSet[orig] = true
	}
	for i, p := range g.passes {
		if !liveSet[i] {
			culled = append(culled, p.name)
			logger().Warn("framegraph: pass culled as dead", "pass", p.name)
		}
	}

	readAfter := func(handleIdx, pos int) bool {
		u := liveUsages[handleIdx]
		if u == nil {
			return false
		}
		for _, list := range [][]int{u.sampled, u.input} {
			for _, p := range list {
				if p > pos {
					return true
				}
			}
		}
		return false
	}
	priorContents := func(handleIdx, pos int) bool {
		u := liveUsages[handleIdx]
		if u == nil {
			return false
		}
		for _, list := range [][]int{u.sampled, u.input, u.output, u.depth} {
			for _, p := range list {
				if p < pos {
					return true
				}
			}
		}
		return false
	}

	resolved := make([]resolvedPass, len(g.liveOrder))
	for pos, orig := range g.liveOrder {
		decl := g.passes[orig]
		rp := resolvedPass{decl: decl, barriers: barriersByPass[pos]}

		if len(decl.outputs) == 0 && decl.depth == nil {
			resolved[pos] = rp
			continue
		}

		type bound struct {
			binding int
			handle  TextureHandle
			desc    backend.AttachmentDescription
			clear   *backend.ClearValue
		}
		var bounds []bound
		for h, ob := range decl.outputs {
			settings := g.textures[h.index()].settings
			req := synth.AttachmentRequest{
				Format: settings.Format, Samples: settings.Samples,
				Clears:           ob.clear != nil,
				HasPriorContents: priorContents(h.index(), pos),
				ReadAfter:        readAfter(h.index(), pos),
				PresentAfter:     decl.useRenderFrameOutput && h == g.sink,
			}
			bounds = append(bounds, bound{binding: ob.binding, handle: h, desc: synth.Plan(req), clear: ob.clear})
		}
		sort.Slice(bounds, func(i, j int) bool { return bounds[i].binding < bounds[j].binding })

		var descs []backend.AttachmentDescription
		var views []backend.ImageView
		var clears []backend.ClearValue
		for _, b := range bounds {
			descs = append(descs, b.desc)
			views = append(views, g.views[b.handle])
			if b.clear != nil {
				clears = append(clears, *b.clear)
			} else {
				clears = append(clears, backend.ClearValue{})
			}
		}

		if decl.depth != nil {
			h := decl.depth.handle
			settings := g.textures[h.index()].settings
			req := synth.AttachmentRequest{
				Format: settings.Format, Samples: settings.Samples,
				IsDepthStencil:   true,
				Clears:           decl.depth.clear != nil,
				HasPriorContents: priorContents(h.index(), pos),
				ReadAfter:        readAfter(h.index(), pos),
			}
			descs = append(descs, synth.Plan(req))
			views = append(views, g.views[h])
			if decl.depth.clear != nil {
				clears = append(clears, *decl.depth.clear)
			} else {
				clears = append(clears, backend.ClearValue{IsDepthStencil: true})
			}
		}

		renderPass, err := factory.CreateRenderPass(descs)
		if err != nil {
			return nil, nil, fmt.Errorf("framegraph: pass %q: create render pass: %w", decl.name, err)
		}
		width, height := decl.outputWidth, decl.outputHeight
		framebuffer, err := factory.CreateFramebuffer(renderPass, views, width, height)
		if err != nil {
			return nil, nil, fmt.Errorf("framegraph: pass %q: create framebuffer: %w", decl.name, err)
		}

		rp.hasRenderPass = true
		rp.renderPass = renderPass
		rp.framebuffer = framebuffer
		rp.clearValues = clears
		resolved[pos] = rp
	}
	return resolved, culled, nil
}

// Execute records one frame against cmd, in the order computed by the most
// recent Build(). frameIndex is the caller's monotonically increasing frame
// counter, used to key the deferred-destruction queue.
func (g *Graph) Execute(cmd backend.CommandBuffer, frameIndex int, secondaryFactory backend.CommandBufferFactory) error {
	if g.resolved == nil {
		return fmt.Errorf("framegraph: Execute called before a successful Build")
	}

	g.collectGarbage(frameIndex)

	for pos, rp := range g.resolved {
		for _, b := range rp.barriers {
			cmd.ImageBarrier(b.image, b.desc)
		}

		if !rp.hasRenderPass {
			if err := g.runCallback(cmd, frameIndex, pos, rp, secondaryFactory); err != nil {
				return err
			}
			continue
		}

		cmd.BeginRenderPass(rp.renderPass, rp.framebuffer, rp.clearValues, rp.decl.useSecondaryBuffers)
		if err := g.runCallback(cmd, frameIndex, pos, rp, secondaryFactory); err != nil {
			cmd.EndRenderPass()
			return err
		}
		cmd.EndRenderPass()
	}
	return nil
}

func (g *Graph) runCallback(cmd backend.CommandBuffer, frameIndex, pos int, rp resolvedPass, secondaryFactory backend.CommandBufferFactory) error {
	if rp.decl.execCallback == nil {
		return nil
	}
	ctx := &PassContext{
		Cmd:               cmd,
		CurrentFrameIndex: frameIndex,
		graph:             g,
		passIndex:         pos,
	}
	if rp.decl.useSecondaryBuffers {
		ctx.secondaryFactory = secondaryFactory
	}
	if err := rp.decl.execCallback(ctx); err != nil {
		return fmt.Errorf("framegraph: pass %q execution callback: %w", rp.decl.name, err)
	}
	return nil
}

func (g *Graph) resolveView(handle TextureHandle) (backend.ImageView, error) {
	v, ok := g.views[handle]
	if !ok {
		return nil, fmt.Errorf("framegraph: no resolved view for %q (graph not built, or handle unused)", g.textureName(handle))
	}
	return v, nil
}

func (g *Graph) destroyAfterUse(frameIndex int, resource backend.Destroyable) {
	slot := frameIndex % len(g.garbage)
	g.garbage[slot].items = append(g.garbage[slot].items, resource)
}

// collectGarbage frees every resource retired framesInFlight frames ago,
// per spec §5 "Shared-resource policy": the slot about to be reused by
// frameIndex was last written framesInFlight frames back, so anything still
// queued there is now safe to free.
func (g *Graph) collectGarbage(frameIndex int) {
	slot := frameIndex % len(g.garbage)
	for _, item := range g.garbage[slot].items {
		item.Destroy()
	}
	g.garbage[slot].items = nil
}
