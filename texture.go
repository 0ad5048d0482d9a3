package framegraph

import "github.com/gogpu/framegraph/backend"

// TextureSettings is the immutable description of a virtual (transient)
// texture, per spec §3.
type TextureSettings struct {
	Width, Height uint32
	Format        backend.ImageFormat
	MipLevels     uint32
	Samples       backend.SampleCount
	Tiling        backend.Tiling

	// Usages is the usage-flag set this texture declares up front. Build
	// does not consult it: the aliasing allocator (internal/alias) works
	// from the usage flags aggregated from the passes. Usages is read only
	// by compatibleForAliasing below, which Build does not call.
	Usages backend.ImageUsage
}

// compatibleForAliasing reports whether two texture settings may share one
// backing image, per spec §3: width, height, format, mip-level count,
// sample count, and tiling must be equal, and other's usage set must be a
// subset of s's.
func (s TextureSettings) compatibleForAliasing(other TextureSettings) bool {
	if s.Width != other.Width || s.Height != other.Height {
		return false
	}
	if s.Format != other.Format {
		return false
	}
	if s.MipLevels != other.MipLevels {
		return false
	}
	if s.Samples != other.Samples {
		return false
	}
	if s.Tiling != other.Tiling {
		return false
	}
	return s.Usages.Has(other.Usages)
}

func (s TextureSettings) toImageSettings(usages backend.ImageUsage) backend.ImageSettings {
	return backend.ImageSettings{
		Width:     s.Width,
		Height:    s.Height,
		Format:    s.Format,
		MipLevels: s.MipLevels,
		Samples:   s.Samples,
		Tiling:    s.Tiling,
		Usages:    usages,
	}
}

// ImportedTexture is an externally-owned image bound into the graph by
// handle, per spec §3. Imported textures are never aliased and are assumed
// to retain their contents between frames.
type ImportedTexture struct {
	Image    backend.Image
	Layer    uint32
	MipLevel uint32
}

// textureDecl is the builder-internal record for one declared texture,
// holding either virtual settings or an import, plus the declaration-order
// bookkeeping the resolver and allocator need.
type textureDecl struct {
	name     string
	imported bool
	settings TextureSettings  // valid iff !imported
	imports  ImportedTexture  // valid iff imported

	finalOutput bool
}

// CreateTexture declares a new virtual texture and returns a freshly
// allocated, dense handle (spec §4.1).
func (g *Graph) CreateTexture(name string, settings TextureSettings) TextureHandle {
	g.textures = append(g.textures, textureDecl{name: name, settings: settings})
	return handleFromIndex(len(g.textures) - 1)
}

// ImportTexture binds an externally-owned image into the graph and returns
// a handle flagged as imported (spec §4.1). The image is borrowed: the
// graph must not destroy it (spec §5 "Shared-resource policy").
func (g *Graph) ImportTexture(name string, image backend.Image, layer, mipLevel uint32) TextureHandle {
	g.textures = append(g.textures, textureDecl{
		name:     name,
		imported: true,
		imports:  ImportedTexture{Image: image, Layer: layer, MipLevel: mipLevel},
	})
	return handleFromIndex(len(g.textures) - 1)
}

// TextureSettings returns the declared settings of a virtual texture. It
// panics if handle does not identify a virtual texture declared on this
// graph — callers are expected to only query handles they themselves
// obtained from CreateTexture. Grounded on Atema's
// FrameGraphBuilder::getTextureSettings (original_source), which exposes
// the same query for callers that need to inspect a texture before adding a
// pass that consumes it (SPEC_FULL.md §5).
func (g *Graph) TextureSettings(handle TextureHandle) TextureSettings {
	d := g.texture(handle)
	if d.imported {
		panic("framegraph: TextureSettings called on an imported texture")
	}
	return d.settings
}

// SetFinalOutput designates handle as the render-frame sink: the endpoint
// from which liveness propagates backward during dependency resolution
// (spec §3 "finalOutput" flag, §4.2 step 1). At most one texture may be the
// sink per build; a second call records the conflict and Build reports it
// as KindMultipleFrameOutputs, matching how other declaration errors
// surface only at Build rather than at the declaring call (spec §7).
func (g *Graph) SetFinalOutput(handle TextureHandle) {
	if g.sinkSet && handle != g.sink {
		g.dupSink = g.textureName(handle)
		return
	}
	g.sinkSet = true
	for i := range g.textures {
		g.textures[i].finalOutput = false
	}
	g.texturePtr(handle).finalOutput = true
	g.sink = handle
}

func (g *Graph) texture(handle TextureHandle) textureDecl {
	return *g.texturePtr(handle)
}

func (g *Graph) texturePtr(handle TextureHandle) *textureDecl {
	if !handle.valid() || handle.index() < 0 || handle.index() >= len(g.textures) {
		panic("framegraph: invalid texture handle")
	}
	return &g.textures[handle.index()]
}

func (g *Graph) textureName(handle TextureHandle) string {
	if !handle.valid() || handle.index() >= len(g.textures) {
		return "<invalid>"
	}
	return g.textures[handle.index()].name
}
