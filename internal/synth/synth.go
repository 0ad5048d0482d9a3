// Package synth synthesizes the render-pass attachment description for one
// physical texture's single pass-use, per spec §4.5: deciding loadOp,
// storeOp, and initial/final layouts from whether the attachment is cleared,
// whether it already holds live contents, and whether any later live pass
// reads it. Grounded on the attachment-key construction in
// gogpu-wgpu/hal/vulkan/renderpass.go (RenderPassKey, FramebufferKey) and
// the load/store-op rules in Atema's FrameGraphPass.cpp (original_source).
package synth

import "github.com/gogpu/framegraph/backend"

// AttachmentRequest describes one attachment slot a live pass binds a
// physical texture to.
type AttachmentRequest struct {
	Format         backend.ImageFormat
	Samples        backend.SampleCount
	IsDepthStencil bool

	// Clears is true when this pass clears the attachment before use.
	Clears bool

	// HasPriorContents is true when the physical texture already holds
	// live contents from an earlier pass on the same alias (i.e. this is
	// not the first use after an alias boundary).
	HasPriorContents bool

	// ReadAfter is true when some later live pass samples or binds this
	// attachment as an input.
	ReadAfter bool

	// PresentAfter is true when this pass's output is the render-frame
	// sink's presentation target (spec §4.1 EnableRenderFrameOutput).
	PresentAfter bool
}

// Plan derives the attachment description for one request, per spec §4.5:
//
//   - loadOp is Clear when Clears, Load when prior contents must survive,
//     DontCare otherwise.
//   - storeOp is Store when ReadAfter, DontCare otherwise.
//   - initialLayout is Attachment when prior contents survive, Undefined
//     otherwise.
//   - finalLayout is Present when PresentAfter, ShaderRead when ReadAfter,
//     Attachment otherwise.
func Plan(req AttachmentRequest) backend.AttachmentDescription {
	load := backend.LoadDontCare
	switch {
	case req.Clears:
		load = backend.LoadClear
	case req.HasPriorContents:
		load = backend.LoadLoad
	}

	store := backend.StoreDontCare
	if req.ReadAfter {
		store = backend.StoreStore
	}

	initial := backend.LayoutUndefined
	if req.HasPriorContents {
		initial = backend.LayoutAttachment
	}

	final := backend.LayoutAttachment
	switch {
	case req.PresentAfter:
		final = backend.LayoutPresent
	case req.ReadAfter:
		final = backend.LayoutShaderRead
	}

	return backend.AttachmentDescription{
		Format:        req.Format,
		Samples:       req.Samples,
		Load:          load,
		Store:         store,
		InitialLayout: initial,
		FinalLayout:   final,
	}
}
