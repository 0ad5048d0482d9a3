package framegraph

import (
	"errors"
	"testing"

	"github.com/gogpu/framegraph/backend"
)

type fakeImage struct{ settings backend.ImageSettings }

func (f *fakeImage) Settings() backend.ImageSettings { return f.settings }

type fakeView struct {
	img   backend.Image
	layer uint32
	mip   uint32
}

func (v *fakeView) Image() backend.Image { return v.img }
func (v *fakeView) Layer() uint32        { return v.layer }
func (v *fakeView) MipLevel() uint32     { return v.mip }

type fakeRenderPass struct{ attachments []backend.AttachmentDescription }
type fakeFramebuffer struct{ views []backend.ImageView }

type fakeFactory struct{}

func (fakeFactory) CreateImage(settings backend.ImageSettings) (backend.Image, error) {
	return &fakeImage{settings: settings}, nil
}
func (fakeFactory) CreateImageView(img backend.Image, layer, mip uint32) (backend.ImageView, error) {
	return &fakeView{img: img, layer: layer, mip: mip}, nil
}
func (fakeFactory) CreateRenderPass(attachments []backend.AttachmentDescription) (backend.RenderPass, error) {
	return &fakeRenderPass{attachments: attachments}, nil
}
func (fakeFactory) CreateFramebuffer(rp backend.RenderPass, views []backend.ImageView, w, h uint32) (backend.Framebuffer, error) {
	return &fakeFramebuffer{views: views}, nil
}

type recordedBarrier struct {
	img  backend.Image
	desc backend.ImageBarrierDesc
}

type fakeCmd struct {
	barriers   []recordedBarrier
	begins     int
	ends       int
	inPass     bool
}

func (c *fakeCmd) Begin() error { return nil }
func (c *fakeCmd) End() error   { return nil }
func (c *fakeCmd) BeginRenderPass(rp backend.RenderPass, fb backend.Framebuffer, clears []backend.ClearValue, secondary bool) {
	c.begins++
	c.inPass = true
}
func (c *fakeCmd) EndRenderPass() {
	c.ends++
	c.inPass = false
}
func (c *fakeCmd) ImageBarrier(img backend.Image, desc backend.ImageBarrierDesc) {
	if c.inPass {
		panic("barrier issued inside a render pass")
	}
	c.barriers = append(c.barriers, recordedBarrier{img: img, desc: desc})
}
func (c *fakeCmd) ExecuteSecondaryCommands(cmds []backend.CommandBuffer) {}

func rgba8(w, h uint32) TextureSettings {
	return TextureSettings{
		Width: w, Height: h,
		Format:  backend.FormatRGBA8Unorm,
		MipLevels: 1,
		Samples: 1,
		Tiling:  backend.TilingOptimal,
		Usages:  backend.UsageRenderTarget | backend.UsageShaderSampling,
	}
}

// TestGraphBuildAndExecuteLinearChain builds and runs S1's three-pass chain
// (A -> B -> sink) end to end against a fake backend.
func TestGraphBuildAndExecuteLinearChain(t *testing.T) {
	g := New()

	a := g.CreateTexture("A", rgba8(64, 64))
	b := g.CreateTexture("B", rgba8(64, 64))
	sink := g.CreateTexture("Sink", rgba8(64, 64))
	g.SetFinalOutput(sink)

	var ran []string

	p0 := g.CreatePass("P0")
	if err := p0.AddOutputTexture(a, 0, &backend.ClearValue{}); err != nil {
		t.Fatalf("AddOutputTexture: %v", err)
	}
	p0.SetExecutionCallback(func(ctx *PassContext) error {
		ran = append(ran, "P0")
		return nil
	})

	p1 := g.CreatePass("P1")
	if err := p1.AddSampledTexture(a, backend.ShaderStageFlags(0).With(backend.StageFragment)); err != nil {
		t.Fatalf("AddSampledTexture: %v", err)
	}
	if err := p1.AddOutputTexture(b, 0, &backend.ClearValue{}); err != nil {
		t.Fatalf("AddOutputTexture: %v", err)
	}
	p1.SetExecutionCallback(func(ctx *PassContext) error {
		ran = append(ran, "P1")
		if _, err := ctx.ResolveView(a); err != nil {
			t.Errorf("ResolveView(a): %v", err)
		}
		return nil
	})

	p2 := g.CreatePass("P2")
	if err := p2.AddSampledTexture(b, backend.ShaderStageFlags(0).With(backend.StageFragment)); err != nil {
		t.Fatalf("AddSampledTexture: %v", err)
	}
	if err := p2.AddOutputTexture(sink, 0, nil); err != nil {
		t.Fatalf("AddOutputTexture: %v", err)
	}
	p2.EnableRenderFrameOutput(true)
	p2.SetExecutionCallback(func(ctx *PassContext) error {
		ran = append(ran, "P2")
		return nil
	})

	summary, err := g.Build(fakeFactory{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(summary.LivePassNames) != 3 {
		t.Fatalf("expected 3 live passes, got %v", summary.LivePassNames)
	}

	cmd := &fakeCmd{}
	if err := g.Execute(cmd, 0, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(ran) != 3 || ran[0] != "P0" || ran[1] != "P1" || ran[2] != "P2" {
		t.Fatalf("unexpected execution order: %v", ran)
	}
	if cmd.begins != 3 || cmd.ends != 3 {
		t.Fatalf("expected 3 begin/end render pass pairs, got %d/%d", cmd.begins, cmd.ends)
	}
	if len(cmd.barriers) == 0 {
		t.Fatal("expected at least one image barrier to be issued")
	}
}

// TestGraphBuildCullsDeadPass mirrors S2: a pass whose output nobody reads
// must not appear in the compiled plan.
func TestGraphBuildCullsDeadPass(t *testing.T) {
	g := New()
	a := g.CreateTexture("A", rgba8(32, 32))
	sink := g.CreateTexture("Sink", rgba8(32, 32))
	dead := g.CreateTexture("Dead", rgba8(32, 32))
	g.SetFinalOutput(sink)

	p0 := g.CreatePass("P0")
	_ = p0.AddOutputTexture(a, 0, nil)

	p1 := g.CreatePass("P1")
	_ = p1.AddSampledTexture(a, backend.ShaderStageFlags(0).With(backend.StageFragment))
	_ = p1.AddOutputTexture(sink, 0, nil)
	p1.EnableRenderFrameOutput(true)

	deadPass := g.CreatePass("DeadPass")
	_ = deadPass.AddOutputTexture(dead, 0, nil)

	summary, err := g.Build(fakeFactory{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(summary.LivePassNames) != 2 {
		t.Fatalf("expected 2 live passes, got %v", summary.LivePassNames)
	}
	if len(summary.CulledPassNames) != 1 || summary.CulledPassNames[0] != "DeadPass" {
		t.Fatalf("expected DeadPass culled, got %v", summary.CulledPassNames)
	}
}

func TestGraphBuildRequiresFrameOutput(t *testing.T) {
	g := New()
	if _, err := g.Build(fakeFactory{}); err == nil {
		t.Fatal("expected error when no final output is declared")
	}
}

func TestGraphBuildRejectsMultipleFrameOutputs(t *testing.T) {
	g := New()
	a := g.CreateTexture("A", rgba8(64, 64))
	b := g.CreateTexture("B", rgba8(64, 64))
	g.SetFinalOutput(a)
	g.SetFinalOutput(b)

	_, err := g.Build(fakeFactory{})
	if err == nil {
		t.Fatal("expected error when two textures are set as the final output")
	}
	if !errors.Is(err, ErrMultipleFrameOutputs) {
		t.Fatalf("expected ErrMultipleFrameOutputs, got %v", err)
	}
}

// Re-designating the same handle as the final output is not a conflict.
func TestGraphSetFinalOutputIdempotentForSameHandle(t *testing.T) {
	g := New()
	sink := g.CreateTexture("Sink", rgba8(64, 64))
	g.SetFinalOutput(sink)
	g.SetFinalOutput(sink)

	if _, err := g.Build(fakeFactory{}); err == nil {
		t.Fatal("expected error since no pass writes the sink")
	} else if errors.Is(err, ErrMultipleFrameOutputs) {
		t.Fatalf("same handle set twice should not be reported as multiple outputs: %v", err)
	}
}
