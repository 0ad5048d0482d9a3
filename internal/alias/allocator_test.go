package alias

import (
	"testing"

	"github.com/gogpu/framegraph/backend"
)

func settings(usages backend.ImageUsage) backend.ImageSettings {
	return backend.ImageSettings{
		Width: 1920, Height: 1080,
		Format:    backend.FormatRGBA8Unorm,
		MipLevels: 1,
		Samples:   1,
		Tiling:    backend.TilingOptimal,
		Usages:    usages,
	}
}

// S3 — X used [0,1], Y used [1,2]; compatible settings must alias together.
func TestAllocateAliasesCompatibleNonOverlapping(t *testing.T) {
	inputs := []Input{
		{Handle: 1, Settings: settings(backend.UsageRenderTarget | backend.UsageShaderSampling), Range: Range{0, 1}},
		{Handle: 2, Settings: settings(backend.UsageRenderTarget | backend.UsageShaderSampling), Range: Range{1, 2}},
	}

	physical, assign, err := Allocate(inputs)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(physical) != 1 {
		t.Fatalf("expected 1 physical texture, got %d", len(physical))
	}
	if assign[1] != assign[2] {
		t.Fatalf("expected X and Y to share a physical texture")
	}
	if len(physical[0].Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(physical[0].Members))
	}
}

func TestAllocateOverlappingRangesNeverShare(t *testing.T) {
	inputs := []Input{
		{Handle: 1, Settings: settings(backend.UsageRenderTarget), Range: Range{0, 2}},
		{Handle: 2, Settings: settings(backend.UsageRenderTarget), Range: Range{1, 3}},
	}
	physical, assign, err := Allocate(inputs)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if assign[1] == assign[2] {
		t.Fatal("overlapping ranges must not share a physical texture")
	}
	_ = physical
}

func TestAllocateImportedNeverShared(t *testing.T) {
	inputs := []Input{
		{Handle: 1, Imported: true, Settings: settings(backend.UsageRenderTarget), Range: Range{0, 5}},
		{Handle: 2, Settings: settings(backend.UsageRenderTarget), Range: Range{1, 2}},
		{Handle: 3, Settings: settings(backend.UsageRenderTarget), Range: Range{3, 4}},
	}
	physical, assign, err := Allocate(inputs)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(physical[assign[1]].Members) != 1 {
		t.Fatal("imported texture must never share a physical texture")
	}
}

func TestAllocateIncompatibleSettingsNeverShare(t *testing.T) {
	big := settings(backend.UsageRenderTarget)
	small := big
	small.Width = 800
	inputs := []Input{
		{Handle: 1, Settings: big, Range: Range{0, 0}},
		{Handle: 2, Settings: small, Range: Range{1, 1}},
	}
	_, assign, err := Allocate(inputs)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if assign[1] == assign[2] {
		t.Fatal("incompatible settings must not share a physical texture")
	}
}

func TestAllocateUsageSupersetRequired(t *testing.T) {
	// Physical texture accumulates RenderTarget only; a later alias that
	// additionally needs ShaderSampling cannot join even if ranges and base
	// settings match.
	inputs := []Input{
		{Handle: 1, Settings: settings(backend.UsageRenderTarget), Range: Range{0, 0}},
		{Handle: 2, Settings: settings(backend.UsageRenderTarget | backend.UsageShaderSampling), Range: Range{1, 1}},
	}
	_, assign, err := Allocate(inputs)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if assign[1] == assign[2] {
		t.Fatal("a stricter usage requirement must not silently join a laxer physical texture")
	}
}
