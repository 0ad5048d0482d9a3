package framegraph

// TextureHandle opaquely identifies a declared virtual or imported texture.
// Handles are dense, starting at 1, and stable for the lifetime of the
// declaring Graph's current build (spec §3, §9 "Arena-vs-pointer": a dense
// vector replaces a pointer graph because handles never need to outlive one
// Build()).
type TextureHandle uint32

// InvalidTextureHandle is the reserved sentinel for "no texture".
const InvalidTextureHandle TextureHandle = 0

func (h TextureHandle) valid() bool { return h != InvalidTextureHandle }

// index converts a 1-based handle into a 0-based slice index.
func (h TextureHandle) index() int { return int(h) - 1 }

func handleFromIndex(i int) TextureHandle { return TextureHandle(i + 1) }
