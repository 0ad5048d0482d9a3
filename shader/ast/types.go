// Package ast models a shading-language abstract syntax tree as a set of
// tagged-variant node interfaces, mirroring the PathElement/isPathElement
// pattern used for path elements in the wider package family: one interface
// per node category, an unexported marker method per variant, and plain
// value structs carrying each variant's fields.
package ast

import "reflect"

// Type is a shader value type: void, a primitive scalar, a vector, a
// matrix, a sampler, a struct reference, or a fixed-size array of another
// type.
type Type interface {
	isType()
}

// PrimitiveKind enumerates scalar shader types.
type PrimitiveKind int

const (
	PrimitiveBool PrimitiveKind = iota
	PrimitiveInt
	PrimitiveUInt
	PrimitiveFloat
)

// Void is the empty return type of a function with no result.
type Void struct{}

func (Void) isType() {}

// Primitive is a scalar type.
type Primitive struct {
	Kind PrimitiveKind
}

func (Primitive) isType() {}

// Vector is a fixed-size vector of a primitive component type.
type Vector struct {
	Component PrimitiveKind
	Size      int // 2, 3, or 4
}

func (Vector) isType() {}

// Matrix is a Columns x Rows matrix of float components.
type Matrix struct {
	Columns, Rows int
}

func (Matrix) isType() {}

// SamplerDim is the dimensionality of a Sampler type.
type SamplerDim int

const (
	Sampler1D SamplerDim = iota
	Sampler2D
	Sampler3D
	SamplerCube
)

// Sampler is a texture-sampling handle type.
type Sampler struct {
	Dim   SamplerDim
	Array bool
}

func (Sampler) isType() {}

// StructRef names a user-declared struct type by its declaration name.
type StructRef struct {
	Name string
}

func (StructRef) isType() {}

// Array is a fixed-size array of an element type. Size is itself an
// Expression, so a size may be a literal or a reference to a named option;
// the reflector does not constant-fold array sizes.
type Array struct {
	Element Type
	Size    Expression
}

func (Array) isType() {}

// Equal reports whether two types denote the same shape. StructRef equality
// is by name only; resolving that name to an actual declaration is the
// reflector's job, not the type system's.
func Equal(a, b Type) bool {
	switch av := a.(type) {
	case Void:
		_, ok := b.(Void)
		return ok
	case Primitive:
		bv, ok := b.(Primitive)
		return ok && av.Kind == bv.Kind
	case Vector:
		bv, ok := b.(Vector)
		return ok && av.Component == bv.Component && av.Size == bv.Size
	case Matrix:
		bv, ok := b.(Matrix)
		return ok && av.Columns == bv.Columns && av.Rows == bv.Rows
	case Sampler:
		bv, ok := b.(Sampler)
		return ok && av.Dim == bv.Dim && av.Array == bv.Array
	case StructRef:
		bv, ok := b.(StructRef)
		return ok && av.Name == bv.Name
	case Array:
		bv, ok := b.(Array)
		return ok && Equal(av.Element, bv.Element) && reflect.DeepEqual(av.Size, bv.Size)
	default:
		return false
	}
}

// IsComposite reports whether t is a Struct, Array, Matrix, or Vector: a
// type whose members/components might each independently need a location
// slot during reflection (spec §4.10).
func IsComposite(t Type) bool {
	switch t.(type) {
	case Vector, Matrix, StructRef, Array:
		return true
	default:
		return false
	}
}

// IsScalar reports whether t is a bare Primitive.
func IsScalar(t Type) bool {
	_, ok := t.(Primitive)
	return ok
}

// IsSampler reports whether t is a Sampler.
func IsSampler(t Type) bool {
	_, ok := t.(Sampler)
	return ok
}

// ComponentType returns the scalar component type of a Vector or Matrix, or
// t itself for a Primitive.
func ComponentType(t Type) Type {
	switch v := t.(type) {
	case Vector:
		return Primitive{Kind: v.Component}
	case Matrix:
		return Primitive{Kind: PrimitiveFloat}
	default:
		return t
	}
}
