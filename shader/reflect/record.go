// Package reflect implements the shader AST reflector: a two-phase
// build/query pass that registers every top-level declaration with its
// dependencies, then — per requested entry stage — computes the transitive
// closure of declarations that stage actually needs, constant-folds every
// location/set/binding expression to an integer, and emits a reduced,
// self-contained, dependency-ordered AST. Grounded on the declaration-table
// approach in Atema's Shader/Ast/Statement.hpp (original_source): that
// header tracks per-statement "external declarations used" the same way
// this package's dependency sets do.
package reflect

import "github.com/gogpu/framegraph/shader/ast"

// Slot is a constant-folded input or output binding.
type Slot struct {
	Name     string
	Type     ast.Type
	Location int
}

// Binding is a constant-folded resource binding.
type Binding struct {
	Name    string
	Type    ast.Type
	Set     int
	Binding int
}

// StructInfo is a struct declaration reachable from a reflected stage.
type StructInfo struct {
	Name    string
	Members []ast.StructMember
}

// ReflectionRecord is the result of reflecting one entry stage: its
// resolved interface (inputs, outputs, external bindings, structs,
// every declared option) plus the minimal self-contained AST needed to compile
// it. AST is a single Sequence statement holding the closure's declarations
// in the order spec §4.10 step 2 mandates: options, structs, one aggregated
// externals block, module variables, the entry's inputs/outputs, functions
// after their callees, then the entry itself.
type ReflectionRecord struct {
	Stage     ast.ShaderStage
	Inputs    []Slot
	Outputs   []Slot
	Externals []Binding
	Structs   []StructInfo
	Options   []string

	AST ast.Statement
}
