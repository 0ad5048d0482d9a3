package ast

// Statement is any shader statement node.
type Statement interface {
	isStatement()
}

// ShaderStage identifies which pipeline stage a FunctionDeclaration is an
// entry point for.
type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
	StageCompute
)

// Conditional is an if/else statement; Else is nil when there is no else
// branch.
type Conditional struct {
	Cond Expression
	Then []Statement
	Else []Statement
}

func (Conditional) isStatement() {}

// ForLoop is a C-style for loop. Init and Update may be nil.
type ForLoop struct {
	Init   Statement
	Cond   Expression
	Update Statement
	Body   []Statement
}

func (ForLoop) isStatement() {}

// WhileLoop tests Cond before each iteration.
type WhileLoop struct {
	Cond Expression
	Body []Statement
}

func (WhileLoop) isStatement() {}

// DoWhileLoop tests Cond after each iteration.
type DoWhileLoop struct {
	Body []Statement
	Cond Expression
}

func (DoWhileLoop) isStatement() {}

// VariableDeclaration introduces a variable, with an optional initializer:
// a local one inside a function body, a module-level one at the top level.
type VariableDeclaration struct {
	Name        string
	Type        Type
	Initializer Expression
	Const       bool
}

func (VariableDeclaration) isStatement() {}

// StructMember is one field of a StructDeclaration.
type StructMember struct {
	Name string
	Type Type
}

// StructDeclaration declares a named aggregate type.
type StructDeclaration struct {
	Name    string
	Members []StructMember
}

func (StructDeclaration) isStatement() {}

// InputDeclaration declares a stage input, bound to a location expression
// that must fold to an integer constant during reflection (spec §4.10).
type InputDeclaration struct {
	Name     string
	Type     Type
	Location Expression
}

func (InputDeclaration) isStatement() {}

// OutputDeclaration declares a stage output, parallel to InputDeclaration.
type OutputDeclaration struct {
	Name     string
	Type     Type
	Location Expression
}

func (OutputDeclaration) isStatement() {}

// ExternalDeclaration declares a resource binding (uniform buffer, sampler,
// texture) at a (set, binding) pair, each independently constant-foldable.
type ExternalDeclaration struct {
	Name    string
	Type    Type
	Set     Expression
	Binding Expression
}

func (ExternalDeclaration) isStatement() {}

// ExternalBlock aggregates every ExternalDeclaration a reflected stage
// depends on into one node, preserving each one's original variable record.
// The reflector emits exactly one of these per stage (spec §4.10 step 2c);
// ordinary AST input never contains one.
type ExternalBlock struct {
	Externals []ExternalDeclaration
}

func (ExternalBlock) isStatement() {}

// OptionDeclaration declares a named specialization constant with a default
// value, consumed by Optional blocks and by Array sizes (spec §4.10
// constant-folding; supplemented from original_source's option-driven
// conditional compilation, not present in the distilled spec).
type OptionDeclaration struct {
	Name    string
	Type    Type
	Default Expression
}

func (OptionDeclaration) isStatement() {}

// Param is one FunctionDeclaration parameter.
type Param struct {
	Name string
	Type Type
}

// FunctionDeclaration declares a user function.
type FunctionDeclaration struct {
	Name   string
	Params []Param
	Return Type
	Body   []Statement
}

func (FunctionDeclaration) isStatement() {}

// EntryFunctionDeclaration marks a FunctionDeclaration as the entry point
// for Stage (spec §3 "entry function").
type EntryFunctionDeclaration struct {
	Stage    ShaderStage
	Function FunctionDeclaration
}

func (EntryFunctionDeclaration) isStatement() {}

// ExpressionStatement evaluates Expr for its side effects.
type ExpressionStatement struct {
	Expr Expression
}

func (ExpressionStatement) isStatement() {}

// Break exits the innermost loop.
type Break struct{}

func (Break) isStatement() {}

// Continue skips to the innermost loop's next iteration.
type Continue struct{}

func (Continue) isStatement() {}

// Return exits the enclosing function. Value is nil for a void return.
type Return struct {
	Value Expression
}

func (Return) isStatement() {}

// Discard aborts fragment-shader execution without writing outputs.
type Discard struct{}

func (Discard) isStatement() {}

// Sequence groups statements into one block, used where the AST needs an
// explicit scope boundary distinct from a bare []Statement slice (e.g. a
// cloned function body).
type Sequence struct {
	Statements []Statement
}

func (Sequence) isStatement() {}

// Optional gates Body on whether the named option evaluates truthy,
// supplementing the distilled spec with the original implementation's
// option-conditioned compilation (original_source).
type Optional struct {
	Condition string
	Body      []Statement
}

func (Optional) isStatement() {}

// Include is a textual include directive retained verbatim in the AST; the
// reflector does not expand it; resolving includes is outside this
// package's scope.
type Include struct {
	Path string
}

func (Include) isStatement() {}
