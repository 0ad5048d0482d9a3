package reflect

import (
	"testing"

	"github.com/gogpu/framegraph/shader/ast"
)

func intConst(v int64) ast.Expression {
	return ast.Constant{Value: ast.ConstantValue{Kind: ast.PrimitiveInt, Int: v}}
}

// sequenceOf unwraps a ReflectionRecord's AST, which Reflect always emits as
// a single ast.Sequence (spec §4.10 step 2), returning its statements.
func sequenceOf(t *testing.T, rec *ReflectionRecord) []ast.Statement {
	t.Helper()
	seq, ok := rec.AST.(ast.Sequence)
	if !ok {
		t.Fatalf("rec.AST is %T, not ast.Sequence", rec.AST)
	}
	return seq.Statements
}

// Closure test matching the reflector's expected closure-and-emit
// behavior (spec §8 S5): an unused helper function must not appear in the
// reflected AST, and a used one must.
func TestReflectDropsUnreferencedFunction(t *testing.T) {
	statements := []ast.Statement{
		ast.FunctionDeclaration{
			Name: "helper",
			Body: []ast.Statement{ast.Return{Value: intConst(1)}},
		},
		ast.FunctionDeclaration{
			Name: "unused",
			Body: []ast.Statement{ast.Return{Value: intConst(2)}},
		},
		ast.InputDeclaration{Name: "uv", Type: ast.Vector{Component: ast.PrimitiveFloat, Size: 2}, Location: intConst(0)},
		ast.EntryFunctionDeclaration{
			Stage: ast.StageFragment,
			Function: ast.FunctionDeclaration{
				Name: "main",
				Body: []ast.Statement{
					ast.ExpressionStatement{Expr: ast.FunctionCall{Name: "helper"}},
					ast.Return{},
				},
			},
		},
	}

	r := New()
	if err := r.Build(statements); err != nil {
		t.Fatalf("Build: %v", err)
	}
	rec, err := r.Reflect(ast.StageFragment)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}

	var names []string
	for _, s := range sequenceOf(t, rec) {
		if fn, ok := s.(ast.FunctionDeclaration); ok {
			names = append(names, fn.Name)
		}
	}
	for _, n := range names {
		if n == "unused" {
			t.Fatalf("unused function leaked into reflection: %v", names)
		}
	}
	found := false
	for _, n := range names {
		if n == "helper" {
			found = true
		}
	}
	if !found {
		t.Fatalf("referenced helper missing from reflection: %v", names)
	}
}

// Location-evaluation test matching S6: a location expressed as arithmetic
// over constants folds to a concrete integer.
func TestReflectFoldsArithmeticLocation(t *testing.T) {
	loc := ast.Binary{Op: ast.BinaryAdd, Left: intConst(1), Right: intConst(2)}
	statements := []ast.Statement{
		ast.OutputDeclaration{Name: "color", Type: ast.Vector{Component: ast.PrimitiveFloat, Size: 4}, Location: loc},
		ast.EntryFunctionDeclaration{
			Stage: ast.StageFragment,
			Function: ast.FunctionDeclaration{
				Name: "main",
				Body: []ast.Statement{
					ast.ExpressionStatement{Expr: ast.Assignment{
						Op:     ast.AssignSet,
						Target: ast.Variable{Name: "color"},
						Value:  ast.Constant{Value: ast.ConstantValue{Kind: ast.PrimitiveFloat, Float: 1}},
					}},
				},
			},
		},
	}
	r := New()
	if err := r.Build(statements); err != nil {
		t.Fatalf("Build: %v", err)
	}
	rec, err := r.Reflect(ast.StageFragment)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	if len(rec.Outputs) != 1 || rec.Outputs[0].Location != 3 {
		t.Fatalf("expected folded location 3, got %+v", rec.Outputs)
	}
}

func TestReflectMissingEntryFunction(t *testing.T) {
	r := New()
	if err := r.Build(nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := r.Reflect(ast.StageCompute); err == nil {
		t.Fatal("expected ErrMissingEntryFunction")
	}
}

func TestBuildRejectsDuplicateNames(t *testing.T) {
	statements := []ast.Statement{
		ast.FunctionDeclaration{Name: "dup"},
		ast.FunctionDeclaration{Name: "dup"},
	}
	r := New()
	if err := r.Build(statements); err == nil {
		t.Fatal("expected ErrDuplicateDeclaration")
	}
}

func TestBuildRejectsDuplicateModuleVariable(t *testing.T) {
	statements := []ast.Statement{
		ast.VariableDeclaration{Name: "scale", Type: ast.Primitive{Kind: ast.PrimitiveFloat}, Initializer: ast.Constant{Value: ast.ConstantValue{Kind: ast.PrimitiveFloat, Float: 1}}},
		ast.VariableDeclaration{Name: "scale", Type: ast.Primitive{Kind: ast.PrimitiveFloat}, Initializer: ast.Constant{Value: ast.ConstantValue{Kind: ast.PrimitiveFloat, Float: 2}}},
	}
	r := New()
	if err := r.Build(statements); err == nil {
		t.Fatal("expected ErrDuplicateDeclaration")
	}
}

func TestReflectUnresolvableLocation(t *testing.T) {
	statements := []ast.Statement{
		ast.OutputDeclaration{Name: "color", Type: ast.Primitive{Kind: ast.PrimitiveFloat}, Location: ast.Variable{Name: "missingOption"}},
		ast.EntryFunctionDeclaration{
			Stage: ast.StageFragment,
			Function: ast.FunctionDeclaration{
				Name: "main",
				Body: []ast.Statement{
					ast.ExpressionStatement{Expr: ast.Assignment{
						Op:     ast.AssignSet,
						Target: ast.Variable{Name: "color"},
						Value:  ast.Constant{Value: ast.ConstantValue{Kind: ast.PrimitiveFloat, Float: 1}},
					}},
				},
			},
		},
	}
	r := New()
	if err := r.Build(statements); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := r.Reflect(ast.StageFragment); err == nil {
		t.Fatal("expected ErrUnresolvableLocation")
	}
}

// TestReflectEmissionOrder mirrors spec §8 scenario S5, but deliberately
// scrambles the source order (entry first, externals reversed, option
// last) to verify Reflect emits by category — options, structs, one
// aggregated externals block, outputs, functions after callees, the entry —
// rather than by source position.
func TestReflectEmissionOrder(t *testing.T) {
	structType := ast.StructRef{Name: "S"}
	statements := []ast.Statement{
		ast.EntryFunctionDeclaration{
			Stage: ast.StageFragment,
			Function: ast.FunctionDeclaration{
				Name: "main",
				Body: []ast.Statement{
					ast.ExpressionStatement{Expr: ast.Assignment{
						Op:     ast.AssignSet,
						Target: ast.Variable{Name: "outColor"},
						Value: ast.FunctionCall{Name: "helper", Args: []ast.Expression{
							ast.AccessIdentifier{Base: ast.Variable{Name: "u"}, Identifier: "a"},
						}},
					}},
					ast.ExpressionStatement{Expr: ast.BuiltInFunctionCall{
						Function: ast.BuiltInSample,
						Args:     []ast.Expression{ast.Variable{Name: "tex"}},
					}},
				},
			},
		},
		ast.ExternalDeclaration{Name: "tex", Type: ast.Sampler{Dim: ast.Sampler2D}, Set: intConst(0), Binding: intConst(2)},
		ast.ExternalDeclaration{Name: "u", Type: structType, Set: intConst(0), Binding: intConst(1)},
		ast.StructDeclaration{Name: "S", Members: []ast.StructMember{
			{Name: "a", Type: ast.Primitive{Kind: ast.PrimitiveFloat}},
			{Name: "b", Type: ast.Vector{Component: ast.PrimitiveFloat, Size: 3}},
		}},
		ast.OutputDeclaration{Name: "outColor", Type: ast.Vector{Component: ast.PrimitiveFloat, Size: 4}, Location: intConst(0)},
		ast.FunctionDeclaration{
			Name:   "helper",
			Params: []ast.Param{{Name: "x", Type: ast.Primitive{Kind: ast.PrimitiveFloat}}},
			Return: ast.Primitive{Kind: ast.PrimitiveFloat},
			Body:   []ast.Statement{ast.Return{Value: ast.Variable{Name: "x"}}},
		},
		ast.OptionDeclaration{Name: "FLAG", Type: ast.Primitive{Kind: ast.PrimitiveBool}, Default: ast.Constant{Value: ast.ConstantValue{Kind: ast.PrimitiveBool, Bool: true}}},
	}

	r := New()
	if err := r.Build(statements); err != nil {
		t.Fatalf("Build: %v", err)
	}
	rec, err := r.Reflect(ast.StageFragment)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}

	seq := sequenceOf(t, rec)
	var kinds []string
	for _, s := range seq {
		switch v := s.(type) {
		case ast.OptionDeclaration:
			kinds = append(kinds, "option:"+v.Name)
		case ast.StructDeclaration:
			kinds = append(kinds, "struct:"+v.Name)
		case ast.ExternalBlock:
			kinds = append(kinds, "externals")
			if len(v.Externals) != 2 {
				t.Fatalf("expected 2 aggregated externals, got %d", len(v.Externals))
			}
		case ast.OutputDeclaration:
			kinds = append(kinds, "output:"+v.Name)
		case ast.FunctionDeclaration:
			kinds = append(kinds, "func:"+v.Name)
		case ast.EntryFunctionDeclaration:
			kinds = append(kinds, "entry:"+v.Function.Name)
		default:
			t.Fatalf("unexpected statement kind %T in reflected sequence", s)
		}
	}

	want := []string{"option:FLAG", "struct:S", "externals", "output:outColor", "func:helper", "entry:main"}
	if len(kinds) != len(want) {
		t.Fatalf("emission order = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("emission order = %v, want %v", kinds, want)
		}
	}
}

// TestReflectIncludesModuleVariableInDependencyOrder verifies a module-level
// variable referenced by an entry's body is registered, folded into the
// closure, and emitted ahead of the entry (spec §3 "variables[name]"; §4.10
// step 2d).
func TestReflectIncludesModuleVariableInDependencyOrder(t *testing.T) {
	statements := []ast.Statement{
		ast.VariableDeclaration{
			Name:        "scale",
			Type:        ast.Primitive{Kind: ast.PrimitiveFloat},
			Initializer: ast.Constant{Value: ast.ConstantValue{Kind: ast.PrimitiveFloat, Float: 2}},
		},
		ast.EntryFunctionDeclaration{
			Stage: ast.StageFragment,
			Function: ast.FunctionDeclaration{
				Name: "main",
				Body: []ast.Statement{
					ast.ExpressionStatement{Expr: ast.Binary{
						Op:    ast.BinaryMul,
						Left:  ast.Variable{Name: "scale"},
						Right: ast.Constant{Value: ast.ConstantValue{Kind: ast.PrimitiveFloat, Float: 1}},
					}},
				},
			},
		},
	}

	r := New()
	if err := r.Build(statements); err != nil {
		t.Fatalf("Build: %v", err)
	}
	rec, err := r.Reflect(ast.StageFragment)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}

	seq := sequenceOf(t, rec)
	if len(seq) != 2 {
		t.Fatalf("expected 2 statements, got %d: %+v", len(seq), seq)
	}
	v, ok := seq[0].(ast.VariableDeclaration)
	if !ok || v.Name != "scale" {
		t.Fatalf("expected module variable scale first, got %+v", seq[0])
	}
	entry, ok := seq[1].(ast.EntryFunctionDeclaration)
	if !ok || entry.Function.Name != "main" {
		t.Fatalf("expected entry main last, got %+v", seq[1])
	}
}
