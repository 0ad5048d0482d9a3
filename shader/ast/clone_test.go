package ast

import "testing"

func TestCloneStatementDeepCopiesNestedExpressions(t *testing.T) {
	original := FunctionDeclaration{
		Name: "main",
		Body: []Statement{
			VariableDeclaration{
				Name: "x",
				Type: Primitive{Kind: PrimitiveFloat},
				Initializer: Binary{
					Op:   BinaryAdd,
					Left: Constant{Value: ConstantValue{Kind: PrimitiveFloat, Float: 1}},
					Right: Variable{Name: "y"},
				},
			},
		},
	}

	cloned := cloneFunctionDecl(original)

	// Mutate the clone's nested expression and verify the original is
	// unaffected — proves the copy is deep, not shallow.
	decl := cloned.Body[0].(VariableDeclaration)
	bin := decl.Initializer.(Binary)
	bin.Left = Constant{Value: ConstantValue{Kind: PrimitiveFloat, Float: 99}}
	decl.Initializer = bin
	cloned.Body[0] = decl

	origDecl := original.Body[0].(VariableDeclaration)
	origBin := origDecl.Initializer.(Binary)
	origConst := origBin.Left.(Constant)
	if origConst.Value.Float != 1 {
		t.Fatalf("clone mutation leaked into original: got %v", origConst.Value.Float)
	}
}

func TestCloneTypeArrayIsStructurallyEqual(t *testing.T) {
	orig := Array{Element: Primitive{Kind: PrimitiveInt}, Size: Constant{Value: ConstantValue{Kind: PrimitiveInt, Int: 4}}}
	cloned := CloneType(orig).(Array)
	if !Equal(orig, cloned) {
		t.Fatalf("clone should be structurally equal to original")
	}
}

func TestVisitorSubstitutesExpressions(t *testing.T) {
	stmts := []Statement{
		ExpressionStatement{Expr: Variable{Name: "a"}},
	}
	v := &Visitor{
		Expression: func(e Expression) Expression {
			if va, ok := e.(Variable); ok && va.Name == "a" {
				return Variable{Name: "b"}
			}
			return e
		},
	}
	out := v.WalkStatements(stmts)
	got := out[0].(ExpressionStatement).Expr.(Variable)
	if got.Name != "b" {
		t.Fatalf("expected substituted variable %q, got %q", "b", got.Name)
	}
}

func TestConstVisitorCollectsVariableNames(t *testing.T) {
	stmts := []Statement{
		ExpressionStatement{Expr: Binary{Op: BinaryAdd, Left: Variable{Name: "a"}, Right: Variable{Name: "b"}}},
	}
	var names []string
	v := &ConstVisitor{
		Expression: func(e Expression) {
			if va, ok := e.(Variable); ok {
				names = append(names, va.Name)
			}
		},
	}
	v.WalkStatements(stmts)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("expected [a b], got %v", names)
	}
}
