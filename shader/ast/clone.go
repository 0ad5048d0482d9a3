package ast

// CloneType deep-copies a Type node. Types built from other types (Array)
// are copied recursively; all others are already immutable value types and
// are returned as-is.
func CloneType(t Type) Type {
	switch v := t.(type) {
	case Array:
		return Array{Element: CloneType(v.Element), Size: CloneExpr(v.Size)}
	default:
		return t
	}
}

// CloneExpr deep-copies an Expression tree.
func CloneExpr(e Expression) Expression {
	if e == nil {
		return nil
	}
	switch v := e.(type) {
	case Constant:
		return v
	case Variable:
		return v
	case AccessIndex:
		return AccessIndex{Base: CloneExpr(v.Base), Index: CloneExpr(v.Index)}
	case AccessIdentifier:
		return AccessIdentifier{Base: CloneExpr(v.Base), Identifier: v.Identifier}
	case Assignment:
		return Assignment{Op: v.Op, Target: CloneExpr(v.Target), Value: CloneExpr(v.Value)}
	case Unary:
		return Unary{Op: v.Op, Operand: CloneExpr(v.Operand)}
	case Binary:
		return Binary{Op: v.Op, Left: CloneExpr(v.Left), Right: CloneExpr(v.Right)}
	case FunctionCall:
		return FunctionCall{Name: v.Name, Args: cloneExprs(v.Args)}
	case BuiltInFunctionCall:
		return BuiltInFunctionCall{Function: v.Function, Args: cloneExprs(v.Args)}
	case Cast:
		return Cast{Target: CloneType(v.Target), Value: CloneExpr(v.Value)}
	case Swizzle:
		return Swizzle{Base: CloneExpr(v.Base), Components: v.Components}
	case Ternary:
		return Ternary{Cond: CloneExpr(v.Cond), IfTrue: CloneExpr(v.IfTrue), IfFalse: CloneExpr(v.IfFalse)}
	default:
		return e
	}
}

func cloneExprs(in []Expression) []Expression {
	if in == nil {
		return nil
	}
	out := make([]Expression, len(in))
	for i, e := range in {
		out[i] = CloneExpr(e)
	}
	return out
}

func cloneStatements(in []Statement) []Statement {
	if in == nil {
		return nil
	}
	out := make([]Statement, len(in))
	for i, s := range in {
		out[i] = CloneStatement(s)
	}
	return out
}

// CloneStatement deep-copies a Statement tree, including every nested
// expression and sub-statement (spec §4.8).
func CloneStatement(s Statement) Statement {
	if s == nil {
		return nil
	}
	switch v := s.(type) {
	case Conditional:
		return Conditional{Cond: CloneExpr(v.Cond), Then: cloneStatements(v.Then), Else: cloneStatements(v.Else)}
	case ForLoop:
		return ForLoop{Init: CloneStatement(v.Init), Cond: CloneExpr(v.Cond), Update: CloneStatement(v.Update), Body: cloneStatements(v.Body)}
	case WhileLoop:
		return WhileLoop{Cond: CloneExpr(v.Cond), Body: cloneStatements(v.Body)}
	case DoWhileLoop:
		return DoWhileLoop{Body: cloneStatements(v.Body), Cond: CloneExpr(v.Cond)}
	case VariableDeclaration:
		return VariableDeclaration{Name: v.Name, Type: CloneType(v.Type), Initializer: CloneExpr(v.Initializer), Const: v.Const}
	case StructDeclaration:
		members := make([]StructMember, len(v.Members))
		for i, m := range v.Members {
			members[i] = StructMember{Name: m.Name, Type: CloneType(m.Type)}
		}
		return StructDeclaration{Name: v.Name, Members: members}
	case InputDeclaration:
		return InputDeclaration{Name: v.Name, Type: CloneType(v.Type), Location: CloneExpr(v.Location)}
	case OutputDeclaration:
		return OutputDeclaration{Name: v.Name, Type: CloneType(v.Type), Location: CloneExpr(v.Location)}
	case ExternalDeclaration:
		return ExternalDeclaration{Name: v.Name, Type: CloneType(v.Type), Set: CloneExpr(v.Set), Binding: CloneExpr(v.Binding)}
	case ExternalBlock:
		externals := make([]ExternalDeclaration, len(v.Externals))
		for i, ext := range v.Externals {
			externals[i] = CloneStatement(ext).(ExternalDeclaration)
		}
		return ExternalBlock{Externals: externals}
	case OptionDeclaration:
		return OptionDeclaration{Name: v.Name, Type: CloneType(v.Type), Default: CloneExpr(v.Default)}
	case FunctionDeclaration:
		return cloneFunctionDecl(v)
	case EntryFunctionDeclaration:
		return EntryFunctionDeclaration{Stage: v.Stage, Function: cloneFunctionDecl(v.Function)}
	case ExpressionStatement:
		return ExpressionStatement{Expr: CloneExpr(v.Expr)}
	case Break:
		return v
	case Continue:
		return v
	case Return:
		return Return{Value: CloneExpr(v.Value)}
	case Discard:
		return v
	case Sequence:
		return Sequence{Statements: cloneStatements(v.Statements)}
	case Optional:
		return Optional{Condition: v.Condition, Body: cloneStatements(v.Body)}
	case Include:
		return v
	default:
		return s
	}
}

func cloneFunctionDecl(v FunctionDeclaration) FunctionDeclaration {
	params := make([]Param, len(v.Params))
	for i, p := range v.Params {
		params[i] = Param{Name: p.Name, Type: CloneType(p.Type)}
	}
	return FunctionDeclaration{
		Name:   v.Name,
		Params: params,
		Return: CloneType(v.Return),
		Body:   cloneStatements(v.Body),
	}
}
