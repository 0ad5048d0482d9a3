package ast

// Visitor recursively walks a statement/expression tree, calling Statement
// and Expression (when set) on every node in post-order — after its
// children have already been walked and, for Visitor, already possibly
// replaced. Returning a different value from either hook substitutes that
// node in the tree; returning the input unchanged leaves it alone. This is
// the mutating half of spec §4.9's visitor pair.
type Visitor struct {
	Statement  func(Statement) Statement
	Expression func(Expression) Expression
}

// WalkStatements walks a statement slice in place, returning the
// (possibly substituted) slice.
func (v *Visitor) WalkStatements(stmts []Statement) []Statement {
	for i, s := range stmts {
		stmts[i] = v.walkStatement(s)
	}
	return stmts
}

func (v *Visitor) walkExpr(e Expression) Expression {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case AccessIndex:
		n.Base, n.Index = v.walkExpr(n.Base), v.walkExpr(n.Index)
		e = n
	case AccessIdentifier:
		n.Base = v.walkExpr(n.Base)
		e = n
	case Assignment:
		n.Target, n.Value = v.walkExpr(n.Target), v.walkExpr(n.Value)
		e = n
	case Unary:
		n.Operand = v.walkExpr(n.Operand)
		e = n
	case Binary:
		n.Left, n.Right = v.walkExpr(n.Left), v.walkExpr(n.Right)
		e = n
	case FunctionCall:
		n.Args = v.walkExprs(n.Args)
		e = n
	case BuiltInFunctionCall:
		n.Args = v.walkExprs(n.Args)
		e = n
	case Cast:
		n.Value = v.walkExpr(n.Value)
		e = n
	case Swizzle:
		n.Base = v.walkExpr(n.Base)
		e = n
	case Ternary:
		n.Cond, n.IfTrue, n.IfFalse = v.walkExpr(n.Cond), v.walkExpr(n.IfTrue), v.walkExpr(n.IfFalse)
		e = n
	}
	if v.Expression != nil {
		e = v.Expression(e)
	}
	return e
}

func (v *Visitor) walkExprs(in []Expression) []Expression {
	for i, e := range in {
		in[i] = v.walkExpr(e)
	}
	return in
}

func (v *Visitor) walkStatement(s Statement) Statement {
	if s == nil {
		return nil
	}
	switch n := s.(type) {
	case Conditional:
		n.Cond = v.walkExpr(n.Cond)
		n.Then = v.WalkStatements(n.Then)
		n.Else = v.WalkStatements(n.Else)
		s = n
	case ForLoop:
		n.Init = v.walkStatement(n.Init)
		n.Cond = v.walkExpr(n.Cond)
		n.Update = v.walkStatement(n.Update)
		n.Body = v.WalkStatements(n.Body)
		s = n
	case WhileLoop:
		n.Cond = v.walkExpr(n.Cond)
		n.Body = v.WalkStatements(n.Body)
		s = n
	case DoWhileLoop:
		n.Body = v.WalkStatements(n.Body)
		n.Cond = v.walkExpr(n.Cond)
		s = n
	case VariableDeclaration:
		n.Initializer = v.walkExpr(n.Initializer)
		s = n
	case InputDeclaration:
		n.Location = v.walkExpr(n.Location)
		s = n
	case OutputDeclaration:
		n.Location = v.walkExpr(n.Location)
		s = n
	case ExternalDeclaration:
		n.Set = v.walkExpr(n.Set)
		n.Binding = v.walkExpr(n.Binding)
		s = n
	case ExternalBlock:
		for i, ext := range n.Externals {
			n.Externals[i] = v.walkStatement(ext).(ExternalDeclaration)
		}
		s = n
	case OptionDeclaration:
		n.Default = v.walkExpr(n.Default)
		s = n
	case FunctionDeclaration:
		n.Body = v.WalkStatements(n.Body)
		s = n
	case EntryFunctionDeclaration:
		n.Function.Body = v.WalkStatements(n.Function.Body)
		s = n
	case ExpressionStatement:
		n.Expr = v.walkExpr(n.Expr)
		s = n
	case Return:
		n.Value = v.walkExpr(n.Value)
		s = n
	case Sequence:
		n.Statements = v.WalkStatements(n.Statements)
		s = n
	case Optional:
		n.Body = v.WalkStatements(n.Body)
		s = n
	}
	if v.Statement != nil {
		s = v.Statement(s)
	}
	return s
}

// ConstVisitor is the read-only twin of Visitor: it observes every node
// without the ability to substitute it, for callers that only need to
// collect information (e.g. the reflector's dependency scan).
type ConstVisitor struct {
	Statement  func(Statement)
	Expression func(Expression)
}

// WalkStatements walks stmts read-only.
func (v *ConstVisitor) WalkStatements(stmts []Statement) {
	for _, s := range stmts {
		v.walkStatement(s)
	}
}

func (v *ConstVisitor) walkExpr(e Expression) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case AccessIndex:
		v.walkExpr(n.Base)
		v.walkExpr(n.Index)
	case AccessIdentifier:
		v.walkExpr(n.Base)
	case Assignment:
		v.walkExpr(n.Target)
		v.walkExpr(n.Value)
	case Unary:
		v.walkExpr(n.Operand)
	case Binary:
		v.walkExpr(n.Left)
		v.walkExpr(n.Right)
	case FunctionCall:
		v.walkExprs(n.Args)
	case BuiltInFunctionCall:
		v.walkExprs(n.Args)
	case Cast:
		v.walkExpr(n.Value)
	case Swizzle:
		v.walkExpr(n.Base)
	case Ternary:
		v.walkExpr(n.Cond)
		v.walkExpr(n.IfTrue)
		v.walkExpr(n.IfFalse)
	}
	if v.Expression != nil {
		v.Expression(e)
	}
}

func (v *ConstVisitor) walkExprs(in []Expression) {
	for _, e := range in {
		v.walkExpr(e)
	}
}

func (v *ConstVisitor) walkStatement(s Statement) {
	if s == nil {
		return
	}
	switch n := s.(type) {
	case Conditional:
		v.walkExpr(n.Cond)
		v.WalkStatements(n.Then)
		v.WalkStatements(n.Else)
	case ForLoop:
		v.walkStatement(n.Init)
		v.walkExpr(n.Cond)
		v.walkStatement(n.Update)
		v.WalkStatements(n.Body)
	case WhileLoop:
		v.walkExpr(n.Cond)
		v.WalkStatements(n.Body)
	case DoWhileLoop:
		v.WalkStatements(n.Body)
		v.walkExpr(n.Cond)
	case VariableDeclaration:
		v.walkExpr(n.Initializer)
	case InputDeclaration:
		v.walkExpr(n.Location)
	case OutputDeclaration:
		v.walkExpr(n.Location)
	case ExternalDeclaration:
		v.walkExpr(n.Set)
		v.walkExpr(n.Binding)
	case ExternalBlock:
		for _, ext := range n.Externals {
			v.walkStatement(ext)
		}
	case OptionDeclaration:
		v.walkExpr(n.Default)
	case FunctionDeclaration:
		v.WalkStatements(n.Body)
	case EntryFunctionDeclaration:
		v.WalkStatements(n.Function.Body)
	case ExpressionStatement:
		v.walkExpr(n.Expr)
	case Return:
		v.walkExpr(n.Value)
	case Sequence:
		v.WalkStatements(n.Statements)
	case Optional:
		v.WalkStatements(n.Body)
	}
	if v.Statement != nil {
		v.Statement(s)
	}
}
