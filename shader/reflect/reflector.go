package reflect

import (
	"errors"
	"fmt"

	"github.com/gogpu/framegraph/shader/ast"
)

var (
	// ErrDuplicateDeclaration is returned by Build when two top-level
	// declarations share a name.
	ErrDuplicateDeclaration = errors.New("reflect: duplicate declaration")
	// ErrMissingEntryFunction is returned by Reflect when no entry
	// function was registered for the requested stage.
	ErrMissingEntryFunction = errors.New("reflect: no entry function for stage")
	// ErrUnresolvableLocation is returned when a location/set/binding
	// expression does not reduce to an integer constant.
	ErrUnresolvableLocation = errors.New("reflect: expression is not a constant")
)

type declaration struct {
	name string
	stmt ast.Statement
	deps []string
}

// Reflector is a two-phase shader reflector: Build registers every
// top-level declaration once, Reflect may then be called repeatedly (once
// per entry stage) without re-scanning the source AST.
type Reflector struct {
	decls   map[string]*declaration
	order   []string
	entries map[ast.ShaderStage]*declaration
}

// New creates an empty Reflector.
func New() *Reflector {
	return &Reflector{
		decls:   make(map[string]*declaration),
		entries: make(map[ast.ShaderStage]*declaration),
	}
}

// Build registers every top-level declaration in statements, computing each
// one's dependency set. It must be called exactly once before any Reflect
// call. Fails with ErrDuplicateDeclaration if two declarations share a name.
func (r *Reflector) Build(statements []ast.Statement) error {
	for _, s := range statements {
		name, ok := declName(s)
		if !ok {
			continue
		}
		if _, exists := r.decls[name]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateDeclaration, name)
		}
		d := &declaration{name: name, stmt: s, deps: dependenciesOf(s)}
		r.decls[name] = d
		r.order = append(r.order, name)

		if entry, ok := s.(ast.EntryFunctionDeclaration); ok {
			r.entries[entry.Stage] = d
		}
	}
	return nil
}

// declName returns the declaration-table name for s, or ("", false) for
// statements that aren't top-level declarations (reflection only concerns
// itself with the module's declaration list, not arbitrary statements).
// A module-level ast.VariableDeclaration is identified the same way a local
// one would be: by its position in the statement slice passed to Build,
// never by appearing inside a function body (spec §3 "variables[name]").
func declName(s ast.Statement) (string, bool) {
	switch v := s.(type) {
	case ast.StructDeclaration:
		return v.Name, true
	case ast.FunctionDeclaration:
		return v.Name, true
	case ast.VariableDeclaration:
		return v.Name, true
	case ast.InputDeclaration:
		return v.Name, true
	case ast.OutputDeclaration:
		return v.Name, true
	case ast.ExternalDeclaration:
		return v.Name, true
	case ast.OptionDeclaration:
		return v.Name, true
	case ast.EntryFunctionDeclaration:
		return v.Function.Name, true
	default:
		return "", false
	}
}

// dependenciesOf collects the names of every other declaration s directly
// references: struct types it names, variables/functions its body calls.
func dependenciesOf(s ast.Statement) []string {
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" {
			seen[name] = true
		}
	}

	switch v := s.(type) {
	case ast.StructDeclaration:
		for _, m := range v.Members {
			collectTypeDeps(m.Type, add)
		}
	case ast.FunctionDeclaration:
		collectTypeDeps(v.Return, add)
		for _, p := range v.Params {
			collectTypeDeps(p.Type, add)
		}
		collectBodyDeps(v.Body, add)
	case ast.EntryFunctionDeclaration:
		collectTypeDeps(v.Function.Return, add)
		for _, p := range v.Function.Params {
			collectTypeDeps(p.Type, add)
		}
		collectBodyDeps(v.Function.Body, add)
	case ast.VariableDeclaration:
		collectTypeDeps(v.Type, add)
		if v.Initializer != nil {
			collectBodyDeps([]ast.Statement{ast.ExpressionStatement{Expr: v.Initializer}}, add)
		}
	case ast.InputDeclaration:
		collectTypeDeps(v.Type, add)
	case ast.OutputDeclaration:
		collectTypeDeps(v.Type, add)
	case ast.ExternalDeclaration:
		collectTypeDeps(v.Type, add)
	case ast.OptionDeclaration:
		collectTypeDeps(v.Type, add)
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	return out
}

func collectTypeDeps(t ast.Type, add func(string)) {
	switch v := t.(type) {
	case ast.StructRef:
		add(v.Name)
	case ast.Array:
		collectTypeDeps(v.Element, add)
	}
}

func collectBodyDeps(body []ast.Statement, add func(string)) {
	visitor := &ast.ConstVisitor{
		Expression: func(e ast.Expression) {
			switch v := e.(type) {
			case ast.Variable:
				add(v.Name)
			case ast.FunctionCall:
				add(v.Name)
			}
		},
	}
	visitor.WalkStatements(body)
}

// Reflect computes the subset of registered declarations stage's entry
// function transitively depends on, constant-folds every location/set/
// binding expression, and emits every option plus the closure as a single
// Sequence in the exact categorized order spec §4.10 step 2 mandates: all
// options (referenced or not), structs in
// dependency order, one aggregated externals block, module variables in
// dependency order, the entry's inputs/outputs in insertion order,
// functions after their callees, then the entry itself. A duplicate-emit
// guard (the emitted set below) ensures every declaration appears once,
// per step 3.
func (r *Reflector) Reflect(stage ast.ShaderStage) (*ReflectionRecord, error) {
	entry, ok := r.entries[stage]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrMissingEntryFunction, stage)
	}

	closure := r.transitiveClosure(entry.name)
	rec := &ReflectionRecord{Stage: stage}

	emitted := make(map[string]bool)
	var ordered []ast.Statement
	emit := func(name string) error {
		if emitted[name] {
			return nil
		}
		emitted[name] = true
		folded, err := r.foldDeclaration(r.decls[name], rec)
		if err != nil {
			return err
		}
		ordered = append(ordered, folded)
		return nil
	}

	isStruct := func(s ast.Statement) bool { _, ok := s.(ast.StructDeclaration); return ok }
	isVariable := func(s ast.Statement) bool { _, ok := s.(ast.VariableDeclaration); return ok }
	isFunction := func(s ast.Statement) bool { _, ok := s.(ast.FunctionDeclaration); return ok }
	kind := func(name string, match func(ast.Statement) bool) bool {
		d, ok := r.decls[name]
		return ok && match(d.stmt)
	}

	// (a) every option, in original order, whether or not the entry uses it.
	for _, name := range r.order {
		if kind(name, func(s ast.Statement) bool { _, ok := s.(ast.OptionDeclaration); return ok }) {
			if err := emit(name); err != nil {
				return nil, err
			}
		}
	}

	// (b) structs, struct-to-struct dependency order.
	for _, name := range r.topoSort(closure, func(n string) bool { return kind(n, isStruct) }) {
		if err := emit(name); err != nil {
			return nil, err
		}
	}

	// (c) one aggregated ExternalDeclaration preserving original records.
	var externals []ast.ExternalDeclaration
	for _, name := range r.order {
		if !closure[name] {
			continue
		}
		ext, ok := r.decls[name].stmt.(ast.ExternalDeclaration)
		if !ok {
			continue
		}
		if err := r.foldExternal(ext, rec); err != nil {
			return nil, err
		}
		externals = append(externals, ext)
		emitted[name] = true
	}
	if len(externals) > 0 {
		ordered = append(ordered, ast.ExternalBlock{Externals: externals})
	}

	// (d) module-level variables, dependency order.
	for _, name := range r.topoSort(closure, func(n string) bool { return kind(n, isVariable) }) {
		if err := emit(name); err != nil {
			return nil, err
		}
	}

	// (e) the entry's inputs/outputs, in insertion order.
	for _, name := range r.order {
		if !closure[name] || emitted[name] {
			continue
		}
		switch r.decls[name].stmt.(type) {
		case ast.InputDeclaration, ast.OutputDeclaration:
			if err := emit(name); err != nil {
				return nil, err
			}
		}
	}

	// (f) functions, emitted after their callees.
	for _, name := range r.topoSort(closure, func(n string) bool { return n != entry.name && kind(n, isFunction) }) {
		if err := emit(name); err != nil {
			return nil, err
		}
	}

	// (g) the entry itself, always last.
	foldedEntry, err := r.foldDeclaration(entry, rec)
	if err != nil {
		return nil, err
	}
	ordered = append(ordered, foldedEntry)

	rec.AST = ast.Sequence{Statements: ordered}
	return rec, nil
}

// topoSort returns the names in closure matching include, ordered so that
// every dependency (restricted to other names also matching include) is
// emitted before the name that references it — a plain DFS post-order walk,
// visited in r.order for a deterministic result when ties exist.
func (r *Reflector) topoSort(closure map[string]bool, include func(string) bool) []string {
	visited := make(map[string]bool)
	var out []string
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		d, ok := r.decls[name]
		if !ok {
			return
		}
		for _, dep := range d.deps {
			if closure[dep] && include(dep) {
				visit(dep)
			}
		}
		out = append(out, name)
	}
	for _, name := range r.order {
		if closure[name] && include(name) {
			visit(name)
		}
	}
	return out
}

// transitiveClosure returns the set of declaration names reachable from
// root, including root itself, via a breadth-first walk of dependency
// edges (spec §4.10's closure computation).
func (r *Reflector) transitiveClosure(root string) map[string]bool {
	closure := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		d, ok := r.decls[name]
		if !ok {
			continue
		}
		for _, dep := range d.deps {
			if !closure[dep] {
				closure[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return closure
}

// foldDeclaration resolves a single declaration's location expressions to
// concrete integers, recording Inputs/Outputs/Structs/Options on rec as a
// side effect, and returns the declaration unchanged (the folding result
// lives in rec, not the returned AST node — callers that need the resolved
// integer read it off rec, matching how the distilled spec exposes it).
// Externals are folded separately by foldExternal, since they emit as one
// aggregated node rather than one per declaration.
func (r *Reflector) foldDeclaration(d *declaration, rec *ReflectionRecord) (ast.Statement, error) {
	switch v := d.stmt.(type) {
	case ast.InputDeclaration:
		loc, err := r.evalConstInt(v.Location)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", v.Name, err)
		}
		rec.Inputs = append(rec.Inputs, Slot{Name: v.Name, Type: v.Type, Location: loc})
	case ast.OutputDeclaration:
		loc, err := r.evalConstInt(v.Location)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", v.Name, err)
		}
		rec.Outputs = append(rec.Outputs, Slot{Name: v.Name, Type: v.Type, Location: loc})
	case ast.StructDeclaration:
		rec.Structs = append(rec.Structs, StructInfo{Name: v.Name, Members: v.Members})
	case ast.OptionDeclaration:
		rec.Options = append(rec.Options, v.Name)
	}
	return d.stmt, nil
}

// foldExternal resolves one external's (set, binding) pair and records it on
// rec. Called once per external in the closure, ahead of their aggregation
// into a single ast.ExternalBlock (spec §4.10 step 2c).
func (r *Reflector) foldExternal(v ast.ExternalDeclaration, rec *ReflectionRecord) error {
	set, err := r.evalConstInt(v.Set)
	if err != nil {
		return fmt.Errorf("external %q set: %w", v.Name, err)
	}
	binding, err := r.evalConstInt(v.Binding)
	if err != nil {
		return fmt.Errorf("external %q binding: %w", v.Name, err)
	}
	rec.Externals = append(rec.Externals, Binding{Name: v.Name, Type: v.Type, Set: set, Binding: binding})
	return nil
}

// evalConstInt constant-folds a location/set/binding expression, per spec
// §4.10. Supported forms: integer/unsigned/float(whole) literals, unary
// negation, and +-*/ of two foldable operands, and option references
// (folded to the option's default value).
func (r *Reflector) evalConstInt(e ast.Expression) (int, error) {
	if e == nil {
		return 0, fmt.Errorf("%w: missing expression", ErrUnresolvableLocation)
	}
	switch v := e.(type) {
	case ast.Constant:
		switch v.Value.Kind {
		case ast.PrimitiveInt:
			return int(v.Value.Int), nil
		case ast.PrimitiveUInt:
			return int(v.Value.UInt), nil
		case ast.PrimitiveFloat:
			if f := v.Value.Float; f != float64(int64(f)) {
				return 0, fmt.Errorf("%w: non-integral constant", ErrUnresolvableLocation)
			}
			return int(v.Value.Float), nil
		default:
			return 0, fmt.Errorf("%w: non-numeric constant", ErrUnresolvableLocation)
		}
	case ast.Unary:
		inner, err := r.evalConstInt(v.Operand)
		if err != nil {
			return 0, err
		}
		if v.Op == ast.UnaryNegate {
			return -inner, nil
		}
		return 0, fmt.Errorf("%w: non-arithmetic unary op", ErrUnresolvableLocation)
	case ast.Binary:
		left, err := r.evalConstInt(v.Left)
		if err != nil {
			return 0, err
		}
		right, err := r.evalConstInt(v.Right)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case ast.BinaryAdd:
			return left + right, nil
		case ast.BinarySub:
			return left - right, nil
		case ast.BinaryMul:
			return left * right, nil
		case ast.BinaryDiv:
			if right == 0 {
				return 0, fmt.Errorf("%w: division by zero", ErrUnresolvableLocation)
			}
			return left / right, nil
		default:
			return 0, fmt.Errorf("%w: non-arithmetic binary op", ErrUnresolvableLocation)
		}
	case ast.Variable:
		opt, ok := r.decls[v.Name]
		if !ok {
			return 0, fmt.Errorf("%w: unknown option %q", ErrUnresolvableLocation, v.Name)
		}
		optDecl, ok := opt.stmt.(ast.OptionDeclaration)
		if !ok {
			return 0, fmt.Errorf("%w: %q is not an option", ErrUnresolvableLocation, v.Name)
		}
		return r.evalConstInt(optDecl.Default)
	default:
		return 0, ErrUnresolvableLocation
	}
}
