package framegraph

import (
	"errors"
	"fmt"
)

// Kind classifies a build or reflection failure. See BuildError.
type Kind int

const (
	// KindCyclicDependency means the dependency resolver found a cycle
	// among live passes.
	KindCyclicDependency Kind = iota

	// KindSizeMismatch means a pass's inputs or outputs disagree in
	// (width, height).
	KindSizeMismatch

	// KindDoubleUsage means the same texture is declared more than once
	// by the same pass in any usage category.
	KindDoubleUsage

	// KindMultipleFrameOutputs means more than one texture is marked as
	// the render-frame sink.
	KindMultipleFrameOutputs

	// KindNoFrameOutput means no texture is marked as the render-frame
	// sink, or no pass writes it.
	KindNoFrameOutput

	// KindUnresolvableLocation means a location/set/binding expression in
	// the shader AST does not reduce to an integral constant.
	KindUnresolvableLocation

	// KindDuplicateDeclaration means a struct, function, module-level
	// variable, or external is declared twice under the same name.
	KindDuplicateDeclaration

	// KindMissingEntryFunction means reflect(stage) was called but no
	// entry function was registered for that stage.
	KindMissingEntryFunction

	// KindIncompatibleAlias is an internal invariant failure in the
	// aliasing allocator; it indicates a bug in this package, not in the
	// caller's declarations.
	KindIncompatibleAlias
)

func (k Kind) String() string {
	switch k {
	case KindCyclicDependency:
		return "CyclicDependency"
	case KindSizeMismatch:
		return "SizeMismatch"
	case KindDoubleUsage:
		return "DoubleUsage"
	case KindMultipleFrameOutputs:
		return "MultipleFrameOutputs"
	case KindNoFrameOutput:
		return "NoFrameOutput"
	case KindUnresolvableLocation:
		return "UnresolvableLocation"
	case KindDuplicateDeclaration:
		return "DuplicateDeclaration"
	case KindMissingEntryFunction:
		return "MissingEntryFunction"
	case KindIncompatibleAlias:
		return "IncompatibleAlias"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// BuildError is returned by Graph.Build on failure; the shader/reflect
// package reports its failures with its own sentinel errors instead. It
// carries enough context for a caller to log or recover: the error kind, the
// name of the offending pass or texture (when known), and the underlying
// cause.
type BuildError struct {
	Kind    Kind
	Name    string // declaring pass/texture/declaration name, if known
	Index   int    // declaration index, -1 if not applicable
	Cause   error
}

func (e *BuildError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("framegraph: %s", e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("framegraph: %s: %q: %v", e.Kind, e.Name, e.Cause)
	}
	return fmt.Sprintf("framegraph: %s: %q", e.Kind, e.Name)
}

func (e *BuildError) Unwrap() error { return e.Cause }

func newBuildError(kind Kind, name string, index int, cause error) *BuildError {
	return &BuildError{Kind: kind, Name: name, Index: index, Cause: cause}
}

// Sentinel errors, for callers that only need errors.Is checks without the
// structured BuildError fields.
var (
	ErrCyclicDependency       = errors.New("framegraph: cyclic dependency")
	ErrSizeMismatch           = errors.New("framegraph: size mismatch")
	ErrDoubleUsage            = errors.New("framegraph: texture already used by this pass")
	ErrMultipleFrameOutputs   = errors.New("framegraph: more than one final frame output")
	ErrNoFrameOutput          = errors.New("framegraph: no final frame output declared or written")
	ErrUnresolvableLocation   = errors.New("framegraph: location/set/binding is not a constant expression")
	ErrDuplicateDeclaration   = errors.New("framegraph: duplicate declaration")
	ErrMissingEntryFunction   = errors.New("framegraph: missing entry function for stage")
	ErrIncompatibleAlias      = errors.New("framegraph: incompatible alias (internal invariant failure)")
)

// sentinel maps a Kind to its sentinel error, so BuildError can
// participate in errors.Is(err, ErrCyclicDependency) etc.
func (k Kind) sentinel() error {
	switch k {
	case KindCyclicDependency:
		return ErrCyclicDependency
	case KindSizeMismatch:
		return ErrSizeMismatch
	case KindDoubleUsage:
		return ErrDoubleUsage
	case KindMultipleFrameOutputs:
		return ErrMultipleFrameOutputs
	case KindNoFrameOutput:
		return ErrNoFrameOutput
	case KindUnresolvableLocation:
		return ErrUnresolvableLocation
	case KindDuplicateDeclaration:
		return ErrDuplicateDeclaration
	case KindMissingEntryFunction:
		return ErrMissingEntryFunction
	case KindIncompatibleAlias:
		return ErrIncompatibleAlias
	default:
		return nil
	}
}

// Is lets errors.Is(err, framegraph.ErrCyclicDependency) succeed against a
// *BuildError without callers needing to know about BuildError at all.
func (e *BuildError) Is(target error) bool {
	return e.Kind.sentinel() == target
}
