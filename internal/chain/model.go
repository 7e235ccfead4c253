// Package chain builds bounded call trees starting from a single entry method.
//
// The engine never touches a parser or a type checker directly: every lookup goes
// through a SourceModel, so the same traversal runs over Go (gosource) and Java
// (javasource) code bases.
package chain

import "context"

// Method is an opaque handle to a method known to a SourceModel.
type Method interface{}

// CallExpr is an opaque handle to a call expression inside a method body.
type CallExpr interface{}

// Type is the owning type of a method.
type Type interface {
	Name() string
	QualifiedName() string
}

// Position locates a method in the source tree.
type Position struct {
	File string
	Line int
}

// SourceModel exposes symbol resolution over a code base.
//
// All offsets are byte offsets relative to SourceText of the method that contains them.
type SourceModel interface {
	ContainingType(m Method) (Type, bool)
	IsAbstractOrInterface(t Type) bool
	// IsPlatform reports whether t belongs to the language's standard namespace.
	IsPlatform(t Type) bool
	// IsLocal reports whether the source of m is available in the analysed tree.
	IsLocal(m Method) bool
	// FindImplementations returns concrete overrides of m in no particular order.
	FindImplementations(ctx context.Context, m Method) ([]Method, error)
	DocComment(m Method) string
	BodyRange(m Method) (start, end int, ok bool)
	CallExpressionsIn(m Method) []CallExpr
	ResolveTarget(c CallExpr) (Method, bool)
	EnclosingStatementRange(c CallExpr) (start, end int, ok bool)
	SourceText(m Method) string
	MethodName(m Method) string
	ReturnType(m Method) string
	ParamTypes(m Method) []string
	ArgumentTexts(c CallExpr) []string
	QualifierText(c CallExpr) string
	ExpressionText(c CallExpr) string
	Position(m Method) Position
}
