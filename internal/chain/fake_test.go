package chain

import (
	"context"
	"fmt"
	"strings"
)

// In-memory SourceModel used by the engine tests.

type fakeType struct {
	name      string
	qualified string
	abstract  bool
	platform  bool
}

func (t *fakeType) Name() string          { return t.name }
func (t *fakeType) QualifiedName() string { return t.qualified }

type fakeMethod struct {
	owner   *fakeType
	name    string
	ret     string
	params  []string
	doc     string
	local   bool
	hasBody bool

	src       string
	bodyStart int
	calls     []*fakeCall

	impls   []*fakeMethod
	implErr error
}

type fakeCall struct {
	target    *fakeMethod
	caller    string
	args      []string
	text      string
	stmtStart int
	stmtEnd   int
}

// call describes one statement of a fake method body.
type call struct {
	target *fakeMethod
	caller string
	args   []string
}

func typ(name string) *fakeType {
	return &fakeType{name: name, qualified: "app." + name}
}

func iface(name string) *fakeType {
	return &fakeType{name: name, qualified: "app." + name, abstract: true}
}

func method(owner *fakeType, name string) *fakeMethod {
	m := &fakeMethod{owner: owner, name: name, ret: "void", local: true, hasBody: !owner.abstract}
	m.body()
	return m
}

// body regenerates the method source, one statement per call.
func (m *fakeMethod) body(calls ...call) *fakeMethod {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s(%s) {", m.ret, m.name, strings.Join(m.params, ", "))
	m.bodyStart = b.Len()
	m.calls = nil
	for _, c := range calls {
		b.WriteString("\n  ")
		start := b.Len()
		name := "unresolved"
		if c.target != nil {
			name = c.target.name
		}
		text := name + "(" + strings.Join(c.args, ", ") + ")"
		if c.caller != "" {
			text = c.caller + "." + text
		}
		b.WriteString(text + ";")
		m.calls = append(m.calls, &fakeCall{
			target:    c.target,
			caller:    c.caller,
			args:      c.args,
			text:      text,
			stmtStart: start,
			stmtEnd:   b.Len(),
		})
	}
	b.WriteString("\n}")
	m.src = b.String()
	return m
}

type fakeModel struct{}

func asMethod(m Method) *fakeMethod {
	fm, _ := m.(*fakeMethod)
	return fm
}

func (fakeModel) ContainingType(m Method) (Type, bool) {
	fm := asMethod(m)
	if fm == nil || fm.owner == nil {
		return nil, false
	}
	return fm.owner, true
}

func (fakeModel) IsAbstractOrInterface(t Type) bool { return t.(*fakeType).abstract }
func (fakeModel) IsPlatform(t Type) bool            { return t.(*fakeType).platform }
func (fakeModel) IsLocal(m Method) bool             { return asMethod(m).local }

func (fakeModel) FindImplementations(_ context.Context, m Method) ([]Method, error) {
	fm := asMethod(m)
	if fm.implErr != nil {
		return nil, fm.implErr
	}
	out := make([]Method, 0, len(fm.impls))
	for _, impl := range fm.impls {
		out = append(out, impl)
	}
	return out, nil
}

func (fakeModel) DocComment(m Method) string { return asMethod(m).doc }

func (fakeModel) BodyRange(m Method) (int, int, bool) {
	fm := asMethod(m)
	if !fm.hasBody {
		return 0, 0, false
	}
	return fm.bodyStart, len(fm.src), true
}

func (fakeModel) CallExpressionsIn(m Method) []CallExpr {
	fm := asMethod(m)
	out := make([]CallExpr, 0, len(fm.calls))
	for _, c := range fm.calls {
		out = append(out, c)
	}
	return out
}

func (fakeModel) ResolveTarget(c CallExpr) (Method, bool) {
	fc := c.(*fakeCall)
	if fc.target == nil {
		return nil, false
	}
	return fc.target, true
}

func (fakeModel) EnclosingStatementRange(c CallExpr) (int, int, bool) {
	fc := c.(*fakeCall)
	return fc.stmtStart, fc.stmtEnd, true
}

func (fakeModel) SourceText(m Method) string        { return asMethod(m).src }
func (fakeModel) MethodName(m Method) string        { return asMethod(m).name }
func (fakeModel) ReturnType(m Method) string        { return asMethod(m).ret }
func (fakeModel) ParamTypes(m Method) []string      { return asMethod(m).params }
func (fakeModel) ArgumentTexts(c CallExpr) []string { return c.(*fakeCall).args }
func (fakeModel) QualifierText(c CallExpr) string   { return c.(*fakeCall).caller }
func (fakeModel) ExpressionText(c CallExpr) string  { return c.(*fakeCall).text }

func (fakeModel) Position(m Method) Position {
	return Position{File: asMethod(m).owner.name + ".java", Line: 1}
}
