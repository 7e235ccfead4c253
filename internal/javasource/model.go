package javasource

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codellm-devkit/callchain-go/internal/chain"
)

var _ chain.SourceModel = (*Program)(nil)

// call is a method_invocation node together with the method whose body contains it.
type call struct {
	node *sitter.Node
	in   *Method
}

func asMethod(m chain.Method) (*Method, bool) {
	jm, ok := m.(*Method)
	return jm, ok && jm != nil
}

func asCall(c chain.CallExpr) (*call, bool) {
	cl, ok := c.(*call)
	return cl, ok && cl != nil
}

func (p *Program) ContainingType(m chain.Method) (chain.Type, bool) {
	jm, ok := asMethod(m)
	if !ok || jm.class == nil {
		return nil, false
	}
	return jm.class, true
}

func (p *Program) IsAbstractOrInterface(t chain.Type) bool {
	c, ok := t.(*Class)
	return ok && c != nil && c.abstract
}

var platformPrefixes = []string{"java.", "javax.", "jdk.", "sun."}

// IsPlatform reports whether t is a JDK type. Local classes never are.
func (p *Program) IsPlatform(t chain.Type) bool {
	c, ok := t.(*Class)
	if !ok || c == nil || !c.external {
		return false
	}
	for _, prefix := range platformPrefixes {
		if strings.HasPrefix(c.qualified, prefix) {
			return true
		}
	}
	return false
}

func (p *Program) IsLocal(m chain.Method) bool {
	jm, ok := asMethod(m)
	return ok && !jm.class.external
}

// DocComment returns the javadoc text without comment delimiters.
func (p *Program) DocComment(m chain.Method) string {
	jm, ok := asMethod(m)
	if !ok || jm.doc == "" {
		return ""
	}
	body := strings.TrimSuffix(strings.TrimPrefix(jm.doc, "/**"), "*/")
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "*")
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (p *Program) BodyRange(m chain.Method) (int, int, bool) {
	jm, ok := asMethod(m)
	if !ok || jm.body == nil {
		return 0, 0, false
	}
	base := jm.node.StartByte()
	return int(jm.body.StartByte() - base), int(jm.body.EndByte() - base), true
}

// CallExpressionsIn returns the method invocations of m in source order. An outer call
// comes before the calls nested in its receiver or arguments.
func (p *Program) CallExpressionsIn(m chain.Method) []chain.CallExpr {
	jm, ok := asMethod(m)
	if !ok || jm.body == nil {
		return nil
	}
	var out []chain.CallExpr
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "method_invocation" {
			out = append(out, &call{node: n, in: jm})
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(jm.body)
	return out
}

// EnclosingStatementRange returns the innermost statement around the call. For a call in
// the header of an if, while or for the statement ends where its body starts.
func (p *Program) EnclosingStatementRange(c chain.CallExpr) (int, int, bool) {
	cl, ok := asCall(c)
	if !ok {
		return 0, 0, false
	}
	base := cl.in.node.StartByte()
	for n := cl.node.Parent(); n != nil; n = n.Parent() {
		if n.Equal(cl.in.body) {
			break
		}
		if !isStatement(n.Type()) {
			continue
		}
		end := n.EndByte()
		if body := headerBody(n); body != nil && cl.node.EndByte() <= body.StartByte() {
			end = body.StartByte()
			for end > n.StartByte() && isSpace(cl.in.file().src[end-1]) {
				end--
			}
		}
		return int(n.StartByte() - base), int(end - base), true
	}
	return 0, 0, false
}

func isStatement(t string) bool {
	if t == "block" {
		return false
	}
	return strings.HasSuffix(t, "_statement") || t == "local_variable_declaration"
}

func headerBody(n *sitter.Node) *sitter.Node {
	switch n.Type() {
	case "if_statement":
		return n.ChildByFieldName("consequence")
	case "while_statement", "for_statement", "enhanced_for_statement":
		return n.ChildByFieldName("body")
	}
	return nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func (m *Method) file() *sourceFile { return m.class.file }

func (p *Program) SourceText(m chain.Method) string {
	jm, ok := asMethod(m)
	if !ok || jm.node == nil {
		return ""
	}
	return jm.file().text(jm.node)
}

func (p *Program) MethodName(m chain.Method) string {
	jm, ok := asMethod(m)
	if !ok {
		return ""
	}
	return jm.name
}

func (p *Program) ReturnType(m chain.Method) string {
	jm, ok := asMethod(m)
	if !ok || jm.ret == "void" {
		return ""
	}
	return jm.ret
}

func (p *Program) ParamTypes(m chain.Method) []string {
	jm, ok := asMethod(m)
	if !ok {
		return nil
	}
	return jm.paramTypes()
}

func (p *Program) ArgumentTexts(c chain.CallExpr) []string {
	cl, ok := asCall(c)
	if !ok {
		return nil
	}
	args := cl.node.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	f := cl.in.file()
	out := make([]string, 0, args.NamedChildCount())
	for i := 0; i < int(args.NamedChildCount()); i++ {
		a := args.NamedChild(i)
		if a.Type() == "line_comment" || a.Type() == "block_comment" {
			continue
		}
		out = append(out, f.text(a))
	}
	return out
}

func (p *Program) QualifierText(c chain.CallExpr) string {
	cl, ok := asCall(c)
	if !ok {
		return ""
	}
	return cl.in.file().text(cl.node.ChildByFieldName("object"))
}

func (p *Program) ExpressionText(c chain.CallExpr) string {
	cl, ok := asCall(c)
	if !ok {
		return ""
	}
	return cl.in.file().text(cl.node)
}

func (p *Program) Position(m chain.Method) chain.Position {
	jm, ok := asMethod(m)
	if !ok || jm.class.external {
		return chain.Position{}
	}
	return chain.Position{File: jm.file().rel, Line: jm.line}
}
