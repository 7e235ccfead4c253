package gosource

import (
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/codellm-devkit/callchain-go/internal/chain"
)

var _ chain.SourceModel = (*Program)(nil)

// Owner is the owning type of a Go function: the receiver's named type for methods,
// the package itself for package-level functions.
type Owner struct {
	name      string
	qualified string
	named     *types.Named
	pkg       *types.Package
}

func (o *Owner) Name() string          { return o.name }
func (o *Owner) QualifiedName() string { return o.qualified }

// call is a call expression together with the function that contains it.
type call struct {
	expr *ast.CallExpr
	in   *funcDecl
}

func asFunc(m chain.Method) (*types.Func, bool) {
	fn, ok := m.(*types.Func)
	return fn, ok && fn != nil
}

// receiverNamed returns the named type a method is declared on, or nil.
func receiverNamed(fn *types.Func) *types.Named {
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return nil
	}
	t := sig.Recv().Type()
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	if named, ok := types.Unalias(t).(*types.Named); ok {
		return named.Origin()
	}
	return nil
}

func (p *Program) ContainingType(m chain.Method) (chain.Type, bool) {
	fn, ok := asFunc(m)
	if !ok {
		return nil, false
	}
	named := receiverNamed(fn)
	if d := p.decls[fn]; d != nil && d.owner != nil {
		named = d.owner
	}
	if named != nil {
		obj := named.Obj()
		qualified := obj.Name()
		if obj.Pkg() != nil {
			qualified = obj.Pkg().Path() + "." + obj.Name()
		}
		return &Owner{name: obj.Name(), qualified: qualified, named: named, pkg: obj.Pkg()}, true
	}
	if sig, ok := fn.Type().(*types.Signature); ok && sig.Recv() != nil {
		// method of an anonymous interface
		return nil, false
	}
	if fn.Pkg() == nil {
		return nil, false
	}
	return &Owner{name: fn.Pkg().Name(), qualified: fn.Pkg().Path(), pkg: fn.Pkg()}, true
}

func (p *Program) IsAbstractOrInterface(t chain.Type) bool {
	o, ok := t.(*Owner)
	return ok && o.named != nil && types.IsInterface(o.named)
}

// IsPlatform reports whether t comes from the standard library or the universe scope.
func (p *Program) IsPlatform(t chain.Type) bool {
	o, ok := t.(*Owner)
	if !ok {
		return false
	}
	if o.pkg == nil {
		return true
	}
	if _, local := p.local[o.pkg]; local {
		return false
	}
	return isStdPath(o.pkg.Path())
}

func isStdPath(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}

func (p *Program) IsLocal(m chain.Method) bool {
	fn, ok := asFunc(m)
	if !ok {
		return false
	}
	_, ok = p.decls[fn]
	return ok
}

func (p *Program) DocComment(m chain.Method) string {
	d := p.declOf(m)
	if d == nil {
		return ""
	}
	var doc *ast.CommentGroup
	if d.decl != nil {
		doc = d.decl.Doc
	} else if d.field.Doc != nil {
		doc = d.field.Doc
	} else {
		doc = d.field.Comment
	}
	return strings.TrimSpace(doc.Text())
}

func (p *Program) BodyRange(m chain.Method) (int, int, bool) {
	d := p.declOf(m)
	if d == nil || d.decl == nil || d.decl.Body == nil {
		return 0, 0, false
	}
	base := p.offset(d.decl.Pos())
	return p.offset(d.decl.Body.Lbrace) - base, p.offset(d.decl.Body.Rbrace) + 1 - base, true
}

// CallExpressionsIn returns the calls of m in evaluation order: the arguments of a call
// come before the call itself.
func (p *Program) CallExpressionsIn(m chain.Method) []chain.CallExpr {
	d := p.declOf(m)
	if d == nil || d.decl == nil || d.decl.Body == nil {
		return nil
	}
	var (
		stack []ast.Node
		out   []chain.CallExpr
	)
	ast.Inspect(d.decl.Body, func(n ast.Node) bool {
		if n == nil {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if ce, ok := top.(*ast.CallExpr); ok {
				out = append(out, &call{expr: ce, in: d})
			}
			return true
		}
		stack = append(stack, n)
		return true
	})
	return out
}

func (p *Program) ResolveTarget(c chain.CallExpr) (chain.Method, bool) {
	cl, ok := c.(*call)
	if !ok {
		return nil, false
	}
	info := cl.in.pkg.TypesInfo
	var obj types.Object
	switch fun := unwrapFun(cl.expr.Fun).(type) {
	case *ast.Ident:
		obj = info.Uses[fun]
	case *ast.SelectorExpr:
		if sel := info.Selections[fun]; sel != nil {
			obj = sel.Obj()
		} else {
			// identificatore qualificato da package
			obj = info.Uses[fun.Sel]
		}
	}
	fn, ok := obj.(*types.Func)
	if !ok {
		return nil, false
	}
	return fn.Origin(), true
}

// unwrapFun strips parentheses and generic instantiations from a call's function expression.
func unwrapFun(e ast.Expr) ast.Expr {
	for {
		switch x := e.(type) {
		case *ast.ParenExpr:
			e = x.X
		case *ast.IndexExpr:
			e = x.X
		case *ast.IndexListExpr:
			e = x.X
		default:
			return e
		}
	}
}

// EnclosingStatementRange returns the innermost statement around the call. For a call in
// the header of an if, for, range or switch the statement ends where its body starts.
func (p *Program) EnclosingStatementRange(c chain.CallExpr) (int, int, bool) {
	cl, ok := c.(*call)
	if !ok {
		return 0, 0, false
	}
	path, _ := astutil.PathEnclosingInterval(cl.in.file, cl.expr.Pos(), cl.expr.End())
	for _, n := range path {
		stmt, ok := n.(ast.Stmt)
		if !ok {
			continue
		}
		if _, block := stmt.(*ast.BlockStmt); block {
			continue
		}
		base := p.offset(cl.in.decl.Pos())
		end := stmt.End()
		if body := headerBody(stmt); body != nil && cl.expr.End() <= body.Lbrace {
			end = body.Lbrace
		}
		return p.offset(stmt.Pos()) - base, p.offset(end) - base, true
	}
	return 0, 0, false
}

func headerBody(stmt ast.Stmt) *ast.BlockStmt {
	switch s := stmt.(type) {
	case *ast.IfStmt:
		return s.Body
	case *ast.ForStmt:
		return s.Body
	case *ast.RangeStmt:
		return s.Body
	case *ast.SwitchStmt:
		return s.Body
	case *ast.TypeSwitchStmt:
		return s.Body
	}
	return nil
}

func (p *Program) SourceText(m chain.Method) string {
	d := p.declOf(m)
	if d == nil {
		return ""
	}
	n := d.node()
	return p.text(n.Pos(), n.End())
}

func (p *Program) MethodName(m chain.Method) string {
	fn, ok := asFunc(m)
	if !ok {
		return ""
	}
	return fn.Name()
}

// ReturnType renders the result list: "" for none, "T" for one, "(A, B)" otherwise.
func (p *Program) ReturnType(m chain.Method) string {
	sig := signatureOf(m)
	if sig == nil || sig.Results().Len() == 0 {
		return ""
	}
	res := sig.Results()
	parts := make([]string, res.Len())
	for i := range parts {
		parts[i] = types.TypeString(res.At(i).Type(), qualifier)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (p *Program) ParamTypes(m chain.Method) []string {
	sig := signatureOf(m)
	if sig == nil {
		return nil
	}
	params := sig.Params()
	out := make([]string, params.Len())
	for i := range out {
		t := params.At(i).Type()
		if sig.Variadic() && i == params.Len()-1 {
			if s, ok := t.(*types.Slice); ok {
				out[i] = "..." + types.TypeString(s.Elem(), qualifier)
				continue
			}
		}
		out[i] = types.TypeString(t, qualifier)
	}
	return out
}

func signatureOf(m chain.Method) *types.Signature {
	fn, ok := asFunc(m)
	if !ok {
		return nil
	}
	sig, _ := fn.Type().(*types.Signature)
	return sig
}

// qualifier writes package-qualified types as pkgname.Type.
func qualifier(pkg *types.Package) string { return pkg.Name() }

func (p *Program) ArgumentTexts(c chain.CallExpr) []string {
	cl, ok := c.(*call)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(cl.expr.Args))
	for _, arg := range cl.expr.Args {
		out = append(out, p.text(arg.Pos(), arg.End()))
	}
	if cl.expr.Ellipsis.IsValid() && len(out) > 0 {
		out[len(out)-1] += "..."
	}
	return out
}

func (p *Program) QualifierText(c chain.CallExpr) string {
	cl, ok := c.(*call)
	if !ok {
		return ""
	}
	if sel, ok := unwrapFun(cl.expr.Fun).(*ast.SelectorExpr); ok {
		return p.text(sel.X.Pos(), sel.X.End())
	}
	return ""
}

func (p *Program) ExpressionText(c chain.CallExpr) string {
	cl, ok := c.(*call)
	if !ok {
		return ""
	}
	return p.text(cl.expr.Pos(), cl.expr.End())
}

// Position returns the declaration position, relative to the loaded root when possible.
func (p *Program) Position(m chain.Method) chain.Position {
	fn, ok := asFunc(m)
	if !ok || !fn.Pos().IsValid() {
		return chain.Position{}
	}
	pos := p.fset.Position(fn.Pos())
	file := pos.Filename
	if rel, err := filepath.Rel(p.root, file); err == nil && !strings.HasPrefix(rel, "..") {
		file = filepath.ToSlash(rel)
	}
	return chain.Position{File: file, Line: pos.Line}
}

func (p *Program) declOf(m chain.Method) *funcDecl {
	fn, ok := asFunc(m)
	if !ok {
		return nil
	}
	return p.decls[fn]
}

func (p *Program) offset(pos token.Pos) int {
	if tf := p.fset.File(pos); tf != nil {
		return tf.Offset(pos)
	}
	return 0
}
