package gosource

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"strings"

	"github.com/codellm-devkit/callchain-go/internal/chain"
	"github.com/codellm-devkit/callchain-go/pkg/schema"
)

// FindMethod risolve un riferimento testuale a un metodo locale. Forme accettate:
// Type.Method, pkg.Type.Method, importpath.Type.Method, pkg.Func, importpath.Func.
func (p *Program) FindMethod(ref string) (chain.Method, error) {
	ref = strings.TrimSpace(ref)
	i := strings.LastIndex(ref, ".")
	if i <= 0 || i == len(ref)-1 {
		return nil, fmt.Errorf("%w: %q (expected Owner.Method)", chain.ErrMethodNotFound, ref)
	}
	ownerRef, name := ref[:i], ref[i+1:]

	var found []*funcDecl
	for _, d := range p.entries {
		if d.fn.Name() == name && p.ownerMatches(d, ownerRef) {
			found = append(found, d)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", chain.ErrMethodNotFound, ref)
	case 1:
		return found[0].fn, nil
	}
	refs := make([]string, len(found))
	for i, d := range found {
		refs[i] = d.pkg.PkgPath + "." + strings.TrimPrefix(p.ref(d), d.pkg.Name+".")
	}
	return nil, fmt.Errorf("%w: %s matches %s", chain.ErrAmbiguousMethod, ref, strings.Join(refs, ", "))
}

func (p *Program) ownerMatches(d *funcDecl, ownerRef string) bool {
	pkgName, pkgPath := d.pkg.Name, d.pkg.PkgPath
	if d.owner == nil {
		return ownerRef == pkgName || ownerRef == pkgPath
	}
	typeName := d.owner.Obj().Name()
	return ownerRef == typeName ||
		ownerRef == pkgName+"."+typeName ||
		ownerRef == pkgPath+"."+typeName
}

// ref è la forma breve pkg.Type.Method (o pkg.Func) usata per elencare i metodi.
func (p *Program) ref(d *funcDecl) string {
	if d.owner == nil {
		return d.pkg.Name + "." + d.fn.Name()
	}
	return d.pkg.Name + "." + d.owner.Obj().Name() + "." + d.fn.Name()
}

// Methods elenca le funzioni e i metodi locali ordinati per riferimento.
func (p *Program) Methods() []schema.MethodRef {
	out := make([]schema.MethodRef, 0, len(p.entries))
	for _, d := range p.entries {
		owner := d.pkg.PkgPath
		if d.owner != nil {
			owner += "." + d.owner.Obj().Name()
		}
		pos := p.Position(d.fn)
		mr := schema.MethodRef{
			Ref:      p.ref(d),
			Owner:    owner,
			Name:     d.fn.Name(),
			Abstract: d.decl == nil,
			Position: &schema.Position{File: pos.File, Line: pos.Line},
		}
		if d.decl != nil {
			mr.Signature = buildSignature(d.decl)
		} else {
			mr.Signature = d.fn.Name() + strings.TrimPrefix(exprString(d.field.Type), "func")
		}
		out = append(out, mr)
	}
	return out
}

func recvName(fl *ast.FieldList) string {
	if fl == nil || len(fl.List) == 0 {
		return ""
	}
	f := fl.List[0]
	// include receiver name if present
	name := ""
	if len(f.Names) > 0 {
		name = f.Names[0].Name
	}
	t := exprString(f.Type)
	if name != "" {
		return name + " " + t
	}
	return t
}

func exprString(e ast.Expr) string {
	var buf bytes.Buffer
	_ = printer.Fprint(&buf, token.NewFileSet(), e)
	return strings.TrimSpace(buf.String())
}

func fieldTypes(fl *ast.FieldList) []string {
	out := []string{}
	if fl == nil {
		return out
	}
	for _, f := range fl.List {
		t := exprString(f.Type)
		// number of names determines arity; if no name, just type
		if len(f.Names) == 0 {
			out = append(out, t)
			continue
		}
		for range f.Names {
			out = append(out, t)
		}
	}
	return out
}

func buildSignature(fn *ast.FuncDecl) string {
	params := fieldTypes(fn.Type.Params)
	res := fieldTypes(fn.Type.Results)
	recv := recvName(fn.Recv)
	sig := "func "
	if recv != "" {
		sig += "(" + recv + ") "
	}
	sig += fn.Name.Name
	sig += "(" + strings.Join(params, ", ") + ")"
	if len(res) == 1 {
		sig += " " + res[0]
	} else if len(res) > 1 {
		sig += " (" + strings.Join(res, ", ") + ")"
	}
	return sig
}
