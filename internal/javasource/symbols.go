package javasource

import (
	"fmt"
	"strings"

	"github.com/codellm-devkit/callchain-go/internal/chain"
	"github.com/codellm-devkit/callchain-go/pkg/schema"
)

// FindMethod risolve un riferimento testuale a un metodo locale. Forme accettate:
// Class#method, pkg.Class#method, Class.method, pkg.Class.method; i tipi dei parametri
// tra parentesi, es. Class#method(String, List), distinguono gli overload.
func (p *Program) FindMethod(ref string) (chain.Method, error) {
	ref = strings.TrimSpace(ref)
	var params []string
	hasParams := false
	if i := strings.IndexByte(ref, '('); i >= 0 && strings.HasSuffix(ref, ")") {
		hasParams = true
		for _, t := range strings.Split(ref[i+1:len(ref)-1], ",") {
			if t = strings.TrimSpace(t); t != "" {
				params = append(params, simpleName(typeName(t)))
			}
		}
		ref = ref[:i]
	}

	sep := strings.LastIndexByte(ref, '#')
	if sep < 0 {
		sep = strings.LastIndexByte(ref, '.')
	}
	if sep <= 0 || sep == len(ref)-1 {
		return nil, fmt.Errorf("%w: %q (expected Class#method)", chain.ErrMethodNotFound, ref)
	}
	classRef, name := ref[:sep], ref[sep+1:]

	var found []*Method
	for _, c := range p.classes {
		if c.name != classRef && c.qualified != classRef {
			continue
		}
		for _, m := range c.methods {
			if m.name != name {
				continue
			}
			if hasParams && !sameParams(m, params) {
				continue
			}
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", chain.ErrMethodNotFound, ref)
	case 1:
		return found[0], nil
	}
	refs := make([]string, len(found))
	for i, m := range found {
		refs[i] = m.ref()
	}
	return nil, fmt.Errorf("%w: %s matches %s", chain.ErrAmbiguousMethod, ref, strings.Join(refs, ", "))
}

func sameParams(m *Method, params []string) bool {
	if len(m.params) != len(params) {
		return false
	}
	for i, prm := range m.params {
		if simpleName(typeName(prm.typ)) != params[i] {
			return false
		}
	}
	return true
}

// ref è la forma pkg.Class#method(Tipi) usata per elencare i metodi.
func (m *Method) ref() string {
	return m.class.qualified + "#" + m.name + "(" + strings.Join(m.paramTypes(), ", ") + ")"
}

// Methods elenca i metodi dichiarati nei sorgenti, ordinati per classe e posizione.
func (p *Program) Methods() []schema.MethodRef {
	var out []schema.MethodRef
	for _, c := range p.classes {
		for _, m := range c.methods {
			pos := p.Position(m)
			out = append(out, schema.MethodRef{
				Ref:       m.ref(),
				Owner:     c.qualified,
				Name:      m.name,
				Signature: m.signature(),
				Abstract:  m.abstract,
				Position:  &schema.Position{File: pos.File, Line: pos.Line},
			})
		}
	}
	return out
}

func (m *Method) signature() string {
	parts := make([]string, len(m.params))
	for i, prm := range m.params {
		parts[i] = strings.TrimSpace(prm.typ + " " + prm.name)
	}
	return strings.TrimSpace(m.ret + " " + m.name + "(" + strings.Join(parts, ", ") + ")")
}
