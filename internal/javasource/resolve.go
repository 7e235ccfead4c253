package javasource

import (
	"strconv"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codellm-devkit/callchain-go/internal/chain"
)

// javaLang elenca i tipi di java.lang usati senza import.
var javaLang = map[string]bool{
	"Object": true, "String": true, "StringBuilder": true, "StringBuffer": true,
	"Integer": true, "Long": true, "Short": true, "Byte": true, "Double": true,
	"Float": true, "Boolean": true, "Character": true, "Number": true, "Math": true,
	"System": true, "Thread": true, "Runnable": true, "Exception": true,
	"RuntimeException": true, "Throwable": true, "Error": true, "Class": true,
	"Enum": true, "Iterable": true, "Comparable": true, "CharSequence": true,
	"IllegalArgumentException": true, "IllegalStateException": true,
}

var primitives = map[string]bool{
	"int": true, "long": true, "short": true, "byte": true, "char": true,
	"boolean": true, "float": true, "double": true, "void": true, "var": true,
}

// ResolveTarget risolve una method_invocation sulla dichiarazione chiamata. Il tipo del
// ricevitore viene dedotto da variabili locali, parametri e campi; chiamate su
// espressioni arbitrarie non sono risolte.
func (p *Program) ResolveTarget(c chain.CallExpr) (chain.Method, bool) {
	cl, ok := asCall(c)
	if !ok {
		return nil, false
	}
	f := cl.in.file()
	name := f.text(cl.node.ChildByFieldName("name"))
	argc := 0
	if args := cl.node.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			if t := args.NamedChild(i).Type(); t != "line_comment" && t != "block_comment" {
				argc++
			}
		}
	}

	object := cl.node.ChildByFieldName("object")
	if object == nil {
		// chiamata non qualificata: la classe corrente, poi le classi esterne
		for c := cl.in.class; c != nil; c = c.outer {
			if m := p.lookup(c, name, argc); m != nil {
				return m, true
			}
		}
		return nil, false
	}

	recv := p.receiverClass(cl, object)
	if recv == nil {
		return nil, false
	}
	m := p.lookup(recv, name, argc)
	if m == nil {
		return nil, false
	}
	return m, true
}

// receiverClass deduce la classe del ricevitore di una chiamata.
func (p *Program) receiverClass(cl *call, object *sitter.Node) *Class {
	f := cl.in.file()
	from := cl.in.class
	switch object.Type() {
	case "this":
		return from
	case "super":
		if from.super == "" {
			return nil
		}
		return p.resolveType(from, from.super)
	case "identifier":
		id := f.text(object)
		if t := p.localType(cl, id); t != "" {
			return p.resolveType(from, t)
		}
		if t := p.fieldType(from, id); t != "" {
			return p.resolveType(from, t)
		}
		if isTypeName(id) {
			return p.resolveType(from, id)
		}
	case "field_access":
		inner := object.ChildByFieldName("object")
		field := f.text(object.ChildByFieldName("field"))
		if inner != nil && inner.Type() == "this" {
			if t := p.fieldType(from, field); t != "" {
				return p.resolveType(from, t)
			}
		}
	case "scoped_identifier":
		return p.resolveType(from, f.text(object))
	}
	return nil
}

// localType cerca la dichiarazione di id tra le variabili locali dichiarate prima della
// chiamata e tra i parametri del metodo.
func (p *Program) localType(cl *call, id string) string {
	f := cl.in.file()
	callStart := cl.node.StartByte()
	var found string
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.StartByte() >= callStart {
			return
		}
		switch n.Type() {
		case "local_variable_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				d := n.NamedChild(i)
				if d.Type() == "variable_declarator" && f.text(d.ChildByFieldName("name")) == id {
					found = typeName(f.text(n.ChildByFieldName("type")))
				}
			}
		case "enhanced_for_statement":
			if f.text(n.ChildByFieldName("name")) == id && n.EndByte() > callStart {
				found = typeName(f.text(n.ChildByFieldName("type")))
			}
		case "class_body":
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(cl.in.body)
	if found != "" {
		return found
	}
	for _, prm := range cl.in.params {
		if prm.name == id {
			return typeName(prm.typ)
		}
	}
	return ""
}

// fieldType cerca un campo nella gerarchia di c e nelle classi che la contengono.
func (p *Program) fieldType(c *Class, name string) string {
	for outer := c; outer != nil; outer = outer.outer {
		seen := map[*Class]bool{}
		for k := outer; k != nil && !seen[k]; k = p.superOf(k) {
			seen[k] = true
			if t, ok := k.fields[name]; ok {
				return t
			}
		}
	}
	return ""
}

func (p *Program) superOf(c *Class) *Class {
	if c.external || c.super == "" {
		return nil
	}
	return p.resolveType(c, c.super)
}

func isTypeName(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// resolveType risolve un nome di tipo visto da una classe: classi annidate, import,
// stesso package, import con wildcard, java.lang. I tipi non trovati diventano
// classi esterne.
func (p *Program) resolveType(from *Class, name string) *Class {
	name = typeName(name)
	if name == "" || primitives[name] {
		return nil
	}
	if c, ok := p.byQName[name]; ok {
		return c
	}
	f := from.file
	if strings.Contains(name, ".") {
		head, rest, _ := strings.Cut(name, ".")
		if outer := p.resolveType(from, head); outer != nil && !outer.external {
			if c, ok := p.byQName[outer.qualified+"."+rest]; ok {
				return c
			}
		}
		return p.externalClass(name)
	}
	for c := from; c != nil; c = c.outer {
		if nested, ok := p.byQName[c.qualified+"."+name]; ok {
			return nested
		}
		if c.name == name {
			return c
		}
	}
	if f != nil {
		if q, ok := f.imports[name]; ok {
			if c, ok := p.byQName[q]; ok {
				return c
			}
			return p.externalClass(q)
		}
		if f.pkg != "" {
			if c, ok := p.byQName[f.pkg+"."+name]; ok {
				return c
			}
		}
		for _, w := range f.wildcard {
			if c, ok := p.byQName[w+"."+name]; ok {
				return c
			}
		}
	}
	if javaLang[name] {
		return p.externalClass("java.lang." + name)
	}
	if cs := p.bySimple[name]; len(cs) == 1 {
		return cs[0]
	}
	return p.externalClass(name)
}

// externalClass restituisce la classe sintetica per un tipo fuori dai sorgenti.
func (p *Program) externalClass(qualified string) *Class {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.external[qualified]; ok {
		return c
	}
	c := &Class{
		name:      simpleName(qualified),
		qualified: qualified,
		kind:      "class",
		external:  true,
		fields:    map[string]string{},
	}
	p.external[qualified] = c
	return c
}

// lookup trova il metodo name con argc argomenti nella gerarchia di c. Sui tipi esterni
// il metodo viene sintetizzato.
func (p *Program) lookup(c *Class, name string, argc int) *Method {
	key := c.qualified + "#" + name + "/" + strconv.Itoa(argc)
	if m, ok := p.lookups.Get(key); ok {
		return m
	}
	m := p.lookupUncached(c, name, argc)
	if m != nil {
		p.lookups.Add(key, m)
	}
	return m
}

func (p *Program) lookupUncached(c *Class, name string, argc int) *Method {
	seen := map[*Class]bool{}
	queue := []*Class{c}
	var firstExternal *Class
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if k == nil || seen[k] {
			continue
		}
		seen[k] = true
		if k.external {
			if firstExternal == nil {
				firstExternal = k
			}
			continue
		}
		for _, m := range k.methods {
			if m.name == name && arityMatches(m, argc) {
				return m
			}
		}
		if k.super != "" {
			queue = append(queue, p.resolveType(k, k.super))
		}
		for _, i := range k.ifaces {
			queue = append(queue, p.resolveType(k, i))
		}
	}
	if firstExternal == nil {
		return nil
	}
	return p.externalMethod(firstExternal, name, argc)
}

func arityMatches(m *Method, argc int) bool {
	n := len(m.params)
	if n > 0 && strings.HasSuffix(m.params[n-1].typ, "...") {
		return argc >= n-1
	}
	return n == argc
}

func (p *Program) externalMethod(c *Class, name string, argc int) *Method {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range c.methods {
		if m.name == name && len(m.params) == argc {
			return m
		}
	}
	m := &Method{class: c, name: name, params: make([]param, argc), abstract: true}
	for i := range m.params {
		m.params[i] = param{typ: "?"}
	}
	c.methods = append(c.methods, m)
	return m
}
