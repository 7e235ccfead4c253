// Package javasource implements chain.SourceModel over Java sources parsed with tree-sitter.
package javasource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"golang.org/x/sync/errgroup"

	"github.com/codellm-devkit/callchain-go/internal/chain"
	"github.com/codellm-devkit/callchain-go/internal/loader"
)

// Options controls how a Java source tree is loaded.
type Options struct {
	IncludeTests bool
	ExcludeDirs  []string
	OnlyPkg      []string
	Workers      int
	CacheSize    int
	Logger       *slog.Logger
}

const (
	defaultWorkers   = 4
	defaultCacheSize = 1024
)

// Program is the parsed and indexed Java source set.
type Program struct {
	root    string
	files   []*sourceFile
	classes []*Class // local classes sorted by qualified name
	byQName map[string]*Class
	bySimple map[string][]*Class
	workers int
	log     *slog.Logger

	lookups *lru.Cache[string, *Method]

	mu       sync.Mutex
	external map[string]*Class
}

type sourceFile struct {
	path     string
	rel      string
	src      []byte
	tree     *sitter.Tree
	pkg      string
	imports  map[string]string // simple name -> qualified name
	wildcard []string          // packages imported with .*
}

// Class is a class, interface, enum or record. External classes stand for types that are
// referenced but not present in the source set.
type Class struct {
	name      string
	qualified string
	kind      string
	abstract  bool
	external  bool
	super     string
	ifaces    []string
	fields    map[string]string
	methods   []*Method
	outer     *Class
	file      *sourceFile
}

func (c *Class) Name() string          { return c.name }
func (c *Class) QualifiedName() string { return c.qualified }

// Method is a method declaration, or a synthesized handle on an external class.
type Method struct {
	class    *Class
	name     string
	ret      string
	params   []param
	node     *sitter.Node
	body     *sitter.Node
	doc      string
	line     int
	abstract bool
}

type param struct {
	typ  string
	name string
}

func (m *Method) paramTypes() []string {
	out := make([]string, len(m.params))
	for i, p := range m.params {
		out[i] = p.typ
	}
	return out
}

// Load walks root for .java files, parses them and indexes their declarations.
func Load(ctx context.Context, root string, opts Options) (*Program, error) {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	prog, err := loader.LoadWithOptions(root, loader.Options{
		Extension:   ".java",
		IncludeTest: opts.IncludeTests,
		ExcludeDirs: opts.ExcludeDirs,
		OnlyPkg:     opts.OnlyPkg,
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if len(prog.Files) == 0 {
		return nil, fmt.Errorf("%w under %s", chain.ErrNoPackages, prog.Root)
	}

	files := make([]*sourceFile, len(prog.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, path := range prog.Files {
		g.Go(func() error {
			f, err := parseFile(gctx, prog.Root, path)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, f := range files {
			if f != nil {
				f.tree.Close()
			}
		}
		return nil, err
	}

	lookups, err := lru.New[string, *Method](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("lookup cache: %w", err)
	}
	p := &Program{
		root:     prog.Root,
		files:    files,
		byQName:  map[string]*Class{},
		bySimple: map[string][]*Class{},
		workers:  opts.Workers,
		log:      log,
		lookups:  lookups,
		external: map[string]*Class{},
	}
	for _, f := range files {
		p.indexFile(f)
	}
	sort.Slice(p.classes, func(i, j int) bool { return p.classes[i].qualified < p.classes[j].qualified })
	log.Debug("java sources loaded",
		slog.String("root", prog.Root),
		slog.Int("files", len(files)),
		slog.Int("classes", len(p.classes)))
	return p, nil
}

// Root returns the analysed directory.
func (p *Program) Root() string { return p.root }

// Close releases the parse trees.
func (p *Program) Close() error {
	for _, f := range p.files {
		if f.tree != nil {
			f.tree.Close()
			f.tree = nil
		}
	}
	p.lookups.Purge()
	return nil
}

func parseFile(ctx context.Context, root, path string) (*sourceFile, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	rel := path
	if r, err := filepath.Rel(root, path); err == nil {
		rel = filepath.ToSlash(r)
	}
	return &sourceFile{path: path, rel: rel, src: src, tree: tree, imports: map[string]string{}}, nil
}

func (f *sourceFile) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(f.src)
}

func (p *Program) indexFile(f *sourceFile) {
	root := f.tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "package_declaration":
			f.pkg = f.text(firstNamed(n, "scoped_identifier", "identifier"))
		case "import_declaration":
			p.indexImport(f, n)
		}
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		p.indexType(f, root.NamedChild(i), nil)
	}
}

func (p *Program) indexImport(f *sourceFile, n *sitter.Node) {
	name := f.text(firstNamed(n, "scoped_identifier", "identifier"))
	if name == "" {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "asterisk" {
			f.wildcard = append(f.wildcard, name)
			return
		}
	}
	if strings.Contains(f.text(n), "static ") {
		return
	}
	f.imports[simpleName(name)] = name
}

var typeKinds = map[string]string{
	"class_declaration":     "class",
	"interface_declaration": "interface",
	"enum_declaration":      "enum",
	"record_declaration":    "record",
}

func (p *Program) indexType(f *sourceFile, n *sitter.Node, outer *Class) {
	kind, ok := typeKinds[n.Type()]
	if !ok {
		return
	}
	name := f.text(n.ChildByFieldName("name"))
	qualified := name
	switch {
	case outer != nil:
		qualified = outer.qualified + "." + name
	case f.pkg != "":
		qualified = f.pkg + "." + name
	}
	c := &Class{
		name:      name,
		qualified: qualified,
		kind:      kind,
		abstract:  kind == "interface" || hasModifier(f, n, "abstract"),
		fields:    map[string]string{},
		outer:     outer,
		file:      f,
	}
	if sc := n.ChildByFieldName("superclass"); sc != nil {
		c.super = typeName(f.text(firstNamed(sc, "type_identifier", "generic_type", "scoped_type_identifier")))
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		if ch.Type() != "super_interfaces" && ch.Type() != "extends_interfaces" {
			continue
		}
		if list := firstNamed(ch, "type_list"); list != nil {
			for j := 0; j < int(list.NamedChildCount()); j++ {
				c.ifaces = append(c.ifaces, typeName(f.text(list.NamedChild(j))))
			}
		}
	}
	p.classes = append(p.classes, c)
	p.byQName[qualified] = c
	p.bySimple[name] = append(p.bySimple[name], c)

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	p.indexMembers(f, c, body)
}

func (p *Program) indexMembers(f *sourceFile, c *Class, body *sitter.Node) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		switch m.Type() {
		case "method_declaration":
			c.methods = append(c.methods, p.method(f, c, m))
		case "field_declaration", "constant_declaration":
			typ := typeName(f.text(m.ChildByFieldName("type")))
			for j := 0; j < int(m.NamedChildCount()); j++ {
				if d := m.NamedChild(j); d.Type() == "variable_declarator" {
					c.fields[f.text(d.ChildByFieldName("name"))] = typ
				}
			}
		case "enum_body_declarations":
			p.indexMembers(f, c, m)
		default:
			p.indexType(f, m, c)
		}
	}
}

func (p *Program) method(f *sourceFile, c *Class, n *sitter.Node) *Method {
	m := &Method{
		class: c,
		name:  f.text(n.ChildByFieldName("name")),
		ret:   f.text(n.ChildByFieldName("type")),
		node:  n,
		body:  n.ChildByFieldName("body"),
		line:  int(n.StartPoint().Row) + 1,
	}
	m.abstract = m.body == nil
	m.params = parameters(f, n.ChildByFieldName("parameters"))
	if prev := n.PrevSibling(); prev != nil && prev.Type() == "block_comment" {
		if doc := f.text(prev); strings.HasPrefix(doc, "/**") {
			m.doc = doc
		}
	}
	return m
}

func parameters(f *sourceFile, list *sitter.Node) []param {
	if list == nil {
		return nil
	}
	var out []param
	for i := 0; i < int(list.NamedChildCount()); i++ {
		pn := list.NamedChild(i)
		switch pn.Type() {
		case "formal_parameter":
			out = append(out, param{typ: f.text(pn.ChildByFieldName("type")), name: f.text(pn.ChildByFieldName("name"))})
		case "spread_parameter":
			typ := f.text(firstNamed(pn, "type_identifier", "generic_type", "scoped_type_identifier", "integral_type", "floating_point_type", "boolean_type"))
			var name string
			if d := firstNamed(pn, "variable_declarator"); d != nil {
				name = f.text(d.ChildByFieldName("name"))
			}
			out = append(out, param{typ: typ + "...", name: name})
		}
	}
	return out
}

func hasModifier(f *sourceFile, n *sitter.Node, modifier string) bool {
	mods := firstNamed(n, "modifiers")
	if mods == nil {
		return false
	}
	for i := 0; i < int(mods.ChildCount()); i++ {
		if f.text(mods.Child(i)) == modifier {
			return true
		}
	}
	return false
}

// firstNamed returns the first named child of n with one of the given types.
func firstNamed(n *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		for _, t := range types {
			if ch.Type() == t {
				return ch
			}
		}
	}
	return nil
}

// typeName erases generic arguments and array brackets: "Map<K, V>[]" becomes "Map".
func typeName(t string) string {
	if i := strings.IndexByte(t, '<'); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "...")
	for strings.HasSuffix(t, "[]") {
		t = strings.TrimSuffix(t, "[]")
	}
	return strings.TrimSpace(t)
}

func simpleName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
