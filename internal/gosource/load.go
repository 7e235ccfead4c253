// Package gosource implementa chain.SourceModel sul codice Go caricato con go/packages.
package gosource

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/tools/go/packages"

	"github.com/codellm-devkit/callchain-go/internal/chain"
)

// Options raccoglie le opzioni di caricamento.
type Options struct {
	IncludeTests bool
	ExcludeDirs  []string // directory names (basename) da escludere
	OnlyPkg      []string // filtra a questi package path (substring match)
	Workers      int      // parallelismo della ricerca delle implementazioni
	CacheSize    int      // numero di file sorgente tenuti in memoria
	Logger       *slog.Logger
}

const (
	defaultWorkers   = 4
	defaultCacheSize = 256
)

// Program è il modello di un modulo Go caricato da disco.
type Program struct {
	root    string
	fset    *token.FileSet
	pkgs    []*packages.Package
	local   map[*types.Package]*packages.Package
	decls   map[*types.Func]*funcDecl
	entries []*funcDecl // ordinati per ref
	files   *lru.Cache[string, []byte]
	workers int
	log     *slog.Logger
}

// funcDecl è una funzione, un metodo o un metodo di interfaccia dichiarato localmente.
type funcDecl struct {
	fn    *types.Func
	pkg   *packages.Package
	file  *ast.File
	decl  *ast.FuncDecl // nil per i metodi di interfaccia
	field *ast.Field    // metodo di interfaccia
	owner *types.Named  // nil per le funzioni di package
}

func (d *funcDecl) node() ast.Node {
	if d.decl != nil {
		return d.decl
	}
	return d.field
}

// Load carica tutti i pacchetti sotto root.
func Load(ctx context.Context, root string, opts Options) (*Program, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("abs root: %w", err)
	}
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

	pkgs, fset, err := loadPackages(ctx, abs, opts.IncludeTests, log)
	if err != nil {
		return nil, err
	}
	pkgs = dedupPackages(filterPackages(pkgs, opts.ExcludeDirs, opts.OnlyPkg))
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w under %s", chain.ErrNoPackages, abs)
	}

	files, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("file cache: %w", err)
	}

	p := &Program{
		root:    abs,
		fset:    fset,
		pkgs:    pkgs,
		local:   make(map[*types.Package]*packages.Package, len(pkgs)),
		decls:   map[*types.Func]*funcDecl{},
		files:   files,
		workers: opts.Workers,
		log:     log,
	}
	for _, pkg := range pkgs {
		if pkg.Types != nil {
			p.local[pkg.Types] = pkg
		}
	}
	p.index()
	log.Debug("go packages loaded",
		slog.String("root", abs),
		slog.Int("packages", len(pkgs)),
		slog.Int("functions", len(p.entries)))
	return p, nil
}

// Root restituisce la directory analizzata.
func (p *Program) Root() string { return p.root }

// Close svuota la cache dei file.
func (p *Program) Close() error {
	p.files.Purge()
	return nil
}

// index registra ogni FuncDecl e ogni metodo di interfaccia con nome.
func (p *Program) index() {
	for _, pkg := range p.pkgs {
		if pkg.TypesInfo == nil {
			continue
		}
		for _, file := range pkg.Syntax {
			for _, d := range file.Decls {
				switch x := d.(type) {
				case *ast.FuncDecl:
					fn, ok := pkg.TypesInfo.Defs[x.Name].(*types.Func)
					if !ok {
						continue
					}
					p.add(&funcDecl{fn: fn, pkg: pkg, file: file, decl: x, owner: receiverNamed(fn)})
				case *ast.GenDecl:
					if x.Tok != token.TYPE {
						continue
					}
					for _, spec := range x.Specs {
						p.indexInterface(pkg, file, spec)
					}
				}
			}
		}
	}
	sort.Slice(p.entries, func(i, j int) bool { return p.ref(p.entries[i]) < p.ref(p.entries[j]) })
}

func (p *Program) indexInterface(pkg *packages.Package, file *ast.File, spec ast.Spec) {
	ts, ok := spec.(*ast.TypeSpec)
	if !ok {
		return
	}
	it, ok := ts.Type.(*ast.InterfaceType)
	if !ok || it.Methods == nil {
		return
	}
	tn, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
	if !ok {
		return
	}
	named, ok := tn.Type().(*types.Named)
	if !ok {
		return
	}
	for _, field := range it.Methods.List {
		for _, name := range field.Names {
			if fn, ok := pkg.TypesInfo.Defs[name].(*types.Func); ok {
				p.add(&funcDecl{fn: fn, pkg: pkg, file: file, field: field, owner: named})
			}
		}
	}
}

func (p *Program) add(d *funcDecl) {
	p.decls[d.fn] = d
	p.entries = append(p.entries, d)
}

// loadPackages carica tutti i pacchetti sotto root usando go/packages.
func loadPackages(ctx context.Context, root string, includeTests bool, log *slog.Logger) ([]*packages.Package, *token.FileSet, error) {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles | packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedTypesSizes | packages.NeedImports | packages.NeedModule,
		Dir:     root,
		Tests:   includeTests,
		Env:     os.Environ(),
	}
	// Carica tutti i pacchetti sotto root
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, nil, fmt.Errorf("packages.Load: %w", err)
	}
	// Non bloccare sugli errori di tipo: il modello resta utilizzabile
	packages.Visit(pkgs, nil, func(pkg *packages.Package) {
		for _, e := range pkg.Errors {
			log.Debug("package error", slog.String("package", pkg.PkgPath), slog.String("error", e.Error()))
		}
	})
	var fset *token.FileSet
	if len(pkgs) > 0 {
		fset = pkgs[0].Fset
	} else {
		fset = token.NewFileSet()
	}
	return pkgs, fset, nil
}

// filterPackages applica i filtri di directory e package.
func filterPackages(pkgs []*packages.Package, excludeDirs, onlyPkg []string) []*packages.Package {
	ex := map[string]struct{}{}
	for _, d := range excludeDirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		ex[d] = struct{}{}
	}

	keep := func(p *packages.Package) bool {
		if len(onlyPkg) > 0 {
			ok := false
			for _, s := range onlyPkg {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				if strings.Contains(p.PkgPath, s) {
					ok = true
					break
				}
			}
			if !ok {
				return false
			}
		}
		// Se uno qualsiasi dei file del pacchetto sta in una dir esclusa, escludi il pkg.
		for _, f := range p.GoFiles {
			base := filepath.Base(filepath.Dir(f))
			if _, ok := ex[base]; ok {
				return false
			}
		}
		return true
	}

	out := make([]*packages.Package, 0, len(pkgs))
	for _, p := range pkgs {
		if p == nil || p.Types == nil {
			continue
		}
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// dedupPackages rimuove duplicati per PkgPath mantenendo l'ordine di prima occorrenza.
func dedupPackages(in []*packages.Package) []*packages.Package {
	seen := make(map[string]struct{}, len(in))
	out := make([]*packages.Package, 0, len(in))
	for _, p := range in {
		if p == nil {
			continue
		}
		key := p.PkgPath
		if key == "" {
			// fallback a pointer string se manca PkgPath (raro)
			key = fmt.Sprintf("%p", p)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// source restituisce il contenuto del file, passando dalla cache.
func (p *Program) source(filename string) []byte {
	if data, ok := p.files.Get(filename); ok {
		return data
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		p.log.Warn("cannot read source file", slog.String("file", filename), slog.String("error", err.Error()))
		return nil
	}
	p.files.Add(filename, data)
	return data
}

// text restituisce il sorgente compreso tra from e to.
func (p *Program) text(from, to token.Pos) string {
	tf := p.fset.File(from)
	if tf == nil || !to.IsValid() {
		return ""
	}
	data := p.source(tf.Name())
	start, end := tf.Offset(from), tf.Offset(to)
	if start < 0 || end > len(data) || start > end {
		return ""
	}
	return string(data[start:end])
}
