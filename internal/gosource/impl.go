package gosource

import (
	"context"
	"go/types"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codellm-devkit/callchain-go/internal/chain"
)

// FindImplementations returns the concrete methods of local types that satisfy the
// interface declaring m. Packages are scanned in parallel; the result is unordered.
func (p *Program) FindImplementations(ctx context.Context, m chain.Method) ([]chain.Method, error) {
	fn, ok := asFunc(m)
	if !ok {
		return nil, nil
	}
	owner, ok := p.ContainingType(m)
	if !ok || !p.IsAbstractOrInterface(owner) {
		return nil, nil
	}
	iface, ok := owner.(*Owner).named.Underlying().(*types.Interface)
	if !ok {
		return nil, nil
	}

	var (
		mu  sync.Mutex
		out []chain.Method
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, pkg := range p.pkgs {
		scope := pkg.Types.Scope()
		g.Go(func() error {
			for _, name := range scope.Names() {
				if err := gctx.Err(); err != nil {
					return err
				}
				impl := p.implementationIn(scope.Lookup(name), iface, fn)
				if impl == nil {
					continue
				}
				mu.Lock()
				out = append(out, impl)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.log.Debug("implementations found", slog.String("method", owner.QualifiedName()+"."+fn.Name()), slog.Int("count", len(out)))
	return out, nil
}

// implementationIn returns the local method through which obj's type (or a pointer to it)
// implements iface's method fn.
func (p *Program) implementationIn(obj types.Object, iface *types.Interface, fn *types.Func) *types.Func {
	tn, ok := obj.(*types.TypeName)
	if !ok || tn.IsAlias() {
		return nil
	}
	named, ok := tn.Type().(*types.Named)
	if !ok || types.IsInterface(named) || named.TypeParams().Len() > 0 {
		return nil
	}
	for _, t := range []types.Type{named, types.NewPointer(named)} {
		if !types.Implements(t, iface) {
			continue
		}
		sel, _, _ := types.LookupFieldOrMethod(t, true, fn.Pkg(), fn.Name())
		impl, ok := sel.(*types.Func)
		if !ok {
			return nil
		}
		if _, local := p.decls[impl]; !local {
			return nil
		}
		return impl
	}
	return nil
}
