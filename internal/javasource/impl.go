package javasource

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codellm-devkit/callchain-go/internal/chain"
)

// FindImplementations returns the concrete overrides of m declared in local subtypes of
// its class. Classes are scanned in parallel; the result is unordered.
func (p *Program) FindImplementations(ctx context.Context, m chain.Method) ([]chain.Method, error) {
	jm, ok := asMethod(m)
	if !ok || jm.class.external || !jm.class.abstract {
		return nil, nil
	}

	var (
		mu  sync.Mutex
		out []chain.Method
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, c := range p.classes {
		if c == jm.class || c.kind == "interface" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !p.isSubtype(c, jm.class) {
				return nil
			}
			for _, cand := range c.methods {
				if cand.body != nil && overrides(cand, jm) {
					mu.Lock()
					out = append(out, cand)
					mu.Unlock()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.log.Debug("implementations found", slog.String("method", jm.class.qualified+"."+jm.name), slog.Int("count", len(out)))
	return out, nil
}

// isSubtype reports whether c extends or implements target, directly or transitively.
func (p *Program) isSubtype(c, target *Class) bool {
	seen := map[*Class]bool{}
	queue := []*Class{c}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		if k == nil || seen[k] || k.external {
			continue
		}
		seen[k] = true
		if k != c && k == target {
			return true
		}
		if k.super != "" {
			queue = append(queue, p.resolveType(k, k.super))
		}
		for _, i := range k.ifaces {
			queue = append(queue, p.resolveType(k, i))
		}
	}
	return false
}

// overrides confronta nome, arità e tipi dei parametri senza generics. Le variabili di
// tipo (una sola lettera maiuscola) sono compatibili con qualsiasi tipo.
func overrides(cand, base *Method) bool {
	if cand.name != base.name || len(cand.params) != len(base.params) {
		return false
	}
	for i := range cand.params {
		a := simpleName(typeName(cand.params[i].typ))
		b := simpleName(typeName(base.params[i].typ))
		if a != b && !isTypeVar(a) && !isTypeVar(b) {
			return false
		}
	}
	return true
}

func isTypeVar(s string) bool {
	return len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z'
}
