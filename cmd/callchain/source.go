package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/codellm-devkit/callchain-go/internal/chain"
	"github.com/codellm-devkit/callchain-go/internal/config"
	"github.com/codellm-devkit/callchain-go/internal/gosource"
	"github.com/codellm-devkit/callchain-go/internal/javasource"
	"github.com/codellm-devkit/callchain-go/internal/loader"
	"github.com/codellm-devkit/callchain-go/pkg/schema"
)

// source è un SourceModel che sa anche cercare ed elencare i metodi di ingresso.
type source interface {
	chain.SourceModel
	FindMethod(ref string) (chain.Method, error)
	Methods() []schema.MethodRef
	Close() error
}

var (
	_ source = (*gosource.Program)(nil)
	_ source = (*javasource.Program)(nil)
)

func (a *app) open(ctx context.Context) (source, error) {
	a.log.Info("loading sources", slog.String("root", a.opts.input), slog.String("lang", a.lang))
	switch a.lang {
	case config.LangGo:
		prog, err := gosource.Load(ctx, a.opts.input, gosource.Options{
			IncludeTests: a.cfg.IncludeTests,
			ExcludeDirs:  a.cfg.ExcludeDirs,
			OnlyPkg:      a.opts.onlyPkg,
			Workers:      a.cfg.Workers,
			Logger:       a.log,
		})
		if err != nil {
			return nil, err
		}
		return prog, nil
	case config.LangJava:
		prog, err := javasource.Load(ctx, a.opts.input, javasource.Options{
			IncludeTests: a.cfg.IncludeTests,
			ExcludeDirs:  a.cfg.ExcludeDirs,
			OnlyPkg:      a.opts.onlyPkg,
			Workers:      a.cfg.Workers,
			Logger:       a.log,
		})
		if err != nil {
			return nil, err
		}
		return prog, nil
	}
	return nil, fmt.Errorf("%w: %q", chain.ErrUnsupportedLanguage, a.lang)
}

// detectLanguage sceglie java quando la radice non ha go.mod e contiene sorgenti .java.
func detectLanguage(root string) string {
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
		return config.LangGo
	}
	prog, err := loader.LoadWithOptions(root, loader.Options{Extension: ".java", IncludeTest: true})
	if err == nil && len(prog.Files) > 0 {
		return config.LangJava
	}
	return config.LangGo
}
