package loader

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Program is a simple file listing rooted at Root.
type Program struct {
	Root  string
	Files []string // absolute paths, sorted
}

// Options controlla il comportamento del loader.
type Options struct {
	Extension   string   // estensione dei sorgenti, default ".java"
	IncludeTest bool
	ExcludeDirs []string // basenames da escludere
	OnlyPkg     []string // filtra per sottostringa nel path relativo
}

// Load walks the root directory and collects .java files, excluding build and VCS directories.
func Load(root string) (*Program, error) {
	return LoadWithOptions(root, Options{})
}

// LoadWithOptions cammina la directory root e raccoglie i sorgenti secondo le opzioni.
func LoadWithOptions(root string, opts Options) (*Program, error) {
	if opts.Extension == "" {
		opts.Extension = ".java"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	ex := map[string]struct{}{
		"vendor":       {},
		".git":         {},
		"testdata":     {},
		"target":       {},
		"build":        {},
		"node_modules": {},
	}
	for _, d := range opts.ExcludeDirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		ex[d] = struct{}{}
	}

	var files []string
	err = filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if path == abs {
				return nil
			}
			if _, skip := ex[base]; skip || strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, opts.Extension) {
			return nil
		}
		rel := path
		if rp, err := filepath.Rel(abs, path); err == nil {
			rel = rp
		}
		rp := filepath.ToSlash(rel)
		if !opts.IncludeTest && isTestFile(rp) {
			return nil
		}
		// only-pkg filtro su path relativo
		if len(opts.OnlyPkg) > 0 && !matchesAny(rp, opts.OnlyPkg) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return &Program{Root: abs, Files: files}, nil
}

// isTestFile riconosce i test Go e le convenzioni Maven/Gradle per Java.
func isTestFile(rel string) bool {
	base := filepath.Base(rel)
	switch {
	case strings.HasSuffix(base, "_test.go"):
		return true
	case strings.HasSuffix(base, "Test.java"), strings.HasSuffix(base, "Tests.java"):
		return true
	case strings.HasPrefix(rel, "src/test/"), strings.Contains(rel, "/src/test/"):
		return true
	}
	return false
}

func matchesAny(rel string, filters []string) bool {
	for _, s := range filters {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.Contains(rel, s) {
			return true
		}
	}
	return false
}
