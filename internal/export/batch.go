// Package export carica gli alberi delle chiamate in Neo4j.
package export

import (
	"sort"
	"strings"

	"github.com/codellm-devkit/callchain-go/internal/calltree"
	"github.com/codellm-devkit/callchain-go/internal/chain"
)

// Batches contiene le righe passate alle query UNWIND, una slice per tipo di entità.
type Batches struct {
	Run     map[string]any
	Types   []map[string]any
	Methods []map[string]any
	Calls   []map[string]any
}

// RunInfo descrive l'analisi esportata.
type RunInfo struct {
	ID       string
	Language string
	Root     string
	Entry    string
	MaxDepth int
	Created  string // RFC3339
}

// BuildBatches appiattisce l'albero in righe per Neo4j. I metodi sono unici per firma;
// ogni arco dell'albero diventa una relazione CALLS con l'ordine tra fratelli.
func BuildBatches(run RunInfo, tree *calltree.Tree) Batches {
	b := Batches{
		Run: map[string]any{
			"id":        run.ID,
			"language":  run.Language,
			"root":      run.Root,
			"entry":     run.Entry,
			"max_depth": run.MaxDepth,
			"created":   run.Created,
		},
		Types:   []map[string]any{},
		Methods: []map[string]any{},
		Calls:   []map[string]any{},
	}
	if tree == nil || tree.IsEmpty() {
		return b
	}
	b.Run["entry_id"] = methodKey(tree.Root().Description())

	types := map[string]map[string]any{}
	methods := map[string]bool{}
	tree.Walk(func(n *calltree.Node) bool {
		d := n.Description()
		id := methodKey(d)
		if _, ok := types[d.Owner]; !ok {
			types[d.Owner] = map[string]any{
				"qualified": d.Owner,
				"name":      d.SimpleOwner,
			}
		}
		if !methods[id] {
			methods[id] = true
			b.Methods = append(b.Methods, map[string]any{
				"id":          id,
				"owner":       d.Owner,
				"name":        d.Name,
				"params":      d.Params,
				"return_type": d.ReturnType,
				"file":        d.File,
				"line":        d.Line,
				"doc":         chain.CleanDoc(d.Doc),
				"external":    d.Flag(calltree.AttrExternal),
			})
		}
		if parent := n.Parent(); parent != nil {
			b.Calls = append(b.Calls, map[string]any{
				"caller":     methodKey(parent.Description()),
				"callee":     id,
				"order":      indexOf(parent, n),
				"depth":      n.Depth(),
				"recursive":  n.IsRecursive(),
				"implements": d.Attr(calltree.AttrImplements),
				"statement":  strings.TrimSpace(d.Attr(calltree.AttrStatement)),
			})
		}
		return true
	})

	keys := make([]string, 0, len(types))
	for k := range types {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Types = append(b.Types, types[k])
	}
	return b
}

// methodKey identifica un metodo per firma, indipendentemente dal punto di chiamata.
func methodKey(d *calltree.Description) string {
	return d.Signature.String() + "(" + d.Params + ")"
}

func indexOf(parent, child *calltree.Node) int {
	for i, c := range parent.Children() {
		if c == child {
			return i
		}
	}
	return -1
}
