package schema

import (
	"github.com/codellm-devkit/callchain-go/internal/calltree"
	"github.com/codellm-devkit/callchain-go/internal/chain"
)

// ConvertOptions controlla il livello di dettaglio della conversione.
type ConvertOptions struct {
	IncludeSource bool // include il sorgente di ogni metodo
}

// FromTree converte un albero delle chiamate nel suo documento JSON.
// Restituisce nil per l'albero vuoto.
func FromTree(tree *calltree.Tree, opts ConvertOptions) *CallNode {
	if tree == nil || tree.IsEmpty() {
		return nil
	}
	return convertNode(tree.Root(), opts)
}

// StatsOf calcola le statistiche dell'albero.
func StatsOf(tree *calltree.Tree) Stats {
	st := Stats{Owners: []string{}}
	if tree == nil || tree.IsEmpty() {
		return st
	}
	st.Nodes = tree.Size()
	st.Height = tree.Height()
	for _, d := range tree.Owners() {
		st.Owners = append(st.Owners, d.Owner)
	}
	return st
}

func convertNode(n *calltree.Node, opts ConvertOptions) *CallNode {
	d := n.Description()
	cn := &CallNode{
		Owner:       d.Owner,
		SimpleOwner: d.SimpleOwner,
		Name:        d.Name,
		ReturnType:  d.ReturnType,
		Params:      d.Params,
		Depth:       n.Depth(),
		Recursive:   n.IsRecursive(),
		Doc:         chain.CleanDoc(d.Doc),
	}
	if d.File != "" {
		cn.Position = &Position{File: d.File, Line: d.Line}
	}
	if attrs := d.Attrs(); len(attrs) > 0 {
		// il corpo parziale è ridondante con source
		if !opts.IncludeSource {
			delete(attrs, calltree.AttrSubBody)
		}
		cn.Attributes = attrs
	}
	if opts.IncludeSource {
		cn.Source = d.Source
	}
	for _, child := range n.Children() {
		cn.Children = append(cn.Children, convertNode(child, opts))
	}
	return cn
}
