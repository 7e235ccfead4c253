package calltree

import "fmt"

// Node è un frame dell'albero delle chiamate.
type Node struct {
	desc      *Description
	parent    *Node
	children  []*Node
	depth     int
	recursive bool
	offset    int
}

// Description restituisce il payload del nodo; nil solo per la radice di un albero vuoto.
func (n *Node) Description() *Description { return n.desc }

// Parent restituisce il nodo chiamante, nil per la radice.
func (n *Node) Parent() *Node { return n.parent }

// Children restituisce i figli in ordine di registrazione.
func (n *Node) Children() []*Node { return n.children }

// Depth restituisce la profondità (0 per la radice).
func (n *Node) Depth() int { return n.depth }

// IsRecursive riporta se il metodo del nodo compare già tra i suoi antenati.
func (n *Node) IsRecursive() bool { return n.recursive }

// TraversalOffset è l'offset, nel sorgente del chiamante, di fine dello statement che contiene la chiamata.
func (n *Node) TraversalOffset() int { return n.offset }

// SetTraversalOffset registra l'offset di attraversamento.
func (n *Node) SetTraversalOffset(off int) { n.offset = off }

// Signature restituisce la firma del nodo (zero value per l'albero vuoto).
func (n *Node) Signature() Signature {
	if n.desc == nil {
		return Signature{}
	}
	return n.desc.Signature
}

// Tree possiede tutti i nodi a partire dalla radice.
type Tree struct {
	root *Node
}

// New crea un albero la cui radice descrive il metodo di ingresso.
func New(root *Description) *Tree {
	return &Tree{root: &Node{desc: root}}
}

// Empty crea un albero con una radice senza descrizione.
func Empty() *Tree {
	return &Tree{root: &Node{}}
}

// Root restituisce la radice.
func (t *Tree) Root() *Node { return t.root }

// IsEmpty riporta se la radice non ha descrizione.
func (t *Tree) IsEmpty() bool { return t.root == nil || t.root.desc == nil }

// IsRecursive cerca sig nella catena di antenati a partire da at (incluso).
func (t *Tree) IsRecursive(at *Node, sig Signature) bool {
	for cur := at; cur != nil; cur = cur.parent {
		if cur.desc != nil && cur.desc.Signature == sig {
			return true
		}
	}
	return false
}

// RecordCall aggiunge un figlio a parent. Se il metodo compare tra gli antenati il nodo
// viene marcato ricorsivo e il chiamante non deve espanderlo.
func (t *Tree) RecordCall(parent *Node, desc *Description) *Node {
	child := &Node{
		desc:   desc,
		parent: parent,
		depth:  parent.depth + 1,
	}
	if desc != nil && t.IsRecursive(parent, desc.Signature) {
		child.recursive = true
	}
	parent.children = append(parent.children, child)
	return child
}

// Walk visita l'albero in preordine; se fn restituisce false i figli del nodo non vengono visitati.
func (t *Tree) Walk(fn func(*Node) bool) {
	var visit func(n *Node)
	visit = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.children {
			visit(c)
		}
	}
	if t.root != nil {
		visit(t.root)
	}
}

// Size conta i nodi con descrizione.
func (t *Tree) Size() int {
	n := 0
	t.Walk(func(node *Node) bool {
		if node.desc != nil {
			n++
		}
		return true
	})
	return n
}

// Height restituisce la profondità massima raggiunta.
func (t *Tree) Height() int {
	h := 0
	t.Walk(func(node *Node) bool {
		if node.depth > h {
			h = node.depth
		}
		return true
	})
	return h
}

// Owners restituisce i tipi proprietari distinti in preordine.
func (t *Tree) Owners() []*Description {
	seen := map[string]struct{}{}
	var out []*Description
	t.Walk(func(node *Node) bool {
		if node.desc == nil {
			return true
		}
		if _, ok := seen[node.desc.Owner]; !ok {
			seen[node.desc.Owner] = struct{}{}
			out = append(out, node.desc)
		}
		return true
	})
	return out
}

// Check verifica gli invarianti di profondità e di foglia ricorsiva.
func (t *Tree) Check() error {
	var err error
	t.Walk(func(n *Node) bool {
		if err != nil {
			return false
		}
		if n.parent == nil && n.depth != 0 {
			err = fmt.Errorf("root depth is %d", n.depth)
		}
		if n.parent != nil && n.depth != n.parent.depth+1 {
			err = fmt.Errorf("node %s: depth %d, parent depth %d", n.Signature(), n.depth, n.parent.depth)
		}
		if n.recursive && len(n.children) > 0 {
			err = fmt.Errorf("recursive node %s has %d children", n.Signature(), len(n.children))
		}
		return true
	})
	return err
}
