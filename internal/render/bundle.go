package render

import (
	"fmt"
	"strings"

	"github.com/codellm-devkit/callchain-go/internal/calltree"
)

// SourceBundle concatenates the source of every method in the chain, each method once,
// in preorder. Recursive re-entries and methods without source are left out.
func SourceBundle(tree *calltree.Tree) string {
	if tree == nil || tree.IsEmpty() {
		return ""
	}
	var b strings.Builder
	seen := map[string]struct{}{}
	tree.Walk(func(n *calltree.Node) bool {
		d := n.Description()
		if d == nil || n.IsRecursive() {
			return true
		}
		id := d.MethodID()
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(d.Source) == "" {
			return true
		}
		fmt.Fprintf(&b, "// Class: %s\n", d.Owner)
		fmt.Fprintf(&b, "// Method: %s\n", d.Name)
		fmt.Fprintf(&b, "// token: %s\n", id)
		b.WriteString(strings.TrimRight(d.Source, "\n"))
		b.WriteString("\n\n")
		return true
	})
	return b.String()
}
