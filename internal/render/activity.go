package render

import (
	"fmt"
	"strings"

	"github.com/codellm-devkit/callchain-go/internal/calltree"
	"github.com/codellm-devkit/callchain-go/internal/chain"
)

// Activity renders tree as a PlantUML activity diagram with one swimlane per owner type.
func (r Renderer) Activity(tree *calltree.Tree) string {
	var b strings.Builder
	b.WriteString("@startuml\n")
	if tree == nil || tree.IsEmpty() {
		b.WriteString("start\nstop\n@enduml\n")
		return b.String()
	}

	root := tree.Root()
	d := root.Description()
	if r.Title {
		fmt.Fprintf(&b, "title Call flow: %s.%s\n\n", d.SimpleOwner, d.Name)
	}
	a := &activity{b: &b, lane: d.SimpleOwner}
	fmt.Fprintf(&b, "|%s|\n", a.lane)
	b.WriteString("start\n")
	a.action(root, 0)
	a.children(root, 0)
	if a.lane != d.SimpleOwner {
		a.switchLane(d.SimpleOwner, 0)
	}
	b.WriteString("stop\n@enduml\n")
	return b.String()
}

// label is the text of an action. A ";" would end the action early, so none is kept.
func label(n *calltree.Node) string {
	d := n.Description()
	text := fmt.Sprintf("%s.%s(%s)", d.SimpleOwner, d.Name, params(n))
	return strings.ReplaceAll(text, ";", "")
}

type activity struct {
	b    *strings.Builder
	lane string
}

func (a *activity) switchLane(lane string, level int) {
	fmt.Fprintf(a.b, "%s|%s|\n", indent(level), lane)
	a.lane = lane
}

func (a *activity) children(n *calltree.Node, level int) {
	parentLane := n.Description().SimpleOwner
	for _, child := range n.Children() {
		d := child.Description()
		if d.SimpleOwner != a.lane {
			a.switchLane(d.SimpleOwner, level+1)
		}
		if child.IsRecursive() {
			fmt.Fprintf(a.b, "%s%s:%s;\n", indent(level+1), colorRecursive, label(child))
			fmt.Fprintf(a.b, "%snote right: recursive call\n", indent(level+1))
			fmt.Fprintf(a.b, "%sdetach\n", indent(level+1))
		} else {
			a.action(child, level+1)
			a.children(child, level+1)
		}
		if a.lane != parentLane {
			a.switchLane(parentLane, level+1)
		}
	}
}

func (a *activity) action(n *calltree.Node, level int) {
	d := n.Description()
	pad := indent(level)
	fmt.Fprintf(a.b, "%s:%s;\n", pad, label(n))

	note := strings.TrimSpace(d.Attr(calltree.AttrSubBody))
	if note == "" {
		note = chain.CleanDoc(d.Doc)
	}
	if note == "" {
		return
	}
	fmt.Fprintf(a.b, "%snote right\n", pad)
	for _, line := range strings.Split(note, "\n") {
		fmt.Fprintf(a.b, "%s  %s\n", pad, strings.TrimSpace(line))
	}
	fmt.Fprintf(a.b, "%send note\n", pad)
}
