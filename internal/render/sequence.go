package render

import (
	"fmt"
	"strings"

	"github.com/codellm-devkit/callchain-go/internal/calltree"
	"github.com/codellm-devkit/callchain-go/internal/chain"
)

const actor = "Actor"

var sequenceSkin = []string{
	"skinparam sequenceArrowThickness 2",
	"skinparam sequenceParticipantBorderThickness 1",
	"skinparam sequenceLifeLineBorderColor gray",
	"skinparam sequenceParticipantFontStyle bold",
	"skinparam noteBackgroundColor #FFFFCC",
}

// Sequence renders tree as a PlantUML sequence diagram.
// An empty tree yields a document with only the start and end markers.
func (r Renderer) Sequence(tree *calltree.Tree) string {
	var b strings.Builder
	b.WriteString("@startuml\n")
	if tree == nil || tree.IsEmpty() {
		b.WriteString("@enduml\n")
		return b.String()
	}

	root := tree.Root().Description()
	if r.Title {
		fmt.Fprintf(&b, "title Call chain: %s.%s\n\n", root.SimpleOwner, root.Name)
	}
	for _, line := range sequenceSkin {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "actor %s\n", actor)
	for _, d := range tree.Owners() {
		fmt.Fprintf(&b, "participant %s as %s", quote(d.SimpleOwner), alias(d.Owner))
		if c := roleColor(d.SimpleOwner); c != "" {
			b.WriteString(" " + c)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	r.message(&b, tree.Root(), 0)

	if r.Legend {
		b.WriteString("\nlegend right\n")
		b.WriteString("  |= Role |= Colour |\n")
		b.WriteString("  | Service / Manager | " + colorService + " |\n")
		b.WriteString("  | Controller / Api | " + colorController + " |\n")
		b.WriteString("  | Repository / Dao | " + colorRepository + " |\n")
		b.WriteString("  | Implementation | " + colorImpl + " |\n")
		b.WriteString("endlegend\n")
	}
	b.WriteString("@enduml\n")
	return b.String()
}

// sender is the participant that issues the call recorded in n.
func sender(n *calltree.Node) string {
	if n.Parent() == nil {
		return actor
	}
	switch caller := n.Description().Attr(calltree.AttrCaller); caller {
	case "", "this", "super":
		return alias(n.Parent().Signature().Owner)
	default:
		return quote(oneLine(caller))
	}
}

func (r Renderer) message(b *strings.Builder, n *calltree.Node, level int) {
	d := n.Description()
	if d == nil {
		return
	}
	pad := indent(level)
	from := sender(n)
	target := alias(d.Owner)

	fmt.Fprintf(b, "%s%s -> %s: %s(%s)\n", pad, from, target, d.Name, params(n))

	if doc := chain.CleanDoc(d.Doc); doc != "" {
		fmt.Fprintf(b, "%snote right\n%s  %s\n%send note\n", pad, pad, doc, pad)
	}
	if d.Flag(calltree.AttrImplementation) {
		fmt.Fprintf(b, "%snote right of %s %s: implements %s\n", pad, target, colorImpl, d.Attr(calltree.AttrImplements))
	}
	if d.Flag(calltree.AttrExternal) {
		fmt.Fprintf(b, "%snote right of %s %s: external API\n", pad, target, colorController)
	}
	if stmt := d.Attr(calltree.AttrStatement); r.Statements && stmt != "" && len(stmt) < maxStatementNote {
		stmt = strings.ReplaceAll(strings.TrimSpace(stmt), "\n", `\n`)
		fmt.Fprintf(b, "%snote right\n%s  exec: %s\n%send note\n", pad, pad, stmt, pad)
	}
	if n.IsRecursive() {
		fmt.Fprintf(b, "%snote right of %s %s: recursive call\n", pad, target, colorRecursive)
	}

	fmt.Fprintf(b, "%sactivate %s\n", pad, target)
	for _, child := range n.Children() {
		r.message(b, child, level+1)
	}
	fmt.Fprintf(b, "%sdeactivate %s\n", pad, target)

	if !d.IsVoid() {
		fmt.Fprintf(b, "%s%s --> %s: %s\n", pad, target, from, d.ReturnType)
	}
}
