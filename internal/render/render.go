// Package render serializes call trees as PlantUML text and source bundles.
package render

import (
	"strings"

	"github.com/codellm-devkit/callchain-go/internal/calltree"
)

// Renderer holds the optional parts of the generated diagrams.
type Renderer struct {
	// Title adds a "title" line naming the entry method.
	Title bool
	// Legend adds the participant colour legend to sequence diagrams.
	Legend bool
	// Statements adds a note with the short source statement of each call.
	Statements bool
}

// DefaultRenderer enables every optional part.
func DefaultRenderer() Renderer {
	return Renderer{Title: true, Legend: true, Statements: true}
}

// Participant colours by role, guessed from the simple type name.
const (
	colorService    = "#LightBlue"
	colorController = "#LightGreen"
	colorRepository = "#LightYellow"
	colorImpl       = "#LightGray"
	colorRecursive  = "#Pink"
)

// maxStatementNote bounds the statements rendered as notes.
const maxStatementNote = 100

func roleColor(simple string) string {
	switch {
	case strings.Contains(simple, "Service") || strings.Contains(simple, "Manager"):
		return colorService
	case strings.Contains(simple, "Controller") || strings.Contains(simple, "Api"):
		return colorController
	case strings.Contains(simple, "Repository") || strings.Contains(simple, "Dao"):
		return colorRepository
	case strings.Contains(simple, "Impl"):
		return colorImpl
	}
	return ""
}

// alias turns a qualified owner name into a PlantUML identifier.
func alias(qualified string) string {
	var b strings.Builder
	for _, r := range qualified {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `'`) + `"`
}

// params returns the argument text of a call on a single line. The root and implementation
// nodes have no call site and use the declared parameter types.
func params(n *calltree.Node) string {
	d := n.Description()
	if n.Parent() == nil || d.Flag(calltree.AttrMethodInit) {
		return d.Params
	}
	if args := d.Attr(calltree.AttrParameters); args != "" {
		return oneLine(args)
	}
	if d.Flag(calltree.AttrImplementation) {
		return d.Params
	}
	return ""
}

// oneLine collapses every run of whitespace, newlines included, into a single space.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func indent(level int) string {
	return strings.Repeat("    ", level)
}
