package chain

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/codellm-devkit/callchain-go/internal/calltree"
)

// DefaultMaxDepth is the depth at which nodes are recorded but no longer expanded.
const DefaultMaxDepth = 10

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets the expansion depth limit. Non-positive values are ignored.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithMaxNodes caps the number of recorded nodes per analysis; 0 disables the cap.
func WithMaxNodes(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxNodes = n
		}
	}
}

// WithClassifier replaces the default name patterns.
func WithClassifier(c *Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithLogger sets the logger used for traversal diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine walks a SourceModel from an entry method and records a call tree.
//
// An Engine holds no per-analysis state and may be shared by concurrent Analyze calls.
type Engine struct {
	model      SourceModel
	maxDepth   int
	maxNodes   int
	classifier *Classifier
	log        *slog.Logger
}

// NewEngine creates an Engine over model.
func NewEngine(model SourceModel, opts ...Option) *Engine {
	e := &Engine{
		model:      model,
		maxDepth:   DefaultMaxDepth,
		classifier: DefaultClassifier(),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxDepth returns the configured depth limit.
func (e *Engine) MaxDepth() int { return e.maxDepth }

// Analyze builds the call tree rooted at entry. It never fails: unresolvable
// references are skipped and malformed entries yield an empty tree.
// Cancelling ctx stops further expansion and returns what was recorded so far.
func (e *Engine) Analyze(ctx context.Context, entry Method) *calltree.Tree {
	if entry == nil || e.model == nil {
		return calltree.Empty()
	}
	owner, ok := e.model.ContainingType(entry)
	if !ok || owner == nil {
		e.log.Debug("entry method has no owning type")
		return calltree.Empty()
	}
	abstract := e.model.IsAbstractOrInterface(owner)
	if !abstract {
		if _, _, ok := e.model.BodyRange(entry); !ok {
			e.log.Debug("entry method has no body", slog.String("owner", owner.QualifiedName()))
			return calltree.Empty()
		}
	}

	r := &run{
		e:     e,
		model: e.model,
		impls: map[calltree.Signature]Method{},
	}
	root := r.describe(entry, owner)
	root.Set(calltree.AttrMethodInit, "true")
	r.tree = calltree.New(root)
	r.nodes = 1

	e.log.Info("starting call chain analysis", slog.String("method", root.Signature.String()))
	r.expand(ctx, r.tree.Root(), entry, owner)
	e.log.Debug("call chain analysis done",
		slog.Int("nodes", r.tree.Size()),
		slog.Int("height", r.tree.Height()))
	return r.tree
}

// run holds the state of a single analysis.
type run struct {
	e         *Engine
	model     SourceModel
	tree      *calltree.Tree
	impls     map[calltree.Signature]Method // implementation -> abstract method
	nodes     int
	truncated bool
}

func (r *run) expand(ctx context.Context, n *calltree.Node, m Method, owner Type) {
	if ctx.Err() != nil {
		return
	}
	if n.IsRecursive() {
		r.e.log.Debug("recursive call, not expanding", slog.String("method", n.Signature().String()))
		return
	}
	if n.Depth() >= r.e.maxDepth {
		r.e.log.Debug("maximum depth reached", slog.String("method", n.Signature().String()))
		return
	}
	if r.model.IsAbstractOrInterface(owner) {
		r.expandImplementations(ctx, n, m)
		return
	}
	r.walkBody(ctx, n, m)
}

type implementation struct {
	method Method
	owner  Type
	sig    calltree.Signature
}

func (r *run) expandImplementations(ctx context.Context, n *calltree.Node, abstract Method) {
	found, err := r.model.FindImplementations(ctx, abstract)
	if err != nil {
		r.e.log.Warn("implementation search failed",
			slog.String("method", n.Signature().String()),
			slog.String("error", err.Error()))
		return
	}

	// Results may come from a parallel search: dedupe and sort before attaching.
	seen := map[calltree.Signature]struct{}{}
	impls := make([]implementation, 0, len(found))
	for _, m := range found {
		if m == nil {
			continue
		}
		owner, ok := r.model.ContainingType(m)
		if !ok || owner == nil {
			continue
		}
		sig := r.signature(m, owner)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		impls = append(impls, implementation{method: m, owner: owner, sig: sig})
	}
	sort.Slice(impls, func(i, j int) bool {
		a, b := impls[i].sig, impls[j].sig
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Params < b.Params
	})

	implements := n.Signature().String()
	for _, impl := range impls {
		if r.tree.IsRecursive(n, impl.sig) {
			continue
		}
		r.impls[impl.sig] = abstract
		if !r.reserve() {
			return
		}
		r.e.log.Debug("found implementation",
			slog.String("implements", implements),
			slog.String("owner", impl.sig.Owner))
		d := r.describe(impl.method, impl.owner)
		d.Set(calltree.AttrImplementation, "true")
		d.Set(calltree.AttrImplements, implements)
		child := r.tree.RecordCall(n, d)
		r.expand(ctx, child, impl.method, impl.owner)
	}
}

func (r *run) walkBody(ctx context.Context, n *calltree.Node, m Method) {
	bodyStart, _, ok := r.model.BodyRange(m)
	if !ok {
		return
	}
	src := r.model.SourceText(m)
	offset := bodyStart
	r.e.log.Debug("visiting method", slog.String("method", n.Signature().String()))

	for _, call := range r.model.CallExpressionsIn(m) {
		if ctx.Err() != nil {
			return
		}
		target, ok := r.model.ResolveTarget(call)
		if !ok || target == nil {
			continue
		}
		owner, ok := r.model.ContainingType(target)
		if !ok || owner == nil {
			continue
		}
		if r.model.IsPlatform(owner) || r.e.classifier.IsPlatformName(owner.QualifiedName()) {
			continue
		}
		if r.e.classifier.Classify(owner.Name()) != Include {
			continue
		}

		switch {
		case r.model.IsLocal(target):
			stmtStart, stmtEnd, ok := r.model.EnclosingStatementRange(call)
			if !ok {
				continue
			}
			d := r.describe(target, owner)
			r.annotateCall(d, call)
			d.Set(calltree.AttrExternal, "false")
			d.Set(calltree.AttrStatement, slice(src, stmtStart, stmtEnd))
			d.Set(calltree.AttrSubBody, slice(src, offset, stmtEnd))
			if stmtEnd > offset {
				offset = stmtEnd
			}
			if !r.reserve() {
				return
			}
			child := r.tree.RecordCall(n, d)
			child.SetTraversalOffset(stmtEnd)
			r.expand(ctx, child, target, owner)

		case IsExternalName(owner.Name()):
			d := r.describe(target, owner)
			r.annotateCall(d, call)
			d.Set(calltree.AttrExternal, "true")
			if !r.reserve() {
				return
			}
			r.tree.RecordCall(n, d)
		}
	}
}

func (r *run) annotateCall(d *calltree.Description, call CallExpr) {
	if caller := r.model.QualifierText(call); caller != "" {
		d.Set(calltree.AttrCaller, caller)
	}
	d.Set(calltree.AttrParameters, strings.Join(r.model.ArgumentTexts(call), ", "))
	if text := r.model.ExpressionText(call); text != "" {
		d.Set(calltree.AttrExpressionText, text)
	}
}

func (r *run) reserve() bool {
	if r.e.maxNodes > 0 && r.nodes >= r.e.maxNodes {
		if !r.truncated {
			r.e.log.Warn("node limit reached, truncating call tree", slog.Int("max_nodes", r.e.maxNodes))
			r.truncated = true
		}
		return false
	}
	r.nodes++
	return true
}

func (r *run) signature(m Method, owner Type) calltree.Signature {
	return calltree.Signature{
		Owner:      owner.QualifiedName(),
		Name:       r.model.MethodName(m),
		ReturnType: r.model.ReturnType(m),
		Params:     strings.Join(r.model.ParamTypes(m), ", "),
	}
}

func (r *run) describe(m Method, owner Type) *calltree.Description {
	sig := r.signature(m, owner)
	d := calltree.NewDescription(sig, owner.Name())
	d.Source = r.model.SourceText(m)
	d.Doc = r.model.DocComment(m)
	if d.Doc == "" {
		if abstract, ok := r.impls[sig]; ok {
			d.Doc = r.model.DocComment(abstract)
		}
	}
	pos := r.model.Position(m)
	d.File, d.Line = pos.File, pos.Line
	return d
}

// slice returns src[start:end] clamped to valid bounds.
func slice(src string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(src) {
		end = len(src)
	}
	if start >= end {
		return ""
	}
	return src[start:end]
}
