package gosource

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codellm-devkit/callchain-go/internal/calltree"
	"github.com/codellm-devkit/callchain-go/internal/chain"
)

const shopPkg = "example.com/sampleapp/shop"

var (
	sampleOnce sync.Once
	sampleProg *Program
	sampleErr  error
)

func sampleRoot(t *testing.T) string {
	t.Helper()
	_, file, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "sampleapp"))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadSample loads the sample application once for the whole package.
func loadSample(t *testing.T) *Program {
	t.Helper()
	root := sampleRoot(t)
	sampleOnce.Do(func() {
		sampleProg, sampleErr = Load(context.Background(), root, Options{Logger: quietLogger()})
	})
	require.NoError(t, sampleErr)
	return sampleProg
}

func children(n *calltree.Node) []string {
	var out []string
	for _, c := range n.Children() {
		out = append(out, strings.TrimPrefix(c.Signature().String(), shopPkg+"."))
	}
	return out
}

func TestFindMethod(t *testing.T) {
	p := loadSample(t)

	for _, ref := range []string{
		"OrderController.Place",
		"shop.OrderController.Place",
		shopPkg + ".OrderController.Place",
	} {
		m, err := p.FindMethod(ref)
		require.NoError(t, err, ref)
		assert.Equal(t, "Place", p.MethodName(m))
	}

	m, err := p.FindMethod("shop.NewOrderController")
	require.NoError(t, err)
	owner, ok := p.ContainingType(m)
	require.True(t, ok)
	assert.Equal(t, "shop", owner.Name())
	assert.Equal(t, shopPkg, owner.QualifiedName())

	_, err = p.FindMethod("OrderController.Missing")
	assert.True(t, errors.Is(err, chain.ErrMethodNotFound))
	_, err = p.FindMethod("Place")
	assert.True(t, errors.Is(err, chain.ErrMethodNotFound))
}

func TestMethods(t *testing.T) {
	p := loadSample(t)
	refs := map[string]bool{}
	for _, m := range p.Methods() {
		refs[m.Ref] = m.Abstract
		if m.Ref == "shop.OrderController.Place" {
			assert.Equal(t, "func (c *OrderController) Place(Order) (int64, error)", m.Signature)
			assert.Equal(t, "shop/controller.go", m.Position.File)
		}
		if m.Ref == "shop.OrderService.Create" {
			assert.Equal(t, "Create(o Order) (int64, error)", m.Signature)
		}
	}
	assert.Contains(t, refs, "main.main")
	assert.Contains(t, refs, "payment.PaymentApi.Charge")
	assert.True(t, refs["shop.OrderService.Create"])
	assert.False(t, refs["shop.OrderServiceImpl.Create"])
}

func TestModel_MethodDetails(t *testing.T) {
	p := loadSample(t)
	m, err := p.FindMethod("OrderController.Place")
	require.NoError(t, err)

	src := p.SourceText(m)
	assert.True(t, strings.HasPrefix(src, "func (c *OrderController) Place(o Order) (int64, error) {"))
	start, end, ok := p.BodyRange(m)
	require.True(t, ok)
	assert.Equal(t, "{", src[start:start+1])
	assert.Equal(t, len(src), end)

	assert.Equal(t, "Place validates and submits an order.", p.DocComment(m))
	assert.Equal(t, "(int64, error)", p.ReturnType(m))
	assert.Equal(t, []string{"shop.Order"}, p.ParamTypes(m))
	assert.Equal(t, chain.Position{File: "shop/controller.go", Line: 26}, p.Position(m))

	var targets []string
	for _, c := range p.CallExpressionsIn(m) {
		target, ok := p.ResolveTarget(c)
		require.True(t, ok)
		targets = append(targets, p.MethodName(target))
	}
	assert.Equal(t, []string{"Normalize", "New", "Create", "Sprintf", "Record"}, targets)
}

func TestModel_Classification(t *testing.T) {
	p := loadSample(t)
	m, err := p.FindMethod("OrderController.Place")
	require.NoError(t, err)

	calls := p.CallExpressionsIn(m)
	errorsNew, _ := p.ResolveTarget(calls[1])
	owner, ok := p.ContainingType(errorsNew)
	require.True(t, ok)
	assert.True(t, p.IsPlatform(owner))
	assert.False(t, p.IsLocal(errorsNew))

	create, _ := p.ResolveTarget(calls[2])
	owner, ok = p.ContainingType(create)
	require.True(t, ok)
	assert.Equal(t, "OrderService", owner.Name())
	assert.True(t, p.IsAbstractOrInterface(owner))
	assert.False(t, p.IsPlatform(owner))
	assert.True(t, p.IsLocal(create))

	assert.Equal(t, "c.svc", p.QualifierText(calls[2]))
	assert.Equal(t, []string{"o"}, p.ArgumentTexts(calls[2]))
	assert.Equal(t, "c.svc.Create(o)", p.ExpressionText(calls[2]))

	impls, err := p.FindImplementations(context.Background(), create)
	require.NoError(t, err)
	var names []string
	for _, impl := range impls {
		o, _ := p.ContainingType(impl)
		names = append(names, o.Name())
	}
	assert.ElementsMatch(t, []string{"OrderServiceImpl", "CachedOrderServiceImpl"}, names)
}

func TestAnalyze_PlaceOrder(t *testing.T) {
	p := loadSample(t)
	entry, err := p.FindMethod("OrderController.Place")
	require.NoError(t, err)

	tree := chain.NewEngine(p, chain.WithLogger(quietLogger())).Analyze(context.Background(), entry)
	require.False(t, tree.IsEmpty())
	require.NoError(t, tree.Check())

	root := tree.Root()
	assert.Equal(t, []string{"OrderService.Create", "AuditManager.Record"}, children(root))

	marker := root.Children()[0]
	md := marker.Description()
	assert.Equal(t, "c.svc", md.Attr(calltree.AttrCaller))
	assert.Equal(t, "o", md.Attr(calltree.AttrParameters))
	assert.Equal(t, "id, err := c.svc.Create(o)", md.Attr(calltree.AttrStatement))
	assert.Equal(t, "(int64, error)", md.ReturnType)
	assert.Equal(t, "shop.Order", md.Params)
	assert.Equal(t, []string{"CachedOrderServiceImpl.Create", "OrderServiceImpl.Create"}, children(marker))

	cached := marker.Children()[0]
	assert.True(t, cached.Description().Flag(calltree.AttrImplementation))
	assert.Equal(t, shopPkg+".OrderService.Create", cached.Description().Attr(calltree.AttrImplements))
	assert.Equal(t, "Create persists the order and returns its id.", cached.Description().Doc)
	require.Len(t, cached.Children(), 1)
	assert.True(t, cached.Children()[0].IsRecursive())

	impl := marker.Children()[1]
	assert.Equal(t, []string{"StockManager.Reserve", "example.com/sampleapp/payment.PaymentApi.Charge", "OrderRepository.Save"}, children(impl))
	reserve := impl.Children()[0]
	assert.Equal(t, "err := s.stock.Reserve(o.Item, o.Qty)", reserve.Description().Attr(calltree.AttrStatement))
	assert.Equal(t, []string{"StockManager.Rebalance"}, children(reserve))
	again := reserve.Children()[0].Children()
	require.Len(t, again, 1)
	assert.True(t, again[0].IsRecursive())

	record := root.Children()[1]
	assert.Equal(t, `fmt.Sprintf("order %d", id)`, record.Description().Attr(calltree.AttrParameters))
	assert.Equal(t, "false", record.Description().Attr(calltree.AttrExternal))
}

func TestAnalyze_ExcludedPackageBecomesExternal(t *testing.T) {
	p, err := Load(context.Background(), sampleRoot(t), Options{ExcludeDirs: []string{"payment"}, Logger: quietLogger()})
	require.NoError(t, err)
	entry, err := p.FindMethod("OrderServiceImpl.Create")
	require.NoError(t, err)

	tree := chain.NewEngine(p, chain.WithLogger(quietLogger())).Analyze(context.Background(), entry)
	var charge *calltree.Node
	for _, c := range tree.Root().Children() {
		if c.Signature().Name == "Charge" {
			charge = c
		}
	}
	require.NotNil(t, charge)
	assert.True(t, charge.Description().Flag(calltree.AttrExternal))
	assert.Empty(t, charge.Children())
	assert.Empty(t, charge.Description().Source)
}

func TestAnalyze_DepthLimit(t *testing.T) {
	p := loadSample(t)
	entry, err := p.FindMethod("PipelineService.Stage01")
	require.NoError(t, err)

	tree := chain.NewEngine(p, chain.WithLogger(quietLogger())).Analyze(context.Background(), entry)
	assert.Equal(t, chain.DefaultMaxDepth, tree.Height())
	assert.Equal(t, chain.DefaultMaxDepth+1, tree.Size())
}

func TestLoad_NoPackages(t *testing.T) {
	_, err := Load(context.Background(), sampleRoot(t), Options{OnlyPkg: []string{"does-not-exist"}, Logger: quietLogger()})
	assert.True(t, errors.Is(err, chain.ErrNoPackages))
}
