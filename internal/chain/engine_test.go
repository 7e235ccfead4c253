package chain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codellm-devkit/callchain-go/internal/calltree"
)

func newTestEngine(opts ...Option) *Engine {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(fakeModel{}, append([]Option{WithLogger(quiet)}, opts...)...)
}

func TestAnalyze_LinearChain(t *testing.T) {
	save := method(typ("OrderRepository"), "save")
	save.params = []string{"Order"}
	create := method(typ("OrderService"), "create").body(
		call{target: save, caller: "repo", args: []string{"order"}},
	)
	place := method(typ("OrderController"), "place").body(
		call{target: create, caller: "orderService", args: []string{"order", "user"}},
	)

	tree := newTestEngine().Analyze(context.Background(), place)
	require.False(t, tree.IsEmpty())
	require.NoError(t, tree.Check())

	root := tree.Root()
	assert.Equal(t, "app.OrderController.place", root.Signature().String())
	assert.True(t, root.Description().Flag(calltree.AttrMethodInit))
	require.Len(t, root.Children(), 1)

	svc := root.Children()[0]
	d := svc.Description()
	assert.Equal(t, 1, svc.Depth())
	assert.Equal(t, "OrderService", d.SimpleOwner)
	assert.Equal(t, "orderService", d.Attr(calltree.AttrCaller))
	assert.Equal(t, "order, user", d.Attr(calltree.AttrParameters))
	assert.Equal(t, "false", d.Attr(calltree.AttrExternal))
	assert.Equal(t, "orderService.create(order, user);", d.Attr(calltree.AttrStatement))
	assert.Equal(t, "\n  orderService.create(order, user);", d.Attr(calltree.AttrSubBody))
	assert.Equal(t, "orderService.create(order, user)", d.Attr(calltree.AttrExpressionText))
	assert.Equal(t, "OrderService.java", d.File)

	require.Len(t, svc.Children(), 1)
	repo := svc.Children()[0]
	assert.Equal(t, "app.OrderRepository.save", repo.Signature().String())
	assert.Equal(t, "Order", repo.Signature().Params)
	assert.Equal(t, 2, repo.Depth())
	assert.Equal(t, 3, tree.Size())
}

func TestAnalyze_SubBodyAdvancesThroughStatements(t *testing.T) {
	a := method(typ("AService"), "a")
	b := method(typ("BService"), "b")
	entry := method(typ("MainController"), "run").body(
		call{target: a},
		call{target: b},
	)

	tree := newTestEngine().Analyze(context.Background(), entry)
	kids := tree.Root().Children()
	require.Len(t, kids, 2)
	assert.Equal(t, "\n  a();", kids[0].Description().Attr(calltree.AttrSubBody))
	assert.Equal(t, "\n  b();", kids[1].Description().Attr(calltree.AttrSubBody))
	assert.Less(t, kids[0].TraversalOffset(), kids[1].TraversalOffset())
}

func TestAnalyze_CycleIsRecordedOnce(t *testing.T) {
	a := method(typ("AService"), "a")
	b := method(typ("BService"), "b")
	c := method(typ("CService"), "c")
	a.body(call{target: b})
	b.body(call{target: c})
	c.body(call{target: a})

	tree := newTestEngine().Analyze(context.Background(), a)
	require.NoError(t, tree.Check())
	assert.Equal(t, 4, tree.Size())

	leaf := tree.Root().Children()[0].Children()[0].Children()[0]
	assert.Equal(t, "app.AService.a", leaf.Signature().String())
	assert.True(t, leaf.IsRecursive())
	assert.Empty(t, leaf.Children())
}

func TestAnalyze_SelfRecursion(t *testing.T) {
	walk := method(typ("TreeService"), "walk")
	walk.body(call{target: walk, caller: "this"})

	tree := newTestEngine().Analyze(context.Background(), walk)
	require.Len(t, tree.Root().Children(), 1)
	assert.True(t, tree.Root().Children()[0].IsRecursive())
	assert.Equal(t, 2, tree.Size())
}

func TestAnalyze_InterfaceDispatch(t *testing.T) {
	payType := iface("IPaymentService")
	pay := method(payType, "pay")
	pay.doc = "Charges the customer."

	card := method(typ("CardPaymentServiceImpl"), "pay")
	card.doc = "Card payments."
	wire := method(typ("WirePaymentServiceImpl"), "pay")
	ledger := method(typ("LedgerRepository"), "append")
	wire.body(call{target: ledger})
	// Unordered with a duplicate, as a parallel search may return them.
	pay.impls = []*fakeMethod{wire, card, wire}

	checkout := method(typ("CheckoutController"), "checkout").body(
		call{target: pay, caller: "payments"},
	)

	tree := newTestEngine().Analyze(context.Background(), checkout)
	require.NoError(t, tree.Check())

	marker := tree.Root().Children()[0]
	assert.Equal(t, "app.IPaymentService.pay", marker.Signature().String())
	assert.Equal(t, "Charges the customer.", marker.Description().Doc)
	require.Len(t, marker.Children(), 2)

	first, second := marker.Children()[0], marker.Children()[1]
	assert.Equal(t, "app.CardPaymentServiceImpl", first.Signature().Owner)
	assert.Equal(t, "app.WirePaymentServiceImpl", second.Signature().Owner)
	for _, impl := range marker.Children() {
		assert.True(t, impl.Description().Flag(calltree.AttrImplementation))
		assert.Equal(t, "app.IPaymentService.pay", impl.Description().Attr(calltree.AttrImplements))
		assert.Equal(t, 2, impl.Depth())
	}

	assert.Equal(t, "Card payments.", first.Description().Doc)
	assert.Equal(t, "Charges the customer.", second.Description().Doc, "doc falls back to the abstract method")
	require.Len(t, second.Children(), 1)
	assert.Equal(t, "app.LedgerRepository.append", second.Children()[0].Signature().String())
}

func TestAnalyze_AbstractEntry(t *testing.T) {
	run := method(iface("IJobService"), "run")
	impl := method(typ("JobServiceImpl"), "run")
	run.impls = []*fakeMethod{impl}

	tree := newTestEngine().Analyze(context.Background(), run)
	require.False(t, tree.IsEmpty())
	require.Len(t, tree.Root().Children(), 1)
	assert.True(t, tree.Root().Children()[0].Description().Flag(calltree.AttrImplementation))
}

func TestAnalyze_ImplementationOnAncestorPathIsSkipped(t *testing.T) {
	runType := iface("ITaskService")
	run := method(runType, "run")
	impl := method(typ("TaskServiceImpl"), "run")
	impl.body(call{target: run})
	run.impls = []*fakeMethod{impl}

	tree := newTestEngine().Analyze(context.Background(), impl)
	require.Len(t, tree.Root().Children(), 1)
	marker := tree.Root().Children()[0]
	assert.Equal(t, "app.ITaskService.run", marker.Signature().String())
	assert.Empty(t, marker.Children())
}

func TestAnalyze_ImplementationSearchErrorYieldsNoChildren(t *testing.T) {
	notify := method(iface("INotifyService"), "notify")
	notify.implErr = errors.New("index unavailable")
	entry := method(typ("AlertController"), "fire").body(call{target: notify})

	tree := newTestEngine().Analyze(context.Background(), entry)
	require.Len(t, tree.Root().Children(), 1)
	assert.Empty(t, tree.Root().Children()[0].Children())
}

func TestAnalyze_FiltersByName(t *testing.T) {
	fmtUtil := method(typ("StringUtils"), "trim")
	helper := method(typ("OrderServiceHelper"), "fill")
	plain := method(typ("Order"), "total")
	list := method(&fakeType{name: "List", qualified: "java.util.List"}, "add")
	builtin := method(&fakeType{name: "StringService", qualified: "strings.StringService", platform: true}, "x")
	kept := method(typ("OrderManager"), "keep")

	entry := method(typ("OrderController"), "place").body(
		call{target: fmtUtil},
		call{target: helper},
		call{target: plain},
		call{target: list},
		call{target: builtin},
		call{target: kept},
		call{target: nil},
	)

	tree := newTestEngine().Analyze(context.Background(), entry)
	require.Len(t, tree.Root().Children(), 1)
	assert.Equal(t, "app.OrderManager.keep", tree.Root().Children()[0].Signature().String())
}

func TestAnalyze_CustomClassifier(t *testing.T) {
	store := method(typ("Store"), "put")
	entry := method(typ("Handler"), "serve").body(call{target: store})

	tree := newTestEngine(WithClassifier(NewClassifier([]string{"Handler", "Store"}, []string{}, nil))).
		Analyze(context.Background(), entry)
	require.Len(t, tree.Root().Children(), 1)
}

func TestAnalyze_DepthLimit(t *testing.T) {
	steps := make([]*fakeMethod, 15)
	for i := range steps {
		steps[i] = method(typ(fmt.Sprintf("Step%dService", i)), "next")
	}
	for i := 0; i < len(steps)-1; i++ {
		steps[i].body(call{target: steps[i+1]})
	}

	tree := newTestEngine().Analyze(context.Background(), steps[0])
	require.NoError(t, tree.Check())
	assert.Equal(t, DefaultMaxDepth, tree.Height())
	assert.Equal(t, DefaultMaxDepth+1, tree.Size())

	var deepest *calltree.Node
	tree.Walk(func(n *calltree.Node) bool {
		if n.Depth() == DefaultMaxDepth {
			deepest = n
		}
		return true
	})
	require.NotNil(t, deepest)
	assert.Empty(t, deepest.Children())
	assert.Equal(t, "app.Step10Service.next", deepest.Signature().String())

	shallow := newTestEngine(WithMaxDepth(3)).Analyze(context.Background(), steps[0])
	assert.Equal(t, 3, shallow.Height())
}

func TestAnalyze_ExternalApiLeaf(t *testing.T) {
	remote := method(typ("PaymentApi"), "charge")
	remote.local = false
	remote.hasBody = true
	remote.body(call{target: method(typ("GatewayService"), "send")})

	other := method(typ("RemoteService"), "call")
	other.local = false

	entry := method(typ("BillingService"), "bill").body(
		call{target: remote, caller: "api", args: []string{"amount"}},
		call{target: other},
	)

	tree := newTestEngine().Analyze(context.Background(), entry)
	require.Len(t, tree.Root().Children(), 1)
	leaf := tree.Root().Children()[0]
	assert.Equal(t, "true", leaf.Description().Attr(calltree.AttrExternal))
	assert.Equal(t, "api", leaf.Description().Attr(calltree.AttrCaller))
	assert.Equal(t, "amount", leaf.Description().Attr(calltree.AttrParameters))
	assert.Empty(t, leaf.Description().Attr(calltree.AttrSubBody))
	assert.Empty(t, leaf.Children())
}

func TestAnalyze_MalformedEntryYieldsEmptyTree(t *testing.T) {
	e := newTestEngine()
	assert.True(t, e.Analyze(context.Background(), nil).IsEmpty())

	orphan := &fakeMethod{name: "lost", hasBody: true}
	assert.True(t, e.Analyze(context.Background(), orphan).IsEmpty())

	bodiless := method(typ("OrderService"), "create")
	bodiless.hasBody = false
	assert.True(t, e.Analyze(context.Background(), bodiless).IsEmpty())
}

func TestAnalyze_MaxNodes(t *testing.T) {
	var calls []call
	for i := 0; i < 5; i++ {
		calls = append(calls, call{target: method(typ(fmt.Sprintf("Fan%dService", i)), "go")})
	}
	entry := method(typ("FanController"), "start").body(calls...)

	tree := newTestEngine(WithMaxNodes(3)).Analyze(context.Background(), entry)
	assert.Equal(t, 3, tree.Size())

	unlimited := newTestEngine(WithMaxNodes(0)).Analyze(context.Background(), entry)
	assert.Equal(t, 6, unlimited.Size())
}

func TestAnalyze_CancelledContext(t *testing.T) {
	next := method(typ("NextService"), "go")
	entry := method(typ("StartController"), "go").body(call{target: next})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tree := newTestEngine().Analyze(ctx, entry)
	assert.Equal(t, 1, tree.Size())
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	build := func() *fakeMethod {
		p := iface("IPriceService")
		quote := method(p, "quote")
		quote.impls = []*fakeMethod{
			method(typ("ZPriceServiceImpl"), "quote"),
			method(typ("APriceServiceImpl"), "quote"),
			method(typ("MPriceServiceImpl"), "quote"),
		}
		return method(typ("PriceController"), "get").body(call{target: quote})
	}

	signatures := func(tree *calltree.Tree) []string {
		var out []string
		tree.Walk(func(n *calltree.Node) bool {
			out = append(out, n.Signature().String())
			return true
		})
		return out
	}

	first := signatures(newTestEngine().Analyze(context.Background(), build()))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, signatures(newTestEngine().Analyze(context.Background(), build())))
	}
	assert.Equal(t, "app.APriceServiceImpl.quote", first[2])
}
