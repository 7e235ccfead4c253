package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codellm-devkit/callchain-go/internal/calltree"
)

func TestFromTree(t *testing.T) {
	root := calltree.NewDescription(calltree.Signature{Owner: "app.OrderController", Name: "place", ReturnType: "void"}, "")
	root.File, root.Line = "order.go", 12
	root.Doc = "// Place submits an order."
	root.Source = "func (c *OrderController) Place() {}"
	tree := calltree.New(root)
	child := calltree.NewDescription(calltree.Signature{Owner: "app.OrderService", Name: "create", ReturnType: "error"}, "")
	child.Set(calltree.AttrCaller, "c.svc")
	child.Set(calltree.AttrSubBody, "\n\tc.svc.Create()")
	tree.RecordCall(tree.Root(), child)

	cn := FromTree(tree, ConvertOptions{})
	require.NotNil(t, cn)
	assert.Equal(t, "OrderController", cn.SimpleOwner)
	assert.Equal(t, "Place submits an order.", cn.Doc)
	assert.Equal(t, &Position{File: "order.go", Line: 12}, cn.Position)
	assert.Empty(t, cn.Source)
	require.Len(t, cn.Children, 1)
	assert.Equal(t, 1, cn.Children[0].Depth)
	assert.Equal(t, map[string]string{calltree.AttrCaller: "c.svc"}, cn.Children[0].Attributes)

	full := FromTree(tree, ConvertOptions{IncludeSource: true})
	assert.Equal(t, root.Source, full.Source)
	assert.Contains(t, full.Children[0].Attributes, calltree.AttrSubBody)

	st := StatsOf(tree)
	assert.Equal(t, Stats{Nodes: 2, Height: 1, Owners: []string{"app.OrderController", "app.OrderService"}}, st)
}

func TestFromTree_Empty(t *testing.T) {
	assert.Nil(t, FromTree(calltree.Empty(), ConvertOptions{}))

	doc := Analysis{Stats: StatsOf(calltree.Empty()), Issues: []Issue{}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tree":null`)
	assert.Contains(t, string(data), `"owners":[]`)
}
