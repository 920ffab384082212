package distill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easy-dataset/easy-dataset/pkg/types"
)

func tag(id, parent, label string) types.Tag {
	return types.Tag{ID: id, ProjectID: "p1", ParentID: types.NewParentID(parent), Label: label}
}

func TestTree(t *testing.T) {
	// 子节点排在父节点之前
	tree := NewTree([]types.Tag{
		tag("c2", "r1", "1.2 Models"),
		tag("c1", "r1", "1.1 Brands"),
		tag("r1", "", "1 Cars"),
		tag("r2", "", "2 Planes"),
	})

	assert.Equal(t, 4, tree.Len())
	assert.Equal(t, []string{"1 Cars", "2 Planes"}, labels(tree.Children("")))
	assert.Equal(t, []string{"1.1 Brands", "1.2 Models"}, labels(tree.Children("r1")))
	assert.Equal(t, 1, tree.Depth("r1"))
	assert.Equal(t, 2, tree.Depth("c2"))
	assert.Equal(t, "1 Cars > 1.2 Models", tree.Path("c2"))
	assert.Equal(t, []string{"1.1 Brands", "1.2 Models"}, labels(tree.Leaves(2)))
	assert.Equal(t, []string{"2 Planes"}, labels(tree.Leaves(1)))

	tree.Add(tag("c3", "r2", "2.1 Jets"))
	assert.True(t, tree.HasChildren("r2"))
	assert.Equal(t, []string{"1.1 Brands", "1.2 Models", "2.1 Jets"}, labels(tree.Leaves(2)))

	nested := tree.Nested()
	require.Len(t, nested, 2)
	require.Len(t, nested[0].Child, 2)
	assert.Equal(t, "1.1 Brands", nested[0].Child[0].Label)
}

func TestTreeDepthTerminatesOnCycle(t *testing.T) {
	tree := NewTree([]types.Tag{
		tag("a", "b", "A"),
		tag("b", "a", "B"),
		tag("self", "self", "Self"),
	})
	assert.Equal(t, 2, tree.Depth("a"))
	assert.Equal(t, 1, tree.Depth("self"))
	assert.Equal(t, "B > A", tree.Path("a"))
	assert.Equal(t, 0, tree.Depth("missing"))
}

func TestTreeOrphanCountsMissingParent(t *testing.T) {
	tree := NewTree([]types.Tag{tag("o", "gone", "Orphan")})
	assert.Equal(t, 2, tree.Depth("o"))
	assert.Equal(t, "Orphan", tree.Path("o"))
	assert.Empty(t, tree.Children(""))
}

func labels(tags []types.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Label)
	}
	return out
}
