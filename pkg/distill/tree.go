package distill

import (
	"slices"
	"strings"

	"github.com/easy-dataset/easy-dataset/pkg/types"
)

const rootIndex = -1

type node struct {
	tag      types.Tag
	parent   int
	children []int
}

// Tree 以切片保存标签节点，节点之间通过下标关联
type Tree struct {
	nodes []node
	index map[string]int
}

func NewTree(tags []types.Tag) *Tree {
	t := &Tree{
		nodes: make([]node, 0, len(tags)),
		index: make(map[string]int, len(tags)),
	}
	for _, tag := range tags {
		if _, exists := t.index[tag.ID]; exists {
			continue
		}
		t.index[tag.ID] = len(t.nodes)
		t.nodes = append(t.nodes, node{tag: tag, parent: rootIndex})
	}
	// 父节点可能排在子节点之后，全部入表后再建立关系
	for i := range t.nodes {
		t.link(i)
	}
	return t
}

func (t *Tree) link(i int) {
	parentID := t.nodes[i].tag.Parent()
	if parentID == "" {
		return
	}
	p, ok := t.index[parentID]
	if !ok || p == i {
		return
	}
	t.nodes[i].parent = p
	t.nodes[p].children = append(t.nodes[p].children, i)
}

// Add inserts a freshly created tag.
func (t *Tree) Add(tag types.Tag) {
	if _, exists := t.index[tag.ID]; exists {
		return
	}
	t.index[tag.ID] = len(t.nodes)
	t.nodes = append(t.nodes, node{tag: tag, parent: rootIndex})
	t.link(len(t.nodes) - 1)
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) Get(id string) (types.Tag, bool) {
	i, ok := t.index[id]
	if !ok {
		return types.Tag{}, false
	}
	return t.nodes[i].tag, true
}

// Children 返回排好序的子标签，id 为空时返回根标签
func (t *Tree) Children(id string) []types.Tag {
	var list []int
	if id == "" {
		for i, n := range t.nodes {
			if n.tag.Parent() == "" {
				list = append(list, i)
			}
		}
	} else if i, ok := t.index[id]; ok {
		list = t.nodes[i].children
	}

	tags := make([]types.Tag, 0, len(list))
	for _, i := range list {
		tags = append(tags, t.nodes[i].tag)
	}
	slices.SortStableFunc(tags, func(a, b types.Tag) int {
		return CompareLabels(a.Label, b.Label)
	})
	return tags
}

func (t *Tree) HasChildren(id string) bool {
	i, ok := t.index[id]
	return ok && len(t.nodes[i].children) > 0
}

// Depth counts the levels from the root down to id. A parent id that cannot be
// resolved still counts as one level. Cycles stop the walk.
func (t *Tree) Depth(id string) int {
	i, ok := t.index[id]
	if !ok {
		return 0
	}
	depth := 1
	seen := map[int]bool{i: true}
	for {
		parentID := t.nodes[i].tag.Parent()
		if parentID == "" {
			return depth
		}
		p, ok := t.index[parentID]
		if !ok {
			return depth + 1
		}
		if seen[p] {
			return depth
		}
		seen[p] = true
		depth++
		i = p
	}
}

// Path 由根到当前节点的标签，以 " > " 连接
func (t *Tree) Path(id string) string {
	i, ok := t.index[id]
	if !ok {
		return ""
	}
	var labels []string
	seen := map[int]bool{}
	for i != rootIndex && !seen[i] {
		seen[i] = true
		labels = append(labels, t.nodes[i].tag.Label)
		i = t.nodes[i].parent
	}
	slices.Reverse(labels)
	return strings.Join(labels, " > ")
}

// Leaves returns tags with no children sitting exactly at depth levels.
func (t *Tree) Leaves(levels int) []types.Tag {
	var out []types.Tag
	for _, n := range t.nodes {
		if len(n.children) == 0 && t.Depth(n.tag.ID) == levels {
			out = append(out, n.tag)
		}
	}
	slices.SortStableFunc(out, func(a, b types.Tag) int {
		return CompareLabels(t.Path(a.ID), t.Path(b.ID))
	})
	return out
}

// Nested 转换为嵌套结构，用于接口返回和 LLM 提示词
func (t *Tree) Nested() []*types.TagNode {
	var build func(tag types.Tag, seen map[string]bool) *types.TagNode
	build = func(tag types.Tag, seen map[string]bool) *types.TagNode {
		n := &types.TagNode{ID: tag.ID, Label: tag.Label, ParentID: tag.Parent()}
		if seen[tag.ID] {
			return n
		}
		seen[tag.ID] = true
		for _, c := range t.Children(tag.ID) {
			n.Child = append(n.Child, build(c, seen))
		}
		return n
	}

	seen := map[string]bool{}
	var out []*types.TagNode
	for _, root := range t.roots() {
		out = append(out, build(root, seen))
	}
	return out
}

// roots 包含父节点不存在的孤儿节点
func (t *Tree) roots() []types.Tag {
	var tags []types.Tag
	for _, n := range t.nodes {
		if n.parent == rootIndex {
			tags = append(tags, n.tag)
		}
	}
	slices.SortStableFunc(tags, func(a, b types.Tag) int {
		return CompareLabels(a.Label, b.Label)
	})
	return tags
}
