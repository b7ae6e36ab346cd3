package tree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/storage"
	"github.com/joshuapare/heapkit/internal/format"
)

// countShape stores a node's item count directly in its content field.
type countShape struct{ h *alloc.Heap }

func (countShape) RootType() alloc.Type { return alloc.TypeUser }
func (countShape) NodeType() alloc.Type { return alloc.TypeUser + 1 }

func (s countShape) LocalLength(node alloc.Ptr) (int64, error) {
	p, err := s.h.ReadPtr(node.Payload().Add(format.NodeContentOffset))
	return int64(p), err
}

type fixture struct {
	t    *testing.T
	a    *Accessor
	root alloc.Ptr
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	h, err := alloc.Create(storage.NewMem(), nil)
	require.NoError(t, err)
	a := New(h, countShape{h: h})
	root, err := a.CreateRoot()
	require.NoError(t, err)
	return &fixture{t: t, a: a, root: root}
}

func (f *fixture) node(count int64) alloc.Ptr {
	f.t.Helper()
	n, err := f.a.CreateNode(alloc.Ptr(count), count)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) order(d Direction) []alloc.Ptr {
	f.t.Helper()
	var out []alloc.Ptr
	require.NoError(f.t, f.a.Walk(f.root, d, func(n alloc.Ptr) error {
		out = append(out, n)
		return nil
	}))
	return out
}

func Test_Tree_RotationScenario(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.node(1), f.node(1), f.node(1)

	require.NoError(t, f.a.InsertAfter(f.root, a, alloc.Null))
	require.NoError(t, f.a.InsertNode(b, a, Backward))
	require.NoError(t, f.a.InsertNode(c, b, Backward))

	top, err := f.a.RootChild(f.root)
	require.NoError(t, err)
	assert.Equal(t, b, top)

	bb, err := f.a.Branches(b)
	require.NoError(t, err)
	assert.Equal(t, [2]alloc.Ptr{a, c}, bb.Children)
	assert.Equal(t, f.root, bb.Parent)
	assert.Equal(t, 2, bb.Depth)
	assert.Equal(t, int64(3), bb.Length)

	for _, leaf := range []alloc.Ptr{a, c} {
		lb, err := f.a.Branches(leaf)
		require.NoError(t, err)
		assert.Equal(t, [2]alloc.Ptr{}, lb.Children)
		assert.Equal(t, b, lb.Parent)
		assert.Equal(t, 1, lb.Depth)
	}
	require.NoError(t, f.a.Verify(f.root))
}

func Test_Tree_ZigZagDoubleRotation(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.node(1), f.node(2), f.node(3)

	require.NoError(t, f.a.InsertBefore(f.root, a, alloc.Null))
	require.NoError(t, f.a.InsertBefore(f.root, c, alloc.Null))
	// b lands as the left child of c, below a: right-left case.
	require.NoError(t, f.a.InsertAfter(f.root, b, a))

	top, err := f.a.RootChild(f.root)
	require.NoError(t, err)
	assert.Equal(t, b, top)
	assert.Equal(t, []alloc.Ptr{a, b, c}, f.order(Forward))
	require.NoError(t, f.a.Verify(f.root))

	total, err := f.a.TotalLength(f.root)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
}

func Test_Tree_InsertAtEdges(t *testing.T) {
	f := newFixture(t)

	first, err := f.a.First(f.root)
	require.NoError(t, err)
	assert.Equal(t, alloc.Null, first)

	var want []alloc.Ptr
	for range 5 {
		n := f.node(1)
		require.NoError(t, f.a.InsertBefore(f.root, n, alloc.Null))
		want = append(want, n)
	}
	for range 5 {
		n := f.node(1)
		require.NoError(t, f.a.InsertAfter(f.root, n, alloc.Null))
		want = append([]alloc.Ptr{n}, want...)
	}
	assert.Equal(t, want, f.order(Forward))

	rev := f.order(Backward)
	for i := range rev {
		assert.Equal(t, want[len(want)-1-i], rev[i])
	}

	first, err = f.a.First(f.root)
	require.NoError(t, err)
	assert.Equal(t, want[0], first)
	last, err := f.a.Last(f.root)
	require.NoError(t, err)
	assert.Equal(t, want[len(want)-1], last)
	require.NoError(t, f.a.Verify(f.root))
}

func Test_Tree_NeighborStopsAtRoot(t *testing.T) {
	f := newFixture(t)
	var nodes []alloc.Ptr
	for range 7 {
		n := f.node(1)
		require.NoError(t, f.a.InsertBefore(f.root, n, alloc.Null))
		nodes = append(nodes, n)
	}
	for i, n := range nodes {
		next, err := f.a.Neighbor(n, Forward)
		require.NoError(t, err)
		prev, err := f.a.Neighbor(n, Backward)
		require.NoError(t, err)
		if i+1 < len(nodes) {
			assert.Equal(t, nodes[i+1], next)
		} else {
			assert.Equal(t, alloc.Null, next)
		}
		if i > 0 {
			assert.Equal(t, nodes[i-1], prev)
		} else {
			assert.Equal(t, alloc.Null, prev)
		}
	}
}

func Test_Tree_RemoveEveryShape(t *testing.T) {
	// Removing each position of a 15-node tree covers leaf, single child,
	// direct successor and deep successor removals.
	for victim := range 15 {
		f := newFixture(t)
		var nodes []alloc.Ptr
		for range 15 {
			n := f.node(2)
			require.NoError(t, f.a.InsertBefore(f.root, n, alloc.Null))
			nodes = append(nodes, n)
		}
		require.NoError(t, f.a.RemoveNode(nodes[victim]))
		require.NoError(t, f.a.Verify(f.root), "victim %d", victim)

		want := append(append([]alloc.Ptr{}, nodes[:victim]...), nodes[victim+1:]...)
		assert.Equal(t, want, f.order(Forward), "victim %d", victim)

		total, err := f.a.TotalLength(f.root)
		require.NoError(t, err)
		assert.Equal(t, int64(28), total)

		vb, err := f.a.Branches(nodes[victim])
		require.NoError(t, err)
		assert.Equal(t, alloc.Null, vb.Parent)
	}
}

func Test_Tree_RemoveLastNodeEmptiesTree(t *testing.T) {
	f := newFixture(t)
	n := f.node(4)
	require.NoError(t, f.a.InsertBefore(f.root, n, alloc.Null))
	require.NoError(t, f.a.RemoveNode(n))

	top, err := f.a.RootChild(f.root)
	require.NoError(t, err)
	assert.Equal(t, alloc.Null, top)
	require.NoError(t, f.a.Verify(f.root))

	// The unlinked node can be linked again.
	require.NoError(t, f.a.InsertAfter(f.root, n, alloc.Null))
	total, err := f.a.TotalLength(f.root)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func Test_Tree_LocateAndIndexOf(t *testing.T) {
	f := newFixture(t)
	counts := []int64{3, 1, 4, 1, 5, 9, 2, 6}
	var nodes []alloc.Ptr
	for _, c := range counts {
		n := f.node(c)
		require.NoError(t, f.a.InsertBefore(f.root, n, alloc.Null))
		nodes = append(nodes, n)
	}

	var start int64
	for i, n := range nodes {
		idx, err := f.a.IndexOf(n)
		require.NoError(t, err)
		assert.Equal(t, start, idx, "node %d", i)
		for off := range counts[i] {
			got, local, err := f.a.Locate(f.root, start+off)
			require.NoError(t, err)
			assert.Equal(t, n, got)
			assert.Equal(t, off, local)
		}
		start += counts[i]
	}

	got, local, err := f.a.Locate(f.root, start)
	require.NoError(t, err)
	assert.Equal(t, nodes[len(nodes)-1], got)
	assert.Equal(t, counts[len(counts)-1], local)

	_, _, err = f.a.Locate(f.root, start+1)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, _, err = f.a.Locate(f.root, -1)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func Test_Tree_PostOrderVisitsChildrenFirst(t *testing.T) {
	f := newFixture(t)
	for range 20 {
		require.NoError(t, f.a.InsertBefore(f.root, f.node(1), alloc.Null))
	}
	visited := make(map[alloc.Ptr]bool)
	require.NoError(t, f.a.PostOrder(f.root, func(n alloc.Ptr) error {
		b, err := f.a.Branches(n)
		require.NoError(t, err)
		for _, c := range b.Children {
			if c != alloc.Null {
				assert.True(t, visited[c], "child %s of %s not visited first", c, n)
			}
		}
		visited[n] = true
		return nil
	}))
	assert.Len(t, visited, 20)
}

func Test_Tree_WalkStopsEarly(t *testing.T) {
	f := newFixture(t)
	for range 10 {
		require.NoError(t, f.a.InsertBefore(f.root, f.node(1), alloc.Null))
	}
	seen := 0
	require.NoError(t, f.a.Walk(f.root, Forward, func(alloc.Ptr) error {
		seen++
		if seen == 3 {
			return ErrStop
		}
		return nil
	}))
	assert.Equal(t, 3, seen)
}

func Test_Tree_ContractErrors(t *testing.T) {
	f := newFixture(t)
	n := f.node(1)
	require.NoError(t, f.a.InsertBefore(f.root, n, alloc.Null))

	require.ErrorIs(t, f.a.InsertBefore(f.root, n, alloc.Null), ErrLinked)
	require.ErrorIs(t, f.a.CheckNode(f.root), ErrNotNode)
	require.ErrorIs(t, f.a.CheckRoot(n), ErrNotRoot)
	require.ErrorIs(t, f.a.Verify(n), ErrNotRoot)
}

func Test_Tree_VerifyDetectsStaleDepth(t *testing.T) {
	f := newFixture(t)
	var nodes []alloc.Ptr
	for range 3 {
		n := f.node(1)
		require.NoError(t, f.a.InsertBefore(f.root, n, alloc.Null))
		nodes = append(nodes, n)
	}
	b, err := f.a.Branches(nodes[1])
	require.NoError(t, err)
	b.Depth = 5
	require.NoError(t, f.a.writeBranches(nodes[1], b))

	var inv *alloc.InvariantError
	require.ErrorAs(t, f.a.Verify(f.root), &inv)
	assert.Equal(t, nodes[1], inv.Addr)
}

// Test_Tree_RandomInsertRemove_GuardInvariants checks balance, aggregates and
// order against a reference slice after every step.
func Test_Tree_RandomInsertRemove_GuardInvariants(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(7))

	var ref []alloc.Ptr
	counts := make(map[alloc.Ptr]int64)

	for step := range 600 {
		if len(ref) == 0 || rng.Intn(3) > 0 {
			c := int64(1 + rng.Intn(9))
			n := f.node(c)
			counts[n] = c
			pos := rng.Intn(len(ref) + 1)
			if rng.Intn(2) == 0 {
				var prev alloc.Ptr
				if pos > 0 {
					prev = ref[pos-1]
				}
				require.NoError(t, f.a.InsertAfter(f.root, n, prev), "step %d", step)
			} else {
				var next alloc.Ptr
				if pos < len(ref) {
					next = ref[pos]
				}
				require.NoError(t, f.a.InsertBefore(f.root, n, next), "step %d", step)
			}
			ref = append(ref[:pos], append([]alloc.Ptr{n}, ref[pos:]...)...)
		} else {
			pos := rng.Intn(len(ref))
			n := ref[pos]
			require.NoError(t, f.a.RemoveNode(n), "step %d", step)
			require.NoError(t, f.a.Heap().DeleteAlloc(n))
			ref = append(ref[:pos], ref[pos+1:]...)
			delete(counts, n)
		}

		require.NoError(t, f.a.Verify(f.root), "step %d", step)
		if len(ref) == 0 {
			require.Empty(t, f.order(Forward), "step %d", step)
		} else {
			require.Equal(t, ref, f.order(Forward), "step %d", step)
		}
	}

	var total int64
	for _, n := range ref {
		total += counts[n]
	}
	got, err := f.a.TotalLength(f.root)
	require.NoError(t, err)
	assert.Equal(t, total, got)
	require.NoError(t, f.a.Heap().Verify())
}
