package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/storage"
	"github.com/joshuapare/heapkit/heap/tree"
)

func newTestHeap(t *testing.T) *alloc.Heap {
	t.Helper()
	h, err := alloc.Create(storage.NewMem(), nil)
	require.NoError(t, err)
	return h
}

// withDefault returns options whose default buffer holds n uint64 items.
func withDefault(n int) *Options {
	return &Options{DefaultContentSize: 8 * n, MaximumMoveFactor: 4}
}

func seq(from, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = uint64(from + i)
	}
	return out
}

func reopen(t *testing.T, tr *Tree[uint64], opts *Options) *Tree[uint64] {
	t.Helper()
	out, err := Open(tr.h, Uint64s, tr.Root(), opts)
	require.NoError(t, err)
	return out
}

func requireBuffers(t *testing.T, tr *Tree[uint64], want ...BufferInfo) {
	t.Helper()
	got, err := tr.Buffers()
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.NoError(t, tr.Verify())
	require.NoError(t, tr.h.Verify())
}

func requireItems(t *testing.T, tr *Tree[uint64], want []uint64) {
	t.Helper()
	got, err := tr.Items()
	require.NoError(t, err)
	require.Equal(t, want, got)
	n, err := tr.Len()
	require.NoError(t, err)
	require.Equal(t, int64(len(want)), n)
}

func Test_Content_EmptyTree(t *testing.T) {
	tr, err := Create(newTestHeap(t), Uint64s, nil)
	require.NoError(t, err)

	n, err := tr.Len()
	require.NoError(t, err)
	assert.Zero(t, n)

	items, err := tr.Items()
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = tr.Get(0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	require.ErrorIs(t, tr.Insert(1, 5), ErrIndexOutOfRange)
	require.NoError(t, tr.Delete(0, 0))
	require.NoError(t, tr.Verify())
}

func Test_Content_AppendFillsDefaultBuffers(t *testing.T) {
	tr, err := Create(newTestHeap(t), Uint64s, withDefault(8))
	require.NoError(t, err)

	require.NoError(t, tr.Append(seq(0, 20)...))
	requireBuffers(t, tr, BufferInfo{8, 8}, BufferInfo{8, 8}, BufferInfo{8, 4})
	requireItems(t, tr, seq(0, 20))
}

func Test_Content_LastNodeOverflowFillsThenSpills(t *testing.T) {
	tr, err := Create(newTestHeap(t), Uint64s, withDefault(8))
	require.NoError(t, err)

	require.NoError(t, tr.Append(seq(0, 6)...))
	requireBuffers(t, tr, BufferInfo{8, 6})

	require.NoError(t, tr.Append(seq(6, 5)...))
	requireBuffers(t, tr, BufferInfo{8, 8}, BufferInfo{8, 3})
	requireItems(t, tr, seq(0, 11))
}

func Test_Content_InnerNodeOverflowSplitsEvenly(t *testing.T) {
	tr, err := Create(newTestHeap(t), Uint64s, withDefault(8))
	require.NoError(t, err)
	require.NoError(t, tr.Append(seq(0, 12)...))
	requireBuffers(t, tr, BufferInfo{8, 8}, BufferInfo{8, 4})

	require.NoError(t, tr.Insert(2, 100, 101, 102))
	requireBuffers(t, tr, BufferInfo{8, 6}, BufferInfo{8, 5}, BufferInfo{8, 4})

	want := append([]uint64{0, 1, 100, 101, 102}, seq(2, 10)...)
	requireItems(t, tr, want)
}

func Test_Content_InnerNodeOverflowAcrossSeveralNodes(t *testing.T) {
	tr, err := Create(newTestHeap(t), Uint64s, withDefault(8))
	require.NoError(t, err)
	require.NoError(t, tr.Append(seq(0, 12)...))

	require.NoError(t, tr.Insert(0, seq(100, 10)...))
	// 18 items: keep min(8, 9), spread 10 over two new nodes.
	requireBuffers(t, tr, BufferInfo{8, 8}, BufferInfo{8, 5}, BufferInfo{8, 5}, BufferInfo{8, 4})
	requireItems(t, tr, append(seq(100, 10), seq(0, 12)...))
}

func Test_Content_GrowsSmallBufferFirst(t *testing.T) {
	h := newTestHeap(t)
	small, err := Create(h, Uint64s, withDefault(4))
	require.NoError(t, err)
	require.NoError(t, small.Append(seq(0, 3)...))
	requireBuffers(t, small, BufferInfo{4, 3})

	big := reopen(t, small, withDefault(16))
	require.NoError(t, big.Append(seq(3, 3)...))
	// Capacity 4 grows to min(16, max(6, 8)).
	requireBuffers(t, big, BufferInfo{8, 6})
	requireItems(t, big, seq(0, 6))
}

func Test_Content_OversizedBufferShattersOnInsert(t *testing.T) {
	h := newTestHeap(t)
	big, err := Create(h, Uint64s, withDefault(50))
	require.NoError(t, err)
	require.NoError(t, big.Append(seq(0, 40)...))
	requireBuffers(t, big, BufferInfo{50, 40})

	small := reopen(t, big, withDefault(8))
	require.NoError(t, small.Insert(40, 40))
	// 41 items spread over ceil(41/8) = 6 default nodes.
	requireBuffers(t, small,
		BufferInfo{8, 6}, BufferInfo{8, 7}, BufferInfo{8, 7},
		BufferInfo{8, 7}, BufferInfo{8, 7}, BufferInfo{8, 7})
	requireItems(t, small, seq(0, 41))
}

func Test_Content_SparseLargeBufferShrinks(t *testing.T) {
	h := newTestHeap(t)
	big, err := Create(h, Uint64s, withDefault(20))
	require.NoError(t, err)
	require.NoError(t, big.Append(seq(0, 20)...))

	small := reopen(t, big, withDefault(8))
	require.NoError(t, small.Delete(2, 18))
	requireBuffers(t, small, BufferInfo{8, 4})
	requireItems(t, small, []uint64{0, 1, 18, 19})
}

func Test_Content_BorrowMergesWholeNeighbor(t *testing.T) {
	tr, err := Create(newTestHeap(t), Uint64s, withDefault(8))
	require.NoError(t, err)
	require.NoError(t, tr.Append(seq(0, 11)...))
	requireBuffers(t, tr, BufferInfo{8, 8}, BufferInfo{8, 3})

	// Six deleted leaves 2: 4*2 is not under 8, nothing moves.
	require.NoError(t, tr.Delete(1, 7))
	requireBuffers(t, tr, BufferInfo{8, 2}, BufferInfo{8, 3})

	require.NoError(t, tr.DeleteAt(0))
	requireBuffers(t, tr, BufferInfo{8, 4})
	requireItems(t, tr, []uint64{7, 8, 9, 10})
}

func Test_Content_BorrowMovesFrontOfNeighbor(t *testing.T) {
	tr, err := Create(newTestHeap(t), Uint64s, withDefault(8))
	require.NoError(t, err)
	require.NoError(t, tr.Append(seq(0, 16)...))

	require.NoError(t, tr.Delete(0, 7))
	// One left, eight next: move 8/2 - 1 = 3.
	requireBuffers(t, tr, BufferInfo{8, 4}, BufferInfo{8, 5})
	requireItems(t, tr, seq(7, 9))
}

func Test_Content_BorrowShattersOversizedDonor(t *testing.T) {
	h := newTestHeap(t)
	small, err := Create(h, Uint64s, withDefault(8))
	require.NoError(t, err)
	require.NoError(t, small.Append(seq(0, 16)...))

	big := reopen(t, small, withDefault(50))
	require.NoError(t, big.Append(seq(16, 50)...))
	requireBuffers(t, big, BufferInfo{8, 8}, BufferInfo{50, 50}, BufferInfo{50, 8})

	small = reopen(t, big, withDefault(8))
	require.NoError(t, small.Delete(0, 7))
	// The donor keeps 47 items in a buffer above 4*8: six default nodes.
	requireBuffers(t, small,
		BufferInfo{8, 4},
		BufferInfo{8, 7}, BufferInfo{8, 8}, BufferInfo{8, 8},
		BufferInfo{8, 8}, BufferInfo{8, 8}, BufferInfo{8, 8},
		BufferInfo{50, 8})
	requireItems(t, small, seq(7, 59))
}

func Test_Content_BorrowShrinksSparseDonor(t *testing.T) {
	h := newTestHeap(t)
	small, err := Create(h, Uint64s, withDefault(8))
	require.NoError(t, err)
	require.NoError(t, small.Append(seq(0, 16)...))

	mid := reopen(t, small, withDefault(32))
	require.NoError(t, mid.Append(seq(16, 24)...))
	requireBuffers(t, mid, BufferInfo{8, 8}, BufferInfo{32, 32})

	small = reopen(t, mid, withDefault(8))
	require.NoError(t, small.Delete(8, 30))
	requireBuffers(t, small, BufferInfo{8, 8}, BufferInfo{32, 10})

	require.NoError(t, small.Delete(0, 7))
	// Donor left with 7 of 32 shrinks to max(8, 14).
	requireBuffers(t, small, BufferInfo{8, 4}, BufferInfo{14, 7})
	requireItems(t, small, append([]uint64{7}, seq(30, 10)...))
}

func Test_Content_DeleteSpanningNodes(t *testing.T) {
	tr, err := Create(newTestHeap(t), Uint64s, withDefault(8))
	require.NoError(t, err)
	require.NoError(t, tr.Append(seq(0, 40)...))

	require.NoError(t, tr.Delete(5, 35))
	requireItems(t, tr, append(seq(0, 5), seq(35, 5)...))
	require.NoError(t, tr.Verify())

	require.NoError(t, tr.Delete(0, 10))
	requireItems(t, tr, nil)
	requireBuffers(t, tr)

	require.ErrorIs(t, tr.Delete(3, 1), ErrBadRange)
	require.ErrorIs(t, tr.Delete(0, 1), ErrIndexOutOfRange)
}

func Test_Content_GetSetEach(t *testing.T) {
	tr, err := Create(newTestHeap(t), Uint64s, withDefault(4))
	require.NoError(t, err)
	require.NoError(t, tr.Append(seq(0, 30)...))

	for i := range int64(30) {
		v, err := tr.Get(i)
		require.NoError(t, err)
		require.Equal(t, uint64(i), v)
	}
	require.NoError(t, tr.Set(17, 1000))
	v, err := tr.Get(17)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), v)

	_, err = tr.Get(30)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	require.ErrorIs(t, tr.Set(30, 1), ErrIndexOutOfRange)

	var fwd []int64
	require.NoError(t, tr.Each(func(i int64, _ uint64) bool {
		fwd = append(fwd, i)
		return i == 9
	}))
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, fwd)

	var rev []uint64
	require.NoError(t, tr.EachReverse(func(i int64, v uint64) bool {
		rev = append(rev, v)
		return i == 27
	}))
	assert.Equal(t, []uint64{29, 28, 27}, rev)
}

func Test_Content_Bytes(t *testing.T) {
	tr, err := Create(newTestHeap(t), Bytes, &Options{DefaultContentSize: 8})
	require.NoError(t, err)

	require.NoError(t, tr.Append([]byte("hello world")...))
	require.NoError(t, tr.Insert(5, []byte(", big")...))
	got, err := tr.Items()
	require.NoError(t, err)
	assert.Equal(t, "hello, big world", string(got))

	require.NoError(t, tr.Delete(5, 10))
	got, err = tr.Items()
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
	require.NoError(t, tr.Verify())
}

func Test_Content_OpenChecksKind(t *testing.T) {
	h := newTestHeap(t)
	tr, err := Create(h, Bytes, nil)
	require.NoError(t, err)

	_, err = Open(h, Pointers, tr.Root(), nil)
	require.ErrorIs(t, err, tree.ErrNotRoot)
	require.ErrorIs(t, err, alloc.ErrTypeMismatch)

	_, err = Create(h, Kind[int]{Name: "broken"}, nil)
	require.ErrorIs(t, err, ErrBadKind)
}

func Test_Content_DeleteTreeWithCleanUp(t *testing.T) {
	h := newTestHeap(t)
	list, err := Create(h, Pointers, &Options{DefaultContentSize: 24})
	require.NoError(t, err)

	for i := range 10 {
		s, err := Create(h, Bytes, nil)
		require.NoError(t, err)
		require.NoError(t, s.Append([]byte{byte('a' + i)}...))
		require.NoError(t, list.Append(s.Root()))
	}
	require.NoError(t, list.Verify())

	freed := 0
	require.NoError(t, list.DeleteTree(func(items []alloc.Ptr) error {
		for _, p := range items {
			s, err := Open(h, Bytes, p, nil)
			if err != nil {
				return err
			}
			if err := s.DeleteTree(nil); err != nil {
				return err
			}
			freed++
		}
		return nil
	}))
	assert.Equal(t, 10, freed)
	assert.Equal(t, alloc.Null, list.Root())

	u, err := h.Usage()
	require.NoError(t, err)
	assert.Zero(t, u.UsedSpans)
	assert.Zero(t, u.FreeSpans)
	require.NoError(t, h.Verify())
}

func Test_Options_Normalized(t *testing.T) {
	o := Options{}.normalized()
	assert.Equal(t, DefaultOptions, o)

	o = Options{DefaultContentSize: 10, MaximumMoveFactor: 1}.normalized()
	assert.Equal(t, 2, o.MaximumMoveFactor)
}
