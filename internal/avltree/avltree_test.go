package avltree

import (
	"math/rand"
	"sort"
	"testing"
)

func intCmp(a, b int) int { return a - b }

func checkInvariants(t *testing.T, n *node[int]) int {
	t.Helper()
	if n == nil {
		return 0
	}

	leftH := checkInvariants(t, n.left)
	rightH := checkInvariants(t, n.right)

	if n.left != nil && n.left.parent != n {
		t.Fatalf("left child %v has wrong parent", n.left.value)
	}
	if n.right != nil && n.right.parent != n {
		t.Fatalf("right child %v has wrong parent", n.right.value)
	}

	wantHeight := 1 + maxInt(leftH, rightH)
	if n.height != wantHeight {
		t.Fatalf("node %v height = %d, want %d", n.value, n.height, wantHeight)
	}

	wantSize := 1 + size(n.left) + size(n.right)
	if n.size != wantSize {
		t.Fatalf("node %v size = %d, want %d", n.value, n.size, wantSize)
	}

	diff := leftH - rightH
	if diff > 1 || diff < -1 {
		t.Fatalf("node %v unbalanced: left height %d, right height %d", n.value, leftH, rightH)
	}

	return wantHeight
}

func (t *Tree[V]) inOrderSlice() []V {
	var out []V
	t.InOrder(func(v V) { out = append(out, v) })
	return out
}

func TestInsertMaintainsInvariants(t *testing.T) {
	tree := New[int](intCmp)
	rng := rand.New(rand.NewSource(1))

	values := make([]int, 0, 500)
	for i := 0; i < 500; i++ {
		v := rng.Intn(2000)
		tree.Insert(v)
		values = append(values, v)

		if tree.root != nil && tree.root.parent != nil {
			t.Fatalf("root has non-nil parent")
		}
		checkInvariants(t, tree.root)
	}

	sort.Ints(values)
	got := tree.inOrderSlice()
	if len(got) != len(values) {
		t.Fatalf("in-order traversal length = %d, want %d", len(got), len(values))
	}
	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("in-order[%d] = %d, want %d", i, got[i], values[i])
		}
	}
}

func TestFindByRankMatchesInOrder(t *testing.T) {
	tree := New[int](intCmp)
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 300; i++ {
		tree.Insert(rng.Intn(1000))
	}

	inOrder := tree.inOrderSlice()
	for i, want := range inOrder {
		got, ok := tree.FindByRank(i)
		if !ok || got != want {
			t.Fatalf("FindByRank(%d) = (%d, %v), want (%d, true)", i, got, ok, want)
		}
	}

	if _, ok := tree.FindByRank(-1); ok {
		t.Fatalf("FindByRank(-1) should miss")
	}
	if _, ok := tree.FindByRank(len(inOrder)); ok {
		t.Fatalf("FindByRank(len) should miss")
	}
}

func TestRankRoundTripsWithFindByRank(t *testing.T) {
	tree := New[int](intCmp)
	for i := 0; i < 200; i++ {
		tree.Insert(i * 3)
	}

	for rank := 0; rank < 200; rank++ {
		v, ok := tree.FindByRank(rank)
		if !ok {
			t.Fatalf("FindByRank(%d) missing", rank)
		}
		gotRank, ok := tree.Rank(v)
		if !ok || gotRank != rank {
			t.Fatalf("Rank(%d) = (%d, %v), want (%d, true)", v, gotRank, ok, rank)
		}
	}
}

func TestInsertDetachInvariants(t *testing.T) {
	tree := New[int](intCmp)
	rng := rand.New(rand.NewSource(3))

	// present counts copies per value: the tree keeps duplicates.
	present := map[int]int{}
	total := 0
	for i := 0; i < 1000; i++ {
		op := rng.Intn(3)
		v := rng.Intn(300)

		switch {
		case op < 2 || len(present) == 0:
			tree.Insert(v)
			present[v]++
			total++
		default:
			// remove one copy of an arbitrary present value
			for k := range present {
				v = k
				break
			}
			got, ok := tree.Remove(v)
			if !ok || got != v {
				t.Fatalf("Remove(%d) = (%d, %v), want (%d, true)", v, got, ok, v)
			}
			present[v]--
			if present[v] == 0 {
				delete(present, v)
			}
			total--
		}

		checkInvariants(t, tree.root)
		if tree.Len() != total {
			t.Fatalf("Len() = %d, want %d", tree.Len(), total)
		}
	}

	got := tree.inOrderSlice()
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("in-order traversal not sorted at index %d: %v", i, got)
		}
	}
}

func TestRangeWalksAdjacentElements(t *testing.T) {
	tree := New[int](intCmp)
	for i := 0; i < 20; i++ {
		tree.Insert(i)
	}

	var got []int
	tree.Range(5, 4, func(v int) { got = append(got, v) })

	want := []int{5, 6, 7, 8}
	if len(got) != len(want) {
		t.Fatalf("Range visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Range visited %v, want %v", got, want)
		}
	}
}
