// internal/friends/sample_test.go
package friends

import (
	"math/rand"
	"testing"
)

func TestTakeRandomBounds(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	items := []int{1, 2, 3, 4, 5}

	if got := takeRandom(r, items, 0); got != nil {
		t.Errorf("expected nil for n=0, got %v", got)
	}
	if got := takeRandom(r, items, -1); got != nil {
		t.Errorf("expected nil for negative n, got %v", got)
	}
	if got := takeRandom(r, []int(nil), 3); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	if got := takeRandom(r, items, 10); len(got) != len(items) {
		t.Errorf("n beyond len should return all %d items, got %d", len(items), len(got))
	}
}

func TestTakeRandomDistinct(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}

	for i := 0; i < 200; i++ {
		got := takeRandom(r, items, 4)
		if len(got) != 4 {
			t.Fatalf("expected 4 draws, got %d", len(got))
		}
		seen := map[int]bool{}
		for _, v := range got {
			if seen[v] {
				t.Fatalf("duplicate draw %d in %v", v, got)
			}
			seen[v] = true
		}
	}
}

func TestTakeRandomDoesNotMutateInput(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	items := []int{1, 2, 3, 4, 5}
	takeRandom(r, items, 5)
	for i, v := range []int{1, 2, 3, 4, 5} {
		if items[i] != v {
			t.Fatalf("input slice was mutated: %v", items)
		}
	}
}

func TestTakeRandomCoversAllElements(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	items := []int{1, 2, 3, 4, 5, 6}

	counts := map[int]int{}
	for i := 0; i < 600; i++ {
		for _, v := range takeRandom(r, items, 2) {
			counts[v]++
		}
	}
	for _, v := range items {
		if counts[v] == 0 {
			t.Errorf("element %d was never drawn over 600 rounds", v)
		}
	}
}
