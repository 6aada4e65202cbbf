// internal/friends/sample.go
package friends

import "math/rand"

// takeRandom draws up to n distinct elements from items without
// replacement; at each draw every remaining element is equally likely.
// It operates on a copied snapshot, so the input slice is untouched and
// the draw order is independent of the collection it came from.
func takeRandom[T any](r *rand.Rand, items []T, n int) []T {
	if n > len(items) {
		n = len(items)
	}
	if n <= 0 {
		return nil
	}
	pool := make([]T, len(items))
	copy(pool, items)

	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		j := r.Intn(len(pool))
		out = append(out, pool[j])
		pool[j] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	return out
}
