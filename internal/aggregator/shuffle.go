package aggregator

// Shuffle permutes items in place (Fisher-Yates). intN(n) must return a
// uniformly distributed value in [0, n).
func Shuffle[T any](items []T, intN func(int) int) {
	for i := len(items) - 1; i > 0; i-- {
		j := intN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
