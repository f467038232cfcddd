package content

import "fmt"

// Move returns a new slice with the element at from moved to position to.
// Elements between the two positions shift by one. The input is not modified.
func Move[T any](items []T, from, to int) ([]T, error) {
	n := len(items)
	if from < 0 || from >= n {
		return nil, fmt.Errorf("move: from index %d out of range [0,%d)", from, n)
	}
	if to < 0 || to >= n {
		return nil, fmt.Errorf("move: to index %d out of range [0,%d)", to, n)
	}
	out := make([]T, 0, n)
	out = append(out, items[:from]...)
	out = append(out, items[from+1:]...)
	moved := items[from]
	out = append(out, moved)
	copy(out[to+1:], out[to:n-1])
	out[to] = moved
	return out, nil
}

// IsPermutation reports whether order contains exactly the ids in current.
func IsPermutation(current, order []string) bool {
	if len(current) != len(order) {
		return false
	}
	seen := make(map[string]int, len(current))
	for _, id := range current {
		seen[id]++
	}
	for _, id := range order {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}

// SameOrder reports whether two id lists are identical.
func SameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
