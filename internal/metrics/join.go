package metrics

// joined pairs the left and right values carried under one key after an
// outer join. A side with no value for the key holds the zero value.
type joined[T any] struct {
	Key   string
	Left  T
	Right T
}

// outerJoinByKey merges two keyed sequences. Every key present on either side
// appears exactly once in the result; the missing side is filled with
// zero(key). Result order is left order first, then right-only keys in right
// order.
func outerJoinByKey[T any](left, right []T, key func(T) string, zero func(string) T) []joined[T] {
	rightByKey := make(map[string]T, len(right))
	for _, v := range right {
		rightByKey[key(v)] = v
	}

	out := make([]joined[T], 0, len(left)+len(right))
	seen := make(map[string]struct{}, len(left))
	for _, l := range left {
		k := key(l)
		seen[k] = struct{}{}
		r, ok := rightByKey[k]
		if !ok {
			r = zero(k)
		}
		out = append(out, joined[T]{Key: k, Left: l, Right: r})
	}
	for _, r := range right {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		out = append(out, joined[T]{Key: k, Left: zero(k), Right: r})
	}
	return out
}
