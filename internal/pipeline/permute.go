package pipeline

// Permutations returns every ordering of values, n! in all; the first is
// values itself.
func Permutations(values []int64) [][]int64 {
	var perms [][]int64
	permute(values, func(perm []int64) bool {
		perms = append(perms, append([]int64(nil), perm...))
		return true
	})
	return perms
}

// permute calls each with every ordering of values, generated by Heap's
// method, until each returns false. The slice passed to each is reused
// between calls.
func permute(values []int64, each func(perm []int64) bool) {
	a := append([]int64(nil), values...)
	if !each(a) {
		return
	}
	c := make([]int, len(a))
	for i := 1; i < len(a); {
		if c[i] >= i {
			c[i] = 0
			i++
			continue
		}
		if i%2 == 0 {
			a[0], a[i] = a[i], a[0]
		} else {
			a[c[i]], a[i] = a[i], a[c[i]]
		}
		if !each(a) {
			return
		}
		c[i]++
		i = 1
	}
}
