package belief

import "golang.org/x/sync/errgroup"

// forEachRowBlock runs fn over contiguous row blocks [lo, hi) covering
// [0, n). With workers ≤ 1 (or a single row) it runs inline; otherwise each
// block gets its own goroutine. Blocks never overlap, so fn may write any
// cell of its own rows without synchronization.
func forEachRowBlock(n, workers int, fn func(lo, hi int)) {
	if workers <= 1 || n <= 1 {
		fn(0, n)
		return
	}
	if workers > n {
		workers = n
	}
	var (
		g     errgroup.Group
		chunk = (n + workers - 1) / workers
	)
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait() // fn cannot fail
}
