package progress

import "fmt"

// LoadResult is the item a progress publisher emits: how far the load has
// come and, on the last item only, its result.
type LoadResult[R any] struct {
	// Progress is the completed fraction of the load, from 0 to 1.
	Progress float64

	// Result is the loaded value. It is the zero value unless HasResult is set.
	Result R

	// HasResult is true only for the final item of a successful load.
	HasResult bool
}

// Pending returns an in-flight result at the given progress.
func Pending[R any](progress float64) LoadResult[R] {
	return LoadResult[R]{Progress: progress}
}

// Completed returns the final result of a successful load. Its progress is 1.
func Completed[R any](result R) LoadResult[R] {
	return LoadResult[R]{Progress: 1, Result: result, HasResult: true}
}

// Value returns the result and whether it is present.
func (r LoadResult[R]) Value() (R, bool) {
	return r.Result, r.HasResult
}

func (r LoadResult[R]) String() string {
	if r.HasResult {
		return fmt.Sprintf("%.0f%% %v", r.Progress*100, r.Result)
	}
	return fmt.Sprintf("%.0f%%", r.Progress*100)
}
