package inserter

// Window is a contiguous [Start, End) range of the row set sent as one batch.
type Window struct {
	Index int
	Start int
	End   int
}

// Len returns the number of rows in the window.
func (w Window) Len() int { return w.End - w.Start }

// Partition splits total rows into consecutive windows of at most size rows.
// The last window may be shorter. It returns nil when total is zero or size
// is not positive.
func Partition(total, size int) []Window {
	if total <= 0 || size <= 0 {
		return nil
	}

	n := total / size
	if total%size != 0 {
		n++
	}
	windows := make([]Window, 0, n)
	for i := 0; i < n; i++ {
		start := i * size
		windows = append(windows, Window{
			Index: i,
			Start: start,
			End:   start + min(size, total-start),
		})
	}
	return windows
}
