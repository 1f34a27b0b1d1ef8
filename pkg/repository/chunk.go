package repository

import "iter"

// DefaultBatchSize is the chunk size used when a batch does not set one.
const DefaultBatchSize = 1000

// Chunk yields contiguous sub-slices of items of at most size elements.
// A size below 1 means DefaultBatchSize. The last chunk may be shorter.
func Chunk[T any](items []T, size int) iter.Seq[[]T] {
	if size < 1 {
		size = DefaultBatchSize
	}
	return func(yield func([]T) bool) {
		for start := 0; start < len(items); start += size {
			end := min(start+size, len(items))
			if !yield(items[start:end:end]) {
				return
			}
		}
	}
}
