package typeahead

// Normalize wraps index into [0, length) with true modulo, so -1 is the last item and
// length is the first one again, for any magnitude of index.
// length must be positive: an empty dropdown has nothing to highlight.
func Normalize(index, length int) int {
	if length <= 0 {
		panic("typeahead: Normalize called with empty list")
	}
	i := index % length
	if i < 0 {
		i += length
	}
	return i
}
