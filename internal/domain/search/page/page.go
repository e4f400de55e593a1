package page

// Paging limits.
const (
	DefaultSize = 20
	MaxSize     = 100
	MaxNumber   = 10_000

	maxOffset = MaxNumber * MaxSize
)

// Page is a zero-based page window requested by a caller.
type Page struct {
	Number int
	Size   int
}

// New normalizes page parameters: numbers are clamped to [0, MaxNumber], sizes to [1, MaxSize].
func New(number, size int) Page {
	if number < 0 {
		number = 0
	}
	if number > MaxNumber {
		number = MaxNumber
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Page{Number: number, Size: size}
}

// First returns page 0 of the given size without clamping; used for internal retrieval windows.
func First(size int) Page {
	return Page{Number: 0, Size: size}
}

// Offset returns the index of the first element in the window, saturating at MaxNumber*MaxSize.
// Fields may be set directly, so no product is computed before the bounds check.
func (p Page) Offset() int {
	if p.Number <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Number > maxOffset/p.Size {
		return maxOffset
	}
	return p.Number * p.Size
}

// Window returns [start, end) bounds of this page within a list of n elements.
// Pages past the end, and malformed pages, yield the empty window [n, n).
func (p Page) Window(n int) (start, end int) {
	if n <= 0 {
		return 0, 0
	}
	if p.Size <= 0 || p.Number < 0 || p.Number > n/p.Size {
		return n, n
	}
	start = p.Number * p.Size
	end = n
	if p.Size < n-start {
		end = start + p.Size
	}
	return start, end
}
