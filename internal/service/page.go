package service

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Page is a normalized pagination request. The zero value means the first
// page at the default size.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps raw pagination input to sane bounds.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset returns the number of documents to skip.
func (p Page) Offset() int64 {
	n, s := p.normalized()
	return int64((n - 1) * s)
}

// Limit returns the page size as a query limit.
func (p Page) Limit() int64 {
	_, s := p.normalized()
	return int64(s)
}

func (p Page) normalized() (int, int) {
	n, s := p.Number, p.Size
	if n < 1 {
		n = 1
	}
	if s < 1 {
		s = defaultPageSize
	}
	if s > maxPageSize {
		s = maxPageSize
	}
	return n, s
}

// TotalPages computes the page count for a result total.
func (p Page) TotalPages(total int64) int64 {
	_, s := p.normalized()
	if total <= 0 {
		return 0
	}
	pages := total / int64(s)
	if total%int64(s) != 0 {
		pages++
	}
	return pages
}
