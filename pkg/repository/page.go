package repository

// InitValue marks a page count that has not been computed yet.
const InitValue int64 = -1

// DefaultPageSize is used when neither the page nor the configuration sets one.
const DefaultPageSize int64 = 10

// Page describes one page of a paginated read and, once read, carries its records.
// Build it with NewPage: the zero value claims a known total of 0 rows.
type Page[T any] struct {
	Records    []T   `json:"records" yaml:"records"`
	PageNumber int64 `json:"pageNumber" yaml:"pageNumber"`
	PageSize   int64 `json:"pageSize" yaml:"pageSize"`
	TotalPage  int64 `json:"totalPage" yaml:"totalPage"`
	TotalRow   int64 `json:"totalRow" yaml:"totalRow"`

	// RawCount counts over the untouched select instead of the
	// projection-stripped form.
	RawCount bool `json:"-" yaml:"-"`
}

// NewPage creates a page with an unknown total.
func NewPage[T any](pageNumber, pageSize int64) *Page[T] {
	return &Page[T]{
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalPage:  InitValue,
		TotalRow:   InitValue,
	}
}

// NewPageWithTotal creates a page whose total row count is already known.
func NewPageWithTotal[T any](pageNumber, pageSize, totalRow int64) *Page[T] {
	p := NewPage[T](pageNumber, pageSize)
	p.SetTotalRow(totalRow)
	return p
}

// Normalize clamps the page number to 1 and falls back to defaultSize for the page size.
func (p *Page[T]) Normalize(defaultSize int64) {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize < 1 {
		if defaultSize < 1 {
			defaultSize = DefaultPageSize
		}
		p.PageSize = defaultSize
	}
}

// Offset is the number of rows preceding this page.
func (p *Page[T]) Offset() int64 {
	if p.PageNumber <= 1 {
		return 0
	}
	return (p.PageNumber - 1) * p.PageSize
}

// TotalKnown reports whether the total row count was already set.
func (p *Page[T]) TotalKnown() bool {
	return p.TotalRow != InitValue
}

// SetTotalRow stores the total row count and derives the page count.
func (p *Page[T]) SetTotalRow(totalRow int64) {
	p.TotalRow = totalRow
	if totalRow < 0 || p.PageSize < 1 {
		p.TotalPage = InitValue
		return
	}
	p.TotalPage = totalRow / p.PageSize
	if totalRow%p.PageSize != 0 {
		p.TotalPage++
	}
}

// HasNext reports whether a page follows this one. It is false while the total is unknown.
func (p *Page[T]) HasNext() bool {
	return p.TotalPage > 0 && p.PageNumber < p.TotalPage
}
