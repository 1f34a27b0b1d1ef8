package reactive

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimburion/asyncrepo/pkg/repository"
)

// ErrNilPage is returned when a paginated read gets no page descriptor.
var ErrNilPage = repository.ErrNilPage

// Counter runs a count query.
type Counter func(ctx context.Context, query *repository.QueryWrapper) (int64, error)

// Paginator prepares the row window of a page.
type Paginator struct {
	// DefaultPageSize replaces page sizes below 1
	DefaultPageSize int64
	Count           Counter
}

// Window normalizes page, back-fills its total when the total is still the
// InitValue sentinel and queryTotal is set, and returns a copy of query bounded
// to the page. Bounds of query are restored before Window returns, on every path.
//
// Only the exact sentinel triggers a count: other negative totals are treated
// as known.
func Window[T any](
	ctx context.Context,
	p Paginator,
	page *repository.Page[T],
	query *repository.QueryWrapper,
	queryTotal bool,
) (*repository.QueryWrapper, error) {
	if page == nil {
		return nil, ErrNilPage
	}
	query = query.OrNew()
	page.Normalize(p.DefaultPageSize)

	restore := query.SaveBounds()
	defer restore()

	if page.TotalRow == repository.InitValue && queryTotal {
		countQuery := query.OptimizedCount()
		if page.RawCount {
			countQuery = query.RawCount()
		}
		countQuery.SetLimitRows(nil)
		countQuery.SetLimitOffset(nil)

		if p.Count == nil {
			return nil, errors.New("paginator has no counter")
		}
		total, err := p.Count(ctx, countQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to count page total: %w", err)
		}
		page.SetTotalRow(total)
	} else if page.TotalRow >= 0 && page.TotalPage < 0 {
		page.SetTotalRow(page.TotalRow)
	}

	query.Limit(page.Offset(), page.PageSize)
	return query.Clone(), nil
}
