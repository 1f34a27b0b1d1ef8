package reactive

import (
	"context"

	"github.com/nimburion/asyncrepo/pkg/observability/tracing"
	"github.com/nimburion/asyncrepo/pkg/repository"
)

// GetOneAs decodes the first row matching query into R.
func GetOneAs[R any, T any, ID comparable](s *Service[T, ID], query *repository.QueryWrapper) Mono[R] {
	return instrumentedOptional(s.in, "get_one_as", tracing.SpanOperationDBQuery, func(ctx context.Context) (*R, error) {
		row, err := s.mapper.SelectRowByQuery(ctx, query)
		if err != nil || row == nil {
			return nil, err
		}
		r, err := repository.Decode[R](row)
		if err != nil {
			return nil, err
		}
		return &r, nil
	})
}

// GetObjectAs converts the first column of the first matching row into R.
func GetObjectAs[R any, T any, ID comparable](s *Service[T, ID], query *repository.QueryWrapper) Mono[R] {
	return instrumentedOptional(s.in, "get_object_as", tracing.SpanOperationDBQuery, func(ctx context.Context) (*R, error) {
		v, err := s.mapper.SelectObjectByQuery(ctx, query)
		if err != nil || v == nil {
			return nil, err
		}
		r, err := repository.Decode[R](v)
		if err != nil {
			return nil, err
		}
		return &r, nil
	})
}

// GetObjectListOnceAs converts the first column of every matching row into R.
func GetObjectListOnceAs[R any, T any, ID comparable](s *Service[T, ID], query *repository.QueryWrapper) Mono[[]R] {
	return instrumentedMono(s.in, "get_object_list_as", tracing.SpanOperationDBQuery, func(ctx context.Context) ([]R, error) {
		objects, err := s.mapper.SelectObjectListByQuery(ctx, query)
		if err != nil {
			return nil, err
		}
		out := make([]R, 0, len(objects))
		for _, v := range objects {
			r, err := repository.Decode[R](v)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, nil
	})
}

// ListAs streams the rows matching query decoded into R.
func ListAs[R any, T any, ID comparable](s *Service[T, ID], query *repository.QueryWrapper) Flux[R] {
	return listAs[R](s, "list_as", query.OrNew())
}

func listAs[R any, T any, ID comparable](s *Service[T, ID], operation string, query *repository.QueryWrapper) Flux[R] {
	return CursorToFlux(s.tm, func(ctx context.Context) (repository.Cursor[R], error) {
		rows, err := s.mapper.SelectRowCursorByQuery(ctx, query)
		if err != nil {
			return nil, err
		}
		return repository.DecodeCursor[R](rows), nil
	}, s.streamOptions(operation)...)
}

// PageOnceAs reads page in one call with its rows decoded into R. The total is
// counted when it is still unknown.
func PageOnceAs[R any, T any, ID comparable](s *Service[T, ID], page *repository.Page[R], query *repository.QueryWrapper) Mono[*repository.Page[R]] {
	return MonoFromCallable(func(ctx context.Context) (*repository.Page[R], error) {
		window, err := Window(ctx, s.paginator("page_once_as"), page, query, true)
		if err != nil {
			return nil, err
		}
		page.Records = []R{}
		if page.TotalRow == 0 {
			return page, nil
		}
		records, err := listAs[R](s, "page_once_as", window).Collect(ctx)
		if err != nil {
			return nil, err
		}
		if records != nil {
			page.Records = records
		}
		return page, nil
	})
}
