package reactive

import (
	"context"
	"errors"
	"sync"

	"github.com/nimburion/asyncrepo/pkg/repository"
)

type item struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

var errBoom = errors.New("boom")

// sliceCursor yields items, then fails with failErr once failAt items were read.
type sliceCursor struct {
	items    []item
	pos      int
	failAt   int
	failErr  error
	closeErr error

	err    error
	nexts  int
	closes int
}

func newSliceCursor(items ...item) *sliceCursor {
	return &sliceCursor{items: items, failAt: -1}
}

func (c *sliceCursor) Next() bool {
	c.nexts++
	if c.failAt >= 0 && c.pos >= c.failAt {
		c.err = c.failErr
		return false
	}
	if c.pos >= len(c.items) {
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Get() (item, error) { return c.items[c.pos-1], nil }
func (c *sliceCursor) Err() error         { return c.err }

func (c *sliceCursor) Close() error {
	c.closes++
	return c.closeErr
}

// recordingTM counts transaction scopes and their outcome.
type recordingTM struct {
	mu         sync.Mutex
	begun      int
	committed  int
	rolledBack int
}

func (tm *recordingTM) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tm.mu.Lock()
	tm.begun++
	tm.mu.Unlock()

	err := fn(ctx)

	tm.mu.Lock()
	defer tm.mu.Unlock()
	if err != nil {
		tm.rolledBack++
	} else {
		tm.committed++
	}
	return err
}

// fakeMapper implements the Mapper methods the tests exercise. Calling any
// other method panics on the nil embedded interface.
type fakeMapper struct {
	repository.Mapper[item, int64]

	mu      sync.Mutex
	calls   []string
	queries []*repository.QueryWrapper

	failInsertID int64
	rows         []item
	cursor       *sliceCursor
	cursorErr    error
	count        int64
	countErr     error
	deleted      int64
}

func (m *fakeMapper) record(call string, q *repository.QueryWrapper) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	if q != nil {
		m.queries = append(m.queries, q.Clone())
	}
}

func (m *fakeMapper) callCount(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *fakeMapper) Insert(_ context.Context, e *item, _ bool) (int64, error) {
	m.record("insert", nil)
	if m.failInsertID != 0 && e.ID == m.failInsertID {
		return 0, errBoom
	}
	return 1, nil
}

func (m *fakeMapper) Update(_ context.Context, e *item, _ bool) (int64, error) {
	m.record("update", nil)
	return 1, nil
}

func (m *fakeMapper) InsertOrUpdate(_ context.Context, e *item, _ bool) (int64, error) {
	m.record("upsert", nil)
	return 1, nil
}

func (m *fakeMapper) DeleteByQuery(_ context.Context, q *repository.QueryWrapper) (int64, error) {
	m.record("delete_by_query", q)
	if q == nil || !q.HasConditions() {
		return 0, repository.ErrEmptyCondition
	}
	return m.deleted, nil
}

func (m *fakeMapper) SelectCountByQuery(_ context.Context, q *repository.QueryWrapper) (int64, error) {
	m.record("count", q)
	return m.count, m.countErr
}

func (m *fakeMapper) SelectObjectListByQuery(_ context.Context, q *repository.QueryWrapper) ([]any, error) {
	m.record("object_list", q)
	var out []any
	for _, r := range m.rows {
		out = append(out, r.ID)
		if rows := q.LimitRows(); rows != nil && int64(len(out)) >= *rows {
			break
		}
	}
	return out, nil
}

func (m *fakeMapper) SelectOneByID(_ context.Context, id int64) (*item, error) {
	m.record("select_one_by_id", nil)
	for _, r := range m.rows {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *fakeMapper) SelectCursorByQuery(_ context.Context, q *repository.QueryWrapper) (repository.Cursor[item], error) {
	m.record("cursor", q)
	if m.cursorErr != nil {
		return nil, m.cursorErr
	}
	if m.cursor != nil {
		return m.cursor, nil
	}
	return newSliceCursor(m.rows...), nil
}

func items(n int) []item {
	out := make([]item, n)
	for i := range out {
		out[i] = item{ID: int64(i + 1), Name: string(rune('a' + i))}
	}
	return out
}
