package sqldb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nimburion/asyncrepo/pkg/observability/logger"
	"github.com/nimburion/asyncrepo/pkg/repository"
)

func newMockAdapter(t *testing.T, cfg Config) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, repository.DialectPostgres, "PostgreSQL", cfg, logger.NewNopLogger()), mock
}

func TestOpen_RequiresURL(t *testing.T) {
	if _, err := Open("postgres", "", repository.DialectPostgres, "PostgreSQL", Config{}, logger.NewNopLogger()); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestWithTransaction(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(a *Adapter) func(ctx context.Context) error
		setup   func(mock sqlmock.Sqlmock)
		wantErr bool
	}{
		{
			name: "commit on success",
			fn: func(a *Adapter) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					if _, ok := GetTx(ctx); !ok {
						return errors.New("no transaction in context")
					}
					_, err := a.ExecContext(ctx, "DELETE FROM users WHERE id = $1", 1)
					return err
				}
			},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("DELETE FROM users").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "rollback on error",
			fn: func(a *Adapter) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					return errors.New("boom")
				}
			},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			wantErr: true,
		},
		{
			name: "nested call joins outer transaction",
			fn: func(a *Adapter) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					outer, _ := GetTx(ctx)
					return a.WithTransaction(ctx, func(inner context.Context) error {
						if tx, _ := GetTx(inner); tx != outer {
							return errors.New("nested call opened a new transaction")
						}
						return nil
					})
				}
			},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, mock := newMockAdapter(t, Config{})
			tt.setup(mock)

			err := a.WithTransaction(context.Background(), tt.fn(a))
			if (err != nil) != tt.wantErr {
				t.Fatalf("WithTransaction() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestWithTransaction_RollbackOnPanic(t *testing.T) {
	a, mock := newMockAdapter(t, Config{})
	mock.ExpectBegin()
	mock.ExpectRollback()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic to propagate")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	}()

	_ = a.WithTransaction(context.Background(), func(ctx context.Context) error {
		panic("boom")
	})
}

func TestQueryContext_RowsOutliveQueryTimeout(t *testing.T) {
	a, mock := newMockAdapter(t, Config{QueryTimeout: time.Millisecond})
	mock.ExpectQuery("SELECT id FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

	rows, err := a.QueryContext(context.Background(), "SELECT id FROM users")
	if err != nil {
		t.Fatalf("QueryContext() error = %v", err)
	}
	defer rows.Close()

	time.Sleep(5 * time.Millisecond)
	n := 0
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil || n != 2 {
		t.Fatalf("read %d rows, err %v; want 2 rows", n, err)
	}
}

func TestWithQueryTimeout(t *testing.T) {
	a := &Adapter{config: Config{QueryTimeout: 2 * time.Second}}

	ctx, cancel := a.withQueryTimeout(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected deadline from query timeout")
	}
	if remaining := time.Until(deadline); remaining <= 0 || remaining > 2*time.Second {
		t.Fatalf("unexpected remaining timeout: %v", remaining)
	}

	parent, parentCancel := context.WithTimeout(context.Background(), time.Hour)
	defer parentCancel()
	ctx, cancel = a.withQueryTimeout(parent)
	defer cancel()
	if d, _ := ctx.Deadline(); time.Until(d) < time.Minute {
		t.Fatal("existing deadline was replaced")
	}
}

func TestHealthCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()
	a := New(db, repository.DialectMySQL, "MySQL", Config{}, logger.NewNopLogger())

	mock.ExpectPing()
	if err := a.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}

	mock.ExpectPing().WillReturnError(errors.New("down"))
	if err := a.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check failure")
	}
}
