package postgres_test

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// Hand-written doubles for the narrow pgx surface the repos touch.

type mockPool struct{ mock.Mock }

func (m *mockPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ret := m.Called(ctx, sql, args)
	return ret.Get(0).(pgconn.CommandTag), ret.Error(1)
}

func (m *mockPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ret := m.Called(ctx, sql, args)
	return ret.Get(0).(pgx.Row)
}

func (m *mockPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ret := m.Called(ctx, sql, args)
	if v := ret.Get(0); v != nil {
		return v.(pgx.Rows), ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *mockPool) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	ret := m.Called(ctx, txOptions)
	if v := ret.Get(0); v != nil {
		return v.(pgx.Tx), ret.Error(1)
	}
	return nil, ret.Error(1)
}

type mockRow struct{ mock.Mock }

func (m *mockRow) Scan(dest ...any) error {
	return m.Called(dest).Error(0)
}

type mockRows struct{ mock.Mock }

func (m *mockRows) Next() bool {
	ret := m.Called()
	if f, ok := ret.Get(0).(func() bool); ok {
		return f()
	}
	return ret.Bool(0)
}

func (m *mockRows) Scan(dest ...any) error { return m.Called(dest).Error(0) }

func (m *mockRows) Err() error { return m.Called().Error(0) }

func (m *mockRows) Close() { m.Called() }

func (m *mockRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (m *mockRows) Values() ([]any, error) { return nil, nil }

func (m *mockRows) RawValues() [][]byte { return nil }

func (m *mockRows) Conn() *pgx.Conn { return nil }

type mockTx struct{ mock.Mock }

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	ret := m.Called(ctx)
	if v := ret.Get(0); v != nil {
		return v.(pgx.Tx), ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *mockTx) Commit(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *mockTx) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *mockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ret := m.Called(ctx, sql, args)
	return ret.Get(0).(pgconn.CommandTag), ret.Error(1)
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ret := m.Called(ctx, sql, args)
	if v := ret.Get(0); v != nil {
		return v.(pgx.Rows), ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.Called(ctx, sql, args).Get(0).(pgx.Row)
}

func (m *mockTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not used")
}
func (m *mockTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { panic("not used") }

func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not used") }
func (m *mockTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not used")
}
func (m *mockTx) Conn() *pgx.Conn { return nil }
