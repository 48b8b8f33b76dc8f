package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

func TestSessionRepo_Create(t *testing.T) {
	pool := &mockPool{}
	repo := postgres.NewSessionRepo(pool)
	ctx := context.Background()

	pool.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.NewCommandTag("INSERT 0 1"), nil).Once()
	id, err := repo.Create(ctx, domain.Session{
		UserID: "u1", Topic: "Go", Status: domain.SessionInProgress, StartedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	pool.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.CommandTag{}, assert.AnError).Once()
	_, err = repo.Create(ctx, domain.Session{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=session.create")
}

func TestSessionRepo_Get_NotFound(t *testing.T) {
	pool := &mockPool{}
	repo := postgres.NewSessionRepo(pool)

	row := &mockRow{}
	row.On("Scan", mock.Anything).Return(pgx.ErrNoRows).Once()
	pool.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(row).Once()

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionRepo_Get(t *testing.T) {
	pool := &mockPool{}
	repo := postgres.NewSessionRepo(pool)

	row := &mockRow{}
	row.On("Scan", mock.Anything).Run(func(args mock.Arguments) {
		dest := args[0].([]any)
		*(dest[0].(*string)) = "sess-1"
		*(dest[1].(*string)) = "u1"
		*(dest[2].(*string)) = "Go"
		*(dest[3].(*domain.SessionStatus)) = domain.SessionInProgress
		*(dest[4].(*time.Time)) = time.Now().UTC()
		*(dest[5].(**time.Time)) = nil
		*(dest[6].(*[]byte)) = nil
	}).Return(nil).Once()
	pool.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(row).Once()

	s, err := repo.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", s.ID)
	assert.Equal(t, domain.SessionInProgress, s.Status)
}

func TestSessionRepo_UpdateStatus_NotFound(t *testing.T) {
	pool := &mockPool{}
	repo := postgres.NewSessionRepo(pool)

	pool.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.NewCommandTag("UPDATE 0"), nil).Once()
	now := time.Now().UTC()
	err := repo.UpdateStatus(context.Background(), "missing", domain.SessionCompleted, &now)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionRepo_CompleteStale(t *testing.T) {
	pool := &mockPool{}
	repo := postgres.NewSessionRepo(pool)

	pool.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.NewCommandTag("UPDATE 2"), nil).Once()
	n, err := repo.CompleteStale(context.Background(), "u1", time.Now().Add(-3*time.Hour), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSessionRepo_CountStartedSince(t *testing.T) {
	pool := &mockPool{}
	repo := postgres.NewSessionRepo(pool)

	row := &mockRow{}
	row.On("Scan", mock.Anything).Run(func(args mock.Arguments) {
		dest := args[0].([]any)
		*(dest[0].(*int64)) = int64(3)
	}).Return(nil).Once()
	pool.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(row).Once()

	n, err := repo.CountStartedSince(context.Background(), "u1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSessionRepo_ListInProgress(t *testing.T) {
	pool := &mockPool{}
	repo := postgres.NewSessionRepo(pool)

	rows := &mockRows{}
	count := 0
	rows.On("Next").Return(func() bool {
		count++
		return count <= 1
	}).Times(2)
	rows.On("Scan", mock.Anything).Run(func(args mock.Arguments) {
		dest := args[0].([]any)
		*(dest[0].(*string)) = "sess-1"
		*(dest[1].(*string)) = "u1"
		*(dest[2].(*string)) = ""
		*(dest[3].(*domain.SessionStatus)) = domain.SessionInProgress
		*(dest[4].(*time.Time)) = time.Now().UTC()
		*(dest[5].(**time.Time)) = nil
		*(dest[6].(*[]byte)) = nil
	}).Return(nil).Once()
	rows.On("Close").Return().Once()
	rows.On("Err").Return(nil).Once()
	pool.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(rows, nil).Once()

	out, err := repo.ListInProgress(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "sess-1", out[0].ID)
}
