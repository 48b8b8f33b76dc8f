package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

func TestAnswerRepo_Upsert(t *testing.T) {
	pool := &mockPool{}
	repo := postgres.NewAnswerRepo(pool)

	row := &mockRow{}
	row.On("Scan", mock.Anything).Run(func(args mock.Arguments) {
		dest := args[0].([]any)
		*(dest[0].(*string)) = "ans-1"
	}).Return(nil).Once()
	pool.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(row).Once()

	id, err := repo.Upsert(context.Background(), domain.Answer{
		QuestionID: "q1", UserID: "u1", Text: "answer", IsCode: false,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, "ans-1", id)
}

func TestAnswerRepo_Upsert_Error(t *testing.T) {
	pool := &mockPool{}
	repo := postgres.NewAnswerRepo(pool)

	row := &mockRow{}
	row.On("Scan", mock.Anything).Return(assert.AnError).Once()
	pool.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(row).Once()

	_, err := repo.Upsert(context.Background(), domain.Answer{QuestionID: "q1", UserID: "u1", Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=answer.upsert")
}

func TestAnswerRepo_ListBySession(t *testing.T) {
	pool := &mockPool{}
	repo := postgres.NewAnswerRepo(pool)

	rows := &mockRows{}
	count := 0
	rows.On("Next").Return(func() bool {
		count++
		return count <= 1
	}).Times(2)
	rows.On("Scan", mock.Anything).Run(func(args mock.Arguments) {
		dest := args[0].([]any)
		*(dest[0].(*string)) = "ans-1"
		*(dest[1].(*string)) = "q1"
		*(dest[2].(*string)) = "u1"
		*(dest[3].(*string)) = "my answer"
		*(dest[4].(*bool)) = true
		*(dest[5].(*string)) = "go"
		*(dest[6].(*time.Time)) = time.Now().UTC()
		*(dest[7].(*time.Time)) = time.Now().UTC()
	}).Return(nil).Once()
	rows.On("Close").Return().Once()
	rows.On("Err").Return(nil).Once()
	pool.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(rows, nil).Once()

	out, err := repo.ListBySession(context.Background(), "sess-1", "u1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsCode)
	assert.Equal(t, "go", out[0].Language)
}
