package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"quizforge/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func sampleResult() *domain.GradingResult {
	return &domain.GradingResult{
		ID:       "res1",
		QuizID:   "quiz1",
		Email:    "student@example.com",
		Score:    60,
		Feedback: "Good effort overall.",
		Verdicts: []domain.QuestionVerdict{
			{QuestionID: "q1", Answer: "o1", IsCorrect: true, Feedback: "Right."},
			{QuestionID: "q2", Answer: "things fall", IsCorrect: false, Feedback: "Too vague."},
		},
		CreatedAt: time.Now(),
	}
}

func TestResultDatabaseAdapter_SaveResult(t *testing.T) {
	t.Run("writes one parent and all children", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewResultDatabaseAdapter(db)

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO quiz_responses`)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO question_responses`)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO question_responses`)).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.SaveResult(context.Background(), sampleResult())
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("child failure surfaces a persistence error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewResultDatabaseAdapter(db)

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO quiz_responses`)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO question_responses`)).
			WillReturnError(errors.New("disk full"))

		err := repo.SaveResult(context.Background(), sampleResult())
		var domainErr *domain.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodePersistenceFailure, domainErr.Code)
	})

	t.Run("assigns an ID when missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewResultDatabaseAdapter(db)

		result := sampleResult()
		result.ID = ""
		result.Verdicts = nil

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO quiz_responses`)).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.SaveResult(context.Background(), result)
		assert.NoError(t, err)
		assert.NotEmpty(t, result.ID)
	})
}

func TestResultDatabaseAdapter_GetResultByID(t *testing.T) {
	t.Run("found with verdicts in order", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewResultDatabaseAdapter(db)
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, quiz_id, email, score, feedback, created_at`)).
			WithArgs("res1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "quiz_id", "email", "score", "feedback", "created_at"}).
				AddRow("res1", "quiz1", "student@example.com", 60.0, "Good effort overall.", now))

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, quiz_response_id, question_id, answer, is_correct, feedback, position, created_at`)).
			WithArgs("res1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "quiz_response_id", "question_id", "answer", "is_correct", "feedback", "position", "created_at"}).
				AddRow("c1", "res1", "q1", "o1", true, "Right.", 0, now).
				AddRow("c2", "res1", "q2", "things fall", false, "Too vague.", 1, now))

		result, err := repo.GetResultByID(context.Background(), "res1")
		assert.NoError(t, err)
		assert.Equal(t, 60.0, result.Score)
		assert.Len(t, result.Verdicts, 2)
		assert.Equal(t, "q1", result.Verdicts[0].QuestionID)
		assert.True(t, result.Verdicts[0].IsCorrect)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent result returns nil", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewResultDatabaseAdapter(db)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, quiz_id, email, score, feedback, created_at`)).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		result, err := repo.GetResultByID(context.Background(), "nope")
		assert.NoError(t, err)
		assert.Nil(t, result)
	})
}
