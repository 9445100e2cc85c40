package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/repository/models"
	"quizforge/internal/util"

	"github.com/jmoiron/sqlx"
)

// ResultDatabaseAdapter implements domain.ResultRepository using sqlx.DB.
// SaveResult is written to run under a TransactionManager transaction:
// it performs one parent insert and N child inserts and relies on the
// surrounding transaction for the all-or-nothing guarantee the caller
// needs (the underlying store has no multi-row write atomicity of its
// own at this layer).
type ResultDatabaseAdapter struct {
	db *sqlx.DB
}

// NewResultDatabaseAdapter creates a new instance of ResultDatabaseAdapter
func NewResultDatabaseAdapter(db *sqlx.DB) domain.ResultRepository {
	return &ResultDatabaseAdapter{db: db}
}

// SaveResult implements domain.ResultRepository
func (a *ResultDatabaseAdapter) SaveResult(ctx context.Context, result *domain.GradingResult) error {
	if result == nil {
		return fmt.Errorf("cannot save nil grading result")
	}
	executor := GetExecutor(ctx, a.db)

	if result.ID == "" {
		result.ID = util.NewULID()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}

	parentQuery := `INSERT INTO quiz_responses (id, quiz_id, email, score, feedback, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := executor.ExecContext(ctx, parentQuery,
		result.ID,
		result.QuizID,
		result.Email,
		result.Score,
		util.StringToNullString(result.Feedback),
		result.CreatedAt,
	)
	if err != nil {
		return domain.NewPersistenceError("failed to save quiz response", err)
	}

	childQuery := `INSERT INTO question_responses (id, quiz_response_id, question_id, answer, is_correct, feedback, position, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for i, verdict := range result.Verdicts {
		_, err := executor.ExecContext(ctx, childQuery,
			util.NewULID(),
			result.ID,
			verdict.QuestionID,
			util.StringToNullString(verdict.Answer),
			verdict.IsCorrect,
			util.StringToNullString(verdict.Feedback),
			i,
			result.CreatedAt,
		)
		if err != nil {
			return domain.NewPersistenceError(
				fmt.Sprintf("failed to save question response for question %s", verdict.QuestionID), err)
		}
	}

	return nil
}

// GetResultByID implements domain.ResultRepository
func (a *ResultDatabaseAdapter) GetResultByID(ctx context.Context, id string) (*domain.GradingResult, error) {
	executor := GetExecutor(ctx, a.db)

	var parent models.QuizResponse
	parentQuery := `SELECT id, quiz_id, email, score, feedback, created_at
	FROM quiz_responses
	WHERE id = $1`

	err := executor.GetContext(ctx, &parent, parentQuery, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz response %s: %w", id, err)
	}

	var children []models.QuestionResponse
	childQuery := `SELECT id, quiz_response_id, question_id, answer, is_correct, feedback, position, created_at
	FROM question_responses
	WHERE quiz_response_id = $1
	ORDER BY position ASC`

	if err := executor.SelectContext(ctx, &children, childQuery, id); err != nil {
		return nil, fmt.Errorf("failed to get question responses for result %s: %w", id, err)
	}

	result := &domain.GradingResult{
		ID:        parent.ID,
		QuizID:    parent.QuizID,
		Email:     parent.Email,
		Score:     parent.Score,
		Feedback:  util.NullStringToString(parent.Feedback),
		CreatedAt: parent.CreatedAt,
	}
	for i := range children {
		result.Verdicts = append(result.Verdicts, domain.QuestionVerdict{
			QuestionID: children[i].QuestionID,
			Answer:     util.NullStringToString(children[i].Answer),
			IsCorrect:  children[i].IsCorrect,
			Feedback:   util.NullStringToString(children[i].Feedback),
		})
	}
	return result, nil
}
