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

// QuizDatabaseAdapter implements domain.QuizRepository using sqlx.DB
type QuizDatabaseAdapter struct {
	db *sqlx.DB
}

// NewQuizDatabaseAdapter creates a new instance of QuizDatabaseAdapter
func NewQuizDatabaseAdapter(db *sqlx.DB) domain.QuizRepository {
	return &QuizDatabaseAdapter{db: db}
}

func toDomainQuiz(m *models.Quiz) *domain.Quiz {
	if m == nil {
		return nil
	}
	return &domain.Quiz{
		ID:          m.ID,
		AuthorID:    util.NullStringToString(m.AuthorID),
		Name:        m.Name,
		Title:       util.NullStringToString(m.Title),
		Description: util.NullStringToString(m.Description),
		MaxScore:    m.MaxScore,
		AutoScoring: m.AutoScoring,
		State:       domain.QuizState(m.State),
		Visible:     m.Visible,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toDomainQuestion(m *models.Question) domain.Question {
	return domain.Question{
		ID:            m.ID,
		QuizID:        m.QuizID,
		Title:         m.Title,
		Description:   util.NullStringToString(m.Description),
		Type:          domain.QuestionType(m.Type),
		Weight:        m.Weight,
		Position:      m.Position,
		CorrectAnswer: util.NullStringToString(m.CorrectAnswer),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toDomainOption(m *models.Option) domain.Option {
	return domain.Option{
		ID:         m.ID,
		QuestionID: m.QuestionID,
		Title:      m.Title,
		IsCorrect:  m.IsCorrect,
		CreatedAt:  m.CreatedAt,
	}
}

// GetQuizByID implements domain.QuizRepository
func (a *QuizDatabaseAdapter) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	executor := GetExecutor(ctx, a.db)

	var modelQuiz models.Quiz
	query := `SELECT id, author_id, name, title, description, max_score, auto_scoring, state, visible, created_at, updated_at
	FROM quizzes
	WHERE id = $1`

	err := executor.GetContext(ctx, &modelQuiz, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by ID %s: %w", id, err)
	}
	return toDomainQuiz(&modelQuiz), nil
}

// GetQuestions implements domain.QuizRepository
func (a *QuizDatabaseAdapter) GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	executor := GetExecutor(ctx, a.db)

	var modelQuestions []models.Question
	query := `SELECT id, quiz_id, title, description, type, weight, position, correct_answer, created_at, updated_at
	FROM questions
	WHERE quiz_id = $1
	ORDER BY position ASC`

	if err := executor.SelectContext(ctx, &modelQuestions, query, quizID); err != nil {
		return nil, fmt.Errorf("failed to get questions for quiz %s: %w", quizID, err)
	}

	questions := make([]domain.Question, 0, len(modelQuestions))
	for i := range modelQuestions {
		questions = append(questions, toDomainQuestion(&modelQuestions[i]))
	}
	return questions, nil
}

// GetOptions implements domain.QuizRepository
func (a *QuizDatabaseAdapter) GetOptions(ctx context.Context, questionIDs []string) ([]domain.Option, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	executor := GetExecutor(ctx, a.db)

	query, args, err := sqlx.In(`SELECT id, question_id, title, is_correct, created_at
	FROM options
	WHERE question_id IN (?)`, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build options query: %w", err)
	}
	query = a.db.Rebind(query)

	var modelOptions []models.Option
	if err := executor.SelectContext(ctx, &modelOptions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get options: %w", err)
	}

	options := make([]domain.Option, 0, len(modelOptions))
	for i := range modelOptions {
		options = append(options, toDomainOption(&modelOptions[i]))
	}
	return options, nil
}

// SaveQuestion implements domain.QuizRepository
func (a *QuizDatabaseAdapter) SaveQuestion(ctx context.Context, question *domain.Question) error {
	if question == nil {
		return fmt.Errorf("cannot save nil question")
	}
	executor := GetExecutor(ctx, a.db)

	if question.ID == "" {
		question.ID = util.NewULID()
	}
	now := time.Now()
	question.CreatedAt = now
	question.UpdatedAt = now

	query := `INSERT INTO questions (id, quiz_id, title, description, type, weight, position, correct_answer, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := executor.ExecContext(ctx, query,
		question.ID,
		question.QuizID,
		question.Title,
		util.StringToNullString(question.Description),
		string(question.Type),
		question.Weight,
		question.Position,
		util.StringToNullString(question.CorrectAnswer),
		question.CreatedAt,
		question.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save question: %w", err)
	}
	return nil
}

// DeleteQuestion implements domain.QuizRepository
func (a *QuizDatabaseAdapter) DeleteQuestion(ctx context.Context, questionID string) error {
	executor := GetExecutor(ctx, a.db)

	if _, err := executor.ExecContext(ctx, `DELETE FROM options WHERE question_id = $1`, questionID); err != nil {
		return fmt.Errorf("failed to delete options of question %s: %w", questionID, err)
	}
	if _, err := executor.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, questionID); err != nil {
		return fmt.Errorf("failed to delete question %s: %w", questionID, err)
	}
	return nil
}

// UpdateQuestionWeight implements domain.QuizRepository
func (a *QuizDatabaseAdapter) UpdateQuestionWeight(ctx context.Context, questionID string, weight float64) error {
	executor := GetExecutor(ctx, a.db)

	result, err := executor.ExecContext(ctx,
		`UPDATE questions SET weight = $1, updated_at = $2 WHERE id = $3`,
		weight, time.Now(), questionID)
	if err != nil {
		return fmt.Errorf("failed to update weight of question %s: %w", questionID, err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return domain.NewQuestionNotFoundError(questionID)
	}
	return nil
}

// UpdateQuestionWeights implements domain.QuizRepository
func (a *QuizDatabaseAdapter) UpdateQuestionWeights(ctx context.Context, questions []domain.Question) error {
	executor := GetExecutor(ctx, a.db)

	now := time.Now()
	for _, q := range questions {
		if _, err := executor.ExecContext(ctx,
			`UPDATE questions SET weight = $1, updated_at = $2 WHERE id = $3`,
			q.Weight, now, q.ID); err != nil {
			return fmt.Errorf("failed to update weight of question %s: %w", q.ID, err)
		}
	}
	return nil
}

// UpdateQuizScoring implements domain.QuizRepository
func (a *QuizDatabaseAdapter) UpdateQuizScoring(ctx context.Context, quizID string, maxScore float64, autoScoring bool) error {
	executor := GetExecutor(ctx, a.db)

	result, err := executor.ExecContext(ctx,
		`UPDATE quizzes SET max_score = $1, auto_scoring = $2, updated_at = $3 WHERE id = $4`,
		maxScore, autoScoring, time.Now(), quizID)
	if err != nil {
		return fmt.Errorf("failed to update scoring of quiz %s: %w", quizID, err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return domain.NewQuizNotFoundError(quizID)
	}
	return nil
}

// SetQuizPublication implements domain.QuizRepository
func (a *QuizDatabaseAdapter) SetQuizPublication(ctx context.Context, quizID string, state domain.QuizState, visible bool) error {
	executor := GetExecutor(ctx, a.db)

	result, err := executor.ExecContext(ctx,
		`UPDATE quizzes SET state = $1, visible = $2, updated_at = $3 WHERE id = $4`,
		string(state), visible, time.Now(), quizID)
	if err != nil {
		return fmt.Errorf("failed to update visibility of quiz %s: %w", quizID, err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return domain.NewQuizNotFoundError(quizID)
	}
	return nil
}
