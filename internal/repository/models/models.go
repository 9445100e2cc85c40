package models

import (
	"database/sql"
	"time"
)

// Quiz is the database model for quizzes
type Quiz struct {
	ID          string         `db:"id"`
	AuthorID    sql.NullString `db:"author_id"`
	Name        string         `db:"name"`
	Title       sql.NullString `db:"title"`
	Description sql.NullString `db:"description"`
	MaxScore    float64        `db:"max_score"`
	AutoScoring bool           `db:"auto_scoring"`
	State       string         `db:"state"`
	Visible     bool           `db:"visible"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// Question is the database model for questions
type Question struct {
	ID            string         `db:"id"`
	QuizID        string         `db:"quiz_id"`
	Title         string         `db:"title"`
	Description   sql.NullString `db:"description"`
	Type          string         `db:"type"`
	Weight        float64        `db:"weight"`
	Position      int            `db:"position"`
	CorrectAnswer sql.NullString `db:"correct_answer"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// Option is the database model for closed-question options
type Option struct {
	ID         string    `db:"id"`
	QuestionID string    `db:"question_id"`
	Title      string    `db:"title"`
	IsCorrect  bool      `db:"is_correct"`
	CreatedAt  time.Time `db:"created_at"`
}

// QuizResponse is the parent record of one graded submission
type QuizResponse struct {
	ID        string         `db:"id"`
	QuizID    string         `db:"quiz_id"`
	Email     string         `db:"email"`
	Score     float64        `db:"score"`
	Feedback  sql.NullString `db:"feedback"`
	CreatedAt time.Time      `db:"created_at"`
}

// QuestionResponse is one per-question verdict record
type QuestionResponse struct {
	ID             string         `db:"id"`
	QuizResponseID string         `db:"quiz_response_id"`
	QuestionID     string         `db:"question_id"`
	Answer         sql.NullString `db:"answer"`
	IsCorrect      bool           `db:"is_correct"`
	Feedback       sql.NullString `db:"feedback"`
	Position       int            `db:"position"`
	CreatedAt      time.Time      `db:"created_at"`
}
