package domain

import (
	"time"
)

// QuizState controls who can reach a quiz
type QuizState string

const (
	StatePublic    QuizState = "public"
	StatePrivate   QuizState = "private"
	StateExclusive QuizState = "exclusive"
)

// QuestionType is the grading strategy tag for a question
type QuestionType string

const (
	// QuestionClosed is answered by picking one predefined option
	QuestionClosed QuestionType = "closed"
	// QuestionOpen is free text, graded by the judgment service
	QuestionOpen QuestionType = "open"
)

// Quiz represents a quiz in the domain
type Quiz struct {
	ID          string
	AuthorID    string
	Name        string
	Title       string
	Description string
	MaxScore    float64
	AutoScoring bool
	State       QuizState
	Visible     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate validates the quiz
func (q *Quiz) Validate() error {
	if q.Title == "" && q.Name == "" {
		return NewInvalidInputError("quiz title is required")
	}
	if q.MaxScore < 0 {
		return NewInvalidInputError("max score must not be negative")
	}
	return nil
}

// Question represents a single question inside a quiz
type Question struct {
	ID            string
	QuizID        string
	Title         string
	Description   string
	Type          QuestionType
	Weight        float64
	Position      int
	CorrectAnswer string // reference answer or idea, open questions only
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate validates the question
func (q *Question) Validate() error {
	if q.QuizID == "" {
		return NewInvalidInputError("quiz ID is required")
	}
	if q.Title == "" {
		return NewInvalidInputError("question title is required")
	}
	if q.Type != QuestionClosed && q.Type != QuestionOpen {
		return NewInvalidInputError("question type must be closed or open")
	}
	if q.Weight < 0 {
		return NewInvalidInputError("question weight must not be negative")
	}
	return nil
}

// Option represents one selectable answer of a closed question
type Option struct {
	ID         string
	QuestionID string
	Title      string
	IsCorrect  bool
	CreatedAt  time.Time
}

// Submission is the raw answer set a respondent sends in. It is an
// ephemeral input and is never persisted as-is.
type Submission struct {
	Email   string
	QuizID  string
	Answers map[string]string // question ID -> option ID (closed) or free text (open)
}

// QuestionVerdict is the per-question outcome of grading
type QuestionVerdict struct {
	QuestionID string
	Answer     string
	IsCorrect  bool
	Feedback   string
}

// GradingResult is the persisted outcome of one submission.
// It is immutable once saved; later weight edits never rescore it.
type GradingResult struct {
	ID        string
	Email     string
	QuizID    string
	Score     float64
	Feedback  string
	Verdicts  []QuestionVerdict
	CreatedAt time.Time
}

// NewGradingResult creates a result shell for a submission
func NewGradingResult(email, quizID string) *GradingResult {
	return &GradingResult{
		Email:     email,
		QuizID:    quizID,
		CreatedAt: time.Now(),
	}
}

// QuizSnapshot is the read-only quiz/question/weight state captured at
// submission time. Grading always works against a snapshot so that
// concurrent author edits cannot change an in-flight run.
type QuizSnapshot struct {
	Quiz      Quiz
	Questions []Question
	Options   map[string][]Option // keyed by question ID
}

// OptionsFor returns the option set of one question
func (s *QuizSnapshot) OptionsFor(questionID string) []Option {
	if s.Options == nil {
		return nil
	}
	return s.Options[questionID]
}

// QuestionByID looks a question up inside the snapshot
func (s *QuizSnapshot) QuestionByID(questionID string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return Question{}, false
}
