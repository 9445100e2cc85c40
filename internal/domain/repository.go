package domain

import "context"

// QuizRepository defines the persistence port for quizzes, questions
// and options.
type QuizRepository interface {
	// GetQuizByID retrieves a quiz by its ID, nil when absent
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)

	// GetQuestions returns a quiz's questions ordered by position
	GetQuestions(ctx context.Context, quizID string) ([]Question, error)

	// GetOptions returns the options of the given questions
	GetOptions(ctx context.Context, questionIDs []string) ([]Option, error)

	// SaveQuestion persists a new question
	SaveQuestion(ctx context.Context, question *Question) error

	// DeleteQuestion removes a question and its options
	DeleteQuestion(ctx context.Context, questionID string) error

	// UpdateQuestionWeight updates the weight of one question
	UpdateQuestionWeight(ctx context.Context, questionID string, weight float64) error

	// UpdateQuestionWeights persists a full weight distribution
	UpdateQuestionWeights(ctx context.Context, questions []Question) error

	// UpdateQuizScoring updates a quiz's maxScore and autoScoring flag
	UpdateQuizScoring(ctx context.Context, quizID string, maxScore float64, autoScoring bool) error

	// SetQuizPublication updates a quiz's access state and visibility
	// flag together, so the pair can never be observed half-updated
	SetQuizPublication(ctx context.Context, quizID string, state QuizState, visible bool) error
}

// ResultRepository defines the persistence port for grading results.
// SaveResult writes the parent record and all verdict records; callers
// run it inside TransactionManager.WithTransaction so a failed child
// write can never leave a parent referencing a partial verdict set.
type ResultRepository interface {
	SaveResult(ctx context.Context, result *GradingResult) error
	GetResultByID(ctx context.Context, id string) (*GradingResult, error)
}

// TransactionManager runs a function inside a storage transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
