package service

import (
	"context"
	"time"

	"quizforge/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quiz), args.Error(1)
}

func (m *MockQuizRepository) GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Question), args.Error(1)
}

func (m *MockQuizRepository) GetOptions(ctx context.Context, questionIDs []string) ([]domain.Option, error) {
	args := m.Called(ctx, questionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Option), args.Error(1)
}

func (m *MockQuizRepository) SaveQuestion(ctx context.Context, question *domain.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuizRepository) DeleteQuestion(ctx context.Context, questionID string) error {
	args := m.Called(ctx, questionID)
	return args.Error(0)
}

func (m *MockQuizRepository) UpdateQuestionWeight(ctx context.Context, questionID string, weight float64) error {
	args := m.Called(ctx, questionID, weight)
	return args.Error(0)
}

func (m *MockQuizRepository) UpdateQuestionWeights(ctx context.Context, questions []domain.Question) error {
	args := m.Called(ctx, questions)
	return args.Error(0)
}

func (m *MockQuizRepository) UpdateQuizScoring(ctx context.Context, quizID string, maxScore float64, autoScoring bool) error {
	args := m.Called(ctx, quizID, maxScore, autoScoring)
	return args.Error(0)
}

func (m *MockQuizRepository) SetQuizPublication(ctx context.Context, quizID string, state domain.QuizState, visible bool) error {
	args := m.Called(ctx, quizID, state, visible)
	return args.Error(0)
}

type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) SaveResult(ctx context.Context, result *domain.GradingResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultRepository) GetResultByID(ctx context.Context, id string) (*domain.GradingResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GradingResult), args.Error(1)
}

type MockAnswerJudge struct {
	mock.Mock
}

func (m *MockAnswerJudge) JudgeAnswer(ctx context.Context, req domain.JudgeRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

func (m *MockAnswerJudge) SynthesizeFeedback(ctx context.Context, req domain.FeedbackRequest) (*domain.Feedback, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Feedback), args.Error(1)
}

// passthroughTxManager runs the function without a real transaction.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// deadlineTxManager refuses to start when its context is already done,
// the way a real database driver would.
type deadlineTxManager struct{}

func (deadlineTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return domain.NewPersistenceError("failed to begin transaction", err)
	}
	return fn(ctx)
}

// fakeCache is an in-memory domain.Cache for tests.
type fakeCache struct {
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	value, ok := c.data[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return value, nil
}

func (c *fakeCache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error {
	return nil
}
