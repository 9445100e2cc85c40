package service

import (
	"context"
	"errors"
	"testing"

	"quizforge/internal/domain"
	"quizforge/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func sampleQuiz(autoScoring, visible bool) *domain.Quiz {
	return &domain.Quiz{
		ID:          "quiz1",
		AuthorID:    "author1",
		Title:       "Networking basics",
		MaxScore:    100,
		AutoScoring: autoScoring,
		State:       domain.StatePublic,
		Visible:     visible,
	}
}

func sampleQuestions(weights ...float64) []domain.Question {
	questions := make([]domain.Question, len(weights))
	for i, w := range weights {
		questions[i] = domain.Question{
			ID:       []string{"q1", "q2", "q3", "q4"}[i],
			QuizID:   "quiz1",
			Title:    "question",
			Type:     domain.QuestionOpen,
			Weight:   w,
			Position: i + 1,
		}
	}
	return questions
}

func newWeightService(quizRepo *MockQuizRepository) WeightService {
	return NewWeightService(quizRepo, passthroughTxManager{}, newFakeCache())
}

func TestUpdateQuestionWeight(t *testing.T) {
	t.Run("accepts an in-budget edit", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(false, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(40, 40, 20), nil)
		quizRepo.On("UpdateQuestionWeight", mock.Anything, "q3", 20.0).Return(nil)

		svc := newWeightService(quizRepo)
		resp, err := svc.UpdateQuestionWeight(context.Background(), "quiz1", "q3", 20)

		assert.NoError(t, err)
		assert.True(t, resp.Ready)
		assert.Equal(t, 100.0, resp.Total)
		quizRepo.AssertExpectations(t)
	})

	t.Run("rejects an over-budget edit without persisting", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(false, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(40, 40, 20), nil)

		svc := newWeightService(quizRepo)
		_, err := svc.UpdateQuestionWeight(context.Background(), "quiz1", "q3", 30)

		var domainErr *domain.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeWeightOverBudget, domainErr.Code)
		quizRepo.AssertNotCalled(t, "UpdateQuestionWeight", mock.Anything, mock.Anything, mock.Anything)
		quizRepo.AssertNotCalled(t, "SetQuizPublication", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("an under-budget edit hides a visible quiz", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(false, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(40, 40, 20), nil)
		quizRepo.On("UpdateQuestionWeight", mock.Anything, "q3", 5.0).Return(nil)
		quizRepo.On("SetQuizPublication", mock.Anything, "quiz1", domain.StatePrivate, false).Return(nil)

		svc := newWeightService(quizRepo)
		resp, err := svc.UpdateQuestionWeight(context.Background(), "quiz1", "q3", 5)

		assert.NoError(t, err)
		assert.False(t, resp.Ready)
		assert.Contains(t, resp.Message, "under")
		assert.False(t, resp.Visible)
		quizRepo.AssertExpectations(t)
	})

	t.Run("rejects edits while auto scoring is on", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(true, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(50, 50), nil)

		svc := newWeightService(quizRepo)
		_, err := svc.UpdateQuestionWeight(context.Background(), "quiz1", "q1", 70)

		var domainErr *domain.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
	})

	t.Run("unknown quiz", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "missing").Return(nil, nil)

		svc := newWeightService(quizRepo)
		_, err := svc.UpdateQuestionWeight(context.Background(), "missing", "q1", 10)

		var domainErr *domain.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeQuizNotFound, domainErr.Code)
	})
}

func TestUpdateScoring(t *testing.T) {
	t.Run("enabling auto scoring redistributes evenly", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(false, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(70, 20, 10), nil)
		quizRepo.On("UpdateQuizScoring", mock.Anything, "quiz1", 100.0, true).Return(nil)
		quizRepo.On("UpdateQuestionWeights", mock.Anything, mock.MatchedBy(func(questions []domain.Question) bool {
			for _, q := range questions {
				if q.Weight != 33.33 {
					return false
				}
			}
			return len(questions) == 3
		})).Return(nil)

		svc := newWeightService(quizRepo)
		auto := true
		resp, err := svc.UpdateScoring(context.Background(), "quiz1", nil, &auto)

		assert.NoError(t, err)
		assert.True(t, resp.Ready)
		assert.True(t, resp.AutoScoring)
		quizRepo.AssertExpectations(t)
	})

	t.Run("raising max score under manual weights hides the quiz", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(false, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(50, 50), nil)
		quizRepo.On("UpdateQuizScoring", mock.Anything, "quiz1", 120.0, false).Return(nil)
		quizRepo.On("SetQuizPublication", mock.Anything, "quiz1", domain.StatePrivate, false).Return(nil)

		svc := newWeightService(quizRepo)
		maxScore := 120.0
		resp, err := svc.UpdateScoring(context.Background(), "quiz1", &maxScore, nil)

		assert.NoError(t, err)
		assert.False(t, resp.Ready)
		assert.False(t, resp.Visible)
		quizRepo.AssertExpectations(t)
	})

	t.Run("rejects a non-positive max score", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(false, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(50, 50), nil)

		svc := newWeightService(quizRepo)
		maxScore := 0.0
		_, err := svc.UpdateScoring(context.Background(), "quiz1", &maxScore, nil)

		var domainErr *domain.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
		quizRepo.AssertNotCalled(t, "UpdateQuizScoring", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetReadiness(t *testing.T) {
	t.Run("over-budget distribution names the surplus", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(false, false), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(60, 45), nil)

		svc := newWeightService(quizRepo)
		resp, err := svc.GetReadiness(context.Background(), "quiz1")

		assert.NoError(t, err)
		assert.False(t, resp.Ready)
		assert.Contains(t, resp.Message, "5.00 over")
		assert.Equal(t, 105.0, resp.Total)
	})

	t.Run("auto scoring is always ready", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(true, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(33.33, 33.33, 33.33), nil)

		svc := newWeightService(quizRepo)
		resp, err := svc.GetReadiness(context.Background(), "quiz1")

		assert.NoError(t, err)
		assert.True(t, resp.Ready)
	})
}

func TestSetVisibility(t *testing.T) {
	t.Run("publishes a ready quiz", func(t *testing.T) {
		quiz := sampleQuiz(false, false)
		quiz.State = domain.StatePrivate
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(quiz, nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(60, 40), nil)
		quizRepo.On("SetQuizPublication", mock.Anything, "quiz1", domain.StatePublic, true).Return(nil)

		svc := newWeightService(quizRepo)
		resp, err := svc.SetVisibility(context.Background(), "quiz1", true, "")

		assert.NoError(t, err)
		assert.True(t, resp.Visible)
		assert.Equal(t, string(domain.StatePublic), resp.State)
		quizRepo.AssertExpectations(t)
	})

	t.Run("publishes as exclusive when asked", func(t *testing.T) {
		quiz := sampleQuiz(true, false)
		quiz.State = domain.StatePrivate
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(quiz, nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(50, 50), nil)
		quizRepo.On("SetQuizPublication", mock.Anything, "quiz1", domain.StateExclusive, true).Return(nil)

		svc := newWeightService(quizRepo)
		resp, err := svc.SetVisibility(context.Background(), "quiz1", true, domain.StateExclusive)

		assert.NoError(t, err)
		assert.Equal(t, string(domain.StateExclusive), resp.State)
	})

	t.Run("refuses to publish an inconsistent distribution", func(t *testing.T) {
		quiz := sampleQuiz(false, false)
		quiz.State = domain.StatePrivate
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(quiz, nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(60, 45), nil)

		svc := newWeightService(quizRepo)
		_, err := svc.SetVisibility(context.Background(), "quiz1", true, "")

		var domainErr *domain.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeQuizNotReady, domainErr.Code)
		assert.Contains(t, domainErr.Context["reason"], "over")
		quizRepo.AssertNotCalled(t, "SetQuizPublication", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("hiding a quiz forces it private", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(false, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(60, 40), nil)
		quizRepo.On("SetQuizPublication", mock.Anything, "quiz1", domain.StatePrivate, false).Return(nil)

		svc := newWeightService(quizRepo)
		resp, err := svc.SetVisibility(context.Background(), "quiz1", false, "")

		assert.NoError(t, err)
		assert.False(t, resp.Visible)
		assert.Equal(t, string(domain.StatePrivate), resp.State)
	})

	t.Run("a visible quiz cannot be private", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(false, false), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(60, 40), nil)

		svc := newWeightService(quizRepo)
		_, err := svc.SetVisibility(context.Background(), "quiz1", true, domain.StatePrivate)

		var domainErr *domain.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
	})
}

func TestRemainingCapacity(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(false, true), nil)
	quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(40, 40, 5), nil)

	svc := newWeightService(quizRepo)
	resp, err := svc.RemainingCapacity(context.Background(), "quiz1", "q3")

	assert.NoError(t, err)
	assert.Equal(t, 20.0, resp.Remaining)

	_, err = svc.RemainingCapacity(context.Background(), "quiz1", "nope")
	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeQuestionNotFound, domainErr.Code)
}

func TestAddQuestion(t *testing.T) {
	t.Run("auto scoring renormalizes over the new set", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(true, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(50, 50), nil)
		quizRepo.On("SaveQuestion", mock.Anything, mock.MatchedBy(func(q *domain.Question) bool {
			return q.QuizID == "quiz1" && q.Position == 3 && q.ID != ""
		})).Return(nil)
		quizRepo.On("UpdateQuestionWeights", mock.Anything, mock.MatchedBy(func(questions []domain.Question) bool {
			for _, q := range questions {
				if q.Weight != 33.33 {
					return false
				}
			}
			return len(questions) == 3
		})).Return(nil)

		svc := newWeightService(quizRepo)
		resp, err := svc.AddQuestion(context.Background(), "quiz1", addQuestionRequest())

		assert.NoError(t, err)
		assert.Len(t, resp.Weights, 3)
		quizRepo.AssertExpectations(t)
	})

	t.Run("invalid question type", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(true, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(50, 50), nil)

		svc := newWeightService(quizRepo)
		req := addQuestionRequest()
		req.Type = "essay"
		_, err := svc.AddQuestion(context.Background(), "quiz1", req)

		assert.Error(t, err)
		quizRepo.AssertNotCalled(t, "SaveQuestion", mock.Anything, mock.Anything)
	})
}

func TestRemoveQuestion(t *testing.T) {
	t.Run("removes and renormalizes", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(true, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(33.33, 33.33, 33.33), nil)
		quizRepo.On("DeleteQuestion", mock.Anything, "q2").Return(nil)
		quizRepo.On("UpdateQuestionWeights", mock.Anything, mock.MatchedBy(func(questions []domain.Question) bool {
			return len(questions) == 2 && questions[0].Weight == 50.0 && questions[1].Weight == 50.0
		})).Return(nil)

		svc := newWeightService(quizRepo)
		resp, err := svc.RemoveQuestion(context.Background(), "quiz1", "q2")

		assert.NoError(t, err)
		assert.Len(t, resp.Weights, 2)
		quizRepo.AssertExpectations(t)
	})

	t.Run("unknown question", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(false, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(50, 50), nil)

		svc := newWeightService(quizRepo)
		_, err := svc.RemoveQuestion(context.Background(), "quiz1", "nope")

		var domainErr *domain.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeQuestionNotFound, domainErr.Code)
		quizRepo.AssertNotCalled(t, "DeleteQuestion", mock.Anything, mock.Anything)
	})

	t.Run("repository failure surfaces", func(t *testing.T) {
		quizRepo := new(MockQuizRepository)
		quizRepo.On("GetQuizByID", mock.Anything, "quiz1").Return(sampleQuiz(false, true), nil)
		quizRepo.On("GetQuestions", mock.Anything, "quiz1").Return(sampleQuestions(50, 50), nil)
		quizRepo.On("DeleteQuestion", mock.Anything, "q1").Return(errors.New("db down"))

		svc := newWeightService(quizRepo)
		_, err := svc.RemoveQuestion(context.Background(), "quiz1", "q1")

		assert.Error(t, err)
	})
}

func addQuestionRequest() dto.CreateQuestionRequest {
	return dto.CreateQuestionRequest{
		Title:         "What does TCP stand for",
		Type:          "open",
		CorrectAnswer: "Transmission Control Protocol",
	}
}
