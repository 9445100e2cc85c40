package service

import (
	"context"
	"fmt"

	"quizforge/internal/cache"
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/logger"
	"quizforge/internal/util"

	"go.uber.org/zap"
)

// WeightService covers everything an author does to a quiz's scoring
// setup: max score, scoring mode, per-question weights and the derived
// publish readiness.
type WeightService interface {
	// UpdateScoring changes the quiz's max score and/or scoring mode.
	// Nil fields are left untouched. Switching to or staying in
	// automatic mode redistributes all weights evenly.
	UpdateScoring(ctx context.Context, quizID string, maxScore *float64, autoScoring *bool) (*dto.ReadinessResponse, error)

	// UpdateQuestionWeight applies one manual weight edit. The edit is
	// rejected when the quiz scores automatically or when the new total
	// would exceed the max score.
	UpdateQuestionWeight(ctx context.Context, quizID, questionID string, weight float64) (*dto.ReadinessResponse, error)

	// RemainingCapacity reports how much weight one question may still
	// take before the distribution exceeds the max score.
	RemainingCapacity(ctx context.Context, quizID, questionID string) (*dto.RemainingCapacityResponse, error)

	// GetReadiness returns the current publish readiness of a quiz.
	GetReadiness(ctx context.Context, quizID string) (*dto.ReadinessResponse, error)

	// AddQuestion appends a question to the quiz.
	AddQuestion(ctx context.Context, quizID string, req dto.CreateQuestionRequest) (*dto.ReadinessResponse, error)

	// RemoveQuestion deletes a question from the quiz.
	RemoveQuestion(ctx context.Context, quizID, questionID string) (*dto.ReadinessResponse, error)

	// SetVisibility publishes or hides a quiz. Publishing is allowed
	// only while the weight distribution is ready; a not-ready quiz is
	// rejected with the validation message attached.
	SetVisibility(ctx context.Context, quizID string, visible bool, state domain.QuizState) (*dto.ReadinessResponse, error)
}

type weightService struct {
	quizRepo  domain.QuizRepository
	txManager domain.TransactionManager
	cache     domain.Cache
}

// NewWeightService creates a new weight service
func NewWeightService(quizRepo domain.QuizRepository, txManager domain.TransactionManager, cacheClient domain.Cache) WeightService {
	return &weightService{
		quizRepo:  quizRepo,
		txManager: txManager,
		cache:     cacheClient,
	}
}

func (s *weightService) UpdateScoring(ctx context.Context, quizID string, maxScore *float64, autoScoring *bool) (*dto.ReadinessResponse, error) {
	quiz, questions, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if maxScore != nil {
		quiz.MaxScore = domain.Round2(*maxScore)
	}
	if autoScoring != nil {
		quiz.AutoScoring = *autoScoring
	}
	if quiz.MaxScore <= 0 {
		return nil, domain.NewInvalidInputError("max score must be positive")
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quizRepo.UpdateQuizScoring(txCtx, quizID, quiz.MaxScore, quiz.AutoScoring); err != nil {
			return err
		}
		if quiz.AutoScoring {
			questions = domain.NormalizeWeights(questions, quiz.MaxScore)
			if err := s.quizRepo.UpdateQuestionWeights(txCtx, questions); err != nil {
				return err
			}
		}
		return s.enforceReadiness(txCtx, quiz, questions)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSnapshot(ctx, quizID)
	return s.toReadinessResponse(quiz, questions), nil
}

func (s *weightService) UpdateQuestionWeight(ctx context.Context, quizID, questionID string, weight float64) (*dto.ReadinessResponse, error) {
	quiz, questions, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.AutoScoring {
		return nil, domain.NewInvalidInputError("weights are distributed automatically; disable auto scoring to edit them")
	}

	updated, err := domain.UpdateWeight(questions, questionID, weight, quiz.MaxScore)
	if err != nil {
		return nil, err
	}
	questions = updated

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quizRepo.UpdateQuestionWeight(txCtx, questionID, domain.Round2(weight)); err != nil {
			return err
		}
		return s.enforceReadiness(txCtx, quiz, questions)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSnapshot(ctx, quizID)
	return s.toReadinessResponse(quiz, questions), nil
}

func (s *weightService) RemainingCapacity(ctx context.Context, quizID, questionID string) (*dto.RemainingCapacityResponse, error) {
	quiz, questions, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if _, ok := findQuestion(questions, questionID); !ok {
		return nil, domain.NewQuestionNotFoundError(questionID)
	}

	return &dto.RemainingCapacityResponse{
		QuizID:     quizID,
		QuestionID: questionID,
		Remaining:  domain.RemainingCapacity(questions, questionID, quiz.MaxScore),
	}, nil
}

func (s *weightService) GetReadiness(ctx context.Context, quizID string) (*dto.ReadinessResponse, error) {
	quiz, questions, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return s.toReadinessResponse(quiz, questions), nil
}

func (s *weightService) AddQuestion(ctx context.Context, quizID string, req dto.CreateQuestionRequest) (*dto.ReadinessResponse, error) {
	quiz, questions, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	question := domain.Question{
		ID:            util.NewULID(),
		QuizID:        quizID,
		Title:         req.Title,
		Description:   req.Description,
		Type:          domain.QuestionType(req.Type),
		Weight:        domain.Round2(req.Weight),
		Position:      len(questions) + 1,
		CorrectAnswer: req.CorrectAnswer,
	}
	if err := question.Validate(); err != nil {
		return nil, err
	}

	questions = append(questions, question)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quizRepo.SaveQuestion(txCtx, &question); err != nil {
			return err
		}
		if quiz.AutoScoring {
			questions = domain.NormalizeWeights(questions, quiz.MaxScore)
			if err := s.quizRepo.UpdateQuestionWeights(txCtx, questions); err != nil {
				return err
			}
		}
		return s.enforceReadiness(txCtx, quiz, questions)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSnapshot(ctx, quizID)
	return s.toReadinessResponse(quiz, questions), nil
}

func (s *weightService) RemoveQuestion(ctx context.Context, quizID, questionID string) (*dto.ReadinessResponse, error) {
	quiz, questions, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	idx, ok := findQuestion(questions, questionID)
	if !ok {
		return nil, domain.NewQuestionNotFoundError(questionID)
	}
	questions = append(questions[:idx:idx], questions[idx+1:]...)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quizRepo.DeleteQuestion(txCtx, questionID); err != nil {
			return err
		}
		if quiz.AutoScoring && len(questions) > 0 {
			questions = domain.NormalizeWeights(questions, quiz.MaxScore)
			if err := s.quizRepo.UpdateQuestionWeights(txCtx, questions); err != nil {
				return err
			}
		}
		return s.enforceReadiness(txCtx, quiz, questions)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSnapshot(ctx, quizID)
	return s.toReadinessResponse(quiz, questions), nil
}

func (s *weightService) SetVisibility(ctx context.Context, quizID string, visible bool, state domain.QuizState) (*dto.ReadinessResponse, error) {
	quiz, questions, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if !visible {
		state = domain.StatePrivate
	} else {
		report := domain.EvaluateReadiness(*quiz, questions)
		if !report.IsReady() {
			return nil, domain.NewQuizNotReadyError(quizID, report.Message)
		}
		if state == "" {
			state = domain.StatePublic
		}
		if state == domain.StatePrivate {
			return nil, domain.NewInvalidInputError("a visible quiz must be public or exclusive")
		}
		if state != domain.StatePublic && state != domain.StateExclusive {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown quiz state: %s", state))
		}
	}

	if err := s.quizRepo.SetQuizPublication(ctx, quizID, state, visible); err != nil {
		return nil, err
	}
	quiz.State = state
	quiz.Visible = visible

	logger.Get().Info("Quiz publication changed",
		zap.String("quiz_id", quizID),
		zap.String("state", string(state)),
		zap.Bool("visible", visible),
	)

	s.invalidateSnapshot(ctx, quizID)
	return s.toReadinessResponse(quiz, questions), nil
}

// loadQuiz fetches the quiz and its questions, failing with a not-found
// error when the quiz does not exist.
func (s *weightService) loadQuiz(ctx context.Context, quizID string) (*domain.Quiz, []domain.Question, error) {
	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	if quiz == nil {
		return nil, nil, domain.NewQuizNotFoundError(quizID)
	}
	questions, err := s.quizRepo.GetQuestions(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	return quiz, questions, nil
}

// enforceReadiness re-derives the publish state after an edit and
// forces a no-longer-ready quiz out of sight and back to private. A
// quiz never becomes visible here; publishing goes through
// SetVisibility, the only path that may set the flag true.
func (s *weightService) enforceReadiness(ctx context.Context, quiz *domain.Quiz, questions []domain.Question) error {
	report := domain.EvaluateReadiness(*quiz, questions)
	if !report.IsReady() && (quiz.Visible || quiz.State != domain.StatePrivate) {
		logger.Get().Info("Hiding quiz with inconsistent weight distribution",
			zap.String("quiz_id", quiz.ID),
			zap.String("reason", report.Message),
		)
		if err := s.quizRepo.SetQuizPublication(ctx, quiz.ID, domain.StatePrivate, false); err != nil {
			return err
		}
		quiz.State = domain.StatePrivate
		quiz.Visible = false
	}
	return nil
}

// invalidateSnapshot drops the cached grading snapshot so the next
// submission sees the edited quiz. A cache failure is not fatal; the
// snapshot expires on its own TTL.
func (s *weightService) invalidateSnapshot(ctx context.Context, quizID string) {
	key := cache.GenerateCacheKey("grading", "snapshot", quizID)
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.Get().Warn("Failed to invalidate quiz snapshot cache",
			zap.String("quiz_id", quizID),
			zap.Error(err),
		)
	}
}

func (s *weightService) toReadinessResponse(quiz *domain.Quiz, questions []domain.Question) *dto.ReadinessResponse {
	report := domain.EvaluateReadiness(*quiz, questions)

	weights := make([]dto.QuestionWeightResponse, len(questions))
	for i, q := range questions {
		weights[i] = dto.QuestionWeightResponse{
			QuestionID: q.ID,
			Title:      q.Title,
			Type:       string(q.Type),
			Position:   q.Position,
			Weight:     q.Weight,
		}
	}

	return &dto.ReadinessResponse{
		QuizID:      quiz.ID,
		Ready:       report.IsReady(),
		Message:     report.Message,
		Total:       report.Total,
		MaxScore:    quiz.MaxScore,
		AutoScoring: quiz.AutoScoring,
		State:       string(quiz.State),
		Visible:     quiz.Visible,
		Weights:     weights,
	}
}

func findQuestion(questions []domain.Question, questionID string) (int, bool) {
	for i, q := range questions {
		if q.ID == questionID {
			return i, true
		}
	}
	return -1, false
}
