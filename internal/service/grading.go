package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quizforge/internal/cache"
	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// degradedFeedback marks an open answer whose judgment call failed.
// The question scores zero and the respondent is told to expect a
// manual pass instead of silently losing the answer.
const degradedFeedback = "ungraded - manual review required"

// fallbackOverallFeedback replaces the narrative when the batched
// feedback call itself fails. Scores are already final at that point.
const fallbackOverallFeedback = "Your submission has been graded. Detailed feedback is unavailable right now."

// GradingService grades submissions and serves stored results.
type GradingService interface {
	// Evaluate grades one submission end to end and persists the
	// outcome. Closed questions are matched locally; open questions go
	// to the judgment service with bounded concurrency.
	Evaluate(ctx context.Context, submission domain.Submission) (*dto.GradingResultResponse, error)

	// GetResult returns a previously stored grading result.
	GetResult(ctx context.Context, resultID string) (*dto.GradingResultResponse, error)
}

type gradingService struct {
	quizRepo   domain.QuizRepository
	resultRepo domain.ResultRepository
	txManager  domain.TransactionManager
	judge      domain.AnswerJudge
	cache      domain.Cache
	cfg        config.GradingConfig
}

// NewGradingService creates a new grading service
func NewGradingService(
	quizRepo domain.QuizRepository,
	resultRepo domain.ResultRepository,
	txManager domain.TransactionManager,
	judge domain.AnswerJudge,
	cacheClient domain.Cache,
	cfg config.GradingConfig,
) GradingService {
	return &gradingService{
		quizRepo:   quizRepo,
		resultRepo: resultRepo,
		txManager:  txManager,
		judge:      judge,
		cache:      cacheClient,
		cfg:        cfg,
	}
}

func (s *gradingService) Evaluate(ctx context.Context, submission domain.Submission) (*dto.GradingResultResponse, error) {
	pipeCtx, cancel := context.WithTimeout(ctx, s.cfg.PipelineTimeout)
	defer cancel()

	start := time.Now()
	log := logger.Get()

	snapshot, err := s.getSnapshot(pipeCtx, submission.QuizID)
	if err != nil {
		return nil, err
	}
	// Public and exclusive quizzes accept submissions while visible;
	// a private quiz never does, whatever its flag claims.
	if !snapshot.Quiz.Visible || snapshot.Quiz.State == domain.StatePrivate {
		return nil, domain.NewQuizNotPublishedError(submission.QuizID)
	}

	verdicts := s.gradeQuestions(pipeCtx, snapshot, submission)
	score := scoreOf(snapshot.Questions, verdicts)

	feedback := s.synthesizeFeedback(pipeCtx, snapshot, submission, verdicts, score)
	s.reconcile(snapshot, verdicts, feedback)
	score = scoreOf(snapshot.Questions, verdicts)

	result := domain.NewGradingResult(submission.Email, submission.QuizID)
	result.Score = score
	result.Feedback = feedback.Overall
	result.Verdicts = verdicts

	// The pipeline ceiling bounds the judgment calls, not the save.
	// A submission that exhausted the ceiling already holds degraded
	// verdicts, and those must still reach storage.
	err = s.txManager.WithTransaction(context.WithoutCancel(ctx), func(txCtx context.Context) error {
		return s.resultRepo.SaveResult(txCtx, result)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Graded submission",
		zap.String("quiz_id", submission.QuizID),
		zap.String("result_id", result.ID),
		zap.Float64("score", result.Score),
		zap.Duration("elapsed", time.Since(start)),
	)

	return toResultResponse(result, snapshot.Quiz.MaxScore), nil
}

func (s *gradingService) GetResult(ctx context.Context, resultID string) (*dto.GradingResultResponse, error) {
	result, err := s.resultRepo.GetResultByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, domain.NewResultNotFoundError(resultID)
	}

	// A result outlives its quiz. When the quiz cannot be loaded the
	// stored result is still served, with an unknown maximum score.
	var maxScore float64
	quiz, err := s.quizRepo.GetQuizByID(ctx, result.QuizID)
	switch {
	case err != nil:
		logger.Get().Warn("Could not load quiz for stored result",
			zap.String("result_id", resultID),
			zap.String("quiz_id", result.QuizID),
			zap.Error(err),
		)
	case quiz != nil:
		maxScore = quiz.MaxScore
	}

	return toResultResponse(result, maxScore), nil
}

// gradeQuestions produces one verdict per snapshot question, in
// snapshot order. Closed questions are graded locally; open questions
// fan out to the judgment service, at most MaxConcurrentJudgeCalls at
// a time. A failed judgment call degrades its own question to
// incorrect and never disturbs its siblings.
func (s *gradingService) gradeQuestions(ctx context.Context, snapshot *domain.QuizSnapshot, submission domain.Submission) []domain.QuestionVerdict {
	verdicts := make([]domain.QuestionVerdict, len(snapshot.Questions))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrentJudgeCalls)

	for i, question := range snapshot.Questions {
		i, question := i, question
		rawAnswer := submission.Answers[question.ID]

		if question.Type == domain.QuestionClosed {
			options := snapshot.OptionsFor(question.ID)
			answerText := domain.ChosenOptionTitle(options, rawAnswer)
			if answerText == "" {
				answerText = rawAnswer
			}
			verdicts[i] = domain.QuestionVerdict{
				QuestionID: question.ID,
				Answer:     answerText,
				IsCorrect:  domain.ClassifyChoice(question, options, rawAnswer),
			}
			continue
		}

		verdicts[i] = domain.QuestionVerdict{
			QuestionID: question.ID,
			Answer:     rawAnswer,
		}
		if rawAnswer == "" {
			continue
		}

		g.Go(func() error {
			correct, err := s.judge.JudgeAnswer(gCtx, domain.JudgeRequest{
				QuestionText:    question.Title,
				UserAnswer:      rawAnswer,
				ReferenceAnswer: question.CorrectAnswer,
			})
			if err != nil {
				logger.Get().Warn("Judgment call failed, degrading question",
					zap.String("question_id", question.ID),
					zap.Error(err),
				)
				verdicts[i].Feedback = degradedFeedback
				return nil
			}
			verdicts[i].IsCorrect = correct
			return nil
		})
	}

	// Worker errors are swallowed per question; Wait only propagates
	// context cancellation, which the degraded verdicts already cover.
	_ = g.Wait()

	return verdicts
}

// synthesizeFeedback issues the single batched narrative call. On
// failure every verdict keeps its mechanical outcome and the overall
// narrative falls back to a generic message.
func (s *gradingService) synthesizeFeedback(ctx context.Context, snapshot *domain.QuizSnapshot, submission domain.Submission, verdicts []domain.QuestionVerdict, score float64) *domain.Feedback {
	reviews := make([]domain.QuestionReview, len(snapshot.Questions))
	for i, question := range snapshot.Questions {
		review := domain.QuestionReview{
			QuestionID: question.ID,
			Question:   question.Title,
			Type:       question.Type,
			UserAnswer: verdicts[i].Answer,
			IsCorrect:  verdicts[i].IsCorrect,
			Weight:     question.Weight,
		}
		if question.Type == domain.QuestionClosed {
			review.CorrectAnswer = domain.CorrectOptionTitle(snapshot.OptionsFor(question.ID))
		} else {
			review.CorrectAnswer = question.CorrectAnswer
		}
		reviews[i] = review
	}

	feedback, err := s.judge.SynthesizeFeedback(ctx, domain.FeedbackRequest{
		Reviews:  reviews,
		Score:    score,
		MaxScore: snapshot.Quiz.MaxScore,
	})
	if err != nil {
		logger.Get().Warn("Feedback synthesis failed, using fallback narrative",
			zap.String("quiz_id", submission.QuizID),
			zap.Error(err),
		)
		return &domain.Feedback{Overall: fallbackOverallFeedback}
	}
	return feedback
}

// reconcile folds the narrative feedback into the verdicts. Closed
// questions keep their mechanical verdict no matter what the narrative
// claims; open questions adopt the judgment service's correctness
// opinion when it returned one.
func (s *gradingService) reconcile(snapshot *domain.QuizSnapshot, verdicts []domain.QuestionVerdict, feedback *domain.Feedback) {
	for i, question := range snapshot.Questions {
		qf, ok := feedback.ForQuestion(question.ID)
		if !ok {
			continue
		}
		if qf.Feedback != "" && verdicts[i].Feedback != degradedFeedback {
			verdicts[i].Feedback = qf.Feedback
		}
		if question.Type == domain.QuestionOpen && qf.HasVerdict && verdicts[i].Feedback != degradedFeedback {
			verdicts[i].IsCorrect = qf.IsCorrect
		}
	}
}

// getSnapshot loads the quiz state grading runs against, preferring the
// cached copy. The snapshot is immutable for the rest of the pipeline,
// so a concurrent author edit cannot change an in-flight run.
func (s *gradingService) getSnapshot(ctx context.Context, quizID string) (*domain.QuizSnapshot, error) {
	key := cache.GenerateCacheKey("grading", "snapshot", quizID)
	log := logger.Get()

	if cached, err := s.cache.Get(ctx, key); err == nil {
		var snapshot domain.QuizSnapshot
		if err := json.Unmarshal([]byte(cached), &snapshot); err == nil {
			return &snapshot, nil
		}
		log.Warn("Discarding unreadable quiz snapshot cache entry", zap.String("quiz_id", quizID))
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		log.Warn("Quiz snapshot cache read failed", zap.String("quiz_id", quizID), zap.Error(err))
	}

	quiz, err := s.quizRepo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}

	questions, err := s.quizRepo.GetQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}

	var closedIDs []string
	for _, q := range questions {
		if q.Type == domain.QuestionClosed {
			closedIDs = append(closedIDs, q.ID)
		}
	}

	optionsByQuestion := make(map[string][]domain.Option)
	if len(closedIDs) > 0 {
		options, err := s.quizRepo.GetOptions(ctx, closedIDs)
		if err != nil {
			return nil, err
		}
		for _, opt := range options {
			optionsByQuestion[opt.QuestionID] = append(optionsByQuestion[opt.QuestionID], opt)
		}
	}

	snapshot := &domain.QuizSnapshot{
		Quiz:      *quiz,
		Questions: questions,
		Options:   optionsByQuestion,
	}

	if payload, err := json.Marshal(snapshot); err == nil {
		if err := s.cache.Set(ctx, key, string(payload), s.cfg.SnapshotCacheTTL); err != nil {
			log.Warn("Quiz snapshot cache write failed", zap.String("quiz_id", quizID), zap.Error(err))
		}
	}

	return snapshot, nil
}

// scoreOf sums the weights of correctly answered questions.
func scoreOf(questions []domain.Question, verdicts []domain.QuestionVerdict) float64 {
	var total float64
	for i, q := range questions {
		if verdicts[i].IsCorrect {
			total += q.Weight
		}
	}
	return domain.Round2(total)
}

func toResultResponse(result *domain.GradingResult, maxScore float64) *dto.GradingResultResponse {
	responses := make([]dto.QuestionVerdictResponse, len(result.Verdicts))
	for i, v := range result.Verdicts {
		responses[i] = dto.QuestionVerdictResponse{
			QuestionID: v.QuestionID,
			Answer:     v.Answer,
			IsCorrect:  v.IsCorrect,
			Feedback:   v.Feedback,
		}
	}
	return &dto.GradingResultResponse{
		ID:       result.ID,
		Email:    result.Email,
		QuizID:   result.QuizID,
		Score:    result.Score,
		MaxScore: maxScore,
		Feedback: result.Feedback,
		Results:  responses,
	}
}
