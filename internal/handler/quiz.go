package handler

import (
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/service"
	"quizforge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// QuizHandler handles the author-facing scoring endpoints
type QuizHandler struct {
	weights   service.WeightService
	validator *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(weights service.WeightService, validator *validation.Validator) *QuizHandler {
	return &QuizHandler{
		weights:   weights,
		validator: validator,
	}
}

// GetReadiness handles GET /api/quizzes/:quizId/readiness
func (h *QuizHandler) GetReadiness(c *fiber.Ctx) error {
	quizID := c.Params("quizId")

	resp, err := h.weights.GetReadiness(c.UserContext(), quizID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// UpdateScoring handles PATCH /api/quizzes/:quizId/scoring
func (h *QuizHandler) UpdateScoring(c *fiber.Ctx) error {
	quizID := c.Params("quizId")

	var req dto.ScoringConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("malformed request body")
	}
	if errs := h.validator.ValidateScoringConfig(quizID, req); len(errs) > 0 {
		return errs
	}

	resp, err := h.weights.UpdateScoring(c.UserContext(), quizID, req.MaxScore, req.AutoScoring)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SetVisibility handles PUT /api/quizzes/:quizId/visibility
func (h *QuizHandler) SetVisibility(c *fiber.Ctx) error {
	quizID := c.Params("quizId")

	var req dto.VisibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("malformed request body")
	}
	if req.Visible == nil {
		return domain.ValidationErrors{domain.NewMissingFieldError("visible")}
	}

	resp, err := h.weights.SetVisibility(c.UserContext(), quizID, *req.Visible, domain.QuizState(req.State))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// UpdateQuestionWeight handles PUT /api/quizzes/:quizId/questions/:questionId/weight
func (h *QuizHandler) UpdateQuestionWeight(c *fiber.Ctx) error {
	quizID := c.Params("quizId")
	questionID := c.Params("questionId")

	var req dto.UpdateWeightRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("malformed request body")
	}
	if errs := h.validator.ValidateWeightUpdate(quizID, questionID, req.Weight); len(errs) > 0 {
		return errs
	}

	resp, err := h.weights.UpdateQuestionWeight(c.UserContext(), quizID, questionID, req.Weight)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetRemainingCapacity handles GET /api/quizzes/:quizId/questions/:questionId/remaining-capacity
func (h *QuizHandler) GetRemainingCapacity(c *fiber.Ctx) error {
	quizID := c.Params("quizId")
	questionID := c.Params("questionId")

	resp, err := h.weights.RemainingCapacity(c.UserContext(), quizID, questionID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// AddQuestion handles POST /api/quizzes/:quizId/questions
func (h *QuizHandler) AddQuestion(c *fiber.Ctx) error {
	quizID := c.Params("quizId")

	var req dto.CreateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("malformed request body")
	}

	resp, err := h.weights.AddQuestion(c.UserContext(), quizID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// RemoveQuestion handles DELETE /api/quizzes/:quizId/questions/:questionId
func (h *QuizHandler) RemoveQuestion(c *fiber.Ctx) error {
	quizID := c.Params("quizId")
	questionID := c.Params("questionId")

	resp, err := h.weights.RemoveQuestion(c.UserContext(), quizID, questionID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
