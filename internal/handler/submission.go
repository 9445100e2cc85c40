package handler

import (
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"quizforge/internal/service"
	"quizforge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SubmissionHandler handles answer submission and result retrieval
type SubmissionHandler struct {
	grading   service.GradingService
	validator *validation.Validator
}

// NewSubmissionHandler creates a new SubmissionHandler instance
func NewSubmissionHandler(grading service.GradingService, validator *validation.Validator) *SubmissionHandler {
	return &SubmissionHandler{
		grading:   grading,
		validator: validator,
	}
}

// SubmitAnswers handles POST /api/submissions
func (h *SubmissionHandler) SubmitAnswers(c *fiber.Ctx) error {
	var req dto.SubmitAnswersRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("malformed request body")
	}
	if errs := h.validator.ValidateSubmission(req); len(errs) > 0 {
		return errs
	}

	resp, err := h.grading.Evaluate(c.UserContext(), domain.Submission{
		Email:   req.Email,
		QuizID:  req.QuizID,
		Answers: req.Answers,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetResult handles GET /api/results/:resultId
func (h *SubmissionHandler) GetResult(c *fiber.Ctx) error {
	resultID := c.Params("resultId")
	if resultID == "" {
		return domain.NewInvalidInputError("result id is required")
	}

	resp, err := h.grading.GetResult(c.UserContext(), resultID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
