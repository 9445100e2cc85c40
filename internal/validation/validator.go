package validation

import (
	"net/mail"
	"quizforge/internal/domain"
	"quizforge/internal/dto"
	"regexp"
	"strings"
)

const maxAnswerLength = 2000

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSubmission validates a quiz answer submission before grading
func (v *Validator) ValidateSubmission(req dto.SubmitAnswersRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.Email) == "" {
		errors = append(errors, domain.NewMissingFieldError("email"))
	} else if !isValidEmail(req.Email) {
		errors = append(errors, domain.NewInvalidFormatError("email", req.Email))
	}

	if strings.TrimSpace(req.QuizID) == "" {
		errors = append(errors, domain.NewMissingFieldError("quiz_id"))
	} else if !isValidULID(req.QuizID) {
		errors = append(errors, domain.NewInvalidFormatError("quiz_id", req.QuizID))
	}

	if len(req.Answers) == 0 {
		errors = append(errors, domain.NewMissingFieldError("answers"))
		return errors
	}

	for questionID, answer := range req.Answers {
		if strings.TrimSpace(questionID) == "" {
			errors = append(errors, domain.NewMissingFieldError("answers.question_id"))
			continue
		}
		if len(answer) > maxAnswerLength {
			errors = append(errors, domain.NewOutOfRangeError("answers."+questionID, len(answer), 0, maxAnswerLength))
		}
	}

	return errors
}

// ValidateWeightUpdate validates a question weight edit
func (v *Validator) ValidateWeightUpdate(quizID, questionID string, weight float64) domain.ValidationErrors {
	var errors domain.ValidationErrors

	errors = append(errors, v.validateID("quiz_id", quizID)...)
	errors = append(errors, v.validateID("question_id", questionID)...)

	if weight < domain.MinQuestionWeight {
		errors = append(errors, domain.NewBelowMinimumError("weight", domain.MinQuestionWeight))
	}

	return errors
}

// ValidateScoringConfig validates a scoring settings edit
func (v *Validator) ValidateScoringConfig(quizID string, req dto.ScoringConfigRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	errors = append(errors, v.validateID("quiz_id", quizID)...)

	if req.MaxScore == nil && req.AutoScoring == nil {
		errors = append(errors, domain.NewMissingFieldError("max_score"))
		return errors
	}

	if req.MaxScore != nil && *req.MaxScore <= 0 {
		errors = append(errors, domain.NewNegativeValueError("max_score"))
	}

	return errors
}

func (v *Validator) validateID(field, value string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(value) == "" {
		errors = append(errors, domain.NewMissingFieldError(field))
	} else if !isValidULID(value) {
		errors = append(errors, domain.NewInvalidFormatError(field, value))
	}

	return errors
}

// Helper functions for validation

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	// ULID is 26 characters long, base32 encoded
	if len(s) != 26 {
		return false
	}
	validULID := regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	return validULID.MatchString(s)
}

// isValidEmail checks if the string parses as an RFC 5322 address
func isValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
