package domain

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput  ErrorCode = "INVALID_INPUT"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Quiz specific errors
	CodeQuizNotFound       ErrorCode = "QUIZ_NOT_FOUND"
	CodeQuestionNotFound   ErrorCode = "QUESTION_NOT_FOUND"
	CodeResultNotFound     ErrorCode = "RESULT_NOT_FOUND"
	CodeQuizNotPublished   ErrorCode = "QUIZ_NOT_PUBLISHED"
	CodeQuizNotReady       ErrorCode = "QUIZ_NOT_READY"
	CodeWeightOverBudget   ErrorCode = "WEIGHT_OVER_BUDGET"
	CodeJudgeServiceError  ErrorCode = "JUDGE_SERVICE_ERROR"
	CodePersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Context: e.Context,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithContext attaches a key/value pair to the error for the API response
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Helper functions for common errors

func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewQuizNotFoundError(quizID string) *DomainError {
	return NewError(CodeQuizNotFound, fmt.Sprintf("Quiz not found with ID: %s", quizID), nil)
}

func NewQuestionNotFoundError(questionID string) *DomainError {
	return NewError(CodeQuestionNotFound, fmt.Sprintf("Question not found with ID: %s", questionID), nil)
}

func NewResultNotFoundError(resultID string) *DomainError {
	return NewError(CodeResultNotFound, fmt.Sprintf("Grading result not found with ID: %s", resultID), nil)
}

func NewQuizNotPublishedError(quizID string) *DomainError {
	return NewError(CodeQuizNotPublished, fmt.Sprintf("Quiz %s is not published and cannot accept submissions", quizID), nil)
}

// NewQuizNotReadyError rejects an attempt to publish a quiz whose
// weight distribution is inconsistent. The reason carries the
// validation message so the author knows what to fix.
func NewQuizNotReadyError(quizID, reason string) *DomainError {
	err := NewError(CodeQuizNotReady,
		fmt.Sprintf("Quiz %s cannot be published until its weights are consistent", quizID), nil)
	return err.WithContext("reason", reason)
}

// NewWeightOverBudgetError reports a weight edit that would push the total
// past the quiz's maximum score. The surplus is included for the author.
func NewWeightOverBudgetError(total, maxScore float64) *DomainError {
	err := NewError(CodeWeightOverBudget,
		fmt.Sprintf("Question weights total %.2f exceeds the maximum score %.2f", total, maxScore), nil)
	return err.WithContext("surplus", Round2(total-maxScore))
}

func NewJudgeServiceError(cause error) *DomainError {
	return NewError(CodeJudgeServiceError, "Failed to process with judgment service", cause)
}

func NewPersistenceError(message string, cause error) *DomainError {
	return NewError(CodePersistenceFailure, message, cause)
}

// ValidationError describes a single invalid request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates field errors for one request
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", e[0].Error())
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "is required"}
}

func NewInvalidFormatError(field, value string) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("has invalid format: %s", value)}
}

func NewOutOfRangeError(field string, got, min, max int) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("length %d is out of range [%d, %d]", got, min, max)}
}

func NewNegativeValueError(field string) ValidationError {
	return ValidationError{Field: field, Message: "must not be negative"}
}

func NewBelowMinimumError(field string, min float64) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("must be at least %.2f", min)}
}
