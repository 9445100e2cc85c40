package dto

// SubmitAnswersRequest is one respondent's completed answer set
// @Description Request body for submitting quiz answers
type SubmitAnswersRequest struct {
	Email   string            `json:"email"`
	QuizID  string            `json:"quiz_id"`
	Answers map[string]string `json:"answers"` // question ID -> option ID or free text
}

// QuestionVerdictResponse is one graded question in the API response
type QuestionVerdictResponse struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"is_correct"`
	Feedback   string `json:"feedback"`
}

// GradingResultResponse is the grading outcome returned to the respondent
// @Description Grading result with score and narrative feedback
type GradingResultResponse struct {
	ID       string                    `json:"id"`
	Email    string                    `json:"email"`
	QuizID   string                    `json:"quiz_id"`
	Score    float64                   `json:"score"`
	MaxScore float64                   `json:"max_score"`
	Feedback string                    `json:"feedback"`
	Results  []QuestionVerdictResponse `json:"results"`
}

// UpdateWeightRequest edits one question's weight
type UpdateWeightRequest struct {
	Weight float64 `json:"weight"`
}

// ScoringConfigRequest edits a quiz's scoring settings. Pointer fields
// distinguish "not provided" from zero values.
type ScoringConfigRequest struct {
	MaxScore    *float64 `json:"max_score,omitempty"`
	AutoScoring *bool    `json:"auto_scoring,omitempty"`
}

// VisibilityRequest publishes or hides a quiz. State is optional and
// only meaningful when publishing; it defaults to public.
type VisibilityRequest struct {
	Visible *bool  `json:"visible"`
	State   string `json:"state,omitempty"`
}

// QuestionWeightResponse is one question's weight in the API response
type QuestionWeightResponse struct {
	QuestionID string  `json:"question_id"`
	Title      string  `json:"title"`
	Type       string  `json:"type"`
	Position   int     `json:"position"`
	Weight     float64 `json:"weight"`
}

// ReadinessResponse reports whether a quiz's weight configuration is
// publishable, and why not when it is not
type ReadinessResponse struct {
	QuizID      string                   `json:"quiz_id"`
	Ready       bool                     `json:"ready"`
	Message     string                   `json:"message,omitempty"`
	Total       float64                  `json:"total"`
	MaxScore    float64                  `json:"max_score"`
	AutoScoring bool                     `json:"auto_scoring"`
	State       string                   `json:"state"`
	Visible     bool                     `json:"visible"`
	Weights     []QuestionWeightResponse `json:"weights,omitempty"`
}

// RemainingCapacityResponse tells the author how much weight one
// question may still take
type RemainingCapacityResponse struct {
	QuizID     string  `json:"quiz_id"`
	QuestionID string  `json:"question_id"`
	Remaining  float64 `json:"remaining"`
}

// CreateQuestionRequest adds a question to a quiz
type CreateQuestionRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	Type          string  `json:"type"`
	Weight        float64 `json:"weight,omitempty"`
	CorrectAnswer string  `json:"correct_answer,omitempty"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error string `json:"error"`
}
