package domain

import "context"

// JudgeRequest carries one open answer to the judgment service.
// ReferenceAnswer may be empty, in which case the service is asked to
// decide plausibility unaided.
type JudgeRequest struct {
	QuestionText    string
	UserAnswer      string
	ReferenceAnswer string
}

// QuestionReview is the per-question payload of the batched feedback
// call: everything the judgment service needs to comment on one answer.
type QuestionReview struct {
	QuestionID    string       `json:"questionId"`
	Question      string       `json:"question"`
	Type          QuestionType `json:"type"`
	UserAnswer    string       `json:"userAnswer"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	IsCorrect     bool         `json:"isCorrect"`
	Weight        float64      `json:"weight"`
}

// FeedbackRequest is the input of the single batched synthesis call.
type FeedbackRequest struct {
	Reviews  []QuestionReview
	Score    float64
	MaxScore float64
}

// QuestionFeedback is the judgment service's narrative and correctness
// opinion for one question. HasVerdict reports whether the correctness
// field was present and well-formed in the response; only open
// questions ever adopt it.
type QuestionFeedback struct {
	QuestionID string
	Feedback   string
	IsCorrect  bool
	HasVerdict bool
}

// Feedback is the outcome of the batched synthesis call.
type Feedback struct {
	Overall     string
	PerQuestion []QuestionFeedback
}

// ForQuestion returns the feedback entry for a question, if any.
func (f *Feedback) ForQuestion(questionID string) (QuestionFeedback, bool) {
	for _, qf := range f.PerQuestion {
		if qf.QuestionID == questionID {
			return qf, true
		}
	}
	return QuestionFeedback{}, false
}

// AnswerJudge is the port to the external judgment oracle. Both calls
// suspend on network I/O and honor context cancellation; every other
// component in the grading pipeline is pure computation.
type AnswerJudge interface {
	// JudgeAnswer grades one open answer and returns its correctness.
	JudgeAnswer(ctx context.Context, req JudgeRequest) (bool, error)

	// SynthesizeFeedback issues the single batched call that produces
	// one overall narrative plus one narrative and correctness opinion
	// per question.
	SynthesizeFeedback(ctx context.Context, req FeedbackRequest) (*Feedback, error)
}
