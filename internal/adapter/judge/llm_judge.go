package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quizforge/internal/domain"
	"quizforge/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// llmCaller is the slice of the langchaingo client the judge needs.
// Both *openai.LLM and *ollama.LLM satisfy it.
type llmCaller interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

// LLMJudge implements domain.AnswerJudge against a text-completion
// model. One Call grades one open answer; SynthesizeFeedback issues the
// single batched narrative call.
type LLMJudge struct {
	llm         llmCaller
	temperature float64
	callTimeout time.Duration
}

// NewLLMJudge creates a new LLMJudge. callTimeout bounds every
// individual model call.
func NewLLMJudge(llm llmCaller, temperature float64, callTimeout time.Duration) *LLMJudge {
	return &LLMJudge{
		llm:         llm,
		temperature: temperature,
		callTimeout: callTimeout,
	}
}

// JudgeAnswer implements domain.AnswerJudge
func (j *LLMJudge) JudgeAnswer(ctx context.Context, req domain.JudgeRequest) (bool, error) {
	l := logger.Get()
	l.Debug("Judging open answer with LLM",
		zap.String("question", req.QuestionText))

	var reference string
	if req.ReferenceAnswer != "" {
		reference = fmt.Sprintf(`Expected answer or general idea: %s
Be somewhat flexible when comparing against the expected answer.`, req.ReferenceAnswer)
	} else {
		reference = "No reference answer is available. Decide on the answer's own merits whether it is a plausible, correct response to the question."
	}

	prompt := fmt.Sprintf(`You are a quiz answer judge. Decide whether the user's answer is correct and respond with ONLY a JSON object in the following format:
{
    "is_correct": true
}

Question: %s
User's Answer: %s
%s`, req.QuestionText, req.UserAnswer, reference)

	rawResponse, err := j.callLLM(ctx, prompt)
	if err != nil {
		return false, domain.NewJudgeServiceError(fmt.Errorf("judge call failed: %w", err))
	}

	extracted, err := extractJSONObject(rawResponse)
	if err != nil {
		l.Error("No JSON object found in judge response",
			zap.Error(err),
			zap.String("raw_response", rawResponse))
		return false, domain.NewJudgeServiceError(err)
	}

	var verdict struct {
		IsCorrect *bool `json:"is_correct"`
	}
	if err := json.Unmarshal([]byte(extracted), &verdict); err != nil {
		l.Error("Failed to unmarshal judge verdict",
			zap.Error(err),
			zap.String("extracted_json", extracted))
		return false, domain.NewJudgeServiceError(fmt.Errorf("failed to unmarshal judge verdict: %w", err))
	}
	if verdict.IsCorrect == nil {
		// A response without the field is a schema violation, not a "false"
		return false, domain.NewJudgeServiceError(fmt.Errorf("judge response missing is_correct field: %s", extracted))
	}

	return *verdict.IsCorrect, nil
}

// SynthesizeFeedback implements domain.AnswerJudge
func (j *LLMJudge) SynthesizeFeedback(ctx context.Context, req domain.FeedbackRequest) (*domain.Feedback, error) {
	l := logger.Get()

	payload, err := json.Marshal(req.Reviews)
	if err != nil {
		return nil, domain.NewJudgeServiceError(fmt.Errorf("failed to marshal review payload: %w", err))
	}

	var percentage float64
	if req.MaxScore > 0 {
		percentage = req.Score / req.MaxScore * 100
	}
	congrats := ""
	if percentage > 60 {
		congrats = "The user did well, so open with a brief congratulation."
	}

	prompt := fmt.Sprintf(`You are an expert educator reviewing a completed quiz.
The user scored %.2f%% of a maximum of %.2f points. %s
These are the user's answers:
%s

Write a general feedback addressed to the user, explaining in which areas they performed well and which need improvement. Be clear and specific, give concrete examples of what they did well and what they could do differently, and keep a positive, constructive tone. Then review each question individually.

For every question the feedback must:
- Explain why an incorrect answer is wrong.
- Justify why the correct answer is correct.
- Compare the wrong and right answers with a concrete example when that helps.

Do not greet or thank the user, go straight to the feedback.

Respond with ONLY a JSON object in the following format:
{
    "overall_feedback": "general feedback here",
    "question_feedbacks": [
        {"question_id": "id", "feedback": "per-question feedback", "is_correct": true}
    ]
}`, percentage, req.MaxScore, congrats, string(payload))

	rawResponse, err := j.callLLM(ctx, prompt)
	if err != nil {
		return nil, domain.NewJudgeServiceError(fmt.Errorf("feedback call failed: %w", err))
	}

	extracted, err := extractJSONObject(rawResponse)
	if err != nil {
		l.Error("No JSON object found in feedback response",
			zap.Error(err),
			zap.String("raw_response", rawResponse))
		return nil, domain.NewJudgeServiceError(err)
	}

	var parsed struct {
		OverallFeedback   string `json:"overall_feedback"`
		QuestionFeedbacks []struct {
			QuestionID string `json:"question_id"`
			Feedback   string `json:"feedback"`
			IsCorrect  *bool  `json:"is_correct"`
		} `json:"question_feedbacks"`
	}
	if err := json.Unmarshal([]byte(extracted), &parsed); err != nil {
		l.Error("Failed to unmarshal feedback response",
			zap.Error(err),
			zap.String("extracted_json", extracted))
		return nil, domain.NewJudgeServiceError(fmt.Errorf("failed to unmarshal feedback: %w", err))
	}
	if parsed.OverallFeedback == "" {
		return nil, domain.NewJudgeServiceError(fmt.Errorf("feedback response missing overall_feedback: %s", extracted))
	}

	feedback := &domain.Feedback{Overall: parsed.OverallFeedback}
	for _, qf := range parsed.QuestionFeedbacks {
		entry := domain.QuestionFeedback{
			QuestionID: qf.QuestionID,
			Feedback:   qf.Feedback,
		}
		if qf.IsCorrect != nil {
			entry.IsCorrect = *qf.IsCorrect
			entry.HasVerdict = true
		}
		feedback.PerQuestion = append(feedback.PerQuestion, entry)
	}

	l.Info("Parsed feedback synthesis response",
		zap.Int("question_feedbacks", len(feedback.PerQuestion)))
	return feedback, nil
}

func (j *LLMJudge) callLLM(ctx context.Context, prompt string) (string, error) {
	l := logger.Get()

	callCtx, cancel := context.WithTimeout(ctx, j.callTimeout)
	defer cancel()

	response, err := j.llm.Call(callCtx, prompt, llms.WithTemperature(j.temperature))
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			l.Error("LLM request timed out", zap.Error(err))
			return "", fmt.Errorf("LLM request timed out: %w", err)
		}
		l.Error("Failed to get response from LLM", zap.Error(err))
		return "", fmt.Errorf("LLM call failed: %w", err)
	}

	return response, nil
}

// extractJSONObject pulls the JSON object out of a raw model response.
// Reasoning models wrap their output in <think> blocks and chat models
// like to add markdown fences, so the cleaning happens before the brace
// window is located.
func extractJSONObject(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)

	if thinkStart := strings.Index(cleaned, "<think>"); thinkStart != -1 {
		if thinkEnd := strings.Index(cleaned, "</think>"); thinkEnd != -1 && thinkEnd > thinkStart {
			cleaned = cleaned[:thinkStart] + cleaned[thinkEnd+len("</think>"):]
			cleaned = strings.TrimSpace(cleaned)
		}
	}

	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	jsonStart := strings.Index(cleaned, "{")
	jsonEnd := strings.LastIndex(cleaned, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return "", fmt.Errorf("no JSON object found in LLM response: %s", cleaned)
	}

	return cleaned[jsonStart : jsonEnd+1], nil
}
