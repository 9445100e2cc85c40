package domain

import (
	"fmt"
	"math"
)

// WeightTolerance is the slack allowed between the sum of question
// weights and the quiz's maximum score before a manual distribution is
// considered inconsistent. Rounding to two decimals means the sum of an
// automatic distribution can drift by up to 0.01 per question, so
// callers must always compare totals with a tolerance, never exactly.
const WeightTolerance = 0.01

// MinQuestionWeight is the smallest weight a question may carry in a
// publishable manual distribution.
const MinQuestionWeight = 0.01

// Round2 rounds to two decimal places, half up.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// WeightValidation is the outcome of checking a manual distribution.
type WeightValidation struct {
	Ready   bool
	Message string
	Total   float64
}

// TotalWeight sums the weights of the given questions.
func TotalWeight(questions []Question) float64 {
	var total float64
	for _, q := range questions {
		total += q.Weight
	}
	return Round2(total)
}

// NormalizeWeights returns a copy of questions where every weight is
// round2(maxScore / len(questions)). An empty list is returned
// unchanged: a quiz without questions is a valid transient state.
func NormalizeWeights(questions []Question, maxScore float64) []Question {
	if len(questions) == 0 {
		return questions
	}
	weight := Round2(maxScore / float64(len(questions)))
	normalized := make([]Question, len(questions))
	for i, q := range questions {
		q.Weight = weight
		normalized[i] = q
	}
	return normalized
}

// ValidateManualWeights checks a manually edited distribution against
// the quiz's maximum score. The distribution is ready when the total is
// within tolerance of maxScore and no question carries a weight below
// MinQuestionWeight. Otherwise the message tells the author whether the
// total is over or under, and by how much.
func ValidateManualWeights(questions []Question, maxScore, tolerance float64) WeightValidation {
	total := TotalWeight(questions)
	delta := Round2(total - maxScore)

	if delta > tolerance {
		return WeightValidation{
			Ready:   false,
			Message: fmt.Sprintf("weights total %.2f is %.2f over the maximum score %.2f", total, delta, maxScore),
			Total:   total,
		}
	}
	if delta < -tolerance {
		return WeightValidation{
			Ready:   false,
			Message: fmt.Sprintf("weights total %.2f is %.2f under the maximum score %.2f", total, -delta, maxScore),
			Total:   total,
		}
	}
	for _, q := range questions {
		if q.Weight < MinQuestionWeight {
			return WeightValidation{
				Ready:   false,
				Message: fmt.Sprintf("every question weight must be at least %.2f", MinQuestionWeight),
				Total:   total,
			}
		}
	}
	return WeightValidation{Ready: true, Total: total}
}

// UpdateWeight applies one weight edit to the question list. The new
// weight is rounded to two decimals first. If the resulting total would
// exceed maxScore by more than the tolerance the edit is rejected and
// the input list is returned unchanged. An under-budget total is
// accepted; it only keeps the quiz out of the ready state, which is a
// warning the author resolves later.
func UpdateWeight(questions []Question, questionID string, newWeight, maxScore float64) ([]Question, error) {
	rounded := Round2(newWeight)

	idx := -1
	var total float64
	for i, q := range questions {
		if q.ID == questionID {
			idx = i
			total += rounded
			continue
		}
		total += q.Weight
	}
	if idx == -1 {
		return questions, NewQuestionNotFoundError(questionID)
	}
	total = Round2(total)

	if total > maxScore+WeightTolerance {
		return questions, NewWeightOverBudgetError(total, maxScore)
	}

	updated := make([]Question, len(questions))
	copy(updated, questions)
	updated[idx].Weight = rounded
	return updated, nil
}

// RemainingCapacity is the weight still available to one question once
// all of its siblings are accounted for, floored at zero. It lets an
// author fill a single question up to the exact maximum score.
func RemainingCapacity(questions []Question, questionID string, maxScore float64) float64 {
	var others float64
	for _, q := range questions {
		if q.ID == questionID {
			continue
		}
		others += q.Weight
	}
	remaining := Round2(maxScore - others)
	if remaining < 0 {
		return 0
	}
	return remaining
}
