package domain

// Readiness is the derived publish state of a quiz's scoring setup.
type Readiness string

const (
	Ready    Readiness = "ready"
	NotReady Readiness = "not_ready"
)

// ReadinessReport carries the derived state plus the author-facing
// explanation when the quiz is not publishable.
type ReadinessReport struct {
	State   Readiness
	Message string
	Total   float64
}

// IsReady reports whether the quiz may be made visible.
func (r ReadinessReport) IsReady() bool {
	return r.State == Ready
}

// EvaluateReadiness derives the publish state of a quiz from its
// current weight configuration. A quiz in automatic scoring mode is
// always ready; a manually scored quiz is ready only when its weights
// validate against the maximum score. Callers must re-evaluate on every
// question add/remove, weight edit, maxScore edit or autoScoring
// toggle, and must force visibility off whenever the result is
// NotReady so respondents can never answer a quiz with an inconsistent
// distribution.
func EvaluateReadiness(quiz Quiz, questions []Question) ReadinessReport {
	if quiz.AutoScoring {
		return ReadinessReport{State: Ready, Total: TotalWeight(questions)}
	}
	validation := ValidateManualWeights(questions, quiz.MaxScore, WeightTolerance)
	if !validation.Ready {
		return ReadinessReport{State: NotReady, Message: validation.Message, Total: validation.Total}
	}
	return ReadinessReport{State: Ready, Total: validation.Total}
}
