package domain

// ClassifyChoice grades a closed question by exact option match. It
// returns true only when the submitted option ID belongs to the single
// correctly marked option. A question whose options carry no correct
// mark, or more than one among options with non-empty text, is not
// gradeable by exact match and always evaluates to incorrect.
//
// The function is deterministic, never errors, and is independent of
// option order.
func ClassifyChoice(question Question, options []Option, rawAnswer string) bool {
	if question.Type != QuestionClosed || rawAnswer == "" {
		return false
	}

	correctCount := 0
	for _, opt := range options {
		if opt.Title != "" && opt.IsCorrect {
			correctCount++
		}
	}
	if correctCount != 1 {
		return false
	}

	for _, opt := range options {
		if opt.ID == rawAnswer {
			return opt.Title != "" && opt.IsCorrect
		}
	}
	return false
}

// ChosenOptionTitle resolves the display text of the option a
// respondent picked, for use in judge payloads and feedback.
func ChosenOptionTitle(options []Option, rawAnswer string) string {
	for _, opt := range options {
		if opt.ID == rawAnswer {
			return opt.Title
		}
	}
	return ""
}

// CorrectOptionTitle resolves the display text of the correctly marked
// option, if there is exactly one.
func CorrectOptionTitle(options []Option) string {
	var title string
	count := 0
	for _, opt := range options {
		if opt.Title != "" && opt.IsCorrect {
			title = opt.Title
			count++
		}
	}
	if count != 1 {
		return ""
	}
	return title
}
