package services

import (
	"github.com/sirjaminwong/exam-pass-mono-sub001/models"
)

// Evaluate reports whether a submitted answer matches the stored correct answer.
// Multi-select answers compare as sets: same cardinality and every submitted key
// present among the correct keys, order irrelevant. Everything else compares by
// value, and mismatched shapes are simply wrong.
func Evaluate(userAnswer, correctAnswer models.AnswerValue) bool {
	if userAnswer.Kind != correctAnswer.Kind {
		return false
	}

	switch correctAnswer.Kind {
	case models.AnswerKindMulti:
		if len(userAnswer.Multi) != len(correctAnswer.Multi) {
			return false
		}
		correct := make(map[string]struct{}, len(correctAnswer.Multi))
		for _, key := range correctAnswer.Multi {
			correct[key] = struct{}{}
		}
		for _, key := range userAnswer.Multi {
			if _, ok := correct[key]; !ok {
				return false
			}
		}
		return true
	case models.AnswerKindBool:
		return userAnswer.Bool == correctAnswer.Bool
	case models.AnswerKindSingle:
		return userAnswer.Single == correctAnswer.Single
	}
	return false
}

// AwardScore applies the all-or-nothing scoring policy.
func AwardScore(correct bool, questionScore float64) float64 {
	if correct {
		return questionScore
	}
	return 0
}
