package services

import (
	"testing"

	"github.com/sirjaminwong/exam-pass-mono-sub001/models"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		user    models.AnswerValue
		correct models.AnswerValue
		want    bool
	}{
		{name: "single match", user: models.SingleAnswer("A"), correct: models.SingleAnswer("A"), want: true},
		{name: "single mismatch", user: models.SingleAnswer("B"), correct: models.SingleAnswer("A"), want: false},
		{name: "bool match", user: models.BoolAnswer(true), correct: models.BoolAnswer(true), want: true},
		{name: "bool mismatch", user: models.BoolAnswer(false), correct: models.BoolAnswer(true), want: false},
		{name: "multi order independent", user: models.MultiAnswer("B", "A"), correct: models.MultiAnswer("A", "B"), want: true},
		{name: "multi subset", user: models.MultiAnswer("A"), correct: models.MultiAnswer("A", "B"), want: false},
		{name: "multi superset", user: models.MultiAnswer("A", "B", "C"), correct: models.MultiAnswer("A", "B"), want: false},
		{name: "multi wrong element", user: models.MultiAnswer("A", "C"), correct: models.MultiAnswer("A", "B"), want: false},
		// Submitted arrays are compared as given; a repeated key counts toward
		// cardinality rather than being filtered.
		{name: "multi duplicate fills cardinality", user: models.MultiAnswer("A", "A"), correct: models.MultiAnswer("A", "B"), want: true},
		{name: "multi empty vs empty", user: models.MultiAnswer(), correct: models.MultiAnswer(), want: true},
		{name: "kind mismatch single vs multi", user: models.SingleAnswer("A"), correct: models.MultiAnswer("A"), want: false},
		{name: "kind mismatch bool vs single", user: models.BoolAnswer(true), correct: models.SingleAnswer("true"), want: false},
		{name: "zero values never match", user: models.AnswerValue{}, correct: models.AnswerValue{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.user, tt.correct); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAwardScore(t *testing.T) {
	if got := AwardScore(true, 7.5); got != 7.5 {
		t.Errorf("AwardScore(correct) = %v, want 7.5", got)
	}
	if got := AwardScore(false, 7.5); got != 0 {
		t.Errorf("AwardScore(incorrect) = %v, want 0", got)
	}
}
