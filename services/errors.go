package services

import "errors"

var (
	// ErrExamNotFound indicates the exam id does not resolve.
	ErrExamNotFound = errors.New("exam not found")
	// ErrQuestionNotFound indicates a submitted question id is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotFound indicates the attempt id does not resolve.
	ErrAttemptNotFound = errors.New("exam attempt not found")
	// ErrAttemptCompleted is returned when mutating or completing a finished attempt.
	ErrAttemptCompleted = errors.New("exam attempt already completed")
	// ErrAnswerShape is returned when the submitted answer shape does not match
	// the question's declared type.
	ErrAnswerShape = errors.New("answer shape does not match question type")
)
