package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirjaminwong/exam-pass-mono-sub001/database"
	"github.com/sirjaminwong/exam-pass-mono-sub001/models"
	"github.com/sirjaminwong/exam-pass-mono-sub001/websocket"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// nowFunc is overridable in tests for deterministic timestamps.
var nowFunc = time.Now

// certificateHook is invoked asynchronously after a successful completion;
// tests replace it.
var certificateHook = CheckAndGenerateCertificate

// AnswerSubmission is one entry of a batch submission.
type AnswerSubmission struct {
	QuestionID uuid.UUID          `json:"question_id"`
	UserAnswer models.AnswerValue `json:"user_answer"`
}

// StartExam returns the user's in-progress attempt for the exam, creating one
// if none exists. Calling it again before completion returns the same attempt
// untouched.
func StartExam(userID, examID uuid.UUID) (*models.ExamAttempt, error) {
	var exam models.Exam
	if err := database.DB.First(&exam, "id = ?", examID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	var attempt models.ExamAttempt
	err := database.DB.
		Where("user_id = ? AND exam_id = ? AND is_completed = ?", userID, examID, false).
		First(&attempt).Error
	if err == nil {
		return &attempt, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	attempt = models.ExamAttempt{
		UserID:    userID,
		ExamID:    examID,
		StartedAt: nowFunc(),
	}
	if createErr := database.DB.Create(&attempt).Error; createErr != nil {
		// A concurrent start may have won the partial unique index on
		// (user_id, exam_id, is_completed = false); return the winner's row.
		var existing models.ExamAttempt
		if readErr := database.DB.
			Where("user_id = ? AND exam_id = ? AND is_completed = ?", userID, examID, false).
			First(&existing).Error; readErr == nil {
			return &existing, nil
		}
		return nil, createErr
	}

	websocket.PublishAttemptEvent(websocket.AttemptEvent{
		Type:      websocket.EventAttemptStarted,
		AttemptID: attempt.ID,
		ExamID:    examID,
		UserID:    userID,
		At:        attempt.StartedAt,
	})

	return &attempt, nil
}

// SubmitAnswer evaluates and persists a single answer. Resubmitting the same
// question overwrites the existing row and refreshes its timestamp.
func SubmitAnswer(attemptID, questionID uuid.UUID, userAnswer models.AnswerValue) (*models.Answer, error) {
	var answer *models.Answer
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var txErr error
		answer, txErr = submitAnswerTx(tx, attemptID, questionID, userAnswer)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// BatchSubmitAnswers applies submissions in input order inside one transaction;
// any failure rolls the whole batch back.
func BatchSubmitAnswers(attemptID uuid.UUID, submissions []AnswerSubmission) ([]models.Answer, error) {
	answers := make([]models.Answer, 0, len(submissions))
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, submission := range submissions {
			answer, txErr := submitAnswerTx(tx, attemptID, submission.QuestionID, submission.UserAnswer)
			if txErr != nil {
				return txErr
			}
			answers = append(answers, *answer)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return answers, nil
}

func submitAnswerTx(tx *gorm.DB, attemptID, questionID uuid.UUID, userAnswer models.AnswerValue) (*models.Answer, error) {
	var attempt models.ExamAttempt
	if err := tx.First(&attempt, "id = ?", attemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.IsCompleted {
		return nil, ErrAttemptCompleted
	}

	var question models.Question
	if err := tx.First(&question, "id = ?", questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}

	if userAnswer.Kind != question.ExpectedAnswerKind() {
		return nil, ErrAnswerShape
	}

	correct := Evaluate(userAnswer, question.CorrectAnswer)
	awarded := AwardScore(correct, effectiveScoreTx(tx, attempt.ExamID, question))

	answer := models.Answer{
		AttemptID:  attemptID,
		QuestionID: questionID,
		UserAnswer: userAnswer,
		IsCorrect:  correct,
		Score:      awarded,
		AnsweredAt: nowFunc(),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_answer", "is_correct", "score", "answered_at",
		}),
	}).Create(&answer).Error
	if err != nil {
		return nil, err
	}

	// On conflict the insert's generated ID is discarded; read the surviving row.
	var persisted models.Answer
	if err := tx.
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&persisted).Error; err != nil {
		return nil, err
	}
	return &persisted, nil
}

// effectiveScoreTx resolves a question's worth within the attempt's exam,
// honoring per-exam overrides.
func effectiveScoreTx(tx *gorm.DB, examID uuid.UUID, question models.Question) float64 {
	var examQuestion models.ExamQuestion
	err := tx.
		Where("exam_id = ? AND question_id = ?", examID, question.ID).
		First(&examQuestion).Error
	if err == nil && examQuestion.Score != nil {
		return *examQuestion.Score
	}
	return question.Score
}

// CompleteAttempt finalizes an attempt: total score over its answers, max score
// over every question in the exam (answered or not), accuracy as a percentage.
// Terminal; a second call fails with ErrAttemptCompleted.
func CompleteAttempt(attemptID uuid.UUID) (*models.ExamAttempt, error) {
	var attempt models.ExamAttempt
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&attempt, "id = ?", attemptID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAttemptNotFound
			}
			return err
		}
		if attempt.IsCompleted {
			return ErrAttemptCompleted
		}
		return finalizeAttemptTx(tx, &attempt, nowFunc())
	})
	if err != nil {
		return nil, err
	}

	go certificateHook(attempt)

	websocket.PublishAttemptEvent(websocket.AttemptEvent{
		Type:       websocket.EventAttemptCompleted,
		AttemptID:  attempt.ID,
		ExamID:     attempt.ExamID,
		UserID:     attempt.UserID,
		TotalScore: attempt.TotalScore,
		MaxScore:   attempt.MaxScore,
		Accuracy:   attempt.Accuracy,
		At:         *attempt.CompletedAt,
	})

	return &attempt, nil
}

// finalizeAttemptTx computes and persists the terminal scoring state. Shared by
// CompleteAttempt and the overdue-attempt sweep.
func finalizeAttemptTx(tx *gorm.DB, attempt *models.ExamAttempt, completedAt time.Time) error {
	var totalScore float64
	err := tx.Model(&models.Answer{}).
		Where("attempt_id = ?", attempt.ID).
		Select("COALESCE(SUM(score), 0)").
		Scan(&totalScore).Error
	if err != nil {
		return err
	}

	var examQuestions []models.ExamQuestion
	if err := tx.Preload("Question").
		Where("exam_id = ?", attempt.ExamID).
		Find(&examQuestions).Error; err != nil {
		return err
	}

	var maxScore float64
	for i := range examQuestions {
		maxScore += examQuestions[i].EffectiveScore()
	}

	accuracy := 0.0
	if maxScore > 0 {
		accuracy = totalScore / maxScore * 100
	}

	attempt.TotalScore = totalScore
	attempt.MaxScore = maxScore
	attempt.Accuracy = accuracy
	attempt.IsCompleted = true
	attempt.CompletedAt = &completedAt

	return tx.Model(attempt).Updates(map[string]interface{}{
		"total_score":  totalScore,
		"max_score":    maxScore,
		"accuracy":     accuracy,
		"is_completed": true,
		"completed_at": completedAt,
	}).Error
}

// FinalizeOverdueAttempt is used by the expiry job once an attempt has run past
// its exam's time limit.
func FinalizeOverdueAttempt(attempt *models.ExamAttempt, deadline time.Time) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var fresh models.ExamAttempt
		if err := tx.First(&fresh, "id = ?", attempt.ID).Error; err != nil {
			return err
		}
		if fresh.IsCompleted {
			return nil
		}
		if err := finalizeAttemptTx(tx, &fresh, deadline); err != nil {
			return err
		}
		*attempt = fresh
		return nil
	})
}
