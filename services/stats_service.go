package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/sirjaminwong/exam-pass-mono-sub001/database"
	"github.com/sirjaminwong/exam-pass-mono-sub001/models"
	"gorm.io/gorm"
)

// QuestionTypeStat is an aggregate over answers sharing a question type.
type QuestionTypeStat struct {
	QuestionType string  `json:"question_type"`
	Total        int64   `json:"total"`
	Correct      int64   `json:"correct"`
	Score        float64 `json:"score"`
}

// AttemptStats is the read-side projection for a single attempt.
type AttemptStats struct {
	AttemptID      uuid.UUID          `json:"attempt_id"`
	ExamID         uuid.UUID          `json:"exam_id"`
	IsCompleted    bool               `json:"is_completed"`
	TotalScore     float64            `json:"total_score"`
	MaxScore       float64            `json:"max_score"`
	Accuracy       float64            `json:"accuracy"`
	QuestionCount  int64              `json:"question_count"`
	AnsweredCount  int64              `json:"answered_count"`
	CorrectCount   int64              `json:"correct_count"`
	ByQuestionType []QuestionTypeStat `json:"by_question_type"`
}

// UserStats aggregates a user's completed attempts.
type UserStats struct {
	UserID            uuid.UUID          `json:"user_id"`
	CompletedAttempts int64              `json:"completed_attempts"`
	TotalScore        float64            `json:"total_score"`
	AverageAccuracy   float64            `json:"average_accuracy"`
	BestAccuracy      float64            `json:"best_accuracy"`
	ByQuestionType    []QuestionTypeStat `json:"by_question_type"`
}

func GetAttemptStats(attemptID uuid.UUID) (*AttemptStats, error) {
	var attempt models.ExamAttempt
	if err := database.DB.First(&attempt, "id = ?", attemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}

	stats := AttemptStats{
		AttemptID:   attempt.ID,
		ExamID:      attempt.ExamID,
		IsCompleted: attempt.IsCompleted,
		TotalScore:  attempt.TotalScore,
		MaxScore:    attempt.MaxScore,
		Accuracy:    attempt.Accuracy,
	}

	if err := database.DB.Model(&models.ExamQuestion{}).
		Where("exam_id = ?", attempt.ExamID).
		Count(&stats.QuestionCount).Error; err != nil {
		return nil, err
	}

	if err := database.DB.Model(&models.Answer{}).
		Where("attempt_id = ?", attemptID).
		Count(&stats.AnsweredCount).Error; err != nil {
		return nil, err
	}
	if err := database.DB.Model(&models.Answer{}).
		Where("attempt_id = ? AND is_correct = ?", attemptID, true).
		Count(&stats.CorrectCount).Error; err != nil {
		return nil, err
	}

	err := database.DB.Model(&models.Answer{}).
		Select("questions.question_type AS question_type, COUNT(*) AS total, SUM(CASE WHEN answers.is_correct THEN 1 ELSE 0 END) AS correct, COALESCE(SUM(answers.score), 0) AS score").
		Joins("JOIN questions ON questions.id = answers.question_id").
		Where("answers.attempt_id = ?", attemptID).
		Group("questions.question_type").
		Order("questions.question_type").
		Scan(&stats.ByQuestionType).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func GetUserStats(userID uuid.UUID) (*UserStats, error) {
	stats := UserStats{UserID: userID}

	type attemptAgg struct {
		Completed  int64
		TotalScore float64
		AvgAcc     float64
		BestAcc    float64
	}
	var agg attemptAgg
	err := database.DB.Model(&models.ExamAttempt{}).
		Select("COUNT(*) AS completed, COALESCE(SUM(total_score), 0) AS total_score, COALESCE(AVG(accuracy), 0) AS avg_acc, COALESCE(MAX(accuracy), 0) AS best_acc").
		Where("user_id = ? AND is_completed = ?", userID, true).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	stats.CompletedAttempts = agg.Completed
	stats.TotalScore = agg.TotalScore
	stats.AverageAccuracy = agg.AvgAcc
	stats.BestAccuracy = agg.BestAcc

	err = database.DB.Model(&models.Answer{}).
		Select("questions.question_type AS question_type, COUNT(*) AS total, SUM(CASE WHEN answers.is_correct THEN 1 ELSE 0 END) AS correct, COALESCE(SUM(answers.score), 0) AS score").
		Joins("JOIN questions ON questions.id = answers.question_id").
		Joins("JOIN exam_attempts ON exam_attempts.id = answers.attempt_id").
		Where("exam_attempts.user_id = ? AND exam_attempts.is_completed = ?", userID, true).
		Group("questions.question_type").
		Order("questions.question_type").
		Scan(&stats.ByQuestionType).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
