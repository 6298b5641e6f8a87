package jobs

import (
	"log"
	"time"

	"github.com/sirjaminwong/exam-pass-mono-sub001/database"
	"github.com/sirjaminwong/exam-pass-mono-sub001/models"
	"github.com/sirjaminwong/exam-pass-mono-sub001/services"
)

// expiryGrace keeps slow but honest submissions from being cut off exactly at
// the limit.
const expiryGrace = time.Minute

// ExpireOverdueAttempts finalizes in-progress attempts whose exam time limit
// has run out, using the same aggregation as a normal completion. Untimed
// exams (duration 0) are never swept.
func ExpireOverdueAttempts() {
	log.Println("Running job: ExpireOverdueAttempts...")

	var inProgress []models.ExamAttempt
	err := database.DB.
		Preload("Exam").
		Joins("JOIN exams ON exams.id = exam_attempts.exam_id").
		Where("exam_attempts.is_completed = ? AND exams.duration_minutes > 0", false).
		Find(&inProgress).Error
	if err != nil {
		log.Printf("Error checking for overdue attempts: %v", err)
		return
	}

	now := time.Now()
	expired := 0
	for i := range inProgress {
		attempt := &inProgress[i]
		deadline := attempt.StartedAt.Add(time.Duration(attempt.Exam.DurationMinutes) * time.Minute)
		if now.Before(deadline.Add(expiryGrace)) {
			continue
		}
		if err := services.FinalizeOverdueAttempt(attempt, deadline); err != nil {
			log.Printf("Error finalizing overdue attempt %s: %v", attempt.ID, err)
			continue
		}
		expired++
	}

	if expired == 0 {
		log.Println("No overdue attempts found.")
		return
	}

	log.Printf("Finalized %d overdue attempt(s).", expired)
}
